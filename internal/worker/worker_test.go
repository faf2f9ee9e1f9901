package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func popJob(t *testing.T, mr *miniredis.Miniredis, queue string) Job {
	t.Helper()
	raw, err := mr.Lpop(queue)
	require.NoError(t, err)
	var job Job
	require.NoError(t, json.Unmarshal([]byte(raw), &job))
	return job
}

func TestWorker_ProcessesJob(t *testing.T) {
	client, _ := setupRedis(t)
	ctx := context.Background()
	w := NewWorker(WorkerConfig{RedisClient: client, Queues: []string{"default"}, PollInterval: time.Second})

	var got *Job
	w.RegisterHandler(JobTypeOverdueReminder, func(_ context.Context, job *Job) error {
		got = job
		return nil
	})

	q := NewJobQueue(client)
	require.NoError(t, q.Enqueue(ctx, "default", JobTypeOverdueReminder, map[string]interface{}{"task_id": "t1"}))

	require.NoError(t, w.ProcessNext(ctx))
	require.NotNil(t, got)
	assert.Equal(t, "t1", got.Payload["task_id"])
	assert.Equal(t, defaultMaxTries, got.MaxTries)
}

func TestWorker_RetriesThenDeadLetters(t *testing.T) {
	client, mr := setupRedis(t)
	ctx := context.Background()
	w := NewWorker(WorkerConfig{RedisClient: client, Queues: []string{"default"}, PollInterval: time.Second})
	w.RegisterHandler(JobTypeOverdueReminder, func(context.Context, *Job) error {
		return errors.New("smtp down")
	})

	q := NewJobQueue(client)
	require.NoError(t, q.Enqueue(ctx, "default", JobTypeOverdueReminder, map[string]interface{}{"task_id": "t1"}))

	require.NoError(t, w.ProcessNext(ctx))
	retried := popJob(t, mr, RetryQueue)
	assert.Equal(t, 1, retried.Attempts)
	assert.True(t, retried.ProcessAt.After(time.Now()))

	// Pretend the backoff elapsed and the job is on its final attempt.
	retried.ProcessAt = time.Time{}
	retried.Attempts = defaultMaxTries - 1
	data, _ := json.Marshal(retried)
	_, err := mr.Push(RetryQueue, string(data))
	require.NoError(t, err)

	require.NoError(t, w.ProcessNext(ctx))
	dead, err := mr.List(DeadQueue)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Contains(t, dead[0], "smtp down")
}

func TestWorker_RequeuesFutureJobs(t *testing.T) {
	client, _ := setupRedis(t)
	ctx := context.Background()
	w := NewWorker(WorkerConfig{RedisClient: client, Queues: []string{"default"}, PollInterval: time.Second})

	called := false
	w.RegisterHandler(JobTypeOverdueReminder, func(context.Context, *Job) error {
		called = true
		return nil
	})

	q := NewJobQueue(client)
	require.NoError(t, q.EnqueueAt(ctx, "default", JobTypeOverdueReminder, nil, time.Now().Add(time.Hour)))

	require.NoError(t, w.ProcessNext(ctx))
	assert.False(t, called)

	size, err := q.Size(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)
}

func TestWorker_UnknownJobTypeIsDeadLettered(t *testing.T) {
	client, mr := setupRedis(t)
	ctx := context.Background()
	w := NewWorker(WorkerConfig{RedisClient: client, Queues: []string{"default"}, PollInterval: time.Second})

	q := NewJobQueue(client)
	require.NoError(t, q.Enqueue(ctx, "default", JobType("mystery"), nil))

	require.NoError(t, w.ProcessNext(ctx))
	dead, err := mr.List(DeadQueue)
	require.NoError(t, err)
	assert.Len(t, dead, 1)
}

func TestWorker_StartAndStop(t *testing.T) {
	client, _ := setupRedis(t)
	w := NewWorker(WorkerConfig{RedisClient: client, Queues: []string{"default"}, PollInterval: time.Second})

	done := make(chan string, 1)
	w.RegisterHandler(JobTypeOverdueReminder, func(_ context.Context, job *Job) error {
		done <- job.Payload["task_id"].(string)
		return nil
	})

	w.Start(context.Background(), 2)
	require.NoError(t, NewJobQueue(client).Enqueue(context.Background(), "default", JobTypeOverdueReminder, map[string]interface{}{"task_id": "t9"}))

	select {
	case id := <-done:
		assert.Equal(t, "t9", id)
	case <-time.After(5 * time.Second):
		t.Fatal("job was not processed")
	}
	w.Stop()
}

func TestNewWorker_AlwaysListensOnRetryQueue(t *testing.T) {
	w := NewWorker(WorkerConfig{Queues: []string{"reminders"}})
	assert.Equal(t, []string{"reminders", RetryQueue}, w.queues)

	w = NewWorker(WorkerConfig{Queues: []string{RetryQueue}})
	assert.Equal(t, []string{RetryQueue}, w.queues)
}
