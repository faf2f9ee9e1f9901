package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type JobType string

const (
	JobTypeOverdueReminder JobType = "overdue_reminder"
)

const (
	RetryQueue = "retry_queue"
	DeadQueue  = "dead_queue"

	defaultMaxTries = 3
	jobTimeout      = 30 * time.Second
)

type Job struct {
	ID        string                 `json:"id"`
	Type      JobType                `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	Attempts  int                    `json:"attempts"`
	MaxTries  int                    `json:"max_tries"`
	CreatedAt time.Time              `json:"created_at"`
	ProcessAt time.Time              `json:"process_at"`
}

type JobHandler func(ctx context.Context, job *Job) error

type WorkerConfig struct {
	RedisClient  *redis.Client
	PollInterval time.Duration
	Queues       []string
}

// Worker pops jobs from Redis lists and dispatches them by type. Failed jobs
// are retried with exponential backoff and parked on the dead queue once
// they run out of attempts.
type Worker struct {
	client   *redis.Client
	handlers map[JobType]JobHandler
	queues   []string
	poll     time.Duration
	mu       sync.RWMutex
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	now      func() time.Time
}

func NewWorker(config WorkerConfig) *Worker {
	poll := config.PollInterval
	if poll <= 0 {
		poll = 5 * time.Second
	}

	queues := append([]string{}, config.Queues...)
	hasRetry := false
	for _, q := range queues {
		if q == RetryQueue {
			hasRetry = true
		}
	}
	if !hasRetry {
		queues = append(queues, RetryQueue)
	}

	return &Worker{
		client:   config.RedisClient,
		handlers: make(map[JobType]JobHandler),
		queues:   queues,
		poll:     poll,
		now:      time.Now,
	}
}

func (w *Worker) RegisterHandler(jobType JobType, handler JobHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobType] = handler
}

// Start launches concurrency loops that run until ctx is cancelled or Stop
// is called.
func (w *Worker) Start(ctx context.Context, concurrency int) {
	if concurrency <= 0 {
		concurrency = 1
	}
	ctx, w.cancel = context.WithCancel(ctx)
	log.Info().Int("concurrency", concurrency).Strs("queues", w.queues).Msg("starting worker")

	for i := 0; i < concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx)
	}
}

func (w *Worker) Stop() {
	log.Info().Msg("stopping worker")
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	log.Info().Msg("worker stopped")
}

func (w *Worker) workerLoop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := w.ProcessNext(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Msg("error processing job")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	}
}

// ProcessNext blocks up to the poll interval for one job and handles it.
// An empty poll is not an error.
func (w *Worker) ProcessNext(ctx context.Context) error {
	result, err := w.client.BLPop(ctx, w.poll, w.queues...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("pop job: %w", err)
	}
	if len(result) < 2 {
		return fmt.Errorf("invalid job result")
	}

	queue, data := result[0], result[1]

	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return fmt.Errorf("unmarshal job: %w", err)
	}

	if w.now().Before(job.ProcessAt) {
		return w.enqueue(ctx, queue, &job)
	}
	return w.execute(ctx, &job)
}

func (w *Worker) execute(ctx context.Context, job *Job) error {
	w.mu.RLock()
	handler, exists := w.handlers[job.Type]
	w.mu.RUnlock()

	if !exists {
		return w.moveToDeadQueue(ctx, job, fmt.Errorf("no handler registered for job type: %s", job.Type))
	}

	jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	logger := log.With().Str("job_id", job.ID).Str("job_type", string(job.Type)).Logger()
	if err := handler(jobCtx, job); err != nil {
		job.Attempts++
		if job.Attempts < job.MaxTries {
			logger.Warn().Err(err).Int("attempt", job.Attempts).Int("max_tries", job.MaxTries).Msg("job failed, retrying")
			return w.retry(ctx, job)
		}
		logger.Error().Err(err).Int("attempts", job.Attempts).Msg("job failed permanently")
		return w.moveToDeadQueue(ctx, job, err)
	}

	logger.Debug().Msg("job completed")
	return nil
}

func (w *Worker) retry(ctx context.Context, job *Job) error {
	delay := time.Duration(1<<job.Attempts) * time.Minute
	job.ProcessAt = w.now().Add(delay)
	return w.enqueue(ctx, RetryQueue, job)
}

func (w *Worker) enqueue(ctx context.Context, queue string, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	return w.client.RPush(ctx, queue, data).Err()
}

func (w *Worker) moveToDeadQueue(ctx context.Context, job *Job, jobErr error) error {
	data, err := json.Marshal(map[string]interface{}{
		"original_job": job,
		"error":        jobErr.Error(),
		"failed_at":    w.now(),
	})
	if err != nil {
		return fmt.Errorf("marshal dead job: %w", err)
	}
	return w.client.RPush(ctx, DeadQueue, data).Err()
}

type JobQueue struct {
	client *redis.Client
	now    func() time.Time
}

func NewJobQueue(client *redis.Client) *JobQueue {
	return &JobQueue{client: client, now: time.Now}
}

func (q *JobQueue) Enqueue(ctx context.Context, queue string, jobType JobType, payload map[string]interface{}) error {
	return q.EnqueueAt(ctx, queue, jobType, payload, q.now())
}

func (q *JobQueue) EnqueueAt(ctx context.Context, queue string, jobType JobType, payload map[string]interface{}, processAt time.Time) error {
	now := q.now()
	job := &Job{
		ID:        fmt.Sprintf("%d", now.UnixNano()),
		Type:      jobType,
		Payload:   payload,
		MaxTries:  defaultMaxTries,
		CreatedAt: now,
		ProcessAt: processAt,
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return q.client.RPush(ctx, queue, data).Err()
}

func (q *JobQueue) Size(ctx context.Context, queue string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return q.client.LLen(ctx, queue).Result()
}
