package worker

import (
	"context"
	"fmt"
	"time"

	"task-manager/server/internal/models"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// OverdueSource lists unfinished tasks whose due date has passed.
type OverdueSource interface {
	Overdue(ctx context.Context, now time.Time) ([]models.Task, error)
}

// ReminderScheduler sweeps for overdue tasks on a cron schedule and queues
// one reminder job per task.
type ReminderScheduler struct {
	cron   *cron.Cron
	source OverdueSource
	queue  *JobQueue
	target string
	now    func() time.Time
}

// NewReminderScheduler takes a six-field cron expression (seconds first).
func NewReminderScheduler(source OverdueSource, queue *JobQueue, targetQueue, schedule string) (*ReminderScheduler, error) {
	s := &ReminderScheduler{
		cron:   cron.New(cron.WithSeconds()),
		source: source,
		queue:  queue,
		target: targetQueue,
		now:    time.Now,
	}

	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if n, err := s.Sweep(ctx); err != nil {
			log.Error().Err(err).Msg("overdue sweep failed")
		} else {
			log.Info().Int("queued", n).Msg("overdue sweep finished")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule overdue sweep %q: %w", schedule, err)
	}
	return s, nil
}

func (s *ReminderScheduler) Start() {
	s.cron.Start()
	log.Info().Msg("reminder scheduler started")
}

// Stop waits for a running sweep to finish.
func (s *ReminderScheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("reminder scheduler stopped")
}

// Sweep queues a reminder for every overdue task and returns how many were queued.
func (s *ReminderScheduler) Sweep(ctx context.Context) (int, error) {
	tasks, err := s.source.Overdue(ctx, s.now())
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, t := range tasks {
		if err := s.queue.Enqueue(ctx, s.target, JobTypeOverdueReminder, reminderPayload(t)); err != nil {
			return queued, fmt.Errorf("queue reminder for task %s: %w", t.ID, err)
		}
		queued++
	}
	return queued, nil
}

func reminderPayload(t models.Task) map[string]interface{} {
	emails := make([]string, 0, len(t.AssignedTo))
	for _, u := range t.AssignedTo {
		emails = append(emails, u.Email)
	}
	return map[string]interface{}{
		"task_id":   t.ID.String(),
		"title":     t.Title,
		"due_date":  t.DueDate.UTC().Format(time.RFC3339),
		"status":    t.Status.String(),
		"assignees": emails,
	}
}

// LogOverdueReminder reports each reminder through the structured log.
func LogOverdueReminder(_ context.Context, job *Job) error {
	taskID, _ := job.Payload["task_id"].(string)
	if taskID == "" {
		return fmt.Errorf("reminder job %s has no task_id", job.ID)
	}

	var recipients []string
	switch assignees := job.Payload["assignees"].(type) {
	case []string:
		recipients = assignees
	case []interface{}:
		for _, a := range assignees {
			if s, ok := a.(string); ok {
				recipients = append(recipients, s)
			}
		}
	}

	title, _ := job.Payload["title"].(string)
	due, _ := job.Payload["due_date"].(string)
	log.Warn().
		Str("task_id", taskID).
		Str("title", title).
		Str("due_date", due).
		Strs("assignees", recipients).
		Msg("task is overdue")
	return nil
}
