package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reviewdesk/models"

	"github.com/hibiken/asynq"
)

const TypeSendReminder = "review_reminder:send"

// ErrDuplicateJob means the queue already holds a job with the same dedupe key. Callers treat
// it as success.
var ErrDuplicateJob = errors.New("tasks: duplicate job")

// JobScheduler is the delayed-execution contract the reminder pipeline depends on.
type JobScheduler interface {
	Schedule(ctx context.Context, payload models.ReminderPayload, fireAt time.Time, dedupeKey string) error
	Cancel(ctx context.Context, dedupeKey string) error
}

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type taskDeleter interface {
	DeleteTask(queue, id string) error
}

// AsynqScheduler schedules reminder jobs on an asynq queue.
type AsynqScheduler struct {
	client    enqueuer
	inspector taskDeleter
	queue     string
	maxRetry  int
}

func NewAsynqScheduler(client *asynq.Client, inspector *asynq.Inspector, queue string, maxRetry int) *AsynqScheduler {
	s := &AsynqScheduler{client: client, queue: queue, maxRetry: maxRetry}
	if inspector != nil {
		s.inspector = inspector
	}
	return s
}

func NewReminderTask(payload models.ReminderPayload, fireAt time.Time, dedupeKey string) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendReminder, b)
	opts := []asynq.Option{asynq.ProcessAt(fireAt), asynq.TaskID(dedupeKey)}

	return task, opts, nil
}

// ParseReminderPayload decodes a task payload built by NewReminderTask.
func ParseReminderPayload(b []byte) (models.ReminderPayload, error) {
	var p models.ReminderPayload
	if err := json.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("decode reminder payload: %w", err)
	}
	if p.ReminderID == "" {
		return p, errors.New("decode reminder payload: missing reminderId")
	}
	return p, nil
}

func (s *AsynqScheduler) Schedule(ctx context.Context, payload models.ReminderPayload, fireAt time.Time, dedupeKey string) error {
	task, opts, err := NewReminderTask(payload, fireAt, dedupeKey)
	if err != nil {
		return fmt.Errorf("build reminder task: %w", err)
	}
	if s.queue != "" {
		opts = append(opts, asynq.Queue(s.queue))
	}
	if s.maxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(s.maxRetry))
	}

	if _, err := s.client.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			return fmt.Errorf("%w: %s", ErrDuplicateJob, dedupeKey)
		}
		return fmt.Errorf("enqueue reminder %s: %w", dedupeKey, err)
	}
	return nil
}

// Cancel removes a pending job. A job that is already gone is not an error.
func (s *AsynqScheduler) Cancel(ctx context.Context, dedupeKey string) error {
	if s.inspector == nil {
		return nil
	}
	queue := s.queue
	if queue == "" {
		queue = "default"
	}
	err := s.inspector.DeleteTask(queue, dedupeKey)
	if err == nil || errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return nil
	}
	return fmt.Errorf("delete reminder job %s: %w", dedupeKey, err)
}
