package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviewdesk/config"
	"reviewdesk/models"
	"reviewdesk/services/reminders"
	"reviewdesk/services/tasks"
	"reviewdesk/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// ReminderProcessor executes one reminder job.
type ReminderProcessor interface {
	Process(ctx context.Context, payload models.ReminderPayload) (reminders.ProcessOutcome, error)
}

// InitReminderWorker starts the asynq worker that executes scheduled reminders in the
// background. The returned server must be shut down by the caller.
func InitReminderWorker(svc ReminderProcessor, logger *zap.Logger) *asynq.Server {
	queue := config.AppConfig.ReminderQueue
	srv := asynq.NewServer(
		utils.QueueRedisOpt(),
		asynq.Config{
			Concurrency: config.AppConfig.WorkerConcurrency,
			Queues: map[string]int{
				queue: 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logger.Warn("Reminder job failed",
					zap.String("type", task.Type()),
					zap.Int("retried", retried),
					zap.Int("maxRetry", maxRetry),
					zap.Error(err))
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendReminder, handleReminderTask(svc, logger))

	go func() {
		logger.Info("Starting reminder worker", zap.String("queue", queue))
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Start(mux)
			if err == nil {
				return
			}
			if errors.Is(err, asynq.ErrServerClosed) {
				return
			}
			logger.Error("Failed to start reminder worker",
				zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Fatal("Reminder worker could not start, giving up")
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
	return srv
}

func handleReminderTask(svc ReminderProcessor, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseReminderPayload(task.Payload())
		if err != nil {
			logger.Error("Dropping reminder job with invalid payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		outcome, err := svc.Process(ctx, p)
		logger.Debug("Reminder job processed",
			zap.String("reminderId", p.ReminderID),
			zap.String("outcome", string(outcome)))
		return err
	}
}
