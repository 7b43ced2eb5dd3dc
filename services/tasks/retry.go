package tasks

import (
	"context"

	"github.com/hibiken/asynq"
)

// ErrSkipRetry tells the queue not to retry the job; wrap it with %w.
var ErrSkipRetry = asynq.SkipRetry

// RetriesRemain reports whether the job queue will retry the current job if it fails. It is
// false outside a queue handler.
func RetriesRemain(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return false
	}
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		return false
	}
	return retried < maxRetry
}
