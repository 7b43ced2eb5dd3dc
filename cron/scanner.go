package cron

import (
	"context"
	"fmt"
	"time"

	"reviewdesk/services/reminders"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// scanTimeout bounds a single scheduled scan.
const scanTimeout = 5 * time.Minute

// ReminderScanner runs one reconciliation pass.
type ReminderScanner interface {
	Scan(ctx context.Context) (*reminders.ScanSummary, error)
}

// ScanSpec prefixes a cron expression with the reference timezone.
func ScanSpec(expr string, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return fmt.Sprintf("CRON_TZ=%s %s", loc.String(), expr)
}

// StartReminderScanner runs the reminder scan on the given schedule until ctx is done.
// Overlapping runs are skipped.
func StartReminderScanner(ctx context.Context, svc ReminderScanner, spec string, logger *zap.Logger) (*cron.Cron, error) {
	cronLog := cron.PrintfLogger(zap.NewStdLog(logger.Named("cron")))
	c := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	if _, err := c.AddFunc(spec, func() { runScan(ctx, svc, logger) }); err != nil {
		return nil, fmt.Errorf("invalid reminder scan schedule %q: %w", spec, err)
	}
	c.Start()
	logger.Info("Reminder scanner started", zap.String("schedule", spec))

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		logger.Info("Reminder scanner stopped")
	}()
	return c, nil
}

func runScan(ctx context.Context, svc ReminderScanner, logger *zap.Logger) {
	if ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, scanTimeout)
	defer cancel()

	if _, err := svc.Scan(ctx); err != nil {
		logger.Error("Reminder scan failed", zap.Error(err))
	}
}
