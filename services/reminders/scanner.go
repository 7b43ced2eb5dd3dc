package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	reminderRepo "reviewdesk/database/repository/reminder"
	"reviewdesk/models"
	"reviewdesk/services/tasks"
	"reviewdesk/utils"

	"go.uber.org/zap"
)

// Scan reconciles active assignments against existing reminders and schedules the missing
// ones. Per-item failures are reported in the summary; only failures to load the
// configuration or the working set return an error.
func (s *DefaultReminderService) Scan(ctx context.Context) (*ScanSummary, error) {
	start := time.Now()
	defer func() { utils.ScanDuration.Observe(time.Since(start).Seconds()) }()

	summary := &ScanSummary{}
	cfg, err := s.Config.GetReminderConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if len(cfg.EnabledIntervals()) == 0 && !cfg.OverdueEnabled() {
		s.logger().Debug("Reminder scan skipped, reminders disabled")
		return summary, nil
	}

	now := s.now()
	lookAhead := now.Add(time.Duration(cfg.MaxDaysBefore()+1) * 24 * time.Hour)

	assignments, err := s.Assignments.FindDueForReminders(ctx, lookAhead)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	ids := make([]string, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.ID)
	}
	existing, err := s.Reminders.ListByAssignments(ctx, ids, models.ReminderQueued, models.ReminderSent)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	for _, a := range assignments {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		if a.DueDate == nil || !a.Status.IsActive() {
			continue
		}
		summary.AssignmentsExamined++
		summary.add(s.scheduleAssignment(ctx, a, cfg, offsets(existing[a.ID]), now, false)...)
	}

	if failed := len(summary.Failures()); failed > 0 {
		s.logger().Warn("Reminder scan finished with failures",
			zap.Int("examined", summary.AssignmentsExamined),
			zap.Int("scheduled", summary.Scheduled),
			zap.Int("failed", failed))
	} else {
		s.logger().Info("Reminder scan finished",
			zap.Int("examined", summary.AssignmentsExamined),
			zap.Int("scheduled", summary.Scheduled))
	}
	return summary, nil
}

// scheduleAssignment creates the reminders an assignment is missing. existing holds the
// offsets that must not be scheduled again. requeue lets cancelled or failed records for the
// same offset be brought back, which only the reschedule flow does.
func (s *DefaultReminderService) scheduleAssignment(
	ctx context.Context,
	a models.ReviewAssignment,
	cfg models.ReminderConfig,
	existing map[int]bool,
	now time.Time,
	requeue bool,
) []ScanItem {
	var items []ScanItem
	due := *a.DueDate
	loc := s.location()

	for _, iv := range cfg.EnabledIntervals() {
		if existing[iv.DaysBefore] {
			continue
		}
		fireAt := UpcomingFireTime(due, iv.DaysBefore, loc)
		if isStale(fireAt, now) {
			items = append(items, s.record(ScanItem{
				AssignmentID: a.ID,
				DaysBefore:   iv.DaysBefore,
				ScheduledFor: fireAt,
				Outcome:      OutcomeStale,
			}))
			continue
		}
		items = append(items, s.scheduleOne(ctx, a.ID, iv.DaysBefore, fireAt, requeue))
	}

	if due.Before(now) && cfg.OverdueEnabled() {
		o := cfg.OverdueReminders
		daysPast := DaysPastDue(due, now)
		for i := 1; i <= o.MaxReminders; i++ {
			milestone := i * o.IntervalDays
			if daysPast < milestone {
				break
			}
			daysBefore := -milestone
			if existing[daysBefore] {
				continue
			}
			items = append(items, s.scheduleOne(ctx, a.ID, daysBefore, OverdueFireTime(now, loc), requeue))
		}
	}
	return items
}

func (s *DefaultReminderService) scheduleOne(ctx context.Context, assignmentID string, daysBefore int, fireAt time.Time, requeue bool) ScanItem {
	item := ScanItem{AssignmentID: assignmentID, DaysBefore: daysBefore, ScheduledFor: fireAt}
	rem := &models.Reminder{
		AssignmentID: assignmentID,
		DaysBefore:   daysBefore,
		ScheduledFor: fireAt,
		Status:       models.ReminderQueued,
		JobKey:       models.ReminderJobKey(assignmentID, daysBefore),
	}

	var res reminderRepo.CreateResult
	var err error
	if requeue {
		res, err = s.Reminders.Requeue(ctx, rem)
	} else {
		res, err = s.Reminders.CreateIfAbsent(ctx, rem)
	}
	if err != nil {
		return s.record(failed(item, fmt.Errorf("create reminder: %w", err)))
	}
	if res == reminderRepo.AlreadyExists {
		item.Outcome = OutcomeAlreadyExists
		return s.record(item)
	}

	payload := models.ReminderPayload{
		ReminderID:   rem.ID,
		AssignmentID: assignmentID,
		DaysBefore:   daysBefore,
		Revision:     rem.Revision,
	}
	if err := s.Scheduler.Schedule(ctx, payload, fireAt, rem.QueueKey()); err != nil && !errors.Is(err, tasks.ErrDuplicateJob) {
		if _, markErr := s.Reminders.MarkFailed(ctx, rem.ID, "schedule job: "+err.Error()); markErr != nil {
			s.logger().Error("Failed to mark unscheduled reminder as failed",
				zap.String("reminderId", rem.ID), zap.Error(markErr))
		}
		return s.record(failed(item, fmt.Errorf("schedule job: %w", err)))
	}

	item.Outcome = OutcomeScheduled
	return s.record(item)
}

func (s *DefaultReminderService) record(item ScanItem) ScanItem {
	kind := "upcoming"
	if item.DaysBefore < 0 {
		kind = "overdue"
	}
	utils.RemindersScanned.WithLabelValues(kind, string(item.Outcome)).Inc()
	if item.Outcome == OutcomeFailed {
		s.logger().Error("Failed to schedule reminder",
			zap.String("assignmentId", item.AssignmentID),
			zap.Int("daysBefore", item.DaysBefore),
			zap.Error(item.Err))
	}
	return item
}

func failed(item ScanItem, err error) ScanItem {
	item.Outcome = OutcomeFailed
	item.Err = err
	item.Error = err.Error()
	return item
}

func offsets(reminders []models.Reminder) map[int]bool {
	set := make(map[int]bool, len(reminders))
	for _, r := range reminders {
		set[r.DaysBefore] = true
	}
	return set
}
