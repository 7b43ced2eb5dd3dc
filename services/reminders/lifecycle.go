package reminders

import (
	"context"
	"fmt"

	reminderRepo "reviewdesk/database/repository/reminder"
	"reviewdesk/models"

	"go.uber.org/zap"
)

// unsentStatuses is everything reschedule replaces.
var unsentStatuses = []models.ReminderStatus{models.ReminderPending, models.ReminderQueued, models.ReminderFailed}

// CancelRemindersForAssignment cancels every reminder of the assignment that has not run yet.
// Called when the review is completed, declined or withdrawn.
func (s *DefaultReminderService) CancelRemindersForAssignment(ctx context.Context, assignmentID string) (int64, error) {
	return s.cancelAssignment(ctx, assignmentID, reminderRepo.OpenStatuses)
}

// RescheduleRemindersForAssignment rebuilds the schedule after a due date change. Reminders
// that were already sent are kept and never recreated.
func (s *DefaultReminderService) RescheduleRemindersForAssignment(ctx context.Context, assignmentID string) (*ScanSummary, error) {
	summary := &ScanSummary{}

	a, err := s.Assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("reschedule: %w", err)
	}
	if a == nil || !a.Status.IsActive() || a.DueDate == nil {
		return summary, nil
	}

	cfg, err := s.Config.GetReminderConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("reschedule: %w", err)
	}

	cancelled, err := s.cancelAssignment(ctx, assignmentID, unsentStatuses)
	if err != nil {
		return nil, fmt.Errorf("reschedule: %w", err)
	}
	summary.Cancelled = cancelled

	sent, err := s.Reminders.ListByAssignment(ctx, assignmentID, models.ReminderSent)
	if err != nil {
		return nil, fmt.Errorf("reschedule: %w", err)
	}

	summary.AssignmentsExamined = 1
	summary.add(s.scheduleAssignment(ctx, *a, cfg, offsets(sent), s.now(), true)...)

	s.logger().Info("Reminders rescheduled",
		zap.String("assignmentId", assignmentID),
		zap.Int64("cancelled", cancelled),
		zap.Int("scheduled", summary.Scheduled))
	return summary, nil
}

// cancelAssignment moves the assignment's reminders in statuses to CANCELLED and removes their
// queue entries. Queue removal is best effort; the status check at fire time is what
// actually stops delivery.
func (s *DefaultReminderService) cancelAssignment(ctx context.Context, assignmentID string, statuses []models.ReminderStatus) (int64, error) {
	pending, listErr := s.Reminders.ListByAssignment(ctx, assignmentID, reminderRepo.OpenStatuses...)
	if listErr != nil {
		s.logger().Warn("Could not list reminders for queue cleanup",
			zap.String("assignmentId", assignmentID), zap.Error(listErr))
	}

	n, err := s.Reminders.CancelByAssignment(ctx, assignmentID, statuses)
	if err != nil {
		return 0, err
	}

	for _, rem := range pending {
		if err := s.Scheduler.Cancel(ctx, rem.QueueKey()); err != nil {
			s.logger().Warn("Could not remove reminder job from queue",
				zap.String("reminderId", rem.ID), zap.Error(err))
		}
	}

	if n > 0 {
		s.logger().Info("Reminders cancelled", zap.String("assignmentId", assignmentID), zap.Int64("count", n))
	}
	return n, nil
}
