package reminders

import (
	"context"
	"time"

	assignmentRepo "reviewdesk/database/repository/assignment"
	reminderRepo "reviewdesk/database/repository/reminder"
	"reviewdesk/models"
	"reviewdesk/services/notification"
	"reviewdesk/services/tasks"

	"go.uber.org/zap"
)

// ReminderService is the deadline reminder pipeline: periodic reconciliation, execution of
// a single scheduled reminder, and the lifecycle hooks called when an assignment changes.
type ReminderService interface {
	Scan(ctx context.Context) (*ScanSummary, error)
	Process(ctx context.Context, payload models.ReminderPayload) (ProcessOutcome, error)
	ProcessByID(ctx context.Context, reminderID string) (ProcessOutcome, error)
	CancelRemindersForAssignment(ctx context.Context, assignmentID string) (int64, error)
	RescheduleRemindersForAssignment(ctx context.Context, assignmentID string) (*ScanSummary, error)
	ListForAssignment(ctx context.Context, assignmentID string) ([]models.Reminder, error)
}

// ConfigProvider supplies the current reminder configuration.
type ConfigProvider interface {
	GetReminderConfig(ctx context.Context) (models.ReminderConfig, error)
}

// DefaultReminderService is the production implementation.
type DefaultReminderService struct {
	Reminders     reminderRepo.ReminderRepository
	Assignments   assignmentRepo.AssignmentRepository
	Config        ConfigProvider
	Scheduler     tasks.JobScheduler
	Email         notification.EmailSender
	Conversations notification.ConversationService
	Broadcaster   notification.Broadcaster
	Logger        *zap.Logger

	// Location is the reference timezone; nil means UTC.
	Location *time.Location
	// SystemBotID authors the conversation messages.
	SystemBotID string
	// DeliveryTimeout bounds each channel call; zero means 15s.
	DeliveryTimeout time.Duration
	// Now is the clock; nil means time.Now.
	Now func() time.Time
	// RetriesRemain reports whether a failed delivery will be run again; nil means
	// tasks.RetriesRemain.
	RetriesRemain func(context.Context) bool
}

func (s *DefaultReminderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DefaultReminderService) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

func (s *DefaultReminderService) logger() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return zap.NewNop()
}

func (s *DefaultReminderService) retriesRemain(ctx context.Context) bool {
	if s.RetriesRemain != nil {
		return s.RetriesRemain(ctx)
	}
	return tasks.RetriesRemain(ctx)
}

func (s *DefaultReminderService) deliveryTimeout() time.Duration {
	if s.DeliveryTimeout > 0 {
		return s.DeliveryTimeout
	}
	return 15 * time.Second
}

func (s *DefaultReminderService) ListForAssignment(ctx context.Context, assignmentID string) ([]models.Reminder, error) {
	return s.Reminders.ListByAssignment(ctx, assignmentID)
}
