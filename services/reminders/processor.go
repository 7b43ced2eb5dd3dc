package reminders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"reviewdesk/models"
	"reviewdesk/services/notification"
	"reviewdesk/services/tasks"
	"reviewdesk/utils"

	"go.uber.org/zap"
)

// Process executes one scheduled reminder. Every precondition is checked again because the
// assignment, the configuration and the record itself may have changed since scheduling, and
// the job queue may deliver the same job more than once.
func (s *DefaultReminderService) Process(ctx context.Context, payload models.ReminderPayload) (ProcessOutcome, error) {
	outcome, err := s.process(ctx, payload)
	utils.RemindersProcessed.WithLabelValues(string(outcome)).Inc()
	return outcome, err
}

// ProcessByID runs the current revision of a reminder immediately.
func (s *DefaultReminderService) ProcessByID(ctx context.Context, reminderID string) (ProcessOutcome, error) {
	rem, err := s.Reminders.GetByID(ctx, reminderID)
	if err != nil {
		return "", err
	}
	if rem == nil {
		return ProcessMissing, nil
	}
	return s.Process(ctx, models.ReminderPayload{
		ReminderID:   rem.ID,
		AssignmentID: rem.AssignmentID,
		DaysBefore:   rem.DaysBefore,
		Revision:     rem.Revision,
	})
}

func (s *DefaultReminderService) process(ctx context.Context, payload models.ReminderPayload) (ProcessOutcome, error) {
	log := s.logger().With(zap.String("reminderId", payload.ReminderID))

	rem, err := s.Reminders.GetByID(ctx, payload.ReminderID)
	if err != nil {
		return "", fmt.Errorf("load reminder: %w", err)
	}
	if rem == nil {
		log.Debug("Reminder no longer exists, skipping")
		return ProcessMissing, nil
	}
	if rem.Status.IsTerminal() {
		log.Debug("Reminder already finished, skipping", zap.String("status", string(rem.Status)))
		return ProcessNoop, nil
	}
	if payload.Revision < rem.Revision {
		log.Debug("Job belongs to an older revision, skipping",
			zap.Int("jobRevision", payload.Revision), zap.Int("revision", rem.Revision))
		return ProcessStale, nil
	}

	a, err := s.Assignments.GetByID(ctx, rem.AssignmentID)
	if err != nil {
		return "", fmt.Errorf("load assignment: %w", err)
	}
	if a == nil || !a.Status.IsActive() || a.DueDate == nil {
		return s.cancelOne(ctx, rem, "assignment no longer awaiting review")
	}

	cfg, err := s.Config.GetReminderConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("load reminder config: %w", err)
	}
	channels, enabled := cfg.ResolveChannels(rem.DaysBefore)
	if !enabled {
		return s.cancelOne(ctx, rem, "reminder interval disabled")
	}

	d := s.deliver(ctx, rem, a, channels)
	now := s.now()

	switch {
	case d.attempted == 0 || d.succeeded > 0:
		if _, err := s.Reminders.MarkSent(ctx, rem.ID, now, d.errorMessage()); err != nil {
			// Delivery happened; a retry would send it again.
			return ProcessSent, fmt.Errorf("record sent reminder: %v: %w", err, tasks.ErrSkipRetry)
		}
		if len(d.errs) > 0 {
			log.Warn("Reminder sent with channel failures", zap.String("errors", d.errorMessage()))
		} else {
			log.Info("Reminder sent", zap.Int("channels", d.succeeded))
		}
		return ProcessSent, nil

	case s.retriesRemain(ctx):
		if _, err := s.Reminders.RecordAttemptError(ctx, rem.ID, d.errorMessage()); err != nil {
			log.Error("Failed to record delivery error", zap.Error(err))
		}
		return ProcessRetrying, fmt.Errorf("%w: %s", ErrDeliveryFailed, d.errorMessage())

	default:
		if _, err := s.Reminders.MarkFailed(ctx, rem.ID, d.errorMessage()); err != nil {
			log.Error("Failed to mark reminder as failed", zap.Error(err))
		}
		return ProcessFailed, fmt.Errorf("%w: %s", ErrDeliveryFailed, d.errorMessage())
	}
}

func (s *DefaultReminderService) cancelOne(ctx context.Context, rem *models.Reminder, reason string) (ProcessOutcome, error) {
	if _, err := s.Reminders.MarkCancelled(ctx, rem.ID, reason); err != nil {
		return "", fmt.Errorf("cancel reminder: %w", err)
	}
	s.logger().Info("Reminder cancelled",
		zap.String("reminderId", rem.ID),
		zap.String("assignmentId", rem.AssignmentID),
		zap.String("reason", reason))
	return ProcessCancelled, nil
}

type delivery struct {
	attempted int
	succeeded int
	errs      []string
}

func (d *delivery) fail(channel string, err error) {
	d.errs = append(d.errs, channel+": "+err.Error())
	utils.ChannelFailures.WithLabelValues(channel).Inc()
}

func (d *delivery) errorMessage() string {
	return strings.Join(d.errs, "; ")
}

// deliver attempts every enabled channel independently.
func (s *DefaultReminderService) deliver(ctx context.Context, rem *models.Reminder, a *models.ReviewAssignment, channels models.ChannelSet) *delivery {
	d := &delivery{}
	data := notification.ReminderEmailData{
		ReviewerName:    a.ReviewerName,
		ManuscriptTitle: a.ManuscriptTitle,
		DueDate:         a.DueDate.In(s.location()),
		DaysBefore:      rem.DaysBefore,
	}

	if channels.Email {
		d.attempted++
		if err := s.sendEmail(ctx, a, data); err != nil {
			d.fail("email", err)
		} else {
			d.succeeded++
		}
	}

	if channels.Conversation {
		posted, err := s.postConversation(ctx, rem, a, data)
		switch {
		case err != nil:
			d.attempted++
			d.fail("conversation", err)
		case posted:
			d.attempted++
			d.succeeded++
		}
	}
	return d
}

func (s *DefaultReminderService) sendEmail(ctx context.Context, a *models.ReviewAssignment, data notification.ReminderEmailData) error {
	if s.Email == nil {
		return errors.New("no email sender configured")
	}
	if a.ReviewerEmail == "" {
		return fmt.Errorf("reviewer %s has no email address", a.ReviewerID)
	}
	content, err := notification.RenderReminderEmail(data)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.deliveryTimeout())
	defer cancel()
	return s.Email.Send(ctx, a.ReviewerEmail, content.Subject, content.HTML, content.Text)
}

// postConversation reports false, nil when the manuscript has no conversation to post in.
func (s *DefaultReminderService) postConversation(ctx context.Context, rem *models.Reminder, a *models.ReviewAssignment, data notification.ReminderEmailData) (bool, error) {
	if s.Conversations == nil {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.deliveryTimeout())
	defer cancel()

	conv, err := s.Conversations.FindForManuscript(ctx, a.ManuscriptID)
	if err != nil {
		return false, err
	}
	if conv == nil {
		return false, nil
	}

	msg, err := s.Conversations.PostMessage(ctx, conv.ID, notification.ConversationNote(data), s.SystemBotID, models.VisibilityEditors)
	if err != nil {
		return false, err
	}

	s.broadcast(ctx, conv.ID, rem, msg)
	return true, nil
}

// broadcast is best effort and bounded by the caller's delivery timeout.
func (s *DefaultReminderService) broadcast(ctx context.Context, conversationID string, rem *models.Reminder, msg *models.Message) {
	if s.Broadcaster == nil || msg == nil {
		return
	}
	topic := "conversation:" + conversationID
	s.Broadcaster.Broadcast(ctx, topic, models.LiveUpdate{
		Type:  "message.created",
		Topic: topic,
		Data: map[string]any{
			"conversationId": conversationID,
			"messageId":      msg.ID,
			"reminderId":     rem.ID,
			"assignmentId":   rem.AssignmentID,
		},
		CreatedAt: msg.CreatedAt,
	})
}
