package models

import (
	"fmt"
	"time"
)

// ReminderStatus is the lifecycle state of a reminder record.
type ReminderStatus string

const (
	ReminderPending   ReminderStatus = "PENDING"
	ReminderQueued    ReminderStatus = "QUEUED"
	ReminderSent      ReminderStatus = "SENT"
	ReminderFailed    ReminderStatus = "FAILED"
	ReminderCancelled ReminderStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s ReminderStatus) IsTerminal() bool {
	switch s {
	case ReminderSent, ReminderFailed, ReminderCancelled:
		return true
	}
	return false
}

// Reminder is one scheduled reminder for a review assignment. At most one exists per
// (AssignmentID, DaysBefore); JobKey carries that uniqueness in the store.
type Reminder struct {
	ID           string         `bson:"id" json:"id"`
	AssignmentID string         `bson:"assignmentId" json:"assignmentId"`
	DaysBefore   int            `bson:"daysBefore" json:"daysBefore"` // negative = days overdue
	ScheduledFor time.Time      `bson:"scheduledFor" json:"scheduledFor"`
	Status       ReminderStatus `bson:"status" json:"status"`
	JobKey       string         `bson:"jobKey" json:"jobKey"`
	Revision     int            `bson:"revision" json:"revision"`
	SentAt       *time.Time     `bson:"sentAt,omitempty" json:"sentAt,omitempty"`
	ErrorMessage string         `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	CreatedAt    time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// IsOverdue reports whether the reminder is an overdue milestone.
func (r *Reminder) IsOverdue() bool {
	return r.DaysBefore < 0
}

// QueueKey is the deduplication key handed to the job queue. Revision zero uses the bare
// job key; re-queued records get a suffix so they never collide with a stale queue entry.
func (r *Reminder) QueueKey() string {
	if r.Revision == 0 {
		return r.JobKey
	}
	return fmt.Sprintf("%s#r%d", r.JobKey, r.Revision)
}

// ReminderJobKey derives the deterministic job key for an assignment and offset.
func ReminderJobKey(assignmentID string, daysBefore int) string {
	return fmt.Sprintf("review-reminder:%s:%d", assignmentID, daysBefore)
}
