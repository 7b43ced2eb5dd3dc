package models

// ReminderPayload is the job queue payload for a scheduled reminder.
type ReminderPayload struct {
	ReminderID   string `json:"reminderId"`
	AssignmentID string `json:"assignmentId"`
	DaysBefore   int    `json:"daysBefore"`
	Revision     int    `json:"revision"`
}
