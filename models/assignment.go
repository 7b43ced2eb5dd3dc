package models

import "time"

// AssignmentStatus mirrors the review assignment states owned by the manuscript service.
type AssignmentStatus string

const (
	AssignmentPending    AssignmentStatus = "PENDING"
	AssignmentAccepted   AssignmentStatus = "ACCEPTED"
	AssignmentInProgress AssignmentStatus = "IN_PROGRESS"
	AssignmentCompleted  AssignmentStatus = "COMPLETED"
	AssignmentDeclined   AssignmentStatus = "DECLINED"
	AssignmentCancelled  AssignmentStatus = "CANCELLED"
)

// ActiveAssignmentStatuses are the states in which a reviewer is still expected to deliver.
var ActiveAssignmentStatuses = []AssignmentStatus{AssignmentAccepted, AssignmentInProgress}

// IsActive reports whether reminders apply to an assignment in this state.
func (s AssignmentStatus) IsActive() bool {
	return s == AssignmentAccepted || s == AssignmentInProgress
}

// ReviewAssignment is a read-only view of a reviewer's assignment on a manuscript.
type ReviewAssignment struct {
	ID              string           `bson:"id" json:"id"`
	ManuscriptID    string           `bson:"manuscriptId" json:"manuscriptId"`
	ManuscriptTitle string           `bson:"manuscriptTitle" json:"manuscriptTitle"`
	ReviewerID      string           `bson:"reviewerId" json:"reviewerId"`
	ReviewerName    string           `bson:"reviewerName" json:"reviewerName"`
	ReviewerEmail   string           `bson:"reviewerEmail" json:"reviewerEmail"`
	DueDate         *time.Time       `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	Status          AssignmentStatus `bson:"status" json:"status"`
	UpdatedAt       time.Time        `bson:"updatedAt" json:"updatedAt"`
}
