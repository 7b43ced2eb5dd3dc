// File: database/repository/reminder/interface.go
package reminderRepo

import (
	"context"
	"time"

	"reviewdesk/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// CreateResult tags the outcome of an insert guarded by the jobKey unique index.
type CreateResult int

const (
	Created CreateResult = iota
	AlreadyExists
)

func (r CreateResult) String() string {
	if r == Created {
		return "created"
	}
	return "already_exists"
}

// OpenStatuses are the states a reminder can still leave.
var OpenStatuses = []models.ReminderStatus{models.ReminderPending, models.ReminderQueued}

type ReminderRepository interface {
	// CreateIfAbsent inserts r unless a record with the same jobKey exists.
	CreateIfAbsent(ctx context.Context, r *models.Reminder) (CreateResult, error)
	// Requeue inserts r, or moves an existing CANCELLED/FAILED record with the same jobKey
	// back to QUEUED. r is updated with the stored id and revision.
	Requeue(ctx context.Context, r *models.Reminder) (CreateResult, error)

	GetByID(ctx context.Context, id string) (*models.Reminder, error)
	ListByAssignment(ctx context.Context, assignmentID string, statuses ...models.ReminderStatus) ([]models.Reminder, error)
	ListByAssignments(ctx context.Context, assignmentIDs []string, statuses ...models.ReminderStatus) (map[string][]models.Reminder, error)

	// Status writes only apply to records still in PENDING or QUEUED and report whether
	// they did.
	MarkSent(ctx context.Context, id string, sentAt time.Time, errMsg string) (bool, error)
	MarkFailed(ctx context.Context, id string, errMsg string) (bool, error)
	MarkCancelled(ctx context.Context, id string, reason string) (bool, error)
	RecordAttemptError(ctx context.Context, id string, errMsg string) (bool, error)

	CancelByAssignment(ctx context.Context, assignmentID string, statuses []models.ReminderStatus) (int64, error)
	EnsureIndexes() error
}

type mongoReminderRepo struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoReminderRepo returns a ReminderRepository backed by the review_reminders collection.
func NewMongoReminderRepo(db *mongo.Database) ReminderRepository {
	return &mongoReminderRepo{
		coll: db.Collection("review_reminders"),
		now:  time.Now,
	}
}
