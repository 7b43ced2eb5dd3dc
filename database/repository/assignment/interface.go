// File: database/repository/assignment/interface.go
package assignmentRepo

import (
	"context"
	"time"

	"reviewdesk/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// AssignmentRepository is a read-only view of review assignments. The collection is owned by
// the manuscript service.
type AssignmentRepository interface {
	GetByID(ctx context.Context, id string) (*models.ReviewAssignment, error)
	FindDueForReminders(ctx context.Context, lookAhead time.Time) ([]models.ReviewAssignment, error)
}

type mongoAssignmentRepo struct {
	coll *mongo.Collection
}

func NewMongoAssignmentRepo(db *mongo.Database) AssignmentRepository {
	return &mongoAssignmentRepo{
		coll: db.Collection("review_assignments"),
	}
}
