package assignmentRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviewdesk/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetByID returns nil, nil when the assignment does not exist.
func (r *mongoAssignmentRepo) GetByID(ctx context.Context, id string) (*models.ReviewAssignment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var a models.ReviewAssignment
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment %s: %w", id, err)
	}
	return &a, nil
}

// FindDueForReminders returns active assignments with a due date on or before lookAhead.
// Overdue assignments always satisfy that bound.
func (r *mongoAssignmentRepo) FindDueForReminders(ctx context.Context, lookAhead time.Time) ([]models.ReviewAssignment, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	filter := bson.M{
		"status":  bson.M{"$in": models.ActiveAssignmentStatuses},
		"dueDate": bson.M{"$ne": nil, "$lte": lookAhead},
	}
	opts := options.Find().SetSort(bson.D{{Key: "dueDate", Value: 1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find assignments due before %s: %w", lookAhead.Format(time.RFC3339), err)
	}
	defer cursor.Close(ctx)

	var assignments []models.ReviewAssignment
	if err := cursor.All(ctx, &assignments); err != nil {
		return nil, fmt.Errorf("decode assignments: %w", err)
	}
	return assignments, nil
}
