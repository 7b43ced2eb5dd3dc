package reminderRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes on the review_reminders collection. The unique jobKey
// index is what keeps concurrent scans from scheduling the same reminder twice.
func (r *mongoReminderRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "jobKey", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_job_key"),
		},
		{
			Keys:    bson.D{{Key: "assignmentId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("assignment_status_idx"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create reminder indexes: %w", err)
	}
	return nil
}
