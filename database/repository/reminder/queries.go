package reminderRepo

import (
	"context"
	"fmt"
	"time"

	"reviewdesk/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *mongoReminderRepo) ListByAssignment(ctx context.Context, assignmentID string, statuses ...models.ReminderStatus) ([]models.Reminder, error) {
	byAssignment, err := r.ListByAssignments(ctx, []string{assignmentID}, statuses...)
	if err != nil {
		return nil, err
	}
	return byAssignment[assignmentID], nil
}

// ListByAssignments groups the matching reminders by assignment id. No statuses means all.
func (r *mongoReminderRepo) ListByAssignments(ctx context.Context, assignmentIDs []string, statuses ...models.ReminderStatus) (map[string][]models.Reminder, error) {
	out := make(map[string][]models.Reminder, len(assignmentIDs))
	if len(assignmentIDs) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"assignmentId": bson.M{"$in": assignmentIDs}}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	opts := options.Find().SetSort(bson.D{{Key: "daysBefore", Value: -1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer cursor.Close(ctx)

	var reminders []models.Reminder
	if err := cursor.All(ctx, &reminders); err != nil {
		return nil, fmt.Errorf("decode reminders: %w", err)
	}
	for _, rem := range reminders {
		out[rem.AssignmentID] = append(out[rem.AssignmentID], rem)
	}
	return out, nil
}
