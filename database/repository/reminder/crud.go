// File: database/repository/reminder/crud.go
package reminderRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviewdesk/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *mongoReminderRepo) CreateIfAbsent(ctx context.Context, rem *models.Reminder) (CreateResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	r.prepare(rem)
	if _, err := r.coll.InsertOne(ctx, rem); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return AlreadyExists, nil
		}
		return 0, fmt.Errorf("insert reminder %s: %w", rem.JobKey, err)
	}
	return Created, nil
}

func (r *mongoReminderRepo) Requeue(ctx context.Context, rem *models.Reminder) (CreateResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := r.now()
	filter := bson.M{
		"jobKey": rem.JobKey,
		"status": bson.M{"$in": []models.ReminderStatus{models.ReminderCancelled, models.ReminderFailed}},
	}
	update := bson.M{
		"$set": bson.M{
			"status":       models.ReminderQueued,
			"scheduledFor": rem.ScheduledFor,
			"updatedAt":    now,
		},
		"$unset": bson.M{"sentAt": "", "errorMessage": ""},
		"$inc":   bson.M{"revision": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var revived models.Reminder
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&revived)
	if err == nil {
		*rem = revived
		return Created, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("requeue reminder %s: %w", rem.JobKey, err)
	}

	r.prepare(rem)
	if _, err := r.coll.InsertOne(ctx, rem); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return AlreadyExists, nil
		}
		return 0, fmt.Errorf("insert reminder %s: %w", rem.JobKey, err)
	}
	return Created, nil
}

func (r *mongoReminderRepo) GetByID(ctx context.Context, id string) (*models.Reminder, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var rem models.Reminder
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&rem)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reminder %s: %w", id, err)
	}
	return &rem, nil
}

func (r *mongoReminderRepo) MarkSent(ctx context.Context, id string, sentAt time.Time, errMsg string) (bool, error) {
	set := bson.M{"status": models.ReminderSent, "sentAt": sentAt}
	if errMsg != "" {
		set["errorMessage"] = errMsg
	}
	return r.transition(ctx, id, set)
}

func (r *mongoReminderRepo) MarkFailed(ctx context.Context, id string, errMsg string) (bool, error) {
	return r.transition(ctx, id, bson.M{"status": models.ReminderFailed, "errorMessage": errMsg})
}

func (r *mongoReminderRepo) MarkCancelled(ctx context.Context, id string, reason string) (bool, error) {
	set := bson.M{"status": models.ReminderCancelled}
	if reason != "" {
		set["errorMessage"] = reason
	}
	return r.transition(ctx, id, set)
}

// RecordAttemptError keeps the record open but stores the latest delivery error.
func (r *mongoReminderRepo) RecordAttemptError(ctx context.Context, id string, errMsg string) (bool, error) {
	return r.transition(ctx, id, bson.M{"errorMessage": errMsg})
}

func (r *mongoReminderRepo) CancelByAssignment(ctx context.Context, assignmentID string, statuses []models.ReminderStatus) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"assignmentId": assignmentID, "status": bson.M{"$in": statuses}}
	update := bson.M{"$set": bson.M{"status": models.ReminderCancelled, "updatedAt": r.now()}}
	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("cancel reminders for assignment %s: %w", assignmentID, err)
	}
	return res.ModifiedCount, nil
}

// transition applies set to a record that is still open.
func (r *mongoReminderRepo) transition(ctx context.Context, id string, set bson.M) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set["updatedAt"] = r.now()
	filter := bson.M{"id": id, "status": bson.M{"$in": OpenStatuses}}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("update reminder %s: %w", id, err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *mongoReminderRepo) prepare(rem *models.Reminder) {
	if rem.ID == "" {
		rem.ID = uuid.New().String()
	}
	if rem.Status == "" {
		rem.Status = models.ReminderQueued
	}
	now := r.now()
	rem.CreatedAt = now
	rem.UpdatedAt = now
}
