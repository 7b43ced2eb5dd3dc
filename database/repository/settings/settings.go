// File: database/repository/settings/settings.go
package settingsRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviewdesk/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const reminderSettingsKey = "review_reminders"

type SettingsRepository interface {
	GetReminderConfig(ctx context.Context) (models.ReminderConfig, error)
}

type settingsDocument struct {
	Key   string                `bson:"key"`
	Value models.ReminderConfig `bson:"value"`
}

type mongoSettingsRepo struct {
	coll *mongo.Collection
}

func NewMongoSettingsRepo(db *mongo.Database) SettingsRepository {
	return &mongoSettingsRepo{coll: db.Collection("settings")}
}

// GetReminderConfig reads the reminder settings document, falling back to defaults when
// none has been saved.
func (r *mongoSettingsRepo) GetReminderConfig(ctx context.Context) (models.ReminderConfig, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc settingsDocument
	err := r.coll.FindOne(ctx, bson.M{"key": reminderSettingsKey}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DefaultReminderConfig(), nil
	}
	if err != nil {
		return models.ReminderConfig{}, fmt.Errorf("load reminder settings: %w", err)
	}
	return doc.Value, nil
}
