package settingsRepo

import (
	"context"
	"testing"

	"reviewdesk/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestGetReminderConfig(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("defaults when missing", func(mt *mtest.T) {
		repo := &mongoSettingsRepo{coll: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		cfg, err := repo.GetReminderConfig(context.Background())
		if err != nil {
			t.Fatalf("GetReminderConfig() error = %v", err)
		}
		want := models.DefaultReminderConfig()
		if cfg.Enabled != want.Enabled || len(cfg.Intervals) != len(want.Intervals) {
			t.Errorf("GetReminderConfig() = %+v, want defaults %+v", cfg, want)
		}
	})

	mt.Run("stored document", func(mt *mtest.T) {
		repo := &mongoSettingsRepo{coll: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "key", Value: reminderSettingsKey},
			{Key: "value", Value: bson.D{
				{Key: "enabled", Value: true},
				{Key: "intervals", Value: bson.A{
					bson.D{{Key: "daysBefore", Value: 5}, {Key: "enabled", Value: true}, {Key: "emailEnabled", Value: true}},
				}},
				{Key: "overdueReminders", Value: bson.D{{Key: "enabled", Value: false}}},
			}},
		}))

		cfg, err := repo.GetReminderConfig(context.Background())
		if err != nil {
			t.Fatalf("GetReminderConfig() error = %v", err)
		}
		if len(cfg.Intervals) != 1 || cfg.Intervals[0].DaysBefore != 5 {
			t.Errorf("Intervals = %+v, want one 5-day interval", cfg.Intervals)
		}
		if cfg.OverdueReminders.Enabled {
			t.Error("OverdueReminders.Enabled = true, want false")
		}
	})
}
