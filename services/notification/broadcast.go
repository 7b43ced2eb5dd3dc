package notification

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"reviewdesk/models"

	"firebase.google.com/go/v4/messaging"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisBroadcaster publishes live updates on redis channels named live:<topic>.
type RedisBroadcaster struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisBroadcaster(client *redis.Client, logger *zap.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, logger: logger}
}

func (b *RedisBroadcaster) Broadcast(ctx context.Context, topic string, payload models.LiveUpdate) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Warn("Live update encode failed", zap.String("topic", topic), zap.Error(err))
		return
	}
	if err := b.client.Publish(ctx, "live:"+topic, data).Err(); err != nil {
		b.logger.Warn("Live update publish failed", zap.String("topic", topic), zap.Error(err))
	}
}

type fcmSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMBroadcaster sends live updates as data messages to an FCM topic.
type FCMBroadcaster struct {
	client fcmSender
	logger *zap.Logger
}

func NewFCMBroadcaster(client *messaging.Client, logger *zap.Logger) *FCMBroadcaster {
	return &FCMBroadcaster{client: client, logger: logger}
}

func (b *FCMBroadcaster) Broadcast(ctx context.Context, topic string, payload models.LiveUpdate) {
	data := map[string]string{
		"type":      payload.Type,
		"topic":     payload.Topic,
		"createdAt": payload.CreatedAt.Format(time.RFC3339),
	}
	for k, v := range payload.Data {
		if s, ok := v.(string); ok {
			data[k] = s
		}
	}

	msg := &messaging.Message{
		Topic: fcmTopic(topic),
		Data:  data,
		Android: &messaging.AndroidConfig{
			Priority: "normal",
		},
	}
	if _, err := b.client.Send(ctx, msg); err != nil {
		b.logger.Warn("FCM topic push failed", zap.String("topic", topic), zap.Error(err))
	}
}

// fcmTopic maps a topic onto the [a-zA-Z0-9-_.~%] alphabet FCM accepts.
func fcmTopic(topic string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == '.', r == '~', r == '%':
			return r
		}
		return '_'
	}, topic)
}

// MultiBroadcaster fans a live update out to every configured broadcaster.
type MultiBroadcaster []Broadcaster

func (m MultiBroadcaster) Broadcast(ctx context.Context, topic string, payload models.LiveUpdate) {
	for _, b := range m {
		if b != nil {
			b.Broadcast(ctx, topic, payload)
		}
	}
}
