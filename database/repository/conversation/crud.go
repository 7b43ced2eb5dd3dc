package conversationRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviewdesk/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// FindByManuscript returns nil, nil when the manuscript has no editorial conversation.
func (r *mongoConversationRepo) FindByManuscript(ctx context.Context, manuscriptID string) (*models.Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var conv models.Conversation
	err := r.conversations.FindOne(ctx, bson.M{"manuscriptId": manuscriptID}).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find conversation for manuscript %s: %w", manuscriptID, err)
	}
	return &conv, nil
}

func (r *mongoConversationRepo) CreateMessage(ctx context.Context, msg models.Message) (*models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if _, err := r.messages.InsertOne(ctx, msg); err != nil {
		return nil, fmt.Errorf("insert message into conversation %s: %w", msg.ConversationID, err)
	}
	return &msg, nil
}
