// File: database/repository/conversation/interface.go
package conversationRepo

import (
	"context"

	"reviewdesk/models"

	"go.mongodb.org/mongo-driver/mongo"
)

type ConversationRepository interface {
	FindByManuscript(ctx context.Context, manuscriptID string) (*models.Conversation, error)
	CreateMessage(ctx context.Context, msg models.Message) (*models.Message, error)
}

type mongoConversationRepo struct {
	conversations *mongo.Collection
	messages      *mongo.Collection
}

func NewMongoConversationRepo(db *mongo.Database) ConversationRepository {
	return &mongoConversationRepo{
		conversations: db.Collection("conversations"),
		messages:      db.Collection("conversation_messages"),
	}
}
