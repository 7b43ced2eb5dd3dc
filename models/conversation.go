package models

import "time"

// MessageVisibility controls who can read a conversation message.
type MessageVisibility string

const (
	VisibilityAll     MessageVisibility = "ALL"
	VisibilityEditors MessageVisibility = "EDITORS"
	VisibilitySystem  MessageVisibility = "SYSTEM"
)

// Conversation is the editorial discussion attached to a manuscript.
type Conversation struct {
	ID           string    `bson:"id" json:"id"`
	ManuscriptID string    `bson:"manuscriptId" json:"manuscriptId"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

type Message struct {
	ID             string            `bson:"id" json:"id"`
	ConversationID string            `bson:"conversationId" json:"conversationId"`
	AuthorID       string            `bson:"authorId" json:"authorId"`
	Content        string            `bson:"content" json:"content"`
	Visibility     MessageVisibility `bson:"visibility" json:"visibility"`
	IsBot          bool              `bson:"isBot" json:"isBot"`
	Metadata       map[string]any    `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt      time.Time         `bson:"createdAt" json:"createdAt"`
}
