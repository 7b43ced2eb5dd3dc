package notification

import (
	"context"

	"reviewdesk/models"
)

// EmailSender delivers a rendered email.
type EmailSender interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// ConversationService posts into the editorial conversation attached to a manuscript.
type ConversationService interface {
	// FindForManuscript returns nil, nil when the manuscript has no conversation.
	FindForManuscript(ctx context.Context, manuscriptID string) (*models.Conversation, error)
	PostMessage(ctx context.Context, conversationID, content, authorID string, visibility models.MessageVisibility) (*models.Message, error)
}

// Broadcaster pushes live updates. Implementations log failures and never return them.
type Broadcaster interface {
	Broadcast(ctx context.Context, topic string, payload models.LiveUpdate)
}
