package notification

import (
	"context"
	"fmt"

	conversationRepo "reviewdesk/database/repository/conversation"
	"reviewdesk/models"
)

// DefaultConversationService writes bot messages through the conversation repository.
type DefaultConversationService struct {
	repo conversationRepo.ConversationRepository
}

func NewDefaultConversationService(repo conversationRepo.ConversationRepository) (*DefaultConversationService, error) {
	if repo == nil {
		return nil, fmt.Errorf("conversation service initialization error: repository is nil")
	}
	return &DefaultConversationService{repo: repo}, nil
}

func (s *DefaultConversationService) FindForManuscript(ctx context.Context, manuscriptID string) (*models.Conversation, error) {
	return s.repo.FindByManuscript(ctx, manuscriptID)
}

func (s *DefaultConversationService) PostMessage(
	ctx context.Context,
	conversationID, content, authorID string,
	visibility models.MessageVisibility,
) (*models.Message, error) {
	msg, err := s.repo.CreateMessage(ctx, models.Message{
		ConversationID: conversationID,
		AuthorID:       authorID,
		Content:        content,
		Visibility:     visibility,
		IsBot:          true,
		Metadata:       map[string]any{"type": "deadline_reminder"},
	})
	if err != nil {
		return nil, fmt.Errorf("PostMessage: %w", err)
	}
	return msg, nil
}
