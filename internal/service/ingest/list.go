package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/signalflow-backend/internal/domain"
)

// ListConversations returns a subject's conversations, most recent first.
func (s *Service) ListConversations(ctx context.Context, subjectID uuid.UUID) ([]domain.Conversation, error) {
	if subjectID == uuid.Nil {
		return nil, domain.NewValidationError("subject_id", "required")
	}
	convs, err := s.messages.ListConversations(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}

// ListMessages returns the newest messages of a conversation, newest first.
func (s *Service) ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]domain.Message, error) {
	if conversationID == uuid.Nil {
		return nil, domain.NewValidationError("conversation_id", "required")
	}
	msgs, err := s.messages.ListByConversation(ctx, conversationID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// RecentMessages returns a subject's latest messages in chronological order.
func (s *Service) RecentMessages(ctx context.Context, subjectID uuid.UUID, limit int) ([]domain.Message, error) {
	if subjectID == uuid.Nil {
		return nil, domain.NewValidationError("subject_id", "required")
	}
	msgs, err := s.messages.Recent(ctx, subjectID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	return msgs, nil
}
