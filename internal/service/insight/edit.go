package insight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/signalflow-backend/internal/domain"
)

// Edit changes the text or category of an insight that is not rejected.
func (s *Service) Edit(ctx context.Context, in EditInput) (*domain.Insight, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	current, err := s.insights.GetByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if !current.IsEditable() {
		return nil, fmt.Errorf("insight %s is %s: %w", in.ID, current.Status, domain.ErrInvalidTransition)
	}

	text := current.Text
	if in.Text != nil {
		text = strings.TrimSpace(*in.Text)
	}
	category := current.Category
	if in.Category != nil {
		category = domain.ParseInsightCategory(*in.Category)
	}

	updated, err := s.insights.UpdateContent(ctx, in.ID, text, category, s.now())
	if errors.Is(err, domain.ErrNotFound) {
		// Rejected or deleted between the read and the write.
		return nil, fmt.Errorf("insight %s changed concurrently: %w", in.ID, domain.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("edit insight: %w", err)
	}

	s.log.InfoContext(ctx, "insight edited", slog.String("insight_id", in.ID.String()))
	return updated, nil
}

// Delete hard-deletes an insight in any status.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return domain.NewValidationError("id", "required")
	}
	if err := s.insights.Delete(ctx, id); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "insight deleted", slog.String("insight_id", id.String()))
	return nil
}
