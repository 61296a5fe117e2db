package insight

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/signalflow-backend/internal/domain"
)

// Get returns one insight.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Insight, error) {
	if id == uuid.Nil {
		return nil, domain.NewValidationError("id", "required")
	}
	return s.insights.GetByID(ctx, id)
}

// List returns insights matching the input, newest first.
func (s *Service) List(ctx context.Context, in ListInput) ([]domain.Insight, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	f := domain.InsightFilter{
		SubjectID: in.SubjectID,
		MessageID: in.MessageID,
		Limit:     in.Limit,
		Offset:    in.Offset,
	}
	if in.Status != "" {
		f.Statuses = []domain.InsightStatus{domain.InsightStatus(in.Status)}
	}
	if in.Source != "" {
		src := domain.InsightSource(in.Source)
		f.Source = &src
	}
	if in.Category != "" {
		cat := domain.InsightCategory(in.Category)
		f.Category = &cat
	}

	items, err := s.insights.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	return items, nil
}
