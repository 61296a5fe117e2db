package insight

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/signalflow-backend/internal/domain"
)

// CreateManual stores a coach-written insight. Manual insights need no
// review and are created accepted.
func (s *Service) CreateManual(ctx context.Context, in CreateManualInput) (*domain.Insight, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var reviewedBy *string
	if r, ok := resolveReviewer(ctx, in.Reviewer); ok {
		reviewedBy = &r
	}

	now := s.now()
	created, err := s.insights.Create(ctx, &domain.Insight{
		ID:         uuid.New(),
		SubjectID:  in.SubjectID,
		MessageID:  in.MessageID,
		Text:       strings.TrimSpace(in.Text),
		Category:   domain.ParseInsightCategory(in.Category),
		Score:      in.Score,
		Source:     domain.InsightSourceManual,
		Status:     domain.InsightStatusAccepted,
		ReviewedBy: reviewedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return nil, fmt.Errorf("create insight: %w", err)
	}

	s.log.InfoContext(ctx, "manual insight created",
		slog.String("subject_id", in.SubjectID.String()),
		slog.String("insight_id", created.ID.String()),
		slog.String("category", created.Category.String()),
	)
	return created, nil
}
