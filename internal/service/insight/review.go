package insight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/signalflow-backend/internal/domain"
)

// Review accepts or rejects one insight. Rejected insights never change
// status again.
func (s *Service) Review(ctx context.Context, in ReviewInput) (*domain.Insight, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	reviewer, ok := resolveReviewer(ctx, in.Reviewer)
	if !ok {
		return nil, domain.NewValidationError("reviewer", "required")
	}

	updated, err := s.review(ctx, in.ID, in.Status, reviewer)
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "insight reviewed",
		slog.String("insight_id", in.ID.String()),
		slog.String("status", in.Status.String()),
		slog.String("reviewer", reviewer),
	)
	return updated, nil
}

// BulkReview applies one review decision to many insights. Each id succeeds
// or fails on its own.
func (s *Service) BulkReview(ctx context.Context, in BulkReviewInput) (BulkResult, error) {
	if err := in.Validate(); err != nil {
		return BulkResult{}, err
	}
	reviewer, ok := resolveReviewer(ctx, in.Reviewer)
	if !ok {
		return BulkResult{}, domain.NewValidationError("reviewer", "required")
	}

	var res BulkResult
	seen := make(map[uuid.UUID]bool, len(in.IDs))
	for _, id := range in.IDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		updated, err := s.review(ctx, id, in.Status, reviewer)
		if err != nil {
			res.Failed = append(res.Failed, BulkFailure{ID: id, Err: err})
			continue
		}
		res.Updated = append(res.Updated, *updated)
	}

	s.log.InfoContext(ctx, "insights bulk reviewed",
		slog.String("status", in.Status.String()),
		slog.String("reviewer", reviewer),
		slog.Int("updated", len(res.Updated)),
		slog.Int("failed", len(res.Failed)),
	)
	return res, nil
}

func (s *Service) review(ctx context.Context, id uuid.UUID, status domain.InsightStatus, reviewer string) (*domain.Insight, error) {
	updated, err := s.insights.UpdateStatus(ctx, id, sourcesFor(status), status, reviewer, s.now())
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("review insight: %w", err)
	}

	// No row matched: either the insight is gone or its status forbids it.
	current, getErr := s.insights.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("insight %s is %s, cannot become %s: %w",
		id, current.Status, status, domain.ErrInvalidTransition)
}
