package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/signalflow-backend/internal/domain"
)

// Transition moves an action to status, given as a canonical value or a
// legacy alias.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, status string) (*domain.Action, error) {
	if id == uuid.Nil {
		return nil, domain.NewValidationError("id", "required")
	}
	next, ok := domain.ParseActionStatus(status)
	if !ok {
		return nil, domain.NewValidationError("status", "unknown status")
	}

	current, err := s.actions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("action %s: %s -> %s: %w", id, current.Status, next, domain.ErrInvalidTransition)
	}

	updated, err := s.actions.UpdateStatus(ctx, id, current.Status, next, s.now())
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("action %s changed concurrently: %w", id, domain.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("transition action: %w", err)
	}

	s.log.InfoContext(ctx, "action transitioned",
		slog.String("action_id", id.String()),
		slog.String("from", current.Status.String()),
		slog.String("to", next.String()),
	)
	return updated, nil
}

func utcOrNil(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
