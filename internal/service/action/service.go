package action

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/signalflow-backend/internal/domain"
)

const (
	MaxTitleLength   = 200
	MaxDetailsLength = 4000
)

type actionRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Action, error)
	List(ctx context.Context, f domain.ActionFilter) ([]domain.Action, error)
	Create(ctx context.Context, a *domain.Action) (*domain.Action, error)
	UpdateFields(ctx context.Context, a *domain.Action) (*domain.Action, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, status domain.ActionStatus, at time.Time) (*domain.Action, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service tracks follow-up actions through open → in_progress → done, with
// cancellation from any non-terminal status.
type Service struct {
	actions actionRepo
	log     *slog.Logger
	now     func() time.Time
}

// NewService creates a new action service.
func NewService(log *slog.Logger, actions actionRepo) *Service {
	return &Service{
		actions: actions,
		log:     log.With("service", "action"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}
