package insight

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/signalflow-backend/internal/domain"
	"github.com/heartmarshall/signalflow-backend/pkg/ctxutil"
)

const (
	MaxTextLength = 1000
	MaxBulkIDs    = 200
)

type insightRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Insight, error)
	List(ctx context.Context, f domain.InsightFilter) ([]domain.Insight, error)
	Create(ctx context.Context, in *domain.Insight) (*domain.Insight, error)
	UpdateContent(ctx context.Context, id uuid.UUID, text string, category domain.InsightCategory, at time.Time) (*domain.Insight, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from []domain.InsightStatus, status domain.InsightStatus, reviewer string, at time.Time) (*domain.Insight, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service runs the human-review lifecycle of insights.
type Service struct {
	insights insightRepo
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates a new insight service.
func NewService(log *slog.Logger, insights insightRepo) *Service {
	return &Service{
		insights: insights,
		log:      log.With("service", "insight"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// resolveReviewer prefers an explicit reviewer and falls back to the actor
// stored in ctx.
func resolveReviewer(ctx context.Context, explicit string) (string, bool) {
	if r := strings.TrimSpace(explicit); r != "" {
		return r, true
	}
	return ctxutil.ActorFromCtx(ctx)
}

// sourcesFor lists the statuses from which a review may reach target.
func sourcesFor(target domain.InsightStatus) []domain.InsightStatus {
	var from []domain.InsightStatus
	for _, s := range []domain.InsightStatus{
		domain.InsightStatusSuggested,
		domain.InsightStatusAccepted,
		domain.InsightStatusRejected,
	} {
		if s.CanTransitionTo(target) {
			from = append(from, s)
		}
	}
	return from
}
