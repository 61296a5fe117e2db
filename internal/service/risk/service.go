// Package risk computes the composite, time-smoothed risk score of a
// subject and keeps its append-only history.
package risk

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/signalflow-backend/internal/config"
	"github.com/heartmarshall/signalflow-backend/internal/domain"
	"github.com/heartmarshall/signalflow-backend/internal/service/signal"
)

const (
	DefaultHistoryLimit = 30
	MaxHistoryLimit     = 365
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces
// ---------------------------------------------------------------------------

type historyRepo interface {
	LockSubject(ctx context.Context, subjectID uuid.UUID) error
	Latest(ctx context.Context, subjectID uuid.UUID) (*domain.RiskHistoryEntry, error)
	List(ctx context.Context, subjectID uuid.UUID, limit int) ([]domain.RiskHistoryEntry, error)
	Append(ctx context.Context, e *domain.RiskHistoryEntry) error
}

type subjectRepo interface {
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

type signalExtractor interface {
	Extract(ctx context.Context, subjectID uuid.UUID, now time.Time) (signal.Readings, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service computes and records risk scores.
type Service struct {
	history   historyRepo
	subjects  subjectRepo
	extractor signalExtractor
	tx        txManager
	cfg       config.RiskConfig
	weights   map[domain.SignalName]float64
	log       *slog.Logger
	now       func() time.Time
}

// NewService creates a new risk service.
func NewService(
	log *slog.Logger,
	history historyRepo,
	subjects subjectRepo,
	extractor signalExtractor,
	tx txManager,
	cfg config.RiskConfig,
) *Service {
	return &Service{
		history:   history,
		subjects:  subjects,
		extractor: extractor,
		tx:        tx,
		cfg:       cfg,
		weights:   weightsBySignal(cfg),
		log:       log.With("service", "risk"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// weightsBySignal pairs the configured weights with domain.Signals, which
// share the same order.
func weightsBySignal(cfg config.RiskConfig) map[domain.SignalName]float64 {
	ws := cfg.Weights()
	out := make(map[domain.SignalName]float64, len(domain.Signals))
	for i, name := range domain.Signals {
		if i < len(ws) {
			out[name] = ws[i]
		}
	}
	return out
}
