package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/signalflow-backend/internal/domain"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces
// ---------------------------------------------------------------------------

type messageRepo interface {
	CurrentConversation(ctx context.Context, subjectID uuid.UUID) (*domain.Conversation, error)
	CreateConversation(ctx context.Context, c *domain.Conversation) error
	TouchConversation(ctx context.Context, id uuid.UUID, at time.Time) error
	ListConversations(ctx context.Context, subjectID uuid.UUID) ([]domain.Conversation, error)
	Insert(ctx context.Context, m *domain.Message) (bool, error)
	ExistsByFingerprint(ctx context.Context, fingerprint string) (bool, error)
	ListByConversation(ctx context.Context, conversationID uuid.UUID, limit int) ([]domain.Message, error)
	Recent(ctx context.Context, subjectID uuid.UUID, limit int) ([]domain.Message, error)
}

type subjectRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Subject, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SeenCache short-circuits replays of recently stored fingerprints. It can
// only confirm a duplicate; a miss always falls through to the store.
type SeenCache interface {
	Seen(ctx context.Context, fingerprint string) (bool, error)
	Mark(ctx context.Context, fingerprint string) error
}

// Transcriber turns an audio reference into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioRef string) (string, error)
}

// Deliverer sends a message to a subject over some outbound channel.
type Deliverer interface {
	Deliver(ctx context.Context, subject *domain.Subject, text string) error
}

// Service stores inbound and outbound messages exactly once.
type Service struct {
	messages    messageRepo
	subjects    subjectRepo
	tx          txManager
	seen        SeenCache
	transcriber Transcriber
	log         *slog.Logger
	now         func() time.Time
}

// NewService creates a new ingest service. seen and transcriber are
// optional and may be nil.
func NewService(
	log *slog.Logger,
	messages messageRepo,
	subjects subjectRepo,
	tx txManager,
	seen SeenCache,
	transcriber Transcriber,
) *Service {
	return &Service{
		messages:    messages,
		subjects:    subjects,
		tx:          tx,
		seen:        seen,
		transcriber: transcriber,
		log:         log.With("service", "ingest"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
