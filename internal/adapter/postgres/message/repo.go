// Package message implements message and conversation persistence using
// PostgreSQL. Messages are append-only; the fingerprint column is unique.
package message

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/signalflow-backend/internal/adapter/postgres"
	"github.com/heartmarshall/signalflow-backend/internal/domain"
)

// Repo provides message and conversation persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new message repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const messageColumns = `id, conversation_id, subject_id, channel, external_id, direction,
	text, audio_ref, transcription, fingerprint, metadata, created_at`

// ---------------------------------------------------------------------------
// Conversations
// ---------------------------------------------------------------------------

const currentConversationSQL = `
SELECT id, subject_id, created_at, updated_at
FROM conversations
WHERE subject_id = $1
ORDER BY updated_at DESC, created_at DESC
LIMIT 1
FOR UPDATE`

// CurrentConversation returns the most recently updated conversation of a
// subject and row-locks it for the surrounding transaction.
// Returns domain.ErrNotFound if the subject has none yet.
func (r *Repo) CurrentConversation(ctx context.Context, subjectID uuid.UUID) (*domain.Conversation, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var c domain.Conversation
	err := q.QueryRow(ctx, currentConversationSQL, subjectID).
		Scan(&c.ID, &c.SubjectID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "conversation of subject", subjectID)
	}
	return &c, nil
}

const createConversationSQL = `
INSERT INTO conversations (id, subject_id, created_at, updated_at)
VALUES ($1, $2, $3, $3)`

// CreateConversation inserts a new conversation.
func (r *Repo) CreateConversation(ctx context.Context, c *domain.Conversation) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := q.Exec(ctx, createConversationSQL, c.ID, c.SubjectID, c.CreatedAt); err != nil {
		return postgres.MapError(err, "conversation", c.ID)
	}
	return nil
}

// TouchConversation moves a conversation's updated_at forward to at.
func (r *Repo) TouchConversation(ctx context.Context, id uuid.UUID, at time.Time) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx,
		`UPDATE conversations SET updated_at = GREATEST(updated_at, $2) WHERE id = $1`, id, at)
	if err != nil {
		return postgres.MapError(err, "conversation", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ListConversations returns a subject's conversations, most recent first.
func (r *Repo) ListConversations(ctx context.Context, subjectID uuid.UUID) ([]domain.Conversation, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx,
		`SELECT id, subject_id, created_at, updated_at FROM conversations
		 WHERE subject_id = $1 ORDER BY updated_at DESC`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	out := []domain.Conversation{}
	for rows.Next() {
		var c domain.Conversation
		if err := rows.Scan(&c.ID, &c.SubjectID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// Messages: write
// ---------------------------------------------------------------------------

const insertMessageSQL = `
INSERT INTO messages (` + messageColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (fingerprint) DO NOTHING
RETURNING id`

// Insert stores m unless a message with the same fingerprint exists.
// It reports false, with no error, when the fingerprint was already taken.
func (r *Repo) Insert(ctx context.Context, m *domain.Message) (bool, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	meta := m.Metadata
	if meta == nil {
		meta = map[string]any{}
	}

	var id uuid.UUID
	err := q.QueryRow(ctx, insertMessageSQL,
		m.ID, m.ConversationID, m.SubjectID, string(m.Channel), m.ExternalID, string(m.Direction),
		m.Text, m.AudioRef, m.Transcription, m.Fingerprint, meta, m.CreatedAt,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, postgres.MapError(err, "message", m.ID)
	}
	return true, nil
}

// ---------------------------------------------------------------------------
// Messages: read
// ---------------------------------------------------------------------------

// ExistsByFingerprint reports whether a message with the fingerprint is stored.
func (r *Repo) ExistsByFingerprint(ctx context.Context, fingerprint string) (bool, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM messages WHERE fingerprint = $1)`, fingerprint).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lookup fingerprint: %w", err)
	}
	return exists, nil
}

// GetByID returns a message by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	m, err := scanMessage(q.QueryRow(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = $1`, id))
	if err != nil {
		return nil, postgres.MapError(err, "message", id)
	}
	return m, nil
}

// ListByConversation returns up to limit messages of a conversation, newest first.
func (r *Repo) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit int) ([]domain.Message, error) {
	return r.query(ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE conversation_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		conversationID, limit)
}

// Recent returns the last limit messages of a subject in chronological order.
func (r *Repo) Recent(ctx context.Context, subjectID uuid.UUID, limit int) ([]domain.Message, error) {
	msgs, err := r.query(ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE subject_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		subjectID, limit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// LastInboundAt returns the creation time of the subject's latest inbound
// message, or nil when the subject never wrote.
func (r *Repo) LastInboundAt(ctx context.Context, subjectID uuid.UUID) (*time.Time, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var at *time.Time
	err := q.QueryRow(ctx,
		`SELECT max(created_at) FROM messages WHERE subject_id = $1 AND direction = 'in'`,
		subjectID).Scan(&at)
	if err != nil {
		return nil, fmt.Errorf("last inbound message: %w", err)
	}
	return at, nil
}

// RecentInbound returns up to limit inbound messages, newest first.
func (r *Repo) RecentInbound(ctx context.Context, subjectID uuid.UUID, limit int) ([]domain.Message, error) {
	return r.query(ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE subject_id = $1 AND direction = 'in'
		 ORDER BY created_at DESC, id DESC LIMIT $2`,
		subjectID, limit)
}

// InboundSince returns inbound messages created at or after since, newest first.
func (r *Repo) InboundSince(ctx context.Context, subjectID uuid.UUID, since time.Time) ([]domain.Message, error) {
	return r.query(ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE subject_id = $1 AND direction = 'in' AND created_at >= $2
		 ORDER BY created_at DESC, id DESC`,
		subjectID, since)
}

func (r *Repo) query(ctx context.Context, sql string, args ...any) ([]domain.Message, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	out := []domain.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// Mapping helpers
// ---------------------------------------------------------------------------

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var (
		m         domain.Message
		channel   string
		direction string
	)
	err := row.Scan(
		&m.ID, &m.ConversationID, &m.SubjectID, &channel, &m.ExternalID, &direction,
		&m.Text, &m.AudioRef, &m.Transcription, &m.Fingerprint, &m.Metadata, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Channel = domain.Channel(channel)
	m.Direction = domain.Direction(direction)
	return &m, nil
}
