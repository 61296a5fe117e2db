// Package insight implements insight persistence using PostgreSQL.
package insight

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/signalflow-backend/internal/adapter/postgres"
	"github.com/heartmarshall/signalflow-backend/internal/domain"
)

// Repo provides insight persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new insight repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var insightColumns = []string{
	"id", "subject_id", "message_id", "text", "category", "score",
	"source", "status", "reviewed_by", "created_at", "updated_at",
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns an insight by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Insight, error) {
	query, args, err := postgres.Builder().
		Select(insightColumns...).
		From("insights").
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	in, err := scanInsight(postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, "insight", id)
	}
	return in, nil
}

// List returns insights matching f, newest first.
func (r *Repo) List(ctx context.Context, f domain.InsightFilter) ([]domain.Insight, error) {
	f = normalize(f)

	b := postgres.Builder().
		Select(insightColumns...).
		From("insights").
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset))

	if f.SubjectID != nil {
		b = b.Where("subject_id = ?", *f.SubjectID)
	}
	if f.MessageID != nil {
		b = b.Where("message_id = ?", *f.MessageID)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		b = b.Where(sq.Eq{"status": statuses})
	}
	if f.Source != nil {
		b = b.Where(sq.Eq{"source": string(*f.Source)})
	}
	if f.Category != nil {
		b = b.Where(sq.Eq{"category": string(*f.Category)})
	}
	if f.Since != nil {
		b = b.Where(sq.GtOrEq{"created_at": *f.Since})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	defer rows.Close()

	out := []domain.Insight{}
	for rows.Next() {
		in, err := scanInsight(rows)
		if err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		out = append(out, *in)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a single insight.
func (r *Repo) Create(ctx context.Context, in *domain.Insight) (*domain.Insight, error) {
	query, args, err := insertBuilder([]domain.Insight{*in}).
		Suffix("RETURNING " + joinColumns()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}

	created, err := scanInsight(postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, "insight", in.ID)
	}
	return created, nil
}

// CreateBatch inserts several insights with one multi-row statement.
func (r *Repo) CreateBatch(ctx context.Context, items []domain.Insight) error {
	if len(items) == 0 {
		return nil
	}

	query, args, err := insertBuilder(items).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return postgres.MapError(err, "insight batch for subject", items[0].SubjectID)
	}
	return nil
}

// UpdateContent rewrites text and category unless the insight is rejected.
// Returns domain.ErrNotFound when no editable row matched.
func (r *Repo) UpdateContent(ctx context.Context, id uuid.UUID, text string, category domain.InsightCategory, at time.Time) (*domain.Insight, error) {
	query, args, err := postgres.Builder().
		Update("insights").
		Set("text", text).
		Set("category", string(category)).
		Set("updated_at", at).
		Where("id = ?", id).
		Where(sq.NotEq{"status": string(domain.InsightStatusRejected)}).
		Suffix("RETURNING " + joinColumns()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	updated, err := scanInsight(postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, "insight", id)
	}
	return updated, nil
}

// UpdateStatus moves an insight to status when its current status is one of
// from, recording the reviewer. Returns domain.ErrNotFound when no row
// matched, which callers disambiguate with GetByID.
func (r *Repo) UpdateStatus(ctx context.Context, id uuid.UUID, from []domain.InsightStatus, status domain.InsightStatus, reviewer string, at time.Time) (*domain.Insight, error) {
	fromValues := make([]string, len(from))
	for i, s := range from {
		fromValues[i] = string(s)
	}

	query, args, err := postgres.Builder().
		Update("insights").
		Set("status", string(status)).
		Set("reviewed_by", reviewer).
		Set("updated_at", at).
		Where("id = ?", id).
		Where(sq.Eq{"status": fromValues}).
		Suffix("RETURNING " + joinColumns()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	updated, err := scanInsight(postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, "insight", id)
	}
	return updated, nil
}

// Delete hard-deletes an insight regardless of status.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, `DELETE FROM insights WHERE id = $1`, id)
	if err != nil {
		return postgres.MapError(err, "insight", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("insight %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// DeleteSuggestedByMessage removes unreviewed AI insights of a message and
// returns how many were removed.
func (r *Repo) DeleteSuggestedByMessage(ctx context.Context, messageID uuid.UUID) (int, error) {
	tag, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx,
		`DELETE FROM insights WHERE message_id = $1 AND source = 'ai' AND status = 'suggested'`,
		messageID)
	if err != nil {
		return 0, postgres.MapError(err, "insights of message", messageID)
	}
	return int(tag.RowsAffected()), nil
}

// ---------------------------------------------------------------------------
// Mapping helpers
// ---------------------------------------------------------------------------

func insertBuilder(items []domain.Insight) sq.InsertBuilder {
	b := postgres.Builder().Insert("insights").Columns(insightColumns...)
	for _, in := range items {
		b = b.Values(
			in.ID, in.SubjectID, in.MessageID, in.Text, string(in.Category), in.Score,
			string(in.Source), string(in.Status), in.ReviewedBy, in.CreatedAt, in.UpdatedAt,
		)
	}
	return b
}

func joinColumns() string {
	return strings.Join(insightColumns, ", ")
}

func scanInsight(row pgx.Row) (*domain.Insight, error) {
	var (
		in                       domain.Insight
		category, source, status string
	)
	err := row.Scan(
		&in.ID, &in.SubjectID, &in.MessageID, &in.Text, &category, &in.Score,
		&source, &status, &in.ReviewedBy, &in.CreatedAt, &in.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	in.Category = domain.InsightCategory(category)
	in.Source = domain.InsightSource(source)
	in.Status = domain.InsightStatus(status)
	return &in, nil
}
