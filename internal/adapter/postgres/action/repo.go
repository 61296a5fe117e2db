// Package action implements follow-up task persistence using PostgreSQL.
package action

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

// Repo provides action persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new action repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var actionColumns = []string{
	"id", "subject_id", "message_id", "title", "details", "status",
	"priority", "due_at", "created_at", "updated_at",
}

var returning = "RETURNING " + strings.Join(actionColumns, ", ")

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns an action by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Action, error) {
	query, args, err := postgres.Builder().
		Select(actionColumns...).
		From("actions").
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	a, err := scanAction(postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, "action", id)
	}
	return a, nil
}

// List returns actions matching f. Actions with a due date come first,
// earliest due first, then the rest newest first.
func (r *Repo) List(ctx context.Context, f domain.ActionFilter) ([]domain.Action, error) {
	f = normalize(f)

	b := postgres.Builder().
		Select(actionColumns...).
		From("actions").
		OrderBy("due_at ASC NULLS LAST", "created_at DESC", "id DESC").
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset))

	if f.SubjectID != nil {
		b = b.Where("subject_id = ?", *f.SubjectID)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		b = b.Where(sq.Eq{"status": statuses})
	}
	if f.DueBefore != nil {
		b = b.Where(sq.Lt{"due_at": *f.DueBefore})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	out := []domain.Action{}
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a new action.
func (r *Repo) Create(ctx context.Context, a *domain.Action) (*domain.Action, error) {
	query, args, err := postgres.Builder().
		Insert("actions").
		Columns(actionColumns...).
		Values(
			a.ID, a.SubjectID, a.MessageID, a.Title, a.Details, string(a.Status),
			string(a.Priority), a.DueAt, a.CreatedAt, a.UpdatedAt,
		).
		Suffix(returning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}

	created, err := scanAction(postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, "action", a.ID)
	}
	return created, nil
}

// UpdateFields rewrites the editable fields of a non-terminal action.
// Returns domain.ErrNotFound when no open row matched.
func (r *Repo) UpdateFields(ctx context.Context, a *domain.Action) (*domain.Action, error) {
	query, args, err := postgres.Builder().
		Update("actions").
		Set("title", a.Title).
		Set("details", a.Details).
		Set("priority", string(a.Priority)).
		Set("due_at", a.DueAt).
		Set("updated_at", a.UpdatedAt).
		Where("id = ?", a.ID).
		Where(sq.Eq{"status": []string{string(domain.ActionStatusOpen), string(domain.ActionStatusInProgress)}}).
		Suffix(returning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	updated, err := scanAction(postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, "action", a.ID)
	}
	return updated, nil
}

// UpdateStatus sets status when the current status equals from.
// Returns domain.ErrNotFound when no row matched.
func (r *Repo) UpdateStatus(ctx context.Context, id uuid.UUID, from, status domain.ActionStatus, at time.Time) (*domain.Action, error) {
	query, args, err := postgres.Builder().
		Update("actions").
		Set("status", string(status)).
		Set("updated_at", at).
		Where("id = ?", id).
		Where(sq.Eq{"status": string(from)}).
		Suffix(returning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	updated, err := scanAction(postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, "action", id)
	}
	return updated, nil
}

// Delete removes an action.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, `DELETE FROM actions WHERE id = $1`, id)
	if err != nil {
		return postgres.MapError(err, "action", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("action %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Mapping helpers
// ---------------------------------------------------------------------------

func scanAction(row pgx.Row) (*domain.Action, error) {
	var (
		a                domain.Action
		status, priority string
	)
	err := row.Scan(
		&a.ID, &a.SubjectID, &a.MessageID, &a.Title, &a.Details, &status,
		&priority, &a.DueAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = domain.ActionStatus(status)
	a.Priority = domain.ActionPriority(priority)
	return &a, nil
}
