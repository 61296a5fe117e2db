// Package riskhistory implements the append-only risk history using PostgreSQL.
package riskhistory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/signalflow-backend/internal/adapter/postgres"
	"github.com/heartmarshall/signalflow-backend/internal/domain"
)

// Repo provides risk history persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new risk history repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const entryColumns = `id, subject_id, score, raw_score, level, factors, created_at`

// LockSubject takes a row lock on the subject for the surrounding
// transaction so that concurrent computations for one subject serialize
// their read-latest/append pair. Returns domain.ErrNotFound for unknown subjects.
func (r *Repo) LockSubject(ctx context.Context, subjectID uuid.UUID) error {
	var id uuid.UUID
	err := postgres.QuerierFromCtx(ctx, r.pool).
		QueryRow(ctx, `SELECT id FROM subjects WHERE id = $1 FOR UPDATE`, subjectID).
		Scan(&id)
	if err != nil {
		return postgres.MapError(err, "subject", subjectID)
	}
	return nil
}

// Latest returns the most recent entry of a subject.
// Returns domain.ErrNotFound if the subject has no history.
func (r *Repo) Latest(ctx context.Context, subjectID uuid.UUID) (*domain.RiskHistoryEntry, error) {
	e, err := scanEntry(postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx,
		`SELECT `+entryColumns+` FROM risk_history
		 WHERE subject_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`, subjectID))
	if err != nil {
		return nil, postgres.MapError(err, "risk history of subject", subjectID)
	}
	return e, nil
}

// List returns up to limit entries of a subject, newest first.
func (r *Repo) List(ctx context.Context, subjectID uuid.UUID, limit int) ([]domain.RiskHistoryEntry, error) {
	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx,
		`SELECT `+entryColumns+` FROM risk_history
		 WHERE subject_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, subjectID, limit)
	if err != nil {
		return nil, fmt.Errorf("list risk history: %w", err)
	}
	defer rows.Close()

	out := []domain.RiskHistoryEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan risk history: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Append inserts a new entry. Entries are never updated.
func (r *Repo) Append(ctx context.Context, e *domain.RiskHistoryEntry) error {
	_, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx,
		`INSERT INTO risk_history (`+entryColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.SubjectID, e.Score, e.RawScore, string(e.Level), e.Factors, e.CreatedAt,
	)
	if err != nil {
		return postgres.MapError(err, "risk history", e.ID)
	}
	return nil
}

func scanEntry(row pgx.Row) (*domain.RiskHistoryEntry, error) {
	var (
		e     domain.RiskHistoryEntry
		level string
	)
	if err := row.Scan(&e.ID, &e.SubjectID, &e.Score, &e.RawScore, &level, &e.Factors, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Level = domain.RiskLevel(level)
	return &e, nil
}
