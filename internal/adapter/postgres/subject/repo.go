// Package subject reads tracked subjects from PostgreSQL. Subjects are
// owned by the system of record; this repository never writes them.
package subject

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/signalflow-backend/internal/adapter/postgres"
	"github.com/heartmarshall/signalflow-backend/internal/domain"
)

// Repo provides read access to subjects.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new subject repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const subjectColumns = `id, name, sport, level, phone, email, created_at`

// GetByID returns a subject by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subject, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	s, err := scanSubject(q.QueryRow(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE id = $1`, id))
	if err != nil {
		return nil, postgres.MapError(err, "subject", id)
	}
	return s, nil
}

// List returns all subjects ordered by name.
func (r *Repo) List(ctx context.Context) ([]domain.Subject, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, `SELECT `+subjectColumns+` FROM subjects ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	out := []domain.Subject{}
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// ListIDs returns the ids of all subjects in creation order.
func (r *Repo) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, `SELECT id FROM subjects ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list subject ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("collect subject ids: %w", err)
	}
	return ids, nil
}

func scanSubject(row pgx.Row) (*domain.Subject, error) {
	var s domain.Subject
	if err := row.Scan(&s.ID, &s.Name, &s.Sport, &s.Level, &s.Phone, &s.Email, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
