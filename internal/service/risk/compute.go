package risk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/signalflow-backend/internal/domain"
	"github.com/heartmarshall/signalflow-backend/internal/observability"
)

// Compute extracts the subject's signals, smooths the composite score with
// the latest recorded one and appends the result to the history.
//
// Signals are read before the transaction; the previous score is read and
// the new entry appended under a row lock on the subject, so concurrent
// computations for one subject are serialized.
func (s *Service) Compute(ctx context.Context, subjectID uuid.UUID) (*domain.RiskHistoryEntry, error) {
	if subjectID == uuid.Nil {
		return nil, domain.NewValidationError("subject_id", "required")
	}

	now := s.now()
	readings, err := s.extractor.Extract(ctx, subjectID, now)
	if err != nil {
		return nil, fmt.Errorf("extract signals: %w", err)
	}

	raw, factors := Aggregate(readings, s.weights)
	raw = round(raw, 1)

	var entry *domain.RiskHistoryEntry
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.history.LockSubject(ctx, subjectID); err != nil {
			return fmt.Errorf("lock subject: %w", err)
		}

		var prev *float64
		latest, err := s.history.Latest(ctx, subjectID)
		switch {
		case err == nil:
			prev = &latest.Score
		case !errors.Is(err, domain.ErrNotFound):
			return fmt.Errorf("latest risk: %w", err)
		}

		final := Smooth(raw, prev, s.cfg.Alpha)

		entry = &domain.RiskHistoryEntry{
			ID:        uuid.New(),
			SubjectID: subjectID,
			Score:     round(final, 1),
			RawScore:  raw,
			Level:     Level(final, s.cfg.HighThreshold, s.cfg.MediumThreshold),
			Factors:   factors,
			CreatedAt: now,
		}
		if err := s.history.Append(ctx, entry); err != nil {
			return fmt.Errorf("append risk: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.RiskObserved(entry.Level.String())
	s.log.InfoContext(ctx, "risk computed",
		slog.String("subject_id", subjectID.String()),
		slog.Float64("score", entry.Score),
		slog.Float64("raw_score", entry.RawScore),
		slog.String("level", entry.Level.String()),
	)

	return entry, nil
}

// Latest returns the most recent risk entry of a subject.
func (s *Service) Latest(ctx context.Context, subjectID uuid.UUID) (*domain.RiskHistoryEntry, error) {
	if subjectID == uuid.Nil {
		return nil, domain.NewValidationError("subject_id", "required")
	}
	return s.history.Latest(ctx, subjectID)
}

// History returns up to limit risk entries of a subject, newest first.
func (s *Service) History(ctx context.Context, subjectID uuid.UUID, limit int) ([]domain.RiskHistoryEntry, error) {
	if subjectID == uuid.Nil {
		return nil, domain.NewValidationError("subject_id", "required")
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	entries, err := s.history.List(ctx, subjectID, limit)
	if err != nil {
		return nil, fmt.Errorf("risk history: %w", err)
	}
	return entries, nil
}
