package risk

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/signalflow-backend/internal/domain"
	"github.com/heartmarshall/signalflow-backend/internal/observability"
)

// SubjectFailure is one subject a batch could not score.
type SubjectFailure struct {
	SubjectID uuid.UUID
	Err       error
}

// BatchReport summarizes a RecomputeAll run.
type BatchReport struct {
	Total     int
	Succeeded int
	Failures  []SubjectFailure
	Levels    map[domain.RiskLevel]int
	// High holds the entries that came out high risk, highest first.
	High     []domain.RiskHistoryEntry
	Duration time.Duration
}

// RecomputeAll scores every subject with bounded parallelism. A failing
// subject is recorded in the report and does not stop the others. The
// returned error is non-nil only when the subject list cannot be read or
// ctx is cancelled.
func (s *Service) RecomputeAll(ctx context.Context) (BatchReport, error) {
	start := time.Now()

	ids, err := s.subjects.ListIDs(ctx)
	if err != nil {
		return BatchReport{}, fmt.Errorf("list subjects: %w", err)
	}

	report := BatchReport{
		Total:  len(ids),
		Levels: map[domain.RiskLevel]int{},
	}

	limit := s.cfg.BatchConcurrency
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var mu sync.Mutex
	for _, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			entry, err := s.Compute(gctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failures = append(report.Failures, SubjectFailure{SubjectID: id, Err: err})
				s.log.WarnContext(gctx, "risk computation failed",
					slog.String("subject_id", id.String()),
					slog.String("error", err.Error()),
				)
				return nil
			}
			report.Succeeded++
			report.Levels[entry.Level]++
			if entry.Level == domain.RiskLevelHigh {
				report.High = append(report.High, *entry)
			}
			return nil
		})
	}
	waitErr := g.Wait()
	if waitErr == nil {
		waitErr = ctx.Err()
	}

	sort.Slice(report.High, func(i, j int) bool { return report.High[i].Score > report.High[j].Score })
	report.Duration = time.Since(start)

	observability.BatchFailuresObserved(len(report.Failures))
	s.log.InfoContext(ctx, "risk batch finished",
		slog.Int("total", report.Total),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", len(report.Failures)),
		slog.Int("high", report.Levels[domain.RiskLevelHigh]),
		slog.Duration("duration", report.Duration),
	)

	if waitErr != nil {
		return report, fmt.Errorf("risk batch: %w", waitErr)
	}
	return report, nil
}
