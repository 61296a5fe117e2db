// Command risk-recompute recomputes the risk score of every subject and
// logs the ones that came out high. It is intended to be invoked daily by
// an external cron job, not as an in-process goroutine.
//
// Exit codes: 0 = success (including per-subject failures), 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/signalflow-backend/internal/app"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	a, err := app.Load(ctx)
	if err != nil {
		log.Fatalf("load app: %v", err)
	}
	defer a.Close()

	go func() {
		if err := a.ServeMetrics(ctx); err != nil {
			a.Log.Warn("metrics server stopped", slog.String("error", err.Error()))
		}
	}()

	report, err := a.Risk.RecomputeAll(ctx)
	if err != nil {
		a.Log.Error("risk recompute failed", slog.String("error", err.Error()))
		a.Close()
		os.Exit(1)
	}

	for _, f := range report.Failures {
		a.Log.Warn("subject not recomputed",
			slog.String("subject_id", f.SubjectID.String()),
			slog.String("error", f.Err.Error()),
		)
	}

	for _, e := range report.High {
		a.Log.Warn("high risk subject",
			slog.String("subject_id", e.SubjectID.String()),
			slog.Float64("score", e.Score),
			slog.Float64("raw_score", e.RawScore),
		)
	}

	a.Log.Info("risk recompute completed",
		slog.Int("total", report.Total),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", len(report.Failures)),
		slog.Int("high", len(report.High)),
		slog.Duration("duration", report.Duration),
	)
}
