// Package signal turns a subject's recent history into normalized risk
// signals, each in [0,1].
package signal

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/signalflow-backend/internal/config"
	"github.com/heartmarshall/signalflow-backend/internal/domain"
)

type messageReader interface {
	LastInboundAt(ctx context.Context, subjectID uuid.UUID) (*time.Time, error)
	RecentInbound(ctx context.Context, subjectID uuid.UUID, limit int) ([]domain.Message, error)
	InboundSince(ctx context.Context, subjectID uuid.UUID, since time.Time) ([]domain.Message, error)
}

type actionReader interface {
	List(ctx context.Context, f domain.ActionFilter) ([]domain.Action, error)
}

type insightReader interface {
	List(ctx context.Context, f domain.InsightFilter) ([]domain.Insight, error)
}

// Reading is one normalized signal and a human-readable reason for it.
type Reading struct {
	Value    float64
	Evidence string
}

// Readings holds one Reading per signal.
type Readings map[domain.SignalName]Reading

// Extractor reads the stores and computes every signal for a subject.
type Extractor struct {
	messages   messageReader
	actions    actionReader
	insights   insightReader
	classifier Classifier
	cfg        config.RiskConfig
	log        *slog.Logger
}

// NewExtractor creates a new signal extractor.
func NewExtractor(
	log *slog.Logger,
	messages messageReader,
	actions actionReader,
	insights insightReader,
	classifier Classifier,
	cfg config.RiskConfig,
) *Extractor {
	return &Extractor{
		messages:   messages,
		actions:    actions,
		insights:   insights,
		classifier: classifier,
		cfg:        cfg,
		log:        log.With("service", "signal"),
	}
}

// Extract computes all signals for subjectID as of now.
func (e *Extractor) Extract(ctx context.Context, subjectID uuid.UUID, now time.Time) (Readings, error) {
	out := make(Readings, len(domain.Signals))

	steps := []struct {
		name domain.SignalName
		fn   func(context.Context, uuid.UUID, time.Time) (Reading, error)
	}{
		{domain.SignalInactivity, e.inactivity},
		{domain.SignalOverdueActions, e.overdue},
		{domain.SignalNegativeInsights, e.negativeInsights},
		{domain.SignalSentiment, e.sentiment},
		{domain.SignalPain, e.pain},
	}
	for _, step := range steps {
		r, err := step.fn(ctx, subjectID, now)
		if err != nil {
			return nil, fmt.Errorf("signal %s: %w", step.name, err)
		}
		out[step.name] = r
	}
	return out, nil
}

func (e *Extractor) inactivity(ctx context.Context, subjectID uuid.UUID, now time.Time) (Reading, error) {
	last, err := e.messages.LastInboundAt(ctx, subjectID)
	if err != nil {
		return Reading{}, err
	}
	if last == nil {
		return Reading{
			Value:    Inactivity(NoContactDays),
			Evidence: fmt.Sprintf("no inbound message yet (counted as %.0f days)", NoContactDays),
		}, nil
	}

	days := math.Max(0, math.Floor(now.Sub(*last).Hours()/24))
	return Reading{
		Value:    Inactivity(days),
		Evidence: fmt.Sprintf("last inbound message %s (%.0f days)", last.UTC().Format(time.DateOnly), days),
	}, nil
}

func (e *Extractor) overdue(ctx context.Context, subjectID uuid.UUID, now time.Time) (Reading, error) {
	actions, err := e.actions.List(ctx, domain.ActionFilter{
		SubjectID: &subjectID,
		Statuses:  []domain.ActionStatus{domain.ActionStatusOpen, domain.ActionStatusInProgress},
		DueBefore: &now,
		Limit:     500,
	})
	if err != nil {
		return Reading{}, err
	}

	var (
		overdue, severe int
		titles          []string
	)
	for i := range actions {
		by := actions[i].OverdueBy(now)
		if by <= 0 {
			continue
		}
		overdue++
		if by > SevereOverdueDays*24*time.Hour {
			severe++
		}
		if len(titles) < 3 {
			titles = append(titles, fmt.Sprintf("%q", actions[i].Title))
		}
	}

	r := Reading{Value: Overdue(overdue, severe)}
	if overdue > 0 {
		r.Evidence = fmt.Sprintf("%d overdue (%d severe): %s", overdue, severe, strings.Join(titles, ", "))
	}
	return r, nil
}

func (e *Extractor) negativeInsights(ctx context.Context, subjectID uuid.UUID, now time.Time) (Reading, error) {
	since := now.Add(-e.cfg.InsightLookback)
	insights, err := e.insights.List(ctx, domain.InsightFilter{
		SubjectID: &subjectID,
		Statuses:  []domain.InsightStatus{domain.InsightStatusAccepted, domain.InsightStatusSuggested},
		Since:     &since,
		Limit:     e.cfg.InsightWindow,
	})
	if err != nil {
		return Reading{}, err
	}

	negative := 0
	for i := range insights {
		if insights[i].Category == domain.InsightCategoryInjury {
			negative++
			continue
		}
		neg, err := e.classifier.IsNegative(ctx, insights[i].Text)
		if err != nil {
			return Reading{}, err
		}
		if neg {
			negative++
		}
	}

	r := Reading{Value: NegativeRatio(negative, len(insights))}
	if negative > 0 {
		r.Evidence = fmt.Sprintf("%d/%d recent insights negative", negative, len(insights))
	}
	return r, nil
}

func (e *Extractor) sentiment(ctx context.Context, subjectID uuid.UUID, _ time.Time) (Reading, error) {
	msgs, err := e.messages.RecentInbound(ctx, subjectID, e.cfg.SentimentWindow)
	if err != nil {
		return Reading{}, err
	}

	var sum float64
	scored := 0
	for i := range msgs {
		body := msgs[i].Body()
		if strings.TrimSpace(body) == "" {
			continue
		}
		v, err := e.classifier.Sentiment(ctx, body)
		if err != nil {
			return Reading{}, err
		}
		sum += v
		scored++
	}

	mean := 0.0
	if scored > 0 {
		mean = sum / float64(scored)
	}

	r := Reading{Value: SentimentRisk(mean)}
	if mean < 0 {
		r.Evidence = fmt.Sprintf("mean sentiment of last %d messages = %.2f", scored, mean)
	}
	return r, nil
}

func (e *Extractor) pain(ctx context.Context, subjectID uuid.UUID, now time.Time) (Reading, error) {
	msgs, err := e.messages.InboundSince(ctx, subjectID, now.Add(-e.cfg.PainLookback))
	if err != nil {
		return Reading{}, err
	}

	hits := 0
	for i := range msgs {
		body := msgs[i].Body()
		if strings.TrimSpace(body) == "" {
			continue
		}
		n, err := e.classifier.PainMentions(ctx, body)
		if err != nil {
			return Reading{}, err
		}
		hits += n
	}

	r := Reading{Value: Pain(hits)}
	if hits > 0 {
		r.Evidence = fmt.Sprintf("%d pain or injury mentions over %s", hits, humanDays(e.cfg.PainLookback))
	}
	return r, nil
}

func humanDays(d time.Duration) string {
	return fmt.Sprintf("%.0fd", d.Hours()/24)
}
