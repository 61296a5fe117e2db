package enrichment

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/signalflow-backend/internal/domain"
	"github.com/heartmarshall/signalflow-backend/internal/textgen"
)

type insightCandidate struct {
	Text     string   `json:"text"`
	Category string   `json:"category"`
	Score    *float64 `json:"score"`
}

// extractInsights asks the generator for highlights and converts them into
// unsaved suggested insights. It never returns more than MaxInsights items.
func (o *Orchestrator) extractInsights(ctx context.Context, pc processContext) ([]domain.Insight, error) {
	limit := o.cfg.MaxInsights
	if limit <= 0 {
		limit = 5
	}

	resp, err := o.gen.Generate(ctx, insightsRequest(pc, limit))
	if err != nil {
		return nil, fmt.Errorf("generate insights: %w", err)
	}

	var candidates []insightCandidate
	if err := textgen.DecodeJSON(resp.Text, textgen.ShapeJSONList, &candidates); err != nil {
		return nil, fmt.Errorf("decode insights: %w", err)
	}

	now := o.now()
	msgID := pc.message.ID
	items := make([]domain.Insight, 0, min(len(candidates), limit))
	for _, c := range candidates {
		if len(items) == limit {
			break
		}
		text := strings.TrimSpace(c.Text)
		if text == "" {
			continue
		}
		items = append(items, domain.Insight{
			ID:        uuid.New(),
			SubjectID: pc.message.SubjectID,
			MessageID: &msgID,
			Text:      text,
			Category:  domain.ParseInsightCategory(c.Category),
			Score:     clampScore(c.Score),
			Source:    domain.InsightSourceAI,
			Status:    domain.InsightStatusSuggested,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return items, nil
}

func clampScore(s *float64) *float64 {
	if s == nil || math.IsNaN(*s) {
		return nil
	}
	v := max(0, min(1, *s))
	return &v
}

// RegenerateInsights produces suggested insights for one stored message.
// Existing suggestions are returned untouched unless overwrite is set, in
// which case they are replaced atomically. Unlike Process it runs even when
// automatic generation is switched off, since it is an explicit request.
func (o *Orchestrator) RegenerateInsights(ctx context.Context, messageID uuid.UUID, overwrite bool) ([]domain.Insight, error) {
	if messageID == uuid.Nil {
		return nil, domain.NewValidationError("message_id", "required")
	}

	source := domain.InsightSourceAI
	existing, err := o.insights.List(ctx, domain.InsightFilter{
		MessageID: &messageID,
		Source:    &source,
		Statuses:  []domain.InsightStatus{domain.InsightStatusSuggested},
	})
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	if len(existing) > 0 && !overwrite {
		return existing, nil
	}

	pc, err := o.loadContext(ctx, messageID)
	if err != nil {
		return nil, err
	}

	gctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	items, err := o.extractInsights(gctx, pc)
	cancel()
	if err != nil {
		return nil, err
	}

	var removed int
	err = o.tx.RunInTx(ctx, func(ctx context.Context) error {
		if overwrite {
			n, err := o.insights.DeleteSuggestedByMessage(ctx, messageID)
			if err != nil {
				return fmt.Errorf("delete suggestions: %w", err)
			}
			removed = n
		}
		if err := o.insights.CreateBatch(ctx, items); err != nil {
			return fmt.Errorf("store insights: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.log.InfoContext(ctx, "insights regenerated",
		slog.String("message_id", messageID.String()),
		slog.Int("removed", removed),
		slog.Int("created", len(items)),
	)
	return items, nil
}
