package enrichment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/signalflow-backend/internal/domain"
	"github.com/heartmarshall/signalflow-backend/internal/textgen"
)

type actionCandidate struct {
	HasRequest bool    `json:"has_request"`
	Title      string  `json:"title"`
	Details    string  `json:"details"`
	DueAt      *string `json:"due_at"`
}

// detectAction asks whether the message requests something from the coach
// and, if so, opens an action linked to it. Returns nil when there is no
// request.
func (o *Orchestrator) detectAction(ctx context.Context, pc processContext) (*domain.Action, error) {
	now := o.now()

	resp, err := o.gen.Generate(ctx, actionRequest(pc, now.Format(time.DateOnly)))
	if err != nil {
		return nil, fmt.Errorf("generate action: %w", err)
	}

	var c actionCandidate
	if err := textgen.DecodeJSON(resp.Text, textgen.ShapeJSONObject, &c); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}

	title := strings.TrimSpace(c.Title)
	if !c.HasRequest || title == "" {
		return nil, nil
	}
	if r := []rune(title); len(r) > 200 {
		title = string(r[:200])
	}

	subjectID := pc.message.SubjectID
	messageID := pc.message.ID
	a := &domain.Action{
		ID:        uuid.New(),
		SubjectID: &subjectID,
		MessageID: &messageID,
		Title:     title,
		Details:   strings.TrimSpace(c.Details),
		Status:    domain.ActionStatusOpen,
		Priority:  domain.ActionPriorityMedium,
		DueAt:     parseDue(c.DueAt),
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := o.actions.Create(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("create action: %w", err)
	}
	return created, nil
}

// parseDue accepts a calendar date and ignores anything else.
func parseDue(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(*s))
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
