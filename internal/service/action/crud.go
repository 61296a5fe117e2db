package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/signalflow-backend/internal/domain"
)

// Create opens a new action.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Action, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	priority := domain.ActionPriorityMedium
	if in.Priority != "" {
		priority = domain.ActionPriority(strings.ToLower(in.Priority))
	}

	now := s.now()
	created, err := s.actions.Create(ctx, &domain.Action{
		ID:        uuid.New(),
		SubjectID: in.SubjectID,
		MessageID: in.MessageID,
		Title:     strings.TrimSpace(in.Title),
		Details:   strings.TrimSpace(in.Details),
		Status:    domain.ActionStatusOpen,
		Priority:  priority,
		DueAt:     utcOrNil(in.DueAt),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("create action: %w", err)
	}

	s.log.InfoContext(ctx, "action created",
		slog.String("action_id", created.ID.String()),
		slog.String("priority", created.Priority.String()),
	)
	return created, nil
}

// Update edits title, details, priority or due date of a non-terminal
// action.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*domain.Action, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	current, err := s.actions.GetByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if current.Status.IsTerminal() {
		return nil, fmt.Errorf("action %s is %s: %w", in.ID, current.Status, domain.ErrInvalidTransition)
	}

	next := *current
	if in.Title != nil {
		next.Title = strings.TrimSpace(*in.Title)
	}
	if in.Details != nil {
		next.Details = strings.TrimSpace(*in.Details)
	}
	if in.Priority != nil {
		next.Priority = domain.ActionPriority(strings.ToLower(*in.Priority))
	}
	if in.DueAt != nil {
		next.DueAt = utcOrNil(in.DueAt)
	}
	if in.ClearDue {
		next.DueAt = nil
	}
	next.UpdatedAt = s.now()

	updated, err := s.actions.UpdateFields(ctx, &next)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("action %s changed concurrently: %w", in.ID, domain.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("update action: %w", err)
	}
	return updated, nil
}

// Delete removes an action.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return domain.NewValidationError("id", "required")
	}
	if err := s.actions.Delete(ctx, id); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "action deleted", slog.String("action_id", id.String()))
	return nil
}

// Get returns one action.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Action, error) {
	if id == uuid.Nil {
		return nil, domain.NewValidationError("id", "required")
	}
	return s.actions.GetByID(ctx, id)
}

// List returns actions matching the input; due actions first.
func (s *Service) List(ctx context.Context, in ListInput) ([]domain.Action, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	f := domain.ActionFilter{
		SubjectID: in.SubjectID,
		Limit:     in.Limit,
		Offset:    in.Offset,
	}
	if in.Status != "" {
		status, _ := domain.ParseActionStatus(in.Status)
		f.Statuses = []domain.ActionStatus{status}
	}
	if in.OverdueOnly {
		now := s.now()
		f.DueBefore = &now
		if len(f.Statuses) == 0 {
			f.Statuses = []domain.ActionStatus{domain.ActionStatusOpen, domain.ActionStatusInProgress}
		}
	}

	items, err := s.actions.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	return items, nil
}
