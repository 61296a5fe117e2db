package domain

import (
	"time"

	"github.com/google/uuid"
)

// Action is a follow-up task, detected from a message or created by hand.
type Action struct {
	ID        uuid.UUID
	SubjectID *uuid.UUID
	MessageID *uuid.UUID
	Title     string
	Details   string
	Status    ActionStatus
	Priority  ActionPriority
	DueAt     *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OverdueBy returns how long past due the action is at now, or 0 when it
// is not overdue, has no due date, or is already closed.
func (a *Action) OverdueBy(now time.Time) time.Duration {
	if a.DueAt == nil || a.Status.IsTerminal() {
		return 0
	}
	if d := now.Sub(*a.DueAt); d > 0 {
		return d
	}
	return 0
}
