package domain

import (
	"time"

	"github.com/google/uuid"
)

// Insight (a "highlight") is a short statement about a subject, either
// suggested by the text-generation capability or written by a coach.
type Insight struct {
	ID         uuid.UUID
	SubjectID  uuid.UUID
	MessageID  *uuid.UUID
	Text       string
	Category   InsightCategory
	Score      *float64
	Source     InsightSource
	Status     InsightStatus
	ReviewedBy *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsEditable reports whether text and category may still change.
func (i *Insight) IsEditable() bool {
	return i.Status != InsightStatusRejected
}
