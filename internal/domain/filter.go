package domain

import (
	"time"

	"github.com/google/uuid"
)

// InsightFilter contains filtering/pagination parameters for insight
// listings. Zero values mean "no constraint".
type InsightFilter struct {
	SubjectID *uuid.UUID
	MessageID *uuid.UUID
	// Statuses matches any of the listed statuses.
	Statuses []InsightStatus
	Source   *InsightSource
	Category *InsightCategory
	// Since keeps insights created at or after the given time.
	Since *time.Time
	// Limit is the maximum number of rows. Default: 50, max: 500.
	Limit  int
	Offset int
}

// ActionFilter contains filtering/pagination parameters for action listings.
type ActionFilter struct {
	SubjectID *uuid.UUID
	Statuses  []ActionStatus
	// DueBefore keeps actions with a due date strictly before the given time.
	DueBefore *time.Time
	// Limit is the maximum number of rows. Default: 100, max: 500.
	Limit  int
	Offset int
}
