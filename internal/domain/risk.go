package domain

import (
	"time"

	"github.com/google/uuid"
)

// RiskFactor is one signal's share of a composite score.
type RiskFactor struct {
	Value        float64 `json:"value"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
	Evidence     string  `json:"evidence,omitempty"`
}

// RiskHistoryEntry is an append-only snapshot of one risk computation.
type RiskHistoryEntry struct {
	ID        uuid.UUID
	SubjectID uuid.UUID
	Score     float64
	RawScore  float64
	Level     RiskLevel
	Factors   map[SignalName]RiskFactor
	CreatedAt time.Time
}
