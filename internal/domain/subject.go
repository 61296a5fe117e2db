package domain

import (
	"time"

	"github.com/google/uuid"
)

// Subject is a tracked athlete. Subjects are owned by the system of record;
// this engine only reads them.
type Subject struct {
	ID        uuid.UUID
	Name      string
	Sport     *string
	Level     *string
	Phone     *string
	Email     *string
	CreatedAt time.Time
}

// DisplayName returns the subject's name or a neutral placeholder.
func (s *Subject) DisplayName() string {
	if s == nil || s.Name == "" {
		return "the athlete"
	}
	return s.Name
}
