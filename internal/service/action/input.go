package action

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/signalflow-backend/internal/domain"
)

// CreateInput holds the parameters for creating an action.
type CreateInput struct {
	SubjectID *uuid.UUID
	MessageID *uuid.UUID
	Title     string
	Details   string
	// Priority defaults to medium.
	Priority string
	DueAt    *time.Time
}

// Validate checks all fields and collects all errors.
func (i CreateInput) Validate() error {
	var errs []domain.FieldError

	errs = validateTitle(errs, i.Title)
	if len(i.Details) > MaxDetailsLength {
		errs = append(errs, domain.FieldError{Field: "details", Message: "max 4000 characters"})
	}
	if i.Priority != "" && !domain.ActionPriority(strings.ToLower(i.Priority)).IsValid() {
		errs = append(errs, domain.FieldError{Field: "priority", Message: "must be low, medium or high"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// UpdateInput holds the parameters for editing an action. Nil fields stay
// unchanged; ClearDue removes the due date.
type UpdateInput struct {
	ID       uuid.UUID
	Title    *string
	Details  *string
	Priority *string
	DueAt    *time.Time
	ClearDue bool
}

// Validate checks all fields and collects all errors.
func (i UpdateInput) Validate() error {
	var errs []domain.FieldError

	if i.ID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "id", Message: "required"})
	}
	if i.Title != nil {
		errs = validateTitle(errs, *i.Title)
	}
	if i.Details != nil && len(*i.Details) > MaxDetailsLength {
		errs = append(errs, domain.FieldError{Field: "details", Message: "max 4000 characters"})
	}
	if i.Priority != nil && !domain.ActionPriority(strings.ToLower(*i.Priority)).IsValid() {
		errs = append(errs, domain.FieldError{Field: "priority", Message: "must be low, medium or high"})
	}
	if i.ClearDue && i.DueAt != nil {
		errs = append(errs, domain.FieldError{Field: "due_at", Message: "cannot set and clear at once"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// ListInput holds the parameters for listing actions. Status accepts the
// legacy aliases "pending" and "completed".
type ListInput struct {
	SubjectID   *uuid.UUID
	Status      string
	OverdueOnly bool
	Limit       int
	Offset      int
}

// Validate checks all fields and collects all errors.
func (i ListInput) Validate() error {
	var errs []domain.FieldError

	if i.Status != "" {
		if _, ok := domain.ParseActionStatus(i.Status); !ok {
			errs = append(errs, domain.FieldError{Field: "status", Message: "unknown status"})
		}
	}
	if i.Limit < 0 {
		errs = append(errs, domain.FieldError{Field: "limit", Message: "must be non-negative"})
	}
	if i.Offset < 0 {
		errs = append(errs, domain.FieldError{Field: "offset", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

func validateTitle(errs []domain.FieldError, title string) []domain.FieldError {
	t := strings.TrimSpace(title)
	if t == "" {
		return append(errs, domain.FieldError{Field: "title", Message: "required"})
	}
	if len(t) > MaxTitleLength {
		return append(errs, domain.FieldError{Field: "title", Message: "max 200 characters"})
	}
	return errs
}
