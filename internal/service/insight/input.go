package insight

import (
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/signalflow-backend/internal/domain"
)

// CreateManualInput holds the parameters for a coach-written insight.
type CreateManualInput struct {
	SubjectID uuid.UUID
	MessageID *uuid.UUID
	Text      string
	Category  string
	Score     *float64
	Reviewer  string
}

// Validate checks all fields and collects all errors.
func (i CreateManualInput) Validate() error {
	var errs []domain.FieldError

	if i.SubjectID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "subject_id", Message: "required"})
	}
	errs = validateText(errs, i.Text)
	if i.Score != nil && (*i.Score < 0 || *i.Score > 1) {
		errs = append(errs, domain.FieldError{Field: "score", Message: "must be between 0 and 1"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// EditInput holds the parameters for editing an insight. Nil fields stay
// unchanged.
type EditInput struct {
	ID       uuid.UUID
	Text     *string
	Category *string
}

// Validate checks all fields and collects all errors.
func (i EditInput) Validate() error {
	var errs []domain.FieldError

	if i.ID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "id", Message: "required"})
	}
	if i.Text == nil && i.Category == nil {
		errs = append(errs, domain.FieldError{Field: "text", Message: "nothing to update"})
	}
	if i.Text != nil {
		errs = validateText(errs, *i.Text)
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// ReviewInput holds the parameters for reviewing one insight.
type ReviewInput struct {
	ID       uuid.UUID
	Status   domain.InsightStatus
	Reviewer string
}

// Validate checks all fields and collects all errors.
func (i ReviewInput) Validate() error {
	var errs []domain.FieldError

	if i.ID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "id", Message: "required"})
	}
	errs = validateReviewStatus(errs, i.Status)

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// BulkReviewInput holds the parameters for reviewing many insights.
type BulkReviewInput struct {
	IDs      []uuid.UUID
	Status   domain.InsightStatus
	Reviewer string
}

// Validate checks all fields and collects all errors.
func (i BulkReviewInput) Validate() error {
	var errs []domain.FieldError

	if len(i.IDs) == 0 {
		errs = append(errs, domain.FieldError{Field: "ids", Message: "required"})
	}
	if len(i.IDs) > MaxBulkIDs {
		errs = append(errs, domain.FieldError{Field: "ids", Message: "max 200 ids"})
	}
	for _, id := range i.IDs {
		if id == uuid.Nil {
			errs = append(errs, domain.FieldError{Field: "ids", Message: "must not contain empty ids"})
			break
		}
	}
	errs = validateReviewStatus(errs, i.Status)

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// ListInput holds the parameters for listing insights. Empty strings mean
// "any".
type ListInput struct {
	SubjectID *uuid.UUID
	MessageID *uuid.UUID
	Status    string
	Source    string
	Category  string
	Limit     int
	Offset    int
}

// Validate checks all fields and collects all errors.
func (i ListInput) Validate() error {
	var errs []domain.FieldError

	if i.Status != "" && !domain.InsightStatus(i.Status).IsValid() {
		errs = append(errs, domain.FieldError{Field: "status", Message: "unknown status"})
	}
	if i.Source != "" && !domain.InsightSource(i.Source).IsValid() {
		errs = append(errs, domain.FieldError{Field: "source", Message: "unknown source"})
	}
	if i.Category != "" && !domain.InsightCategory(i.Category).IsValid() {
		errs = append(errs, domain.FieldError{Field: "category", Message: "unknown category"})
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

// BulkFailure is one id a bulk review could not apply.
type BulkFailure struct {
	ID  uuid.UUID
	Err error
}

// BulkResult reports a bulk review item by item.
type BulkResult struct {
	Updated []domain.Insight
	Failed  []BulkFailure
}

func validateText(errs []domain.FieldError, text string) []domain.FieldError {
	t := strings.TrimSpace(text)
	if t == "" {
		return append(errs, domain.FieldError{Field: "text", Message: "required"})
	}
	if len(t) > MaxTextLength {
		return append(errs, domain.FieldError{Field: "text", Message: "max 1000 characters"})
	}
	return errs
}

func validateReviewStatus(errs []domain.FieldError, s domain.InsightStatus) []domain.FieldError {
	if s != domain.InsightStatusAccepted && s != domain.InsightStatusRejected {
		return append(errs, domain.FieldError{Field: "status", Message: "must be accepted or rejected"})
	}
	return errs
}
