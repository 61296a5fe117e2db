package ingest

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/signalflow-backend/internal/domain"
)

const maxTextLength = 20000

// InboundEvent is one message received from a channel.
type InboundEvent struct {
	SubjectID     uuid.UUID
	Channel       domain.Channel
	ExternalID    string
	Text          *string
	AudioRef      *string
	Transcription *string
	Metadata      map[string]any
	ReceivedAt    time.Time
}

// Validate checks all fields and collects all errors. A blank ExternalID is
// only accepted on the manual channel, where one is synthesized.
func (e InboundEvent) Validate() error {
	var errs []domain.FieldError

	if e.SubjectID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "subject_id", Message: "required"})
	}
	if !e.Channel.IsValid() {
		errs = append(errs, domain.FieldError{Field: "channel", Message: "unknown channel"})
	}
	if strings.TrimSpace(e.ExternalID) == "" && e.Channel != domain.ChannelManual {
		errs = append(errs, domain.FieldError{Field: "external_id", Message: "required"})
	}
	if trimOrNil(e.Text) == nil && trimOrNil(e.AudioRef) == nil && trimOrNil(e.Transcription) == nil {
		errs = append(errs, domain.FieldError{Field: "text", Message: "text, audio_ref or transcription required"})
	}
	if e.Text != nil && len(*e.Text) > maxTextLength {
		errs = append(errs, domain.FieldError{Field: "text", Message: "max 20000 characters"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// IngestResult reports what happened to an inbound event. A duplicate is a
// result, not an error.
type IngestResult struct {
	MessageID      uuid.UUID
	ConversationID uuid.UUID
	Fingerprint    string
	Duplicate      bool
}

// OutboundInput is a coach message sent to a subject.
type OutboundInput struct {
	SubjectID uuid.UUID
	Channel   domain.Channel
	Text      string
	Metadata  map[string]any
}

// Validate checks all fields and collects all errors.
func (i OutboundInput) Validate() error {
	var errs []domain.FieldError

	if i.SubjectID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "subject_id", Message: "required"})
	}
	if !i.Channel.IsValid() {
		errs = append(errs, domain.FieldError{Field: "channel", Message: "unknown channel"})
	}
	text := strings.TrimSpace(i.Text)
	if text == "" {
		errs = append(errs, domain.FieldError{Field: "text", Message: "required"})
	}
	if len(text) > maxTextLength {
		errs = append(errs, domain.FieldError{Field: "text", Message: "max 20000 characters"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// trimOrNil trims whitespace. Returns nil if result is empty.
func trimOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
