package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by services and stores.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrConflict      = errors.New("conflict")

	// ErrInvalidTransition rejects an insight review or action status change
	// that the current status does not allow. It is a conflict.
	ErrInvalidTransition = fmt.Errorf("invalid status transition: %w", ErrConflict)
)

// ErrTranscription is the parent of every transcription failure. Ingestion
// stores the message without a body when it sees one.
var (
	ErrTranscription = errors.New("transcription failed")

	ErrTranscriptionUnavailable = fmt.Errorf("service unavailable: %w", ErrTranscription)
	ErrAudioNotFound            = fmt.Errorf("audio not found: %w", ErrTranscription)
	ErrAudioTooLarge            = fmt.Errorf("audio too large: %w", ErrTranscription)
	ErrUnsupportedAudio         = fmt.Errorf("unsupported audio format: %w", ErrTranscription)
)

// FieldError is one rejected input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects every rejected field of one input.
type ValidationError struct {
	Errors []FieldError
}

// Error lists every field so CLI output shows the whole problem at once.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError rejects a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}
