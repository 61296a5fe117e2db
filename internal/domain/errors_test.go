package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_SingleField(t *testing.T) {
	t.Parallel()

	err := NewValidationError("subject_id", "required")

	if got := err.Error(); got != "validation: subject_id: required" {
		t.Fatalf("unexpected Error(): %q", got)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatal("errors.Is(err, ErrValidation) = false")
	}
}

func TestValidationError_MultipleFields(t *testing.T) {
	t.Parallel()

	err := &ValidationError{Errors: []FieldError{
		{Field: "external_id", Message: "required"},
		{Field: "text", Message: "text, audio_ref or transcription required"},
	}}

	want := "validation: external_id: required; text: text, audio_ref or transcription required"
	if got := err.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatal("errors.Is(err, ErrValidation) = false")
	}
}

func TestValidationError_Wrapped(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("ingest: %w", NewValidationError("channel", "unknown"))
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatal("errors.As should find *ValidationError")
	}
	if ve.Errors[0].Field != "channel" {
		t.Fatalf("unexpected field %q", ve.Errors[0].Field)
	}
}

func TestInvalidTransition_IsConflict(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("insight 42: %w", ErrInvalidTransition)
	if !errors.Is(err, ErrConflict) {
		t.Fatal("ErrInvalidTransition should wrap ErrConflict")
	}
	if errors.Is(ErrConflict, ErrInvalidTransition) {
		t.Fatal("ErrConflict must not match ErrInvalidTransition")
	}
}

func TestTranscriptionErrors_ShareParent(t *testing.T) {
	t.Parallel()

	for _, err := range []error{ErrTranscriptionUnavailable, ErrAudioNotFound, ErrAudioTooLarge, ErrUnsupportedAudio} {
		wrapped := fmt.Errorf("%w: clip.ogg", err)
		if !errors.Is(wrapped, ErrTranscription) {
			t.Errorf("%v should wrap ErrTranscription", err)
		}
		if errors.Is(wrapped, ErrValidation) {
			t.Errorf("%v must not be a validation error", err)
		}
	}
	if errors.Is(ErrAudioNotFound, ErrAudioTooLarge) {
		t.Fatal("transcription sentinels should be distinct")
	}
}

func TestSentinelErrors_AreDistinct(t *testing.T) {
	t.Parallel()

	sentinels := []error{ErrNotFound, ErrAlreadyExists, ErrValidation, ErrConflict}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel errors %d and %d should not match", i, j)
			}
		}
	}
}
