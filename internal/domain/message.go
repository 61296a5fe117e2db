package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation groups the messages exchanged with one subject.
type Conversation struct {
	ID        uuid.UUID
	SubjectID uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is an immutable inbound or outbound message.
type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	SubjectID      uuid.UUID
	Channel        Channel
	ExternalID     string
	Direction      Direction
	Text           *string
	AudioRef       *string
	Transcription  *string
	Fingerprint    string
	Metadata       map[string]any
	CreatedAt      time.Time
}

// Body returns the message text, falling back to the transcription.
// Returns "" when neither is present.
func (m *Message) Body() string {
	if m.Text != nil && *m.Text != "" {
		return *m.Text
	}
	if m.Transcription != nil {
		return *m.Transcription
	}
	return ""
}
