package testhelper

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/signalflow-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedSubject creates a subject with a unique name.
func SeedSubject(t *testing.T, pool *pgxpool.Pool) domain.Subject {
	t.Helper()

	sport := "triathlon"
	s := domain.Subject{
		ID:        uuid.New(),
		Name:      "Athlete " + uniqueSuffix(),
		Sport:     &sport,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO subjects (id, name, sport, created_at) VALUES ($1, $2, $3, $4)`,
		s.ID, s.Name, s.Sport, s.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedSubject: %v", err)
	}
	return s
}

// SeedConversation creates a conversation for subjectID last touched at updatedAt.
func SeedConversation(t *testing.T, pool *pgxpool.Pool, subjectID uuid.UUID, updatedAt time.Time) domain.Conversation {
	t.Helper()

	c := domain.Conversation{
		ID:        uuid.New(),
		SubjectID: subjectID,
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
	}
	_, err := pool.Exec(context.Background(),
		`INSERT INTO conversations (id, subject_id, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		c.ID, c.SubjectID, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedConversation: %v", err)
	}
	return c
}

// SeedMessage stores an inbound message with text in a fresh conversation.
// createdAt controls recency for signal queries.
func SeedMessage(t *testing.T, pool *pgxpool.Pool, subjectID uuid.UUID, direction domain.Direction, text string, createdAt time.Time) domain.Message {
	t.Helper()

	conv := SeedConversation(t, pool, subjectID, createdAt)
	m := domain.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SubjectID:      subjectID,
		Channel:        domain.ChannelWhatsApp,
		ExternalID:     "ext-" + uniqueSuffix(),
		Direction:      direction,
		Text:           &text,
		Fingerprint:    "fp-" + uuid.New().String(),
		Metadata:       map[string]any{},
		CreatedAt:      createdAt.UTC().Truncate(time.Microsecond),
	}
	meta, _ := json.Marshal(m.Metadata)

	_, err := pool.Exec(context.Background(),
		`INSERT INTO messages (id, conversation_id, subject_id, channel, external_id, direction, text, fingerprint, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.ID, m.ConversationID, m.SubjectID, string(m.Channel), m.ExternalID, string(m.Direction),
		m.Text, m.Fingerprint, meta, m.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedMessage: %v", err)
	}
	return m
}

// SeedInsight stores an insight with the given status and creation time.
func SeedInsight(t *testing.T, pool *pgxpool.Pool, subjectID uuid.UUID, text string, status domain.InsightStatus, createdAt time.Time) domain.Insight {
	t.Helper()

	in := domain.Insight{
		ID:        uuid.New(),
		SubjectID: subjectID,
		Text:      text,
		Category:  domain.InsightCategoryOther,
		Source:    domain.InsightSourceAI,
		Status:    status,
		CreatedAt: createdAt.UTC().Truncate(time.Microsecond),
		UpdatedAt: createdAt.UTC().Truncate(time.Microsecond),
	}
	_, err := pool.Exec(context.Background(),
		`INSERT INTO insights (id, subject_id, text, category, source, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		in.ID, in.SubjectID, in.Text, string(in.Category), string(in.Source), string(in.Status), in.CreatedAt, in.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedInsight: %v", err)
	}
	return in
}

// SeedAction stores an action for subjectID with the given status and due time.
func SeedAction(t *testing.T, pool *pgxpool.Pool, subjectID uuid.UUID, status domain.ActionStatus, dueAt *time.Time) domain.Action {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	a := domain.Action{
		ID:        uuid.New(),
		SubjectID: &subjectID,
		Title:     "Follow up " + uniqueSuffix(),
		Status:    status,
		Priority:  domain.ActionPriorityMedium,
		DueAt:     dueAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := pool.Exec(context.Background(),
		`INSERT INTO actions (id, subject_id, title, details, status, priority, due_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.SubjectID, a.Title, a.Details, string(a.Status), string(a.Priority), a.DueAt, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedAction: %v", err)
	}
	return a
}
