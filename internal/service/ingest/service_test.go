package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/signalflow-backend/internal/domain"
)

// ===========================================================================
// Fakes
// ===========================================================================

// memMessages is an in-memory messageRepo whose Insert honours the unique
// fingerprint constraint.
type memMessages struct {
	mu            sync.Mutex
	conversations []domain.Conversation
	messages      []domain.Message
	byFingerprint map[string]bool

	InsertErr error
}

func newMemMessages() *memMessages {
	return &memMessages{byFingerprint: map[string]bool{}}
}

func (m *memMessages) CurrentConversation(_ context.Context, subjectID uuid.UUID) (*domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *domain.Conversation
	for i := range m.conversations {
		c := &m.conversations[i]
		if c.SubjectID == subjectID && (best == nil || c.UpdatedAt.After(best.UpdatedAt)) {
			best = c
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (m *memMessages) CreateConversation(_ context.Context, c *domain.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversations = append(m.conversations, *c)
	return nil
}

func (m *memMessages) TouchConversation(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.conversations {
		if m.conversations[i].ID == id {
			if at.After(m.conversations[i].UpdatedAt) {
				m.conversations[i].UpdatedAt = at
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memMessages) ListConversations(_ context.Context, subjectID uuid.UUID) ([]domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Conversation
	for _, c := range m.conversations {
		if c.SubjectID == subjectID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memMessages) Insert(_ context.Context, msg *domain.Message) (bool, error) {
	if m.InsertErr != nil {
		return false, m.InsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byFingerprint[msg.Fingerprint] {
		return false, nil
	}
	m.byFingerprint[msg.Fingerprint] = true
	m.messages = append(m.messages, *msg)
	return true, nil
}

func (m *memMessages) ExistsByFingerprint(_ context.Context, fp string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byFingerprint[fp], nil
}

func (m *memMessages) ListByConversation(_ context.Context, convID uuid.UUID, limit int) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Message
	for _, msg := range m.messages {
		if msg.ConversationID == convID && len(out) < limit {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memMessages) Recent(_ context.Context, subjectID uuid.UUID, limit int) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Message
	for _, msg := range m.messages {
		if msg.SubjectID == subjectID && len(out) < limit {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memMessages) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

type mockSubjectRepo struct {
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Subject, error)
}

func (m *mockSubjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subject, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return &domain.Subject{ID: id, Name: "Ana"}, nil
}

type mockTxManager struct {
	RunInTxFunc func(ctx context.Context, fn func(context.Context) error) error
}

func (m *mockTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.RunInTxFunc != nil {
		return m.RunInTxFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockSeenCache struct {
	SeenFunc func(ctx context.Context, fp string) (bool, error)
	marked   []string
}

func (m *mockSeenCache) Seen(ctx context.Context, fp string) (bool, error) {
	if m.SeenFunc != nil {
		return m.SeenFunc(ctx, fp)
	}
	return false, nil
}

func (m *mockSeenCache) Mark(_ context.Context, fp string) error {
	m.marked = append(m.marked, fp)
	return nil
}

type mockTranscriber struct {
	TranscribeFunc func(ctx context.Context, audioRef string) (string, error)
}

func (m *mockTranscriber) Transcribe(ctx context.Context, audioRef string) (string, error) {
	return m.TranscribeFunc(ctx, audioRef)
}

type deliverFunc func(ctx context.Context, subject *domain.Subject, text string) error

func (f deliverFunc) Deliver(ctx context.Context, subject *domain.Subject, text string) error {
	return f(ctx, subject, text)
}

// ===========================================================================
// Helpers
// ===========================================================================

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(msgs *memMessages, seen SeenCache, tr Transcriber) *Service {
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), msgs, &mockSubjectRepo{}, &mockTxManager{}, seen, tr)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func ptr[T any](v T) *T { return &v }

func textEvent(subjectID uuid.UUID, externalID, text string) InboundEvent {
	return InboundEvent{
		SubjectID:  subjectID,
		Channel:    domain.ChannelWhatsApp,
		ExternalID: externalID,
		Text:       ptr(text),
		ReceivedAt: fixedNow,
	}
}

// ===========================================================================
// Fingerprint
// ===========================================================================

func TestFingerprint_Deterministic(t *testing.T) {
	t.Parallel()

	subjectID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	a := Fingerprint(domain.ChannelWhatsApp, "wamid.1", subjectID)
	b := Fingerprint(domain.ChannelWhatsApp, "wamid.1", subjectID)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, Fingerprint(domain.ChannelTelegram, "wamid.1", subjectID))
	assert.NotEqual(t, a, Fingerprint(domain.ChannelWhatsApp, "wamid.2", subjectID))
	assert.NotEqual(t, a, Fingerprint(domain.ChannelWhatsApp, "wamid.1", uuid.New()))
}

func TestSynthesizeExternalID(t *testing.T) {
	t.Parallel()

	now := time.Unix(0, 1700000000123456789)
	assert.Equal(t, "manual_1700000000123456789", SynthesizeExternalID(domain.ChannelManual, now))
	assert.Equal(t, "outgoing_1700000000123456789", outgoingExternalID(now))
}

// ===========================================================================
// Ingest
// ===========================================================================

func TestIngest_StoresAndCreatesConversation(t *testing.T) {
	t.Parallel()

	msgs := newMemMessages()
	svc := newTestService(msgs, nil, nil)
	subjectID := uuid.New()

	res, err := svc.Ingest(context.Background(), textEvent(subjectID, "e1", " hola coach "))
	require.NoError(t, err)

	assert.False(t, res.Duplicate)
	assert.NotEqual(t, uuid.Nil, res.MessageID)
	assert.Equal(t, Fingerprint(domain.ChannelWhatsApp, "e1", subjectID), res.Fingerprint)
	require.Len(t, msgs.conversations, 1)
	assert.Equal(t, msgs.conversations[0].ID, res.ConversationID)
	require.Equal(t, 1, msgs.count())
	assert.Equal(t, "hola coach", *msgs.messages[0].Text)
	assert.Equal(t, domain.DirectionIn, msgs.messages[0].Direction)
}

func TestIngest_ReplayIsIdempotent(t *testing.T) {
	t.Parallel()

	msgs := newMemMessages()
	svc := newTestService(msgs, nil, nil)
	ev := textEvent(uuid.New(), "e1", "hola")

	first, err := svc.Ingest(context.Background(), ev)
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	for range 5 {
		res, err := svc.Ingest(context.Background(), ev)
		require.NoError(t, err)
		assert.True(t, res.Duplicate)
		assert.Equal(t, first.Fingerprint, res.Fingerprint)
	}

	assert.Equal(t, 1, msgs.count())
	assert.Len(t, msgs.conversations, 1)
}

func TestIngest_ConcurrentReplayStoresOnce(t *testing.T) {
	t.Parallel()

	msgs := newMemMessages()
	svc := newTestService(msgs, nil, nil)
	ev := textEvent(uuid.New(), "e1", "hola")

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		stored     int
		duplicates int
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Ingest(context.Background(), ev)
			assert.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			if res.Duplicate {
				duplicates++
			} else {
				stored++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, stored)
	assert.Equal(t, 9, duplicates)
	assert.Equal(t, 1, msgs.count())
}

func TestIngest_DistinctEventsReuseConversation(t *testing.T) {
	t.Parallel()

	msgs := newMemMessages()
	svc := newTestService(msgs, nil, nil)
	subjectID := uuid.New()

	a, err := svc.Ingest(context.Background(), textEvent(subjectID, "e1", "uno"))
	require.NoError(t, err)
	b, err := svc.Ingest(context.Background(), textEvent(subjectID, "e2", "dos"))
	require.NoError(t, err)

	assert.False(t, b.Duplicate)
	assert.Equal(t, a.ConversationID, b.ConversationID)
	assert.Equal(t, 2, msgs.count())
}

func TestIngest_SeenCacheShortCircuits(t *testing.T) {
	t.Parallel()

	msgs := newMemMessages()
	cache := &mockSeenCache{SeenFunc: func(context.Context, string) (bool, error) { return true, nil }}
	svc := newTestService(msgs, cache, nil)

	res, err := svc.Ingest(context.Background(), textEvent(uuid.New(), "e1", "hola"))
	require.NoError(t, err)

	assert.True(t, res.Duplicate)
	assert.Equal(t, 0, msgs.count())
}

func TestIngest_SeenCacheErrorFallsThrough(t *testing.T) {
	t.Parallel()

	msgs := newMemMessages()
	cache := &mockSeenCache{SeenFunc: func(context.Context, string) (bool, error) {
		return false, errors.New("redis down")
	}}
	svc := newTestService(msgs, cache, nil)

	res, err := svc.Ingest(context.Background(), textEvent(uuid.New(), "e1", "hola"))
	require.NoError(t, err)

	assert.False(t, res.Duplicate)
	assert.Equal(t, 1, msgs.count())
	assert.Equal(t, []string{res.Fingerprint}, cache.marked)
}

func TestIngest_ManualChannelSynthesizesExternalID(t *testing.T) {
	t.Parallel()

	msgs := newMemMessages()
	svc := newTestService(msgs, nil, nil)

	res, err := svc.Ingest(context.Background(), InboundEvent{
		SubjectID: uuid.New(),
		Channel:   domain.ChannelManual,
		Text:      ptr("nota del coach"),
	})
	require.NoError(t, err)
	require.False(t, res.Duplicate)

	assert.Equal(t, SynthesizeExternalID(domain.ChannelManual, fixedNow), msgs.messages[0].ExternalID)
	assert.Equal(t, fixedNow, msgs.messages[0].CreatedAt)
}

func TestIngest_TranscribesAudio(t *testing.T) {
	t.Parallel()

	msgs := newMemMessages()
	tr := &mockTranscriber{TranscribeFunc: func(_ context.Context, ref string) (string, error) {
		assert.Equal(t, "gs://bucket/a.ogg", ref)
		return "me duele la rodilla", nil
	}}
	svc := newTestService(msgs, nil, tr)

	_, err := svc.Ingest(context.Background(), InboundEvent{
		SubjectID:  uuid.New(),
		Channel:    domain.ChannelWhatsApp,
		ExternalID: "audio-1",
		AudioRef:   ptr("gs://bucket/a.ogg"),
	})
	require.NoError(t, err)

	require.NotNil(t, msgs.messages[0].Transcription)
	assert.Equal(t, "me duele la rodilla", msgs.messages[0].Body())
}

func TestIngest_AudioReplayTranscribesOnce(t *testing.T) {
	t.Parallel()

	msgs := newMemMessages()
	calls := 0
	tr := &mockTranscriber{TranscribeFunc: func(context.Context, string) (string, error) {
		calls++
		return "me duele la rodilla", nil
	}}
	svc := newTestService(msgs, nil, tr)
	ev := InboundEvent{
		SubjectID:  uuid.New(),
		Channel:    domain.ChannelWhatsApp,
		ExternalID: "audio-1",
		AudioRef:   ptr("gs://bucket/a.ogg"),
	}

	first, err := svc.Ingest(context.Background(), ev)
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	for range 3 {
		res, err := svc.Ingest(context.Background(), ev)
		require.NoError(t, err)
		assert.True(t, res.Duplicate)
		assert.Equal(t, first.Fingerprint, res.Fingerprint)
	}

	assert.Equal(t, 1, msgs.count())
	assert.Equal(t, 1, calls)
}

func TestIngest_TranscriptionFailureStoresNullBody(t *testing.T) {
	t.Parallel()

	msgs := newMemMessages()
	tr := &mockTranscriber{TranscribeFunc: func(context.Context, string) (string, error) {
		return "", domain.ErrTranscriptionUnavailable
	}}
	svc := newTestService(msgs, nil, tr)

	res, err := svc.Ingest(context.Background(), InboundEvent{
		SubjectID:  uuid.New(),
		Channel:    domain.ChannelWhatsApp,
		ExternalID: "audio-1",
		AudioRef:   ptr("/tmp/missing.ogg"),
	})
	require.NoError(t, err)
	assert.False(t, res.Duplicate)

	assert.Nil(t, msgs.messages[0].Text)
	assert.Nil(t, msgs.messages[0].Transcription)
	assert.Equal(t, "", msgs.messages[0].Body())
}

func TestIngest_PersistenceErrorReturned(t *testing.T) {
	t.Parallel()

	msgs := newMemMessages()
	msgs.InsertErr = errors.New("connection reset")
	svc := newTestService(msgs, nil, nil)

	_, err := svc.Ingest(context.Background(), textEvent(uuid.New(), "e1", "hola"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestIngest_Validation(t *testing.T) {
	t.Parallel()

	svc := newTestService(newMemMessages(), nil, nil)

	_, err := svc.Ingest(context.Background(), InboundEvent{Channel: "pigeon"})
	require.ErrorIs(t, err, domain.ErrValidation)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	fields := map[string]bool{}
	for _, fe := range ve.Errors {
		fields[fe.Field] = true
	}
	assert.True(t, fields["subject_id"])
	assert.True(t, fields["channel"])
	assert.True(t, fields["external_id"])
	assert.True(t, fields["text"])
}

// ===========================================================================
// IsDuplicate
// ===========================================================================

func TestIsDuplicate(t *testing.T) {
	t.Parallel()

	msgs := newMemMessages()
	svc := newTestService(msgs, nil, nil)
	res, err := svc.Ingest(context.Background(), textEvent(uuid.New(), "e1", "hola"))
	require.NoError(t, err)

	dup, err := svc.IsDuplicate(context.Background(), res.Fingerprint)
	require.NoError(t, err)
	assert.True(t, dup)

	dup, err = svc.IsDuplicate(context.Background(), "unknown")
	require.NoError(t, err)
	assert.False(t, dup)
}

// ===========================================================================
// Outbound
// ===========================================================================

func TestRecordOutbound(t *testing.T) {
	t.Parallel()

	msgs := newMemMessages()
	svc := newTestService(msgs, nil, nil)
	subjectID := uuid.New()

	msg, err := svc.RecordOutbound(context.Background(), OutboundInput{
		SubjectID: subjectID,
		Channel:   domain.ChannelWhatsApp,
		Text:      "¡Buen trabajo hoy!",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.DirectionOut, msg.Direction)
	assert.Equal(t, outgoingExternalID(fixedNow), msg.ExternalID)
	assert.Equal(t, 1, msgs.count())
}

func TestSendAndRecord_DeliveryFailureRecordsNothing(t *testing.T) {
	t.Parallel()

	msgs := newMemMessages()
	svc := newTestService(msgs, nil, nil)

	_, err := svc.SendAndRecord(context.Background(),
		deliverFunc(func(context.Context, *domain.Subject, string) error { return errors.New("gateway 502") }),
		OutboundInput{SubjectID: uuid.New(), Channel: domain.ChannelWhatsApp, Text: "hola"},
	)
	require.Error(t, err)
	assert.Equal(t, 0, msgs.count())
}

func TestSendAndRecord_Success(t *testing.T) {
	t.Parallel()

	msgs := newMemMessages()
	svc := newTestService(msgs, nil, nil)

	var delivered string
	msg, err := svc.SendAndRecord(context.Background(),
		deliverFunc(func(_ context.Context, s *domain.Subject, text string) error {
			delivered = s.Name + ": " + text
			return nil
		}),
		OutboundInput{SubjectID: uuid.New(), Channel: domain.ChannelWhatsApp, Text: " hola "},
	)
	require.NoError(t, err)

	assert.Equal(t, "Ana: hola", delivered)
	assert.Equal(t, "hola", *msg.Text)
}

// ===========================================================================
// Listing
// ===========================================================================

func TestListMessages_RequiresConversation(t *testing.T) {
	t.Parallel()

	svc := newTestService(newMemMessages(), nil, nil)
	_, err := svc.ListMessages(context.Background(), uuid.Nil, 10)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestClampLimit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultLimit, clampLimit(0))
	assert.Equal(t, 7, clampLimit(7))
	assert.Equal(t, MaxLimit, clampLimit(10000))
}
