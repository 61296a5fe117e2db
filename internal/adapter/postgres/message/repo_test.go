package message_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/signalflow-backend/internal/adapter/postgres"
	"github.com/heartmarshall/signalflow-backend/internal/adapter/postgres/message"
	"github.com/heartmarshall/signalflow-backend/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/signalflow-backend/internal/domain"
)

func newRepo(t *testing.T) (*message.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return message.New(pool), pool
}

func buildMessage(subjectID, conversationID uuid.UUID, fp string) *domain.Message {
	text := "hola coach"
	return &domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SubjectID:      subjectID,
		Channel:        domain.ChannelTelegram,
		ExternalID:     "ext-" + uuid.NewString()[:8],
		Direction:      domain.DirectionIn,
		Text:           &text,
		Fingerprint:    fp,
		Metadata:       map[string]any{"provider": "test"},
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
}

// ---------------------------------------------------------------------------
// Conversations
// ---------------------------------------------------------------------------

func TestRepo_CurrentConversation_NotFound(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	subject := testhelper.SeedSubject(t, pool)

	_, err := repo.CurrentConversation(context.Background(), subject.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepo_CurrentConversation_MostRecentlyUpdated(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()
	subject := testhelper.SeedSubject(t, pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	testhelper.SeedConversation(t, pool, subject.ID, now.Add(-2*time.Hour))
	newest := testhelper.SeedConversation(t, pool, subject.ID, now.Add(-time.Minute))
	testhelper.SeedConversation(t, pool, subject.ID, now.Add(-time.Hour))

	got, err := repo.CurrentConversation(ctx, subject.ID)
	require.NoError(t, err)
	assert.Equal(t, newest.ID, got.ID)
}

func TestRepo_TouchConversation(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()
	subject := testhelper.SeedSubject(t, pool)

	old := time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)
	conv := testhelper.SeedConversation(t, pool, subject.ID, old)

	later := old.Add(30 * time.Minute)
	require.NoError(t, repo.TouchConversation(ctx, conv.ID, later))

	got, err := repo.CurrentConversation(ctx, subject.ID)
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.Equal(later), "updated_at = %v, want %v", got.UpdatedAt, later)

	err = repo.TouchConversation(ctx, uuid.New(), later)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---------------------------------------------------------------------------
// Insert / dedup
// ---------------------------------------------------------------------------

func TestRepo_Insert_DuplicateFingerprintIsNoop(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()
	subject := testhelper.SeedSubject(t, pool)
	conv := testhelper.SeedConversation(t, pool, subject.ID, time.Now().UTC())
	fp := "fp-" + uuid.NewString()

	inserted, err := repo.Insert(ctx, buildMessage(subject.ID, conv.ID, fp))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.Insert(ctx, buildMessage(subject.ID, conv.ID, fp))
	require.NoError(t, err)
	assert.False(t, inserted, "second insert with same fingerprint must be a no-op")

	exists, err := repo.ExistsByFingerprint(ctx, fp)
	require.NoError(t, err)
	assert.True(t, exists)

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM messages WHERE fingerprint = $1`, fp).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestRepo_Insert_ConcurrentSameFingerprint(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()
	subject := testhelper.SeedSubject(t, pool)
	conv := testhelper.SeedConversation(t, pool, subject.ID, time.Now().UTC())
	fp := "fp-" + uuid.NewString()

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.Insert(ctx, buildMessage(subject.ID, conv.ID, fp))
			if err != nil {
				t.Errorf("Insert: %v", err)
				return
			}
			if ok {
				mu.Lock()
				inserted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, inserted)
}

func TestRepo_Insert_RollsBackWithTx(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	subject := testhelper.SeedSubject(t, pool)
	tm := postgres.NewTxManager(pool)
	fp := "fp-" + uuid.NewString()
	sentinel := errors.New("fail after insert")

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		conv := &domain.Conversation{ID: uuid.New(), SubjectID: subject.ID, CreatedAt: time.Now().UTC()}
		if err := repo.CreateConversation(ctx, conv); err != nil {
			return err
		}
		if _, err := repo.Insert(ctx, buildMessage(subject.ID, conv.ID, fp)); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	exists, err := repo.ExistsByFingerprint(context.Background(), fp)
	require.NoError(t, err)
	assert.False(t, exists)

	convs, err := repo.ListConversations(context.Background(), subject.ID)
	require.NoError(t, err)
	assert.Empty(t, convs)
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func TestRepo_GetByID(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()
	subject := testhelper.SeedSubject(t, pool)
	conv := testhelper.SeedConversation(t, pool, subject.ID, time.Now().UTC())
	m := buildMessage(subject.ID, conv.ID, "fp-"+uuid.NewString())

	_, err := repo.Insert(ctx, m)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.Fingerprint, got.Fingerprint)
	assert.Equal(t, domain.ChannelTelegram, got.Channel)
	assert.Equal(t, "hola coach", got.Body())
	assert.Equal(t, "test", got.Metadata["provider"])

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepo_RecentAndInbound(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()
	subject := testhelper.SeedSubject(t, pool)

	now := time.Now().UTC()
	first := testhelper.SeedMessage(t, pool, subject.ID, domain.DirectionIn, "first", now.Add(-10*24*time.Hour))
	testhelper.SeedMessage(t, pool, subject.ID, domain.DirectionOut, "reply", now.Add(-9*24*time.Hour))
	last := testhelper.SeedMessage(t, pool, subject.ID, domain.DirectionIn, "last", now.Add(-2*24*time.Hour))

	recent, err := repo.Recent(ctx, subject.ID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, first.ID, recent[0].ID, "Recent must be chronological")
	assert.Equal(t, last.ID, recent[2].ID)

	at, err := repo.LastInboundAt(ctx, subject.ID)
	require.NoError(t, err)
	require.NotNil(t, at)
	assert.True(t, at.Equal(last.CreatedAt))

	inbound, err := repo.RecentInbound(ctx, subject.ID, 1)
	require.NoError(t, err)
	require.Len(t, inbound, 1)
	assert.Equal(t, last.ID, inbound[0].ID)

	since, err := repo.InboundSince(ctx, subject.ID, now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, since, 1)
	assert.Equal(t, "last", since[0].Body())
}

func TestRepo_LastInboundAt_NeverWrote(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	subject := testhelper.SeedSubject(t, pool)

	at, err := repo.LastInboundAt(context.Background(), subject.ID)
	require.NoError(t, err)
	assert.Nil(t, at)
}
