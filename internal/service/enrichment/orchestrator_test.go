package enrichment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/heartmarshall/signalflow-backend/internal/config"
	"github.com/heartmarshall/signalflow-backend/internal/domain"
	"github.com/heartmarshall/signalflow-backend/internal/textgen"
)

// ===========================================================================
// Mocks
// ===========================================================================

type mockMessageRepo struct {
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	RecentFunc  func(ctx context.Context, subjectID uuid.UUID, limit int) ([]domain.Message, error)
}

func (m *mockMessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockMessageRepo) Recent(ctx context.Context, subjectID uuid.UUID, limit int) ([]domain.Message, error) {
	if m.RecentFunc != nil {
		return m.RecentFunc(ctx, subjectID, limit)
	}
	return nil, nil
}

type mockSubjectRepo struct {
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Subject, error)
}

func (m *mockSubjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subject, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

// memInsights records batches and serves List from them.
type memInsights struct {
	mu      sync.Mutex
	items   []domain.Insight
	deleted int

	CreateBatchErr error
}

func (m *memInsights) List(_ context.Context, f domain.InsightFilter) ([]domain.Insight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Insight
	for _, in := range m.items {
		if f.MessageID != nil && (in.MessageID == nil || *in.MessageID != *f.MessageID) {
			continue
		}
		if f.Source != nil && in.Source != *f.Source {
			continue
		}
		if len(f.Statuses) > 0 && in.Status != f.Statuses[0] {
			continue
		}
		out = append(out, in)
	}
	return out, nil
}

func (m *memInsights) CreateBatch(_ context.Context, items []domain.Insight) error {
	if m.CreateBatchErr != nil {
		return m.CreateBatchErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, items...)
	return nil
}

func (m *memInsights) DeleteSuggestedByMessage(_ context.Context, messageID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.items[:0]
	n := 0
	for _, in := range m.items {
		if in.MessageID != nil && *in.MessageID == messageID && in.Status == domain.InsightStatusSuggested {
			n++
			continue
		}
		kept = append(kept, in)
	}
	m.items = kept
	m.deleted += n
	return n, nil
}

func (m *memInsights) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

type mockActionRepo struct {
	CreateFunc func(ctx context.Context, a *domain.Action) (*domain.Action, error)
}

func (m *mockActionRepo) Create(ctx context.Context, a *domain.Action) (*domain.Action, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, a)
	}
	return a, nil
}

type mockTxManager struct{}

func (mockTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ===========================================================================
// Helpers
// ===========================================================================

var (
	testNow   = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	subjectID = uuid.New()
	messageID = uuid.New()
)

const (
	insightsJSON = `Here you go: [
		{"text": "Knee hurts after long runs", "category": "INJURY", "score": 1.4},
		{"text": "   ", "category": "schedule"},
		{"text": "Asks about carb loading", "category": "food", "score": 0.6}
	]`
	actionJSON = `{"has_request": true, "title": "Send race week plan", "details": "10k on Sunday", "due_at": "2026-03-14"}`
)

func strPtr(s string) *string { return &s }

func testConfig() config.EnrichmentConfig {
	return config.EnrichmentConfig{
		AutoGenerate:    true,
		Timeout:         time.Second,
		ContextMessages: 10,
		MaxInsights:     5,
		ReplyWordBudget: 200,
		ReplyTone:       "warm",
	}
}

type fixture struct {
	orch     *Orchestrator
	insights *memInsights
	actions  *mockActionRepo
}

func newFixture(t *testing.T, gen textgen.Generator, cfg config.EnrichmentConfig) *fixture {
	t.Helper()

	msg := &domain.Message{
		ID:        messageID,
		SubjectID: subjectID,
		Direction: domain.DirectionIn,
		Text:      strPtr("My knee hurts after long runs. Can you send me the race week plan by Saturday?"),
		CreatedAt: testNow,
	}
	messages := &mockMessageRepo{
		GetByIDFunc: func(_ context.Context, id uuid.UUID) (*domain.Message, error) {
			if id != messageID {
				return nil, domain.ErrNotFound
			}
			return msg, nil
		},
		RecentFunc: func(context.Context, uuid.UUID, int) ([]domain.Message, error) {
			return []domain.Message{
				{Direction: domain.DirectionOut, Text: strPtr("How did the long run go?")},
				*msg,
			}, nil
		},
	}
	subjects := &mockSubjectRepo{
		GetByIDFunc: func(context.Context, uuid.UUID) (*domain.Subject, error) {
			return &domain.Subject{ID: subjectID, Name: "Ana", Sport: strPtr("running"), Level: strPtr("amateur")}, nil
		},
	}

	f := &fixture{insights: &memInsights{}, actions: &mockActionRepo{}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.orch = NewOrchestrator(log, gen, messages, subjects, f.insights, f.actions, mockTxManager{}, cfg)
	f.orch.now = func() time.Time { return testNow }
	return f
}

// scripted answers each request shape with a fixed response.
func scripted(list, text, object string) textgen.Generator {
	return textgen.GeneratorFunc(func(_ context.Context, req textgen.Request) (textgen.Response, error) {
		switch req.Shape {
		case textgen.ShapeJSONList:
			return textgen.Response{Text: list}, nil
		case textgen.ShapeJSONObject:
			return textgen.Response{Text: object}, nil
		default:
			return textgen.Response{Text: text}, nil
		}
	})
}

func allActions() Actions {
	return Actions{ExtractInsights: true, SuggestReply: true, DetectAction: true}
}

// ===========================================================================
// Process
// ===========================================================================

func TestProcess_AllActions(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t, scripted(insightsJSON, "  Rest the knee for two days.  ", actionJSON), testConfig())

	res, err := f.orch.Process(context.Background(), ProcessInput{
		MessageID: messageID, SubjectID: subjectID, Actions: allActions(),
	})
	require.NoError(t, err)
	assert.False(t, res.Partial)
	assert.Empty(t, res.Failures)

	require.Len(t, res.Insights, 2)
	assert.Equal(t, domain.InsightCategoryInjury, res.Insights[0].Category)
	assert.Equal(t, 1.0, *res.Insights[0].Score)
	assert.Equal(t, domain.InsightCategoryOther, res.Insights[1].Category)
	for _, in := range res.Insights {
		assert.Equal(t, domain.InsightSourceAI, in.Source)
		assert.Equal(t, domain.InsightStatusSuggested, in.Status)
		assert.Equal(t, messageID, *in.MessageID)
	}
	assert.Equal(t, 2, f.insights.count())

	require.NotNil(t, res.Reply)
	assert.Equal(t, "Rest the knee for two days.", *res.Reply)

	require.NotNil(t, res.Action)
	assert.Equal(t, "Send race week plan", res.Action.Title)
	assert.Equal(t, domain.ActionStatusOpen, res.Action.Status)
	assert.Equal(t, messageID, *res.Action.MessageID)
	require.NotNil(t, res.Action.DueAt)
	assert.Equal(t, "2026-03-14", res.Action.DueAt.Format(time.DateOnly))
}

func TestProcess_ReplyFailureDoesNotAffectInsights(t *testing.T) {
	defer goleak.VerifyNone(t)

	boom := errors.New("provider down")
	gen := textgen.GeneratorFunc(func(_ context.Context, req textgen.Request) (textgen.Response, error) {
		if req.Shape == textgen.ShapeText {
			return textgen.Response{}, boom
		}
		return textgen.Response{Text: insightsJSON}, nil
	})
	f := newFixture(t, gen, testConfig())

	res, err := f.orch.Process(context.Background(), ProcessInput{
		MessageID: messageID, SubjectID: subjectID,
		Actions: Actions{ExtractInsights: true, SuggestReply: true},
	})
	require.NoError(t, err)
	assert.True(t, res.Partial)
	assert.Nil(t, res.Reply)
	require.Contains(t, res.Failures, KindReply)
	assert.ErrorIs(t, res.Failures[KindReply], boom)
	assert.Len(t, res.Insights, 2)
	assert.Equal(t, 2, f.insights.count())
}

func TestProcess_SlowActionTimesOutAlone(t *testing.T) {
	defer goleak.VerifyNone(t)

	gen := textgen.GeneratorFunc(func(ctx context.Context, req textgen.Request) (textgen.Response, error) {
		if req.Shape == textgen.ShapeText {
			<-ctx.Done()
			return textgen.Response{}, ctx.Err()
		}
		return textgen.Response{Text: insightsJSON}, nil
	})
	cfg := testConfig()
	cfg.Timeout = 50 * time.Millisecond
	f := newFixture(t, gen, cfg)

	start := time.Now()
	res, err := f.orch.Process(context.Background(), ProcessInput{
		MessageID: messageID, SubjectID: subjectID,
		Actions: Actions{ExtractInsights: true, SuggestReply: true},
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.ErrorIs(t, res.Failures[KindReply], context.DeadlineExceeded)
	assert.Len(t, res.Insights, 2)
}

func TestProcess_Disabled(t *testing.T) {
	called := false
	gen := textgen.GeneratorFunc(func(context.Context, textgen.Request) (textgen.Response, error) {
		called = true
		return textgen.Response{}, nil
	})
	cfg := testConfig()
	cfg.AutoGenerate = false
	f := newFixture(t, gen, cfg)

	res, err := f.orch.Process(context.Background(), ProcessInput{
		MessageID: messageID, SubjectID: subjectID, Actions: allActions(),
	})
	require.NoError(t, err)
	assert.True(t, res.Disabled)
	assert.False(t, called)
	assert.Zero(t, f.insights.count())
}

func TestProcess_MalformedInsights(t *testing.T) {
	f := newFixture(t, scripted("sorry, I cannot help", "", ""), testConfig())

	res, err := f.orch.Process(context.Background(), ProcessInput{
		MessageID: messageID, SubjectID: subjectID,
		Actions: Actions{ExtractInsights: true},
	})
	require.NoError(t, err)
	assert.True(t, res.Partial)
	assert.ErrorIs(t, res.Failures[KindInsights], textgen.ErrMalformed)
	assert.Zero(t, f.insights.count())
}

func TestProcess_InsightsCappedAtMax(t *testing.T) {
	var b strings.Builder
	b.WriteString("[")
	for i := range 8 {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`{"text":"note","category":"admin","score":0.5}`)
	}
	b.WriteString("]")

	cfg := testConfig()
	cfg.MaxInsights = 3
	f := newFixture(t, scripted(b.String(), "", ""), cfg)

	res, err := f.orch.Process(context.Background(), ProcessInput{
		MessageID: messageID, SubjectID: subjectID,
		Actions: Actions{ExtractInsights: true},
	})
	require.NoError(t, err)
	assert.Len(t, res.Insights, 3)
}

func TestProcess_NoRequestDetected(t *testing.T) {
	created := false
	f := newFixture(t, scripted("", "", `{"has_request": false, "title": "", "details": "", "due_at": null}`), testConfig())
	f.actions.CreateFunc = func(_ context.Context, a *domain.Action) (*domain.Action, error) {
		created = true
		return a, nil
	}

	res, err := f.orch.Process(context.Background(), ProcessInput{
		MessageID: messageID, SubjectID: subjectID,
		Actions: Actions{DetectAction: true},
	})
	require.NoError(t, err)
	assert.Nil(t, res.Action)
	assert.False(t, res.Partial)
	assert.False(t, created)
}

func TestProcess_InvalidDueDateIgnored(t *testing.T) {
	f := newFixture(t, scripted("", "", `{"has_request": true, "title": "Call back", "due_at": "next week"}`), testConfig())

	res, err := f.orch.Process(context.Background(), ProcessInput{
		MessageID: messageID, SubjectID: subjectID,
		Actions: Actions{DetectAction: true},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Action)
	assert.Nil(t, res.Action.DueAt)
}

func TestProcess_Errors(t *testing.T) {
	f := newFixture(t, scripted("[]", "ok", "{}"), testConfig())
	ctx := context.Background()

	t.Run("validation", func(t *testing.T) {
		_, err := f.orch.Process(ctx, ProcessInput{Actions: allActions()})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
	t.Run("unknown message", func(t *testing.T) {
		_, err := f.orch.Process(ctx, ProcessInput{MessageID: uuid.New(), SubjectID: subjectID, Actions: allActions()})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
	t.Run("subject mismatch", func(t *testing.T) {
		_, err := f.orch.Process(ctx, ProcessInput{MessageID: messageID, SubjectID: uuid.New(), Actions: allActions()})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
	t.Run("nothing requested", func(t *testing.T) {
		res, err := f.orch.Process(ctx, ProcessInput{MessageID: messageID, SubjectID: subjectID})
		require.NoError(t, err)
		assert.Equal(t, ProcessResult{}, res)
	})
}

func TestProcess_PersistFailureIsReported(t *testing.T) {
	f := newFixture(t, scripted(insightsJSON, "", ""), testConfig())
	f.insights.CreateBatchErr = errors.New("db gone")

	res, err := f.orch.Process(context.Background(), ProcessInput{
		MessageID: messageID, SubjectID: subjectID,
		Actions: Actions{ExtractInsights: true},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Insights)
	assert.Contains(t, res.Failures, KindInsights)
}

// ===========================================================================
// RegenerateInsights
// ===========================================================================

func TestRegenerateInsights_ReturnsExistingWithoutOverwrite(t *testing.T) {
	calls := 0
	gen := textgen.GeneratorFunc(func(context.Context, textgen.Request) (textgen.Response, error) {
		calls++
		return textgen.Response{Text: insightsJSON}, nil
	})
	f := newFixture(t, gen, testConfig())
	ctx := context.Background()

	first, err := f.orch.RegenerateInsights(ctx, messageID, false)
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := f.orch.RegenerateInsights(ctx, messageID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.ElementsMatch(t, first, second)
}

func TestRegenerateInsights_Overwrite(t *testing.T) {
	f := newFixture(t, scripted(insightsJSON, "", ""), testConfig())
	ctx := context.Background()

	_, err := f.orch.RegenerateInsights(ctx, messageID, false)
	require.NoError(t, err)

	again, err := f.orch.RegenerateInsights(ctx, messageID, true)
	require.NoError(t, err)
	assert.Len(t, again, 2)
	assert.Equal(t, 2, f.insights.deleted)
	assert.Equal(t, 2, f.insights.count())
}

func TestRegenerateInsights_IgnoresKillSwitch(t *testing.T) {
	cfg := testConfig()
	cfg.AutoGenerate = false
	f := newFixture(t, scripted(insightsJSON, "", ""), cfg)

	items, err := f.orch.RegenerateInsights(context.Background(), messageID, false)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestRegenerateInsights_ProviderError(t *testing.T) {
	f := newFixture(t, nil, testConfig())

	_, err := f.orch.RegenerateInsights(context.Background(), messageID, true)
	assert.ErrorIs(t, err, textgen.ErrUnavailable)
	assert.Zero(t, f.insights.count())
}

// ===========================================================================
// Prompts
// ===========================================================================

func TestRenderHistory(t *testing.T) {
	got := renderHistory([]domain.Message{
		{Direction: domain.DirectionIn, Text: strPtr("Legs are heavy")},
		{Direction: domain.DirectionOut, Text: strPtr("Take it easy today")},
		{Direction: domain.DirectionIn},
		{Direction: domain.DirectionIn, Transcription: strPtr("voice note")},
	})
	assert.Equal(t, "athlete: Legs are heavy\ncoach: Take it easy today\nathlete: voice note\n", got)
}

func TestReplyRequest_NamesAthlete(t *testing.T) {
	pc := processContext{
		message: &domain.Message{Text: strPtr("hi")},
		subject: &domain.Subject{Name: "Ana", Sport: strPtr("running"), Level: strPtr("amateur")},
	}
	req := replyRequest(pc, "warm", 150)
	assert.Equal(t, "You are a professional sports coach responding to Ana, a amateur running athlete.", req.System)
	assert.Contains(t, req.Instructions, "under 150 words")
	assert.Equal(t, textgen.ShapeText, req.Shape)
	require.NoError(t, req.Validate())
}
