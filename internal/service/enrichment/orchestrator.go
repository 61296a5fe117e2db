// Package enrichment orchestrates AI-assisted processing of a stored
// message: insight extraction, reply suggestion and action detection.
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/signalflow-backend/internal/config"
	"github.com/heartmarshall/signalflow-backend/internal/domain"
	"github.com/heartmarshall/signalflow-backend/internal/observability"
	"github.com/heartmarshall/signalflow-backend/internal/textgen"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces
// ---------------------------------------------------------------------------

type messageRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	Recent(ctx context.Context, subjectID uuid.UUID, limit int) ([]domain.Message, error)
}

type subjectRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Subject, error)
}

type insightRepo interface {
	List(ctx context.Context, f domain.InsightFilter) ([]domain.Insight, error)
	CreateBatch(ctx context.Context, items []domain.Insight) error
	DeleteSuggestedByMessage(ctx context.Context, messageID uuid.UUID) (int, error)
}

type actionRepo interface {
	Create(ctx context.Context, a *domain.Action) (*domain.Action, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Input / result
// ---------------------------------------------------------------------------

// Kind names one enrichment action.
type Kind string

const (
	KindInsights Kind = "insights"
	KindReply    Kind = "reply"
	KindAction   Kind = "action"
)

// Actions selects what Process should run.
type Actions struct {
	ExtractInsights bool
	SuggestReply    bool
	DetectAction    bool
}

// Any reports whether at least one action is requested.
func (a Actions) Any() bool {
	return a.ExtractInsights || a.SuggestReply || a.DetectAction
}

// ProcessInput identifies the message to enrich.
type ProcessInput struct {
	MessageID uuid.UUID
	SubjectID uuid.UUID
	Actions   Actions
}

// Validate checks all fields and collects all errors.
func (i ProcessInput) Validate() error {
	var errs []domain.FieldError
	if i.MessageID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "message_id", Message: "required"})
	}
	if i.SubjectID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "subject_id", Message: "required"})
	}
	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// ProcessResult holds what each requested action produced. A failed action
// is absent from the result and listed in Failures.
type ProcessResult struct {
	// Disabled is set when automatic generation is switched off.
	Disabled bool
	Insights []domain.Insight
	Reply    *string
	// Action is the follow-up detected in the message, if any.
	Action   *domain.Action
	Failures map[Kind]error
	Partial  bool
}

// Orchestrator runs enrichment actions against a text generator.
type Orchestrator struct {
	gen      textgen.Generator
	messages messageRepo
	subjects subjectRepo
	insights insightRepo
	actions  actionRepo
	tx       txManager
	cfg      config.EnrichmentConfig
	log      *slog.Logger
	now      func() time.Time
}

// NewOrchestrator creates a new orchestrator. cfg.AutoGenerate is the kill
// switch for Process.
func NewOrchestrator(
	log *slog.Logger,
	gen textgen.Generator,
	messages messageRepo,
	subjects subjectRepo,
	insights insightRepo,
	actions actionRepo,
	tx txManager,
	cfg config.EnrichmentConfig,
) *Orchestrator {
	if gen == nil {
		gen = textgen.Disabled
	}
	return &Orchestrator{
		gen:      gen,
		messages: messages,
		subjects: subjects,
		insights: insights,
		actions:  actions,
		tx:       tx,
		cfg:      cfg,
		log:      log.With("service", "enrichment"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Process runs the requested actions for a stored message concurrently,
// each under its own timeout. A failing action never fails the call or
// delays the others; only invalid input or an unreadable message does.
func (o *Orchestrator) Process(ctx context.Context, in ProcessInput) (ProcessResult, error) {
	if !o.cfg.AutoGenerate {
		return ProcessResult{Disabled: true}, nil
	}
	if err := in.Validate(); err != nil {
		return ProcessResult{}, err
	}
	if !in.Actions.Any() {
		return ProcessResult{}, nil
	}

	pc, err := o.loadContext(ctx, in.MessageID)
	if err != nil {
		return ProcessResult{}, err
	}
	if pc.message.SubjectID != in.SubjectID {
		return ProcessResult{}, domain.NewValidationError("subject_id", "does not match the message")
	}

	var (
		res ProcessResult
		mu  sync.Mutex
		g   errgroup.Group
	)

	run := func(kind Kind, fn func(ctx context.Context) error) {
		g.Go(func() error {
			actx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
			defer cancel()

			start := time.Now()
			err := fn(actx)
			observability.EnrichmentObserved(string(kind), err != nil, time.Since(start))
			if err == nil {
				return nil
			}

			o.log.WarnContext(ctx, "enrichment action failed",
				slog.String("action", string(kind)),
				slog.String("message_id", in.MessageID.String()),
				slog.String("error", err.Error()),
			)
			mu.Lock()
			defer mu.Unlock()
			if res.Failures == nil {
				res.Failures = map[Kind]error{}
			}
			res.Failures[kind] = err
			return nil
		})
	}

	if in.Actions.ExtractInsights {
		run(KindInsights, func(ctx context.Context) error {
			items, err := o.extractInsights(ctx, pc)
			if err != nil {
				return err
			}
			if err := o.insights.CreateBatch(ctx, items); err != nil {
				return fmt.Errorf("store insights: %w", err)
			}
			mu.Lock()
			res.Insights = items
			mu.Unlock()
			return nil
		})
	}
	if in.Actions.SuggestReply {
		run(KindReply, func(ctx context.Context) error {
			reply, err := o.suggestReply(ctx, pc)
			if err != nil {
				return err
			}
			mu.Lock()
			res.Reply = &reply
			mu.Unlock()
			return nil
		})
	}
	if in.Actions.DetectAction {
		run(KindAction, func(ctx context.Context) error {
			a, err := o.detectAction(ctx, pc)
			if err != nil {
				return err
			}
			mu.Lock()
			res.Action = a
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	res.Partial = len(res.Failures) > 0

	o.log.InfoContext(ctx, "message enriched",
		slog.String("message_id", in.MessageID.String()),
		slog.Int("insights", len(res.Insights)),
		slog.Bool("reply", res.Reply != nil),
		slog.Bool("action", res.Action != nil),
		slog.Int("failures", len(res.Failures)),
	)
	return res, nil
}

// processContext is everything the actions read about a message.
type processContext struct {
	message *domain.Message
	subject *domain.Subject
	history []domain.Message
}

func (o *Orchestrator) loadContext(ctx context.Context, messageID uuid.UUID) (processContext, error) {
	msg, err := o.messages.GetByID(ctx, messageID)
	if err != nil {
		return processContext{}, fmt.Errorf("get message: %w", err)
	}

	history, err := o.messages.Recent(ctx, msg.SubjectID, o.cfg.ContextMessages)
	if err != nil {
		return processContext{}, fmt.Errorf("recent messages: %w", err)
	}

	subject, err := o.subjects.GetByID(ctx, msg.SubjectID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return processContext{}, fmt.Errorf("get subject: %w", err)
		}
		subject = nil
	}

	return processContext{message: msg, subject: subject, history: history}, nil
}
