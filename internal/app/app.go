// Package app wires configuration, storage, providers and services into a
// single container used by the commands under cmd/.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/signalflow-backend/internal/adapter/postgres"
	actionrepo "github.com/heartmarshall/signalflow-backend/internal/adapter/postgres/action"
	insightrepo "github.com/heartmarshall/signalflow-backend/internal/adapter/postgres/insight"
	messagerepo "github.com/heartmarshall/signalflow-backend/internal/adapter/postgres/message"
	riskrepo "github.com/heartmarshall/signalflow-backend/internal/adapter/postgres/riskhistory"
	subjectrepo "github.com/heartmarshall/signalflow-backend/internal/adapter/postgres/subject"
	"github.com/heartmarshall/signalflow-backend/internal/adapter/provider/anthropic"
	"github.com/heartmarshall/signalflow-backend/internal/adapter/provider/gemini"
	"github.com/heartmarshall/signalflow-backend/internal/adapter/provider/speech"
	"github.com/heartmarshall/signalflow-backend/internal/adapter/redis"
	"github.com/heartmarshall/signalflow-backend/internal/config"
	"github.com/heartmarshall/signalflow-backend/internal/observability"
	"github.com/heartmarshall/signalflow-backend/internal/service/action"
	"github.com/heartmarshall/signalflow-backend/internal/service/enrichment"
	"github.com/heartmarshall/signalflow-backend/internal/service/ingest"
	"github.com/heartmarshall/signalflow-backend/internal/service/insight"
	"github.com/heartmarshall/signalflow-backend/internal/service/risk"
	"github.com/heartmarshall/signalflow-backend/internal/service/signal"
	"github.com/heartmarshall/signalflow-backend/internal/textgen"
)

// App holds every long-lived dependency of a running process.
type App struct {
	Config *config.Config
	Log    *slog.Logger
	Pool   *pgxpool.Pool

	Subjects     *subjectrepo.Repo
	Ingest       *ingest.Service
	Orchestrator *enrichment.Orchestrator
	Risk         *risk.Service
	Insights     *insight.Service
	Actions      *action.Service

	closers []func() error
}

// Load reads configuration, initializes the logger and builds the App.
func Load(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := NewLogger(cfg.Log)
	logger.Info("starting application",
		BuildAttr(),
		slog.String("log_level", cfg.Log.Level),
		slog.String("provider", cfg.Enrichment.Provider),
	)

	return New(ctx, cfg, logger)
}

// New connects to the database and the optional adapters and assembles
// the services. Call Close when done.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	a := &App{Config: cfg, Log: logger, Pool: pool}
	a.closers = append(a.closers, func() error { pool.Close(); return nil })

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, pool, logger); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	gen, err := newGenerator(ctx, cfg.Enrichment, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	var seen ingest.SeenCache
	if cfg.Redis.Enabled() {
		cache, err := redis.NewSeenCache(ctx, cfg.Redis, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("seen cache: %w", err)
		}
		a.closers = append(a.closers, cache.Close)
		seen = cache
	}

	var transcriber ingest.Transcriber
	if cfg.Transcription.Enabled() {
		t, err := speech.New(ctx, cfg.Transcription, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("transcriber: %w", err)
		}
		a.closers = append(a.closers, t.Close)
		transcriber = t
	}

	// Repositories.
	txm := postgres.NewTxManager(pool)
	subjects := subjectrepo.New(pool)
	messages := messagerepo.New(pool)
	insights := insightrepo.New(pool)
	actions := actionrepo.New(pool)
	history := riskrepo.New(pool)

	// Services.
	classifier := newClassifier(cfg.Enrichment, gen, logger)
	extractor := signal.NewExtractor(logger, messages, actions, insights, classifier, cfg.Risk)

	a.Subjects = subjects
	a.Ingest = ingest.NewService(logger, messages, subjects, txm, seen, transcriber)
	a.Orchestrator = enrichment.NewOrchestrator(logger, gen, messages, subjects, insights, actions, txm, cfg.Enrichment)
	a.Risk = risk.NewService(logger, history, subjects, extractor, txm, cfg.Risk)
	a.Insights = insight.NewService(logger, insights)
	a.Actions = action.NewService(logger, actions)

	return a, nil
}

// ServeMetrics exposes Prometheus metrics until ctx is cancelled. It is a
// no-op when no metrics address is configured.
func (a *App) ServeMetrics(ctx context.Context) error {
	return observability.Serve(ctx, a.Config.Metrics.Addr, a.Log)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Log.Warn("close resource", slog.String("error", err.Error()))
		}
	}
	a.closers = nil
}

// newClassifier puts the generator in front of the keyword heuristics when
// a provider is configured; the heuristics alone serve otherwise.
func newClassifier(cfg config.EnrichmentConfig, gen textgen.Generator, logger *slog.Logger) signal.Classifier {
	if !cfg.ClassifyWithModel || cfg.Provider == config.ProviderNone {
		return signal.KeywordClassifier{}
	}
	return signal.NewFallbackClassifier(logger, signal.NewCapabilityClassifier(gen, cfg.Timeout), signal.KeywordClassifier{})
}

// newGenerator picks the text-generation provider named in cfg.
func newGenerator(ctx context.Context, cfg config.EnrichmentConfig, logger *slog.Logger) (textgen.Generator, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return anthropic.New(cfg.APIKey, cfg.Model, logger), nil
	case config.ProviderGemini:
		g, err := gemini.New(ctx, cfg.APIKey, cfg.Model, logger)
		if err != nil {
			return nil, fmt.Errorf("gemini provider: %w", err)
		}
		return g, nil
	case config.ProviderNone, "":
		return textgen.Disabled, nil
	default:
		return nil, fmt.Errorf("unknown text generation provider %q", cfg.Provider)
	}
}
