// Command signalctl is the operator CLI for the coaching workflow engine:
// ingest messages, run enrichment, compute risk and review insights and
// actions against the configured database.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/signalflow-backend/internal/adapter/postgres"
	"github.com/heartmarshall/signalflow-backend/internal/app"
	"github.com/heartmarshall/signalflow-backend/internal/config"
	"github.com/heartmarshall/signalflow-backend/pkg/ctxutil"
)

var (
	actorFlag string
	rootCmd   = &cobra.Command{
		Use:           "signalctl",
		Short:         "Operate the signal-driven coaching workflow engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func main() {
	rootCmd.PersistentFlags().StringVar(&actorFlag, "actor", os.Getenv("USER"), "Reviewer recorded on insight decisions")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withApp builds the application container for one command invocation.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Load(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	go func() {
		if err := a.ServeMetrics(ctx); err != nil {
			a.Log.Warn("metrics server stopped", slog.String("error", err.Error()))
		}
	}()

	ctx = ctxutil.WithActor(ctx, actorFlag)
	return fn(ctx, a)
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := app.NewLogger(cfg.Log)

			pool, err := postgres.NewPool(cmd.Context(), cfg.Database)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer pool.Close()

			return postgres.Migrate(cmd.Context(), pool, logger)
		},
	})
}
