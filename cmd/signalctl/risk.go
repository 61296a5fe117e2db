package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/signalflow-backend/internal/app"
)

func init() {
	riskCmd := &cobra.Command{Use: "risk", Short: "Risk score operations"}

	riskCmd.AddCommand(&cobra.Command{
		Use:   "compute SUBJECT_ID",
		Short: "Compute and store the risk score of one subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subjectID, err := parseID("subject", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				entry, err := a.Risk.Compute(ctx, subjectID)
				if err != nil {
					return err
				}
				return printJSON(entry)
			})
		},
	})

	riskCmd.AddCommand(&cobra.Command{
		Use:   "recompute",
		Short: "Recompute the risk score of every subject",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				report, err := a.Risk.RecomputeAll(ctx)
				if err != nil {
					return err
				}
				failures := make(map[string]string, len(report.Failures))
				for _, f := range report.Failures {
					failures[f.SubjectID.String()] = f.Err.Error()
				}
				return printJSON(map[string]any{
					"total":     report.Total,
					"succeeded": report.Succeeded,
					"failures":  failures,
					"levels":    report.Levels,
					"high":      report.High,
					"duration":  report.Duration.String(),
				})
			})
		},
	})

	var limit int
	historyCmd := &cobra.Command{
		Use:   "history SUBJECT_ID",
		Short: "Show stored risk scores, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subjectID, err := parseID("subject", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				entries, err := a.Risk.History(ctx, subjectID, limit)
				if err != nil {
					return err
				}
				return printJSON(entries)
			})
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "l", 30, "Number of entries")
	riskCmd.AddCommand(historyCmd)

	rootCmd.AddCommand(riskCmd)
}
