package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/signalflow-backend/internal/app"
	"github.com/heartmarshall/signalflow-backend/internal/domain"
	"github.com/heartmarshall/signalflow-backend/internal/service/insight"
)

func init() {
	insightsCmd := &cobra.Command{Use: "insights", Short: "Insight review operations"}

	// list
	var subject, message, status, source, category string
	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List insights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			subjectID, err := optionalID("subject", subject)
			if err != nil {
				return err
			}
			messageID, err := optionalID("message", message)
			if err != nil {
				return err
			}
			in := insight.ListInput{
				SubjectID: subjectID,
				MessageID: messageID,
				Status:    status,
				Source:    source,
				Category:  category,
				Limit:     limit,
				Offset:    offset,
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				items, err := a.Insights.List(ctx, in)
				if err != nil {
					return err
				}
				return printJSON(items)
			})
		},
	}
	listCmd.Flags().StringVarP(&subject, "subject", "s", "", "Filter by subject ID")
	listCmd.Flags().StringVarP(&message, "message", "m", "", "Filter by message ID")
	listCmd.Flags().StringVar(&status, "status", "", "suggested, accepted or rejected")
	listCmd.Flags().StringVar(&source, "source", "", "ai or manual")
	listCmd.Flags().StringVar(&category, "category", "", "Insight category")
	listCmd.Flags().IntVarP(&limit, "limit", "l", 50, "Page size")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Page offset")
	insightsCmd.AddCommand(listCmd)

	insightsCmd.AddCommand(reviewCmd("accept", domain.InsightStatusAccepted))
	insightsCmd.AddCommand(reviewCmd("reject", domain.InsightStatusRejected))

	rootCmd.AddCommand(insightsCmd)
}

// reviewCmd moves one or more insights to status. Several IDs are reviewed
// independently; failures are reported per ID.
func reviewCmd(use string, status domain.InsightStatus) *cobra.Command {
	return &cobra.Command{
		Use:   use + " INSIGHT_ID...",
		Short: "Mark insights as " + string(status),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs("insight", args)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if len(ids) == 1 {
					updated, err := a.Insights.Review(ctx, insight.ReviewInput{ID: ids[0], Status: status})
					if err != nil {
						return err
					}
					return printJSON(updated)
				}

				res, err := a.Insights.BulkReview(ctx, insight.BulkReviewInput{IDs: ids, Status: status})
				if err != nil {
					return err
				}
				failed := make(map[string]string, len(res.Failed))
				for _, f := range res.Failed {
					failed[f.ID.String()] = f.Err.Error()
				}
				return printJSON(map[string]any{"updated": res.Updated, "failed": failed})
			})
		},
	}
}
