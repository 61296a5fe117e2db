package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/signalflow-backend/internal/app"
	"github.com/heartmarshall/signalflow-backend/internal/domain"
	"github.com/heartmarshall/signalflow-backend/internal/service/action"
)

func init() {
	actionsCmd := &cobra.Command{Use: "actions", Short: "Follow-up action operations"}

	// list
	var subject, status string
	var overdue bool
	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			subjectID, err := optionalID("subject", subject)
			if err != nil {
				return err
			}
			in := action.ListInput{
				SubjectID:   subjectID,
				Status:      status,
				OverdueOnly: overdue,
				Limit:       limit,
				Offset:      offset,
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				items, err := a.Actions.List(ctx, in)
				if err != nil {
					return err
				}
				return printJSON(items)
			})
		},
	}
	listCmd.Flags().StringVarP(&subject, "subject", "s", "", "Filter by subject ID")
	listCmd.Flags().StringVar(&status, "status", "", "open, in_progress, done or cancelled")
	listCmd.Flags().BoolVar(&overdue, "overdue", false, "Only open actions past their due date")
	listCmd.Flags().IntVarP(&limit, "limit", "l", 100, "Page size")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Page offset")
	actionsCmd.AddCommand(listCmd)

	actionsCmd.AddCommand(&cobra.Command{
		Use:   "done ACTION_ID",
		Short: "Mark an action as done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("action", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				updated, err := a.Actions.Transition(ctx, id, string(domain.ActionStatusDone))
				if err != nil {
					return err
				}
				return printJSON(updated)
			})
		},
	})

	rootCmd.AddCommand(actionsCmd)
}
