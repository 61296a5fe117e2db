package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/signalflow-backend/internal/app"
	"github.com/heartmarshall/signalflow-backend/internal/domain"
	"github.com/heartmarshall/signalflow-backend/internal/service/enrichment"
)

type processView struct {
	Disabled bool                       `json:"disabled,omitempty"`
	Insights []domain.Insight           `json:"insights,omitempty"`
	Reply    *string                    `json:"reply,omitempty"`
	Action   *domain.Action             `json:"action,omitempty"`
	Failures map[enrichment.Kind]string `json:"failures,omitempty"`
	Partial  bool                       `json:"partial"`
}

func newProcessView(r enrichment.ProcessResult) processView {
	return processView{
		Disabled: r.Disabled,
		Insights: r.Insights,
		Reply:    r.Reply,
		Action:   r.Action,
		Failures: errorStrings(r.Failures),
		Partial:  r.Partial,
	}
}

func init() {
	var subject string
	var insights, reply, action, regenerate, overwrite bool

	cmd := &cobra.Command{
		Use:   "process MESSAGE_ID",
		Short: "Run enrichment actions for a stored message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			messageID, err := parseID("message", args[0])
			if err != nil {
				return err
			}

			if regenerate {
				return withApp(cmd, func(ctx context.Context, a *app.App) error {
					items, err := a.Orchestrator.RegenerateInsights(ctx, messageID, overwrite)
					if err != nil {
						return err
					}
					return printJSON(items)
				})
			}

			subjectID, err := parseID("subject", subject)
			if err != nil {
				return err
			}
			actions := enrichment.Actions{ExtractInsights: insights, SuggestReply: reply, DetectAction: action}
			if !actions.Any() {
				actions = enrichment.Actions{ExtractInsights: true, SuggestReply: true, DetectAction: true}
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Orchestrator.Process(ctx, enrichment.ProcessInput{
					MessageID: messageID,
					SubjectID: subjectID,
					Actions:   actions,
				})
				if err != nil {
					return err
				}
				return printJSON(newProcessView(res))
			})
		},
	}
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Subject ID that owns the message")
	cmd.Flags().BoolVar(&insights, "insights", false, "Extract insights")
	cmd.Flags().BoolVar(&reply, "reply", false, "Suggest a reply")
	cmd.Flags().BoolVar(&action, "action", false, "Detect a follow-up action")
	cmd.Flags().BoolVar(&regenerate, "regenerate", false, "Regenerate suggested insights only")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "With --regenerate, replace existing suggestions")
	rootCmd.AddCommand(cmd)
}
