package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/signalflow-backend/internal/app"
	"github.com/heartmarshall/signalflow-backend/internal/domain"
	"github.com/heartmarshall/signalflow-backend/internal/service/enrichment"
	"github.com/heartmarshall/signalflow-backend/internal/service/ingest"
)

func init() {
	var subject, channel, externalID, text, audio string
	var process bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Store an inbound message, optionally enriching it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			subjectID, err := parseID("subject", subject)
			if err != nil {
				return err
			}
			ev := ingest.InboundEvent{
				SubjectID:  subjectID,
				Channel:    domain.Channel(strings.ToLower(channel)),
				ExternalID: externalID,
				Text:       nonEmpty(text),
				AudioRef:   nonEmpty(audio),
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Ingest.Ingest(ctx, ev)
				if err != nil {
					return err
				}
				out := map[string]any{"ingest": res}
				if process && !res.Duplicate {
					pr, err := a.Orchestrator.Process(ctx, enrichment.ProcessInput{
						MessageID: res.MessageID,
						SubjectID: subjectID,
						Actions:   enrichment.Actions{ExtractInsights: true, SuggestReply: true, DetectAction: true},
					})
					if err != nil {
						return err
					}
					out["enrichment"] = newProcessView(pr)
				}
				return printJSON(out)
			})
		},
	}
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Subject ID (required)")
	cmd.Flags().StringVarP(&channel, "channel", "c", string(domain.ChannelManual), "Source channel")
	cmd.Flags().StringVarP(&externalID, "external-id", "e", "", "Channel message ID (generated for manual)")
	cmd.Flags().StringVarP(&text, "text", "t", "", "Message text")
	cmd.Flags().StringVar(&audio, "audio", "", "Audio reference to transcribe")
	cmd.Flags().BoolVar(&process, "process", false, "Run every enrichment action after storing")
	_ = cmd.MarkFlagRequired("subject")
	rootCmd.AddCommand(cmd)
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
