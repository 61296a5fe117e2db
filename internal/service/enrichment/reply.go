package enrichment

import (
	"context"
	"fmt"
	"strings"

	"github.com/heartmarshall/signalflow-backend/internal/textgen"
)

// suggestReply drafts a reply for the coach. Nothing is persisted.
func (o *Orchestrator) suggestReply(ctx context.Context, pc processContext) (string, error) {
	tone := strings.TrimSpace(o.cfg.ReplyTone)
	if tone == "" {
		tone = "empathetic and encouraging"
	}
	words := o.cfg.ReplyWordBudget
	if words <= 0 {
		words = 200
	}

	resp, err := o.gen.Generate(ctx, replyRequest(pc, tone, words))
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}
	reply := strings.TrimSpace(resp.Text)
	if reply == "" {
		return "", textgen.ErrEmptyResponse
	}
	return reply, nil
}
