// Package anthropic implements textgen.Generator on the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/heartmarshall/signalflow-backend/internal/textgen"
)

// messagesAPI is the subset of anthropic.MessageService used here.
type messagesAPI interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Generator calls Claude for every request.
type Generator struct {
	messages messagesAPI
	model    string
	log      *slog.Logger
}

// New creates a Generator authenticated with apiKey.
func New(apiKey, model string, log *slog.Logger) *Generator {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return newWithAPI(&client.Messages, model, log)
}

func newWithAPI(api messagesAPI, model string, log *slog.Logger) *Generator {
	return &Generator{
		messages: api,
		model:    model,
		log:      log.With("adapter", "anthropic"),
	}
}

// Generate sends one user turn built from req and returns the concatenated
// text blocks of the reply.
func (g *Generator) Generate(ctx context.Context, req textgen.Request) (textgen.Response, error) {
	if err := req.Validate(); err != nil {
		return textgen.Response{}, err
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(g.model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt())),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := g.messages.New(ctx, params)
	if err != nil {
		return textgen.Response{}, fmt.Errorf("anthropic messages: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		b.WriteString(block.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return textgen.Response{}, textgen.ErrEmptyResponse
	}

	g.log.DebugContext(ctx, "generation done",
		slog.String("shape", req.Shape.String()),
		slog.Int64("output_tokens", msg.Usage.OutputTokens),
	)

	return textgen.Response{Text: text, Model: string(msg.Model)}, nil
}
