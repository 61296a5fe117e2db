// Package gemini implements textgen.Generator on the Google Gen AI SDK.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/heartmarshall/signalflow-backend/internal/textgen"
)

type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator calls a Gemini model for every request.
type Generator struct {
	models modelsAPI
	model  string
	log    *slog.Logger
}

// New creates a Generator authenticated with apiKey.
func New(ctx context.Context, apiKey, model string, log *slog.Logger) (*Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return newWithAPI(client.Models, model, log), nil
}

func newWithAPI(api modelsAPI, model string, log *slog.Logger) *Generator {
	return &Generator{
		models: api,
		model:  model,
		log:    log.With("adapter", "gemini"),
	}
}

// Generate sends req as a single user turn. JSON shapes request an
// application/json response so the model does not wrap output in prose.
func (g *Generator) Generate(ctx context.Context, req textgen.Request) (textgen.Response, error) {
	if err := req.Validate(); err != nil {
		return textgen.Response{}, err
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Shape != textgen.ShapeText {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := g.models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(req.UserPrompt(), genai.RoleUser)}, cfg)
	if err != nil {
		return textgen.Response{}, fmt.Errorf("gemini generate: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return textgen.Response{}, textgen.ErrEmptyResponse
	}

	g.log.DebugContext(ctx, "generation done", slog.String("shape", req.Shape.String()))

	return textgen.Response{Text: text, Model: g.model}, nil
}
