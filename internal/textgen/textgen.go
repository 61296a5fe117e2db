// Package textgen defines the text-generation capability the enrichment
// engine depends on. Providers live under internal/adapter/provider.
package textgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Shape is the response contract a request asks for.
type Shape int

const (
	// ShapeText asks for free-form prose.
	ShapeText Shape = iota
	// ShapeJSONList asks for a JSON array of objects.
	ShapeJSONList
	// ShapeJSONObject asks for a single JSON object.
	ShapeJSONObject
)

func (s Shape) String() string {
	switch s {
	case ShapeJSONList:
		return "json_list"
	case ShapeJSONObject:
		return "json_object"
	default:
		return "text"
	}
}

// Request is a structured prompt: a system role, conversation context and
// task instructions, plus the expected response shape.
type Request struct {
	System       string
	Context      string
	Instructions string
	Shape        Shape
	MaxTokens    int
	Temperature  float64
}

// Response is the raw text returned by a provider.
type Response struct {
	Text  string
	Model string
}

// Generator produces text for a Request. Implementations must honor ctx
// cancellation; callers bound every call with a timeout.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

var (
	// ErrUnavailable is returned when no provider is configured.
	ErrUnavailable = errors.New("text generation unavailable")
	// ErrEmptyResponse is returned when a provider answered with no text.
	ErrEmptyResponse = errors.New("text generation returned no content")
	// ErrMalformed is returned when a JSON-shaped response cannot be parsed.
	ErrMalformed = errors.New("text generation returned malformed output")
)

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (Response, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// Disabled is a Generator that always fails with ErrUnavailable.
var Disabled Generator = GeneratorFunc(func(context.Context, Request) (Response, error) {
	return Response{}, ErrUnavailable
})

// UserPrompt renders the context and instructions into the single user turn
// sent to a provider. The system role travels separately.
func (r Request) UserPrompt() string {
	var b strings.Builder
	if c := strings.TrimSpace(r.Context); c != "" {
		b.WriteString("Context:\n")
		b.WriteString(c)
		b.WriteString("\n\n")
	}
	b.WriteString(strings.TrimSpace(r.Instructions))
	switch r.Shape {
	case ShapeJSONList:
		b.WriteString("\n\nRespond ONLY with a valid JSON array, no markdown, no explanations.")
	case ShapeJSONObject:
		b.WriteString("\n\nRespond ONLY with a valid JSON object, no markdown, no explanations.")
	}
	return b.String()
}

// Validate checks that the request carries instructions and sane limits.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Instructions) == "" {
		return fmt.Errorf("textgen: instructions are required")
	}
	if r.MaxTokens <= 0 {
		return fmt.Errorf("textgen: max tokens must be positive (got %d)", r.MaxTokens)
	}
	if r.Temperature < 0 || r.Temperature > 2 {
		return fmt.Errorf("textgen: temperature must be in [0, 2] (got %v)", r.Temperature)
	}
	return nil
}
