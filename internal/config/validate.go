package config

import (
	"fmt"
	"math"
	"strings"
)

// weightTolerance absorbs float rounding in YAML/env weights.
const weightTolerance = 1e-6

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Database.validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Enrichment.validate(); err != nil {
		return fmt.Errorf("enrichment: %w", err)
	}
	if err := c.Risk.validate(); err != nil {
		return fmt.Errorf("risk: %w", err)
	}
	if c.Transcription.Enabled() && c.Transcription.MaxAttempts < 1 {
		return fmt.Errorf("transcription: max_attempts must be >= 1 (got %d)", c.Transcription.MaxAttempts)
	}
	return nil
}

func (d *DatabaseConfig) validate() error {
	if d.MaxConns < 1 || d.MinConns < 0 || d.MinConns > d.MaxConns {
		return fmt.Errorf("pool bounds must satisfy 0 <= min_conns <= max_conns, max_conns >= 1 (got %d, %d)",
			d.MinConns, d.MaxConns)
	}
	if d.StatementTimeout < 0 {
		return fmt.Errorf("statement_timeout must be >= 0 (got %s)", d.StatementTimeout)
	}
	return nil
}

func (e *EnrichmentConfig) validate() error {
	e.Provider = strings.ToLower(strings.TrimSpace(e.Provider))
	switch e.Provider {
	case ProviderAnthropic, ProviderGemini, ProviderNone:
	default:
		return fmt.Errorf("provider must be one of %q, %q, %q (got %q)",
			ProviderAnthropic, ProviderGemini, ProviderNone, e.Provider)
	}
	if e.Provider != ProviderNone && e.AutoGenerate && e.APIKey == "" {
		return fmt.Errorf("api_key is required when auto_generate is on for provider %q", e.Provider)
	}
	if e.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %s)", e.Timeout)
	}
	if e.ContextMessages < 1 {
		return fmt.Errorf("context_messages must be >= 1 (got %d)", e.ContextMessages)
	}
	if e.MaxInsights < 1 || e.MaxInsights > 20 {
		return fmt.Errorf("max_insights must be in [1, 20] (got %d)", e.MaxInsights)
	}
	return nil
}

// Weights returns the configured signal weights in breakdown order.
func (r RiskConfig) Weights() []float64 {
	return []float64{
		r.WeightInactivity,
		r.WeightOverdue,
		r.WeightNegativeInsights,
		r.WeightSentiment,
		r.WeightPain,
	}
}

func (r *RiskConfig) validate() error {
	var sum float64
	for _, w := range r.Weights() {
		if w < 0 {
			return fmt.Errorf("weights must be >= 0 (got %v)", w)
		}
		sum += w
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("weights must sum to 1 (got %.4f)", sum)
	}
	if r.Alpha <= 0 || r.Alpha > 1 {
		return fmt.Errorf("alpha must be in (0, 1] (got %v)", r.Alpha)
	}
	if r.MediumThreshold < 0 || r.HighThreshold > 100 || r.MediumThreshold >= r.HighThreshold {
		return fmt.Errorf("thresholds must satisfy 0 <= medium < high <= 100 (got %v, %v)",
			r.MediumThreshold, r.HighThreshold)
	}
	if r.SentimentWindow < 1 {
		return fmt.Errorf("sentiment_window must be >= 1 (got %d)", r.SentimentWindow)
	}
	if r.InsightWindow < 1 {
		return fmt.Errorf("insight_window must be >= 1 (got %d)", r.InsightWindow)
	}
	if r.BatchConcurrency < 1 {
		return fmt.Errorf("batch_concurrency must be >= 1 (got %d)", r.BatchConcurrency)
	}
	return nil
}
