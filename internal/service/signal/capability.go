package signal

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/heartmarshall/signalflow-backend/internal/textgen"
)

const (
	sentimentPrompt = `Rate the sentiment and emotional tone of the following message from an athlete.
Answer with a single number between -1 and 1:
-1 = very negative (frustrated, depressed, stressed)
0 = neutral
1 = very positive (motivated, happy, progressing)

Message: %s`

	painPrompt = `Identify mentions of pain, injury, physical discomfort or health problems in the following message.
Answer with a single number between 0 and 1:
0 = no mention
0.3 = mild (discomfort, tiredness)
0.7 = moderate (pain, minor injury)
1 = severe (serious injury, intense pain)

Message: %s`

	motivationPrompt = `Rate the psychological and motivational state of the athlete in the following text.
Answer with a single number between -1 and 1:
-1 = very negative (unmotivated, depressed, anxious)
0 = neutral
1 = very positive (motivated, confident, progressing)

Text: %s`
)

// CapabilityClassifier scores text with a text-generation capability.
// Each call is bounded by timeout; an expired call is an error like any other.
type CapabilityClassifier struct {
	gen     textgen.Generator
	timeout time.Duration
}

// NewCapabilityClassifier creates a classifier backed by gen. A timeout
// <= 0 leaves calls bounded only by the caller's context.
func NewCapabilityClassifier(gen textgen.Generator, timeout time.Duration) *CapabilityClassifier {
	return &CapabilityClassifier{gen: gen, timeout: timeout}
}

func (c *CapabilityClassifier) Sentiment(ctx context.Context, text string) (float64, error) {
	v, err := c.score(ctx, sentimentPrompt, text)
	if err != nil {
		return 0, err
	}
	return clamp(v, -1, 1), nil
}

func (c *CapabilityClassifier) PainSeverity(ctx context.Context, text string) (float64, error) {
	v, err := c.score(ctx, painPrompt, text)
	if err != nil {
		return 0, err
	}
	return clamp01(v), nil
}

// PainMentions counts the message as one mention when its severity is
// above PainHitThreshold.
func (c *CapabilityClassifier) PainMentions(ctx context.Context, text string) (int, error) {
	severity, err := c.PainSeverity(ctx, text)
	if err != nil {
		return 0, err
	}
	if severity > PainHitThreshold {
		return 1, nil
	}
	return 0, nil
}

func (c *CapabilityClassifier) IsNegative(ctx context.Context, text string) (bool, error) {
	v, err := c.score(ctx, motivationPrompt, text)
	if err != nil {
		return false, err
	}
	if v < NegativeThreshold {
		return true, nil
	}
	pain, err := c.PainSeverity(ctx, text)
	if err != nil {
		return false, err
	}
	return pain > PainHitThreshold, nil
}

func (c *CapabilityClassifier) score(ctx context.Context, prompt, text string) (float64, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.gen.Generate(ctx, textgen.Request{
		Instructions: fmt.Sprintf(prompt, text),
		Shape:        textgen.ShapeText,
		MaxTokens:    10,
		Temperature:  0.1,
	})
	if err != nil {
		return 0, fmt.Errorf("classify: %w", err)
	}
	return parseScore(resp.Text)
}

// parseScore reads the first finite number in s. NaN and Inf are
// malformed answers.
func parseScore(s string) (float64, error) {
	for _, field := range strings.Fields(s) {
		field = strings.Trim(field, ".,;:\"'`*")
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			break
		}
		return v, nil
	}
	return 0, fmt.Errorf("score %q: %w", s, textgen.ErrMalformed)
}
