package signal

import (
	"context"
	"log/slog"
)

// FallbackClassifier asks the primary classifier first and answers with the
// fallback whenever the primary is absent or fails.
type FallbackClassifier struct {
	primary  Classifier
	fallback Classifier
	log      *slog.Logger
}

// NewFallbackClassifier creates a classifier; primary may be nil.
func NewFallbackClassifier(log *slog.Logger, primary, fallback Classifier) *FallbackClassifier {
	return &FallbackClassifier{
		primary:  primary,
		fallback: fallback,
		log:      log.With("service", "classifier"),
	}
}

func (f *FallbackClassifier) Sentiment(ctx context.Context, text string) (float64, error) {
	if f.primary != nil {
		v, err := f.primary.Sentiment(ctx, text)
		if err == nil {
			return v, nil
		}
		f.degraded(ctx, "sentiment", err)
	}
	return f.fallback.Sentiment(ctx, text)
}

func (f *FallbackClassifier) PainSeverity(ctx context.Context, text string) (float64, error) {
	if f.primary != nil {
		v, err := f.primary.PainSeverity(ctx, text)
		if err == nil {
			return v, nil
		}
		f.degraded(ctx, "pain", err)
	}
	return f.fallback.PainSeverity(ctx, text)
}

func (f *FallbackClassifier) PainMentions(ctx context.Context, text string) (int, error) {
	if f.primary != nil {
		n, err := f.primary.PainMentions(ctx, text)
		if err == nil {
			return n, nil
		}
		f.degraded(ctx, "pain", err)
	}
	return f.fallback.PainMentions(ctx, text)
}

func (f *FallbackClassifier) IsNegative(ctx context.Context, text string) (bool, error) {
	if f.primary != nil {
		v, err := f.primary.IsNegative(ctx, text)
		if err == nil {
			return v, nil
		}
		f.degraded(ctx, "negative", err)
	}
	return f.fallback.IsNegative(ctx, text)
}

func (f *FallbackClassifier) degraded(ctx context.Context, what string, err error) {
	f.log.WarnContext(ctx, "classifier capability failed, using keywords",
		slog.String("signal", what),
		slog.String("error", err.Error()),
	)
}
