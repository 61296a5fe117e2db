package signal

import (
	"context"
	"strings"

	"github.com/heartmarshall/signalflow-backend/internal/domain"
)

// Classifier scores free text for the risk signals.
type Classifier interface {
	// Sentiment returns a score in [-1,1].
	Sentiment(ctx context.Context, text string) (float64, error)
	// PainSeverity returns a score in [0,1].
	PainSeverity(ctx context.Context, text string) (float64, error)
	// PainMentions returns how many pain or injury mentions text holds.
	PainMentions(ctx context.Context, text string) (int, error)
	// IsNegative reports whether text describes a problem for the subject.
	IsNegative(ctx context.Context, text string) (bool, error)
}

var (
	painKeywords = []string{
		"dolor", "lesión", "lesion", "molestia", "herida", "inflamación", "contractura", "tirón", "duele", "inflamado",
		"pain", "injury", "injured", "hurts", "sore", "sprain", "strain", "swollen",
	}
	negativeKeywords = []string{
		"no puedo", "imposible", "difícil", "problema", "mal", "terrible", "horrible", "frustrado", "estresado", "ansioso", "deprimido",
		"can't", "cannot", "impossible", "difficult", "problem", "bad", "awful", "frustrated", "stressed", "anxious", "depressed",
	}
	psychologyKeywords = []string{
		"psicología", "mental", "motivación", "ánimo", "estado de ánimo", "depresión", "ansiedad",
		"motivation", "mood", "depression", "anxiety",
	}
	positiveKeywords = []string{
		"bien", "genial", "excelente", "perfecto", "mejor", "progreso", "feliz", "contento",
		"good", "great", "excellent", "perfect", "better", "progress", "happy",
	}
)

// KeywordClassifier scores text by counting fixed Spanish and English
// keywords. It never fails.
type KeywordClassifier struct{}

// Sentiment is +1 when positive keywords outnumber negative ones, -1 in the
// opposite case and 0 on a tie.
func (KeywordClassifier) Sentiment(_ context.Context, text string) (float64, error) {
	lower := domain.NormalizeText(text)
	pos := countAll(lower, positiveKeywords)
	neg := countAll(lower, negativeKeywords)
	switch {
	case pos > neg:
		return 1, nil
	case neg > pos:
		return -1, nil
	}
	return 0, nil
}

// PainSeverity grows by a third per pain keyword occurrence.
func (KeywordClassifier) PainSeverity(_ context.Context, text string) (float64, error) {
	return Pain(countAll(domain.NormalizeText(text), painKeywords)), nil
}

// PainMentions counts every pain keyword occurrence.
func (KeywordClassifier) PainMentions(_ context.Context, text string) (int, error) {
	return countAll(domain.NormalizeText(text), painKeywords), nil
}

// IsNegative reports any pain, negative or psychology keyword.
func (KeywordClassifier) IsNegative(_ context.Context, text string) (bool, error) {
	lower := domain.NormalizeText(text)
	for _, list := range [][]string{painKeywords, negativeKeywords, psychologyKeywords} {
		if countAll(lower, list) > 0 {
			return true, nil
		}
	}
	return false, nil
}

func countAll(lower string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		n += strings.Count(lower, kw)
	}
	return n
}
