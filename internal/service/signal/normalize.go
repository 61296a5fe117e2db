package signal

import "math"

const (
	// NoContactDays is the inactivity assumed for a subject who never wrote.
	NoContactDays = 30.0

	// InactivityGraceDays are ignored before inactivity starts to count.
	InactivityGraceDays = 3.0

	// SevereOverdueDays marks an overdue action as severe.
	SevereOverdueDays = 7

	// PainHitThreshold is the severity above which a message counts as a
	// pain mention.
	PainHitThreshold = 0.3

	// NegativeThreshold is the sentiment below which text is negative.
	NegativeThreshold = -0.3
)

// Inactivity maps days since the last inbound message to [0,1]:
// 1 - e^(-max(0, days-3)/3). It is non-decreasing in days.
func Inactivity(days float64) float64 {
	x := math.Max(0, days-InactivityGraceDays)
	return clamp01(1 - math.Exp(-x/3))
}

// Overdue maps overdue action counts to [0,1]. severe counts the subset
// overdue by more than SevereOverdueDays and weighs double.
func Overdue(overdue, severe int) float64 {
	return clamp01((0.5*float64(overdue) + 1.0*float64(severe)) / 5)
}

// NegativeRatio is the share of negative insights. No insights is 0.
func NegativeRatio(negative, total int) float64 {
	if total <= 0 {
		return 0
	}
	return clamp01(float64(negative) / float64(total))
}

// SentimentRisk turns a mean sentiment in [-1,1] into risk: only negative
// sentiment contributes.
func SentimentRisk(mean float64) float64 {
	return clamp01(-mean)
}

// Pain saturates at three mentions.
func Pain(hits int) float64 {
	return clamp01(float64(hits) / 3)
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
