package risk

import (
	"math"

	"github.com/heartmarshall/signalflow-backend/internal/domain"
	"github.com/heartmarshall/signalflow-backend/internal/service/signal"
)

// Aggregate combines signal readings into a raw score in [0,100] and a
// per-signal breakdown. Signals missing from readings count as 0.
func Aggregate(readings signal.Readings, weights map[domain.SignalName]float64) (float64, map[domain.SignalName]domain.RiskFactor) {
	factors := make(map[domain.SignalName]domain.RiskFactor, len(domain.Signals))
	var raw float64
	for _, name := range domain.Signals {
		r := readings[name]
		w := weights[name]
		contribution := 100 * w * r.Value
		raw += contribution
		factors[name] = domain.RiskFactor{
			Value:        round(r.Value, 3),
			Weight:       w,
			Contribution: round(contribution, 2),
			Evidence:     r.Evidence,
		}
	}
	return math.Max(0, math.Min(100, raw)), factors
}

// Smooth blends raw with the previous score: alpha*raw + (1-alpha)*prev.
// Without a previous score the raw value stands.
func Smooth(raw float64, prev *float64, alpha float64) float64 {
	if prev == nil {
		return raw
	}
	return alpha*raw + (1-alpha)*(*prev)
}

// Level classifies score against the high and medium thresholds.
func Level(score, high, medium float64) domain.RiskLevel {
	switch {
	case score >= high:
		return domain.RiskLevelHigh
	case score >= medium:
		return domain.RiskLevelMedium
	}
	return domain.RiskLevelLow
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
