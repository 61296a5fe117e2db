// Package observability exposes the engine's prometheus metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "signalflow"

var (
	ingestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "messages_total",
			Help:      "Ingested events by channel and outcome (stored, duplicate, error).",
		},
		[]string{"channel", "outcome"},
	)

	enrichmentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrichment",
			Name:      "actions_total",
			Help:      "Enrichment actions by kind and outcome (ok, failed).",
		},
		[]string{"action", "outcome"},
	)

	enrichmentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "enrichment",
			Name:      "action_duration_seconds",
			Help:      "Latency of a single enrichment action.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	riskTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "computations_total",
			Help:      "Risk computations by resulting level.",
		},
		[]string{"level"},
	)

	batchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "batch_failures_total",
			Help:      "Subjects that failed during a batch recompute.",
		},
	)
)

// Ingest outcomes.
const (
	OutcomeStored    = "stored"
	OutcomeDuplicate = "duplicate"
	OutcomeError     = "error"
	OutcomeOK        = "ok"
	OutcomeFailed    = "failed"
)

// IngestObserved counts one ingest attempt.
func IngestObserved(channel, outcome string) {
	ingestTotal.WithLabelValues(channel, outcome).Inc()
}

// EnrichmentObserved records one enrichment action.
func EnrichmentObserved(action string, failed bool, took time.Duration) {
	outcome := OutcomeOK
	if failed {
		outcome = OutcomeFailed
	}
	enrichmentTotal.WithLabelValues(action, outcome).Inc()
	enrichmentDuration.WithLabelValues(action).Observe(took.Seconds())
}

// RiskObserved counts one risk computation.
func RiskObserved(level string) {
	riskTotal.WithLabelValues(level).Inc()
}

// BatchFailuresObserved adds n failed subjects.
func BatchFailuresObserved(n int) {
	if n > 0 {
		batchFailures.Add(float64(n))
	}
}
