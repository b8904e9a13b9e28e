package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the evaluation counters exposed on /metrics.
type Metrics struct {
	Evaluations        *prometheus.CounterVec
	EvaluationDuration prometheus.Histogram
	Recomputes         prometheus.Counter
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Evaluations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "windcover_evaluations_total",
				Help: "Evaluations served, by outcome",
			},
			[]string{"status"}, // "ok", "invalid", "no_data", "error"
		),
		EvaluationDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "windcover_evaluation_duration_seconds",
				Help:    "Wall time of POST /v1/evaluate including source fetches",
				Buckets: prometheus.DefBuckets,
			},
		),
		Recomputes: f.NewCounter(
			prometheus.CounterOpts{
				Name: "windcover_coverage_recomputes_total",
				Help: "Coverage recomputations on saved evaluations",
			},
		),
	}
}
