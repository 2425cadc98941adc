package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification module.
type Metrics struct {
	// Terminal outcomes by status and internal reason
	Outcome *prometheus.CounterVec

	// Provider round-trip latency
	ProviderLatency prometheus.Histogram

	// Full pipeline latency from submission to terminal state
	PipelineLatency prometheus.Histogram
}

// New creates a new Metrics instance with all verification module metrics registered.
func New() *Metrics {
	return &Metrics{
		Outcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "idproof_verification_outcomes_total",
			Help: "Total terminal verification outcomes by status and reason",
		}, []string{"status", "reason"}), // reason: "" on approval, internal label otherwise

		ProviderLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "idproof_verification_provider_duration_seconds",
			Help:    "Duration of provider verification calls",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 3, 5, 10, 30},
		}),

		PipelineLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "idproof_verification_pipeline_duration_seconds",
			Help:    "Duration from document submission to terminal outcome",
			Buckets: []float64{0.5, 1, 2, 3, 5, 10, 30, 60, 120},
		}),
	}
}

// IncrementOutcome records a terminal verification outcome.
func (m *Metrics) IncrementOutcome(status, reason string) {
	if m != nil {
		m.Outcome.WithLabelValues(status, reason).Inc()
	}
}

// ObserveProviderLatency records the duration of one provider call.
func (m *Metrics) ObserveProviderLatency(d time.Duration) {
	if m != nil {
		m.ProviderLatency.Observe(d.Seconds())
	}
}

// ObservePipelineLatency records the full pipeline duration.
func (m *Metrics) ObservePipelineLatency(d time.Duration) {
	if m != nil {
		m.PipelineLatency.Observe(d.Seconds())
	}
}
