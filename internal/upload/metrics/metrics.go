package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the upload module.
type Metrics struct {
	// Submissions by result ("accepted", "rejected", "storage_failed")
	Submissions *prometheus.CounterVec

	// Accepted document sizes in bytes
	DocumentSize prometheus.Histogram
}

// New creates a new Metrics instance with all upload module metrics registered.
func New() *Metrics {
	return &Metrics{
		Submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "idproof_upload_submissions_total",
			Help: "Total document submissions by result",
		}, []string{"result"}),

		DocumentSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "idproof_upload_document_bytes",
			Help:    "Size of accepted documents in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8), // 1KiB .. 16MiB
		}),
	}
}

// IncrementSubmissions records one submission result.
func (m *Metrics) IncrementSubmissions(result string) {
	if m != nil {
		m.Submissions.WithLabelValues(result).Inc()
	}
}

// ObserveDocumentSize records the size of an accepted document.
func (m *Metrics) ObserveDocumentSize(bytes int64) {
	if m != nil {
		m.DocumentSize.Observe(float64(bytes))
	}
}
