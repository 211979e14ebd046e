package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for document uploads and reviews.
type Metrics struct {
	UploadsAccepted *prometheus.CounterVec
	UploadsRejected *prometheus.CounterVec
	UploadsDropped  prometheus.Counter
	Reviews         *prometheus.CounterVec
	UploadSize      prometheus.Histogram
}

// New registers and returns document metrics collectors.
func New() *Metrics {
	return &Metrics{
		UploadsAccepted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vitrine_document_uploads_accepted_total",
			Help: "Uploads recorded as under-review, labeled by category",
		}, []string{"category"}),
		UploadsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vitrine_document_uploads_rejected_total",
			Help: "Uploads refused before storage, labeled by reason",
		}, []string{"reason"}),
		UploadsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vitrine_document_uploads_superseded_total",
			Help: "Uploads discarded because a newer upload for the slot was issued",
		}),
		Reviews: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vitrine_document_reviews_total",
			Help: "Reviewer decisions, labeled by action",
		}, []string{"action"}),
		UploadSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vitrine_document_upload_size_bytes",
			Help:    "Size of accepted document uploads",
			Buckets: []float64{16 << 10, 64 << 10, 256 << 10, 1 << 20, 2 << 20, 5 << 20, 10 << 20},
		}),
	}
}

func (m *Metrics) IncrementAccepted(category string) {
	m.UploadsAccepted.WithLabelValues(category).Inc()
}

func (m *Metrics) IncrementRejected(reason string) {
	m.UploadsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementSuperseded() {
	m.UploadsDropped.Inc()
}

func (m *Metrics) IncrementReviews(action string) {
	m.Reviews.WithLabelValues(action).Inc()
}

func (m *Metrics) ObserveUploadSize(bytes int64) {
	m.UploadSize.Observe(float64(bytes))
}
