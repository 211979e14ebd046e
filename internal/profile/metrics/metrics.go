package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for profile editing sessions.
type Metrics struct {
	SectionSaves   *prometheus.CounterVec
	Submissions    *prometheus.CounterVec
	ActiveSessions prometheus.Gauge
	Completeness   prometheus.Histogram
}

// New registers and returns profile metrics collectors.
func New() *Metrics {
	return &Metrics{
		SectionSaves: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vitrine_profile_section_saves_total",
			Help: "Section save attempts, labeled by section and outcome",
		}, []string{"section", "outcome"}),
		Submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vitrine_profile_submissions_total",
			Help: "Account submission attempts, labeled by outcome",
		}, []string{"outcome"}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vitrine_profile_sessions_active",
			Help: "Profile sessions held in memory",
		}),
		Completeness: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vitrine_profile_completeness_percentage",
			Help:    "Completeness percentage observed after each section save",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
	}
}

func (m *Metrics) IncrementSectionSave(section, outcome string) {
	m.SectionSaves.WithLabelValues(section, outcome).Inc()
}

func (m *Metrics) IncrementSubmission(outcome string) {
	m.Submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementActiveSessions() {
	m.ActiveSessions.Inc()
}

func (m *Metrics) ObserveCompleteness(percentage int) {
	m.Completeness.Observe(float64(percentage))
}
