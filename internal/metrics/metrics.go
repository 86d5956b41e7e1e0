// Package metrics holds the service's Prometheus instrumentation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SearchMetrics counts search operations by mode and observes latency.
type SearchMetrics struct {
	searches  *prometheus.CounterVec
	failures  *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewSearchMetrics builds and registers the search collectors on reg.
func NewSearchMetrics(reg prometheus.Registerer) *SearchMetrics {
	m := &SearchMetrics{
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "extended_memory_searches_total",
			Help: "Completed search requests by mode.",
		}, []string{"mode"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "extended_memory_search_failures_total",
			Help: "Failed search requests by mode.",
		}, []string{"mode"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "extended_memory_search_duration_seconds",
			Help:    "Search request latency by mode.",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
	}
	reg.MustRegister(m.searches, m.failures, m.durations)
	return m
}

// ObserveSearch records one completed search.
func (m *SearchMetrics) ObserveSearch(mode string, d time.Duration) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(mode).Inc()
	m.durations.WithLabelValues(mode).Observe(d.Seconds())
}

// ObserveFailure records one failed search.
func (m *SearchMetrics) ObserveFailure(mode string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(mode).Inc()
}
