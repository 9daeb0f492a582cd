// Package observability holds the Prometheus metrics and logger setup
// shared by the HTTP service and the CLI.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// index service.
type Metrics struct {
	ComputeRequests *prometheus.CounterVec // labels: outcome={success,error}
	ComputeDuration prometheus.Histogram
	ActiveComputes  prometheus.Gauge

	FieldsLoaded *prometheus.CounterVec // labels: format={netcdf,csv}, outcome={success,error}
	RunsPersisted prometheus.Counter
	ZoneRequests  *prometheus.CounterVec // labels: zone
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ComputeRequests,
		m.ComputeDuration,
		m.ActiveComputes,
		m.FieldsLoaded,
		m.RunsPersisted,
		m.ZoneRequests,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ComputeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "goenso",
			Name:      "compute_requests_total",
			Help:      "Index computations by outcome.",
		}, []string{"outcome"}),
		ComputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "goenso",
			Name:      "compute_duration_seconds",
			Help:      "Duration of a full fit-project-summarize cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ActiveComputes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "goenso",
			Name:      "active_computations",
			Help:      "Decompositions currently in flight.",
		}),
		FieldsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "goenso",
			Name:      "fields_loaded_total",
			Help:      "Input fields read, by format and outcome.",
		}, []string{"format", "outcome"}),
		RunsPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "goenso",
			Name:      "runs_persisted_total",
			Help:      "Index runs written to the repository.",
		}),
		ZoneRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "goenso",
			Name:      "zone_requests_total",
			Help:      "Zone mean requests by zone key.",
		}, []string{"zone"}),
	}
}
