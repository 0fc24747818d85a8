// Package metrics exposes Prometheus metrics for procedure invocations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for InvocationsTotal.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeStale = "stale"
)

// Metrics groups the collectors of one application instance.
type Metrics struct {
	registry *prometheus.Registry

	InvocationsTotal   *prometheus.CounterVec
	InvocationDuration *prometheus.HistogramVec
	RowsTotal          *prometheus.CounterVec
	Procedures         prometheus.Gauge
}

// New creates the collectors and registers them in a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		// Counts invocations, labeled by procedure and outcome.
		InvocationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "procbridge_invocations_total",
				Help: "Total number of procedure invocations",
			},
			[]string{"procedure", "outcome"},
		),

		// Measures procedure run time, from transaction start to teardown.
		InvocationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "procbridge_invocation_duration_seconds",
				Help:    "Duration of procedure invocations in seconds",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"procedure"},
		),

		RowsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "procbridge_rows_total",
				Help: "Total number of result rows produced",
			},
			[]string{"procedure"},
		),

		Procedures: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "procbridge_registered_procedures",
				Help: "Number of registered read procedures",
			},
		),
	}
}

// Observe records one finished invocation.
func (m *Metrics) Observe(procedure, outcome string, rows int, elapsed time.Duration) {
	m.InvocationsTotal.WithLabelValues(procedure, outcome).Inc()
	m.InvocationDuration.WithLabelValues(procedure).Observe(elapsed.Seconds())
	if rows > 0 {
		m.RowsTotal.WithLabelValues(procedure).Add(float64(rows))
	}
}

// Gatherer returns the registry backing these metrics.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes the current values in the text exposition format, for
// node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
