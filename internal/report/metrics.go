package report

// A measurement is reported once, then forgotten.
// If the host call fails, nothing is reported.
// No retries. No recovery.

import (
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

const (
	ModeDirect = "direct"
	ModeTimed  = "timed"
)

// Metrics are boring counters plus one duration histogram.
// Every sample must be explainable by looking at a single Result.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry    *prometheus.Registry
	invocations *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	nsPerOp     *prometheus.GaugeVec
}

// NewMetrics creates metrics on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hostbench_invocations_total",
				Help: "Benchmark function invocations by mode",
			},
			[]string{"benchmark", "mode"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hostbench_failures_total",
				Help: "Benchmark invocations that returned an error",
			},
			[]string{"benchmark"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hostbench_duration_seconds",
				Help:    "Duration of timed benchmark invocations",
				Buckets: prometheus.ExponentialBuckets(1e-7, 10, 9), // 100ns .. 10s
			},
			[]string{"benchmark"},
		),
		nsPerOp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hostbench_suite_ns_per_op",
				Help: "Mean nanoseconds per operation from the last suite run",
			},
			[]string{"benchmark"},
		),
	}

	m.registry.MustRegister(m.invocations, m.failures, m.duration, m.nsPerOp)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordDirect counts an untimed invocation
func (m *Metrics) RecordDirect(label string) {
	if m == nil {
		return
	}
	m.invocations.WithLabelValues(label, ModeDirect).Inc()
}

// RecordResult counts a timed invocation and observes its duration
func (m *Metrics) RecordResult(r *Result) {
	if m == nil || r == nil {
		return
	}
	m.invocations.WithLabelValues(r.Label, ModeTimed).Inc()
	m.duration.WithLabelValues(r.Label).Observe(r.Duration.Seconds())
}

// RecordFailure counts a failed invocation
func (m *Metrics) RecordFailure(label string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(label).Inc()
}

// RecordSample publishes a suite sample
func (m *Metrics) RecordSample(s Sample) {
	if m == nil {
		return
	}
	m.nsPerOp.WithLabelValues(s.Name).Set(s.NsPerOp)
}

// Handler serves the registry in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteText dumps every metric family in text format
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
