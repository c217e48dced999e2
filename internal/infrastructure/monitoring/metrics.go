package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// Pipeline metrics
	StageDuration *prometheus.HistogramVec
	StageRuns     *prometheus.CounterVec

	// Export metrics
	SpansExported *prometheus.CounterVec

	// Collector metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	SpansReceived   *prometheus.CounterVec
	TracesStored    prometheus.Gauge
}

// NewMetrics creates a new metrics collector backed by a private registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "otel_demo_stage_duration_seconds",
				Help:    "Duration of traced stages in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"stage"},
		),
		StageRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "otel_demo_stage_runs_total",
				Help: "Total number of traced stage executions by outcome",
			},
			[]string{"stage", "status"},
		),

		SpansExported: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "otel_demo_spans_exported_total",
				Help: "Total number of spans handed to an exporter by outcome",
			},
			[]string{"exporter", "status"},
		),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "otel_demo_collector_requests_total",
				Help: "Total number of HTTP requests served by the local collector",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "otel_demo_collector_request_duration_seconds",
				Help:    "Local collector HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		SpansReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "otel_demo_collector_spans_received_total",
				Help: "Total number of spans received by the local collector",
			},
			[]string{"transport"},
		),
		TracesStored: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "otel_demo_collector_traces_stored",
				Help: "Number of traces held in the local collector store",
			},
		),
	}
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// WriteTextfile writes the current values for node_exporter's textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// RecordStage records one stage execution
func (m *Metrics) RecordStage(stage, status string, duration time.Duration) {
	m.StageRuns.WithLabelValues(stage, status).Inc()
	m.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordExport records a batch handed to an exporter
func (m *Metrics) RecordExport(exporter, status string, spans int) {
	m.SpansExported.WithLabelValues(exporter, status).Add(float64(spans))
}

// RecordHTTPRequest records an HTTP request served by the collector
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordReceived records spans accepted over a transport ("http" or "grpc")
func (m *Metrics) RecordReceived(transport string, spans int) {
	m.SpansReceived.WithLabelValues(transport).Add(float64(spans))
}
