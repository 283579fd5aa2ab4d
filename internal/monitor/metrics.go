package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the playground service.
type Metrics struct {
	Registry *prometheus.Registry

	RunsTotal        *prometheus.CounterVec
	StageDuration    *prometheus.HistogramVec
	StageFailures    *prometheus.CounterVec
	ActiveRuns       prometheus.Gauge
	SnippetLookups   *prometheus.CounterVec
	SnippetsCreated  prometheus.Counter
	CacheWriteErrors prometheus.Counter
	RequestsInFlight prometheus.Gauge
	CodeSizeBytes    prometheus.Histogram
	OutputSizeBytes  prometheus.Histogram
}

// NewMetrics creates and registers all Prometheus metrics using a dedicated registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,

		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "playground",
				Name:      "runs_total",
				Help:      "Total pipeline invocations by outcome.",
			},
			[]string{"status"},
		),

		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "playground",
				Name:      "stage_duration_seconds",
				Help:      "Duration of pipeline stages in seconds.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),

		StageFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "playground",
				Name:      "stage_failures_total",
				Help:      "Total non-zero stage exits by stage.",
			},
			[]string{"stage"},
		),

		ActiveRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "playground",
				Name:      "active_runs",
				Help:      "Number of pipeline invocations currently executing.",
			},
		),

		SnippetLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "playground",
				Name:      "snippet_lookups_total",
				Help:      "Snippet resolution attempts by tier and outcome.",
			},
			[]string{"tier", "outcome"},
		),

		SnippetsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "playground",
				Name:      "snippets_created_total",
				Help:      "Total snippets persisted via the create endpoint.",
			},
		),

		CacheWriteErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "playground",
				Name:      "cache_write_errors_total",
				Help:      "Cache writes that failed and were degraded to log-only.",
			},
		),

		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "playground",
				Subsystem: "api",
				Name:      "requests_in_flight",
				Help:      "Number of HTTP requests currently being processed.",
			},
		),

		CodeSizeBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "playground",
				Name:      "code_size_bytes",
				Help:      "Size of submitted code in bytes.",
				Buckets:   prometheus.ExponentialBuckets(100, 4, 8),
			},
		),

		OutputSizeBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "playground",
				Name:      "output_size_bytes",
				Help:      "Total size of event log output in bytes.",
				Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
			},
		),
	}

	reg.MustRegister(
		m.RunsTotal,
		m.StageDuration,
		m.StageFailures,
		m.ActiveRuns,
		m.SnippetLookups,
		m.SnippetsCreated,
		m.CacheWriteErrors,
		m.RequestsInFlight,
		m.CodeSizeBytes,
		m.OutputSizeBytes,
	)

	return m
}

// RecordRun records the outcome of a completed pipeline invocation.
func (m *Metrics) RecordRun(status string) {
	m.RunsTotal.WithLabelValues(status).Inc()
}

// RecordStage records duration and failure for one pipeline stage.
func (m *Metrics) RecordStage(stage string, durationSec float64, ok bool) {
	m.StageDuration.WithLabelValues(stage).Observe(durationSec)
	if !ok {
		m.StageFailures.WithLabelValues(stage).Inc()
	}
}

// RecordLookup records one tier consultation during snippet resolution.
func (m *Metrics) RecordLookup(tier, outcome string) {
	m.SnippetLookups.WithLabelValues(tier, outcome).Inc()
}
