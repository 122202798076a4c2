package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus metrics for the gateway.
type Metrics struct {
	authTotal       *prometheus.CounterVec
	rateLimitTotal  *prometheus.CounterVec
	ingestTotal     *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	upstreamTotal   *prometheus.CounterVec
	registry        *prometheus.Registry
}

// NewMetrics creates a new Metrics instance with its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "gateway"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.authTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "requests_total",
			Help:      "Total number of authentication attempts by result",
		},
		[]string{"result"},
	)

	m.rateLimitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "decisions_total",
			Help:      "Total number of rate limit decisions",
		},
		[]string{"decision"},
	)

	m.ingestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signals",
			Name:      "ingest_total",
			Help:      "Total number of signal ingest requests by outcome",
		},
		[]string{"outcome"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path", "status"},
	)

	m.upstreamTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reactor",
			Name:      "requests_total",
			Help:      "Total number of upstream scoring requests by outcome",
		},
		[]string{"outcome"},
	)

	m.registry.MustRegister(
		m.authTotal,
		m.rateLimitTotal,
		m.ingestTotal,
		m.requestDuration,
		m.upstreamTotal,
		collectors.NewGoCollector(),
	)

	return m
}

// RecordAuth records an authentication attempt.
// result is one of: ok, missing, invalid, rate_limited, error.
func (m *Metrics) RecordAuth(result string) {
	m.authTotal.WithLabelValues(result).Inc()
}

// RecordRateLimit records a rate limit decision (allowed or rejected).
func (m *Metrics) RecordRateLimit(decision string) {
	m.rateLimitTotal.WithLabelValues(decision).Inc()
}

// RecordIngest records a signal ingest outcome (accepted, invalid, failed).
func (m *Metrics) RecordIngest(outcome string) {
	m.ingestTotal.WithLabelValues(outcome).Inc()
}

// RecordRequest records an HTTP request duration.
func (m *Metrics) RecordRequest(method, path, status string, duration time.Duration) {
	m.requestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordUpstream records an upstream scoring call outcome (success, error, open).
func (m *Metrics) RecordUpstream(outcome string) {
	m.upstreamTotal.WithLabelValues(outcome).Inc()
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
