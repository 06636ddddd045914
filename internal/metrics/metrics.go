// Package metrics provides Prometheus metrics for the proxy.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Default histogram buckets for request latency. Streamed generations can
// run for minutes, so the tail is wider than a typical API.
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 300}

// Metrics holds all Prometheus metric collectors for the proxy.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	RequestsRejected *prometheus.CounterVec

	UpstreamDuration  *prometheus.HistogramVec
	UpstreamResponses *prometheus.CounterVec
	UpstreamErrors    *prometheus.CounterVec

	BytesRelayed   prometheus.Counter
	StreamFailures prometheus.Counter

	prefixes []string
}

// New creates a Metrics instance with a custom registry and all collectors
// registered. Each route prefix becomes a path label value; every other path
// is reported as "other".
func New(routePrefixes ...string) *Metrics {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "local_api_proxy_http_requests_total",
			Help: "Total inbound HTTP requests.",
		}, []string{"method", "status_code", "path_prefix"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "local_api_proxy_http_request_duration_seconds",
			Help:    "Inbound HTTP request latency in seconds, including body streaming.",
			Buckets: defaultBuckets,
		}, []string{"method", "status_code", "path_prefix"}),

		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "local_api_proxy_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed.",
		}),

		RequestsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "local_api_proxy_http_requests_rejected_total",
			Help: "Inbound requests rejected before routing, by reason.",
		}, []string{"reason"}),

		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "local_api_proxy_upstream_request_duration_seconds",
			Help:    "Time until the backend response headers arrive, in seconds.",
			Buckets: defaultBuckets,
		}, []string{"method"}),

		UpstreamResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "local_api_proxy_upstream_responses_total",
			Help: "Total backend responses by method and status code.",
		}, []string{"method", "status_code"}),

		UpstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "local_api_proxy_upstream_errors_total",
			Help: "Backend calls that failed before a response arrived, by kind.",
		}, []string{"kind"}),

		BytesRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "local_api_proxy_relayed_bytes_total",
			Help: "Response body bytes streamed from the backend to callers.",
		}),

		StreamFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "local_api_proxy_stream_failures_total",
			Help: "Proxied responses truncated by an error after headers were sent.",
		}),
	}

	for _, p := range routePrefixes {
		if p != "" {
			m.prefixes = append(m.prefixes, p)
		}
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.RequestsInFlight,
		m.RequestsRejected,
		m.UpstreamDuration,
		m.UpstreamResponses,
		m.UpstreamErrors,
		m.BytesRelayed,
		m.StreamFailures,
	)

	return m
}

// knownMethods lists the allowed HTTP method label values (bounded cardinality).
var knownMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

// NormalizeMethod returns a bounded HTTP method label for Prometheus metrics.
// Non-standard methods are mapped to "other" to prevent cardinality explosion.
func NormalizeMethod(method string) string {
	if knownMethods[method] {
		return method
	}
	return "other"
}

// NormalizePath returns a bounded path label for Prometheus metrics.
// Paths outside the configured route prefixes (static files) are "other".
func (m *Metrics) NormalizePath(path string) string {
	for _, prefix := range m.prefixes {
		label := strings.TrimSuffix(prefix, "/")
		if strings.HasPrefix(path, prefix) || path == label {
			return label
		}
	}
	return "other"
}
