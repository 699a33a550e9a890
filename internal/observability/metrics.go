package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector holds all Prometheus metrics for Clawboard.
// Uses a custom registry — no global state.
type MetricsCollector struct {
	Registry *prometheus.Registry

	// Gateway client metrics.
	GatewayCallsTotal   *prometheus.CounterVec
	GatewayCallDuration *prometheus.HistogramVec

	// Config cache metrics.
	ConfigCacheReadsTotal *prometheus.CounterVec

	// Adapter degradation metrics: every fail-soft substitution is counted
	// so "degrade to empty state" stays observable.
	AdapterFailuresTotal *prometheus.CounterVec

	// HTTP surface metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ActiveRequests      prometheus.Gauge
}

// NewMetricsCollector creates a MetricsCollector with all metrics registered
// on a custom prometheus.Registry.
func NewMetricsCollector() *MetricsCollector {
	reg := prometheus.NewRegistry()

	m := &MetricsCollector{
		Registry: reg,

		GatewayCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clawboard",
			Subsystem: "gateway",
			Name:      "calls_total",
			Help:      "Total OpenClaw gateway calls.",
		}, []string{"surface", "status"}),

		GatewayCallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clawboard",
			Subsystem: "gateway",
			Name:      "call_duration_seconds",
			Help:      "OpenClaw gateway call duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"surface"}),

		ConfigCacheReadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clawboard",
			Subsystem: "configcache",
			Name:      "reads_total",
			Help:      "Config cache reads by outcome.",
		}, []string{"outcome"}), // "hit", "fallback", "rebuild"

		AdapterFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clawboard",
			Subsystem: "adapter",
			Name:      "failures_total",
			Help:      "Adapter calls degraded to their safe default.",
		}, []string{"op"}),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clawboard",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		}, []string{"method", "path", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clawboard",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		ActiveRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "clawboard",
			Subsystem: "http",
			Name:      "active_requests",
			Help:      "In-flight HTTP requests.",
		}),
	}

	reg.MustRegister(
		m.GatewayCallsTotal,
		m.GatewayCallDuration,
		m.ConfigCacheReadsTotal,
		m.AdapterFailuresTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ActiveRequests,
	)
	return m
}

// RecordGatewayCall counts one gateway round trip and its duration. Nil-safe.
func (m *MetricsCollector) RecordGatewayCall(surface, status string, seconds float64) {
	if m == nil {
		return
	}
	m.GatewayCallsTotal.WithLabelValues(surface, status).Inc()
	m.GatewayCallDuration.WithLabelValues(surface).Observe(seconds)
}

// RecordAdapterFailure counts one fail-soft substitution. Nil-safe.
func (m *MetricsCollector) RecordAdapterFailure(op string) {
	if m == nil {
		return
	}
	m.AdapterFailuresTotal.WithLabelValues(op).Inc()
}

// RecordConfigCacheRead counts one cache read by outcome. Nil-safe.
func (m *MetricsCollector) RecordConfigCacheRead(outcome string) {
	if m == nil {
		return
	}
	m.ConfigCacheReadsTotal.WithLabelValues(outcome).Inc()
}
