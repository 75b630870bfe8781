// Package metrics provides Prometheus metrics for the restkit dispatcher.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// latencyBucketsMs covers sub-millisecond dispatches up to slow handlers.
var latencyBucketsMs = []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000} //nolint:gochecknoglobals // shared bucket layout

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Dispatch metrics
	dispatchTotal       *prometheus.CounterVec
	dispatchLatency     prometheus.Histogram
	dispatchFailures    *prometheus.CounterVec
	unresolvedEndpoints prometheus.Counter
	methodOverrides     *prometheus.CounterVec
	registeredEndpoints prometheus.Gauge

	// HTTP transport metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "restkit",
		subsystem:        "dispatch",
		histogramBuckets: latencyBucketsMs,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// Enabled reports whether observations are recorded.
func (m *Manager) Enabled() bool { return m.enabled }

// RefreshInterval is how often gauge updaters should run.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.customLabels)

	m.dispatchTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "requests_total",
		Help:        "Dispatched requests by endpoint, verb and status code",
		ConstLabels: constLabels,
	}, []string{"endpoint", "verb", "status_code"})

	m.dispatchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "request_duration_milliseconds",
		Help:        "Time from dispatch to rendered envelope in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	})

	m.dispatchFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "failures_total",
		Help:        "Failure envelopes rendered, by error kind",
		ConstLabels: constLabels,
	}, []string{"kind"})

	m.unresolvedEndpoints = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "unresolved_total",
		Help:        "Requests naming an endpoint that is not registered",
		ConstLabels: constLabels,
	})

	m.methodOverrides = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "method_overrides_total",
		Help:        "POST requests carrying a method override header, by override value",
		ConstLabels: constLabels,
	}, []string{"override"})

	m.registeredEndpoints = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "registered_endpoints",
		Help:        "Number of endpoints in the registry",
		ConstLabels: constLabels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "requests_total",
		Help:        "Total number of HTTP requests by route and method",
		ConstLabels: constLabels,
	}, []string{"route", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	}, []string{"route", "method", "status_code"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "errors_by_type_total",
		Help:        "HTTP error responses by type and severity",
		ConstLabels: constLabels,
	}, []string{"error_type", "severity"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "errors_by_route_total",
		Help:        "HTTP error responses by route, method and type",
		ConstLabels: constLabels,
	}, []string{"route", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "memory_usage_bytes",
		Help:        "Current heap allocation in bytes",
		ConstLabels: constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "goroutine_count",
		Help:        "Current number of goroutines",
		ConstLabels: constLabels,
	})
}

// RecordDispatch counts one dispatched request.
func (m *Manager) RecordDispatch(endpoint, verb, statusCode string) {
	if m.enabled {
		m.dispatchTotal.WithLabelValues(endpoint, verb, statusCode).Inc()
	}
}

// RecordDispatchDuration observes dispatch latency in milliseconds.
func (m *Manager) RecordDispatchDuration(ms float64) {
	if m.enabled {
		m.dispatchLatency.Observe(ms)
	}
}

// RecordDispatchFailure counts a failure envelope by kind.
func (m *Manager) RecordDispatchFailure(kind string) {
	if m.enabled {
		m.dispatchFailures.WithLabelValues(kind).Inc()
	}
}

// RecordUnresolvedEndpoint counts a lookup miss.
func (m *Manager) RecordUnresolvedEndpoint() {
	if m.enabled {
		m.unresolvedEndpoints.Inc()
	}
}

// RecordMethodOverride counts a method override header by value.
func (m *Manager) RecordMethodOverride(override string) {
	if m.enabled {
		m.methodOverrides.WithLabelValues(override).Inc()
	}
}

// UpdateRegisteredEndpoints sets the registry size.
func (m *Manager) UpdateRegisteredEndpoints(n int) {
	if m.enabled {
		m.registeredEndpoints.Set(float64(n))
	}
}

// RecordHTTPRequest counts an HTTP request.
func (m *Manager) RecordHTTPRequest(route, method, statusCode string, durationMs float64) {
	if m.enabled {
		m.httpRequests.WithLabelValues(route, method, statusCode).Inc()
		m.httpRequestDuration.WithLabelValues(route, method, statusCode).Observe(durationMs)
	}
}

// RecordHTTPError counts an HTTP error response.
func (m *Manager) RecordHTTPError(route, method, errorType, severity string) {
	if m.enabled {
		m.errorRateByEndpoint.WithLabelValues(route, method, errorType).Inc()
		m.errorRateByType.WithLabelValues(errorType, severity).Inc()
	}
}

// UpdateSystem sets memory and goroutine gauges.
func (m *Manager) UpdateSystem(memBytes uint64, goroutines int) {
	if m.enabled {
		m.systemMemoryUsage.Set(float64(memBytes))
		m.systemGoroutineCount.Set(float64(goroutines))
	}
}

// Package-level helpers delegate to the global manager.

// RecordDispatch counts one dispatched request.
func RecordDispatch(endpoint, verb, statusCode string) {
	globalManager.RecordDispatch(endpoint, verb, statusCode)
}

// RecordDispatchDuration observes dispatch latency in milliseconds.
func RecordDispatchDuration(ms float64) { globalManager.RecordDispatchDuration(ms) }

// RecordDispatchFailure counts a failure envelope by kind.
func RecordDispatchFailure(kind string) { globalManager.RecordDispatchFailure(kind) }

// RecordUnresolvedEndpoint counts a lookup miss.
func RecordUnresolvedEndpoint() { globalManager.RecordUnresolvedEndpoint() }

// RecordMethodOverride counts a method override header by value.
func RecordMethodOverride(override string) { globalManager.RecordMethodOverride(override) }

// UpdateRegisteredEndpoints sets the registry size.
func UpdateRegisteredEndpoints(n int) { globalManager.UpdateRegisteredEndpoints(n) }

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(route, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(route, method, statusCode, durationMs)
}

// RecordHTTPError counts an HTTP error response.
func RecordHTTPError(route, method, errorType, severity string) {
	globalManager.RecordHTTPError(route, method, errorType, severity)
}

// UpdateSystem sets memory and goroutine gauges.
func UpdateSystem(memBytes uint64, goroutines int) { globalManager.UpdateSystem(memBytes, goroutines) }

// SetEnabled turns recording on the global manager on or off.
func SetEnabled(enabled bool) { globalManager.enabled = enabled }

// RefreshInterval is how often gauge updaters on the global manager run.
func RefreshInterval() time.Duration { return globalManager.RefreshInterval() }

// SetRefreshInterval changes the global refresh interval. Non-positive values
// are ignored.
func SetRefreshInterval(d time.Duration) { WithRefreshInterval(d)(globalManager) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
