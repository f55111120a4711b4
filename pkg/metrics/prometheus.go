// Package metrics provides Prometheus metrics for the checkboard web app.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes used as the "outcome" label.
const (
	OutcomeAccepted     = "accepted"
	OutcomeBothSelected = "both_selected"
	OutcomeNoneSelected = "none_selected"
	OutcomeNameRequired = "name_required"
	OutcomeFailed       = "failed"
)

// Manager manages all Prometheus metrics for the checkboard service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Business metrics
	submissions        *prometheus.CounterVec
	leaderboardRefresh *prometheus.CounterVec
	leaderboardSize    prometheus.Gauge
	sessionGate        *prometheus.CounterVec
	remoteCallLatency  *prometheus.HistogramVec
	remoteCallErrors   *prometheus.CounterVec
	viewStoreSize      prometheus.Gauge
	viewStoreEvictions prometheus.Counter
	viewStoreMisses    prometheus.Counter

	// HTTP performance metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System performance metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "checkboard",
		subsystem:        "web",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)

	m.submissions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_total",
		Help:      "Checkbox submissions by outcome",
	}, []string{"outcome"})

	m.leaderboardRefresh = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_refresh_total",
		Help:      "Manual leaderboard refreshes by outcome",
	}, []string{"outcome"})

	m.leaderboardSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_entries",
		Help:      "Number of entries returned by the last successful leaderboard refresh",
	})

	m.sessionGate = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "session_gate_total",
		Help:      "Session gate resolutions by outcome (signed_in, signed_out, error)",
	}, []string{"outcome"})

	m.remoteCallLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "remote_call_latency_milliseconds",
		Help:      "Latency of remote service calls in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"operation"})

	m.remoteCallErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "remote_call_errors_total",
		Help:      "Failed remote service calls by operation",
	}, []string{"operation"})

	m.viewStoreSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "view_store_size",
		Help:      "Number of live views held in memory",
	})

	m.viewStoreEvictions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "view_store_evictions_total",
		Help:      "Views evicted because the store reached capacity",
	})

	m.viewStoreMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "view_store_misses_total",
		Help:      "Form posts that referenced an unknown or evicted view",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "Heap bytes allocated",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "Average GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100},
	})
}

// RecordSubmission counts a submission attempt by outcome.
func RecordSubmission(outcome string) {
	globalManager.submissions.WithLabelValues(outcome).Inc()
}

// RecordLeaderboardRefresh counts a refresh; entries is ignored on failure.
func RecordLeaderboardRefresh(ok bool, entries int) {
	if !ok {
		globalManager.leaderboardRefresh.WithLabelValues("failed").Inc()
		return
	}
	globalManager.leaderboardRefresh.WithLabelValues("ok").Inc()
	globalManager.leaderboardSize.Set(float64(entries))
}

// RecordSessionGate counts a gate resolution.
func RecordSessionGate(outcome string) {
	globalManager.sessionGate.WithLabelValues(outcome).Inc()
}

// RecordRemoteCall observes a remote call's latency and failure.
func RecordRemoteCall(operation string, latencyMs float64, err error) {
	globalManager.remoteCallLatency.WithLabelValues(operation).Observe(latencyMs)
	if err != nil {
		globalManager.remoteCallErrors.WithLabelValues(operation).Inc()
	}
}

// UpdateViewStoreSize sets the number of live views.
func UpdateViewStoreSize(size int) {
	globalManager.viewStoreSize.Set(float64(size))
}

// RecordViewEviction increments the view eviction counter.
func RecordViewEviction() {
	globalManager.viewStoreEvictions.Inc()
}

// RecordViewMiss increments the unknown-view counter.
func RecordViewMiss() {
	globalManager.viewStoreMisses.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
