// Package metrics provides Prometheus metrics for the rollcall analytics service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// latencyBuckets covers sub-millisecond lookups up to multi-second matrix builds.
var latencyBuckets = []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000} //nolint:gochecknoglobals // shared default buckets

// Manager manages all Prometheus metrics for the rollcall service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Snapshot Metrics
	snapshotsIngested prometheus.Counter
	snapshotsRejected prometheus.Counter
	snapshotsStored   prometheus.Gauge
	snapshotVotes     prometheus.Gauge

	// Analytics Metrics
	analyticsLatency *prometheus.HistogramVec
	analyticsErrors  *prometheus.CounterVec

	// Alignment Cache Metrics
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
	cacheEntries prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue Metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker Metrics
	workerCount     prometheus.Gauge
	warmupLatency   prometheus.Histogram
	workerErrorRate prometheus.Counter

	// Error Metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rollcall",
		subsystem:        "analytics",
		histogramBuckets: latencyBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets, ConstLabels: m.customLabels}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.snapshotsIngested = auto.NewCounter(m.counterOpts("snapshots_ingested_total", "Total number of vote snapshots ingested"))
	m.snapshotsRejected = auto.NewCounter(m.counterOpts("snapshots_rejected_total", "Total number of vote snapshots rejected as malformed"))
	m.snapshotsStored = auto.NewGauge(m.gaugeOpts("snapshots_stored", "Number of snapshots currently held in memory"))
	m.snapshotVotes = auto.NewGauge(m.gaugeOpts("snapshot_votes_total", "Vote records across all stored snapshots"))

	m.analyticsLatency = auto.NewHistogramVec(
		m.histogramOpts("operation_latency_milliseconds", "Latency of analytics operations in milliseconds"),
		[]string{"operation"},
	)
	m.analyticsErrors = auto.NewCounterVec(
		m.counterOpts("operation_errors_total", "Analytics operations that returned an error, by operation and kind"),
		[]string{"operation", "kind"},
	)

	m.cacheHits = auto.NewCounter(m.counterOpts("alignment_cache_hits_total", "Alignment matrix cache hits"))
	m.cacheMisses = auto.NewCounter(m.counterOpts("alignment_cache_misses_total", "Alignment matrix cache misses"))
	m.cacheEntries = auto.NewGauge(m.gaugeOpts("alignment_cache_entries", "Alignment matrices currently cached"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("warmup_queue_size", "Pending alignment warm-up jobs"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("warmup_queue_capacity", "Capacity of the alignment warm-up queue"))
	m.queueEnqueueRate = auto.NewCounter(m.counterOpts("warmup_queue_enqueued_total", "Warm-up jobs enqueued"))
	m.queueDequeueRate = auto.NewCounter(m.counterOpts("warmup_queue_dequeued_total", "Warm-up jobs dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("warmup_queue_enqueue_errors_total", "Warm-up jobs dropped on backpressure"))

	m.workerCount = auto.NewGauge(m.gaugeOpts("warmup_worker_count", "Number of warm-up workers"))
	m.warmupLatency = auto.NewHistogram(m.histogramOpts("warmup_latency_milliseconds", "Time to warm one snapshot's alignment matrix"))
	m.workerErrorRate = auto.NewCounter(m.counterOpts("warmup_errors_total", "Warm-up jobs that failed"))

	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that ended in an error"),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds", "Average GC pause in milliseconds"))
}

// Snapshot Metrics Functions.

// RecordSnapshotIngested increments the ingested snapshot counter.
func RecordSnapshotIngested() {
	globalManager.snapshotsIngested.Inc()
}

// RecordSnapshotRejected increments the rejected snapshot counter.
func RecordSnapshotRejected() {
	globalManager.snapshotsRejected.Inc()
}

// UpdateSnapshotsStored sets the number of stored snapshots.
func UpdateSnapshotsStored(count int) {
	globalManager.snapshotsStored.Set(float64(count))
}

// UpdateSnapshotVotes sets the number of vote records held across snapshots.
func UpdateSnapshotVotes(count int) {
	globalManager.snapshotVotes.Set(float64(count))
}

// Analytics Metrics Functions.

// RecordAnalyticsLatency records the latency of one analytics operation.
func RecordAnalyticsLatency(operation string, latencyMs float64) {
	globalManager.analyticsLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordAnalyticsError counts a failed analytics operation.
func RecordAnalyticsError(operation, kind string) {
	globalManager.analyticsErrors.WithLabelValues(operation, kind).Inc()
}

// Alignment Cache Metrics Functions.

// RecordCacheHit increments the alignment cache hit counter.
func RecordCacheHit() {
	globalManager.cacheHits.Inc()
}

// RecordCacheMiss increments the alignment cache miss counter.
func RecordCacheMiss() {
	globalManager.cacheMisses.Inc()
}

// UpdateCacheEntries sets the number of cached matrices.
func UpdateCacheEntries(count int) {
	globalManager.cacheEntries.Set(float64(count))
}

// HTTP Metrics Functions.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Queue Metrics Functions.

// UpdateQueueSize sets the number of pending warm-up jobs.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the warm-up queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Worker Metrics Functions.

// UpdateWorkerCount sets the number of warm-up workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWarmupLatency records how long one warm-up job took.
func RecordWarmupLatency(latencyMs float64) {
	globalManager.warmupLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// Error Metrics Functions.

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System Performance Metrics Functions.

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
