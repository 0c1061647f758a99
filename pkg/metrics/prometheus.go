// Package metrics provides Prometheus metrics for the meet scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Scoring
	recomputes          prometheus.Counter
	recomputeDuplicates prometheus.Counter
	recomputeErrors     prometheus.Counter
	recomputeLatency    prometheus.Histogram
	unresolvedLegs      prometheus.Counter
	limitViolations     *prometheus.CounterVec
	sensitivityRuns     prometheus.Counter
	reconcileRows       *prometheus.CounterVec
	meetsTotal          prometheus.Gauge

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "meetscore",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() {
	m.recomputes = m.counter("recomputes_total", "Total number of completed whole-meet recomputes")
	m.recomputeDuplicates = m.counter("recompute_duplicates_total", "Total number of recompute requests dropped as duplicates")
	m.recomputeErrors = m.counter("recompute_errors_total", "Total number of recomputes that failed")
	m.recomputeLatency = m.histogram("recompute_latency_milliseconds", "Whole-meet recompute latency in milliseconds")
	m.unresolvedLegs = m.counter("relay_legs_unresolved_total", "Total number of relay legs without a usable time")
	m.limitViolations = m.counterVec("limit_violations_total", "Total number of roster limit violations by kind", "kind")
	m.sensitivityRuns = m.counter("sensitivity_runs_total", "Total number of sensitivity analyses")
	m.reconcileRows = m.counterVec("reconcile_rows_total", "Total number of reconciled result rows by outcome", "outcome")
	m.meetsTotal = m.gauge("meets", "Number of meets held in the store")

	m.queueSize = m.gauge("queue_size", "Current number of queued recompute jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of queued recompute jobs")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Total number of recompute jobs enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Total number of recompute jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of rejected enqueues")

	m.workerCount = m.gauge("worker_count", "Number of recompute workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Number of workers currently scoring a meet")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Worker job latency in milliseconds")
	m.workerErrors = m.counter("worker_errors_total", "Total number of failed worker jobs")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_total", "Total number of errors by component and type", "component", "type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause time in milliseconds")
}

// RecordRecompute records a completed recompute and its latency.
func RecordRecompute(latencyMs float64) {
	globalManager.recomputes.Inc()
	globalManager.recomputeLatency.Observe(latencyMs)
}

// RecordRecomputeDuplicate increments the duplicate recompute counter.
func RecordRecomputeDuplicate() {
	globalManager.recomputeDuplicates.Inc()
}

// RecordRecomputeError increments the failed recompute counter.
func RecordRecomputeError() {
	globalManager.recomputeErrors.Inc()
}

// RecordUnresolvedLegs adds n unresolved relay legs.
func RecordUnresolvedLegs(n int) {
	globalManager.unresolvedLegs.Add(float64(n))
}

// RecordLimitViolation increments the violation counter for kind.
func RecordLimitViolation(kind string) {
	globalManager.limitViolations.WithLabelValues(kind).Inc()
}

// RecordSensitivityRun increments the sensitivity counter.
func RecordSensitivityRun() {
	globalManager.sensitivityRuns.Inc()
}

// RecordReconcileRows adds resolved and unresolved row counts.
func RecordReconcileRows(resolved, unresolved int) {
	globalManager.reconcileRows.WithLabelValues("resolved").Add(float64(resolved))
	globalManager.reconcileRows.WithLabelValues("unresolved").Add(float64(unresolved))
}

// UpdateMeetsTotal sets the number of stored meets.
func UpdateMeetsTotal(count int) {
	globalManager.meetsTotal.Set(float64(count))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records the average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
