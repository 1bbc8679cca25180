// Package metrics provides Prometheus metrics for the atscore analysis service.
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
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Analysis pipeline
	analysesSubmitted prometheus.Counter
	analysesCompleted prometheus.Counter
	analysesFailed    prometheus.Counter
	analysesDuplicate prometheus.Counter
	analysisLatency   prometheus.Histogram
	stageLatency      *prometheus.HistogramVec
	atsScore          prometheus.Histogram
	lastATSScore      prometheus.Gauge
	missingKeywords   prometheus.Histogram

	// Collaborators
	extractionAttempts *prometheus.CounterVec
	suggestionSource   *prometheus.CounterVec
	generatorFailures  prometheus.Counter
	amqpMessages       *prometheus.CounterVec

	// Report store
	storeRecords          prometheus.Gauge
	storeRanked           prometheus.Gauge
	storeUpdateLatency    prometheus.Histogram
	storeQueryLatency     prometheus.Histogram
	storeSnapshotDuration prometheus.Histogram
	storeSnapshotLastUnix prometheus.Gauge
	storeSnapshotCount    prometheus.Counter

	// Queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueued          prometheus.Counter
	queueDequeued          prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerIdleCount         prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByType      *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec
	errorLatency      *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // process-wide metrics singleton

// customRegistry keeps the default Go collectors out of /metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// scoreBuckets spans the 0..100 ATS score range in steps of ten.
var scoreBuckets = prometheus.LinearBuckets(10, 10, 10) //nolint:gochecknoglobals // constant buckets

// NewManager creates a Manager and registers its collectors. Callers other
// than the package singleton should pass WithPrometheusRegistry so repeated
// construction does not collide on one registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "atscore",
		subsystem:        "analysis",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         customRegistry,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	b := m.histogramBuckets

	m.analysesSubmitted = m.counter("submitted_total", "Analyses accepted for processing")
	m.analysesCompleted = m.counter("completed_total", "Analyses that produced a report")
	m.analysesFailed = m.counter("failed_total", "Analyses rejected or failed")
	m.analysesDuplicate = m.counter("duplicate_total", "Submissions matching an earlier request")
	m.analysisLatency = m.histogram("latency_milliseconds", "End to end analysis latency in milliseconds", b)
	m.stageLatency = m.histogramVec("stage_latency_milliseconds", "Pipeline stage latency in milliseconds", "stage")
	m.atsScore = m.histogram("ats_score", "Distribution of calibrated ATS scores", scoreBuckets)
	m.lastATSScore = m.gauge("last_ats_score", "ATS score of the most recent analysis")
	m.missingKeywords = m.histogram("missing_keywords", "Ranked missing keywords per analysis", prometheus.LinearBuckets(0, 5, 11))

	m.extractionAttempts = m.counterVec("extraction_attempts_total", "Text extraction attempts by strategy and outcome", "strategy", "outcome")
	m.suggestionSource = m.counterVec("suggestions_total", "Suggestion lists by producing source", "source")
	m.generatorFailures = m.counter("generator_failures_total", "Generative suggestion calls that fell back to rules")
	m.amqpMessages = m.counterVec("amqp_messages_total", "AMQP deliveries by outcome", "outcome")

	m.storeRecords = m.gauge("store_records", "Reports held in the report store")
	m.storeRanked = m.gauge("store_ranked", "Completed reports in the ranking index")
	m.storeUpdateLatency = m.histogram("store_update_latency_milliseconds", "Report store write latency in milliseconds", b)
	m.storeQueryLatency = m.histogram("store_query_latency_milliseconds", "Report store read latency in milliseconds", b)
	m.storeSnapshotDuration = m.histogram("store_snapshot_duration_milliseconds", "Time to rebuild a score distribution snapshot", b)
	m.storeSnapshotLastUnix = m.gauge("store_snapshot_last_unix", "Unix time of the last published snapshot")
	m.storeSnapshotCount = m.counter("store_snapshots_total", "Snapshots published")

	m.queueSize = m.gauge("queue_size", "Jobs waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Jobs enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Jobs rejected by the queue")
	m.queueProcessingLatency = m.histogram("queue_enqueue_latency_milliseconds", "Enqueue latency in milliseconds", b)

	m.workerCount = m.gauge("worker_count", "Configured workers")
	m.workerActiveCount = m.gauge("worker_active", "Workers currently running an analysis")
	m.workerIdleCount = m.gauge("worker_idle", "Workers waiting for a job")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Time a worker spends on one job", b)
	m.workerErrors = m.counter("worker_errors_total", "Jobs that ended in an error")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorsByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "HTTP errors by endpoint", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds", "Latency of failed operations", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Live goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordAnalysisSubmitted counts an accepted submission.
func RecordAnalysisSubmitted() { globalManager.analysesSubmitted.Inc() }

// RecordAnalysisDuplicate counts a repeated submission.
func RecordAnalysisDuplicate() { globalManager.analysesDuplicate.Inc() }

// RecordAnalysisFailed counts a failed analysis.
func RecordAnalysisFailed() { globalManager.analysesFailed.Inc() }

// RecordAnalysisCompleted records a finished analysis with its score,
// missing keyword count and latency.
func RecordAnalysisCompleted(score, missingKeywords int, latencyMs float64) {
	globalManager.analysesCompleted.Inc()
	globalManager.atsScore.Observe(float64(score))
	globalManager.lastATSScore.Set(float64(score))
	globalManager.missingKeywords.Observe(float64(missingKeywords))
	globalManager.analysisLatency.Observe(latencyMs)
}

// RecordStageLatency records the latency of one pipeline stage.
func RecordStageLatency(stage string, latencyMs float64) {
	globalManager.stageLatency.WithLabelValues(stage).Observe(latencyMs)
}

// RecordExtraction counts an extraction attempt.
func RecordExtraction(strategy string, ok bool) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	globalManager.extractionAttempts.WithLabelValues(strategy, outcome).Inc()
}

// RecordSuggestionSource counts which path produced a suggestion list.
func RecordSuggestionSource(source string) {
	globalManager.suggestionSource.WithLabelValues(source).Inc()
}

// RecordGeneratorFailure counts a generator fallback.
func RecordGeneratorFailure() { globalManager.generatorFailures.Inc() }

// RecordAMQPMessage counts a delivery by outcome (ack, requeue, reject).
func RecordAMQPMessage(outcome string) {
	globalManager.amqpMessages.WithLabelValues(outcome).Inc()
}

// UpdateStoreCounts sets the report store gauges.
func UpdateStoreCounts(records, ranked int) {
	globalManager.storeRecords.Set(float64(records))
	globalManager.storeRanked.Set(float64(ranked))
}

// RecordStoreUpdateLatency records a report store write.
func RecordStoreUpdateLatency(latencyMs float64) { globalManager.storeUpdateLatency.Observe(latencyMs) }

// RecordStoreQueryLatency records a report store read.
func RecordStoreQueryLatency(latencyMs float64) { globalManager.storeQueryLatency.Observe(latencyMs) }

// RecordStoreSnapshot records a published snapshot.
func RecordStoreSnapshot(durationMs float64, unix int64) {
	globalManager.storeSnapshotDuration.Observe(durationMs)
	globalManager.storeSnapshotLastUnix.Set(float64(unix))
	globalManager.storeSnapshotCount.Inc()
}

// UpdateQueueSize sets the queue size and utilization.
func UpdateQueueSize(size, capacity int) {
	globalManager.queueSize.Set(float64(size))
	if capacity > 0 {
		globalManager.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue counts an enqueued job.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue counts a dequeued job.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError counts a rejected job.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// RecordQueueProcessingLatency records enqueue latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// UpdateWorkerActivity sets busy and idle worker gauges.
func UpdateWorkerActivity(active, idle int) {
	globalManager.workerActiveCount.Set(float64(active))
	globalManager.workerIdleCount.Set(float64(idle))
}

// RecordWorkerProcessingLatency records the time spent on one job.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed job.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent counts an error raised by a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType counts an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint counts an HTTP error by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of a failed operation.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets allocated heap bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records the average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the registry backing the package metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
