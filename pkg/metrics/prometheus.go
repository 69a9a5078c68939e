// Package metrics provides Prometheus metrics for the scoreline service.
package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Ranking
	recomputesTotal    *prometheus.CounterVec
	recomputeLatency   prometheus.Histogram
	recomputeErrors    *prometheus.CounterVec
	recomputesSkipped  prometheus.Counter
	predictionsScored  prometheus.Counter
	predictionsSkipped *prometheus.CounterVec
	usersRanked        prometheus.Gauge
	usersDropped       prometheus.Gauge
	finalizedGames     prometheus.Gauge

	// Submissions
	submissionsAccepted  *prometheus.CounterVec
	submissionsDuplicate *prometheus.CounterVec
	submissionsRejected  *prometheus.CounterVec

	// Snapshot sources and sinks
	sourceLoadLatency *prometheus.HistogramVec
	publishTotal      *prometheus.CounterVec
	feedMessages      *prometheus.CounterVec
	standingsVersion  prometheus.Gauge

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueTotal  prometheus.Counter
	queueDequeueTotal  prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	queueCoalesced     prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec
}

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

var globalManager atomic.Pointer[Manager] //nolint:gochecknoglobals // singleton used by the Record helpers

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager.Store(NewManager(WithPrometheusRegistry(customRegistry)))
}

// NewManager creates and registers every collector.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "scoreline",
		subsystem:        "leaderboard",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
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

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.recomputesTotal = m.counterVec("recomputes_total", "Standings recomputations by trigger", "trigger")
	m.recomputeLatency = m.histogram("recompute_latency_milliseconds", "Time to load a snapshot, rank and publish")
	m.recomputeErrors = m.counterVec("recompute_errors_total", "Failed recomputations by stage", "stage")
	m.recomputesSkipped = m.counter("recomputes_skipped_total", "Recompute requests already covered by a newer publish")
	m.predictionsScored = m.counter("predictions_scored_total", "Predictions that produced a points value")
	m.predictionsSkipped = m.counterVec("predictions_skipped_total", "Predictions left out of scoring by reason", "reason")
	m.usersRanked = m.gauge("users_ranked", "Users in the latest standings")
	m.usersDropped = m.gauge("users_dropped_no_profile", "Users left out of the latest standings for lack of a profile")
	m.finalizedGames = m.gauge("finalized_games", "Games with a final result in the latest snapshot")

	m.submissionsAccepted = m.counterVec("submissions_accepted_total", "Accepted submissions by kind", "kind")
	m.submissionsDuplicate = m.counterVec("submissions_duplicate_total", "Submissions ignored as duplicates by kind", "kind")
	m.submissionsRejected = m.counterVec("submissions_rejected_total", "Submissions failing validation by kind", "kind")

	m.sourceLoadLatency = m.histogramVec("source_load_latency_milliseconds", "Snapshot load latency by source", "source")
	m.publishTotal = m.counterVec("publish_total", "Standings publications by sink and status", "sink", "status")
	m.feedMessages = m.counterVec("feed_messages_total", "Feed messages by type and status", "type", "status")
	m.standingsVersion = m.gauge("standings_version", "Version of the latest published standings")

	m.queueSize = m.gauge("queue_size", "Current size of the recompute queue")
	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the recompute queue")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.queueEnqueueTotal = m.counter("queue_enqueue_total", "Triggers enqueued")
	m.queueDequeueTotal = m.counter("queue_dequeue_total", "Triggers dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Triggers rejected by the queue")
	m.queueCoalesced = m.counter("queue_coalesced_total", "Triggers merged into an earlier pending trigger")

	m.workerCount = m.gauge("worker_count", "Configured worker goroutines")
	m.workerActiveCount = m.gauge("worker_active_count", "Workers currently processing a trigger")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Time a worker spends on one trigger")
	m.workerErrors = m.counter("worker_errors_total", "Triggers whose processing failed")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration", "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "HTTP errors by endpoint, method and type", "endpoint", "method", "error_type")
}

func g() *Manager { return globalManager.Load() }

// RecordRecompute counts a recomputation and its latency.
func RecordRecompute(trigger string, latencyMs float64) {
	g().recomputesTotal.WithLabelValues(trigger).Inc()
	g().recomputeLatency.Observe(latencyMs)
}

// RecordRecomputeError counts a failed recomputation.
func RecordRecomputeError(stage string) {
	g().recomputeErrors.WithLabelValues(stage).Inc()
}

// RecordRecomputeSkipped counts a coalesced recompute request.
func RecordRecomputeSkipped() {
	g().recomputesSkipped.Inc()
}

// RecordPredictionsScored adds n scored predictions.
func RecordPredictionsScored(n int) {
	g().predictionsScored.Add(float64(n))
}

// RecordPredictionsSkipped adds n skipped predictions for reason.
func RecordPredictionsSkipped(reason string, n int) {
	g().predictionsSkipped.WithLabelValues(reason).Add(float64(n))
}

// UpdateUsersRanked sets the size of the latest standings.
func UpdateUsersRanked(count int) {
	g().usersRanked.Set(float64(count))
}

// UpdateUsersDropped sets the number of users dropped for lack of a profile.
func UpdateUsersDropped(count int) {
	g().usersDropped.Set(float64(count))
}

// UpdateFinalizedGames sets the finalized game count.
func UpdateFinalizedGames(count int) {
	g().finalizedGames.Set(float64(count))
}

// RecordSubmissionAccepted counts an accepted submission.
func RecordSubmissionAccepted(kind string) {
	g().submissionsAccepted.WithLabelValues(kind).Inc()
}

// RecordSubmissionDuplicate counts a duplicate submission.
func RecordSubmissionDuplicate(kind string) {
	g().submissionsDuplicate.WithLabelValues(kind).Inc()
}

// RecordSubmissionRejected counts an invalid submission.
func RecordSubmissionRejected(kind string) {
	g().submissionsRejected.WithLabelValues(kind).Inc()
}

// RecordSourceLoad records how long a snapshot load took.
func RecordSourceLoad(source string, latencyMs float64) {
	g().sourceLoadLatency.WithLabelValues(source).Observe(latencyMs)
}

// RecordPublish counts a standings publication to sink.
func RecordPublish(sink, status string) {
	g().publishTotal.WithLabelValues(sink, status).Inc()
}

// RecordFeedMessage counts a feed message.
func RecordFeedMessage(msgType, status string) {
	g().feedMessages.WithLabelValues(msgType, status).Inc()
}

// UpdateStandingsVersion sets the latest published version.
func UpdateStandingsVersion(version uint64) {
	g().standingsVersion.Set(float64(version))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	g().queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	g().queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	g().queueUtilization.Set(utilization)
}

// RecordQueueEnqueue counts an enqueued trigger.
func RecordQueueEnqueue() {
	g().queueEnqueueTotal.Inc()
}

// RecordQueueDequeue counts a dequeued trigger.
func RecordQueueDequeue() {
	g().queueDequeueTotal.Inc()
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError() {
	g().queueEnqueueErrors.Inc()
}

// RecordQueueCoalesced counts triggers merged away by the queue.
func RecordQueueCoalesced(n int) {
	g().queueCoalesced.Add(float64(n))
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	g().workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	g().workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency observes the time spent on one trigger.
func RecordWorkerProcessingLatency(latencyMs float64) {
	g().workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed trigger.
func RecordWorkerError() {
	g().workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	g().httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	g().httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent counts an error raised by component.
func RecordErrorByComponent(component, errorType string) {
	g().errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint counts an HTTP error response.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	g().errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Handler serves the custom registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}
