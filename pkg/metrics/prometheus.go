// Package metrics provides Prometheus metrics for the split estimation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Estimation
	rowsParsed         prometheus.Counter
	rowsRejected       *prometheus.CounterVec
	rowsPatched        prometheus.Counter
	segmentsEstimated  *prometheus.CounterVec
	cohortsProcessed   prometheus.Counter
	cohortErrors       *prometheus.CounterVec
	estimationDuration prometheus.Histogram

	// Watch pipeline
	jobsEnqueued  prometheus.Counter
	jobsDuplicate prometheus.Counter
	jobsProcessed prometheus.Counter
	jobsFailed    prometheus.Counter
	queueSize     prometheus.Gauge
	workerCount   prometheus.Gauge
	storedReports prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
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
		namespace:        "splits",
		subsystem:        "estimator",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
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

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.rowsParsed = m.counter("rows_parsed_total", "Rows whose duration columns parsed successfully")
	m.rowsRejected = m.counterVec("rows_rejected_total", "Rows rejected during parsing or estimation", "reason")
	m.rowsPatched = m.counter("rows_patched_total", "Rows that received at least one estimated segment")
	m.segmentsEstimated = m.counterVec("segments_estimated_total", "Segment values filled in by estimation", "segment")
	m.cohortsProcessed = m.counter("cohorts_processed_total", "Cohorts estimated successfully")
	m.cohortErrors = m.counterVec("cohort_errors_total", "Cohorts that failed as a whole", "reason")
	m.estimationDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "estimation_duration_seconds",
		Help:        "Time to parse, estimate and render one cohort",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.jobsEnqueued = m.counter("jobs_enqueued_total", "Watch jobs accepted onto the queue")
	m.jobsDuplicate = m.counter("jobs_duplicate_total", "Watch events ignored because the file version was already seen")
	m.jobsProcessed = m.counter("jobs_processed_total", "Watch jobs completed")
	m.jobsFailed = m.counter("jobs_failed_total", "Watch jobs that failed")
	m.queueSize = m.gauge("queue_size", "Current number of queued jobs")
	m.workerCount = m.gauge("worker_count", "Number of running workers")
	m.storedReports = m.gauge("stored_reports", "Reports held in the report store")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_seconds",
		Help:        "HTTP request duration",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
}

// RecordRowsParsed adds n successfully parsed rows.
func (m *Manager) RecordRowsParsed(n int) { m.rowsParsed.Add(float64(n)) }

// RecordRowRejected counts one rejected row by reason.
func (m *Manager) RecordRowRejected(reason string) { m.rowsRejected.WithLabelValues(reason).Inc() }

// RecordRowsPatched adds n patched rows.
func (m *Manager) RecordRowsPatched(n int) { m.rowsPatched.Add(float64(n)) }

// RecordSegmentEstimated counts one estimated value for segment.
func (m *Manager) RecordSegmentEstimated(segment string) {
	m.segmentsEstimated.WithLabelValues(segment).Inc()
}

// RecordCohortProcessed counts one successful cohort and its duration.
func (m *Manager) RecordCohortProcessed(seconds float64) {
	m.cohortsProcessed.Inc()
	m.estimationDuration.Observe(seconds)
}

// RecordCohortError counts one failed cohort by reason.
func (m *Manager) RecordCohortError(reason string) { m.cohortErrors.WithLabelValues(reason).Inc() }

// RecordJobEnqueued counts one accepted job.
func (m *Manager) RecordJobEnqueued() { m.jobsEnqueued.Inc() }

// RecordJobDuplicate counts one ignored duplicate job.
func (m *Manager) RecordJobDuplicate() { m.jobsDuplicate.Inc() }

// RecordJobProcessed counts one completed job.
func (m *Manager) RecordJobProcessed() { m.jobsProcessed.Inc() }

// RecordJobFailed counts one failed job.
func (m *Manager) RecordJobFailed() { m.jobsFailed.Inc() }

// UpdateQueueSize sets the queue length gauge.
func (m *Manager) UpdateQueueSize(n int) { m.queueSize.Set(float64(n)) }

// UpdateWorkerCount sets the worker gauge.
func (m *Manager) UpdateWorkerCount(n int) { m.workerCount.Set(float64(n)) }

// UpdateStoredReports sets the report store gauge.
func (m *Manager) UpdateStoredReports(n int) { m.storedReports.Set(float64(n)) }

// RecordHTTPRequest counts a request and observes its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, seconds float64) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(seconds)
}

// Package-level helpers delegate to the global manager.

func RecordRowsParsed(n int)                { globalManager.RecordRowsParsed(n) }
func RecordRowRejected(reason string)       { globalManager.RecordRowRejected(reason) }
func RecordRowsPatched(n int)               { globalManager.RecordRowsPatched(n) }
func RecordSegmentEstimated(segment string) { globalManager.RecordSegmentEstimated(segment) }
func RecordCohortProcessed(seconds float64) { globalManager.RecordCohortProcessed(seconds) }
func RecordCohortError(reason string)       { globalManager.RecordCohortError(reason) }
func RecordJobEnqueued()                    { globalManager.RecordJobEnqueued() }
func RecordJobDuplicate()                   { globalManager.RecordJobDuplicate() }
func RecordJobProcessed()                   { globalManager.RecordJobProcessed() }
func RecordJobFailed()                      { globalManager.RecordJobFailed() }
func UpdateQueueSize(n int)                 { globalManager.UpdateQueueSize(n) }
func UpdateWorkerCount(n int)               { globalManager.UpdateWorkerCount(n) }
func UpdateStoredReports(n int)             { globalManager.UpdateStoredReports(n) }

// RecordHTTPRequest records one HTTP request on the global manager.
func RecordHTTPRequest(endpoint, method, statusCode string, seconds float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, seconds)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
