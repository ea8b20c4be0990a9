// Package metrics provides Prometheus metrics for the compass service.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Score buckets follow the audit tiers (rejected < 60 <= reservations < 80).
var scoreBuckets = []float64{20, 40, 60, 70, 80, 90, 100} //nolint:gochecknoglobals // fixed bucket layout

// Manager manages all Prometheus metrics for the compass service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// Audits
	auditsCreated      prometheus.Counter
	auditsUpdated      prometheus.Counter
	auditsDeleted      prometheus.Counter
	auditsGenerated    prometheus.Counter
	validationFailures *prometheus.CounterVec
	auditScore         prometheus.Histogram

	// Input collections
	sourceLoads    *prometheus.CounterVec
	sourceFailures *prometheus.CounterVec
	sourceRecords  *prometheus.GaugeVec

	// Key-value store
	storeReadLatency  prometheus.Histogram
	storeWriteLatency prometheus.Histogram
	storeErrors       *prometheus.CounterVec

	// Datasets held in memory by the service
	datasetSize *prometheus.GaugeVec

	errorsByComponent *prometheus.CounterVec
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
		namespace:        "compass",
		subsystem:        "audit",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of metric definitions
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpErrors = auto.NewCounterVec(
		m.counterOpts("http_errors_total", "HTTP error responses by endpoint and error code"),
		[]string{"endpoint", "method", "code"},
	)

	m.auditsCreated = auto.NewCounter(m.counterOpts("audits_created_total", "Audits created through the API or CLI"))
	m.auditsUpdated = auto.NewCounter(m.counterOpts("audits_updated_total", "Audits updated"))
	m.auditsDeleted = auto.NewCounter(m.counterOpts("audits_deleted_total", "Audits deleted"))
	m.auditsGenerated = auto.NewCounter(m.counterOpts("audits_generated_total", "Pending audits synthesised from test cycles"))
	m.validationFailures = auto.NewCounterVec(
		m.counterOpts("validation_failures_total", "Rejected inputs by kind"),
		[]string{"kind"},
	)
	m.auditScore = auto.NewHistogram(m.histogramOpts("audit_score", "Distribution of saved audit scores", scoreBuckets))

	m.sourceLoads = auto.NewCounterVec(
		m.counterOpts("source_loads_total", "Input collection loads by collection and origin"),
		[]string{"collection", "origin"},
	)
	m.sourceFailures = auto.NewCounterVec(
		m.counterOpts("source_failures_total", "Input collection load failures"),
		[]string{"collection"},
	)
	m.sourceRecords = auto.NewGaugeVec(
		m.gaugeOpts("source_records", "Records read by the last load of each collection"),
		[]string{"collection"},
	)

	m.storeReadLatency = auto.NewHistogram(m.histogramOpts("store_read_latency_milliseconds", "Key-value read latency in milliseconds", m.histogramBuckets))
	m.storeWriteLatency = auto.NewHistogram(m.histogramOpts("store_write_latency_milliseconds", "Key-value write latency in milliseconds", m.histogramBuckets))
	m.storeErrors = auto.NewCounterVec(
		m.counterOpts("store_errors_total", "Key-value store errors by operation"),
		[]string{"op"},
	)

	m.datasetSize = auto.NewGaugeVec(
		m.gaugeOpts("dataset_size", "Records currently held per dataset"),
		[]string{"dataset"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method string, statusCode int) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, strconv.Itoa(statusCode)).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method string, statusCode int, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, strconv.Itoa(statusCode)).Observe(durationMs)
}

// RecordHTTPError records an error response.
func RecordHTTPError(endpoint, method, code string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, code).Inc()
}

// RecordAuditCreated increments the created audits counter.
func RecordAuditCreated() {
	globalManager.auditsCreated.Inc()
}

// RecordAuditUpdated increments the updated audits counter.
func RecordAuditUpdated() {
	globalManager.auditsUpdated.Inc()
}

// RecordAuditDeleted increments the deleted audits counter.
func RecordAuditDeleted() {
	globalManager.auditsDeleted.Inc()
}

// RecordAuditsGenerated adds n synthesised audits.
func RecordAuditsGenerated(n int) {
	if n > 0 {
		globalManager.auditsGenerated.Add(float64(n))
	}
}

// RecordValidationFailure counts a rejected input of the given kind.
func RecordValidationFailure(kind string) {
	globalManager.validationFailures.WithLabelValues(kind).Inc()
}

// RecordAuditScore observes a saved audit score.
func RecordAuditScore(score float64) {
	globalManager.auditScore.Observe(score)
}

// RecordSourceLoad counts a successful collection load.
func RecordSourceLoad(collection, origin string) {
	globalManager.sourceLoads.WithLabelValues(collection, origin).Inc()
}

// RecordSourceFailure counts a failed collection load.
func RecordSourceFailure(collection string) {
	globalManager.sourceFailures.WithLabelValues(collection).Inc()
}

// UpdateSourceRecords sets the record count of the last load.
func UpdateSourceRecords(collection string, n int) {
	globalManager.sourceRecords.WithLabelValues(collection).Set(float64(n))
}

// RecordStoreReadLatency records a key-value read latency.
func RecordStoreReadLatency(latencyMs float64) {
	globalManager.storeReadLatency.Observe(latencyMs)
}

// RecordStoreWriteLatency records a key-value write latency.
func RecordStoreWriteLatency(latencyMs float64) {
	globalManager.storeWriteLatency.Observe(latencyMs)
}

// RecordStoreError counts a failed key-value operation.
func RecordStoreError(op string) {
	globalManager.storeErrors.WithLabelValues(op).Inc()
}

// UpdateDatasetSize sets the in-memory size of a dataset.
func UpdateDatasetSize(dataset string, n int) {
	globalManager.datasetSize.WithLabelValues(dataset).Set(float64(n))
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
