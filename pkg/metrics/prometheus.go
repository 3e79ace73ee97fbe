// Package metrics provides Prometheus metrics for the passlog service.
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

// Manager manages all Prometheus metrics for the passlog service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Core business metrics
	tripsOpened           prometheus.Counter
	tripsClosed           prometheus.Counter
	confirmationsRequired prometheus.Counter
	overridesUsed         prometheus.Counter
	unmatchedBacks        prometheus.Counter
	duplicateSubmissions  prometheus.Counter
	archiveReconciled     prometheus.Counter

	// Migration metrics
	migrationRuns prometheus.Counter
	migratedRows  prometheus.Counter

	// Storage metrics
	storageErrors       prometheus.Counter
	lockTimeouts        prometheus.Counter
	partitionRows       *prometheus.GaugeVec
	openTrips           *prometheus.GaugeVec
	archivedRowsTotal   prometheus.Gauge
	storageQueryLatency prometheus.Histogram
	storageWriteLatency prometheus.Histogram

	// HTTP metrics
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
		namespace:        "passlog",
		subsystem:        "hallpass",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.tripsOpened = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trips_opened_total",
		Help:      "Total number of Out transitions recorded",
	})

	m.tripsClosed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trips_closed_total",
		Help:      "Total number of Back transitions that closed an open trip",
	})

	m.confirmationsRequired = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "confirmations_required_total",
		Help:      "Total number of Out requests held for threshold confirmation",
	})

	m.overridesUsed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "overrides_used_total",
		Help:      "Total number of Out transitions recorded past the threshold via override",
	})

	m.unmatchedBacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "unmatched_backs_total",
		Help:      "Total number of Back requests with no open trip in any store",
	})

	m.duplicateSubmissions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicate_submissions_total",
		Help:      "Total number of transition requests suppressed as duplicate submits",
	})

	m.archiveReconciled = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "archive_reconciled_total",
		Help:      "Total number of Back transitions applied to already-archived rows",
	})

	m.migrationRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "migration_runs_total",
		Help:      "Total number of archive migration runs",
	})

	m.migratedRows = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "migrated_rows_total",
		Help:      "Total number of rows moved from working partitions to the archive",
	})

	m.storageErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "storage_errors_total",
		Help:      "Total number of partition or archive storage failures",
	})

	m.lockTimeouts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "lock_timeouts_total",
		Help:      "Total number of writer lock acquisitions that timed out",
	})

	m.partitionRows = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "partition_rows",
			Help:      "Current number of data rows per working partition",
		},
		[]string{"partition"},
	)

	m.openTrips = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "open_trips",
			Help:      "Current number of open trips per working partition",
		},
		[]string{"partition"},
	)

	m.archivedRowsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "archived_rows_total",
		Help:      "Total number of rows in the archive",
	})

	m.storageQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "storage_query_latency_milliseconds",
		Help:      "Storage read operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storageWriteLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "storage_write_latency_milliseconds",
		Help:      "Storage write operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// RecordTripOpened increments the opened trips counter.
func RecordTripOpened() {
	globalManager.tripsOpened.Inc()
}

// RecordTripClosed increments the closed trips counter.
func RecordTripClosed() {
	globalManager.tripsClosed.Inc()
}

// RecordConfirmationRequired increments the threshold confirmation counter.
func RecordConfirmationRequired() {
	globalManager.confirmationsRequired.Inc()
}

// RecordOverrideUsed increments the override counter.
func RecordOverrideUsed() {
	globalManager.overridesUsed.Inc()
}

// RecordUnmatchedBack increments the unmatched Back counter.
func RecordUnmatchedBack() {
	globalManager.unmatchedBacks.Inc()
}

// RecordDuplicateSubmission increments the duplicate submission counter.
func RecordDuplicateSubmission() {
	globalManager.duplicateSubmissions.Inc()
}

// RecordArchiveReconciled increments the archive reconciliation counter.
func RecordArchiveReconciled() {
	globalManager.archiveReconciled.Inc()
}

// RecordMigrationRun increments the migration run counter.
func RecordMigrationRun() {
	globalManager.migrationRuns.Inc()
}

// RecordMigratedRows adds n to the migrated rows counter.
func RecordMigratedRows(n int) {
	globalManager.migratedRows.Add(float64(n))
}

// RecordStorageError increments the storage error counter.
func RecordStorageError() {
	globalManager.storageErrors.Inc()
}

// RecordLockTimeout increments the lock timeout counter.
func RecordLockTimeout() {
	globalManager.lockTimeouts.Inc()
}

// UpdatePartitionRows sets the row count gauge for a partition.
func UpdatePartitionRows(partition string, count int) {
	globalManager.partitionRows.WithLabelValues(partition).Set(float64(count))
}

// UpdateOpenTrips sets the open trip gauge for a partition.
func UpdateOpenTrips(partition string, count int) {
	globalManager.openTrips.WithLabelValues(partition).Set(float64(count))
}

// UpdateArchivedRows sets the archive size gauge.
func UpdateArchivedRows(count int) {
	globalManager.archivedRowsTotal.Set(float64(count))
}

// RecordStorageQueryLatency records a storage read latency in milliseconds.
func RecordStorageQueryLatency(latencyMs float64) {
	globalManager.storageQueryLatency.Observe(latencyMs)
}

// RecordStorageWriteLatency records a storage write latency in milliseconds.
func RecordStorageWriteLatency(latencyMs float64) {
	globalManager.storageWriteLatency.Observe(latencyMs)
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
