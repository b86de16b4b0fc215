// Package metrics provides Prometheus metrics for docvault
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for docvault
type Metrics struct {
	// Versioning metrics
	VersionsCreatedTotal  prometheus.Counter
	VersionConflictsTotal prometheus.Counter
	WriteConflictsTotal   prometheus.Counter
	VersionsPrunedTotal   prometheus.Counter
	PruneFailuresTotal    prometheus.Counter
	RestoresTotal         prometheus.Counter
	ExportsTotal          prometheus.Counter

	// Store metrics
	StoreOperationsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec

	// Diff metrics
	DiffComputeDuration prometheus.Histogram
	DiffChangesTotal    *prometheus.CounterVec

	// Watch mode metrics
	WatchEventsTotal *prometheus.CounterVec
}

// NewMetrics creates all Prometheus metrics and registers them on reg.
// A nil reg registers on the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{}

	// Versioning metrics
	m.VersionsCreatedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "docvault_versions_created_total",
			Help: "Total number of versions created",
		},
	)

	m.VersionConflictsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "docvault_version_conflicts_total",
			Help: "Total number of version number conflicts observed during create",
		},
	)

	m.WriteConflictsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "docvault_write_conflicts_total",
			Help: "Total number of creates abandoned after exhausting conflict retries",
		},
	)

	m.VersionsPrunedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "docvault_versions_pruned_total",
			Help: "Total number of versions removed by retention pruning",
		},
	)

	m.PruneFailuresTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "docvault_prune_failures_total",
			Help: "Total number of retention pruning failures",
		},
	)

	m.RestoresTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "docvault_restores_total",
			Help: "Total number of versions created by restore",
		},
	)

	m.ExportsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "docvault_exports_total",
			Help: "Total number of history exports",
		},
	)

	// Store metrics
	m.StoreOperationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docvault_store_operations_total",
			Help: "Total number of version store operations",
		},
		[]string{"operation", "status"},
	)

	m.StoreOperationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docvault_store_operation_duration_seconds",
			Help:    "Duration of version store operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	// Diff metrics
	m.DiffComputeDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docvault_diff_compute_duration_seconds",
			Help:    "Duration of diff computations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	m.DiffChangesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docvault_diff_changes_total",
			Help: "Total number of diff changes by type",
		},
		[]string{"type"},
	)

	// Watch mode metrics
	m.WatchEventsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docvault_watch_events_total",
			Help: "Total number of file watch events by result",
		},
		[]string{"result"},
	)

	return m
}

// RecordStoreOperation records a version store operation with its status
func (m *Metrics) RecordStoreOperation(operation string, status string, duration time.Duration) {
	m.StoreOperationsTotal.WithLabelValues(operation, status).Inc()
	m.StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordDiff records one diff computation and its change counts
func (m *Metrics) RecordDiff(duration time.Duration, added, removed, modified int) {
	m.DiffComputeDuration.Observe(duration.Seconds())
	m.DiffChangesTotal.WithLabelValues("added").Add(float64(added))
	m.DiffChangesTotal.WithLabelValues("removed").Add(float64(removed))
	m.DiffChangesTotal.WithLabelValues("modified").Add(float64(modified))
}

// RecordWatchEvent records one file watch event outcome
func (m *Metrics) RecordWatchEvent(result string) {
	m.WatchEventsTotal.WithLabelValues(result).Inc()
}
