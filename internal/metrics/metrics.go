package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scheduler metrics
var (
	SchedulerEnqueuesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "content_indexer_scheduler_enqueues_total",
			Help: "Total number of work items enqueued for indexing",
		},
	)

	SchedulerBatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "content_indexer_scheduler_batches_total",
			Help: "Total number of drain passes executed by the worker",
		},
	)

	SchedulerBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "content_indexer_scheduler_batch_size",
			Help:    "Number of work items in each drained batch",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	SchedulerItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_indexer_scheduler_items_total",
			Help: "Total number of work items processed, by outcome",
		},
		[]string{"outcome"},
	)

	SchedulerFixupsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "content_indexer_scheduler_fixups_total",
			Help: "Total number of fixup retries scheduled",
		},
	)

	SchedulerQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "content_indexer_scheduler_queue_depth",
			Help: "Current depth of the worker task queue",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_indexer_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "content_indexer_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_indexer_db_retries_total",
			Help: "Total number of retried database operations due to lock contention",
		},
		[]string{"operation"},
	)

	DBPrunedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_indexer_db_pruned_records_total",
			Help: "Total number of records removed because their file disappeared",
		},
		[]string{"kind"},
	)
)

// Tree scanner metrics
var (
	TreeScanRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "content_indexer_treescan_runs_total",
			Help: "Total number of full-tree reconciliation scans",
		},
	)

	TreeScanLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "content_indexer_treescan_last_run_timestamp",
			Help: "Timestamp of the last full-tree scan",
		},
	)

	TreeScanDirectoriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "content_indexer_treescan_directories_total",
			Help: "Total number of directories visited by tree scans",
		},
	)

	TreeScanChangedFiles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "content_indexer_treescan_changed_files_total",
			Help: "Total number of files whose fingerprint differed from the store",
		},
	)
)

// Watcher metrics
var (
	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_indexer_watcher_events_total",
			Help: "Total number of filesystem events observed",
		},
		[]string{"op"},
	)

	WatcherErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "content_indexer_watcher_errors_total",
			Help: "Total number of errors reported by the filesystem watcher",
		},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_indexer_fs_retry_attempts_total",
			Help: "Total number of filesystem operation retries",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_indexer_fs_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation"},
	)
)
