// Package metrics defines the Prometheus metrics exposed by the content
// indexer: scheduler throughput and queue depth, database query timings and
// retry counts, tree-scan activity, watcher events, and filesystem retries.
//
// All metrics are registered with the default registry via promauto and
// served by the /metrics endpoint.
package metrics
