// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the library.
const (
	// Reader metrics.
	MetricReads           = "bucketreader_reads_total"
	MetricAttempts        = "bucketreader_attempts_total"
	MetricRetries         = "bucketreader_retries_total"
	MetricFound           = "bucketreader_found_total"
	MetricNotFound        = "bucketreader_not_found_total"
	MetricFailures        = "bucketreader_failures_total"
	MetricReadBytes       = "bucketreader_read_bytes"
	MetricAttemptDuration = "bucketreader_attempt_duration_seconds"

	// Handle metrics.
	MetricHandlesOpened = "bucketreader_handles_opened_total"
	MetricHandlesClosed = "bucketreader_handles_closed_total"

	// Cache metrics.
	MetricCacheHits      = "bucketreader_cache_hits_total"
	MetricCacheMisses    = "bucketreader_cache_misses_total"
	MetricCacheSize      = "bucketreader_cache_size"
	MetricCacheBytes     = "bucketreader_cache_bytes"
	MetricCacheEvictions = "bucketreader_cache_evictions_total"
	MetricCacheSkipped   = "bucketreader_cache_skipped_total"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
