// Package prometheus provides a Prometheus-based stats collector.
package prometheus

import (
	"errors"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/discochess/bucketreader/internal/stats"
)

// Collector implements stats.Collector using Prometheus metrics.
// Metrics are created and registered on first use.
type Collector struct {
	registry    prometheus.Registerer
	constLabels prometheus.Labels

	mu         sync.RWMutex
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

// Compile-time check that Collector implements stats.Collector.
var _ stats.Collector = (*Collector)(nil)

// Option configures a Collector.
type Option func(*Collector)

// WithConstLabels attaches labels to every metric, e.g. the bucket and
// backend a process reads from.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Collector) {
		c.constLabels = labels
	}
}

// New creates a new Prometheus collector.
// If registry is nil, prometheus.DefaultRegisterer is used.
func New(registry prometheus.Registerer, opts ...Option) *Collector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	c := &Collector{
		registry:   registry,
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IncCounter increments a counter metric.
func (c *Collector) IncCounter(name string, delta int64) {
	counter := getOrCreate(c, c.counters, name, func() prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Name:        name,
			Help:        helpFor(name),
			ConstLabels: c.constLabels,
		})
	})
	counter.Add(float64(delta))
}

// SetGauge sets a gauge metric.
func (c *Collector) SetGauge(name string, value int64) {
	gauge := getOrCreate(c, c.gauges, name, func() prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        name,
			Help:        helpFor(name),
			ConstLabels: c.constLabels,
		})
	})
	gauge.Set(float64(value))
}

// ObserveHistogram records a value in a histogram.
func (c *Collector) ObserveHistogram(name string, value float64) {
	histogram := getOrCreate(c, c.histograms, name, func() prometheus.Histogram {
		return prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        name,
			Help:        helpFor(name),
			ConstLabels: c.constLabels,
			Buckets:     bucketsFor(name),
		})
	})
	histogram.Observe(value)
}

// getOrCreate returns the metric cached under name, creating and registering
// it on first use. A metric already registered elsewhere under the same
// name and labels is adopted instead.
func getOrCreate[M prometheus.Collector](c *Collector, metrics map[string]M, name string, create func() M) M {
	c.mu.RLock()
	metric, ok := metrics[name]
	c.mu.RUnlock()
	if ok {
		return metric
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock.
	if metric, ok = metrics[name]; ok {
		return metric
	}

	metric = create()
	if err := c.registry.Register(metric); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(M); ok {
				metric = existing
			}
		}
		// Otherwise the metric still works, it is just not exported.
	}
	metrics[name] = metric
	return metric
}

var help = map[string]string{
	stats.MetricReads:           "Reads started.",
	stats.MetricAttempts:        "GetObject attempts, including retries.",
	stats.MetricRetries:         "Retryable failures followed by a backoff wait.",
	stats.MetricFound:           "Reads that returned an object.",
	stats.MetricNotFound:        "Reads of objects the store reported missing.",
	stats.MetricFailures:        "Reads that ended in an error.",
	stats.MetricReadBytes:       "Size of objects returned by successful reads.",
	stats.MetricAttemptDuration: "Duration of single GetObject attempts.",
	stats.MetricHandlesOpened:   "Store handles opened.",
	stats.MetricHandlesClosed:   "Store handles closed.",
	stats.MetricCacheHits:       "Payload cache hits.",
	stats.MetricCacheMisses:     "Payload cache misses.",
	stats.MetricCacheSize:       "Entries in the payload cache.",
	stats.MetricCacheBytes:      "Bytes held by the payload cache.",
	stats.MetricCacheEvictions:  "Payloads evicted from the cache.",
	stats.MetricCacheSkipped:    "Payloads too large to cache.",
}

// helpFor returns the help text of a known metric, or its name.
func helpFor(name string) string {
	if h, ok := help[name]; ok {
		return h
	}
	return name
}

// bucketsFor picks histogram buckets from the metric's unit suffix.
func bucketsFor(name string) []float64 {
	if strings.HasSuffix(name, "_bytes") {
		// 256B .. 64MiB
		return prometheus.ExponentialBuckets(256, 4, 10)
	}
	return prometheus.DefBuckets
}
