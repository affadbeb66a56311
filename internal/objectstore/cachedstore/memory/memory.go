// Package memory implements an in-memory cache backend.
package memory

import (
	"sync/atomic"

	"github.com/discochess/bucketreader/internal/objectstore/cachedstore"
	"github.com/discochess/bucketreader/internal/objectstore/cachedstore/cachestrategy"
	"github.com/discochess/bucketreader/internal/stats"
)

// Compile-time check that Backend implements cachedstore.Backend.
var _ cachedstore.Backend = (*Backend)(nil)

// Backend is a thread-safe in-memory cache backend.
type Backend struct {
	strategy      cachestrategy.Strategy
	collector     stats.Collector
	maxObjectSize int

	hits   atomic.Int64
	misses atomic.Int64
}

// Option configures a Backend.
type Option func(*Backend)

// WithMaxObjectSize stops payloads larger than n bytes from being cached.
func WithMaxObjectSize(n int) Option {
	return func(b *Backend) {
		b.maxObjectSize = n
	}
}

// New creates a new memory backend with the given eviction strategy.
// The collector is optional; if nil, a no-op collector is used.
func New(strategy cachestrategy.Strategy, collector stats.Collector, opts ...Option) *Backend {
	if collector == nil {
		collector = stats.NewNoop()
	}
	b := &Backend{
		strategy:  strategy,
		collector: collector,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Get retrieves an object payload from the cache.
func (b *Backend) Get(key string) ([]byte, bool) {
	val, ok := b.strategy.Get(key)
	if ok {
		b.hits.Add(1)
		b.collector.IncCounter(stats.MetricCacheHits, 1)
		return val, true
	}
	b.misses.Add(1)
	b.collector.IncCounter(stats.MetricCacheMisses, 1)
	return nil, false
}

// Set stores an object payload in the cache, unless it is over the size limit.
func (b *Backend) Set(key string, data []byte) {
	if b.maxObjectSize > 0 && len(data) > b.maxObjectSize {
		b.collector.IncCounter(stats.MetricCacheSkipped, 1)
		return
	}

	if b.strategy.Add(key, data) {
		b.collector.IncCounter(stats.MetricCacheEvictions, 1)
	}
	b.collector.SetGauge(stats.MetricCacheSize, int64(b.strategy.Len()))
	b.collector.SetGauge(stats.MetricCacheBytes, b.strategy.Bytes())
}

// Stats returns current cache statistics.
func (b *Backend) Stats() cachedstore.Stats {
	return cachedstore.Stats{
		Hits:   b.hits.Load(),
		Misses: b.misses.Load(),
		Size:   b.strategy.Len(),
		Bytes:  b.strategy.Bytes(),
	}
}
