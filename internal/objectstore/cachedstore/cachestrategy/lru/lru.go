// Package lru implements a least-recently-used eviction strategy that also
// accounts for the payload bytes it holds.
package lru

import (
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/discochess/bucketreader/internal/objectstore/cachedstore/cachestrategy"
)

// Compile-time check that Strategy implements cachestrategy.Strategy.
var _ cachestrategy.Strategy = (*Strategy)(nil)

// Strategy implements LRU eviction over at most capacity entries.
type Strategy struct {
	cache *lru.Cache[string, []byte]
	bytes atomic.Int64

	// mu serializes Add so replaced values are accounted once.
	mu sync.Mutex
}

// New creates a new LRU strategy with the given capacity.
func New(capacity int) (*Strategy, error) {
	s := &Strategy{}
	c, err := lru.NewWithEvict(capacity, s.onEvict)
	if err != nil {
		return nil, err
	}
	s.cache = c
	return s, nil
}

// onEvict runs for capacity evictions only; replacements are handled by Add.
func (s *Strategy) onEvict(_ string, value []byte) {
	s.bytes.Add(-int64(len(value)))
}

// Get retrieves a payload and marks it recently used.
func (s *Strategy) Get(key string) ([]byte, bool) {
	return s.cache.Get(key)
}

// Add stores a payload, evicting the least recently used entry if full.
func (s *Strategy) Add(key string, value []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.cache.Peek(key); ok {
		s.bytes.Add(-int64(len(old)))
	}
	s.bytes.Add(int64(len(value)))
	return s.cache.Add(key, value)
}

// Len returns the number of items in the cache.
func (s *Strategy) Len() int {
	return s.cache.Len()
}

// Bytes returns the summed size of cached payloads.
func (s *Strategy) Bytes() int64 {
	return s.bytes.Load()
}
