// Package cachedstore provides a caching wrapper for object store clients.
package cachedstore

// Backend stores object payloads keyed by bucket and key.
// Implementations own eviction and must be safe for concurrent use, since
// one backend may serve several handles.
type Backend interface {
	// Get returns a cached payload. Callers must not modify it.
	Get(key string) ([]byte, bool)

	// Set stores an object payload in the cache.
	Set(key string, data []byte)

	// Stats returns cache statistics.
	Stats() Stats
}

// Stats contains cache statistics.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int   // Current number of entries
	Bytes  int64 // Summed payload size of current entries
}

// HitRate returns the cache hit rate as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}
