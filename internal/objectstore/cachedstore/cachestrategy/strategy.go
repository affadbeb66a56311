// Package cachestrategy defines cache eviction strategy interfaces.
package cachestrategy

// Strategy holds object payloads under string keys and decides which to
// evict when full.
type Strategy interface {
	Get(key string) ([]byte, bool)
	// Add stores value under key and reports whether an entry was evicted.
	Add(key string, value []byte) bool
	// Len returns the number of entries held.
	Len() int
	// Bytes returns the total payload size held.
	Bytes() int64
}
