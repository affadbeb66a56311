package memory

import (
	"testing"

	"github.com/discochess/bucketreader/internal/objectstore/cachedstore/cachestrategy/lru"
	"github.com/discochess/bucketreader/internal/stats"
)

func TestBackend_GetSet(t *testing.T) {
	strategy, err := lru.New(10)
	if err != nil {
		t.Fatalf("lru.New() error = %v", err)
	}
	b := New(strategy, nil)

	// Initially empty.
	if _, ok := b.Get("a"); ok {
		t.Error("Get() should return false for missing key")
	}

	// Set and get.
	b.Set("a", []byte("hello"))
	data, ok := b.Get("a")
	if !ok {
		t.Error("Get() should return true after Set")
	}
	if string(data) != "hello" {
		t.Errorf("Get() = %q, want %q", data, "hello")
	}
}

func TestBackend_Stats(t *testing.T) {
	strategy, err := lru.New(10)
	if err != nil {
		t.Fatalf("lru.New() error = %v", err)
	}
	b := New(strategy, nil)

	b.Set("a", []byte("data"))

	// Hit.
	b.Get("a")
	// Miss.
	b.Get("b")

	stats := b.Stats()
	if stats.Hits != 1 {
		t.Errorf("Stats().Hits = %d, want 1", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Stats().Misses = %d, want 1", stats.Misses)
	}
	if stats.Size != 1 {
		t.Errorf("Stats().Size = %d, want 1", stats.Size)
	}
}

func TestBackend_LRUEviction(t *testing.T) {
	strategy, err := lru.New(2) // Capacity of 2.
	if err != nil {
		t.Fatalf("lru.New() error = %v", err)
	}
	b := New(strategy, nil)

	b.Set("a", []byte("one"))
	b.Set("b", []byte("two"))
	b.Set("c", []byte("three")) // Should evict "a".

	if _, ok := b.Get("a"); ok {
		t.Error(`Get("a") should return false after eviction`)
	}
	if _, ok := b.Get("b"); !ok {
		t.Error(`Get("b") should return true`)
	}
	if _, ok := b.Get("c"); !ok {
		t.Error(`Get("c") should return true`)
	}
}

func TestLRU_InvalidCapacity(t *testing.T) {
	_, err := lru.New(0)
	if err == nil {
		t.Error("lru.New(0) should return error")
	}

	_, err = lru.New(-1)
	if err == nil {
		t.Error("lru.New(-1) should return error")
	}
}

// fakeStrategy is a simple strategy for testing injection.
type fakeStrategy struct {
	data map[string][]byte
}

func (s *fakeStrategy) Get(key string) ([]byte, bool) {
	v, ok := s.data[key]
	return v, ok
}

func (s *fakeStrategy) Add(key string, value []byte) bool {
	s.data[key] = value
	return true
}

func (s *fakeStrategy) Len() int {
	return len(s.data)
}

func (s *fakeStrategy) Bytes() int64 {
	var n int64
	for _, v := range s.data {
		n += int64(len(v))
	}
	return n
}

func TestBackend_InjectableStrategy(t *testing.T) {
	strategy := &fakeStrategy{data: make(map[string][]byte)}
	b := New(strategy, nil)

	b.Set("a", []byte("test"))
	data, ok := b.Get("a")
	if !ok || string(data) != "test" {
		t.Error("injectable strategy should work")
	}
}

// countingCollector records counter and gauge values by metric name.
type countingCollector struct {
	stats.Noop
	counters map[string]int64
	gauges   map[string]int64
}

func (c *countingCollector) IncCounter(name string, delta int64) { c.counters[name] += delta }
func (c *countingCollector) SetGauge(name string, value int64)   { c.gauges[name] = value }

func TestBackend_ReportsMetrics(t *testing.T) {
	strategy, err := lru.New(10)
	if err != nil {
		t.Fatalf("lru.New() error = %v", err)
	}
	collector := &countingCollector{counters: map[string]int64{}, gauges: map[string]int64{}}
	b := New(strategy, collector)

	b.Set("a", []byte("one"))
	b.Set("b", []byte("two"))
	b.Get("a")
	b.Get("missing")

	if got := collector.counters[stats.MetricCacheHits]; got != 1 {
		t.Errorf("%s = %d, want 1", stats.MetricCacheHits, got)
	}
	if got := collector.counters[stats.MetricCacheMisses]; got != 1 {
		t.Errorf("%s = %d, want 1", stats.MetricCacheMisses, got)
	}
	if got := collector.gauges[stats.MetricCacheSize]; got != 2 {
		t.Errorf("%s = %d, want 2", stats.MetricCacheSize, got)
	}
	if got := collector.gauges[stats.MetricCacheBytes]; got != 6 {
		t.Errorf("%s = %d, want 6", stats.MetricCacheBytes, got)
	}
}

func TestBackend_ByteAccounting(t *testing.T) {
	strategy, err := lru.New(2)
	if err != nil {
		t.Fatalf("lru.New() error = %v", err)
	}
	collector := &countingCollector{counters: map[string]int64{}, gauges: map[string]int64{}}
	b := New(strategy, collector)

	b.Set("a", make([]byte, 10))
	b.Set("b", make([]byte, 20))
	if got := b.Stats().Bytes; got != 30 {
		t.Errorf("Stats().Bytes = %d, want 30", got)
	}

	// Replacing a value accounts only the new payload.
	b.Set("a", make([]byte, 5))
	if got := b.Stats().Bytes; got != 25 {
		t.Errorf("Stats().Bytes after replace = %d, want 25", got)
	}

	// "b" is least recently used and gets evicted.
	b.Set("c", make([]byte, 1))
	if got := b.Stats().Bytes; got != 6 {
		t.Errorf("Stats().Bytes after eviction = %d, want 6", got)
	}
	if got := collector.counters[stats.MetricCacheEvictions]; got != 1 {
		t.Errorf("%s = %d, want 1", stats.MetricCacheEvictions, got)
	}
	if got := collector.gauges[stats.MetricCacheBytes]; got != 6 {
		t.Errorf("%s = %d, want 6", stats.MetricCacheBytes, got)
	}
}

func TestBackend_MaxObjectSize(t *testing.T) {
	strategy, err := lru.New(10)
	if err != nil {
		t.Fatalf("lru.New() error = %v", err)
	}
	collector := &countingCollector{counters: map[string]int64{}, gauges: map[string]int64{}}
	b := New(strategy, collector, WithMaxObjectSize(4))

	b.Set("small", []byte("tiny"))
	b.Set("large", []byte("too large"))

	if _, ok := b.Get("small"); !ok {
		t.Error(`Get("small") should return true`)
	}
	if _, ok := b.Get("large"); ok {
		t.Error(`Get("large") should return false for payloads over the limit`)
	}
	if got := collector.counters[stats.MetricCacheSkipped]; got != 1 {
		t.Errorf("%s = %d, want 1", stats.MetricCacheSkipped, got)
	}
}
