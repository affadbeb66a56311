package cachedstore

import (
	"context"
	"io"
	"testing"

	"github.com/discochess/bucketreader/internal/objectstore"
	"github.com/discochess/bucketreader/internal/objectstore/memstore"
)

// fakeBackend is a simple in-memory backend for testing.
type fakeBackend struct {
	data   map[string][]byte
	hits   int64
	misses int64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{data: make(map[string][]byte)}
}

func (b *fakeBackend) Get(key string) ([]byte, bool) {
	if data, ok := b.data[key]; ok {
		b.hits++
		return data, true
	}
	b.misses++
	return nil, false
}

func (b *fakeBackend) Set(key string, data []byte) {
	b.data[key] = data
}

func (b *fakeBackend) Stats() Stats {
	return Stats{Hits: b.hits, Misses: b.misses, Size: len(b.data)}
}

func readAll(t *testing.T, c objectstore.Client, bucket, key string) string {
	t.Helper()
	body, err := c.GetObject(context.Background(), bucket, key)
	if err != nil {
		t.Fatalf("GetObject() error = %v", err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return string(data)
}

func TestClient_CacheHit(t *testing.T) {
	backend := newFakeBackend()
	underlying := memstore.New()

	// Pre-populate cache.
	backend.Set(cacheKey("bucket", "key"), []byte("cached data"))

	c := New(underlying, backend)

	if got := readAll(t, c, "bucket", "key"); got != "cached data" {
		t.Errorf("GetObject() = %q, want %q", got, "cached data")
	}
	if n := underlying.Calls("bucket", "key"); n != 0 {
		t.Errorf("underlying calls = %d, want 0", n)
	}

	stats := c.Stats()
	if stats.Hits != 1 {
		t.Errorf("Stats().Hits = %d, want 1", stats.Hits)
	}
}

func TestClient_CacheMiss(t *testing.T) {
	backend := newFakeBackend()
	underlying := memstore.New()
	underlying.SetObject("bucket", "key", []byte("underlying data"))

	c := New(underlying, backend)

	for i := 0; i < 3; i++ {
		if got := readAll(t, c, "bucket", "key"); got != "underlying data" {
			t.Errorf("GetObject() = %q, want %q", got, "underlying data")
		}
	}

	if n := underlying.Calls("bucket", "key"); n != 1 {
		t.Errorf("underlying calls = %d, want 1", n)
	}
	if n := underlying.OpenBodies(); n != 0 {
		t.Errorf("underlying bodies left open = %d, want 0", n)
	}

	stats := c.Stats()
	if stats.Misses != 1 || stats.Hits != 2 {
		t.Errorf("Stats() = %+v, want 1 miss and 2 hits", stats)
	}
}

func TestClient_ErrorsNotCached(t *testing.T) {
	backend := newFakeBackend()
	underlying := memstore.New()
	underlying.CreateBucket("bucket")

	c := New(underlying, backend)

	for i := 0; i < 2; i++ {
		_, err := c.GetObject(context.Background(), "bucket", "missing")
		if code, _ := objectstore.Code(err); code != objectstore.CodeNoSuchKey {
			t.Errorf("GetObject() error = %v, want code %s", err, objectstore.CodeNoSuchKey)
		}
	}

	if n := underlying.Calls("bucket", "missing"); n != 2 {
		t.Errorf("underlying calls = %d, want 2", n)
	}
	if len(backend.data) != 0 {
		t.Errorf("cache holds %d entries, want 0", len(backend.data))
	}
}

func TestClient_KeysAreBucketScoped(t *testing.T) {
	underlying := memstore.New()
	underlying.SetObject("a", "key", []byte("from a"))
	underlying.SetObject("b", "key", []byte("from b"))

	c := New(underlying, newFakeBackend())

	if got := readAll(t, c, "a", "key"); got != "from a" {
		t.Errorf("GetObject(a) = %q", got)
	}
	if got := readAll(t, c, "b", "key"); got != "from b" {
		t.Errorf("GetObject(b) = %q", got)
	}
}

func TestClient_Close(t *testing.T) {
	underlying := memstore.New()
	c := New(underlying, newFakeBackend())

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if n := underlying.CloseCalls(); n != 1 {
		t.Errorf("underlying Close calls = %d, want 1", n)
	}
}

func TestStats_HitRate(t *testing.T) {
	tests := []struct {
		name     string
		hits     int64
		misses   int64
		expected float64
	}{
		{"no requests", 0, 0, 0},
		{"all hits", 10, 0, 100},
		{"all misses", 0, 10, 0},
		{"50% hit rate", 5, 5, 50},
		{"75% hit rate", 3, 1, 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Stats{Hits: tt.hits, Misses: tt.misses}
			if got := s.HitRate(); got != tt.expected {
				t.Errorf("HitRate() = %v, want %v", got, tt.expected)
			}
		})
	}
}
