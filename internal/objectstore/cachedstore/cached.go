package cachedstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/discochess/bucketreader/internal/objectstore"
)

// Compile-time check that Client implements objectstore.Client.
var _ objectstore.Client = (*Client)(nil)

// Client wraps another Client with a payload cache.
// Only successful reads are cached; errors pass through untouched so
// callers still see the store's error codes.
type Client struct {
	underlying objectstore.Client
	backend    Backend
}

// New creates a new cached client wrapping the given client.
func New(underlying objectstore.Client, backend Backend) *Client {
	return &Client{
		underlying: underlying,
		backend:    backend,
	}
}

// GetObject returns the object body, checking the cache first.
func (c *Client) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	id := cacheKey(bucket, key)

	if data, ok := c.backend.Get(id); ok {
		return io.NopCloser(bytes.NewReader(data)), nil
	}

	// Cache miss - read from underlying client.
	body, err := c.underlying.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("reading object: %w", err)
	}

	c.backend.Set(id, data)

	return io.NopCloser(bytes.NewReader(data)), nil
}

// Close closes the underlying client.
func (c *Client) Close() error {
	return c.underlying.Close()
}

// Stats returns cache statistics.
func (c *Client) Stats() Stats {
	return c.backend.Stats()
}

func cacheKey(bucket, key string) string {
	return bucket + "\x00" + key
}
