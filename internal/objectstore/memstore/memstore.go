// Package memstore provides an in-memory object store client for testing.
package memstore

import (
	"bytes"
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/discochess/bucketreader/internal/objectstore"
)

// Compile-time check that Client implements objectstore.Client.
var _ objectstore.Client = (*Client)(nil)

// Client is an in-memory object store for testing.
// Failures can be scripted per object to exercise retry paths.
type Client struct {
	mu       sync.Mutex
	buckets  map[string]map[string][]byte
	failures map[string][]error
	calls    map[string]int

	opened atomic.Int64
	closed atomic.Int64
	shut   atomic.Int64
}

// New creates a new in-memory client.
func New() *Client {
	return &Client{
		buckets:  make(map[string]map[string][]byte),
		failures: make(map[string][]error),
		calls:    make(map[string]int),
	}
}

// CreateBucket creates an empty bucket (for test setup).
func (c *Client) CreateBucket(bucket string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.buckets[bucket]; !ok {
		c.buckets[bucket] = make(map[string][]byte)
	}
}

// SetObject stores data under key, creating the bucket if needed.
// The data is copied to prevent caller mutations from affecting the store.
func (c *Client) SetObject(bucket, key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	objects, ok := c.buckets[bucket]
	if !ok {
		objects = make(map[string][]byte)
		c.buckets[bucket] = objects
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	objects[key] = copied
}

// FailNext queues errors returned by the next GetObject calls for key,
// one per call, before normal lookups resume.
func (c *Client) FailNext(bucket, key string, errs ...error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := objectID(bucket, key)
	c.failures[id] = append(c.failures[id], errs...)
}

// GetObject returns a body over the stored data.
func (c *Client) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := objectID(bucket, key)
	c.calls[id]++

	if queued := c.failures[id]; len(queued) > 0 {
		err := queued[0]
		c.failures[id] = queued[1:]
		return nil, err
	}

	objects, ok := c.buckets[bucket]
	if !ok {
		return nil, objectstore.NewError(objectstore.CodeNoSuchBucket, nil)
	}
	data, ok := objects[key]
	if !ok {
		return nil, objectstore.NewError(objectstore.CodeNoSuchKey, nil)
	}

	c.opened.Add(1)
	return &body{Reader: bytes.NewReader(data), closed: &c.closed}, nil
}

// Calls returns how many times GetObject was invoked for key.
func (c *Client) Calls(bucket, key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[objectID(bucket, key)]
}

// OpenBodies returns the number of bodies handed out and not yet closed.
func (c *Client) OpenBodies() int64 {
	return c.opened.Load() - c.closed.Load()
}

// BodiesClosed returns the number of Close calls on returned bodies.
func (c *Client) BodiesClosed() int64 {
	return c.closed.Load()
}

// CloseCalls returns how many times Close was called on the client.
func (c *Client) CloseCalls() int64 {
	return c.shut.Load()
}

// Close records the call; the memory client holds no resources.
func (c *Client) Close() error {
	c.shut.Add(1)
	return nil
}

func objectID(bucket, key string) string {
	return bucket + "/" + key
}

type body struct {
	*bytes.Reader
	closed *atomic.Int64
}

func (b *body) Close() error {
	b.closed.Add(1)
	return nil
}
