package bucketreader

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/discochess/bucketreader/internal/objectstore"
	"github.com/discochess/bucketreader/internal/objectstore/cachedstore"
	"github.com/discochess/bucketreader/internal/objectstore/cachedstore/cachestrategy/lru"
	"github.com/discochess/bucketreader/internal/objectstore/cachedstore/memory"
	"github.com/discochess/bucketreader/internal/stats"
)

// Handle is a session with an object store, bound to one bucket.
//
// A Handle is released exactly once by Close; callers should
// `defer h.Close()` right after Open succeeds. A Handle is meant to be
// owned by a single Reader.
type Handle struct {
	bucket  string
	backend Backend
	client  objectstore.Client
	stats   stats.Collector
	logger  *zap.Logger
	closed  atomic.Bool
}

// Open creates a session with the object store for bucket.
// Failing to construct the store client is reported as ErrConnection;
// it is never retried.
func Open(ctx context.Context, bucket string, opts ...HandleOption) (*Handle, error) {
	if bucket == "" {
		return nil, fmt.Errorf("%w: empty bucket name", ErrConnection)
	}

	cfg := defaultHandleOptions()
	for _, opt := range opts {
		opt.applyHandle(&cfg)
	}

	client, err := cfg.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s backend: %w", ErrConnection, cfg.backend, err)
	}

	if cfg.cache == nil && cfg.cacheSize > 0 {
		strategy, err := lru.New(cfg.cacheSize)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("creating LRU strategy: %w", err)
		}
		cfg.cache = memory.New(strategy, cfg.stats, memory.WithMaxObjectSize(cfg.cacheMax))
	}
	if cfg.cache != nil {
		client = cachedstore.New(client, cfg.cache)
	}

	h := &Handle{
		bucket:  bucket,
		backend: cfg.backend,
		client:  client,
		stats:   cfg.stats,
		logger:  cfg.logger,
	}

	h.stats.IncCounter(stats.MetricHandlesOpened, 1)
	h.logger.Debug("handle opened",
		zap.String("bucket", bucket),
		zap.String("backend", string(cfg.backend)),
		zap.Bool("cached", cfg.cache != nil),
	)

	return h, nil
}

// Bucket returns the bucket the handle is bound to.
func (h *Handle) Bucket() string {
	return h.bucket
}

// Backend returns the kind of store behind the handle.
func (h *Handle) Backend() Backend {
	return h.backend
}

// Closed reports whether Close has been called.
func (h *Handle) Closed() bool {
	return h.closed.Load()
}

// Close releases the store session. Only the first call releases anything;
// later calls return nil.
func (h *Handle) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}

	h.stats.IncCounter(stats.MetricHandlesClosed, 1)
	h.logger.Debug("handle closed", zap.String("bucket", h.bucket))

	if err := h.client.Close(); err != nil {
		return fmt.Errorf("closing store client: %w", err)
	}
	return nil
}

// getObject issues one GetObject call through the session.
func (h *Handle) getObject(ctx context.Context, key string) (io.ReadCloser, error) {
	if h.closed.Load() {
		return nil, ErrClosed
	}
	return h.client.GetObject(ctx, h.bucket, key)
}
