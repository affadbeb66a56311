// Package memoryreaderfx provides an fx module for a Reader over an
// in-memory object store.
// Useful for testing.
package memoryreaderfx

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/bucketreader"
	"github.com/discochess/bucketreader/internal/objectstore/memstore"
	"github.com/discochess/bucketreader/internal/stats"
	"github.com/discochess/bucketreader/internal/stats/logger"
)

// Bucket is the bucket the provided Reader is bound to.
const Bucket = "test-bucket"

// TestRetryPolicy retries like the default policy with millisecond waits.
var TestRetryPolicy = bucketreader.RetryPolicy{
	MaxAttempts: 3,
	BaseDelay:   time.Millisecond,
	MaxDelay:    10 * time.Millisecond,
	Multiplier:  2,
}

// Module provides an in-memory Reader for testing, plus the store behind it.
// Requires a *zap.Logger to be provided.
var Module = fx.Module("memoryreader",
	fx.Provide(
		newStatsCollector,
		newReader,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("bucketreader.stats"))
}

// Params holds dependencies for creating the reader.
type Params struct {
	fx.In

	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

// Result holds the provided reader and store.
type Result struct {
	fx.Out

	Reader *bucketreader.Reader
	Store  *memstore.Client // Exposed for test setup
}

func newReader(p Params) (Result, error) {
	store := memstore.New()
	store.CreateBucket(Bucket)

	log := p.Logger.Named("bucketreader")
	h, err := bucketreader.Open(context.Background(), Bucket,
		bucketreader.WithClient(store),
		bucketreader.WithHandleStats(p.Collector),
		bucketreader.WithHandleLogger(log),
	)
	if err != nil {
		return Result{}, err
	}

	reader, err := bucketreader.New(h,
		bucketreader.WithRetryPolicy(TestRetryPolicy),
		bucketreader.WithStats(p.Collector),
		bucketreader.WithLogger(log),
	)
	if err != nil {
		h.Close()
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return reader.Close()
		},
	})

	return Result{
		Reader: reader,
		Store:  store,
	}, nil
}
