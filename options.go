package bucketreader

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/discochess/bucketreader/internal/objectstore"
	"github.com/discochess/bucketreader/internal/objectstore/cachedstore"
	"github.com/discochess/bucketreader/internal/objectstore/diskstore"
	"github.com/discochess/bucketreader/internal/objectstore/gcsstore"
	"github.com/discochess/bucketreader/internal/objectstore/s3store"
	"github.com/discochess/bucketreader/internal/stats"
)

// Backend names a kind of object store.
type Backend string

// Supported backends.
const (
	BackendS3     Backend = "s3"
	BackendGCS    Backend = "gcs"
	BackendDisk   Backend = "disk"
	BackendCustom Backend = "custom"
)

// ParseBackend converts a backend name into a Backend.
func ParseBackend(name string) (Backend, error) {
	switch b := Backend(name); b {
	case BackendS3, BackendGCS, BackendDisk:
		return b, nil
	case "":
		return BackendS3, nil
	}
	return "", fmt.Errorf("unknown backend %q (want s3, gcs or disk)", name)
}

// Option configures a Reader.
type Option interface {
	apply(*options)
}

// options holds the reader configuration.
type options struct {
	policy     RetryPolicy
	decompress bool
	stats      stats.Collector
	logger     *zap.Logger

	// zstd decoder memory cap in bytes, 0 for the codec default
	maxDecodeMemory uint64
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		policy: DefaultRetryPolicy,
		stats:  stats.NewNoop(),
		logger: zap.NewNop(),
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithRetryPolicy sets the retry policy.
// If not set, DefaultRetryPolicy is used.
func WithRetryPolicy(p RetryPolicy) Option {
	return optionFunc(func(o *options) {
		o.policy = p
	})
}

// WithDecompression enables transparent decompression of keys ending in a
// known compression extension (.gz, .zst).
func WithDecompression(enabled bool) Option {
	return optionFunc(func(o *options) {
		o.decompress = enabled
	})
}

// WithMaxDecodeMemory caps the memory a zstd decoder may allocate for one
// object. Objects needing more fail to decompress.
func WithMaxDecodeMemory(n uint64) Option {
	return optionFunc(func(o *options) {
		o.maxDecodeMemory = n
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		if c != nil {
			o.stats = c
		}
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		if l != nil {
			o.logger = l
		}
	})
}

// HandleOption configures Open.
type HandleOption interface {
	applyHandle(*handleOptions)
}

type handleOptions struct {
	backend   Backend
	region    string
	endpoint  string
	diskRoot  string
	gcsOpts   []option.ClientOption
	client    objectstore.Client
	cacheSize int
	cacheMax  int
	cache     cachedstore.Backend
	stats     stats.Collector
	logger    *zap.Logger
}

func defaultHandleOptions() handleOptions {
	return handleOptions{
		backend: BackendS3,
		stats:   stats.NewNoop(),
		logger:  zap.NewNop(),
	}
}

// handleOptionFunc wraps a function to implement HandleOption.
type handleOptionFunc func(*handleOptions)

// Compile-time check that handleOptionFunc implements HandleOption.
var _ HandleOption = handleOptionFunc(nil)

func (f handleOptionFunc) applyHandle(o *handleOptions) { f(o) }

// WithBackend selects the object store. Default is S3.
func WithBackend(b Backend) HandleOption {
	return handleOptionFunc(func(o *handleOptions) {
		o.backend = b
	})
}

// WithRegion sets the AWS region for the S3 backend.
func WithRegion(region string) HandleOption {
	return handleOptionFunc(func(o *handleOptions) {
		o.region = region
	})
}

// WithEndpoint sets a custom store endpoint (S3-compatible services,
// GCS emulators).
func WithEndpoint(endpoint string) HandleOption {
	return handleOptionFunc(func(o *handleOptions) {
		o.endpoint = endpoint
	})
}

// WithGCSOptions passes client options to the GCS backend.
func WithGCSOptions(opts ...option.ClientOption) HandleOption {
	return handleOptionFunc(func(o *handleOptions) {
		o.gcsOpts = append(o.gcsOpts, opts...)
	})
}

// WithDiskRoot selects the disk backend rooted at dir.
// Buckets are subdirectories of dir.
func WithDiskRoot(dir string) HandleOption {
	return handleOptionFunc(func(o *handleOptions) {
		o.backend = BackendDisk
		o.diskRoot = dir
	})
}

// WithClient uses an already constructed store client.
// The handle takes ownership and closes it on Close.
func WithClient(c objectstore.Client) HandleOption {
	return handleOptionFunc(func(o *handleOptions) {
		o.backend = BackendCustom
		o.client = c
	})
}

// WithCacheSize caches up to n object payloads for the handle's lifetime.
func WithCacheSize(n int) HandleOption {
	return handleOptionFunc(func(o *handleOptions) {
		o.cacheSize = n
	})
}

// WithCacheMaxObjectSize stops the handle's own cache from keeping payloads
// larger than n bytes. It has no effect on a cache passed with WithCache.
func WithCacheMaxObjectSize(n int) HandleOption {
	return handleOptionFunc(func(o *handleOptions) {
		o.cacheMax = n
	})
}

// WithCache caches payloads in b, which may be shared between handles.
func WithCache(b cachedstore.Backend) HandleOption {
	return handleOptionFunc(func(o *handleOptions) {
		o.cache = b
	})
}

// WithHandleStats sets the stats collector used by the handle and its cache.
func WithHandleStats(c stats.Collector) HandleOption {
	return handleOptionFunc(func(o *handleOptions) {
		if c != nil {
			o.stats = c
		}
	})
}

// WithHandleLogger sets the handle's logger.
func WithHandleLogger(l *zap.Logger) HandleOption {
	return handleOptionFunc(func(o *handleOptions) {
		if l != nil {
			o.logger = l
		}
	})
}

// dial constructs the store client for the selected backend.
func (o *handleOptions) dial(ctx context.Context) (objectstore.Client, error) {
	switch o.backend {
	case BackendCustom:
		if o.client == nil {
			return nil, errors.New("nil store client")
		}
		return o.client, nil

	case BackendS3:
		var opts []s3store.Option
		if o.region != "" {
			opts = append(opts, s3store.WithRegion(o.region))
		}
		if o.endpoint != "" {
			opts = append(opts, s3store.WithEndpoint(o.endpoint))
		}
		return s3store.New(ctx, opts...)

	case BackendGCS:
		opts := append([]option.ClientOption(nil), o.gcsOpts...)
		if o.endpoint != "" {
			opts = append(opts, option.WithEndpoint(o.endpoint))
		}
		return gcsstore.New(ctx, opts...)

	case BackendDisk:
		if o.diskRoot == "" {
			return nil, errors.New("disk backend needs a root directory")
		}
		return diskstore.New(o.diskRoot)
	}
	return nil, fmt.Errorf("unknown backend %q", o.backend)
}
