// Package bucketreader reads whole objects from a key-addressed object store
// (S3, GCS, a local directory tree) and retries transient failures with
// exponential backoff.
//
// Every failed attempt is classified once, at the store boundary:
//
//   - object not found: a normal outcome, returned without retrying
//   - bucket not found, access denied: fatal, never retried (ErrFatal)
//   - any other store error code: transient, retried with backoff
//   - anything the store did not report: never retried (ErrUnclassified)
//
// Example usage:
//
//	h, err := bucketreader.Open(ctx, "my-bucket", bucketreader.WithRegion("eu-west-1"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r, err := bucketreader.New(h)
//	if err != nil {
//	    h.Close()
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	res, err := r.Read(ctx, "reports/2024.csv")
//	switch {
//	case err != nil:
//	    log.Fatal(err)
//	case !res.Found:
//	    fmt.Println("not found")
//	default:
//	    fmt.Printf("read %d bytes\n", len(res.Data))
//	}
package bucketreader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/discochess/bucketreader/internal/codec"
	"github.com/discochess/bucketreader/internal/codec/gzipcodec"
	"github.com/discochess/bucketreader/internal/codec/zstdcodec"
	"github.com/discochess/bucketreader/internal/stats"
)

// Request identifies one object.
type Request struct {
	Bucket string
	Key    string
}

func (r Request) String() string {
	return r.Bucket + "/" + r.Key
}

// Result is the outcome of a successful Read.
// Found is false when the store reported the object as absent.
type Result struct {
	Data     []byte
	Found    bool
	Attempts int
}

// Reader reads objects through a Handle, retrying transient failures.
//
// A Reader owns its Handle and is not safe for concurrent use; concurrent
// callers should each open their own Handle and Reader.
type Reader struct {
	handle *Handle
	policy RetryPolicy
	codecs *codec.Registry
	stats  stats.Collector
	logger *zap.Logger
	closed atomic.Bool

	// timer drives backoff waits; nil uses a real timer.
	timer backoff.Timer
}

// New creates a Reader that owns h.
func New(h *Handle, opts ...Option) (*Reader, error) {
	if h == nil {
		return nil, ErrNoHandle
	}

	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	if err := cfg.policy.Validate(); err != nil {
		return nil, err
	}

	r := &Reader{
		handle: h,
		policy: cfg.policy,
		stats:  cfg.stats,
		logger: cfg.logger,
	}
	if cfg.decompress {
		var zopts []zstdcodec.Option
		if cfg.maxDecodeMemory > 0 {
			zopts = append(zopts, zstdcodec.WithMaxMemory(cfg.maxDecodeMemory))
		}
		r.codecs = codec.NewRegistry(gzipcodec.New(), zstdcodec.New(zopts...))
	}

	r.logger.Debug("reader initialized",
		zap.String("bucket", h.Bucket()),
		zap.Int("maxAttempts", r.policy.MaxAttempts),
		zap.Duration("baseDelay", r.policy.BaseDelay),
		zap.Duration("maxDelay", r.policy.MaxDelay),
		zap.Float64("multiplier", r.policy.Multiplier),
	)

	return r, nil
}

// Read returns the content of key.
//
// A missing object is not an error: Read returns a Result with Found false.
// Failures are *ReadError values matching ErrFatal, ErrRetryExhausted,
// ErrUnclassified or ErrCanceled. Cancelling ctx aborts a pending backoff
// wait; an attempt already in flight ends when the store call returns.
func (r *Reader) Read(ctx context.Context, key string) (Result, error) {
	if r.closed.Load() || r.handle.Closed() {
		return Result{}, ErrClosed
	}

	req := Request{Bucket: r.handle.Bucket(), Key: key}
	log := r.logger.With(
		zap.String("readID", uuid.NewString()),
		zap.String("bucket", req.Bucket),
		zap.String("key", req.Key),
	)
	r.stats.IncCounter(stats.MetricReads, 1)

	var (
		attempts int
		last     attemptResult
	)

	operation := func() error {
		// A context that ended before the store is called is not an attempt.
		if err := ctx.Err(); err != nil {
			last = attemptResult{verdict: verdictCanceled, code: last.code, err: err}
			return backoff.Permanent(err)
		}
		attempts++
		log.Info("attempting read", zap.Int("attempt", attempts))

		last = r.attempt(ctx, req)
		switch last.verdict {
		case verdictSuccess, verdictNotFound:
			return nil
		case verdictRetryable:
			return last.err
		default:
			return backoff.Permanent(last.err)
		}
	}

	notify := func(err error, wait time.Duration) {
		r.stats.IncCounter(stats.MetricRetries, 1)
		log.Warn("retryable error, backing off",
			zap.Int("attempt", attempts),
			zap.String("code", last.code),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	err := backoff.RetryNotifyWithTimer(operation, r.policy.newBackOff(ctx), notify, r.timer)
	return r.finish(ctx, log, req, attempts, last, err)
}

// attempt performs one GetObject call and classifies its outcome.
// The response body is released before returning, whatever the outcome.
func (r *Reader) attempt(ctx context.Context, req Request) attemptResult {
	r.stats.IncCounter(stats.MetricAttempts, 1)
	start := time.Now()
	defer func() {
		r.stats.ObserveHistogram(stats.MetricAttemptDuration, time.Since(start).Seconds())
	}()

	body, err := r.handle.getObject(ctx, req.Key)
	if err != nil {
		return classify(err)
	}
	defer body.Close()

	data, err := r.readBody(req.Key, body)
	if err != nil {
		return classify(err)
	}
	return attemptResult{verdict: verdictSuccess, data: data}
}

// readBody drains body, decompressing it when the key's extension asks for it.
func (r *Reader) readBody(key string, body io.Reader) ([]byte, error) {
	if r.codecs != nil {
		if c, ok := r.codecs.ForKey(key); ok {
			dec, err := c.Reader(body)
			if err != nil {
				return nil, fmt.Errorf("creating decompressor: %w", err)
			}
			defer dec.Close()
			body = dec
		}
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("reading object: %w", err)
	}
	return data, nil
}

// finish turns the last attempt into the caller-facing outcome.
func (r *Reader) finish(ctx context.Context, log *zap.Logger, req Request, attempts int, last attemptResult, retryErr error) (Result, error) {
	switch last.verdict {
	case verdictSuccess:
		r.stats.IncCounter(stats.MetricFound, 1)
		r.stats.ObserveHistogram(stats.MetricReadBytes, float64(len(last.data)))
		log.Info("read succeeded", zap.Int("attempts", attempts), zap.Int("bytes", len(last.data)))
		return Result{Data: last.data, Found: true, Attempts: attempts}, nil

	case verdictNotFound:
		r.stats.IncCounter(stats.MetricNotFound, 1)
		log.Info("object not found", zap.Int("attempts", attempts))
		return Result{Attempts: attempts}, nil
	}

	rerr := &ReadError{
		Request:  req,
		Code:     last.code,
		Attempts: attempts,
		Err:      last.err,
	}

	switch {
	case last.verdict == verdictRetryable && ctx.Err() != nil:
		// Interrupted while waiting to retry.
		rerr.Kind = ErrCanceled
		rerr.Err = errors.Join(retryErr, last.err)
	case last.verdict == verdictRetryable:
		rerr.Kind = ErrRetryExhausted
	case last.verdict == verdictFatal:
		rerr.Kind = ErrFatal
	case last.verdict == verdictCanceled:
		rerr.Kind = ErrCanceled
	default:
		rerr.Kind = ErrUnclassified
	}

	r.stats.IncCounter(stats.MetricFailures, 1)
	log.Error("read failed",
		zap.String("verdict", last.verdict.String()),
		zap.Int("attempts", attempts),
		zap.String("code", last.code),
		zap.Error(last.err),
	)
	return Result{Attempts: attempts}, rerr
}

// Policy returns the reader's retry policy.
func (r *Reader) Policy() RetryPolicy {
	return r.policy
}

// Close releases the reader's handle.
// After Close, Read returns ErrClosed.
func (r *Reader) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	return r.handle.Close()
}
