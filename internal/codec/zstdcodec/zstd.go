// Package zstdcodec reads and writes zstd payloads (.zst, .zstd).
package zstdcodec

import (
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/discochess/bucketreader/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Codec implements zstd compression.
type Codec struct {
	maxMemory uint64
}

// Option configures a Codec.
type Option func(*Codec)

// WithMaxMemory caps the memory a decoder may allocate for one payload.
// Payloads that need more fail to decode. Zero keeps the library default.
func WithMaxMemory(n uint64) Option {
	return func(c *Codec) {
		c.maxMemory = n
	}
}

// New returns a new zstd codec.
func New(opts ...Option) *Codec {
	c := &Codec{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reader wraps r to decompress zstd data. Each object gets its own
// single-goroutine decoder, released by Close.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	dopts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
	if c.maxMemory > 0 {
		dopts = append(dopts, zstd.WithDecoderMaxMemory(c.maxMemory))
	}
	decoder, err := zstd.NewReader(r, dopts...)
	if err != nil {
		return nil, err
	}
	return decoder.IOReadCloser(), nil
}

// Writer wraps w to compress data with zstd.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w)
}

// Extensions returns "zst" and "zstd".
func (c *Codec) Extensions() []string {
	return []string{"zst", "zstd"}
}
