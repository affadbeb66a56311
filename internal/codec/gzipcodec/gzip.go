// Package gzipcodec reads and writes gzip payloads (.gz, .gzip).
package gzipcodec

import (
	"compress/gzip"
	"fmt"
	"io"

	"github.com/discochess/bucketreader/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Codec implements gzip compression.
type Codec struct {
	level int
}

// New returns a gzip codec writing at the default compression level.
func New() *Codec {
	return &Codec{level: gzip.DefaultCompression}
}

// NewLevel returns a gzip codec writing at level
// (gzip.HuffmanOnly through gzip.BestCompression).
func NewLevel(level int) (*Codec, error) {
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		return nil, fmt.Errorf("invalid gzip level %d", level)
	}
	return &Codec{level: level}, nil
}

// Reader wraps r to decompress gzip data. Concatenated gzip members are
// read as one stream.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading gzip header: %w", err)
	}
	return zr, nil
}

// Writer wraps w to compress data with gzip.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriterLevel(w, c.level)
}

// Extensions returns "gz" and "gzip".
func (c *Codec) Extensions() []string {
	return []string{"gz", "gzip"}
}
