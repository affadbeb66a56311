// Package codec provides decompression of stored object payloads, selected
// by the object key's extension.
package codec

import (
	"io"
	"path"
	"strings"
)

// Codec provides compression and decompression functionality.
type Codec interface {
	// Reader wraps r to decompress data read from it.
	Reader(r io.Reader) (io.ReadCloser, error)
	// Writer wraps w to compress data written to it.
	Writer(w io.Writer) (io.WriteCloser, error)
	// Extensions lists the key extensions, without dot, that mark payloads
	// in this format. The first one is canonical.
	Extensions() []string
}

// Registry selects a codec from an object key's extension.
type Registry struct {
	byExt map[string]Codec
}

// NewRegistry returns a registry for the given codecs.
// When two codecs claim an extension, the later one wins.
func NewRegistry(codecs ...Codec) *Registry {
	r := &Registry{byExt: make(map[string]Codec)}
	for _, c := range codecs {
		for _, ext := range c.Extensions() {
			r.byExt[strings.ToLower(ext)] = c
		}
	}
	return r
}

// ForKey returns the codec matching key's extension, ignoring case.
// ok is false when the key carries no known compression extension.
func (r *Registry) ForKey(key string) (c Codec, ok bool) {
	ext := strings.TrimPrefix(path.Ext(key), ".")
	if ext == "" {
		return nil, false
	}
	c, ok = r.byExt[strings.ToLower(ext)]
	return c, ok
}

// Extensions returns every extension the registry recognizes.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	return exts
}
