package codec_test

import (
	"bytes"
	"compress/gzip"
	"io"
	"sort"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/discochess/bucketreader/internal/codec"
	"github.com/discochess/bucketreader/internal/codec/gzipcodec"
	"github.com/discochess/bucketreader/internal/codec/zstdcodec"
)

func mustLevel(t *testing.T, level int) codec.Codec {
	t.Helper()
	c, err := gzipcodec.NewLevel(level)
	if err != nil {
		t.Fatalf("NewLevel(%d) error = %v", level, err)
	}
	return c
}

func TestCodecs_RoundTrip(t *testing.T) {
	codecs := map[string]codec.Codec{
		"gzip":      gzipcodec.New(),
		"gzip-best": mustLevel(t, gzip.BestCompression),
		"zstd":      zstdcodec.New(),
	}
	payloads := map[string][]byte{
		"small": []byte("hello, object store"),
		"large": bytes.Repeat([]byte("ABCDEFGHIJ"), 10000),
		"empty": {},
	}

	for cname, c := range codecs {
		for pname, original := range payloads {
			t.Run(cname+"/"+pname, func(t *testing.T) {
				var compressed bytes.Buffer
				w, err := c.Writer(&compressed)
				if err != nil {
					t.Fatalf("Writer() error = %v", err)
				}
				if _, err := w.Write(original); err != nil {
					t.Fatalf("Write() error = %v", err)
				}
				if err := w.Close(); err != nil {
					t.Fatalf("Close() error = %v", err)
				}

				r, err := c.Reader(&compressed)
				if err != nil {
					t.Fatalf("Reader() error = %v", err)
				}
				got, err := io.ReadAll(r)
				r.Close()
				if err != nil {
					t.Fatalf("ReadAll() error = %v", err)
				}
				if !bytes.Equal(got, original) {
					t.Errorf("round-trip mismatch: got %d bytes, want %d", len(got), len(original))
				}
			})
		}
	}
}

func TestGzip_Reader_InvalidData(t *testing.T) {
	_, err := gzipcodec.New().Reader(bytes.NewReader([]byte("not gzip data")))
	if err == nil {
		t.Error("Reader() expected error for invalid gzip data, got nil")
	}
}

func TestGzip_NewLevel_Invalid(t *testing.T) {
	for _, level := range []int{-3, 10} {
		if _, err := gzipcodec.NewLevel(level); err == nil {
			t.Errorf("NewLevel(%d) expected error", level)
		}
	}
}

func TestZstd_MaxMemory(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	// A single-segment frame declares its 4 MiB content size up front.
	compressed := enc.EncodeAll(bytes.Repeat([]byte{0}, 4<<20), nil)
	enc.Close()

	r, err := zstdcodec.New(zstdcodec.WithMaxMemory(1 << 20)).Reader(bytes.NewReader(compressed))
	if err != nil {
		return // rejected up front
	}
	defer r.Close()
	if _, err := io.ReadAll(r); err == nil {
		t.Error("ReadAll() expected error when the payload exceeds the memory cap")
	}
}

func TestRegistry_ForKey(t *testing.T) {
	gz, zst := gzipcodec.New(), zstdcodec.New()
	reg := codec.NewRegistry(gz, zst)

	tests := []struct {
		key    string
		want   codec.Codec
		wantOK bool
	}{
		{"logs/app.log.gz", gz, true},
		{"logs/app.log.gzip", gz, true},
		{"logs/00001.zst", zst, true},
		{"logs/00001.zstd", zst, true},
		{"UPPER.GZ", gz, true},
		{"plain.txt", nil, false},
		{"noext", nil, false},
		{"dir.gz/file", nil, false},
		{"trailing.", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			c, ok := reg.ForKey(tt.key)
			if ok != tt.wantOK {
				t.Fatalf("ForKey() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && c != tt.want {
				t.Errorf("ForKey() = %T, want %T", c, tt.want)
			}
		})
	}
}

func TestRegistry_Extensions(t *testing.T) {
	got := codec.NewRegistry(gzipcodec.New(), zstdcodec.New()).Extensions()
	sort.Strings(got)
	want := []string{"gz", "gzip", "zst", "zstd"}
	if len(got) != len(want) {
		t.Fatalf("Extensions() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Extensions() = %v, want %v", got, want)
			break
		}
	}
}
