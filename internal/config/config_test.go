package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/discochess/bucketreader"
)

func TestLoad_EnvSubstitution(t *testing.T) {
	t.Setenv("TEST_BUCKET", "reports")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
bucket: ${TEST_BUCKET}
region: eu-west-1
retry:
  max_attempts: 5
  base_delay_ms: 100
  max_delay_ms: 2000
  multiplier: 3
cache_size: 64
decompress: true
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Bucket != "reports" {
		t.Errorf("Bucket = %q, want %q", cfg.Bucket, "reports")
	}
	if cfg.Backend != "s3" {
		t.Errorf("Backend = %q, want s3", cfg.Backend)
	}
	want := bucketreader.RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Multiplier:  3,
	}
	if got := cfg.RetryPolicy(); got != want {
		t.Errorf("RetryPolicy() = %+v, want %+v", got, want)
	}
	if !cfg.Decompress || cfg.CacheSize != 64 || cfg.Log.Level != "debug" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("bucket: b\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := cfg.RetryPolicy(); got != bucketreader.DefaultRetryPolicy {
		t.Errorf("RetryPolicy() = %+v, want default %+v", got, bucketreader.DefaultRetryPolicy)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if len(cfg.HandleOptions()) != 1 {
		t.Errorf("HandleOptions() = %d options, want only the backend", len(cfg.HandleOptions()))
	}
	if len(cfg.ReaderOptions()) != 2 {
		t.Errorf("ReaderOptions() = %d options, want 2", len(cfg.ReaderOptions()))
	}
}

func TestParse_EmptyStringsKeepDefaults(t *testing.T) {
	t.Setenv("BUCKETREADER_TEST_BACKEND", "")
	cfg, err := Parse([]byte("bucket: b\nbackend: ${BUCKETREADER_TEST_BACKEND}\nlog:\n  level: \"\"\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Backend != "s3" || cfg.Log.Level != "info" {
		t.Errorf("Backend, Log.Level = %q, %q, want s3, info", cfg.Backend, cfg.Log.Level)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "bucket: [unterminated"},
		{"missing bucket", "region: us-east-1"},
		{"unknown backend", "bucket: b\nbackend: ftp"},
		{"disk without root", "bucket: b\nbackend: disk"},
		{"negative cache", "bucket: b\ncache_size: -1"},
		{"negative cache max", "bucket: b\ncache_max_object_bytes: -5"},
		{"bad log level", "bucket: b\nlog:\n  level: loud"},
		{"max below base", "bucket: b\nretry:\n  base_delay_ms: 500\n  max_delay_ms: 100"},
		{"shrinking multiplier", "bucket: b\nretry:\n  multiplier: 0.5"},
		{"negative attempts", "bucket: b\nretry:\n  max_attempts: -1"},
		{"zero attempts", "bucket: b\nretry:\n  max_attempts: 0"},
		{"zero multiplier", "bucket: b\nretry:\n  multiplier: 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Errorf("Parse(%q) expected error", tt.yaml)
			}
		})
	}
}

func TestHandleOptions_Disk(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "b"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "b", "k"), []byte("v"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Parse([]byte("bucket: b\nbackend: disk\nroot: " + root + "\ncache_size: 4\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	ctx := t.Context()
	h, err := bucketreader.Open(ctx, cfg.Bucket, cfg.HandleOptions()...)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if h.Backend() != bucketreader.BackendDisk {
		t.Errorf("Backend() = %q, want disk", h.Backend())
	}

	r, err := bucketreader.New(h, cfg.ReaderOptions()...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer r.Close()

	res, err := r.Read(ctx, "k")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(res.Data) != "v" {
		t.Errorf("Read() data = %q, want %q", res.Data, "v")
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("BUCKETREADER_TEST_BUCKET=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("bucket: ${BUCKETREADER_TEST_BUCKET}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	// Registers cleanup so the variable does not leak into other tests.
	t.Setenv("BUCKETREADER_TEST_BUCKET", "")
	os.Unsetenv("BUCKETREADER_TEST_BUCKET")

	cfg, err := Load("config.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Bucket != "from-dotenv" {
		t.Errorf("Bucket = %q, want %q", cfg.Bucket, "from-dotenv")
	}
}

func TestLoadEnv_NoFile(t *testing.T) {
	t.Chdir(t.TempDir())
	if err := LoadEnv(); err != nil {
		t.Errorf("LoadEnv() without .env error = %v", err)
	}
}
