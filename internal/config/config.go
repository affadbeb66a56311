// Package config loads reader settings from a YAML file.
//
// Values may reference environment variables (${VAR}); a .env file in the
// working directory is loaded first when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/discochess/bucketreader"
)

// Config is the file form of a reader setup.
// Field names match snake_case YAML keys.
type Config struct {
	Backend    string      `yaml:"backend"`
	Bucket     string      `yaml:"bucket"`
	Region     string      `yaml:"region"`
	Endpoint   string      `yaml:"endpoint"`
	Root       string      `yaml:"root"` // disk backend only
	Retry      RetryConfig `yaml:"retry"`
	CacheSize  int         `yaml:"cache_size"` // 0 disables the cache
	CacheMax   int         `yaml:"cache_max_object_bytes"`
	Decompress bool        `yaml:"decompress"`
	Log        LogConfig   `yaml:"log"`
}

// RetryConfig mirrors bucketreader.RetryPolicy with millisecond delays.
type RetryConfig struct {
	MaxAttempts int     `yaml:"max_attempts"`
	BaseDelayMS int     `yaml:"base_delay_ms"`
	MaxDelayMS  int     `yaml:"max_delay_ms"`
	Multiplier  float64 `yaml:"multiplier"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns a Config carrying the library defaults.
func Default() *Config {
	p := bucketreader.DefaultRetryPolicy
	return &Config{
		Backend: string(bucketreader.BackendS3),
		Retry: RetryConfig{
			MaxAttempts: p.MaxAttempts,
			BaseDelayMS: int(p.BaseDelay / time.Millisecond),
			MaxDelayMS:  int(p.MaxDelay / time.Millisecond),
			Multiplier:  p.Multiplier,
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadEnv loads a .env file from the working directory, if there is one.
// Variables already set in the environment win.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// Load reads configuration from a YAML file, fills defaults and validates it.
func Load(path string) (*Config, error) {
	if err := LoadEnv(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, expanding environment variables first.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fillDefaults restores defaults for string keys present but left empty,
// such as a variable that expanded to nothing. Numeric keys are validated
// as written.
func (c *Config) fillDefaults() {
	def := Default()
	if c.Backend == "" {
		c.Backend = def.Backend
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	backend, err := bucketreader.ParseBackend(c.Backend)
	if err != nil {
		return err
	}
	if c.Bucket == "" {
		return errors.New("bucket is required")
	}
	if backend == bucketreader.BackendDisk && c.Root == "" {
		return errors.New("root is required for the disk backend")
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size %d must not be negative", c.CacheSize)
	}
	if c.CacheMax < 0 {
		return fmt.Errorf("cache_max_object_bytes %d must not be negative", c.CacheMax)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return c.RetryPolicy().Validate()
}

// RetryPolicy converts the retry section.
func (c *Config) RetryPolicy() bucketreader.RetryPolicy {
	return bucketreader.RetryPolicy{
		MaxAttempts: c.Retry.MaxAttempts,
		BaseDelay:   time.Duration(c.Retry.BaseDelayMS) * time.Millisecond,
		MaxDelay:    time.Duration(c.Retry.MaxDelayMS) * time.Millisecond,
		Multiplier:  c.Retry.Multiplier,
	}
}

// HandleOptions converts the connection settings.
// The backend must already be valid.
func (c *Config) HandleOptions() []bucketreader.HandleOption {
	backend, _ := bucketreader.ParseBackend(c.Backend)
	opts := []bucketreader.HandleOption{bucketreader.WithBackend(backend)}

	if c.Region != "" {
		opts = append(opts, bucketreader.WithRegion(c.Region))
	}
	if c.Endpoint != "" {
		opts = append(opts, bucketreader.WithEndpoint(c.Endpoint))
	}
	if c.Root != "" {
		opts = append(opts, bucketreader.WithDiskRoot(c.Root))
	}
	if c.CacheSize > 0 {
		opts = append(opts, bucketreader.WithCacheSize(c.CacheSize))
	}
	if c.CacheMax > 0 {
		opts = append(opts, bucketreader.WithCacheMaxObjectSize(c.CacheMax))
	}
	return opts
}

// ReaderOptions converts the retry and decoding settings.
func (c *Config) ReaderOptions() []bucketreader.Option {
	return []bucketreader.Option{
		bucketreader.WithRetryPolicy(c.RetryPolicy()),
		bucketreader.WithDecompression(c.Decompress),
	}
}
