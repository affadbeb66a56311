package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/discochess/bucketreader"
	"github.com/discochess/bucketreader/internal/config"
	"github.com/discochess/bucketreader/internal/objectstore/cachedstore/cachestrategy/lru"
	"github.com/discochess/bucketreader/internal/objectstore/cachedstore/memory"
	"github.com/discochess/bucketreader/internal/stats"
	statslogger "github.com/discochess/bucketreader/internal/stats/logger"
	promstats "github.com/discochess/bucketreader/internal/stats/prometheus"
)

var getCmd = &cobra.Command{
	Use:   "get KEY...",
	Short: "Fetch one or more objects",
	Long: `Fetch objects by key and report the outcome of each read.

Each key prints one line: "KEY: N bytes" when the object was read,
"KEY: not found" when the store reported it missing. Failed reads are
reported on stderr and make the command exit non-zero.

Examples:
  # Fetch a single object into a file
  bucketreader get --bucket logs --output app.log app/2024-01-01.log

  # Fetch many objects, 8 at a time, decompressing .gz and .zst keys
  bucketreader get --bucket logs --concurrency 8 --decompress a.gz b.zst c.txt

  # Show reader metrics after the run
  bucketreader get --bucket logs --stats app.log`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGet,
}

var (
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	multiplier  float64
	decompress  bool
	cacheSize   int
	outputFile  string
	concurrency int
	outputJSON  bool
	showStats   bool
)

func init() {
	p := bucketreader.DefaultRetryPolicy
	getCmd.Flags().IntVar(&maxAttempts, "max-attempts", p.MaxAttempts, "attempts per object, including the first")
	getCmd.Flags().DurationVar(&baseDelay, "base-delay", p.BaseDelay, "wait before the first retry")
	getCmd.Flags().DurationVar(&maxDelay, "max-delay", p.MaxDelay, "upper bound for any wait")
	getCmd.Flags().Float64Var(&multiplier, "multiplier", p.Multiplier, "wait growth factor per retry")
	getCmd.Flags().BoolVar(&decompress, "decompress", false, "decompress .gz and .zst objects")
	getCmd.Flags().IntVar(&cacheSize, "cache-size", 0, "cache up to N payloads across workers (0 disables)")
	getCmd.Flags().StringVarP(&outputFile, "output", "o", "", "write the object to this file (single key only)")
	getCmd.Flags().IntVar(&concurrency, "concurrency", 1, "number of parallel readers")
	getCmd.Flags().BoolVar(&outputJSON, "json", false, "output results as JSON lines")
	getCmd.Flags().BoolVar(&showStats, "stats", false, "print metrics in Prometheus text format")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyGetFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if outputFile != "" && len(args) != 1 {
		return errors.New("--output needs exactly one key")
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	var collector stats.Collector = promstats.New(reg, promstats.WithConstLabels(prometheus.Labels{
		"bucket":  cfg.Bucket,
		"backend": cfg.Backend,
	}))
	if verbose {
		collector = stats.NewMulti(collector, statslogger.New(logger.Named("stats")))
	}

	results, err := fetch(ctx, cfg, args, concurrency, logger, collector)
	if err != nil {
		return err
	}

	failed, err := report(cmd.OutOrStdout(), cmd.ErrOrStderr(), results, outputJSON)
	if err != nil {
		return err
	}

	if outputFile != "" && results[0].Found {
		if err := os.WriteFile(outputFile, results[0].data, 0o644); err != nil {
			return fmt.Errorf("writing output file: %w", err)
		}
	}

	if showStats {
		if err := writeMetrics(cmd.OutOrStdout(), reg); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d reads failed", failed, len(results))
	}
	return nil
}

// applyGetFlags overrides config values with retry and decoding flags set
// on the command line.
func applyGetFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("max-attempts") {
		cfg.Retry.MaxAttempts = maxAttempts
	}
	if flags.Changed("base-delay") {
		ms, err := millis("base-delay", baseDelay)
		if err != nil {
			return err
		}
		cfg.Retry.BaseDelayMS = ms
	}
	if flags.Changed("max-delay") {
		ms, err := millis("max-delay", maxDelay)
		if err != nil {
			return err
		}
		cfg.Retry.MaxDelayMS = ms
	}
	if flags.Changed("multiplier") {
		cfg.Retry.Multiplier = multiplier
	}
	if flags.Changed("decompress") {
		cfg.Decompress = decompress
	}
	if flags.Changed("cache-size") {
		cfg.CacheSize = cacheSize
	}
	return nil
}

// millis converts a delay flag to whole milliseconds, the config's unit.
func millis(flag string, d time.Duration) (int, error) {
	if d%time.Millisecond != 0 {
		return 0, fmt.Errorf("--%s %v: must be a whole number of milliseconds", flag, d)
	}
	return int(d / time.Millisecond), nil
}

// fetchResult is the outcome of reading one key.
type fetchResult struct {
	Key      string `json:"key"`
	Found    bool   `json:"found"`
	Bytes    int    `json:"bytes"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error,omitempty"`

	data []byte
	err  error
}

// fetch reads keys with up to workers parallel readers. Each worker owns its
// own handle; the payload cache, if enabled, is shared between them.
// The returned error reports a handle that could not be opened; read
// failures are recorded per key.
func fetch(ctx context.Context, cfg *config.Config, keys []string, workers int, logger *zap.Logger, collector stats.Collector) ([]fetchResult, error) {
	workers = max(1, min(workers, len(keys)))

	handleOpts := append(cfg.HandleOptions(),
		bucketreader.WithHandleStats(collector),
		bucketreader.WithHandleLogger(logger.Named("handle")),
	)
	if cfg.CacheSize > 0 {
		strategy, err := lru.New(cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating LRU strategy: %w", err)
		}
		cache := memory.New(strategy, collector, memory.WithMaxObjectSize(cfg.CacheMax))
		handleOpts = append(handleOpts, bucketreader.WithCache(cache))
	}
	readerOpts := append(cfg.ReaderOptions(),
		bucketreader.WithStats(collector),
		bucketreader.WithLogger(logger.Named("reader")),
	)

	results := make([]fetchResult, len(keys))
	jobs := make(chan int)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := range keys {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			h, err := bucketreader.Open(gctx, cfg.Bucket, handleOpts...)
			if err != nil {
				return err
			}
			r, err := bucketreader.New(h, readerOpts...)
			if err != nil {
				h.Close()
				return err
			}
			defer r.Close()

			for i := range jobs {
				res, err := r.Read(gctx, keys[i])
				results[i] = newFetchResult(keys[i], res, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func newFetchResult(key string, res bucketreader.Result, err error) fetchResult {
	fr := fetchResult{
		Key:      key,
		Found:    res.Found,
		Bytes:    len(res.Data),
		Attempts: res.Attempts,
		data:     res.Data,
		err:      err,
	}
	if err != nil {
		fr.Error = err.Error()
	}
	return fr
}

// report prints one line per result and returns the number of failures.
func report(stdout, stderr io.Writer, results []fetchResult, asJSON bool) (int, error) {
	var failed int
	enc := json.NewEncoder(stdout)
	for _, res := range results {
		if res.err != nil {
			failed++
		}
		if asJSON {
			if err := enc.Encode(res); err != nil {
				return failed, fmt.Errorf("encoding result: %w", err)
			}
			continue
		}

		switch {
		case res.err != nil:
			fmt.Fprintf(stderr, "%s: %v\n", res.Key, res.err)
		case !res.Found:
			fmt.Fprintf(stdout, "%s: not found\n", res.Key)
		default:
			fmt.Fprintf(stdout, "%s: %d bytes\n", res.Key, res.Bytes)
		}
	}
	return failed, nil
}

// writeMetrics dumps every gathered metric family in text exposition format.
func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	return nil
}
