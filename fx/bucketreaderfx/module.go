// Package bucketreaderfx provides an fx module for a Reader configured from
// a YAML file.
package bucketreaderfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/bucketreader"
	"github.com/discochess/bucketreader/internal/config"
	"github.com/discochess/bucketreader/internal/stats"
	"github.com/discochess/bucketreader/internal/stats/logger"
)

// Config holds configuration for the module.
type Config struct {
	// Path is the YAML config file to load.
	Path string
}

// Module provides a *bucketreader.Reader closed on application stop, when
// the counter totals are logged.
// Requires a Config and a *zap.Logger to be provided.
var Module = fx.Module("bucketreader",
	fx.Provide(
		newStatsCollector,
		func(c *logger.Collector) stats.Collector { return c },
		newFileConfig,
		newReader,
	),
)

func newStatsCollector(log *zap.Logger) *logger.Collector {
	return logger.New(log.Named("bucketreader.stats"))
}

func newFileConfig(c Config) (*config.Config, error) {
	return config.Load(c.Path)
}

// Params holds dependencies for creating the reader.
type Params struct {
	fx.In

	Config    *config.Config
	Logger    *zap.Logger
	Collector *logger.Collector
	Lifecycle fx.Lifecycle
}

// Result holds the provided reader.
type Result struct {
	fx.Out

	Reader *bucketreader.Reader
}

func newReader(p Params) (Result, error) {
	log := p.Logger.Named("bucketreader")

	handleOpts := append(p.Config.HandleOptions(),
		bucketreader.WithHandleStats(p.Collector),
		bucketreader.WithHandleLogger(log),
	)
	h, err := bucketreader.Open(context.Background(), p.Config.Bucket, handleOpts...)
	if err != nil {
		return Result{}, err
	}

	readerOpts := append(p.Config.ReaderOptions(),
		bucketreader.WithStats(p.Collector),
		bucketreader.WithLogger(log),
	)
	reader, err := bucketreader.New(h, readerOpts...)
	if err != nil {
		h.Close()
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			err := reader.Close()
			p.Collector.Summary()
			return err
		},
	})

	return Result{Reader: reader}, nil
}
