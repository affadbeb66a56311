// Package logger provides a stats collector that writes metrics to a zap
// logger and keeps running counter totals.
package logger

import (
	"maps"
	"sync"

	"go.uber.org/zap"

	"github.com/discochess/bucketreader/internal/stats"
)

// Collector logs every metric at debug level.
type Collector struct {
	logger *zap.Logger

	mu     sync.Mutex
	totals map[string]int64
}

var _ stats.Collector = (*Collector)(nil)

// New creates a logging collector. A nil logger discards output but totals
// are still kept.
func New(logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{logger: logger, totals: make(map[string]int64)}
}

// IncCounter logs the increment along with the counter's new total.
func (c *Collector) IncCounter(name string, delta int64) {
	c.mu.Lock()
	c.totals[name] += delta
	total := c.totals[name]
	c.mu.Unlock()

	c.logger.Debug("counter",
		zap.String("metric", name),
		zap.Int64("delta", delta),
		zap.Int64("total", total),
	)
}

func (c *Collector) SetGauge(name string, value int64) {
	c.logger.Debug("gauge", zap.String("metric", name), zap.Int64("value", value))
}

func (c *Collector) ObserveHistogram(name string, value float64) {
	c.logger.Debug("histogram", zap.String("metric", name), zap.Float64("value", value))
}

// Totals returns a copy of the counter totals seen so far.
func (c *Collector) Totals() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.totals)
}

// Summary logs every counter total at info level.
func (c *Collector) Summary() {
	totals := c.Totals()
	fields := make([]zap.Field, 0, len(totals))
	for name, v := range totals {
		fields = append(fields, zap.Int64(name, v))
	}
	c.logger.Info("stats summary", fields...)
}
