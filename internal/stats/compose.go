package stats

// Noop discards all metrics.
type Noop struct{}

var _ Collector = (*Noop)(nil)

// NewNoop creates a collector that records nothing.
func NewNoop() *Noop {
	return &Noop{}
}

func (*Noop) IncCounter(string, int64)         {}
func (*Noop) SetGauge(string, int64)           {}
func (*Noop) ObserveHistogram(string, float64) {}

// Multi forwards every metric to each of its collectors in order.
type Multi []Collector

var _ Collector = Multi(nil)

// NewMulti combines collectors, skipping nil entries. A single collector is
// returned as is.
func NewMulti(collectors ...Collector) Collector {
	var m Multi
	for _, c := range collectors {
		if c != nil {
			m = append(m, c)
		}
	}
	switch len(m) {
	case 0:
		return NewNoop()
	case 1:
		return m[0]
	}
	return m
}

func (m Multi) IncCounter(name string, delta int64) {
	for _, c := range m {
		c.IncCounter(name, delta)
	}
}

func (m Multi) SetGauge(name string, value int64) {
	for _, c := range m {
		c.SetGauge(name, value)
	}
}

func (m Multi) ObserveHistogram(name string, value float64) {
	for _, c := range m {
		c.ObserveHistogram(name, value)
	}
}
