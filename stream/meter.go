package stream

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/raulk/clock"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"timetag/lib/event"
)

var meterEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "stream_meter_events_total",
	Help: "Events observed by stream meters",
}, []string{"meter"})

var _ Processor = (*Meter)(nil)

// Meter is a pass-through tap that counts events and measures the wall time
// from the first event to the end of the stream. Counters are atomic so a
// monitoring goroutine can read them while the stream is running.
type Meter struct {
	name    string
	next    Processor
	log     *zap.Logger
	clock   clock.Clock
	counter prometheus.Counter
	events  atomic.Int64
	running atomic.Bool
	start   time.Time
}

type MeterConfig struct {
	// Name labels the meter in logs and metrics.
	Name string
	// Logger for the end-of-stream summary; nil disables logging.
	Logger *zap.Logger
	// Clock defaults to the system clock. Tests inject a mock.
	Clock clock.Clock
}

func (c MeterConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("meter name can not be empty")
	}
	return nil
}

func NewMeter(cfg MeterConfig, next Processor) (*Meter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid meter config: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Meter{
		name:    cfg.Name,
		next:    next,
		log:     log,
		clock:   clk,
		counter: meterEvents.WithLabelValues(cfg.Name),
	}, nil
}

func (m *Meter) Process(ev event.Event) {
	if m.running.CompareAndSwap(false, true) {
		m.start = m.clock.Now()
	}
	m.events.Inc()
	m.counter.Inc()
	m.next.Process(ev)
}

func (m *Meter) End(err error) {
	n := m.events.Load()
	fields := []zap.Field{
		zap.String("meter", m.name),
		zap.Int64("events", n),
	}
	if m.running.Load() {
		elapsed := m.clock.Now().Sub(m.start)
		fields = append(fields, zap.Duration("elapsed", elapsed))
		if secs := elapsed.Seconds(); secs > 0 {
			fields = append(fields, zap.Float64("events_per_sec", float64(n)/secs))
		}
	}
	if err != nil {
		m.log.Warn("stream ended with error", append(fields, zap.Error(err))...)
	} else {
		m.log.Info("stream ended", fields...)
	}
	m.next.End(err)
}

// Count returns the number of events seen so far.
func (m *Meter) Count() int64 {
	return m.events.Load()
}

// Elapsed returns the wall time since the first event, or zero if none has
// arrived yet.
func (m *Meter) Elapsed() time.Duration {
	if !m.running.Load() {
		return 0
	}
	return m.clock.Now().Sub(m.start)
}
