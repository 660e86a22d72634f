package timing

import (
	"errors"
	"fmt"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"timetag/lib/event"
	"timetag/stream"
)

// NoLimit disables count wraparound.
const NoLimit = uint64(math.MaxUint64)

// CountConfig configures a CountTrigger.
type CountConfig struct {
	// CountIf selects the events being counted.
	CountIf MatchFunc
	// ResetIf selects events that zero the count. They pass through
	// unchanged and never emit. Optional.
	ResetIf MatchFunc
	// Make builds the event emitted when the count reaches Threshold,
	// stamped with the time of the counted event.
	Make MakeFunc
	// Threshold is the count at which Make fires, compared before the
	// counted event is forwarded, or after it when EmitAfter is set.
	Threshold uint64
	// Limit wraps the count back to zero once reached. Must be positive;
	// use NoLimit to disable wrapping.
	Limit     uint64
	EmitAfter bool

	Logger *zap.Logger
}

func (cfg CountConfig) Validate() error {
	if cfg.CountIf == nil {
		return errors.New("count trigger needs a counted event predicate")
	}
	if cfg.Make == nil {
		return errors.New("count trigger needs an event constructor")
	}
	if cfg.Limit == 0 {
		return errors.New("count limit can not be zero")
	}
	return nil
}

// fireable reports whether the threshold can ever be hit given the wrap
// limit. A config that can never fire is legal, just pointless.
func (cfg CountConfig) fireable() bool {
	if cfg.EmitAfter {
		return cfg.Threshold > 0 && cfg.Threshold <= cfg.Limit
	}
	return cfg.Threshold < cfg.Limit
}

// CountTrigger counts selected events and emits a synthesized event each
// time the count reaches a threshold. All input passes through; the count
// wraps at the configured limit and is zeroed by the reset events.
type CountTrigger struct {
	next stream.Processor
	cfg  CountConfig

	count  uint64
	beeped prometheus.Counter
}

func NewCountTrigger(cfg CountConfig, next stream.Processor) (*CountTrigger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid count trigger config: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if !cfg.fireable() {
		log.Warn("count trigger threshold can never fire",
			zap.Uint64("threshold", cfg.Threshold),
			zap.Uint64("limit", cfg.Limit),
			zap.Bool("emit_after", cfg.EmitAfter),
		)
	}
	return &CountTrigger{
		next:   next,
		cfg:    cfg,
		beeped: emitted.WithLabelValues("count_trigger"),
	}, nil
}

func (c *CountTrigger) Process(ev event.Event) {
	switch {
	case c.cfg.CountIf(ev):
		if !c.cfg.EmitAfter && c.count == c.cfg.Threshold {
			c.emit(ev)
		}
		c.next.Process(ev)
		c.count++
		if c.cfg.EmitAfter && c.count == c.cfg.Threshold {
			c.emit(ev)
		}
		if c.count == c.cfg.Limit {
			c.count = 0
		}
	case c.cfg.ResetIf != nil && c.cfg.ResetIf(ev):
		c.count = 0
		c.next.Process(ev)
	default:
		c.next.Process(ev)
	}
}

func (c *CountTrigger) emit(ev event.Event) {
	c.beeped.Inc()
	c.next.Process(c.cfg.Make(ev.Time()))
}

func (c *CountTrigger) End(err error) {
	c.next.End(err)
}
