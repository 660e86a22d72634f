package timing

import (
	"fmt"
	"math"

	"github.com/prometheus/client_golang/prometheus"

	"timetag/lib/event"
	"timetag/lib/ttypes"
	"timetag/stream"
)

// CheckMonotonic passes all events through and emits a Warning just
// before any event whose timestamp goes back in time. In strict mode a
// repeated timestamp also warns.
//
// Non-monotonic timestamps usually mean the input was decoded in the
// wrong format, so this makes a cheap sanity stage at the head of a
// pipeline. Warnings already in the stream pass through unchecked.
type CheckMonotonic struct {
	next     stream.Processor
	strict   bool
	lastSeen ttypes.Timestamp
	warns    prometheus.Counter
}

func NewCheckMonotonic(strict bool, next stream.Processor) *CheckMonotonic {
	return &CheckMonotonic{
		next:     next,
		strict:   strict,
		lastSeen: math.MinInt64,
		warns:    emitted.WithLabelValues("monotonicity_warning"),
	}
}

func (c *CheckMonotonic) Process(ev event.Event) {
	if _, ok := ev.(event.Warning); ok {
		c.next.Process(ev)
		return
	}
	t := ev.Time()
	ok := t >= c.lastSeen
	if c.strict {
		ok = t > c.lastSeen
	}
	if !ok {
		c.warns.Inc()
		c.next.Process(event.Warning{
			T:   t,
			Msg: fmt.Sprintf("non-monotonic timestamp: %d followed by %d", c.lastSeen, t),
		})
	}
	c.lastSeen = t
	c.next.Process(ev)
}

func (c *CheckMonotonic) End(err error) {
	c.next.End(err)
}
