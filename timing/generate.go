package timing

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/mo"

	"timetag/lib/event"
	"timetag/lib/ttypes"
	"timetag/stream"
)

// A TimingGenerator produces a pattern of timing events in response to a
// trigger. It must produce nothing before the first Trigger call.
type TimingGenerator interface {
	// Trigger starts a new round of generation at the given time,
	// abandoning any events still pending from the previous round.
	Trigger(start ttypes.Timestamp)
	// Peek returns the time of the next pending event, if any.
	Peek() mo.Option[ttypes.Timestamp]
	// Pop produces the next pending event. Valid only while Peek is
	// present.
	Pop() event.Event
}

// GenerateTimings runs a TimingGenerator pattern each time a trigger
// event arrives, interleaving the generated events into the stream in
// time order. All input passes through.
//
// Generated events are only released ahead of a passed-through event with
// an equal or later time (strictly later for triggers, which restart the
// pattern instead). Events pending past the last input are never
// released, so infinite generators are usable.
type GenerateTimings struct {
	next      stream.Processor
	triggerIf MatchFunc
	gen       TimingGenerator
	generated prometheus.Counter
}

func NewGenerateTimings(triggerIf MatchFunc, gen TimingGenerator, next stream.Processor) (*GenerateTimings, error) {
	if triggerIf == nil {
		return nil, errors.New("timing generation needs a trigger predicate")
	}
	if gen == nil {
		return nil, errors.New("timing generation needs a generator")
	}
	return &GenerateTimings{
		next:      next,
		triggerIf: triggerIf,
		gen:       gen,
		generated: emitted.WithLabelValues("generated"),
	}, nil
}

func (g *GenerateTimings) Process(ev event.Event) {
	if g.triggerIf(ev) {
		g.flushDue(func(t ttypes.Timestamp) bool { return t < ev.Time() })
		g.gen.Trigger(ev.Time())
	} else {
		g.flushDue(func(t ttypes.Timestamp) bool { return t <= ev.Time() })
	}
	g.next.Process(ev)
}

func (g *GenerateTimings) End(err error) {
	g.next.End(err)
}

func (g *GenerateTimings) flushDue(due func(ttypes.Timestamp) bool) {
	for t, ok := g.gen.Peek().Get(); ok && due(t); t, ok = g.gen.Peek().Get() {
		g.generated.Inc()
		g.next.Process(g.gen.Pop())
	}
}

// OneShotGenerator emits a single delayed event per trigger.
type OneShotGenerator struct {
	build   MakeFunc
	delay   ttypes.Timestamp
	at      ttypes.Timestamp
	pending bool
}

func NewOneShotGenerator(build MakeFunc, delay ttypes.Timestamp) (*OneShotGenerator, error) {
	if build == nil {
		return nil, errors.New("one-shot generator needs an event constructor")
	}
	if delay < 0 {
		return nil, fmt.Errorf("generator delay (%d) can not be negative", delay)
	}
	return &OneShotGenerator{build: build, delay: delay}, nil
}

func (g *OneShotGenerator) Trigger(start ttypes.Timestamp) {
	g.at = start + g.delay
	g.pending = true
}

func (g *OneShotGenerator) Peek() mo.Option[ttypes.Timestamp] {
	if !g.pending {
		return mo.None[ttypes.Timestamp]()
	}
	return mo.Some(g.at)
}

func (g *OneShotGenerator) Pop() event.Event {
	g.pending = false
	return g.build(g.at)
}

// LinearGenerator emits an equally spaced series of events per trigger.
type LinearGenerator struct {
	build    MakeFunc
	delay    ttypes.Timestamp
	interval ttypes.Timestamp
	count    int

	at        ttypes.Timestamp
	remaining int
}

func NewLinearGenerator(build MakeFunc, delay, interval ttypes.Timestamp, count int) (*LinearGenerator, error) {
	if build == nil {
		return nil, errors.New("linear generator needs an event constructor")
	}
	if delay < 0 {
		return nil, fmt.Errorf("generator delay (%d) can not be negative", delay)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("generator interval (%d) should be positive", interval)
	}
	if count < 0 {
		return nil, fmt.Errorf("generator count (%d) can not be negative", count)
	}
	return &LinearGenerator{build: build, delay: delay, interval: interval, count: count}, nil
}

func (g *LinearGenerator) Trigger(start ttypes.Timestamp) {
	g.at = start + g.delay
	g.remaining = g.count
}

func (g *LinearGenerator) Peek() mo.Option[ttypes.Timestamp] {
	if g.remaining <= 0 {
		return mo.None[ttypes.Timestamp]()
	}
	return mo.Some(g.at)
}

func (g *LinearGenerator) Pop() event.Event {
	ev := g.build(g.at)
	g.at += g.interval
	g.remaining--
	return ev
}
