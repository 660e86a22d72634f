// Package stream defines the contract between event processors and provides
// the generic sinks and taps used to terminate and observe a processing
// graph.
//
// A graph is a chain of processors, each forwarding to the next by direct
// call. Streams are single threaded: a processor finishes handling one event
// before it sees the next, and no synchronization is needed on the hot path.
// End is delivered exactly once, with a nil error for a normal end of stream
// and a non-nil error for a fatal condition; after delivering End a processor
// must ignore further calls.
package stream

import "timetag/lib/event"

type Processor interface {
	// Process handles one event, emitting zero or more events downstream
	// before returning.
	Process(ev event.Event)
	// End signals end of stream. err is nil for a normal end.
	End(err error)
}

var _ Processor = Discard{}
var _ Processor = Func{}
var _ Processor = (*Tee)(nil)

// Discard is a terminal sink that drops everything.
type Discard struct{}

func (Discard) Process(ev event.Event) {}
func (Discard) End(err error)          {}

// Func adapts plain functions to a terminal Processor. Nil members are
// skipped.
type Func struct {
	OnEvent func(ev event.Event)
	OnEnd   func(err error)
}

func (f Func) Process(ev event.Event) {
	if f.OnEvent != nil {
		f.OnEvent(ev)
	}
}

func (f Func) End(err error) {
	if f.OnEnd != nil {
		f.OnEnd(err)
	}
}

// Tee forwards every event and the end signal to two downstream processors,
// in order. It exists to attach observers (a Capture, a Meter) beside the
// main consumer; events carrying borrowed slices stay valid for both calls.
type Tee struct {
	first  Processor
	second Processor
}

func NewTee(first, second Processor) *Tee {
	return &Tee{first: first, second: second}
}

func (t *Tee) Process(ev event.Event) {
	t.first.Process(ev)
	t.second.Process(ev)
}

func (t *Tee) End(err error) {
	t.first.End(err)
	t.second.End(err)
}
