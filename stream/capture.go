package stream

import "timetag/lib/event"

var _ Processor = (*Capture)(nil)

// Capture is a sink that records everything it receives. Events are deep
// copied on arrival, so snapshots whose bin slices are borrowed from the
// emitting processor stay valid after the processor reuses them. Intended
// for tests and diagnostics.
type Capture struct {
	events []event.Event
	ended  bool
	err    error
}

func NewCapture() *Capture {
	return &Capture{}
}

func (c *Capture) Process(ev event.Event) {
	c.events = append(c.events, ev.Clone())
}

func (c *Capture) End(err error) {
	c.ended = true
	c.err = err
}

// Events returns the captured events in arrival order.
func (c *Capture) Events() []event.Event {
	return c.events
}

// Ended reports whether End has been delivered.
func (c *Capture) Ended() bool {
	return c.ended
}

// Err returns the error End was delivered with, if any.
func (c *Capture) Err() error {
	return c.err
}

// Reset clears recorded state so the capture can be reused.
func (c *Capture) Reset() {
	c.events = nil
	c.ended = false
	c.err = nil
}
