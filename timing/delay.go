package timing

import (
	"timetag/lib/event"
	"timetag/lib/ttypes"
	"timetag/stream"
)

// Delay shifts every event's timestamps by a constant signed offset, for
// aligning streams recorded against different time origins.
type Delay struct {
	next  stream.Processor
	delta ttypes.Timestamp
}

func NewDelay(delta ttypes.Timestamp, next stream.Processor) *Delay {
	return &Delay{next: next, delta: delta}
}

func (d *Delay) Process(ev event.Event) {
	d.next.Process(shiftTime(ev, d.delta))
}

func (d *Delay) End(err error) {
	d.next.End(err)
}

func shiftTime(ev event.Event, delta ttypes.Timestamp) event.Event {
	switch e := ev.(type) {
	case event.TimeReached:
		e.T += delta
		return e
	case event.DataLost:
		e.T += delta
		return e
	case event.Detection:
		e.T += delta
		return e
	case event.TimeCorrelatedDetection:
		e.T += delta
		return e
	case event.NontaggedCounts:
		e.T += delta
		return e
	case event.Marker:
		e.T += delta
		return e
	case event.Warning:
		e.T += delta
		return e
	case event.BatchStart:
		e.T += delta
		return e
	case event.BatchStop:
		e.T += delta
		return e
	case event.Reset:
		e.T += delta
		return e
	case event.Datapoint:
		e.T += delta
		return e
	case event.BinIncrement:
		e.T += delta
		return e
	case event.BinIncrementBatch:
		e.Start += delta
		e.Stop += delta
		return e
	case event.HistogramSnapshot:
		e.Start += delta
		e.Stop += delta
		return e
	case event.AccumResult:
		e.Start += delta
		e.Stop += delta
		return e
	default:
		return ev
	}
}
