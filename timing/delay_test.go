package timing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"timetag/lib/event"
	"timetag/lib/ttypes"
	"timetag/stream"
)

func TestDelayZeroIsNoop(t *testing.T) {
	sink := stream.NewCapture()
	d := NewDelay(0, sink)

	d.Process(event.Detection{T: 0, Channel: 2})
	d.End(nil)

	assert.Equal(t, []event.Event{event.Detection{T: 0, Channel: 2}}, sink.Events())
	assert.True(t, sink.Ended())
}

func TestDelayShiftsForward(t *testing.T) {
	sink := stream.NewCapture()
	d := NewDelay(1, sink)

	d.Process(event.Detection{T: 0})
	d.Process(event.TimeReached{T: 1})

	assert.Equal(t, []event.Event{
		event.Detection{T: 1},
		event.TimeReached{T: 2},
	}, sink.Events())
}

func TestDelayShiftsBackward(t *testing.T) {
	sink := stream.NewCapture()
	d := NewDelay(-1, sink)

	d.Process(event.Detection{T: 0})
	d.Process(event.TimeReached{T: 1})

	assert.Equal(t, []event.Event{
		event.Detection{T: -1},
		event.TimeReached{T: 0},
	}, sink.Events())
}

func TestDelayShiftsSpanningEvents(t *testing.T) {
	sink := stream.NewCapture()
	d := NewDelay(5, sink)

	d.Process(event.BinIncrementBatch{Start: 10, Stop: 20, Bins: []ttypes.BinIndex{1}})
	d.Process(event.HistogramSnapshot{Start: 10, Stop: 20, Bins: []ttypes.Count{0, 1}, Total: 1})

	assert.Equal(t, []event.Event{
		event.BinIncrementBatch{Start: 15, Stop: 25, Bins: []ttypes.BinIndex{1}},
		event.HistogramSnapshot{Start: 15, Stop: 25, Bins: []ttypes.Count{0, 1}, Total: 1},
	}, sink.Events())
}

func TestDelayPreservesPayloadFields(t *testing.T) {
	sink := stream.NewCapture()
	d := NewDelay(3, sink)

	d.Process(event.TimeCorrelatedDetection{T: 7, Channel: 2, DiffTime: 9})
	d.Process(event.NontaggedCounts{T: 8, Channel: 1, Count: 100})
	d.Process(event.Warning{T: 9, Msg: "sync lost"})

	assert.Equal(t, []event.Event{
		event.TimeCorrelatedDetection{T: 10, Channel: 2, DiffTime: 9},
		event.NontaggedCounts{T: 11, Channel: 1, Count: 100},
		event.Warning{T: 12, Msg: "sync lost"},
	}, sink.Events())
}
