package timing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetag/lib/event"
	"timetag/lib/ttypes"
	"timetag/stream"
)

func markerOn(ch ttypes.Channel) MakeFunc {
	return func(t ttypes.Timestamp) event.Event {
		return event.Marker{T: t, Channel: ch}
	}
}

func newCountTrigger(t *testing.T, threshold, limit uint64, after bool, sink stream.Processor) *CountTrigger {
	t.Helper()
	c, err := NewCountTrigger(CountConfig{
		CountIf:   event.Is[event.Detection],
		ResetIf:   event.Is[event.Reset],
		Make:      markerOn(7),
		Threshold: threshold,
		Limit:     limit,
		EmitAfter: after,
	}, sink)
	require.NoError(t, err)
	return c
}

func TestCountConfigValidate(t *testing.T) {
	valid := CountConfig{CountIf: event.Is[event.Detection], Make: markerOn(7), Limit: 1}
	assert.NoError(t, valid.Validate())

	missingCount := valid
	missingCount.CountIf = nil
	assert.Error(t, missingCount.Validate())

	missingMake := valid
	missingMake.Make = nil
	assert.Error(t, missingMake.Validate())

	zeroLimit := valid
	zeroLimit.Limit = 0
	assert.Error(t, zeroLimit.Validate())
}

func TestCountTriggerThresholdZeroLimitOne(t *testing.T) {
	sink := stream.NewCapture()
	c := newCountTrigger(t, 0, 1, false, sink)

	c.Process(event.Detection{T: 42})
	c.Process(event.Detection{T: 43})
	c.Process(event.Reset{T: 44})
	c.Process(event.Detection{T: 45})
	c.Process(event.TimeReached{T: 46})
	c.End(nil)

	assert.Equal(t, []event.Event{
		event.Marker{T: 42, Channel: 7},
		event.Detection{T: 42},
		event.Marker{T: 43, Channel: 7},
		event.Detection{T: 43},
		event.Reset{T: 44},
		event.Marker{T: 45, Channel: 7},
		event.Detection{T: 45},
		event.TimeReached{T: 46},
	}, sink.Events())
	assert.True(t, sink.Ended())
	assert.NoError(t, sink.Err())
}

func TestCountTriggerUnreachableThresholdNeverFires(t *testing.T) {
	// Threshold equal to the wrap limit with emit-before can never match.
	sink := stream.NewCapture()
	c := newCountTrigger(t, 1, 1, false, sink)

	c.Process(event.Detection{T: 42})
	c.Process(event.Detection{T: 42})
	c.End(nil)

	assert.Equal(t, []event.Event{
		event.Detection{T: 42},
		event.Detection{T: 42},
	}, sink.Events())
}

func TestCountTriggerEmitAfterLimitOne(t *testing.T) {
	sink := stream.NewCapture()
	c := newCountTrigger(t, 1, 1, true, sink)

	c.Process(event.Detection{T: 42})
	c.Process(event.Detection{T: 43})
	c.End(nil)

	assert.Equal(t, []event.Event{
		event.Detection{T: 42},
		event.Marker{T: 42, Channel: 7},
		event.Detection{T: 43},
		event.Marker{T: 43, Channel: 7},
	}, sink.Events())
}

func TestCountTriggerWrapsAtLimit(t *testing.T) {
	t.Run("emit before", func(t *testing.T) {
		sink := stream.NewCapture()
		c := newCountTrigger(t, 1, 2, false, sink)

		c.Process(event.Detection{T: 42})
		c.Process(event.Detection{T: 43})
		c.Process(event.Detection{T: 44})
		c.Process(event.Reset{T: 44})
		c.Process(event.Detection{T: 45})
		c.Process(event.Detection{T: 46})
		c.End(nil)

		assert.Equal(t, []event.Event{
			event.Detection{T: 42},
			event.Marker{T: 43, Channel: 7},
			event.Detection{T: 43},
			event.Detection{T: 44},
			event.Reset{T: 44},
			event.Detection{T: 45},
			event.Marker{T: 46, Channel: 7},
			event.Detection{T: 46},
		}, sink.Events())
	})
	t.Run("emit after", func(t *testing.T) {
		sink := stream.NewCapture()
		c := newCountTrigger(t, 1, 2, true, sink)

		c.Process(event.Detection{T: 42})
		c.Process(event.Detection{T: 43})
		c.Process(event.Detection{T: 44})
		c.Process(event.Reset{T: 44})
		c.Process(event.Detection{T: 45})
		c.Process(event.Detection{T: 46})
		c.End(nil)

		assert.Equal(t, []event.Event{
			event.Detection{T: 42},
			event.Marker{T: 42, Channel: 7},
			event.Detection{T: 43},
			event.Detection{T: 44},
			event.Marker{T: 44, Channel: 7},
			event.Reset{T: 44},
			event.Detection{T: 45},
			event.Marker{T: 45, Channel: 7},
			event.Detection{T: 46},
		}, sink.Events())
	})
}

func TestCountTriggerNoLimitNeverWraps(t *testing.T) {
	sink := stream.NewCapture()
	c := newCountTrigger(t, 2, NoLimit, true, sink)

	for i := 0; i < 4; i++ {
		c.Process(event.Detection{T: ttypes.Timestamp(42 + i)})
	}
	c.End(nil)

	assert.Equal(t, []event.Event{
		event.Detection{T: 42},
		event.Detection{T: 43},
		event.Marker{T: 43, Channel: 7},
		event.Detection{T: 44},
		event.Detection{T: 45},
	}, sink.Events())
}

func TestCountTriggerForwardsEndError(t *testing.T) {
	sink := stream.NewCapture()
	c := newCountTrigger(t, 0, 1, false, sink)

	upstream := errors.New("decode failed")
	c.End(upstream)

	assert.ErrorIs(t, sink.Err(), upstream)
}
