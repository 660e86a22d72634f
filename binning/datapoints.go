package binning

import (
	"timetag/lib/event"
	"timetag/stream"
)

// A DatapointFunc extracts the scalar to be histogrammed from an event.
// It returns false for events it does not recognize, which are then
// forwarded unchanged.
type DatapointFunc func(ev event.Event) (int64, bool)

// DiffTimeValue extracts the difference time of time-correlated detections.
// This is the extractor for classic TCSPC decay histograms.
func DiffTimeValue(ev event.Event) (int64, bool) {
	d, ok := ev.(event.TimeCorrelatedDetection)
	if !ok {
		return 0, false
	}
	return int64(d.DiffTime), true
}

// CountValue extracts the count of hardware-accumulated count events.
func CountValue(ev event.Event) (int64, bool) {
	c, ok := ev.(event.NontaggedCounts)
	if !ok {
		return 0, false
	}
	return int64(c.Count), true
}

// ChannelValue extracts the channel number of detections, for building
// per-channel intensity histograms.
func ChannelValue(ev event.Event) (int64, bool) {
	d, ok := ev.(event.Detection)
	if !ok {
		return 0, false
	}
	return int64(d.Channel), true
}

var _ stream.Processor = (*DatapointMapper)(nil)

// DatapointMapper replaces each event recognized by its extractor with a
// Datapoint carrying the event's timestamp and the extracted value. All
// other events pass through unchanged.
type DatapointMapper struct {
	extract DatapointFunc
	next    stream.Processor
}

func NewDatapointMapper(extract DatapointFunc, next stream.Processor) *DatapointMapper {
	return &DatapointMapper{extract: extract, next: next}
}

func (m *DatapointMapper) Process(ev event.Event) {
	if v, ok := m.extract(ev); ok {
		m.next.Process(event.Datapoint{T: ev.Time(), Value: v})
		return
	}
	m.next.Process(ev)
}

func (m *DatapointMapper) End(err error) {
	m.next.End(err)
}

var _ stream.Processor = (*Binner)(nil)

// Binner converts each Datapoint into a BinIncrement using a bin mapper.
// Datapoints the mapper places outside the histogram are dropped silently.
// All other events pass through unchanged.
type Binner struct {
	mapper BinMapper
	next   stream.Processor
}

func NewBinner(mapper BinMapper, next stream.Processor) *Binner {
	return &Binner{mapper: mapper, next: next}
}

func (b *Binner) Process(ev event.Event) {
	d, ok := ev.(event.Datapoint)
	if !ok {
		b.next.Process(ev)
		return
	}
	if bin, ok := b.mapper.MapToBin(d.Value).Get(); ok {
		b.next.Process(event.BinIncrement{T: d.T, Bin: bin})
	}
}

func (b *Binner) End(err error) {
	b.next.End(err)
}
