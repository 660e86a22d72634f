// Package event defines the closed set of events that flow through a
// processing graph. Every stream event is one of the concrete types below;
// processors dispatch with a type switch and forward events they do not
// handle.
package event

import (
	"fmt"

	"golang.org/x/exp/slices"

	"timetag/lib/ttypes"
)

type Event interface {
	isEvent()
	Time() ttypes.Timestamp
	Clone() Event
	String() string
}

var _ Event = TimeReached{}
var _ Event = DataLost{}
var _ Event = Detection{}
var _ Event = TimeCorrelatedDetection{}
var _ Event = NontaggedCounts{}
var _ Event = Marker{}
var _ Event = Warning{}
var _ Event = BatchStart{}
var _ Event = BatchStop{}
var _ Event = Reset{}
var _ Event = Datapoint{}
var _ Event = BinIncrement{}
var _ Event = BinIncrementBatch{}
var _ Event = HistogramSnapshot{}
var _ Event = AccumResult{}

// TimeReached reports that the stream has advanced to T without an
// accompanying detection.
type TimeReached struct {
	T ttypes.Timestamp
}

func (e TimeReached) isEvent() {}
func (e TimeReached) Time() ttypes.Timestamp {
	return e.T
}
func (e TimeReached) Clone() Event {
	return e
}
func (e TimeReached) String() string {
	return fmt.Sprintf("TimeReached(t=%d)", e.T)
}

// DataLost reports that the upstream device dropped events around T, for
// example on a FIFO overflow.
type DataLost struct {
	T ttypes.Timestamp
}

func (e DataLost) isEvent() {}
func (e DataLost) Time() ttypes.Timestamp {
	return e.T
}
func (e DataLost) Clone() Event {
	return e
}
func (e DataLost) String() string {
	return fmt.Sprintf("DataLost(t=%d)", e.T)
}

type Detection struct {
	T       ttypes.Timestamp
	Channel ttypes.Channel
}

func (e Detection) isEvent() {}
func (e Detection) Time() ttypes.Timestamp {
	return e.T
}
func (e Detection) Clone() Event {
	return e
}
func (e Detection) String() string {
	return fmt.Sprintf("Detection(t=%d, ch=%d)", e.T, e.Channel)
}

type TimeCorrelatedDetection struct {
	T        ttypes.Timestamp
	Channel  ttypes.Channel
	DiffTime ttypes.DiffTime
}

func (e TimeCorrelatedDetection) isEvent() {}
func (e TimeCorrelatedDetection) Time() ttypes.Timestamp {
	return e.T
}
func (e TimeCorrelatedDetection) Clone() Event {
	return e
}
func (e TimeCorrelatedDetection) String() string {
	return fmt.Sprintf("TimeCorrelatedDetection(t=%d, ch=%d, dt=%d)", e.T, e.Channel, e.DiffTime)
}

type NontaggedCounts struct {
	T       ttypes.Timestamp
	Channel ttypes.Channel
	Count   ttypes.Count
}

func (e NontaggedCounts) isEvent() {}
func (e NontaggedCounts) Time() ttypes.Timestamp {
	return e.T
}
func (e NontaggedCounts) Clone() Event {
	return e
}
func (e NontaggedCounts) String() string {
	return fmt.Sprintf("NontaggedCounts(t=%d, ch=%d, n=%d)", e.T, e.Channel, e.Count)
}

type Marker struct {
	T       ttypes.Timestamp
	Channel ttypes.Channel
}

func (e Marker) isEvent() {}
func (e Marker) Time() ttypes.Timestamp {
	return e.T
}
func (e Marker) Clone() Event {
	return e
}
func (e Marker) String() string {
	return fmt.Sprintf("Marker(t=%d, ch=%d)", e.T, e.Channel)
}

// Warning carries a non-fatal diagnostic in-stream. T is the timestamp of
// the condition that triggered it.
type Warning struct {
	T   ttypes.Timestamp
	Msg string
}

func (e Warning) isEvent() {}
func (e Warning) Time() ttypes.Timestamp {
	return e.T
}
func (e Warning) Clone() Event {
	return e
}
func (e Warning) String() string {
	return fmt.Sprintf("Warning(t=%d, %q)", e.T, e.Msg)
}

type BatchStart struct {
	T ttypes.Timestamp
}

func (e BatchStart) isEvent() {}
func (e BatchStart) Time() ttypes.Timestamp {
	return e.T
}
func (e BatchStart) Clone() Event {
	return e
}
func (e BatchStart) String() string {
	return fmt.Sprintf("BatchStart(t=%d)", e.T)
}

type BatchStop struct {
	T ttypes.Timestamp
}

func (e BatchStop) isEvent() {}
func (e BatchStop) Time() ttypes.Timestamp {
	return e.T
}
func (e BatchStop) Clone() Event {
	return e
}
func (e BatchStop) String() string {
	return fmt.Sprintf("BatchStop(t=%d)", e.T)
}

type Reset struct {
	T ttypes.Timestamp
}

func (e Reset) isEvent() {}
func (e Reset) Time() ttypes.Timestamp {
	return e.T
}
func (e Reset) Clone() Event {
	return e
}
func (e Reset) String() string {
	return fmt.Sprintf("Reset(t=%d)", e.T)
}

type Datapoint struct {
	T     ttypes.Timestamp
	Value int64
}

func (e Datapoint) isEvent() {}
func (e Datapoint) Time() ttypes.Timestamp {
	return e.T
}
func (e Datapoint) Clone() Event {
	return e
}
func (e Datapoint) String() string {
	return fmt.Sprintf("Datapoint(t=%d, v=%d)", e.T, e.Value)
}

type BinIncrement struct {
	T   ttypes.Timestamp
	Bin ttypes.BinIndex
}

func (e BinIncrement) isEvent() {}
func (e BinIncrement) Time() ttypes.Timestamp {
	return e.T
}
func (e BinIncrement) Clone() Event {
	return e
}
func (e BinIncrement) String() string {
	return fmt.Sprintf("BinIncrement(t=%d, bin=%d)", e.T, e.Bin)
}

// BinIncrementBatch carries the bin increments collected between a batch
// start and stop. Ownership of Bins moves downstream with the event; the
// receiver may mutate or recycle it.
type BinIncrementBatch struct {
	Start ttypes.Timestamp
	Stop  ttypes.Timestamp
	Bins  []ttypes.BinIndex
}

func (e BinIncrementBatch) isEvent() {}
func (e BinIncrementBatch) Time() ttypes.Timestamp {
	return e.Stop
}
func (e BinIncrementBatch) Clone() Event {
	e.Bins = slices.Clone(e.Bins)
	return e
}
func (e BinIncrementBatch) String() string {
	return fmt.Sprintf("BinIncrementBatch(start=%d, stop=%d, n=%d)", e.Start, e.Stop, len(e.Bins))
}

// HistogramSnapshot is the live view of a histogram after an applied
// increment. Bins is borrowed from the emitting processor and is valid only
// until the downstream call returns; retain with Clone.
type HistogramSnapshot struct {
	Start     ttypes.Timestamp
	Stop      ttypes.Timestamp
	Bins      []ttypes.Count
	Total     uint64
	Saturated uint64
}

func (e HistogramSnapshot) isEvent() {}
func (e HistogramSnapshot) Time() ttypes.Timestamp {
	return e.Stop
}
func (e HistogramSnapshot) Clone() Event {
	e.Bins = slices.Clone(e.Bins)
	return e
}
func (e HistogramSnapshot) String() string {
	return fmt.Sprintf("HistogramSnapshot(start=%d, stop=%d, total=%d, saturated=%d)",
		e.Start, e.Stop, e.Total, e.Saturated)
}

// AccumResult is the state of an accumulating histogram at a reset or at
// end of stream. Bins always has the full configured length, zeroed when
// HasData is false. The same borrow rule as HistogramSnapshot applies.
type AccumResult struct {
	Start       ttypes.Timestamp
	Stop        ttypes.Timestamp
	Bins        []ttypes.Count
	Total       uint64
	Saturated   uint64
	HasData     bool
	EndOfStream bool
}

func (e AccumResult) isEvent() {}
func (e AccumResult) Time() ttypes.Timestamp {
	return e.Stop
}
func (e AccumResult) Clone() Event {
	e.Bins = slices.Clone(e.Bins)
	return e
}
func (e AccumResult) String() string {
	return fmt.Sprintf("AccumResult(start=%d, stop=%d, total=%d, saturated=%d, hasData=%v, eos=%v)",
		e.Start, e.Stop, e.Total, e.Saturated, e.HasData, e.EndOfStream)
}
