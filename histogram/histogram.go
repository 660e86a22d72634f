// Package histogram accumulates bin increments into count histograms.
//
// Three processors share one overflow contract. Live consumes single
// increments and emits a snapshot after each one. Batched computes an
// independent histogram per increment batch. Accumulating applies whole
// batches to a persistent histogram, atomically: a batch that overflows
// partway is rolled back before any state is surfaced.
//
// Snapshot events borrow the processor's bin buffer; downstream consumers
// that retain them must clone. Behavior is undefined if an incoming bin
// index is outside the configured bin count.
package histogram

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"timetag/lib/ttypes"
)

// ErrOverflow is the fatal error produced when a bin increment can not be
// accommodated under the configured overflow policy.
var ErrOverflow = errors.New("histogram overflow")

var increments = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "histogram_increments_total",
	Help: "Bin increments processed, by outcome",
}, []string{"kind", "outcome"})

var resets = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "histogram_resets_total",
	Help: "Histogram resets, explicit or overflow-induced",
}, []string{"kind"})

// OverflowPolicy selects what happens when an increment hits a bin already
// at the per-bin cap.
type OverflowPolicy uint8

const (
	// Saturate drops the increment into the saturated count and keeps going.
	Saturate OverflowPolicy = iota + 1
	// ResetOnOverflow emits the accumulation so far, clears the histogram,
	// and reapplies the offending increment or batch from scratch.
	ResetOnOverflow
	// StopOnOverflow emits the accumulation so far and ends the stream
	// cleanly.
	StopOnOverflow
	// ErrorOnOverflow ends the stream with ErrOverflow, emitting nothing.
	ErrorOnOverflow
)

func (p OverflowPolicy) String() string {
	switch p {
	case Saturate:
		return "saturate"
	case ResetOnOverflow:
		return "reset"
	case StopOnOverflow:
		return "stop"
	case ErrorOnOverflow:
		return "error"
	default:
		return fmt.Sprintf("invalid(%d)", uint8(p))
	}
}

type Config struct {
	// NBins is the histogram size; it must match the bin mapper used
	// upstream. Zero is allowed and yields an empty histogram.
	NBins int
	// MaxPerBin caps each bin's count. Zero makes every increment overflow,
	// which is occasionally useful for testing policies.
	MaxPerBin ttypes.Count
	Overflow  OverflowPolicy
	// Logger reports fatal overflows. Defaults to a no-op logger.
	Logger *zap.Logger
}

func (c Config) Validate() error {
	if c.NBins < 0 {
		return fmt.Errorf("number of bins (%d) can not be negative", c.NBins)
	}
	switch c.Overflow {
	case Saturate, ResetOnOverflow, StopOnOverflow, ErrorOnOverflow:
	default:
		return fmt.Errorf("invalid overflow policy: %v", c.Overflow)
	}
	return nil
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
