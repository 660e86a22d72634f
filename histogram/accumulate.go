package histogram

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"timetag/lib/arena"
	"timetag/lib/event"
	"timetag/lib/timer"
	"timetag/lib/ttypes"
	"timetag/stream"
)

var _ stream.Processor = (*Accumulating)(nil)

// Accumulating applies whole BinIncrementBatch events to a persistent
// histogram and emits the running accumulation as a HistogramSnapshot after
// each fully applied batch. Application is atomic: when a batch overflows
// partway under ResetOnOverflow or StopOnOverflow, the increments already
// applied from that batch are rolled back before the pre-batch state is
// emitted, so a partial batch never shows in any output. Reset events and
// end of stream behave as for Live. All overflow policies are legal.
type Accumulating struct {
	next   stream.Processor
	log    *zap.Logger
	policy OverflowPolicy
	hist   tally
	start  ttypes.Timestamp
	stop   ttypes.Timestamp
	// started marks that the current accumulation has seen a batch
	started bool
	// finished marks that downstream has ended; all further input is ignored
	finished bool

	applied    prometheus.Counter
	saturated  prometheus.Counter
	overflowed prometheus.Counter
	resets     prometheus.Counter
}

func NewAccumulating(cfg Config, next stream.Processor) (*Accumulating, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid histogram config: %w", err)
	}
	return &Accumulating{
		next:       next,
		log:        cfg.logger(),
		policy:     cfg.Overflow,
		hist:       newTally(cfg.NBins, cfg.MaxPerBin),
		applied:    increments.WithLabelValues("accumulating", "applied"),
		saturated:  increments.WithLabelValues("accumulating", "saturated"),
		overflowed: increments.WithLabelValues("accumulating", "overflow"),
		resets:     resets.WithLabelValues("accumulating"),
	}, nil
}

func (h *Accumulating) Process(ev event.Event) {
	if h.finished {
		return
	}
	switch e := ev.(type) {
	case event.BinIncrementBatch:
		t := timer.Start("histogram_accumulate_batch")
		h.accumulate(e)
		t.Stop()
	case event.Reset:
		h.conclude(h.started, false)
		h.clear()
	default:
		h.next.Process(ev)
	}
}

func (h *Accumulating) End(err error) {
	if h.finished {
		return
	}
	h.conclude(h.started, true)
	h.finish(err)
}

func (h *Accumulating) accumulate(b event.BinIncrementBatch) {
	justStarted := !h.started
	if !h.started {
		h.start = b.Start
		h.started = true
	}

	for i, bin := range b.Bins {
		if h.hist.apply(bin) {
			h.applied.Inc()
			continue
		}
		h.overflowed.Inc()
		switch h.policy {
		case Saturate:
			h.hist.saturate()
			h.saturated.Inc()
		case ResetOnOverflow:
			if justStarted {
				arena.Indices.Free(b.Bins)
				h.fail(fmt.Errorf("single batch overflowed the histogram: %w", ErrOverflow))
				return
			}
			h.hist.undo(b.Bins[:i])
			h.conclude(true, false)
			h.clear()
			h.accumulate(b) // retry against the cleared histogram, at most once
			return
		case StopOnOverflow:
			h.hist.undo(b.Bins[:i])
			h.conclude(!justStarted, true)
			arena.Indices.Free(b.Bins)
			h.finish(nil)
			return
		case ErrorOnOverflow:
			// partial state is discarded, never emitted
			arena.Indices.Free(b.Bins)
			h.fail(ErrOverflow)
			return
		}
	}

	h.stop = b.Stop
	h.next.Process(event.HistogramSnapshot{
		Start:     h.start,
		Stop:      h.stop,
		Bins:      h.hist.bins,
		Total:     h.hist.total,
		Saturated: h.hist.saturated,
	})
	arena.Indices.Free(b.Bins)
}

// conclude emits the accumulation so far as an AccumResult. Bins is
// borrowed; start and stop are zeroed when there is no data.
func (h *Accumulating) conclude(hasData, endOfStream bool) {
	var start, stop ttypes.Timestamp
	if hasData {
		start, stop = h.start, h.stop
	}
	h.next.Process(event.AccumResult{
		Start:       start,
		Stop:        stop,
		Bins:        h.hist.bins,
		Total:       h.hist.total,
		Saturated:   h.hist.saturated,
		HasData:     hasData,
		EndOfStream: endOfStream,
	})
}

func (h *Accumulating) clear() {
	h.hist.clear()
	h.started = false
	h.resets.Inc()
}

func (h *Accumulating) fail(err error) {
	h.log.Warn("histogram overflowed",
		zap.Stringer("policy", h.policy),
		zap.Error(err))
	h.finish(err)
}

func (h *Accumulating) finish(err error) {
	h.finished = true
	h.hist.release()
	h.next.End(err)
}
