package histogram

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"timetag/lib/arena"
	"timetag/lib/event"
	"timetag/lib/timer"
	"timetag/stream"
)

var _ stream.Processor = (*Batched)(nil)

// Batched computes one independent histogram per BinIncrementBatch and emits
// it as a HistogramSnapshot; nothing carries over between batches. There is
// no reset because there is nothing to reset; Reset events pass through like
// any other event. Only Saturate and ErrorOnOverflow are legal policies,
// since reset and stop are meaningless without cross-batch state.
type Batched struct {
	next     stream.Processor
	log      *zap.Logger
	policy   OverflowPolicy
	hist     tally
	finished bool

	applied    prometheus.Counter
	saturated  prometheus.Counter
	overflowed prometheus.Counter
}

func NewBatched(cfg Config, next stream.Processor) (*Batched, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid histogram config: %w", err)
	}
	switch cfg.Overflow {
	case ResetOnOverflow, StopOnOverflow:
		return nil, fmt.Errorf("overflow policy %v needs accumulation across batches", cfg.Overflow)
	}
	return &Batched{
		next:       next,
		log:        cfg.logger(),
		policy:     cfg.Overflow,
		hist:       newTally(cfg.NBins, cfg.MaxPerBin),
		applied:    increments.WithLabelValues("batched", "applied"),
		saturated:  increments.WithLabelValues("batched", "saturated"),
		overflowed: increments.WithLabelValues("batched", "overflow"),
	}, nil
}

func (h *Batched) Process(ev event.Event) {
	if h.finished {
		return
	}
	b, ok := ev.(event.BinIncrementBatch)
	if !ok {
		h.next.Process(ev)
		return
	}
	defer timer.Start("histogram_batch").Stop()

	h.hist.clear()
	for _, bin := range b.Bins {
		if h.hist.apply(bin) {
			h.applied.Inc()
			continue
		}
		h.overflowed.Inc()
		if h.policy == Saturate {
			h.hist.saturate()
			h.saturated.Inc()
			continue
		}
		// ErrorOnOverflow: the partial histogram is never emitted
		arena.Indices.Free(b.Bins)
		h.fail(ErrOverflow)
		return
	}

	h.next.Process(event.HistogramSnapshot{
		Start:     b.Start,
		Stop:      b.Stop,
		Bins:      h.hist.bins,
		Total:     h.hist.total,
		Saturated: h.hist.saturated,
	})
	arena.Indices.Free(b.Bins)
}

func (h *Batched) End(err error) {
	if h.finished {
		return
	}
	h.finish(err)
}

func (h *Batched) fail(err error) {
	h.log.Warn("histogram overflowed",
		zap.Stringer("policy", h.policy),
		zap.Error(err))
	h.finish(err)
}

func (h *Batched) finish(err error) {
	h.finished = true
	h.hist.release()
	h.next.End(err)
}
