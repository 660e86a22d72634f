package histogram

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"timetag/lib/event"
	"timetag/lib/ttypes"
	"timetag/stream"
)

var _ stream.Processor = (*Live)(nil)

// Live accumulates single bin increments and emits a HistogramSnapshot after
// every one. A Reset event emits an AccumResult for the accumulation so far
// and clears the histogram; end of stream emits a final AccumResult. All
// overflow policies are legal.
type Live struct {
	next   stream.Processor
	log    *zap.Logger
	policy OverflowPolicy
	hist   tally
	start  ttypes.Timestamp
	stop   ttypes.Timestamp
	// started marks that the current accumulation has seen an increment
	started bool
	// finished marks that downstream has ended; all further input is ignored
	finished bool

	applied    prometheus.Counter
	saturated  prometheus.Counter
	overflowed prometheus.Counter
	resets     prometheus.Counter
}

func NewLive(cfg Config, next stream.Processor) (*Live, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid histogram config: %w", err)
	}
	return &Live{
		next:       next,
		log:        cfg.logger(),
		policy:     cfg.Overflow,
		hist:       newTally(cfg.NBins, cfg.MaxPerBin),
		applied:    increments.WithLabelValues("live", "applied"),
		saturated:  increments.WithLabelValues("live", "saturated"),
		overflowed: increments.WithLabelValues("live", "overflow"),
		resets:     resets.WithLabelValues("live"),
	}, nil
}

func (h *Live) Process(ev event.Event) {
	if h.finished {
		return
	}
	switch e := ev.(type) {
	case event.BinIncrement:
		h.increment(e)
	case event.Reset:
		h.conclude(h.started, false)
		h.clear()
	default:
		h.next.Process(ev)
	}
}

func (h *Live) End(err error) {
	if h.finished {
		return
	}
	h.conclude(h.started, true)
	h.finish(err)
}

func (h *Live) increment(e event.BinIncrement) {
	justStarted := !h.started
	if !h.started {
		h.start = e.T
		h.started = true
	}

	if !h.hist.apply(e.Bin) {
		h.overflowed.Inc()
		switch h.policy {
		case Saturate:
			h.hist.saturate()
			h.saturated.Inc()
		case ResetOnOverflow:
			if justStarted { // maxPerBin == 0
				h.fail(fmt.Errorf("bin overflowed on first increment: %w", ErrOverflow))
				return
			}
			h.conclude(true, false)
			h.clear()
			h.increment(e) // recurses at most once
			return
		case StopOnOverflow:
			h.conclude(!justStarted, true)
			h.finish(nil)
			return
		case ErrorOnOverflow:
			h.fail(ErrOverflow)
			return
		}
	} else {
		h.applied.Inc()
	}

	h.stop = e.T
	h.next.Process(event.HistogramSnapshot{
		Start:     h.start,
		Stop:      h.stop,
		Bins:      h.hist.bins,
		Total:     h.hist.total,
		Saturated: h.hist.saturated,
	})
}

// conclude emits the accumulation so far as an AccumResult. Bins is
// borrowed; start and stop are zeroed when there is no data.
func (h *Live) conclude(hasData, endOfStream bool) {
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

func (h *Live) clear() {
	h.hist.clear()
	h.started = false
	h.resets.Inc()
}

func (h *Live) fail(err error) {
	h.log.Warn("histogram overflowed",
		zap.Stringer("policy", h.policy),
		zap.Error(err))
	h.finish(err)
}

func (h *Live) finish(err error) {
	h.finished = true
	h.hist.release()
	h.next.End(err)
}
