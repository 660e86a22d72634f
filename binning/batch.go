package binning

import (
	"timetag/lib/arena"
	"timetag/lib/event"
	"timetag/lib/ttypes"
	"timetag/stream"
)

// initialBatchCap is the capacity of a fresh batch buffer. Batches that
// outgrow it are moved to a doubled buffer from the arena.
const initialBatchCap = 256

var _ stream.Processor = (*Batcher)(nil)

// Batcher collects the bin increments between a BatchStart and the next
// BatchStop into a single BinIncrementBatch. Increments arriving outside a
// batch are discarded, a BatchStop without a running batch is ignored, and a
// second BatchStart restarts the current batch. A batch still open at end of
// stream is discarded.
//
// The emitted batch's index slice comes from the shared arena; ownership
// moves downstream with the event, and the consumer is expected to free it.
// Marker and increment events are consumed; everything else passes through.
type Batcher struct {
	next    stream.Processor
	buf     []ttypes.BinIndex
	start   ttypes.Timestamp
	inBatch bool
}

func NewBatcher(next stream.Processor) *Batcher {
	return &Batcher{next: next}
}

func (b *Batcher) Process(ev event.Event) {
	switch e := ev.(type) {
	case event.BinIncrement:
		if b.inBatch {
			b.append(e.Bin)
		}
	case event.BatchStart:
		if b.buf == nil {
			b.buf = arena.Indices.Alloc(0, initialBatchCap)
		} else {
			b.buf = b.buf[:0]
		}
		b.start = e.T
		b.inBatch = true
	case event.BatchStop:
		if b.inBatch {
			b.next.Process(event.BinIncrementBatch{Start: b.start, Stop: e.T, Bins: b.buf})
			b.buf = nil
			b.inBatch = false
		}
	default:
		b.next.Process(ev)
	}
}

func (b *Batcher) End(err error) {
	if b.buf != nil {
		arena.Indices.Free(b.buf)
		b.buf = nil
	}
	b.inBatch = false
	b.next.End(err)
}

func (b *Batcher) append(bin ttypes.BinIndex) {
	if len(b.buf) == cap(b.buf) {
		grown := arena.Indices.Alloc(len(b.buf), 2*cap(b.buf))
		copy(grown, b.buf)
		arena.Indices.Free(b.buf)
		b.buf = grown
	}
	b.buf = append(b.buf, bin)
}
