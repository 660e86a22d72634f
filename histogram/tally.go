package histogram

import (
	"timetag/lib/arena"
	"timetag/lib/ttypes"
)

// tally is the bin buffer and counters shared by the three accumulators.
// Its invariant, preserved by every operation: total == sum(bins) + saturated.
type tally struct {
	bins      []ttypes.Count
	maxPerBin ttypes.Count
	total     uint64
	saturated uint64
}

func newTally(nBins int, maxPerBin ttypes.Count) tally {
	return tally{
		bins:      arena.Counts.Alloc(nBins, nBins),
		maxPerBin: maxPerBin,
	}
}

// apply increments the bin and the total, or reports false if the bin is at
// the cap and the caller's overflow policy decides.
func (t *tally) apply(bin ttypes.BinIndex) bool {
	if t.bins[bin] >= t.maxPerBin {
		return false
	}
	t.bins[bin]++
	t.total++
	return true
}

// saturate counts an increment that hit the cap without storing it.
func (t *tally) saturate() {
	t.saturated++
	t.total++
}

// undo reverses applied increments for the given prefix of a batch. Only
// valid under policies that exclude saturation, so every listed index was
// stored by apply.
func (t *tally) undo(applied []ttypes.BinIndex) {
	for _, bin := range applied {
		t.total--
		t.bins[bin]--
	}
}

func (t *tally) clear() {
	for i := range t.bins {
		t.bins[i] = 0
	}
	t.total = 0
	t.saturated = 0
}

// release returns the bin buffer to the arena. The tally must not be used
// afterwards.
func (t *tally) release() {
	arena.Counts.Free(t.bins)
	t.bins = nil
}
