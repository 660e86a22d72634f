// Package binning turns streams of domain events into streams of histogram
// bin increments. A datapoint mapper extracts a scalar from each matching
// event, a bin mapper places the scalar in a histogram bin, and the batcher
// groups bin increments into batches delimited by start and stop markers.
package binning

import (
	"fmt"

	"github.com/samber/mo"

	"timetag/lib/ttypes"
)

// A BinMapper places a scalar datapoint value in a histogram bin, or reports
// that the value is out of range. Implementations are immutable after
// construction.
type BinMapper interface {
	MapToBin(value int64) mo.Option[ttypes.BinIndex]
	// NBins returns the number of bins the mapper can map to. Histograms
	// consuming the mapped increments must be sized to this.
	NBins() int
}

var _ BinMapper = PowerOfTwoBinMapper{}
var _ BinMapper = LinearBinMapper{}

// PowerOfTwoBinMapper maps a dataBits-wide non-negative value to its high
// histoBits bits with a single right shift. With flip set, bin order is
// reversed, which turns "time since sync" difference times into the more
// conventional "time until next sync" axis.
type PowerOfTwoBinMapper struct {
	shift  uint
	maxBin ttypes.BinIndex
	flip   bool
}

func NewPowerOfTwoBinMapper(dataBits, histoBits int, flip bool) (PowerOfTwoBinMapper, error) {
	if histoBits <= 0 || histoBits > 16 {
		return PowerOfTwoBinMapper{}, fmt.Errorf("histo bits should be between 1 and 16 but got: %d", histoBits)
	}
	if dataBits < histoBits || dataBits > 63 {
		return PowerOfTwoBinMapper{}, fmt.Errorf("data bits should be between histo bits and 63 but got: %d", dataBits)
	}
	return PowerOfTwoBinMapper{
		shift:  uint(dataBits - histoBits),
		maxBin: ttypes.BinIndex(1)<<histoBits - 1,
		flip:   flip,
	}, nil
}

func (m PowerOfTwoBinMapper) MapToBin(value int64) mo.Option[ttypes.BinIndex] {
	if value < 0 {
		return mo.None[ttypes.BinIndex]()
	}
	bin := value >> m.shift
	if bin > int64(m.maxBin) {
		return mo.None[ttypes.BinIndex]()
	}
	if m.flip {
		bin = int64(m.maxBin) - bin
	}
	return mo.Some(ttypes.BinIndex(bin))
}

func (m PowerOfTwoBinMapper) NBins() int {
	return int(m.maxBin) + 1
}

// LinearBinMapper maps value to (value - offset) / width. A negative width
// reverses bin order. With clamp set, values before bin 0 map to bin 0 and
// values past the last bin map to the last bin instead of being dropped.
type LinearBinMapper struct {
	offset int64
	width  int64
	maxBin ttypes.BinIndex
	clamp  bool
}

func NewLinearBinMapper(offset, width int64, maxBin ttypes.BinIndex, clamp bool) (LinearBinMapper, error) {
	if width == 0 {
		return LinearBinMapper{}, fmt.Errorf("bin width can not be zero")
	}
	return LinearBinMapper{offset: offset, width: width, maxBin: maxBin, clamp: clamp}, nil
}

func (m LinearBinMapper) MapToBin(value int64) mo.Option[ttypes.BinIndex] {
	d := value - m.offset
	// The sign check must precede the division: truncation toward zero would
	// otherwise place values just before bin 0 in bin 0.
	if (d < 0 && m.width > 0) || (d > 0 && m.width < 0) {
		if m.clamp {
			return mo.Some(ttypes.BinIndex(0))
		}
		return mo.None[ttypes.BinIndex]()
	}
	d /= m.width
	if d > int64(m.maxBin) {
		if m.clamp {
			return mo.Some(m.maxBin)
		}
		return mo.None[ttypes.BinIndex]()
	}
	return mo.Some(ttypes.BinIndex(d))
}

func (m LinearBinMapper) NBins() int {
	return int(m.maxBin) + 1
}
