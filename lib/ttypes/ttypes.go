// Package ttypes holds the scalar types shared across the time-tag
// processing packages. Macrotimes and difference times are in device clock
// units; their meaning in seconds depends on the hardware configuration.
package ttypes

import "math"

type Timestamp int64

type Channel int32

type DiffTime int32

type BinIndex uint16

type Count uint32

const (
	MaxBinIndex = BinIndex(math.MaxUint16)
	MaxCount    = Count(math.MaxUint32)
)
