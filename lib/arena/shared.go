package arena

import "timetag/lib/ttypes"

// Arenas shared across the module. Counts backs histogram bin buffers
// (up to 64Ki bins each); Indices backs bin-increment batches. Combined
// footprint is bounded at ~24MB.
var (
	Counts  = New[ttypes.Count](1<<17, 1<<22)    // memory footprint <= 16MB
	Indices = New[ttypes.BinIndex](1<<16, 1<<22) // memory footprint <= 8MB
)
