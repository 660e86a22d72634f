/*
Package timing supplies processors that derive or repair the timing
structure of an event stream: threshold-triggered markers, gating,
constant time shifts, pattern generation, monotonicity checks, and marker
translation. Histogramming downstream depends on these to turn raw device
streams into delimited, well-ordered batches.

Processors here select events by predicate rather than by concrete type,
so one processor can serve any combination of event kinds. event.Is
builds the common kind-only predicates.
*/
package timing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"timetag/lib/event"
	"timetag/lib/ttypes"
)

var emitted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "timing_emitted_total",
	Help: "Number of events synthesized by timing processors",
}, []string{"source"})

// A MatchFunc selects events by kind or content.
type MatchFunc func(ev event.Event) bool

// A MakeFunc builds a control event at the given time.
type MakeFunc func(t ttypes.Timestamp) event.Event
