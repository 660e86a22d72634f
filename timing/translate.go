package timing

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"timetag/lib/event"
	"timetag/lib/ttypes"
	"timetag/stream"
)

// TranslateMarker converts markers on one channel into a synthesized
// control event at the marker's time. Markers on other channels, and all
// other events, pass through. This is how hardware frame or line markers
// become the batch and reset delimiters histogramming understands.
type TranslateMarker struct {
	next       stream.Processor
	channel    ttypes.Channel
	build      MakeFunc
	translated prometheus.Counter
}

func NewTranslateMarker(channel ttypes.Channel, build MakeFunc, next stream.Processor) (*TranslateMarker, error) {
	if build == nil {
		return nil, errors.New("marker translation needs an event constructor")
	}
	return &TranslateMarker{
		next:       next,
		channel:    channel,
		build:      build,
		translated: emitted.WithLabelValues("translated_marker"),
	}, nil
}

func (tm *TranslateMarker) Process(ev event.Event) {
	if m, ok := ev.(event.Marker); ok && m.Channel == tm.channel {
		tm.translated.Inc()
		tm.next.Process(tm.build(m.T))
		return
	}
	tm.next.Process(ev)
}

func (tm *TranslateMarker) End(err error) {
	tm.next.End(err)
}
