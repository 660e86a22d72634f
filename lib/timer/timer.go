package timer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var stageDuration = promauto.NewSummaryVec(prometheus.SummaryOpts{
	Name: "stage_duration_seconds",
	Help: "Duration of individual processing stages",
	Objectives: map[float64]float64{
		0.25: 0.05,
		0.50: 0.05,
		0.75: 0.05,
		0.90: 0.05,
		0.95: 0.02,
		0.99: 0.01,
	},
}, []string{"stage"})

type Timer struct {
	timer *prometheus.Timer
}

func (t Timer) Stop() {
	t.timer.ObserveDuration()
}

func Start(stage string) Timer {
	return Timer{
		timer: prometheus.NewTimer(stageDuration.WithLabelValues(stage)),
	}
}
