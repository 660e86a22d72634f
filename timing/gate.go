package timing

import (
	"errors"
	"fmt"

	"timetag/lib/event"
	"timetag/stream"
)

// GateConfig configures a Gate.
type GateConfig struct {
	// GateIf selects the events subject to the gate.
	GateIf MatchFunc
	// OpenIf and CloseIf select the events that flip the gate. They pass
	// through regardless of gate state, even when GateIf also matches them.
	OpenIf  MatchFunc
	CloseIf MatchFunc
	// InitiallyOpen sets the gate state before the first open or close.
	InitiallyOpen bool
}

func (cfg GateConfig) Validate() error {
	if cfg.GateIf == nil {
		return errors.New("gate needs a gated event predicate")
	}
	if cfg.OpenIf == nil {
		return errors.New("gate needs an open event predicate")
	}
	if cfg.CloseIf == nil {
		return errors.New("gate needs a close event predicate")
	}
	return nil
}

// Gate passes gated events only between an open and a close event. All
// other events always pass.
type Gate struct {
	next stream.Processor
	cfg  GateConfig
	open bool
}

func NewGate(cfg GateConfig, next stream.Processor) (*Gate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid gate config: %w", err)
	}
	return &Gate{next: next, cfg: cfg, open: cfg.InitiallyOpen}, nil
}

func (g *Gate) Process(ev event.Event) {
	switch {
	case g.cfg.OpenIf(ev):
		g.open = true
	case g.cfg.CloseIf(ev):
		g.open = false
	case g.cfg.GateIf(ev) && !g.open:
		return
	}
	g.next.Process(ev)
}

func (g *Gate) End(err error) {
	g.next.End(err)
}
