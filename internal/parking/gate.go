package parking

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sweeney/parking-gate/internal/gpio"
	"github.com/sweeney/parking-gate/internal/idgen"
	"github.com/sweeney/parking-gate/internal/logic"
)

// GateConfig holds the servo positions and gate timings.
type GateConfig struct {
	Center time.Duration // pulse width, gate closed
	Entry  time.Duration // pulse width, open for entry (clockwise)
	Exit   time.Duration // pulse width, open for exit (counter-clockwise)

	// Passage is how long the gate stays open for a car to pass.
	Passage time.Duration
	// Settle is how long the servo gets to reach center at startup and stop.
	Settle time.Duration
}

// Gate is the only driver of the gate actuator and the only writer of
// availability. Requests are serialized through one critical section that
// covers the whole open-hold-close sequence; the gate is Centered on entry
// to and exit from that section.
type Gate struct {
	mu    sync.Mutex // gate critical section
	state *State
	act   gpio.Actuator
	cfg   GateConfig
	sinks []PassageSink

	sleep func(time.Duration)
	now   func() time.Time
	newID func() (string, error)
}

// NewGate creates a gate controller for act.
func NewGate(state *State, act gpio.Actuator, cfg GateConfig) *Gate {
	return &Gate{
		state: state,
		act:   act,
		cfg:   cfg,
		sleep: time.Sleep,
		now:   time.Now,
		newID: idgen.Generate,
	}
}

// AddSink registers a receiver for decided requests.
// Not safe for use once requests are being served.
func (g *Gate) AddSink(s PassageSink) {
	g.sinks = append(g.sinks, s)
}

// RequestEntry admits one car if a spot is free. It blocks for the passage
// duration when granted and returns OutcomeDenied without moving the gate
// when the lot is full.
func (g *Gate) RequestEntry() (logic.Outcome, error) {
	p, err := g.entry()
	if p != nil {
		g.emit(*p)
		return p.Outcome, err
	}
	return "", err
}

// RequestExit lets one car out. Exits are never denied; availability is
// capped at the lot capacity.
func (g *Gate) RequestExit() (logic.Outcome, error) {
	p, err := g.exit()
	if p != nil {
		g.emit(*p)
		return p.Outcome, err
	}
	return "", err
}

func (g *Gate) entry() (*logic.Passage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.Available() == 0 {
		g.state.countDenied()
		log.Printf("gate: entry denied, lot full")
		p := g.passage(logic.DirectionEntry, logic.OutcomeDenied, 0)
		return &p, nil
	}

	if err := g.open(logic.GateOpeningForEntry, g.cfg.Entry); err != nil {
		return nil, err
	}
	g.sleep(g.cfg.Passage)
	available, _ := g.state.takeSpot()
	err := g.center()

	p := g.passage(logic.DirectionEntry, logic.OutcomeGranted, available)
	return &p, err
}

func (g *Gate) exit() (*logic.Passage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.open(logic.GateOpeningForExit, g.cfg.Exit); err != nil {
		return nil, err
	}
	g.sleep(g.cfg.Passage)
	available := g.state.releaseSpot()
	err := g.center()

	p := g.passage(logic.DirectionExit, logic.OutcomeGranted, available)
	return &p, err
}

// open moves the gate out of center. On failure the gate is re-centered and
// the request is abandoned. Caller holds g.mu.
func (g *Gate) open(state logic.GateState, width time.Duration) error {
	g.state.setGate(state)
	log.Printf("gate: opening for %s", state)
	if err := g.act.SetPulse(width); err != nil {
		if cerr := g.center(); cerr != nil {
			log.Printf("gate: %v", cerr)
		}
		return fmt.Errorf("open gate for %s: %w", state, err)
	}
	return nil
}

// center commands the center position and records the gate as Centered
// whether or not the actuator accepted it. Caller holds g.mu.
func (g *Gate) center() error {
	err := g.act.SetPulse(g.cfg.Center)
	g.state.setGate(logic.GateCentered)
	if err != nil {
		return fmt.Errorf("center gate: %w", err)
	}
	return nil
}

// CenterAtStartup parks the gate and waits for the servo to settle.
func (g *Gate) CenterAtStartup() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	log.Printf("gate: centering at startup")
	if err := g.center(); err != nil {
		return err
	}
	g.sleep(g.cfg.Settle)
	return nil
}

// CenterAndDisable waits for any motion in flight, parks the gate and
// de-energizes the servo. Both steps are attempted.
func (g *Gate) CenterAndDisable() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var errs []error
	if err := g.center(); err != nil {
		errs = append(errs, err)
	} else {
		g.sleep(g.cfg.Settle)
	}
	if err := g.act.Disable(); err != nil {
		errs = append(errs, fmt.Errorf("disable gate: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("gate shutdown errors: %v", errs)
	}
	return nil
}

func (g *Gate) passage(dir logic.Direction, outcome logic.Outcome, available int) logic.Passage {
	id, err := g.newID()
	if err != nil {
		log.Printf("gate: passage id: %v", err)
	}
	return logic.Passage{
		ID:        id,
		Timestamp: g.now(),
		Direction: dir,
		Outcome:   outcome,
		Available: available,
		Total:     g.state.Total(),
	}
}

func (g *Gate) emit(p logic.Passage) {
	for _, s := range g.sinks {
		s.RecordPassage(p)
	}
}
