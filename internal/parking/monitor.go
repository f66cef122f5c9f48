package parking

import (
	"log"
	"time"

	"github.com/sweeney/parking-gate/internal/gpio"
	"github.com/sweeney/parking-gate/internal/logic"
)

// GateMonitor watches one gate sensor and asks the gate controller to open
// when a car arrives. The request blocks for the passage duration, so a
// monitor admits one car at a time.
type GateMonitor struct {
	name     string
	state    *State
	io       gpio.IO
	sensor   gpio.Pin
	request  func() (logic.Outcome, error)
	debounce time.Duration
	interval time.Duration
	now      func() time.Time

	edge    logic.EdgeState
	failing bool
}

// NewEntryMonitor creates the monitor for the entry sensor.
func NewEntryMonitor(state *State, io gpio.IO, sensor gpio.Pin, gate *Gate, debounce, interval time.Duration) *GateMonitor {
	return newGateMonitor("entry", state, io, sensor, gate.RequestEntry, debounce, interval)
}

// NewExitMonitor creates the monitor for the exit sensor.
func NewExitMonitor(state *State, io gpio.IO, sensor gpio.Pin, gate *Gate, debounce, interval time.Duration) *GateMonitor {
	return newGateMonitor("exit", state, io, sensor, gate.RequestExit, debounce, interval)
}

func newGateMonitor(name string, state *State, io gpio.IO, sensor gpio.Pin, request func() (logic.Outcome, error), debounce, interval time.Duration) *GateMonitor {
	return &GateMonitor{
		name:     name,
		state:    state,
		io:       io,
		sensor:   sensor,
		request:  request,
		debounce: debounce,
		interval: interval,
		now:      time.Now,
		edge:     logic.NewEdgeState(),
	}
}

// Run polls until the stop signal is set.
func (m *GateMonitor) Run() {
	for !m.state.Stopped() {
		m.poll()
		if !m.state.Sleep(m.interval) {
			return
		}
	}
}

func (m *GateMonitor) poll() {
	lvl, err := m.io.Read(m.sensor)
	if err != nil {
		if !m.failing {
			log.Printf("%s: read pin %d: %v", m.name, m.sensor, err)
			m.failing = true
		}
		return
	}
	if m.failing {
		log.Printf("%s: sensor recovered", m.name)
		m.failing = false
	}

	next, ok := logic.Debounce(m.edge, lvl, m.now(), m.debounce)
	if !ok {
		return
	}
	prev := m.edge
	m.edge = next
	if !logic.IsArrival(prev, next) {
		return
	}

	log.Printf("%s: car detected", m.name)
	outcome, err := m.request()
	if err != nil {
		log.Printf("%s: gate request: %v", m.name, err)
		return
	}
	log.Printf("%s: %s", m.name, outcome)
}
