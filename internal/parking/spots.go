package parking

import (
	"log"
	"time"

	"github.com/sweeney/parking-gate/internal/gpio"
	"github.com/sweeney/parking-gate/internal/logic"
)

// SpotMonitor polls the spot sensors and keeps the occupancy table and
// indicators current. Spot sensors are not debounced; only the gate
// sensors are.
type SpotMonitor struct {
	state      *State
	io         gpio.IO
	sensors    []gpio.Pin
	indicators Indicators
	interval   time.Duration
	failing    []bool
	ledStale   []bool // last indicator write failed; rewrite on the next pass
}

// NewSpotMonitor creates a monitor for sensors, one per spot in index order.
func NewSpotMonitor(state *State, io gpio.IO, sensors []gpio.Pin, indicators Indicators, interval time.Duration) *SpotMonitor {
	return &SpotMonitor{
		state:      state,
		io:         io,
		sensors:    sensors,
		indicators: indicators,
		interval:   interval,
		failing:    make([]bool, len(sensors)),
		ledStale:   make([]bool, len(sensors)),
	}
}

// Run polls until the stop signal is set.
func (m *SpotMonitor) Run() {
	for !m.state.Stopped() {
		m.poll()
		if !m.state.Sleep(m.interval) {
			return
		}
	}
}

func (m *SpotMonitor) poll() {
	for i, pin := range m.sensors {
		lvl, err := m.io.Read(pin)
		if err != nil {
			// Log once per failure streak; retry next pass.
			if !m.failing[i] {
				log.Printf("spot %d: read pin %d: %v", i+1, pin, err)
				m.failing[i] = true
			}
			continue
		}
		if m.failing[i] {
			log.Printf("spot %d: sensor recovered", i+1)
			m.failing[i] = false
		}

		occupied := lvl == logic.LevelPresent
		changed := m.state.SetOccupied(i, occupied)
		if changed {
			log.Printf("spot %d: %s", i+1, occupancyString(occupied))
		} else if !m.ledStale[i] {
			continue
		}
		if err := m.indicators.SetSpot(i, occupied); err != nil {
			if changed || !m.ledStale[i] {
				log.Printf("spot %d: %v", i+1, err)
			}
			m.ledStale[i] = true
			continue
		}
		m.ledStale[i] = false
	}
}

func occupancyString(occupied bool) string {
	if occupied {
		return "occupied"
	}
	return "free"
}
