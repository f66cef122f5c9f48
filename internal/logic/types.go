// Package logic contains pure business logic for the parking gate.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"fmt"
	"time"
)

// Level is a logical digital level as read from a pin.
type Level int

const (
	Low  Level = 0
	High Level = 1
)

func (l Level) String() string {
	if l == Low {
		return "LOW"
	}
	return "HIGH"
}

// Sensors are active-low: a car in front of the sensor pulls the line low.
const (
	LevelClear   = High
	LevelPresent = Low
)

// GateState is the position the gate controller last commanded.
type GateState int

const (
	GateCentered GateState = iota
	GateOpeningForEntry
	GateOpeningForExit
)

// String returns the status-line rendering of the gate state.
func (g GateState) String() string {
	switch g {
	case GateOpeningForEntry:
		return "ENTRY"
	case GateOpeningForExit:
		return "EXIT"
	default:
		return "CENTERED"
	}
}

// Direction of travel through the gate.
type Direction string

const (
	DirectionEntry Direction = "ENTRY"
	DirectionExit  Direction = "EXIT"
)

// Outcome of a gate request.
type Outcome string

const (
	OutcomeGranted Outcome = "GRANTED"
	OutcomeDenied  Outcome = "DENIED" // lot full
)

// EdgeState tracks the last confirmed level of a debounced sensor.
type EdgeState struct {
	// Last confirmed level
	Level Level
	// Time of the last confirmed transition (zero before the first one)
	Since time.Time
}

// NewEdgeState returns the edge state of a sensor that starts out clear.
func NewEdgeState() EdgeState {
	return EdgeState{Level: LevelClear}
}

// Status is one observation of the aggregate lot state.
type Status struct {
	Timestamp time.Time
	Available int
	Total     int
	Gate      GateState
}

// Occupied returns the number of spots taken according to gate accounting.
func (s Status) Occupied() int {
	return s.Total - s.Available
}

// SameAs reports whether two observations carry the same availability and gate state.
func (s Status) SameAs(o Status) bool {
	return s.Available == o.Available && s.Total == o.Total && s.Gate == o.Gate
}

func (s Status) String() string {
	return fmt.Sprintf("Available: %d/%d (Occupied: %d) [Gate: %s]", s.Available, s.Total, s.Occupied(), s.Gate)
}

// Passage records one decided gate request.
type Passage struct {
	ID        string
	Timestamp time.Time
	Direction Direction
	Outcome   Outcome
	Available int // availability after the request
	Total     int
}

// PassageCounts tracks decided gate requests since startup.
type PassageCounts struct {
	Entries int
	Exits   int
	Denied  int
}
