package parking

import (
	"fmt"

	"github.com/sweeney/parking-gate/internal/gpio"
	"github.com/sweeney/parking-gate/internal/logic"
)

// SpotPins is the pin assignment of one parking spot.
type SpotPins struct {
	Sensor gpio.Pin
	Green  gpio.Pin // lit when the spot is free
	Red    gpio.Pin // lit when the spot is occupied
}

// Indicators shows per-spot occupancy.
type Indicators interface {
	SetSpot(i int, occupied bool) error
	AllOff() error
}

// LEDIndicators drives a green/red LED pair per spot.
type LEDIndicators struct {
	io    gpio.IO
	spots []SpotPins
}

// NewLEDIndicators creates indicators for spots on io.
func NewLEDIndicators(io gpio.IO, spots []SpotPins) *LEDIndicators {
	return &LEDIndicators{io: io, spots: spots}
}

// SetSpot lights green for a free spot and red for an occupied one.
// Both LEDs are written even if the first write fails.
func (l *LEDIndicators) SetSpot(i int, occupied bool) error {
	if i < 0 || i >= len(l.spots) {
		return fmt.Errorf("spot %d out of range", i+1)
	}
	green, red := logic.High, logic.Low
	if occupied {
		green, red = logic.Low, logic.High
	}

	var errs []error
	if err := l.io.Write(l.spots[i].Green, green); err != nil {
		errs = append(errs, fmt.Errorf("green led spot %d: %w", i+1, err))
	}
	if err := l.io.Write(l.spots[i].Red, red); err != nil {
		errs = append(errs, fmt.Errorf("red led spot %d: %w", i+1, err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("led errors: %v", errs)
	}
	return nil
}

// AllOff turns every LED off, attempting all of them.
func (l *LEDIndicators) AllOff() error {
	var errs []error
	for i, s := range l.spots {
		if err := l.io.Write(s.Green, logic.Low); err != nil {
			errs = append(errs, fmt.Errorf("green led spot %d: %w", i+1, err))
		}
		if err := l.io.Write(s.Red, logic.Low); err != nil {
			errs = append(errs, fmt.Errorf("red led spot %d: %w", i+1, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("led errors: %v", errs)
	}
	return nil
}
