// Package gpio provides digital and PWM I/O with hardware abstraction.
// The real implementations use the Linux GPIO character device for digital
// lines and the BCM2835 PWM peripheral for the gate servo.
// The fake implementations allow testing without hardware.
package gpio

import (
	"time"

	"github.com/sweeney/parking-gate/internal/logic"
)

// Pin identifies a GPIO line (BCM numbering). Pins are assigned by
// configuration and otherwise opaque to callers.
type Pin int

// Direction of a digital line.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "out"
	}
	return "in"
}

// IO reads and writes digital lines.
// Implementations must be safe for concurrent use: every monitor shares one.
type IO interface {
	// Configure requests the line in the given direction.
	Configure(pin Pin, dir Direction) error

	// Read returns the current level of an input line.
	Read(pin Pin) (logic.Level, error)

	// Write drives an output line.
	Write(pin Pin, level logic.Level) error

	// Close releases all lines.
	Close() error
}

// Actuator drives the gate servo.
type Actuator interface {
	// SetPulse sets the servo pulse width, energizing the output if needed.
	SetPulse(width time.Duration) error

	// Disable stops driving the servo.
	Disable() error

	// Close releases PWM resources.
	Close() error
}

// Default pin assignment (BCM numbering).
const (
	DefaultChip     = "gpiochip0"
	DefaultPinEntry = 23
	DefaultPinExit  = 24
	DefaultPinServo = 18
)

// DefaultSpotPins lists sensor, green LED and red LED pins for each spot.
var DefaultSpotPins = [][3]Pin{
	{5, 6, 26},
	{17, 27, 22},
	{16, 20, 21},
}

// PWMPins are the BCM lines routed to the hardware PWM channels.
var PWMPins = []Pin{12, 13, 18, 19}

// IsPWMPin reports whether pin can drive a hardware PWM channel.
func IsPWMPin(pin Pin) bool {
	for _, p := range PWMPins {
		if p == pin {
			return true
		}
	}
	return false
}
