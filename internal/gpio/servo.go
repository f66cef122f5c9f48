//go:build linux

package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/stianeikeland/go-rpio/v4"
)

// ServoActuator drives a hobby servo from a hardware PWM channel.
// The PWM clock is set so one tick is one microsecond, giving
// period/1µs ticks per cycle (20000 for the standard 50 Hz servo frame).
type ServoActuator struct {
	mu       sync.Mutex
	pin      rpio.Pin
	cycleLen uint32
	enabled  bool
}

// NewServoActuator maps the PWM peripheral and configures pin for PWM output.
// Requires root (or /dev/gpiomem with PWM access) on a Raspberry Pi.
func NewServoActuator(pin Pin, period time.Duration) (*ServoActuator, error) {
	if !IsPWMPin(pin) {
		return nil, fmt.Errorf("servo pin %d has no hardware PWM (use one of %v)", pin, PWMPins)
	}
	if period < time.Millisecond {
		return nil, fmt.Errorf("servo period %v too short", period)
	}
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open pwm: %w", err)
	}

	p := rpio.Pin(pin)
	p.Mode(rpio.Pwm)
	cycle := uint32(period / time.Microsecond)
	p.Freq(int(time.Second / time.Microsecond))
	p.DutyCycle(0, cycle)

	return &ServoActuator{pin: p, cycleLen: cycle}, nil
}

// SetPulse sets the high time of each PWM cycle.
func (s *ServoActuator) SetPulse(width time.Duration) error {
	ticks := uint32(width / time.Microsecond)
	if ticks > s.cycleLen {
		return fmt.Errorf("pulse %v exceeds pwm period", width)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		s.pin.Mode(rpio.Pwm)
		s.enabled = true
	}
	s.pin.DutyCycle(ticks, s.cycleLen)
	return nil
}

// Disable drops the duty cycle to zero so the servo stops holding position.
func (s *ServoActuator) Disable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pin.DutyCycle(0, s.cycleLen)
	s.enabled = false
	return nil
}

// Close disables the output, returns the pin to input and unmaps the peripheral.
func (s *ServoActuator) Close() error {
	if err := s.Disable(); err != nil {
		return err
	}
	s.mu.Lock()
	s.pin.Input()
	s.mu.Unlock()
	if err := rpio.Close(); err != nil {
		return fmt.Errorf("close pwm: %w", err)
	}
	return nil
}
