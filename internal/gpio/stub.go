//go:build !linux

package gpio

import (
	"errors"
	"time"

	"github.com/sweeney/parking-gate/internal/logic"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// LineIO is not available on non-Linux platforms.
type LineIO struct{}

// NewLineIO returns an error on non-Linux platforms.
func NewLineIO(chipName string) (*LineIO, error) {
	return nil, errUnsupported
}

func (l *LineIO) Configure(pin Pin, dir Direction) error   { return errUnsupported }
func (l *LineIO) Read(pin Pin) (logic.Level, error)        { return logic.High, errUnsupported }
func (l *LineIO) Write(pin Pin, level logic.Level) error   { return errUnsupported }
func (l *LineIO) Close() error                             { return nil }

// ServoActuator is not available on non-Linux platforms.
type ServoActuator struct{}

// NewServoActuator returns an error on non-Linux platforms.
func NewServoActuator(pin Pin, period time.Duration) (*ServoActuator, error) {
	return nil, errUnsupported
}

func (s *ServoActuator) SetPulse(width time.Duration) error { return errUnsupported }
func (s *ServoActuator) Disable() error                     { return nil }
func (s *ServoActuator) Close() error                       { return nil }
