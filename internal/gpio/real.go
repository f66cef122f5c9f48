//go:build linux

package gpio

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/parking-gate/internal/logic"
)

const consumer = "parking-gate"

// LineIO drives digital lines through the Linux GPIO character device.
type LineIO struct {
	mu    sync.Mutex
	chip  *gpiocdev.Chip
	lines map[Pin]*gpiocdev.Line
	dirs  map[Pin]Direction
}

// NewLineIO opens the named GPIO chip (e.g. "gpiochip0").
func NewLineIO(chipName string) (*LineIO, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}
	return &LineIO{
		chip:  chip,
		lines: make(map[Pin]*gpiocdev.Line),
		dirs:  make(map[Pin]Direction),
	}, nil
}

// Configure requests the line as an input with pull-up (the proximity
// sensors are open-collector, active-low) or as an output driven low.
// Reconfiguring an already requested line changes its direction in place.
func (l *LineIO) Configure(pin Pin, dir Direction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if line, ok := l.lines[pin]; ok {
		var err error
		if dir == Output {
			err = line.Reconfigure(gpiocdev.AsOutput(0))
		} else {
			err = line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp)
		}
		if err != nil {
			return fmt.Errorf("reconfigure pin %d as %s: %w", pin, dir, err)
		}
		l.dirs[pin] = dir
		return nil
	}

	var (
		line *gpiocdev.Line
		err  error
	)
	if dir == Output {
		line, err = l.chip.RequestLine(int(pin), gpiocdev.AsOutput(0))
	} else {
		line, err = l.chip.RequestLine(int(pin), gpiocdev.AsInput, gpiocdev.WithPullUp)
	}
	if err != nil {
		return fmt.Errorf("request pin %d as %s: %w", pin, dir, err)
	}
	l.lines[pin] = line
	l.dirs[pin] = dir
	return nil
}

// Read returns the raw level of a configured line.
func (l *LineIO) Read(pin Pin) (logic.Level, error) {
	line, err := l.line(pin)
	if err != nil {
		return logic.High, err
	}
	v, err := line.Value()
	if err != nil {
		return logic.High, fmt.Errorf("read pin %d: %w", pin, err)
	}
	if v == 0 {
		return logic.Low, nil
	}
	return logic.High, nil
}

// Write drives a configured output line.
func (l *LineIO) Write(pin Pin, level logic.Level) error {
	line, err := l.line(pin)
	if err != nil {
		return err
	}
	if err := line.SetValue(int(level)); err != nil {
		return fmt.Errorf("write pin %d: %w", pin, err)
	}
	return nil
}

func (l *LineIO) line(pin Pin) (*gpiocdev.Line, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	line, ok := l.lines[pin]
	if !ok {
		return nil, fmt.Errorf("pin %d not configured", pin)
	}
	return line, nil
}

// Close releases all lines.
// Lines are returned to input with pull-down (matching Pi boot defaults)
// before closing so LEDs go dark and nothing is left driven across a reboot.
func (l *LineIO) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	for pin, line := range l.lines {
		if l.dirs[pin] == Output {
			if err := line.SetValue(0); err != nil {
				errs = append(errs, fmt.Errorf("clear pin %d: %w", pin, err))
			}
		}
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", pin, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", pin, err))
		}
	}
	l.lines = make(map[Pin]*gpiocdev.Line)
	l.dirs = make(map[Pin]Direction)

	if l.chip != nil {
		if err := l.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		l.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
