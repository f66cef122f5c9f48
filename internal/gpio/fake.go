package gpio

import (
	"sync"
	"time"

	"github.com/sweeney/parking-gate/internal/logic"
)

// FakeIO is a test double holding settable line levels.
// Unlike the hardware it does not require Configure before Read or Write;
// inputs that were never set read High (pulled up, nothing present).
// Safe for concurrent use.
type FakeIO struct {
	mu sync.Mutex

	levels    map[Pin]logic.Level
	scripts   map[Pin][]logic.Level
	readErrs  map[Pin]error
	writeErrs map[Pin]error
	dirs      map[Pin]Direction
	reads     map[Pin]int
	writes    []Write
	closed    bool

	// ConfigureError, if set, is returned by Configure.
	ConfigureError error
}

// Write records one call to FakeIO.Write.
type Write struct {
	Pin   Pin
	Level logic.Level
}

// NewFakeIO creates an empty FakeIO.
func NewFakeIO() *FakeIO {
	return &FakeIO{
		levels:    make(map[Pin]logic.Level),
		scripts:   make(map[Pin][]logic.Level),
		readErrs:  make(map[Pin]error),
		writeErrs: make(map[Pin]error),
		dirs:      make(map[Pin]Direction),
		reads:     make(map[Pin]int),
	}
}

// Configure records the direction of pin.
func (f *FakeIO) Configure(pin Pin, dir Direction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ConfigureError != nil {
		return f.ConfigureError
	}
	f.dirs[pin] = dir
	return nil
}

// Read returns the next scripted level for pin, or its current level once
// the script is exhausted.
func (f *FakeIO) Read(pin Pin) (logic.Level, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads[pin]++
	if err := f.readErrs[pin]; err != nil {
		return logic.High, err
	}
	if s := f.scripts[pin]; len(s) > 0 {
		f.levels[pin] = s[0]
		f.scripts[pin] = s[1:]
	}
	if lvl, ok := f.levels[pin]; ok {
		return lvl, nil
	}
	return logic.High, nil
}

// Write records the write and stores the level.
func (f *FakeIO) Write(pin Pin, level logic.Level) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.writeErrs[pin]; err != nil {
		return err
	}
	f.levels[pin] = level
	f.writes = append(f.writes, Write{Pin: pin, Level: level})
	return nil
}

// Close marks the fake as closed.
func (f *FakeIO) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// SetLevel sets the level an input pin reads.
func (f *FakeIO) SetLevel(pin Pin, level logic.Level) {
	f.mu.Lock()
	f.levels[pin] = level
	f.mu.Unlock()
}

// Script queues levels returned by successive reads of pin.
func (f *FakeIO) Script(pin Pin, levels ...logic.Level) {
	f.mu.Lock()
	f.scripts[pin] = append(f.scripts[pin], levels...)
	f.mu.Unlock()
}

// SetReadError makes reads of pin fail with err (nil clears it).
func (f *FakeIO) SetReadError(pin Pin, err error) {
	f.mu.Lock()
	f.readErrs[pin] = err
	f.mu.Unlock()
}

// SetWriteError makes writes to pin fail with err (nil clears it).
func (f *FakeIO) SetWriteError(pin Pin, err error) {
	f.mu.Lock()
	f.writeErrs[pin] = err
	f.mu.Unlock()
}

// Level returns the last level set or written for pin.
func (f *FakeIO) Level(pin Pin) (logic.Level, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lvl, ok := f.levels[pin]
	return lvl, ok
}

// Direction returns the configured direction of pin.
func (f *FakeIO) Direction(pin Pin) (Direction, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dirs[pin]
	return d, ok
}

// Reads returns how many times pin was read.
func (f *FakeIO) Reads(pin Pin) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads[pin]
}

// Writes returns a copy of all recorded writes.
func (f *FakeIO) Writes() []Write {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Write(nil), f.writes...)
}

// Closed reports whether Close was called.
func (f *FakeIO) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// FakeActuator records servo commands.
// Safe for concurrent use.
type FakeActuator struct {
	mu       sync.Mutex
	pulses   []time.Duration
	enabled  bool
	disables int
	closed   bool
	failAt   map[time.Duration]error

	// OnPulse, if set, is called (without the lock held) after each
	// successful SetPulse.
	OnPulse func(width time.Duration)
}

// NewFakeActuator creates a de-energized FakeActuator.
func NewFakeActuator() *FakeActuator {
	return &FakeActuator{failAt: make(map[time.Duration]error)}
}

// SetPulse records width and energizes the actuator.
func (f *FakeActuator) SetPulse(width time.Duration) error {
	f.mu.Lock()
	if err := f.failAt[width]; err != nil {
		f.mu.Unlock()
		return err
	}
	f.pulses = append(f.pulses, width)
	f.enabled = true
	hook := f.OnPulse
	f.mu.Unlock()

	if hook != nil {
		hook(width)
	}
	return nil
}

// Disable de-energizes the actuator.
func (f *FakeActuator) Disable() error {
	f.mu.Lock()
	f.enabled = false
	f.disables++
	f.mu.Unlock()
	return nil
}

// Close marks the actuator closed.
func (f *FakeActuator) Close() error {
	f.mu.Lock()
	f.closed = true
	f.enabled = false
	f.mu.Unlock()
	return nil
}

// FailPulse makes SetPulse(width) fail with err (nil clears it).
func (f *FakeActuator) FailPulse(width time.Duration, err error) {
	f.mu.Lock()
	if err == nil {
		delete(f.failAt, width)
	} else {
		f.failAt[width] = err
	}
	f.mu.Unlock()
}

// Pulses returns a copy of every pulse width set so far.
func (f *FakeActuator) Pulses() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.pulses...)
}

// Last returns the most recent pulse width, or 0 if none.
func (f *FakeActuator) Last() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pulses) == 0 {
		return 0
	}
	return f.pulses[len(f.pulses)-1]
}

// Enabled reports whether the actuator is energized.
func (f *FakeActuator) Enabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled
}

// Disables returns how many times Disable was called.
func (f *FakeActuator) Disables() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disables
}

// Closed reports whether Close was called.
func (f *FakeActuator) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
