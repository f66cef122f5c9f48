package parking

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sweeney/parking-gate/internal/gpio"
)

// Config is the static description of the lot and its timings.
type Config struct {
	Spots       []SpotPins
	EntrySensor gpio.Pin
	ExitSensor  gpio.Pin
	Gate        GateConfig

	Debounce   time.Duration // minimum time between confirmed gate sensor transitions
	SpotPoll   time.Duration
	GatePoll   time.Duration
	StatusPoll time.Duration

	Priorities Priorities
}

// Validate checks that the configuration describes a usable lot.
func (c Config) Validate() error {
	if len(c.Spots) == 0 {
		return errors.New("at least one spot is required")
	}

	seen := make(map[gpio.Pin]string)
	claim := func(pin gpio.Pin, use string) error {
		if pin < 0 {
			return fmt.Errorf("%s: invalid pin %d", use, pin)
		}
		if prev, ok := seen[pin]; ok {
			return fmt.Errorf("pin %d used for both %s and %s", pin, prev, use)
		}
		seen[pin] = use
		return nil
	}
	for i, s := range c.Spots {
		if err := claim(s.Sensor, fmt.Sprintf("spot %d sensor", i+1)); err != nil {
			return err
		}
		if err := claim(s.Green, fmt.Sprintf("spot %d green led", i+1)); err != nil {
			return err
		}
		if err := claim(s.Red, fmt.Sprintf("spot %d red led", i+1)); err != nil {
			return err
		}
	}
	if err := claim(c.EntrySensor, "entry sensor"); err != nil {
		return err
	}
	if err := claim(c.ExitSensor, "exit sensor"); err != nil {
		return err
	}

	durations := []struct {
		name string
		d    time.Duration
	}{
		{"debounce", c.Debounce},
		{"spot poll", c.SpotPoll},
		{"gate poll", c.GatePoll},
		{"status poll", c.StatusPoll},
		{"passage", c.Gate.Passage},
		{"center pulse", c.Gate.Center},
		{"entry pulse", c.Gate.Entry},
		{"exit pulse", c.Gate.Exit},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", d.name, d.d)
		}
	}
	if c.Gate.Settle < 0 {
		return fmt.Errorf("settle must not be negative, got %v", c.Gate.Settle)
	}
	return nil
}

// System owns the shared state, the hardware collaborators and the four
// monitor loops, and starts and stops them together.
type System struct {
	cfg        Config
	state      *State
	io         gpio.IO
	gate       *Gate
	indicators Indicators
	observers  []Observer

	mu      sync.Mutex
	started bool
	wg      sync.WaitGroup
}

// New validates cfg and prepares a stopped system with every spot free and
// the gate centered.
func New(cfg Config, io gpio.IO, act gpio.Actuator) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	state := NewState(len(cfg.Spots))
	return &System{
		cfg:        cfg,
		state:      state,
		io:         io,
		gate:       NewGate(state, act, cfg.Gate),
		indicators: NewLEDIndicators(io, cfg.Spots),
	}, nil
}

// AddObserver registers a status observer. Call before Start.
func (s *System) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
}

// AddPassageSink registers a receiver of gate passages. Call before Start.
func (s *System) AddPassageSink(p PassageSink) {
	s.gate.AddSink(p)
}

// Gate returns the gate controller.
func (s *System) Gate() *Gate {
	return s.gate
}

// Snapshot returns a copy of the shared state.
func (s *System) Snapshot() Snapshot {
	return s.state.Snapshot()
}

// Start configures the pins, shows every spot free, centers the gate and
// launches the monitors. Any configuration failure is returned and nothing
// is started.
func (s *System) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.New("already started")
	}
	if s.state.Stopped() {
		return errors.New("system stopped")
	}

	for i, sp := range s.cfg.Spots {
		if err := s.io.Configure(sp.Sensor, gpio.Input); err != nil {
			return fmt.Errorf("configure spot %d sensor: %w", i+1, err)
		}
		if err := s.io.Configure(sp.Green, gpio.Output); err != nil {
			return fmt.Errorf("configure spot %d green led: %w", i+1, err)
		}
		if err := s.io.Configure(sp.Red, gpio.Output); err != nil {
			return fmt.Errorf("configure spot %d red led: %w", i+1, err)
		}
	}
	if err := s.io.Configure(s.cfg.EntrySensor, gpio.Input); err != nil {
		return fmt.Errorf("configure entry sensor: %w", err)
	}
	if err := s.io.Configure(s.cfg.ExitSensor, gpio.Input); err != nil {
		return fmt.Errorf("configure exit sensor: %w", err)
	}

	for i := range s.cfg.Spots {
		if err := s.indicators.SetSpot(i, false); err != nil {
			log.Printf("spot %d: %v", i+1, err)
		}
	}

	if err := s.gate.CenterAtStartup(); err != nil {
		return err
	}

	sensors := make([]gpio.Pin, len(s.cfg.Spots))
	for i, sp := range s.cfg.Spots {
		sensors[i] = sp.Sensor
	}

	// Gate monitors first: they are the time-sensitive ones.
	s.launch("entry", s.cfg.Priorities.Gate,
		NewEntryMonitor(s.state, s.io, s.cfg.EntrySensor, s.gate, s.cfg.Debounce, s.cfg.GatePoll).Run)
	s.launch("exit", s.cfg.Priorities.Gate,
		NewExitMonitor(s.state, s.io, s.cfg.ExitSensor, s.gate, s.cfg.Debounce, s.cfg.GatePoll).Run)
	s.launch("spots", s.cfg.Priorities.Spots,
		NewSpotMonitor(s.state, s.io, sensors, s.indicators, s.cfg.SpotPoll).Run)
	s.launch("status", s.cfg.Priorities.Status,
		NewReporter(s.state, s.cfg.StatusPoll, s.observers...).Run)

	s.started = true
	log.Printf("parking: started with %d spots", s.state.Total())
	return nil
}

func (s *System) launch(name string, p Priority, run func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		applyPriority(name, p)
		run()
	}()
}

// Stop sets the stop signal, waits for the monitors to finish (including a
// gate motion in flight), turns every indicator off, and centers and
// de-energizes the gate. Every step is attempted; errors are aggregated.
// Calling Stop again re-applies the same end state.
func (s *System) Stop() error {
	s.mu.Lock()
	s.state.Stop()
	s.mu.Unlock()

	s.wg.Wait()

	var errs []error
	if err := s.indicators.AllOff(); err != nil {
		errs = append(errs, err)
	}
	if err := s.gate.CenterAndDisable(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("stop errors: %v", errs)
	}
	log.Printf("parking: stopped")
	return nil
}
