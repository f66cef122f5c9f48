// Package config loads the parking gate configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/sweeney/parking-gate/internal/gpio"
	"github.com/sweeney/parking-gate/internal/parking"
)

// DefaultPath is where the daemon looks for its configuration.
const DefaultPath = "/etc/parking-gate.toml"

// Config mirrors the TOML file.
type Config struct {
	Chip       string `toml:"chip"`
	TotalSpots int    `toml:"total_spots"`
	Spots      []Spot `toml:"spots"`

	Gate   Gate   `toml:"gate"`
	Servo  Servo  `toml:"servo"`
	Timing Timing `toml:"timing"`
	MQTT   MQTT   `toml:"mqtt"`
	HTTP   HTTP   `toml:"http"`
	Influx Influx `toml:"influx"`
}

// Spot is one [[spots]] entry.
type Spot struct {
	Sensor   int `toml:"sensor"`
	GreenLED int `toml:"green_led"`
	RedLED   int `toml:"red_led"`
}

type Gate struct {
	EntrySensor int `toml:"entry_sensor"`
	ExitSensor  int `toml:"exit_sensor"`
}

// Servo describes the gate servo. Pulse widths are within the PWM period.
type Servo struct {
	Pin    int           `toml:"pin"`
	Period time.Duration `toml:"period"`
	Center time.Duration `toml:"center"`
	Entry  time.Duration `toml:"entry"`
	Exit   time.Duration `toml:"exit"`
}

type Timing struct {
	Debounce   time.Duration `toml:"debounce"`
	SpotPoll   time.Duration `toml:"spot_poll"`
	GatePoll   time.Duration `toml:"gate_poll"`
	StatusPoll time.Duration `toml:"status_poll"`
	Passage    time.Duration `toml:"passage"`
	Settle     time.Duration `toml:"settle"`
}

type MQTT struct {
	Broker    string        `toml:"broker"`
	Heartbeat time.Duration `toml:"heartbeat"` // 0 disables
}

type HTTP struct {
	Addr string `toml:"addr"` // empty disables
}

// Influx is optional; an empty URL disables the recorder.
type Influx struct {
	URL    string `toml:"url"`
	Token  string `toml:"token"`
	Org    string `toml:"org"`
	Bucket string `toml:"bucket"`
	Lot    string `toml:"lot"` // tags every point, for lots sharing a bucket
}

// Default returns the built-in configuration: three spots on the default
// pins, a 5 s passage and a 500 ms gate debounce.
func Default() Config {
	spots := make([]Spot, len(gpio.DefaultSpotPins))
	for i, p := range gpio.DefaultSpotPins {
		spots[i] = Spot{Sensor: int(p[0]), GreenLED: int(p[1]), RedLED: int(p[2])}
	}
	return Config{
		Chip:       gpio.DefaultChip,
		TotalSpots: len(spots),
		Spots:      spots,
		Gate: Gate{
			EntrySensor: int(gpio.DefaultPinEntry),
			ExitSensor:  int(gpio.DefaultPinExit),
		},
		Servo: Servo{
			Pin:    int(gpio.DefaultPinServo),
			Period: 20 * time.Millisecond,
			Center: 1500 * time.Microsecond,
			Entry:  1000 * time.Microsecond,
			Exit:   2000 * time.Microsecond,
		},
		Timing: Timing{
			Debounce:   500 * time.Millisecond,
			SpotPoll:   100 * time.Millisecond,
			GatePoll:   50 * time.Millisecond,
			StatusPoll: 200 * time.Millisecond,
			Passage:    5 * time.Second,
			Settle:     time.Second,
		},
		MQTT: MQTT{
			Broker:    "tcp://192.168.1.200:1883",
			Heartbeat: 15 * time.Minute,
		},
		HTTP: HTTP{Addr: ":80"},
		Influx: Influx{
			Org:    "home",
			Bucket: "parking",
			Lot:    "main",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
// A [[spots]] list replaces the default spots entirely, and every entry must
// set all three pins. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, cfg.Validate()
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config %s: unknown keys %v", path, undecoded)
	}
	if md.IsDefined("spots") {
		spots, err := decodeSpots(string(data))
		if err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
		cfg.Spots = spots
		// A file that lists spots but omits total_spots means "all of them".
		if !md.IsDefined("total_spots") {
			cfg.TotalSpots = len(cfg.Spots)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// decodeSpots reads the [[spots]] list on its own so that a missing key is
// an error rather than a pin left over from the defaults.
func decodeSpots(data string) ([]Spot, error) {
	var file struct {
		Spots []struct {
			Sensor   *int `toml:"sensor"`
			GreenLED *int `toml:"green_led"`
			RedLED   *int `toml:"red_led"`
		} `toml:"spots"`
	}
	if _, err := toml.Decode(data, &file); err != nil {
		return nil, err
	}
	spots := make([]Spot, len(file.Spots))
	for i, s := range file.Spots {
		for _, k := range []struct {
			name string
			pin  *int
		}{
			{"sensor", s.Sensor},
			{"green_led", s.GreenLED},
			{"red_led", s.RedLED},
		} {
			if k.pin == nil {
				return nil, fmt.Errorf("spot %d: %s not set", i+1, k.name)
			}
		}
		spots[i] = Spot{Sensor: *s.Sensor, GreenLED: *s.GreenLED, RedLED: *s.RedLED}
	}
	return spots, nil
}

// Validate checks the settings that the parking core does not know about
// and then the core configuration itself.
func (c Config) Validate() error {
	if c.TotalSpots <= 0 {
		return fmt.Errorf("total_spots must be positive, got %d", c.TotalSpots)
	}
	if c.TotalSpots != len(c.Spots) {
		return fmt.Errorf("total_spots is %d but %d spots are listed", c.TotalSpots, len(c.Spots))
	}
	if c.Chip == "" {
		return errors.New("chip must be set")
	}
	if !gpio.IsPWMPin(gpio.Pin(c.Servo.Pin)) {
		return fmt.Errorf("servo pin %d has no hardware PWM (use one of %v)", c.Servo.Pin, gpio.PWMPins)
	}
	if c.Servo.Period <= 0 {
		return fmt.Errorf("servo period must be positive, got %v", c.Servo.Period)
	}
	for _, p := range []struct {
		name string
		d    time.Duration
	}{
		{"center", c.Servo.Center},
		{"entry", c.Servo.Entry},
		{"exit", c.Servo.Exit},
	} {
		if p.d >= c.Servo.Period {
			return fmt.Errorf("servo %s pulse %v does not fit in period %v", p.name, p.d, c.Servo.Period)
		}
	}
	if c.MQTT.Heartbeat < 0 {
		return fmt.Errorf("heartbeat must not be negative, got %v", c.MQTT.Heartbeat)
	}
	if c.Influx.URL != "" && c.Influx.Lot == "" {
		return errors.New("influx lot must be set when influx url is")
	}

	pc := c.Parking()
	if err := pc.Validate(); err != nil {
		return err
	}
	// The servo pin must not collide with a sensor or LED.
	for i, s := range pc.Spots {
		for _, pin := range []gpio.Pin{s.Sensor, s.Green, s.Red} {
			if pin == gpio.Pin(c.Servo.Pin) {
				return fmt.Errorf("pin %d used for both spot %d and servo", pin, i+1)
			}
		}
	}
	if pc.EntrySensor == gpio.Pin(c.Servo.Pin) || pc.ExitSensor == gpio.Pin(c.Servo.Pin) {
		return fmt.Errorf("pin %d used for both gate sensor and servo", c.Servo.Pin)
	}
	return nil
}

// Parking returns the core configuration.
func (c Config) Parking() parking.Config {
	spots := make([]parking.SpotPins, len(c.Spots))
	for i, s := range c.Spots {
		spots[i] = parking.SpotPins{
			Sensor: gpio.Pin(s.Sensor),
			Green:  gpio.Pin(s.GreenLED),
			Red:    gpio.Pin(s.RedLED),
		}
	}
	return parking.Config{
		Spots:       spots,
		EntrySensor: gpio.Pin(c.Gate.EntrySensor),
		ExitSensor:  gpio.Pin(c.Gate.ExitSensor),
		Gate: parking.GateConfig{
			Center:  c.Servo.Center,
			Entry:   c.Servo.Entry,
			Exit:    c.Servo.Exit,
			Passage: c.Timing.Passage,
			Settle:  c.Timing.Settle,
		},
		Debounce:   c.Timing.Debounce,
		SpotPoll:   c.Timing.SpotPoll,
		GatePoll:   c.Timing.GatePoll,
		StatusPoll: c.Timing.StatusPoll,
		Priorities: parking.DefaultPriorities,
	}
}
