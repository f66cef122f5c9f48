package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sweeney/parking-gate/internal/gpio"
	"github.com/sweeney/parking-gate/internal/logic"
	"github.com/sweeney/parking-gate/internal/parking"
)

func runState(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	lineIO, err := gpio.NewLineIO(cfg.Chip)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer lineIO.Close()

	return printState(os.Stdout, lineIO, cfg.Parking())
}

// printState configures every sensor as an input, reads it once and prints
// one line per sensor. LEDs and the servo are left untouched.
func printState(w io.Writer, pins gpio.IO, cfg parking.Config) error {
	type sensor struct {
		name string
		pin  gpio.Pin
		show func(logic.Level) string
	}
	sensors := []sensor{
		{"Entry", cfg.EntrySensor, presence},
		{"Exit", cfg.ExitSensor, presence},
	}
	for i, sp := range cfg.Spots {
		sensors = append(sensors, sensor{fmt.Sprintf("Spot %d", i+1), sp.Sensor, occupancy})
	}

	for _, s := range sensors {
		if err := pins.Configure(s.pin, gpio.Input); err != nil {
			return fmt.Errorf("configure %s sensor: %w", s.name, err)
		}
	}
	for _, s := range sensors {
		lvl, err := pins.Read(s.pin)
		if err != nil {
			return fmt.Errorf("read %s sensor: %w", s.name, err)
		}
		fmt.Fprintf(w, "%s (pin %d): %s [%s]\n", s.name, s.pin, s.show(lvl), lvl)
	}
	return nil
}

func presence(l logic.Level) string {
	if l == logic.LevelPresent {
		return "car present"
	}
	return "clear"
}

func occupancy(l logic.Level) string {
	if l == logic.LevelPresent {
		return "occupied"
	}
	return "free"
}
