// Command parking-gate runs the parking lot gate controller: it watches the
// entry, exit and spot sensors, drives the gate servo and spot LEDs, and
// publishes availability to MQTT.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/parking-gate/internal/config"
)

var (
	configPath string

	flagBroker    string
	flagHTTP      string
	flagDebounce  time.Duration
	flagPassage   time.Duration
	flagHeartbeat time.Duration
)

var rootCmd = &cobra.Command{
	Use:          "parking-gate",
	Short:        "Parking lot gate controller",
	SilenceUsage: true,
	RunE:         runDaemon,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the gate controller until SIGINT or SIGTERM (default)",
	RunE:  runDaemon,
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Read every sensor once, print it and exit",
	RunE:  runState,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "configuration file")

	for _, c := range []*cobra.Command{rootCmd, runCmd} {
		c.Flags().StringVar(&flagBroker, "broker", "", "MQTT broker address (overrides config)")
		c.Flags().StringVar(&flagHTTP, "http", "", `HTTP status address, "off" disables (overrides config)`)
		c.Flags().DurationVar(&flagDebounce, "debounce", 0, "gate sensor debounce (overrides config)")
		c.Flags().DurationVar(&flagPassage, "passage", 0, "time the gate stays open (overrides config)")
		c.Flags().DurationVar(&flagHeartbeat, "heartbeat", 0, "heartbeat interval, 0 disables (overrides config)")
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(stateCmd)
}

// loadConfig reads the config file and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	applyOverrides(&cfg, cmd.Flags().Changed)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config, changed func(string) bool) {
	if changed("broker") {
		cfg.MQTT.Broker = flagBroker
	}
	if changed("http") {
		cfg.HTTP.Addr = flagHTTP
		if flagHTTP == "off" {
			cfg.HTTP.Addr = ""
		}
	}
	if changed("debounce") {
		cfg.Timing.Debounce = flagDebounce
	}
	if changed("passage") {
		cfg.Timing.Passage = flagPassage
	}
	if changed("heartbeat") {
		cfg.MQTT.Heartbeat = flagHeartbeat
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
