// Package status provides a thread-safe status tracker for the parking-gate daemon.
// It is read by the HTTP handlers and used to build MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/parking-gate/internal/parking"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	DebounceMs  int64
	PassageMs   int64
	HeartbeatMs int64
	Broker      string
	HTTPPort    string
	Influx      string // InfluxDB URL (empty = disabled)
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Lot           parking.Snapshot
	Running       bool
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update stores the latest lot snapshot and marks the daemon running.
// Called from runLoop on every refresh tick.
func (t *Tracker) Update(lot parking.Snapshot) {
	t.mu.Lock()
	t.snap.Lot = lot
	t.snap.Running = true
	t.mu.Unlock()
}

// SetRunning records whether the monitors are running.
func (t *Tracker) SetRunning(running bool) {
	t.mu.Lock()
	t.snap.Running = running
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Lot.Occupancy = append([]bool(nil), t.snap.Lot.Occupancy...)
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
