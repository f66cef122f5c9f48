package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/parking-gate/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Available     int          `json:"available"`
	Total         int          `json:"total"`
	Occupied      int          `json:"occupied"`
	Gate          string       `json:"gate"`
	Spots         []SpotJSON   `json:"spots"`
	Running       bool         `json:"running"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"passage_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// SpotJSON reports one spot's sensed occupancy. IDs are 1-based.
type SpotJSON struct {
	ID       int  `json:"id"`
	Occupied bool `json:"occupied"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of passage counts.
type CountsJSON struct {
	Entries int `json:"entries"`
	Exits   int `json:"exits"`
	Denied  int `json:"denied"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	DebounceMs  int64  `json:"debounce_ms"`
	PassageMs   int64  `json:"passage_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPPort    string `json:"http_port"`
	Influx      string `json:"influx,omitempty"`
}

// Spots lists the lot's spots in order.
func Spots(snap Snapshot) []SpotJSON {
	spots := make([]SpotJSON, len(snap.Lot.Occupancy))
	for i, occ := range snap.Lot.Occupancy {
		spots[i] = SpotJSON{ID: i + 1, Occupied: occ}
	}
	return spots
}

func buildInner(snap Snapshot) StatusInner {
	gate := snap.Lot.Gate.String()
	if !snap.Running {
		gate = "UNKNOWN"
	}

	return StatusInner{
		Available:     snap.Lot.Available,
		Total:         snap.Lot.Total,
		Occupied:      snap.Lot.Occupied(),
		Gate:          gate,
		Spots:         Spots(snap),
		Running:       snap.Running,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Entries: snap.Lot.Counts.Entries,
			Exits:   snap.Lot.Counts.Exits,
			Denied:  snap.Lot.Counts.Denied,
		},
		Config: ConfigJSON{
			DebounceMs:  snap.Config.DebounceMs,
			PassageMs:   snap.Config.PassageMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPPort:    snap.Config.HTTPPort,
			Influx:      snap.Config.Influx,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

// LotStatus returns the lot's availability observation at the snapshot time.
func LotStatus(snap Snapshot) logic.Status {
	return logic.Status{
		Timestamp: snap.Now,
		Available: snap.Lot.Available,
		Total:     snap.Lot.Total,
		Gate:      snap.Lot.Gate,
	}
}
