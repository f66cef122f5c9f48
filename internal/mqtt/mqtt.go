// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/parking-gate/internal/logic"
)

// TopicAvailability carries the retained lot availability.
const TopicAvailability = "parking/gate/availability"

// TopicEvents carries one message per decided gate request.
const TopicEvents = "parking/gate/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "parking/gate/system"

// Publisher publishes lot state to MQTT.
type Publisher interface {
	// PublishAvailability sends the current availability (retained).
	// Returns error if publishing fails (should not crash the process).
	PublishAvailability(s logic.Status) error

	// PublishPassage sends a granted or denied gate request.
	PublishPassage(p logic.Passage) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// AvailabilityPayload is the message on TopicAvailability.
type AvailabilityPayload struct {
	Lot LotPayload `json:"lot"`
}

// LotPayload contains the availability details.
type LotPayload struct {
	Timestamp string `json:"timestamp"`
	Available int    `json:"available"`
	Total     int    `json:"total"`
	Occupied  int    `json:"occupied"`
	Gate      string `json:"gate"`
}

// FormatAvailability creates the JSON payload for an availability change.
func FormatAvailability(s logic.Status) ([]byte, error) {
	return json.Marshal(AvailabilityPayload{
		Lot: LotPayload{
			Timestamp: s.Timestamp.UTC().Format(time.RFC3339),
			Available: s.Available,
			Total:     s.Total,
			Occupied:  s.Occupied(),
			Gate:      s.Gate.String(),
		},
	})
}

// PassageEnvelope is the message on TopicEvents.
type PassageEnvelope struct {
	Passage PassagePayload `json:"passage"`
}

// PassagePayload contains one gate decision. ID is unique per request so
// subscribers can drop QoS 1 redeliveries.
type PassagePayload struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Direction string `json:"direction"`
	Outcome   string `json:"outcome"`
	Available int    `json:"available"`
	Total     int    `json:"total"`
}

// FormatPassage creates the JSON payload for a gate decision.
func FormatPassage(p logic.Passage) ([]byte, error) {
	return json.Marshal(PassageEnvelope{
		Passage: PassagePayload{
			ID:        p.ID,
			Timestamp: p.Timestamp.UTC().Format(time.RFC3339),
			Direction: string(p.Direction),
			Outcome:   string(p.Outcome),
			Available: p.Available,
			Total:     p.Total,
		},
	})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
