package web

import (
	"encoding/json"
	"time"

	"github.com/sweeney/parking-gate/internal/status"
)

// SpotResponse is the JSON body of /spots/:id.
type SpotResponse struct {
	Spot      SpotDetail `json:"spot"`
	Timestamp string     `json:"timestamp"`
}

// SpotDetail describes one spot and the indicator it shows.
type SpotDetail struct {
	ID        int    `json:"id"`
	Occupied  bool   `json:"occupied"`
	Indicator string `json:"indicator"` // "green", "red", or "off" when stopped
}

// formatSpot returns the JSON for 1-based spot id, or false if there is no
// such spot.
func formatSpot(snap status.Snapshot, id int) ([]byte, bool) {
	if id < 1 || id > len(snap.Lot.Occupancy) {
		return nil, false
	}
	occupied := snap.Lot.Occupancy[id-1]

	indicator := "off"
	if snap.Running {
		indicator = "green"
		if occupied {
			indicator = "red"
		}
	}

	data, _ := json.MarshalIndent(SpotResponse{
		Spot: SpotDetail{
			ID:        id,
			Occupied:  occupied,
			Indicator: indicator,
		},
		Timestamp: snap.Now.UTC().Format(time.RFC3339),
	}, "", "  ")
	return data, true
}
