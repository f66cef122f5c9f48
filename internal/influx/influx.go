// Package influx records gate passages and availability changes as
// InfluxDB time series.
package influx

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/sweeney/parking-gate/internal/logic"
)

// Measurement names.
const (
	MeasurementPassage      = "passage"
	MeasurementAvailability = "availability"
)

const writeTimeout = 5 * time.Second

// Config locates the bucket.
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
	Lot    string // tag distinguishing lots sharing a bucket
}

// Recorder writes points synchronously, one HTTP write per call.
type Recorder struct {
	client influxdb2.Client
	write  api.WriteAPIBlocking
	lot    string
}

// New creates a recorder for cfg. No connection is made until the first write.
func New(cfg Config) *Recorder {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Recorder{
		client: client,
		write:  client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		lot:    cfg.Lot,
	}
}

// RecordPassage writes one gate decision.
func (r *Recorder) RecordPassage(p logic.Passage) error {
	point := influxdb2.NewPoint(MeasurementPassage,
		map[string]string{
			"lot":       r.lot,
			"direction": string(p.Direction),
			"outcome":   string(p.Outcome),
		},
		map[string]interface{}{
			"id":        p.ID,
			"available": p.Available,
			"total":     p.Total,
		},
		p.Timestamp)
	return r.writePoint(point, "passage")
}

// RecordAvailability writes one availability observation.
func (r *Recorder) RecordAvailability(s logic.Status) error {
	point := influxdb2.NewPoint(MeasurementAvailability,
		map[string]string{
			"lot":  r.lot,
			"gate": s.Gate.String(),
		},
		map[string]interface{}{
			"available": s.Available,
			"occupied":  s.Occupied(),
			"total":     s.Total,
		},
		s.Timestamp)
	return r.writePoint(point, "availability")
}

func (r *Recorder) writePoint(point *write.Point, what string) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := r.write.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("influx write %s: %w", what, err)
	}
	return nil
}

// Close releases the client's idle connections.
func (r *Recorder) Close() error {
	r.client.Close()
	return nil
}
