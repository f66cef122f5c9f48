// Package idgen generates short passage IDs backed by nanoid.
// IDs let MQTT and InfluxDB consumers drop duplicates of QoS 1 redeliveries.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Prefix is prepended to every passage ID.
const Prefix = "p-"

// alphabet avoids look-alike characters so IDs can be read off a log line.
const alphabet = "23456789abcdefghjkmnpqrstuvwxyz"

// Length is the number of random characters after the prefix.
const Length = 8

// Generate returns a new passage ID.
func Generate() (string, error) {
	id, err := nanoid.Generate(alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return Prefix + id, nil
}
