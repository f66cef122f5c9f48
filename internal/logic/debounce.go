package logic

import "time"

// Debounce applies a new raw sample to a sensor's edge state.
// A transition is confirmed only when at least min has passed since the last
// confirmed transition and raw differs from the confirmed level. On
// confirmation the returned state carries raw and now; otherwise edge is
// returned unchanged.
func Debounce(edge EdgeState, raw Level, now time.Time, min time.Duration) (EdgeState, bool) {
	if raw == edge.Level {
		return edge, false
	}
	if !edge.Since.IsZero() && now.Sub(edge.Since) < min {
		return edge, false
	}
	return EdgeState{Level: raw, Since: now}, true
}

// IsArrival reports whether a confirmed transition means a car has just
// arrived in front of the sensor.
func IsArrival(from, to EdgeState) bool {
	return from.Level == LevelClear && to.Level == LevelPresent
}
