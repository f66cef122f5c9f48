// Package parking implements the concurrent monitoring and actuation core:
// spot, entry and exit monitors, the gate controller, the status reporter
// and the lifecycle that starts and stops them.
package parking

import (
	"sync"
	"time"

	"github.com/sweeney/parking-gate/internal/logic"
)

// Snapshot is a point-in-time view of the shared lot state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Total     int
	Available int
	Gate      logic.GateState
	Occupancy []bool
	Counts    logic.PassageCounts
}

// Occupied returns the number of spots taken according to gate accounting.
func (s Snapshot) Occupied() int {
	return s.Total - s.Available
}

// SensedOccupied returns the number of spots whose sensor reports a car.
// It can disagree with Occupied: availability is metered at the gate.
func (s Snapshot) SensedOccupied() int {
	n := 0
	for _, occ := range s.Occupancy {
		if occ {
			n++
		}
	}
	return n
}

// State is the single owner of everything the monitors share. All access
// goes through its methods; mu is held only for the duration of each.
type State struct {
	mu        sync.Mutex
	total     int
	available int
	gate      logic.GateState
	occupancy []bool
	counts    logic.PassageCounts

	stopOnce sync.Once
	done     chan struct{}
}

// NewState creates the state of an empty lot with total spots.
func NewState(total int) *State {
	return &State{
		total:     total,
		available: total,
		gate:      logic.GateCentered,
		occupancy: make([]bool, total),
		done:      make(chan struct{}),
	}
}

// Total returns the fixed capacity.
func (s *State) Total() int {
	return s.total
}

// Available returns the current availability.
func (s *State) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.available
}

// Gate returns the current gate state.
func (s *State) Gate() logic.GateState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gate
}

// Status returns the (availability, gate) observation at now.
func (s *State) Status(now time.Time) logic.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return logic.Status{
		Timestamp: now,
		Available: s.available,
		Total:     s.total,
		Gate:      s.gate,
	}
}

// Occupied reports the stored occupancy of spot i.
func (s *State) Occupied(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.occupancy[i]
}

// SetOccupied stores the occupancy of spot i and reports whether it changed.
func (s *State) SetOccupied(i int, occupied bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.occupancy[i] == occupied {
		return false
	}
	s.occupancy[i] = occupied
	return true
}

// Snapshot returns a copy of the shared state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Total:     s.total,
		Available: s.available,
		Gate:      s.gate,
		Occupancy: append([]bool(nil), s.occupancy...),
		Counts:    s.counts,
	}
}

func (s *State) setGate(g logic.GateState) {
	s.mu.Lock()
	s.gate = g
	s.mu.Unlock()
}

// takeSpot decrements availability for a granted entry. It refuses when the
// lot is already full.
func (s *State) takeSpot() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.available == 0 {
		return 0, false
	}
	s.available--
	s.counts.Entries++
	return s.available, true
}

// releaseSpot increments availability for an exit, capped at total.
func (s *State) releaseSpot() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.available < s.total {
		s.available++
	}
	s.counts.Exits++
	return s.available
}

func (s *State) countDenied() {
	s.mu.Lock()
	s.counts.Denied++
	s.mu.Unlock()
}

// Stop sets the stop signal. Only the first call has an effect.
func (s *State) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// Done is closed once Stop has been called.
func (s *State) Done() <-chan struct{} {
	return s.done
}

// Stopped reports whether the stop signal is set.
func (s *State) Stopped() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Sleep waits for d or until the stop signal, whichever comes first.
// It returns false if the stop signal ended the wait.
func (s *State) Sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-s.done:
		return false
	case <-t.C:
		return true
	}
}
