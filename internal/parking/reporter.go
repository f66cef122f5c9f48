package parking

import (
	"time"

	"github.com/sweeney/parking-gate/internal/logic"
)

// Reporter polls availability and gate state and notifies observers only
// when the pair changes.
type Reporter struct {
	state     *State
	observers []Observer
	interval  time.Duration
	now       func() time.Time

	last     logic.Status
	reported bool
}

// NewReporter creates a reporter polling state every interval.
func NewReporter(state *State, interval time.Duration, observers ...Observer) *Reporter {
	return &Reporter{
		state:     state,
		observers: observers,
		interval:  interval,
		now:       time.Now,
	}
}

// Run polls until the stop signal is set.
func (r *Reporter) Run() {
	for !r.state.Stopped() {
		r.poll()
		if !r.state.Sleep(r.interval) {
			return
		}
	}
}

func (r *Reporter) poll() {
	s := r.state.Status(r.now())
	if r.reported && s.SameAs(r.last) {
		return
	}
	r.last = s
	r.reported = true
	for _, o := range r.observers {
		o.ObserveStatus(s)
	}
}
