package parking

// Priority is a scheduling hint for a monitor loop. It affects latency only;
// correctness never depends on it.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityHigh
	PriorityLow
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityLow:
		return "low"
	default:
		return "normal"
	}
}

// nice maps a priority to a Linux nice value.
func (p Priority) nice() int {
	switch p {
	case PriorityHigh:
		return -5
	case PriorityLow:
		return 5
	default:
		return 0
	}
}

// Priorities assigns a priority to each kind of loop.
type Priorities struct {
	Gate   Priority // entry and exit monitors
	Spots  Priority
	Status Priority
}

// DefaultPriorities favours the time-sensitive gate sensors over the spot
// monitor, and both over status reporting.
var DefaultPriorities = Priorities{
	Gate:   PriorityHigh,
	Spots:  PriorityNormal,
	Status: PriorityLow,
}
