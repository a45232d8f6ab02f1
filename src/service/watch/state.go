package watch

// State is the lifecycle state of a watch session
type State int

const (
	// StateUnwatched means no session exists for the path
	StateUnwatched State = iota
	// StateIdle waits for filesystem events
	StateIdle
	// StateScheduled has a debounce timer armed
	StateScheduled
	// StateAnalyzing has a pass in flight
	StateAnalyzing
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateUnwatched:
		return "unwatched"
	case StateIdle:
		return "idle"
	case StateScheduled:
		return "scheduled"
	case StateAnalyzing:
		return "analyzing"
	default:
		return "unknown"
	}
}
