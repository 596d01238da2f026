package gc

// State is the collector's current phase.
type State uint8

const (
	Idle State = iota
	Marking
	Sweeping
	Compacting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Marking:
		return "marking"
	case Sweeping:
		return "sweeping"
	case Compacting:
		return "compacting"
	default:
		return "unknown"
	}
}
