package sim

import "fmt"

// RunState tracks a rank's progress through the execution protocol. Every
// rank walks the same sequence; an out-of-order advance is a programming
// error, not a runtime condition.
type RunState int

const (
	StateIdle RunState = iota
	StateTasksBuilt
	StatePartitioned
	StateComputing
	StateLocallyReduced
	StateGathered
	StateMerged
	StateDone
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTasksBuilt:
		return "tasks_built"
	case StatePartitioned:
		return "partitioned"
	case StateComputing:
		return "computing"
	case StateLocallyReduced:
		return "locally_reduced"
	case StateGathered:
		return "gathered"
	case StateMerged:
		return "merged"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// advance moves to next, which must be the immediate successor of the
// current state.
func (s *RunState) advance(next RunState) error {
	if next != *s+1 {
		return fmt.Errorf("invalid state transition %v -> %v", *s, next)
	}
	*s = next
	return nil
}
