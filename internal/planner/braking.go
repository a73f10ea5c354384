package planner

// BrakingState is the commitment state of the stop decision.
type BrakingState int

const (
	// Cruising is the initial state: no stop commitment.
	Cruising BrakingState = iota
	// Braking means the vehicle is committed to stopping at the
	// current stop index.
	Braking
)

// String returns the state name for logs and status output.
func (s BrakingState) String() string {
	switch s {
	case Cruising:
		return "cruising"
	case Braking:
		return "braking"
	default:
		return "unknown"
	}
}

// BrakingStateMachine is the sticky two-state stop decision. Once it
// enters Braking it stays there until the stop signal clears,
// irrespective of later distance or velocity values.
type BrakingStateMachine struct {
	state      BrakingState
	maxDecel   float64
	stopBuffer float64
}

// NewBrakingStateMachine returns a machine in the Cruising state.
func NewBrakingStateMachine(maxDecel, stopBuffer float64) *BrakingStateMachine {
	return &BrakingStateMachine{
		state:      Cruising,
		maxDecel:   maxDecel,
		stopBuffer: stopBuffer,
	}
}

// MinStoppingDistance returns the distance needed to brake to rest from
// velocity v at the configured deceleration, plus the stop buffer.
func (m *BrakingStateMachine) MinStoppingDistance(v float64) float64 {
	return v*v/(2*m.maxDecel) + m.stopBuffer
}

// Update advances the machine one tick and returns the new state.
// distToStop is only meaningful when stopPresent is true.
//
// While still Cruising the threshold is re-evaluated against the
// present velocity every tick; an active stop signal that is still
// beyond the stopping distance is treated as not-yet-relevant.
func (m *BrakingStateMachine) Update(stopPresent bool, distToStop, velocity float64) BrakingState {
	if !stopPresent {
		m.state = Cruising
		return m.state
	}
	if m.state == Cruising && distToStop >= m.MinStoppingDistance(velocity) {
		return m.state
	}
	m.state = Braking
	return m.state
}

// State returns the current state without advancing the machine.
func (m *BrakingStateMachine) State() BrakingState {
	return m.state
}
