// Package fsm implements the finite-state gate guarding plan composition and
// adaptation. States are partitioned into two mutually exclusive tunnels
// (PLAN_FLOW and ADAPTATION_FLOW); no transition may cross directly between
// them.
package fsm

// State is one position of the user-level state machine.
type State string

const (
	// PLAN_FLOW tunnel: draft composition up to finalization.
	StateDataCollection      State = "PLAN_FLOW:DATA_COLLECTION"
	StateConfirmationPending State = "PLAN_FLOW:CONFIRMATION_PENDING"
	StateFinalization        State = "PLAN_FLOW:FINALIZATION"

	// ADAPTATION_FLOW tunnel: a single protected state.
	StateAdaptationFlow State = "ADAPTATION_FLOW"

	// Non-tunnel states.
	StateIdle              State = "IDLE"
	StateIdlePlanAborted   State = "IDLE_PLAN_ABORTED"
	StateIdlePlanCompleted State = "IDLE_PLAN_COMPLETED"
	StateActive            State = "ACTIVE"
	StateActivePaused      State = "ACTIVE_PAUSED"

	// Confirmation sub-states resolving an adaptation back to its origin.
	StateActiveConfirmation       State = "ACTIVE_CONFIRMATION"
	StateActivePausedConfirmation State = "ACTIVE_PAUSED_CONFIRMATION"
)

func (s State) String() string { return string(s) }

var planFlowStates = map[State]bool{
	StateDataCollection:      true,
	StateConfirmationPending: true,
	StateFinalization:        true,
}

var adaptationFlowStates = map[State]bool{
	StateAdaptationFlow: true,
}

// InPlanFlow reports whether the state lies inside the PLAN_FLOW tunnel.
func InPlanFlow(s State) bool { return planFlowStates[s] }

// InAdaptationFlow reports whether the state lies inside the ADAPTATION_FLOW
// tunnel.
func InAdaptationFlow(s State) bool { return adaptationFlowStates[s] }

// planFlowEntrypoints whitelists the states from which a user may enter the
// PLAN_FLOW tunnel. ACTIVE is included so a running plan can be replaced by
// composing a new one; the one-active-plan invariant is enforced at
// finalization.
var planFlowEntrypoints = map[State]bool{
	StateIdle:              true,
	StateIdlePlanAborted:   true,
	StateIdlePlanCompleted: true,
	StateActive:            true,
	StateActivePaused:      true,
}

// planFlowTransitions is the forward movement table inside PLAN_FLOW.
var planFlowTransitions = map[State]map[State]bool{
	StateDataCollection:      {StateConfirmationPending: true},
	StateConfirmationPending: {StateFinalization: true, StateDataCollection: true},
}
