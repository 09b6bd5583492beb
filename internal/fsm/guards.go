package fsm

// CanTransition reports whether the transition from one state to another is
// legal. It is a pure predicate: the caller is responsible for atomically
// persisting the new state when it returns true, and for logging the
// rejection otherwise. Exit from FINALIZATION to ACTIVE additionally
// requires the plan to have been persisted, which only the caller can know.
func CanTransition(from, to State) bool {
	// Invariant: no direct crossing between the two tunnels.
	if InPlanFlow(from) && InAdaptationFlow(to) {
		return false
	}
	if InAdaptationFlow(from) && InPlanFlow(to) {
		return false
	}

	// Forward movement inside the PLAN_FLOW tunnel.
	if targets, ok := planFlowTransitions[from]; ok && targets[to] {
		return true
	}

	// Entry into PLAN_FLOW only from whitelisted entrypoints.
	if to == StateDataCollection && planFlowEntrypoints[from] {
		return true
	}

	// Exit from PLAN_FLOW to ACTIVE only from FINALIZATION.
	if from == StateFinalization && to == StateActive {
		return true
	}

	// Any PLAN_FLOW state may abort.
	if InPlanFlow(from) && to == StateIdlePlanAborted {
		return true
	}

	// Entry into ADAPTATION_FLOW only from a live plan state.
	if to == StateAdaptationFlow && (from == StateActive || from == StateActivePaused) {
		return true
	}

	// Exit from ADAPTATION_FLOW only into its confirmation sub-states.
	if from == StateAdaptationFlow {
		return to == StateActiveConfirmation || to == StateActivePausedConfirmation
	}

	// Confirmation sub-states resolve back to their origin.
	if from == StateActiveConfirmation && to == StateActive {
		return true
	}
	if from == StateActivePausedConfirmation && to == StateActivePaused {
		return true
	}

	// A finished plan releases the user to idle.
	if from == StateActive && to == StateIdlePlanCompleted {
		return true
	}

	return false
}
