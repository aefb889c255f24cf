package state

import (
	"fmt"

	"identity-coach-be/internal/constant"
	"identity-coach-be/internal/entity"
)

// phaseCompletion maps a phase to the lifecycle state an identity reaches when the phase is done with it.
var phaseCompletion = map[constant.Phase]constant.LifecycleState{
	constant.PhaseBrainstorming: constant.StateAccepted,
	constant.PhaseRefinement:    constant.StateRefinementComplete,
	constant.PhaseCommitment:    constant.StateCommitmentComplete,
	constant.PhaseStatement:     constant.StateStatementComplete,
	constant.PhaseVisualization: constant.StateVisualizationComplete,
}

// CompletionState returns the lifecycle state that marks an identity as done for the phase.
// Phases that do not work on identities report false.
func CompletionState(phase constant.Phase) (constant.LifecycleState, bool) {
	s, ok := phaseCompletion[phase]
	return s, ok
}

// TransitionPhase moves the session to the target phase. Any conversational phase may
// follow any other; the system context pseudo-phase is never an active phase.
func TransitionPhase(session *entity.CoachingSession, to constant.Phase) error {
	if !to.Conversational() {
		return fmt.Errorf("%w: %q is not a conversational phase", ErrInvalidTransition, to)
	}
	session.Phase = to
	return nil
}
