package state

import (
	"fmt"
	"sort"

	"identity-coach-be/internal/constant"
	"identity-coach-be/internal/entity"
)

// rank returns the position of a lifecycle state in the forward order, or -1 for archived
// and unknown states.
func rank(s constant.LifecycleState) int {
	for i, candidate := range constant.LifecycleOrder {
		if candidate == s {
			return i
		}
	}
	return -1
}

// HasReached reports whether current is at or beyond target in the forward order.
// Archived identities have not reached any state.
func HasReached(current, target constant.LifecycleState) bool {
	c, t := rank(current), rank(target)
	return c >= 0 && t >= 0 && c >= t
}

// Advance moves the identity forward to target. Moving to a state already reached is a no-op
// and reports false. Archived identities cannot advance.
func Advance(identity *entity.Identity, target constant.LifecycleState) (bool, error) {
	if identity.State == constant.StateArchived {
		return false, fmt.Errorf("%w: identity %q is archived", ErrInvalidTransition, identity.Label)
	}
	if rank(target) < 0 {
		return false, fmt.Errorf("%w: unknown target state %q", ErrInvalidTransition, target)
	}
	if rank(identity.State) < 0 {
		return false, fmt.Errorf("%w: identity %q has unknown state %q", ErrInvalidTransition, identity.Label, identity.State)
	}
	if HasReached(identity.State, target) {
		return false, nil
	}
	identity.State = target
	return true, nil
}

// Archive moves the identity to the terminal archived state from any state.
func Archive(identity *entity.Identity) bool {
	if identity.State == constant.StateArchived {
		return false
	}
	identity.State = constant.StateArchived
	return true
}

// NextPending returns the oldest non-archived identity that has not reached the phase's
// completion state, or nil when none is pending or the phase does not work on identities.
func NextPending(identities []*entity.Identity, phase constant.Phase) *entity.Identity {
	completion, ok := CompletionState(phase)
	if !ok {
		return nil
	}

	ordered := append([]*entity.Identity(nil), identities...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	for _, identity := range ordered {
		if identity.State == constant.StateArchived {
			continue
		}
		if !HasReached(identity.State, completion) {
			return identity
		}
	}
	return nil
}

// Pending returns every identity NextPending would consider, in the same order.
func Pending(identities []*entity.Identity, phase constant.Phase) []*entity.Identity {
	completion, ok := CompletionState(phase)
	if !ok {
		return nil
	}
	pending := make([]*entity.Identity, 0)
	for _, identity := range identities {
		if identity.State != constant.StateArchived && !HasReached(identity.State, completion) {
			pending = append(pending, identity)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending
}
