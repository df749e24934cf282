// Package dynamiccondition implements the dynamic-condition component of
// Unlike the other strategy packages this is not a
// container-registered lockman.Strategy: it is a pair of caller-supplied
// predicate closures evaluated against an immutable state snapshot by the
// integration layer, never by the container or the coordinator.
package dynamiccondition

import (
	"github.com/projecteru2/lockman"
)

// Predicate decides whether action may proceed given an immutable snapshot
// of state. It must be synchronous and pure: no I/O, no mutation, no
// reliance on anything outside state and action. A non-nil return rejects
// the acquisition with that error as the cause.
type Predicate[S any] func(state S, action lockman.LockInfo) error

// Gate bundles the reducer-level and action-level predicates requires.
// Either field may be nil, meaning that level always succeeds.
type Gate[S any] struct {
	// ReducerLevel runs first and sees every acquisition regardless of site.
	ReducerLevel Predicate[S]
	// ActionLevel runs second, scoped to one acquisition site.
	ActionLevel Predicate[S]
}

// Evaluate runs ReducerLevel then ActionLevel against boundary, in that
// order, short-circuiting on the first rejection. The core stores nothing
// on the gate's behalf; state is supplied fresh by the caller each time.
func (g Gate[S]) Evaluate(boundary lockman.BoundaryID, state S, action lockman.LockInfo) lockman.Verdict {
	if g.ReducerLevel != nil {
		if err := g.ReducerLevel(state, action); err != nil {
			return lockman.Cancel(lockman.NewDynamicConditionFailed(boundary, action, err))
		}
	}
	if g.ActionLevel != nil {
		if err := g.ActionLevel(state, action); err != nil {
			return lockman.Cancel(lockman.NewDynamicConditionFailed(boundary, action, err))
		}
	}
	return lockman.Success()
}
