// Package priority implements the priority-based strategy.
package priority

import (
	"context"
	"sync"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/lockman"
)

// Behavior is the concurrency behavior within the same priority tier.
type Behavior int

const (
	// Exclusive refuses an incoming acquisition at the same priority.
	Exclusive Behavior = iota
	// Replaceable admits an incoming acquisition at the same priority,
	// requesting the existing holder be cancelled.
	Replaceable
)

// Class orders priority tiers: None < Low < High < Exclusive.
type Class int

const (
	ClassNone Class = iota
	ClassLow
	ClassHigh
	ClassExclusive
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "None"
	case ClassLow:
		return "Low"
	case ClassHigh:
		return "High"
	case ClassExclusive:
		return "Exclusive"
	default:
		return "Unknown"
	}
}

// Priority is priority ∈ {None, Low(b), High(b), Exclusive}.
// Behavior is meaningless for None and Exclusive and ignored there.
type Priority struct {
	Class    Class
	Behavior Behavior
}

// None, Low, High, and ExclusivePriority are the constructors for the four priority forms.
func None() Priority              { return Priority{Class: ClassNone} }
func Low(b Behavior) Priority     { return Priority{Class: ClassLow, Behavior: b} }
func High(b Behavior) Priority    { return Priority{Class: ClassHigh, Behavior: b} }
func ExclusivePriority() Priority { return Priority{Class: ClassExclusive, Behavior: Exclusive} }

// StrategyID is the reserved built-in id for this strategy.
const StrategyID lockman.StrategyID = "priorityBased"

// Info is the priority-based payload.
type Info struct {
	lockman.BaseInfo
	Priority Priority
}

// New builds an Info for actionID at the given priority.
func New(actionID lockman.ActionID, p Priority) Info {
	return Info{
		BaseInfo: lockman.NewBaseInfo(StrategyID, actionID),
		Priority: p,
	}
}

var _ lockman.Strategy[Info] = (*Strategy)(nil)

// Strategy is the priority-based policy.
type Strategy struct {
	mu sync.Mutex
	// state is keyed by priority class so the current highest-priority
	// holder of a boundary can be found by scanning classes top-down
	// instead of the whole boundary.
	state *lockman.IndexedLockState[Class]
}

// NewStrategy creates an unregistered Strategy.
func NewStrategy() *Strategy {
	return &Strategy{
		state: lockman.NewIndexedLockState[Class](func(info lockman.LockInfo) Class {
			return info.(Info).Priority.Class
		}),
	}
}

func (s *Strategy) StrategyID() lockman.StrategyID { return StrategyID }

// highestHolderLocked returns the most recently acquired entry at the
// highest priority class currently active in boundary; the bool is false if
// there is none.
func (s *Strategy) highestHolderLocked(boundary lockman.BoundaryID) (Info, bool) {
	for _, class := range []Class{ClassExclusive, ClassHigh, ClassLow} {
		bucket := s.state.CurrentLocksMatching(boundary, class)
		if len(bucket) > 0 {
			return bucket[len(bucket)-1].(Info), true
		}
	}
	return Info{}, false
}

// CanLock compares info against the boundary's current
// highest-priority holder.
func (s *Strategy) CanLock(_ context.Context, boundary lockman.BoundaryID, info Info) lockman.Verdict {
	s.mu.Lock()
	defer s.mu.Unlock()

	if info.Priority.Class == ClassNone {
		return lockman.Success()
	}

	holder, ok := s.highestHolderLocked(boundary)
	if !ok || holder.Priority.Class == ClassNone {
		return lockman.Success()
	}

	switch {
	case info.Priority.Class > holder.Priority.Class:
		return lockman.SuccessWithPrecedingCancellation(lockman.NewHigherPriorityPreemptsError(boundary, info, holder))
	case info.Priority.Class < holder.Priority.Class:
		return lockman.Cancel(lockman.NewLowerPriorityBlockedError(boundary, info, holder))
	default: // equal priority
		if info.Priority.Class != ClassExclusive && info.Priority.Behavior == Replaceable {
			return lockman.SuccessWithPrecedingCancellation(lockman.NewReplacedByEqualPriorityError(boundary, info, holder))
		}
		return lockman.Cancel(lockman.NewSamePriorityConflictError(boundary, info, holder))
	}
}

// Lock commits info.
func (s *Strategy) Lock(_ context.Context, boundary lockman.BoundaryID, info Info) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Add(boundary, info)
	return nil
}

// Unlock releases info. Idempotent.
func (s *Strategy) Unlock(ctx context.Context, boundary lockman.BoundaryID, info Info) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Remove(boundary, info)
	log.WithFunc("priority.Strategy.Unlock").Debugf(ctx, "released %q (%s) in boundary %v", info.ActionID(), info.Priority.Class, boundary)
	return nil
}

// CleanUp drops every boundary's state.
func (s *Strategy) CleanUp(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.RemoveAll()
}

// CleanUpBoundary drops one boundary's state.
func (s *Strategy) CleanUpBoundary(_ context.Context, boundary lockman.BoundaryID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.RemoveAllBoundary(boundary)
}

// CurrentLocks returns a debug snapshot across every boundary.
func (s *Strategy) CurrentLocks() map[lockman.BoundaryID][]lockman.LockInfo {
	return s.state.AllActiveLocks()
}
