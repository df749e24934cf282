// Package groupcoordination implements the group-coordination strategy of
// actions join 1-5 groups as a leader (under one of three join
// policies) or a member, and every group an action joins must admit it.
package groupcoordination

import (
	"context"
	"fmt"
	"sync"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/lockman"
)

// LeaderPolicy governs when a Leader role may join a group.
type LeaderPolicy int

const (
	// EmptyGroup admits the leader only into a group with zero participants.
	EmptyGroup LeaderPolicy = iota
	// WithoutMembers admits the leader iff no member is currently active
	// (other leaders are fine).
	WithoutMembers
	// WithoutLeader admits the leader iff no other leader is currently
	// active (members are fine).
	WithoutLeader
)

// Role is a participant's relationship to the groups it joins.
type Role struct {
	// Kind is "none", "leader", or "member"; use the None/Leader/Member
	// constructors rather than constructing Role directly.
	Kind   RoleKind
	Policy LeaderPolicy // meaningful only when Kind == RoleLeader
}

// RoleKind discriminates Role.
type RoleKind int

const (
	RoleNone RoleKind = iota
	RoleLeader
	RoleMember
)

func None() Role                      { return Role{Kind: RoleNone} }
func Leader(policy LeaderPolicy) Role { return Role{Kind: RoleLeader, Policy: policy} }
func Member() Role                    { return Role{Kind: RoleMember} }

// StrategyID is the reserved built-in id for this strategy.
const StrategyID lockman.StrategyID = "groupCoordination"

// Info is the group-coordination payload. GroupIDs must hold 1-5 entries.
type Info struct {
	lockman.BaseInfo
	GroupIDs []lockman.GroupID
	Role     Role
}

// New builds an Info for actionID joining groups under role. It panics if
// len(groupIDs) is not in [1,5], a construction-time contract violation, not a runtime policy decision.
func New(actionID lockman.ActionID, role Role, groupIDs ...lockman.GroupID) Info {
	if len(groupIDs) < 1 || len(groupIDs) > 5 {
		panic(fmt.Sprintf("groupcoordination: action %q must join 1-5 groups, got %d", actionID, len(groupIDs)))
	}
	return Info{
		BaseInfo: lockman.NewBaseInfo(StrategyID, actionID),
		GroupIDs: groupIDs,
		Role:     role,
	}
}

var _ lockman.Strategy[Info] = (*Strategy)(nil)

// groupState is the per-(boundary, group) active-member table, indexed by
// action-id (at most one entry per (group, action-id)).
type groupState map[lockman.ActionID]Info

// Strategy is the group-coordination policy.
type Strategy struct {
	mu sync.Mutex
	// order is the per-boundary ordered sequence used for CurrentLocks and
	// the IndexedLockState invariants; groups is the supplementary
	// per-group membership index the role-gating rules evaluate
	// against (one Info can sit in up to 5 group buckets at once, which a
	// single-key IndexedLockState extractor cannot express).
	order  *lockman.IndexedLockState[lockman.ActionID]
	groups map[lockman.BoundaryID]map[lockman.GroupID]groupState
}

// NewStrategy creates an unregistered Strategy.
func NewStrategy() *Strategy {
	return &Strategy{
		order: lockman.NewIndexedLockState[lockman.ActionID](func(info lockman.LockInfo) lockman.ActionID {
			return info.ActionID()
		}),
		groups: make(map[lockman.BoundaryID]map[lockman.GroupID]groupState),
	}
}

func (s *Strategy) StrategyID() lockman.StrategyID { return StrategyID }

func (s *Strategy) groupStateLocked(boundary lockman.BoundaryID, group lockman.GroupID) groupState {
	byGroup := s.groups[boundary]
	if byGroup == nil {
		return nil
	}
	return byGroup[group]
}

// admitGroup evaluates a single group's join rules.
func admitGroup(boundary lockman.BoundaryID, info Info, group lockman.GroupID, gs groupState) *lockman.CancellationError {
	if existing, ok := gs[info.ActionID()]; ok {
		return lockman.NewActionAlreadyInGroupError(boundary, info, existing, group)
	}

	hasLeader, hasMember := false, false
	var activeLeader Info
	for _, p := range gs {
		switch p.Role.Kind {
		case RoleLeader:
			hasLeader = true
			activeLeader = p
		case RoleMember:
			hasMember = true
		}
	}

	switch info.Role.Kind {
	case RoleNone:
		return nil
	case RoleLeader:
		switch info.Role.Policy {
		case EmptyGroup:
			if len(gs) > 0 {
				return lockman.NewLeaderCannotJoinNonEmptyGroupError(boundary, info, []lockman.GroupID{group})
			}
		case WithoutMembers:
			// Rejection here is caused by an active member, never a leader,
			// so this always reuses the generic non-empty-group error —
			// see SPEC_FULL.md "Open Question Resolutions / O2".
			if hasMember {
				return lockman.NewLeaderCannotJoinNonEmptyGroupError(boundary, info, []lockman.GroupID{group})
			}
		case WithoutLeader:
			// Rejection here is always caused by another active leader.
			if hasLeader {
				return lockman.NewBlockedByExclusiveLeaderError(boundary, info, activeLeader, group)
			}
		}
		return nil
	case RoleMember:
		if len(gs) == 0 {
			return lockman.NewMemberCannotJoinEmptyGroupError(boundary, info, []lockman.GroupID{group})
		}
		return nil
	default:
		return nil
	}
}

// CanLock evaluates every group an AND: all must admit.
func (s *Strategy) CanLock(_ context.Context, boundary lockman.BoundaryID, info Info) lockman.Verdict {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, group := range info.GroupIDs {
		if err := admitGroup(boundary, info, group, s.groupStateLocked(boundary, group)); err != nil {
			return lockman.Cancel(err)
		}
	}
	return lockman.Success()
}

// Lock commits info to the ordered sequence and to every group bucket atomically.
func (s *Strategy) Lock(_ context.Context, boundary lockman.BoundaryID, info Info) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order.Add(boundary, info)

	byGroup := s.groups[boundary]
	if byGroup == nil {
		byGroup = make(map[lockman.GroupID]groupState)
		s.groups[boundary] = byGroup
	}
	for _, group := range info.GroupIDs {
		gs := byGroup[group]
		if gs == nil {
			gs = make(groupState)
			byGroup[group] = gs
		}
		gs[info.ActionID()] = info
	}
	return nil
}

// Unlock removes info from the ordered sequence and from every group it
// joined, garbage-collecting empty groups. Idempotent.
func (s *Strategy) Unlock(ctx context.Context, boundary lockman.BoundaryID, info Info) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order.Remove(boundary, info)

	byGroup := s.groups[boundary]
	if byGroup == nil {
		return nil
	}
	for _, group := range info.GroupIDs {
		gs := byGroup[group]
		if gs == nil {
			continue
		}
		delete(gs, info.ActionID())
		if len(gs) == 0 {
			delete(byGroup, group)
		}
	}
	if len(byGroup) == 0 {
		delete(s.groups, boundary)
	}
	log.WithFunc("groupcoordination.Strategy.Unlock").Debugf(ctx, "released %q from %d groups in boundary %v", info.ActionID(), len(info.GroupIDs), boundary)
	return nil
}

// CleanUp drops every boundary's state.
func (s *Strategy) CleanUp(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order.RemoveAll()
	s.groups = make(map[lockman.BoundaryID]map[lockman.GroupID]groupState)
}

// CleanUpBoundary drops one boundary's state.
func (s *Strategy) CleanUpBoundary(_ context.Context, boundary lockman.BoundaryID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order.RemoveAllBoundary(boundary)
	delete(s.groups, boundary)
}

// CurrentLocks returns a debug snapshot across every boundary.
func (s *Strategy) CurrentLocks() map[lockman.BoundaryID][]lockman.LockInfo {
	return s.order.AllActiveLocks()
}
