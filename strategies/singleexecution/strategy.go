// Package singleexecution implements the strategy: forbid
// concurrent executions of a given action, or of any action in a boundary.
package singleexecution

import (
	"context"
	"sync"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/lockman"
)

// Mode selects how exclusive an acquisition is.
type Mode int

const (
	// ModeNone always succeeds; the entry is still recorded for
	// participation and diagnostics, so it counts as an existing entry for a
	// later ModeBoundary acquisition (or a same-action ModeAction one).
	ModeNone Mode = iota
	// ModeBoundary forbids any other concurrent entry in the same boundary.
	ModeBoundary
	// ModeAction forbids another concurrent entry with the same ActionID.
	ModeAction
)

// StrategyID is the reserved built-in id for this strategy.
const StrategyID lockman.StrategyID = "singleExecution"

// Info is the single-execution payload.
type Info struct {
	lockman.BaseInfo
	Mode Mode
}

// New builds an Info for actionID under mode.
func New(actionID lockman.ActionID, mode Mode) Info {
	return Info{
		BaseInfo: lockman.NewBaseInfo(StrategyID, actionID),
		Mode:     mode,
	}
}

var _ lockman.Strategy[Info] = (*Strategy)(nil)

// Strategy is the single-execution policy.
type Strategy struct {
	mu    sync.Mutex
	state *lockman.IndexedLockState[lockman.ActionID]
}

// NewStrategy creates an unregistered Strategy. Callers hand it to
// lockman.Erase(NewStrategy()) before registering it with a Container.
func NewStrategy() *Strategy {
	return &Strategy{
		state: lockman.NewIndexedLockState[lockman.ActionID](func(info lockman.LockInfo) lockman.ActionID {
			return info.ActionID()
		}),
	}
}

func (s *Strategy) StrategyID() lockman.StrategyID { return StrategyID }

// CanLock implements the mode-specific admission rules. The tie-break when multiple
// existing entries could be the victim is the first (oldest) one.
func (s *Strategy) CanLock(ctx context.Context, boundary lockman.BoundaryID, info Info) lockman.Verdict {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch info.Mode {
	case ModeNone:
		return lockman.Success()
	case ModeBoundary:
		existing := s.state.CurrentLocks(boundary)
		if len(existing) > 0 {
			return lockman.Cancel(lockman.NewBoundaryAlreadyLockedError(boundary, info, existing[0]))
		}
		return lockman.Success()
	case ModeAction:
		existing := s.state.CurrentLocksMatching(boundary, info.ActionID())
		if len(existing) > 0 {
			return lockman.Cancel(lockman.NewActionAlreadyRunningError(boundary, info, existing[0]))
		}
		return lockman.Success()
	default:
		return lockman.Success()
	}
}

// Lock commits info. Only legal after a non-Cancel verdict on the same info.
func (s *Strategy) Lock(_ context.Context, boundary lockman.BoundaryID, info Info) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Add(boundary, info)
	return nil
}

// Unlock releases the exact entry matching info's UniqueID. Idempotent.
func (s *Strategy) Unlock(ctx context.Context, boundary lockman.BoundaryID, info Info) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Remove(boundary, info)
	log.WithFunc("singleexecution.Strategy.Unlock").Debugf(ctx, "released %q in boundary %v", info.ActionID(), boundary)
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
