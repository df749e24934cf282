// Package concurrencylimited implements the concurrency-limited strategy of
// admit up to a per-group ceiling of concurrent acquisitions
// within a boundary, with no preemption.
package concurrencylimited

import (
	"context"
	"sync"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/lockman"
)

// Limit is Unlimited or Limited(n).
type Limit struct {
	unlimited bool
	n         int
}

// Unlimited admits any number of concurrent acquisitions.
func Unlimited() Limit { return Limit{unlimited: true} }

// Limited admits up to n concurrent acquisitions. n must be positive.
func Limited(n int) Limit {
	if n <= 0 {
		panic("concurrencylimited: Limited(n) requires a positive n")
	}
	return Limit{n: n}
}

func (l Limit) String() string {
	if l.unlimited {
		return "Unlimited"
	}
	return "Limited"
}

// StrategyID is the reserved built-in id for this strategy.
const StrategyID lockman.StrategyID = "concurrencyLimited"

// Info is the concurrency-limited payload.
type Info struct {
	lockman.BaseInfo
	ConcurrencyGroupID any
	Limit              Limit
}

// New builds an Info for actionID in concurrencyGroupID under limit.
func New(actionID lockman.ActionID, concurrencyGroupID any, limit Limit) Info {
	return Info{
		BaseInfo:           lockman.NewBaseInfo(StrategyID, actionID),
		ConcurrencyGroupID: concurrencyGroupID,
		Limit:              limit,
	}
}

var _ lockman.Strategy[Info] = (*Strategy)(nil)

// Strategy is the concurrency-limited policy.
type Strategy struct {
	mu    sync.Mutex
	state *lockman.IndexedLockState[any]
}

// NewStrategy creates an unregistered Strategy.
func NewStrategy() *Strategy {
	return &Strategy{
		state: lockman.NewIndexedLockState[any](func(info lockman.LockInfo) any {
			return info.(Info).ConcurrencyGroupID
		}),
	}
}

func (s *Strategy) StrategyID() lockman.StrategyID { return StrategyID }

// CanLock admits iff the concurrency group's current count is below the
// limit (or the limit is Unlimited). No preemption: a full group always
// refuses, never requests a victim be cancelled.
func (s *Strategy) CanLock(_ context.Context, boundary lockman.BoundaryID, info Info) lockman.Verdict {
	s.mu.Lock()
	defer s.mu.Unlock()

	if info.Limit.unlimited {
		return lockman.Success()
	}
	count := s.state.ActiveLockCount(boundary, info.ConcurrencyGroupID)
	if count >= info.Limit.n {
		return lockman.Cancel(lockman.NewConcurrencyLimitReachedError(boundary, info, info.ConcurrencyGroupID, info.Limit.n, count))
	}
	return lockman.Success()
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
	log.WithFunc("concurrencylimited.Strategy.Unlock").Debugf(ctx, "released %q from group %v in boundary %v", info.ActionID(), info.ConcurrencyGroupID, boundary)
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
