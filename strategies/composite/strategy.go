// Package composite implements the composite strategy: an
// ordered tuple of 2-5 child strategies evaluated as a serial AND on
// can_lock, locked forward and unlocked LIFO.
package composite

import (
	"context"
	"fmt"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/lockman"
)

// Info is one slot's payload plus the composite's own identity. Children is
// always len(strategy.children) long and positional: Children[i] is the info
// passed to the i-th child strategy.
type Info struct {
	lockman.BaseInfo
	Children []lockman.LockInfo
}

// New builds a composite Info. children must have the same length and order
// as the Strategy it will be used with.
func New(id lockman.StrategyID, actionID lockman.ActionID, children ...lockman.LockInfo) Info {
	return Info{
		BaseInfo: lockman.NewBaseInfo(id, actionID),
		Children: children,
	}
}

var _ lockman.AnyStrategy = (*Strategy)(nil)

// Strategy sequences 2-5 child strategies.
type Strategy struct {
	id       lockman.StrategyID
	children []lockman.AnyStrategy
}

// NewStrategy builds a Strategy over children, in declared order. It panics
// if len(children) is outside [2,5], since composite
// arity is a construction-time contract.
func NewStrategy(children ...lockman.AnyStrategy) *Strategy {
	if len(children) < 2 || len(children) > 5 {
		panic(fmt.Sprintf("composite: requires 2-5 children, got %d", len(children)))
	}
	ids := make([]lockman.StrategyID, len(children))
	for i, c := range children {
		ids[i] = c.StrategyID()
	}
	return &Strategy{
		id:       lockman.CompositeStrategyID(ids...),
		children: children,
	}
}

func (s *Strategy) StrategyID() lockman.StrategyID { return s.id }

// victimRef wraps a single child's victim info so a direct
// Unlock(boundary, victim) call, the shape the coordinator uses for a
// preceding cancellation, routes straight back to the child that raised
// it instead of through the full per-slot split.
type victimRef struct {
	lockman.LockInfo
	child int
}

func (s *Strategy) childInfos(boundary lockman.BoundaryID, info lockman.LockInfo) ([]lockman.LockInfo, *lockman.CancellationError) {
	composite, ok := info.(Info)
	if !ok {
		return nil, &lockman.CancellationError{
			Kind:      lockman.ErrInfoTypeMismatch,
			Boundary:  boundary,
			Info:      info,
			Technical: "info is not a composite.Info",
		}
	}
	if len(composite.Children) != len(s.children) {
		return nil, &lockman.CancellationError{
			Kind:      lockman.ErrInfoTypeMismatch,
			Boundary:  boundary,
			Info:      info,
			Technical: fmt.Sprintf("composite info carries %d children, strategy has %d", len(composite.Children), len(s.children)),
		}
	}
	return composite.Children, nil
}

// CanLock evaluates every child in order, aborting on the first Cancel and
// otherwise carrying forward the first preceding-cancellation seen.
func (s *Strategy) CanLock(ctx context.Context, boundary lockman.BoundaryID, info lockman.LockInfo) lockman.Verdict {
	children, mismatch := s.childInfos(boundary, info)
	if mismatch != nil {
		return lockman.Cancel(mismatch)
	}

	var firstPreceding *lockman.CancellationError
	for i, child := range s.children {
		v := child.CanLock(ctx, boundary, children[i])
		switch v.Kind {
		case lockman.VerdictCancel:
			return v
		case lockman.VerdictSuccessWithPrecedingCancellation:
			if firstPreceding == nil {
				wrapped := *v.CancellationError()
				wrapped.Victim = victimRef{LockInfo: wrapped.Victim, child: i}
				firstPreceding = &wrapped
			}
		}
	}
	if firstPreceding != nil {
		return lockman.SuccessWithPrecedingCancellation(firstPreceding)
	}
	return lockman.Success()
}

// Lock commits every child in order 1..N.
func (s *Strategy) Lock(ctx context.Context, boundary lockman.BoundaryID, info lockman.LockInfo) error {
	children, mismatch := s.childInfos(boundary, info)
	if mismatch != nil {
		return mismatch
	}
	for i, child := range s.children {
		if err := child.Lock(ctx, boundary, children[i]); err != nil {
			return err
		}
	}
	return nil
}

// Unlock releases every child in reverse order N..1, regardless of any
// individual error, per the hard reverse-release invariant. A victimRef,
// the shape a preceding-cancellation verdict hands back to the coordinator,
// is routed straight to the one child that owns it instead of being split
// across all children.
func (s *Strategy) Unlock(ctx context.Context, boundary lockman.BoundaryID, info lockman.LockInfo) error {
	if ref, ok := info.(victimRef); ok {
		return s.children[ref.child].Unlock(ctx, boundary, ref.LockInfo)
	}
	children, mismatch := s.childInfos(boundary, info)
	if mismatch != nil {
		return mismatch
	}
	var firstErr error
	for i := len(s.children) - 1; i >= 0; i-- {
		if err := s.children[i].Unlock(ctx, boundary, children[i]); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	log.WithFunc("composite.Strategy.Unlock").Debugf(ctx, "released %q across %d children in boundary %v", info.ActionID(), len(s.children), boundary)
	return firstErr
}

// CleanUp broadcasts to every child.
func (s *Strategy) CleanUp(ctx context.Context) {
	for _, child := range s.children {
		child.CleanUp(ctx)
	}
}

// CleanUpBoundary broadcasts to every child.
func (s *Strategy) CleanUpBoundary(ctx context.Context, boundary lockman.BoundaryID) {
	for _, child := range s.children {
		child.CleanUpBoundary(ctx, boundary)
	}
}

// CurrentLocks concatenates every child's per-boundary entries.
func (s *Strategy) CurrentLocks() map[lockman.BoundaryID][]lockman.LockInfo {
	merged := make(map[lockman.BoundaryID][]lockman.LockInfo)
	for _, child := range s.children {
		for boundary, entries := range child.CurrentLocks() {
			merged[boundary] = append(merged[boundary], entries...)
		}
	}
	return merged
}
