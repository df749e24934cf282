package lockman

import (
	"context"
	"fmt"
)

// Strategy is the four-verb contract, generic over the concrete
// info type I it operates on. CanLock is a pure query: it must never mutate
// state. Lock is only legal after a non-Cancel verdict on the same info;
// Unlock releases the exact entry with a matching UniqueID and is idempotent
// once that entry is gone.
type Strategy[I LockInfo] interface {
	StrategyID() StrategyID
	CanLock(ctx context.Context, boundary BoundaryID, info I) Verdict
	Lock(ctx context.Context, boundary BoundaryID, info I) error
	Unlock(ctx context.Context, boundary BoundaryID, info I) error
	CleanUp(ctx context.Context)
	CleanUpBoundary(ctx context.Context, boundary BoundaryID)
	CurrentLocks() map[BoundaryID][]LockInfo
}

// AnyStrategy is the erased capability object the container and composite
// strategy deal in: every verb
// from Strategy[I], with I replaced by the LockInfo interface. A handle
// downcasts to its concrete info type internally and reports a type
// mismatch as an ordinary Cancel verdict rather than panicking.
type AnyStrategy interface {
	StrategyID() StrategyID
	CanLock(ctx context.Context, boundary BoundaryID, info LockInfo) Verdict
	Lock(ctx context.Context, boundary BoundaryID, info LockInfo) error
	Unlock(ctx context.Context, boundary BoundaryID, info LockInfo) error
	CleanUp(ctx context.Context)
	CleanUpBoundary(ctx context.Context, boundary BoundaryID)
	CurrentLocks() map[BoundaryID][]LockInfo
}

// erasedStrategy adapts a Strategy[I] into an AnyStrategy by downcasting the
// erased LockInfo argument back to I on every call.
type erasedStrategy[I LockInfo] struct {
	inner Strategy[I]
}

// Erase wraps a concrete Strategy[I] as an AnyStrategy for registration in
// a Container. The strategies/* packages return concrete strategies from
// NewStrategy; callers erase them with this before registering.
func Erase[I LockInfo](s Strategy[I]) AnyStrategy {
	return erasedStrategy[I]{inner: s}
}

func (e erasedStrategy[I]) StrategyID() StrategyID { return e.inner.StrategyID() }

func (e erasedStrategy[I]) downcast(boundary BoundaryID, info LockInfo) (I, *CancellationError) {
	typed, ok := info.(I)
	if !ok {
		var zero I
		return zero, &CancellationError{
			Kind:      ErrInfoTypeMismatch,
			Boundary:  boundary,
			Info:      info,
			Technical: fmt.Sprintf("info type mismatch for strategy %q", e.inner.StrategyID()),
			Reason:    "This lock-info was not built for this strategy.",
		}
	}
	return typed, nil
}

func (e erasedStrategy[I]) CanLock(ctx context.Context, boundary BoundaryID, info LockInfo) Verdict {
	typed, mismatch := e.downcast(boundary, info)
	if mismatch != nil {
		return Cancel(mismatch)
	}
	return e.inner.CanLock(ctx, boundary, typed)
}

func (e erasedStrategy[I]) Lock(ctx context.Context, boundary BoundaryID, info LockInfo) error {
	typed, mismatch := e.downcast(boundary, info)
	if mismatch != nil {
		return mismatch
	}
	return e.inner.Lock(ctx, boundary, typed)
}

func (e erasedStrategy[I]) Unlock(ctx context.Context, boundary BoundaryID, info LockInfo) error {
	typed, mismatch := e.downcast(boundary, info)
	if mismatch != nil {
		return mismatch
	}
	return e.inner.Unlock(ctx, boundary, typed)
}

func (e erasedStrategy[I]) CleanUp(ctx context.Context) { e.inner.CleanUp(ctx) }

func (e erasedStrategy[I]) CleanUpBoundary(ctx context.Context, boundary BoundaryID) {
	e.inner.CleanUpBoundary(ctx, boundary)
}

func (e erasedStrategy[I]) CurrentLocks() map[BoundaryID][]LockInfo { return e.inner.CurrentLocks() }
