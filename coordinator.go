package lockman

import (
	"context"
	"fmt"

	"github.com/projecteru2/core/log"
)

// Coordinator runs the acquisition protocol: can_lock, then — if
// the verdict requests a preceding cancellation — unlock the victim before
// committing the new lock. This ordering is a hard invariant: the engine never leaks a victim's lock across the
// acquisition of its replacement.
//
// Coordinator holds no state of its own; it only sequences calls against
// whatever strategy it is given, so a single zero-value Coordinator is
// reusable and safe for any number of goroutines (the strategy's own mutex
// is what actually serializes concurrent acquisitions on one boundary).
type Coordinator struct{}

// Acquire runs can_lock(boundary, info) and, depending on the verdict:
//   - VerdictCancel: returns the verdict together with its Err as the
//     error; info is never locked.
//   - VerdictSuccess: commits lock(boundary, info) and returns the verdict.
//   - VerdictSuccessWithPrecedingCancellation: unlocks the named victim,
//     then commits lock(boundary, info), then returns the verdict so the
//     caller can still cancel the victim's in-flight work.
//
// On a Lock failure after a successful verdict, Acquire returns that error
// alongside the verdict that was already decided — the caller has enough
// information from the verdict to know cancellation was warranted even
// though commit itself failed.
func (Coordinator) Acquire(ctx context.Context, strategy AnyStrategy, boundary BoundaryID, info LockInfo) (Verdict, error) {
	logger := log.WithFunc("lockman.Coordinator.Acquire")

	verdict := strategy.CanLock(ctx, boundary, info)
	switch verdict.Kind {
	case VerdictCancel:
		logger.Infof(ctx, "cancel acquiring action %q in boundary %v: %v", info.ActionID(), boundary, verdict.Err)
		return verdict, verdict.Err

	case VerdictSuccessWithPrecedingCancellation:
		ce := verdict.CancellationError()
		if ce == nil || ce.Victim == nil {
			return verdict, fmt.Errorf("lockman: preceding-cancellation verdict missing victim for action %q", info.ActionID())
		}
		logger.Warnf(ctx, "unlocking victim action %q in boundary %v before committing %q", ce.Victim.ActionID(), ce.VictimBoundary, info.ActionID())
		if err := strategy.Unlock(ctx, ce.VictimBoundary, ce.Victim); err != nil {
			return verdict, fmt.Errorf("unlock victim before preceding cancellation: %w", err)
		}
		if err := strategy.Lock(ctx, boundary, info); err != nil {
			return verdict, fmt.Errorf("lock after preceding cancellation: %w", err)
		}
		return verdict, nil

	default: // VerdictSuccess
		if err := strategy.Lock(ctx, boundary, info); err != nil {
			return verdict, fmt.Errorf("lock: %w", err)
		}
		return verdict, nil
	}
}
