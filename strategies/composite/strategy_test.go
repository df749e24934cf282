package composite

import (
	"context"
	"testing"

	"github.com/projecteru2/lockman"
	"github.com/projecteru2/lockman/strategies/priority"
	"github.com/projecteru2/lockman/strategies/singleexecution"
)

// spyStrategy wraps an AnyStrategy and records every CanLock invocation.
type spyStrategy struct {
	lockman.AnyStrategy
	calls *[]lockman.StrategyID
}

func (s spyStrategy) CanLock(ctx context.Context, boundary lockman.BoundaryID, info lockman.LockInfo) lockman.Verdict {
	*s.calls = append(*s.calls, s.AnyStrategy.StrategyID())
	return s.AnyStrategy.CanLock(ctx, boundary, info)
}

// TestEarlyAbortSkipsLaterChildren verifies that CanLock stops at the first
// child that refuses and never queries the remaining children.
func TestEarlyAbortSkipsLaterChildren(t *testing.T) {
	ctx := context.Background()
	var calls []lockman.StrategyID

	single := singleexecution.NewStrategy()
	prio := priority.NewStrategy()
	singleHandle := spyStrategy{AnyStrategy: lockman.Erase[singleexecution.Info](single), calls: &calls}
	prioHandle := spyStrategy{AnyStrategy: lockman.Erase[priority.Info](prio), calls: &calls}

	strat := NewStrategy(singleHandle, prioHandle)

	existing := singleexecution.New("nav", singleexecution.ModeBoundary)
	_ = single.Lock(ctx, "main", existing)

	info := New(strat.StrategyID(), "refresh",
		singleexecution.New("refresh", singleexecution.ModeBoundary),
		priority.New("refresh", priority.High(priority.Exclusive)),
	)

	v := strat.CanLock(ctx, "main", info)
	if v.Kind != lockman.VerdictCancel {
		t.Fatalf("got %v, want Cancel", v.Kind)
	}
	if v.CancellationError().Kind != lockman.ErrBoundaryAlreadyLocked {
		t.Fatalf("kind = %v, want BoundaryAlreadyLocked", v.CancellationError().Kind)
	}
	if len(calls) != 1 {
		t.Fatalf("children queried = %v, want exactly [singleExecution]", calls)
	}
}

func TestAllSuccessComposesToSuccess(t *testing.T) {
	ctx := context.Background()
	single := singleexecution.NewStrategy()
	prio := priority.NewStrategy()
	strat := NewStrategy(lockman.Erase[singleexecution.Info](single), lockman.Erase[priority.Info](prio))

	info := New(strat.StrategyID(), "refresh",
		singleexecution.New("refresh", singleexecution.ModeBoundary),
		priority.New("refresh", priority.High(priority.Exclusive)),
	)

	if v := strat.CanLock(ctx, "main", info); v.Kind != lockman.VerdictSuccess {
		t.Fatalf("got %v, want Success", v.Kind)
	}
}

func TestUnlockReleasesInReverseOrder(t *testing.T) {
	ctx := context.Background()
	var order []lockman.StrategyID

	single := singleexecution.NewStrategy()
	prio := priority.NewStrategy()
	singleHandle := spyUnlock{AnyStrategy: lockman.Erase[singleexecution.Info](single), order: &order}
	prioHandle := spyUnlock{AnyStrategy: lockman.Erase[priority.Info](prio), order: &order}

	strat := NewStrategy(singleHandle, prioHandle)

	info := New(strat.StrategyID(), "refresh",
		singleexecution.New("refresh", singleexecution.ModeBoundary),
		priority.New("refresh", priority.High(priority.Exclusive)),
	)

	_ = strat.Lock(ctx, "main", info)
	_ = strat.Unlock(ctx, "main", info)

	if len(order) != 2 || order[0] != prio.StrategyID() || order[1] != single.StrategyID() {
		t.Fatalf("unlock order = %v, want [priority, singleExecution]", order)
	}
}

type spyUnlock struct {
	lockman.AnyStrategy
	order *[]lockman.StrategyID
}

func (s spyUnlock) Unlock(ctx context.Context, boundary lockman.BoundaryID, info lockman.LockInfo) error {
	*s.order = append(*s.order, s.AnyStrategy.StrategyID())
	return s.AnyStrategy.Unlock(ctx, boundary, info)
}

func TestCurrentLocksMergesChildren(t *testing.T) {
	ctx := context.Background()
	single := singleexecution.NewStrategy()
	prio := priority.NewStrategy()
	strat := NewStrategy(lockman.Erase[singleexecution.Info](single), lockman.Erase[priority.Info](prio))

	info := New(strat.StrategyID(), "refresh",
		singleexecution.New("refresh", singleexecution.ModeBoundary),
		priority.New("refresh", priority.High(priority.Exclusive)),
	)
	_ = strat.Lock(ctx, "main", info)

	merged := strat.CurrentLocks()["main"]
	if len(merged) != 2 {
		t.Fatalf("merged entries = %d, want 2", len(merged))
	}
}

func TestConstructorRejectsOutOfRangeArity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for single-child composite")
		}
	}()
	single := singleexecution.NewStrategy()
	NewStrategy(lockman.Erase[singleexecution.Info](single))
}
