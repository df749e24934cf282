package lockman_test

import (
	"context"
	"testing"

	"github.com/projecteru2/lockman"
	"github.com/projecteru2/lockman/strategies/composite"
	"github.com/projecteru2/lockman/strategies/priority"
	"github.com/projecteru2/lockman/strategies/singleexecution"
)

// TestCoordinatorAcquireReleasesCompositeVictim verifies that when a
// composite's CanLock returns SuccessWithPrecedingCancellation because one
// child (priority) flags a victim, Coordinator.Acquire can unlock that
// victim through the composite handle and then commit the new lock: the
// victim's info belongs to the child strategy, not the composite, and must
// still route correctly.
func TestCoordinatorAcquireReleasesCompositeVictim(t *testing.T) {
	ctx := context.Background()
	single := singleexecution.NewStrategy()
	prio := priority.NewStrategy()
	strat := composite.NewStrategy(
		lockman.Erase[singleexecution.Info](single),
		lockman.Erase[priority.Info](prio),
	)
	coord := lockman.Coordinator{}

	sync := composite.New(strat.StrategyID(), "sync",
		singleexecution.New("sync", singleexecution.ModeNone),
		priority.New("sync", priority.Low(priority.Exclusive)),
	)
	if v, err := coord.Acquire(ctx, strat, "main", sync); err != nil || v.Kind != lockman.VerdictSuccess {
		t.Fatalf("sync: verdict=%v err=%v", v.Kind, err)
	}

	urgent := composite.New(strat.StrategyID(), "urgent",
		singleexecution.New("urgent", singleexecution.ModeNone),
		priority.New("urgent", priority.High(priority.Exclusive)),
	)
	v, err := coord.Acquire(ctx, strat, "main", urgent)
	if err != nil {
		t.Fatalf("urgent acquire: %v", err)
	}
	if v.Kind != lockman.VerdictSuccessWithPrecedingCancellation {
		t.Fatalf("urgent: got %v, want SuccessWithPrecedingCancellation", v.Kind)
	}

	prioCurrent := prio.CurrentLocks()["main"]
	if len(prioCurrent) != 1 || prioCurrent[0].ActionID() != "urgent" {
		t.Fatalf("priority child current_locks(main) = %v, want [urgent]", prioCurrent)
	}

	singleCurrent := single.CurrentLocks()["main"]
	if len(singleCurrent) != 2 {
		t.Fatalf("singleExecution child current_locks(main) count = %d, want 2 (sync, urgent)", len(singleCurrent))
	}
}
