package priority

import (
	"context"
	"testing"

	"github.com/projecteru2/lockman"
)

// TestHigherPriorityPreempts verifies that a higher-priority exclusive
// acquisition preempts a lower-priority holder and names it as the victim.
func TestHigherPriorityPreempts(t *testing.T) {
	ctx := context.Background()
	strat := NewStrategy()
	coord := lockman.Coordinator{}
	handle := lockman.Erase[Info](strat)

	sync := New("sync", Low(Exclusive))
	if v, err := coord.Acquire(ctx, handle, "main", sync); err != nil || v.Kind != lockman.VerdictSuccess {
		t.Fatalf("sync: verdict=%v err=%v", v.Kind, err)
	}

	urgent := New("urgent", High(Exclusive))
	v, err := coord.Acquire(ctx, handle, "main", urgent)
	if err != nil {
		t.Fatalf("urgent acquire: %v", err)
	}
	if v.Kind != lockman.VerdictSuccessWithPrecedingCancellation {
		t.Fatalf("urgent: got %v, want SuccessWithPrecedingCancellation", v.Kind)
	}
	if v.CancellationError().Kind != lockman.ErrHigherPriorityPreempts {
		t.Fatalf("kind = %v, want HigherPriorityPreempts", v.CancellationError().Kind)
	}
	if v.CancellationError().Victim.ActionID() != "sync" {
		t.Fatalf("victim = %v, want sync", v.CancellationError().Victim.ActionID())
	}

	current := strat.CurrentLocks()["main"]
	if len(current) != 1 || current[0].ActionID() != "urgent" {
		t.Fatalf("after coordinator step, current = %v, want [urgent]", current)
	}
}

// TestReplaceableEqualPriority verifies that a same-priority replaceable
// holder can be preempted by another replaceable acquisition of equal priority.
func TestReplaceableEqualPriority(t *testing.T) {
	ctx := context.Background()
	strat := NewStrategy()
	coord := lockman.Coordinator{}
	handle := lockman.Erase[Info](strat)

	a := New("a", High(Replaceable))
	if _, err := coord.Acquire(ctx, handle, "main", a); err != nil {
		t.Fatalf("a: %v", err)
	}

	b := New("b", High(Replaceable))
	v, err := coord.Acquire(ctx, handle, "main", b)
	if err != nil {
		t.Fatalf("b acquire: %v", err)
	}
	if v.Kind != lockman.VerdictSuccessWithPrecedingCancellation {
		t.Fatalf("b: got %v, want SuccessWithPrecedingCancellation", v.Kind)
	}
	if v.CancellationError().Kind != lockman.ErrReplacedByEqualPriority {
		t.Fatalf("kind = %v, want ReplacedByEqualPriority", v.CancellationError().Kind)
	}
	if v.CancellationError().Victim.ActionID() != "a" {
		t.Fatalf("victim = %v, want a", v.CancellationError().Victim.ActionID())
	}
}

func TestExclusiveEqualPriorityConflicts(t *testing.T) {
	ctx := context.Background()
	strat := NewStrategy()

	a := New("a", High(Exclusive))
	_ = strat.Lock(ctx, "main", a)

	b := New("b", High(Exclusive))
	v := strat.CanLock(ctx, "main", b)
	if v.Kind != lockman.VerdictCancel {
		t.Fatalf("got %v, want Cancel", v.Kind)
	}
	if v.CancellationError().Kind != lockman.ErrSamePriorityConflict {
		t.Fatalf("kind = %v, want SamePriorityConflict", v.CancellationError().Kind)
	}
}

func TestLowerPriorityBlocked(t *testing.T) {
	ctx := context.Background()
	strat := NewStrategy()
	_ = strat.Lock(ctx, "main", New("urgent", High(Exclusive)))

	v := strat.CanLock(ctx, "main", New("bg", Low(Exclusive)))
	if v.Kind != lockman.VerdictCancel {
		t.Fatalf("got %v, want Cancel", v.Kind)
	}
	if v.CancellationError().Kind != lockman.ErrLowerPriorityBlocked {
		t.Fatalf("kind = %v, want LowerPriorityBlocked", v.CancellationError().Kind)
	}
}

func TestNonePriorityNeverBlocksOrIsBlocked(t *testing.T) {
	ctx := context.Background()
	strat := NewStrategy()
	_ = strat.Lock(ctx, "main", New("bg", None()))

	if v := strat.CanLock(ctx, "main", New("anything", High(Exclusive))); v.Kind != lockman.VerdictSuccess {
		t.Fatalf("got %v, want Success (None holder never blocks)", v.Kind)
	}
	if v := strat.CanLock(ctx, "main", New("another-bg", None())); v.Kind != lockman.VerdictSuccess {
		t.Fatalf("got %v, want Success (None incoming never blocked)", v.Kind)
	}
}
