package singleexecution

import (
	"context"
	"testing"

	"github.com/projecteru2/lockman"
)

// TestBoundaryModeScenario verifies that ModeBoundary rejects a second
// action on an already-locked boundary until the first is unlocked.
func TestBoundaryModeScenario(t *testing.T) {
	ctx := context.Background()
	strat := NewStrategy()

	nav := New("nav", ModeBoundary)
	if v := strat.CanLock(ctx, "main", nav); v.Kind != lockman.VerdictSuccess {
		t.Fatalf("nav: got %v, want Success", v.Kind)
	}
	if err := strat.Lock(ctx, "main", nav); err != nil {
		t.Fatalf("lock nav: %v", err)
	}

	refresh := New("refresh", ModeBoundary)
	v := strat.CanLock(ctx, "main", refresh)
	if v.Kind != lockman.VerdictCancel {
		t.Fatalf("refresh before unlock: got %v, want Cancel", v.Kind)
	}
	ce := v.CancellationError()
	if ce == nil || ce.Kind != lockman.ErrBoundaryAlreadyLocked {
		t.Fatalf("refresh error kind = %v, want BoundaryAlreadyLocked", ce)
	}
	if ce.Victim == nil || ce.Victim.ActionID() != "nav" {
		t.Fatalf("victim = %v, want nav", ce.Victim)
	}

	if err := strat.Unlock(ctx, "main", nav); err != nil {
		t.Fatalf("unlock nav: %v", err)
	}

	if v := strat.CanLock(ctx, "main", refresh); v.Kind != lockman.VerdictSuccess {
		t.Fatalf("refresh after unlock: got %v, want Success", v.Kind)
	}
}

func TestActionModeAllowsDifferentActions(t *testing.T) {
	ctx := context.Background()
	strat := NewStrategy()

	login := New("login", ModeAction)
	if v := strat.CanLock(ctx, "b", login); v.Kind != lockman.VerdictSuccess {
		t.Fatalf("login: got %v", v.Kind)
	}
	_ = strat.Lock(ctx, "b", login)

	// Same boundary, different action: allowed under ModeAction.
	logout := New("logout", ModeAction)
	if v := strat.CanLock(ctx, "b", logout); v.Kind != lockman.VerdictSuccess {
		t.Fatalf("logout: got %v, want Success (different action)", v.Kind)
	}

	// Same action concurrently: refused.
	loginAgain := New("login", ModeAction)
	v := strat.CanLock(ctx, "b", loginAgain)
	if v.Kind != lockman.VerdictCancel {
		t.Fatalf("loginAgain: got %v, want Cancel", v.Kind)
	}
	if v.CancellationError().Kind != lockman.ErrActionAlreadyRunning {
		t.Fatalf("loginAgain kind = %v, want ActionAlreadyRunning", v.CancellationError().Kind)
	}
}

func TestModeNoneAlwaysSucceedsAndIsRecorded(t *testing.T) {
	ctx := context.Background()
	strat := NewStrategy()

	a := New("noop", ModeNone)
	if v := strat.CanLock(ctx, "b", a); v.Kind != lockman.VerdictSuccess {
		t.Fatalf("got %v, want Success", v.Kind)
	}
	_ = strat.Lock(ctx, "b", a)

	b := New("noop", ModeNone)
	if v := strat.CanLock(ctx, "b", b); v.Kind != lockman.VerdictSuccess {
		t.Fatalf("second ModeNone entry: got %v, want Success (never blocks)", v.Kind)
	}

	locks := strat.CurrentLocks()
	if len(locks["b"]) != 1 {
		t.Fatalf("expected 1 recorded entry before second lock, got %d", len(locks["b"]))
	}
}

func TestRoundTripRestoresState(t *testing.T) {
	ctx := context.Background()
	strat := NewStrategy()
	info := New("x", ModeBoundary)

	before := strat.CurrentLocks()
	if v := strat.CanLock(ctx, "b", info); v.Kind != lockman.VerdictSuccess {
		t.Fatalf("got %v", v.Kind)
	}
	_ = strat.Lock(ctx, "b", info)
	_ = strat.Unlock(ctx, "b", info)
	after := strat.CurrentLocks()

	if len(before) != len(after) {
		t.Fatalf("round-trip changed boundary count: before=%d after=%d", len(before), len(after))
	}
}

func TestCleanUpIsIdempotent(t *testing.T) {
	ctx := context.Background()
	strat := NewStrategy()
	_ = strat.Lock(ctx, "b", New("x", ModeBoundary))

	strat.CleanUpBoundary(ctx, "b")
	strat.CleanUpBoundary(ctx, "b")

	if locks := strat.CurrentLocks(); len(locks) != 0 {
		t.Fatalf("expected empty state after repeated cleanup, got %v", locks)
	}
}
