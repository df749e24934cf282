package dynamiccondition

import (
	"errors"
	"testing"

	"github.com/projecteru2/lockman"
)

type counters struct {
	reducerCalls int
	actionCalls  int
}

type fakeInfo struct{ lockman.BaseInfo }

func TestEvaluateRunsReducerThenAction(t *testing.T) {
	var order []string
	gate := Gate[int]{
		ReducerLevel: func(state int, action lockman.LockInfo) error {
			order = append(order, "reducer")
			return nil
		},
		ActionLevel: func(state int, action lockman.LockInfo) error {
			order = append(order, "action")
			return nil
		},
	}

	v := gate.Evaluate("b", 1, fakeInfo{lockman.NewBaseInfo("dynamic", "a")})
	if !v.IsSuccess() {
		t.Fatalf("got %v, want Success", v.Kind)
	}
	if len(order) != 2 || order[0] != "reducer" || order[1] != "action" {
		t.Fatalf("order = %v, want [reducer action]", order)
	}
}

func TestReducerRejectionShortCircuitsAction(t *testing.T) {
	actionCalled := false
	cause := errors.New("quota exhausted")
	gate := Gate[int]{
		ReducerLevel: func(state int, action lockman.LockInfo) error { return cause },
		ActionLevel: func(state int, action lockman.LockInfo) error {
			actionCalled = true
			return nil
		},
	}

	v := gate.Evaluate("b", 1, fakeInfo{lockman.NewBaseInfo("dynamic", "a")})
	if v.Kind != lockman.VerdictCancel {
		t.Fatalf("got %v, want Cancel", v.Kind)
	}
	if actionCalled {
		t.Fatal("action-level predicate ran despite reducer rejection")
	}
	ce := v.CancellationError()
	if ce.Kind != lockman.ErrDynamicConditionFailed || !errors.Is(ce, cause) {
		t.Fatalf("cause not preserved: %v", ce)
	}
}

func TestActionLevelRejection(t *testing.T) {
	cause := errors.New("site disabled")
	gate := Gate[int]{
		ActionLevel: func(state int, action lockman.LockInfo) error { return cause },
	}

	v := gate.Evaluate("b", 1, fakeInfo{lockman.NewBaseInfo("dynamic", "a")})
	if v.Kind != lockman.VerdictCancel {
		t.Fatalf("got %v, want Cancel", v.Kind)
	}
	if !errors.Is(v.CancellationError(), cause) {
		t.Fatalf("cause not preserved")
	}
}

func TestNilPredicatesAlwaysSucceed(t *testing.T) {
	var gate Gate[int]
	v := gate.Evaluate("b", 0, fakeInfo{lockman.NewBaseInfo("dynamic", "a")})
	if !v.IsSuccess() {
		t.Fatalf("got %v, want Success", v.Kind)
	}
}
