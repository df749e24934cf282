package lockman

import (
	"testing"

	"golang.org/x/sync/errgroup"
)

// TestConcurrentLockCallsPreserveCount verifies that 100 concurrent
// Add calls against one boundary are all observed, with no loss and no
// duplicate, under the store's own mutex.
func TestConcurrentLockCallsPreserveCount(t *testing.T) {
	const n = 100
	state := NewIndexedLockState[ActionID](func(info LockInfo) ActionID { return info.ActionID() })

	var g errgroup.Group
	infos := make([]BaseInfo, n)
	for i := 0; i < n; i++ {
		infos[i] = NewBaseInfo("stress", ActionID("caller"))
	}
	for i := 0; i < n; i++ {
		info := infos[i]
		g.Go(func() error {
			state.Add("b", info)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := state.TotalActiveLockCount(); got != n {
		t.Fatalf("total active = %d, want %d", got, n)
	}
	current := state.CurrentLocks("b")
	if len(current) != n {
		t.Fatalf("current_locks(b).count = %d, want %d", len(current), n)
	}

	seen := make(map[UniqueID]bool, n)
	for _, entry := range current {
		id := entry.UniqueID()
		if seen[id] {
			t.Fatalf("duplicate entry for unique id %s", id)
		}
		seen[id] = true
	}
}

// TestOrderPreservationUnderSerialCommits covers: entries
// committed in a given order are returned in exactly that order.
func TestOrderPreservationUnderSerialCommits(t *testing.T) {
	state := NewIndexedLockState[ActionID](func(info LockInfo) ActionID { return info.ActionID() })

	want := []ActionID{"i1", "i2", "i3", "i4", "i5"}
	for _, id := range want {
		state.Add("b", NewBaseInfo("stress", id))
	}

	current := state.CurrentLocks("b")
	if len(current) != len(want) {
		t.Fatalf("got %d entries, want %d", len(current), len(want))
	}
	for i, entry := range current {
		if entry.ActionID() != want[i] {
			t.Fatalf("position %d: got %q, want %q", i, entry.ActionID(), want[i])
		}
	}
}

// TestBulkIdempotence covers invariant 4: repeated CleanUp-equivalents leave
// the same state as a single call.
func TestBulkIdempotence(t *testing.T) {
	state := NewIndexedLockState[ActionID](func(info LockInfo) ActionID { return info.ActionID() })
	state.Add("b", NewBaseInfo("stress", "a"))
	state.Add("b", NewBaseInfo("stress", "b"))

	state.RemoveAllBoundary("b")
	state.RemoveAllBoundary("b")

	if got := state.TotalActiveLockCount(); got != 0 {
		t.Fatalf("total active after double cleanup = %d, want 0", got)
	}

	state.Add("b", NewBaseInfo("stress", "a"))
	state.RemoveAll()
	state.RemoveAll()
	if got := state.TotalActiveLockCount(); got != 0 {
		t.Fatalf("total active after double RemoveAll = %d, want 0", got)
	}
}
