package lockman

import (
	"context"
	"sync"

	"github.com/projecteru2/core/log"
)

var (
	defaultContainer = NewContainer()
	overrideMu       sync.Mutex
	currentOverride  *Container
	coordinator      = Coordinator{}
)

// activeContainer returns the test-scoped container if any WithTestContainer
// body is currently executing (on any goroutine), else the process-wide
// default.
func activeContainer() *Container {
	overrideMu.Lock()
	defer overrideMu.Unlock()
	if currentOverride != nil {
		return currentOverride
	}
	return defaultContainer
}

// DefaultContainer returns the process-wide default container.
func DefaultContainer() *Container { return defaultContainer }

// WithTestContainer replaces the process-wide default container with c for
// the dynamic extent of body, then restores the prior container — even if
// body panics.
//
// Go has no thread-local/task-local storage, so this is a package-level
// override rather than a true per-goroutine one (see SPEC_FULL.md "Open
// Question Resolutions / O3"): tests that call WithTestContainer must not
// run with t.Parallel() against each other.
func WithTestContainer(c *Container, body func()) {
	overrideMu.Lock()
	prev := currentOverride
	currentOverride = c
	overrideMu.Unlock()

	defer func() {
		overrideMu.Lock()
		currentOverride = prev
		overrideMu.Unlock()
	}()

	body()
}

// Register registers strategy under id on the active container.
func Register(ctx context.Context, id StrategyID, strategy AnyStrategy) error {
	return activeContainer().Register(ctx, id, strategy)
}

// RegisterAll registers every entry atomically on the active container.
func RegisterAll(ctx context.Context, entries []RegistrationEntry) error {
	return activeContainer().RegisterAll(ctx, entries)
}

// CanLock resolves id on the active container and evaluates its pure query.
func CanLock(ctx context.Context, id StrategyID, boundary BoundaryID, info LockInfo) (Verdict, error) {
	s, err := activeContainer().Resolve(id)
	if err != nil {
		return Verdict{}, err
	}
	return s.CanLock(ctx, boundary, info), nil
}

// Acquire runs the full can_lock -> coordinator-unlock-victim -> lock
// protocol against the strategy registered under id.
func Acquire(ctx context.Context, id StrategyID, boundary BoundaryID, info LockInfo) (Verdict, error) {
	s, err := activeContainer().Resolve(id)
	if err != nil {
		return Verdict{}, err
	}
	return coordinator.Acquire(ctx, s, boundary, info)
}

// Unlock releases info from the strategy registered under id.
func Unlock(ctx context.Context, id StrategyID, boundary BoundaryID, info LockInfo) error {
	s, err := activeContainer().Resolve(id)
	if err != nil {
		return err
	}
	return s.Unlock(ctx, boundary, info)
}

// CleanUp resets every registered strategy on the active container.
func CleanUp(ctx context.Context) {
	strategies := activeContainer().GetAllStrategies()
	for _, s := range strategies {
		s.CleanUp(ctx)
	}
	log.WithFunc("lockman.CleanUp").Warnf(ctx, "cleaned up %d strategies", len(strategies))
}

// CleanUpBoundary resets boundary across every registered strategy.
func CleanUpBoundary(ctx context.Context, boundary BoundaryID) {
	strategies := activeContainer().GetAllStrategies()
	for _, s := range strategies {
		s.CleanUpBoundary(ctx, boundary)
	}
	log.WithFunc("lockman.CleanUpBoundary").Warnf(ctx, "cleaned up boundary %v across %d strategies", boundary, len(strategies))
}

// CurrentLocks merges CurrentLocks() across every registered strategy,
// keyed by strategy id, for debugging/introspection.
func CurrentLocks() map[StrategyID]map[BoundaryID][]LockInfo {
	strategies := activeContainer().GetAllStrategies()
	out := make(map[StrategyID]map[BoundaryID][]LockInfo, len(strategies))
	for id, s := range strategies {
		out[id] = s.CurrentLocks()
	}
	return out
}

// RegisteredStrategyIDs returns the sorted ids registered on the active container.
func RegisteredStrategyIDs() []StrategyID {
	return activeContainer().RegisteredStrategyIDs()
}

// RegisteredStrategyInfo returns registration metadata from the active container.
func RegisteredStrategyInfo() []StrategyRegistration {
	return activeContainer().RegisteredStrategyInfo()
}
