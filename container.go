package lockman

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/projecteru2/core/log"
)

// StrategyRegistration is one entry of Container.RegisteredStrategyInfo.
type StrategyRegistration struct {
	ID           StrategyID
	RegisteredAt time.Time
}

// Container is the type-safe strategy registration and resolution table of
// Reads (resolution, introspection) are cheap; mutations (register,
// unregister) are rare and fully serialized behind a single RWMutex.
type Container struct {
	mu           sync.RWMutex
	strategies   map[StrategyID]AnyStrategy
	registeredAt map[StrategyID]time.Time
}

// NewContainer creates an empty Container.
func NewContainer() *Container {
	return &Container{
		strategies:   make(map[StrategyID]AnyStrategy),
		registeredAt: make(map[StrategyID]time.Time),
	}
}

// Register adds strategy under id. Returns *RegistrationError{Duplicate:true}
// if id is already registered.
func (c *Container) Register(ctx context.Context, id StrategyID, strategy AnyStrategy) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.strategies[id]; exists {
		return errStrategyAlreadyRegistered(id)
	}
	c.strategies[id] = strategy
	c.registeredAt[id] = time.Now()
	log.WithFunc("lockman.Container.Register").Infof(ctx, "registered strategy %q", id)
	return nil
}

// RegistrationEntry pairs an id with its strategy for RegisterAll.
type RegistrationEntry struct {
	ID       StrategyID
	Strategy AnyStrategy
}

// RegisterAll registers every entry atomically with respect to duplicate
// detection: if any id conflicts with an existing registration or with
// another entry in the same batch, the whole batch is rejected and no
// partial registration is left behind.
func (c *Container) RegisterAll(ctx context.Context, entries []RegistrationEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[StrategyID]struct{}, len(entries))
	for _, e := range entries {
		if _, exists := c.strategies[e.ID]; exists {
			return errStrategyAlreadyRegistered(e.ID)
		}
		if _, dup := seen[e.ID]; dup {
			return errStrategyAlreadyRegistered(e.ID)
		}
		seen[e.ID] = struct{}{}
	}

	now := time.Now()
	for _, e := range entries {
		c.strategies[e.ID] = e.Strategy
		c.registeredAt[e.ID] = now
	}
	log.WithFunc("lockman.Container.RegisterAll").Infof(ctx, "registered %d strategies", len(entries))
	return nil
}

// Resolve returns the strategy registered under id, or
// *RegistrationError{Duplicate:false} if none is.
func (c *Container) Resolve(id StrategyID) (AnyStrategy, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.strategies[id]
	if !ok {
		return nil, errStrategyNotRegistered(id)
	}
	return s, nil
}

// IsRegistered reports whether id currently has a registered strategy.
func (c *Container) IsRegistered(id StrategyID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.strategies[id]
	return ok
}

// RegisteredStrategyIDs returns every registered id, sorted.
func (c *Container) RegisteredStrategyIDs() []StrategyID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]StrategyID, 0, len(c.strategies))
	for id := range c.strategies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// RegisteredStrategyInfo returns registration metadata for every strategy,
// sorted by id.
func (c *Container) RegisteredStrategyInfo() []StrategyRegistration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]StrategyRegistration, 0, len(c.strategies))
	for id := range c.strategies {
		out = append(out, StrategyRegistration{ID: id, RegisteredAt: c.registeredAt[id]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// StrategyCount returns the number of registered strategies.
func (c *Container) StrategyCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.strategies)
}

// GetAllStrategies returns a defensive copy of the id -> strategy table.
func (c *Container) GetAllStrategies() map[StrategyID]AnyStrategy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[StrategyID]AnyStrategy, len(c.strategies))
	for id, s := range c.strategies {
		out[id] = s
	}
	return out
}

// Unregister removes id, reporting whether it was present.
func (c *Container) Unregister(id StrategyID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.strategies[id]; !ok {
		return false
	}
	delete(c.strategies, id)
	delete(c.registeredAt, id)
	return true
}

// RemoveAllStrategies unregisters every strategy.
func (c *Container) RemoveAllStrategies() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.strategies = make(map[StrategyID]AnyStrategy)
	c.registeredAt = make(map[StrategyID]time.Time)
}
