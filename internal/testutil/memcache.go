package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/veldtgames/warcouncil/internal/model"
)

// MemCache is an in-memory stand-in for the Redis cache surface.
type MemCache struct {
	mu     sync.Mutex
	locks  map[int64]bool
	events map[string][]*model.Event

	// AcquireErr, when set, is returned by AcquireTurnLock.
	AcquireErr error
}

// NewMemCache creates an empty cache.
func NewMemCache() *MemCache {
	return &MemCache{
		locks:  make(map[int64]bool),
		events: make(map[string][]*model.Event),
	}
}

// AcquireTurnLock implements the cache contract. The TTL is ignored;
// tests release locks explicitly.
func (c *MemCache) AcquireTurnLock(_ context.Context, guildID int64, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.AcquireErr != nil {
		return false, c.AcquireErr
	}
	if c.locks[guildID] {
		return false, nil
	}
	c.locks[guildID] = true
	return true, nil
}

// ReleaseTurnLock implements the cache contract.
func (c *MemCache) ReleaseTurnLock(_ context.Context, guildID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.locks, guildID)
	return nil
}

// Lock marks the guild's turn lock held, as if another resolution owned
// it.
func (c *MemCache) Lock(guildID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locks[guildID] = true
}

// CacheTurnEvents implements the cache contract.
func (c *MemCache) CacheTurnEvents(_ context.Context, guildID int64, turn int, events []*model.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events[eventKey(guildID, turn)] = events
	return nil
}

// CachedTurnEvents implements the cache contract. A miss returns nil,
// nil.
func (c *MemCache) CachedTurnEvents(_ context.Context, guildID int64, turn int) ([]*model.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events[eventKey(guildID, turn)], nil
}

func eventKey(guildID int64, turn int) string {
	return fmt.Sprintf("%d:%d", guildID, turn)
}
