package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/veldtgames/warcouncil/internal/model"
)

func turnLockKey(guildID int64) string {
	return fmt.Sprintf("warcouncil:turnlock:%d", guildID)
}

func eventCacheKey(guildID int64, turn int) string {
	return fmt.Sprintf("warcouncil:events:%d:%d", guildID, turn)
}

// AcquireTurnLock takes the per-guild resolution lock. Returns false if
// another resolution is already running. The TTL guards against a
// crashed resolver holding the lock forever.
func (c *Client) AcquireTurnLock(ctx context.Context, guildID int64, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, turnLockKey(guildID), time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire turn lock: %w", err)
	}
	return ok, nil
}

// ReleaseTurnLock drops the per-guild resolution lock.
func (c *Client) ReleaseTurnLock(ctx context.Context, guildID int64) error {
	if err := c.rdb.Del(ctx, turnLockKey(guildID)).Err(); err != nil {
		return fmt.Errorf("release turn lock: %w", err)
	}
	return nil
}

// CacheTurnEvents stores a turn's event log for quick reads by the event
// feed. Entries expire after a day; the database stays authoritative.
func (c *Client) CacheTurnEvents(ctx context.Context, guildID int64, turn int, events []*model.Event) error {
	if len(events) == 0 {
		return nil
	}
	raw, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode turn events: %w", err)
	}
	if err := c.rdb.Set(ctx, eventCacheKey(guildID, turn), raw, 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("cache turn events: %w", err)
	}
	return nil
}

// CachedTurnEvents returns a turn's cached event log, or nil on a miss.
func (c *Client) CachedTurnEvents(ctx context.Context, guildID int64, turn int) ([]*model.Event, error) {
	raw, err := c.rdb.Get(ctx, eventCacheKey(guildID, turn)).Bytes()
	if err != nil {
		// A miss is not an error; the caller falls back to the store.
		return nil, nil
	}
	var events []*model.Event
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("decode cached turn events: %w", err)
	}
	return events, nil
}
