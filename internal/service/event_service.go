package service

import (
	"context"
	"fmt"

	"github.com/veldtgames/warcouncil/internal/model"
	"github.com/veldtgames/warcouncil/internal/repository"
)

// EventService serves the turn log to players and GMs.
type EventService struct {
	store repository.Store
	cache Cache
}

// NewEventService creates an event service. A nil cache disables the
// Redis fast path.
func NewEventService(store repository.Store, cache Cache) *EventService {
	return &EventService{store: store, cache: cache}
}

// EventsSince returns the guild's events from the given turn onward,
// filtered to the viewer. GMs see everything including events with no
// audience; characters see only events addressed to them.
func (s *EventService) EventsSince(ctx context.Context, guildID int64, sinceTurn int, characterID string, gm bool) ([]*model.Event, error) {
	events, err := s.fetch(ctx, guildID, sinceTurn)
	if err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}
	if gm {
		return events, nil
	}
	filtered := make([]*model.Event, 0, len(events))
	for _, e := range events {
		for _, id := range e.Audience() {
			if id == characterID {
				filtered = append(filtered, e)
				break
			}
		}
	}
	return filtered, nil
}

func (s *EventService) fetch(ctx context.Context, guildID int64, sinceTurn int) ([]*model.Event, error) {
	// Polls for the just-resolved turn usually hit the cache; older
	// ranges go to the store.
	if s.cache != nil {
		if cfg, err := s.store.GuildConfig(ctx, guildID); err == nil && sinceTurn == cfg.CurrentTurn-1 {
			cached, err := s.cache.CachedTurnEvents(ctx, guildID, sinceTurn)
			if err == nil && cached != nil {
				return cached, nil
			}
		}
	}
	txn, err := s.store.Begin(ctx, guildID)
	if err != nil {
		return nil, err
	}
	defer txn.Rollback()
	events, err := txn.FetchEventsSinceTurn(ctx, sinceTurn)
	if err != nil {
		return nil, err
	}
	if err := txn.Commit(); err != nil {
		return nil, err
	}
	return events, nil
}
