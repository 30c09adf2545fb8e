package service

import (
	"context"
	"testing"

	"github.com/veldtgames/warcouncil/internal/model"
	"github.com/veldtgames/warcouncil/internal/testutil"
)

func TestEventsSinceFiltersByAudience(t *testing.T) {
	store := testutil.NewMemStore()
	g := store.Guild(testGuild)
	g.Config.CurrentTurn = 9
	g.Events = []*model.Event{
		{
			GuildID: testGuild, EventID: "e-1", TurnNumber: 3,
			EventType: model.EventTransitComplete,
			EventData: map[string]any{"affected_character_ids": []string{"alice"}},
		},
		{
			// GM-only: no audience.
			GuildID: testGuild, EventID: "e-2", TurnNumber: 3,
			EventType: model.EventNexusDamaged,
		},
		{
			GuildID: testGuild, EventID: "e-3", TurnNumber: 2,
			EventType: model.EventTransitComplete,
			EventData: map[string]any{"affected_character_ids": []string{"alice"}},
		},
	}

	svc := NewEventService(store, nil)

	mine, err := svc.EventsSince(context.Background(), testGuild, 3, "alice", false)
	if err != nil {
		t.Fatalf("events since: %v", err)
	}
	if len(mine) != 1 || mine[0].EventID != "e-1" {
		t.Errorf("alice sees %d events, want just e-1", len(mine))
	}

	theirs, _ := svc.EventsSince(context.Background(), testGuild, 3, "bob", false)
	if len(theirs) != 0 {
		t.Errorf("bob sees %d events, want 0", len(theirs))
	}

	all, _ := svc.EventsSince(context.Background(), testGuild, 3, "", true)
	if len(all) != 2 {
		t.Errorf("gm sees %d events, want 2 including the GM-only one", len(all))
	}
}

func TestEventsSincePrefersCacheForLatestTurn(t *testing.T) {
	store := testutil.NewMemStore()
	g := store.Guild(testGuild)
	g.Config.CurrentTurn = 6
	g.Events = []*model.Event{
		{GuildID: testGuild, EventID: "e-store", TurnNumber: 5, EventType: model.EventTransitComplete},
	}
	cache := testutil.NewMemCache()
	cached := []*model.Event{
		{GuildID: testGuild, EventID: "e-cache", TurnNumber: 5, EventType: model.EventTransitComplete},
	}
	if err := cache.CacheTurnEvents(context.Background(), testGuild, 5, cached); err != nil {
		t.Fatal(err)
	}

	svc := NewEventService(store, cache)

	hot, err := svc.EventsSince(context.Background(), testGuild, 5, "", true)
	if err != nil {
		t.Fatalf("events since: %v", err)
	}
	if len(hot) != 1 || hot[0].EventID != "e-cache" {
		t.Errorf("latest-turn poll = %v, want the cached copy", hot)
	}

	// Older ranges bypass the cache.
	cold, _ := svc.EventsSince(context.Background(), testGuild, 4, "", true)
	if len(cold) != 1 || cold[0].EventID != "e-store" {
		t.Errorf("older poll = %v, want the stored copy", cold)
	}
}
