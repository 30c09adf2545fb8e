package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/veldtgames/warcouncil/internal/model"
	"github.com/veldtgames/warcouncil/internal/repository"
	"github.com/veldtgames/warcouncil/internal/testutil"
	"github.com/veldtgames/warcouncil/pkg/wargame"
)

const testGuild int64 = 42

// seedMarch seeds a two-territory world with one unit holding a PENDING
// transit order from "aldfell" to "bruma".
func seedMarch(store *testutil.MemStore, turn int) *model.Order {
	g := store.Guild(testGuild)
	g.Config.CurrentTurn = turn
	g.Territories["aldfell"] = &model.Territory{
		GuildID: testGuild, TerritoryID: "aldfell", Name: "aldfell", TerrainType: model.TerrainPlains,
	}
	g.Territories["bruma"] = &model.Territory{
		GuildID: testGuild, TerritoryID: "bruma", Name: "bruma", TerrainType: model.TerrainPlains,
	}
	g.Adjacency = append(g.Adjacency, &model.TerritoryAdjacency{
		GuildID: testGuild, TerritoryAID: "aldfell", TerritoryBID: "bruma",
	})
	g.Characters["alice"] = &model.Character{GuildID: testGuild, Identifier: "alice", Name: "alice"}
	g.Units["u-1"] = &model.Unit{
		GuildID: testGuild, UnitID: "u-1", Name: "u-1",
		CurrentTerritoryID: "aldfell", OwnerCharacterID: "alice",
		Movement: 2, Attack: 2, Defense: 2, Size: 1,
		Organization: 10, MaxOrganization: 10, Status: model.UnitActive,
	}

	raw, _ := json.Marshal(&wargame.UnitOrderData{
		Action: model.ActionTransit, Path: []string{"aldfell", "bruma"},
	})
	o := &model.Order{
		GuildID: testGuild, OrderID: "order-march", OrderType: model.OrderTypeUnit,
		UnitIDs: []string{"u-1"}, CharacterID: "alice",
		TurnNumber: turn, Phase: string(wargame.PhaseMovement), Priority: 100,
		Status: model.OrderPending, Data: raw, SubmittedAt: time.Now(),
	}
	g.Orders[o.OrderID] = o
	return o
}

func TestAdvanceTurnResolutionDisabledIsNoop(t *testing.T) {
	store := testutil.NewMemStore()
	order := seedMarch(store, 5)
	store.Guild(testGuild).Config.TurnResolutionEnabled = false

	svc := NewTurnService(store, nil, nil, 0)
	result, err := svc.AdvanceTurn(context.Background(), testGuild)
	if err != nil {
		t.Fatalf("advance turn with resolution disabled: %v", err)
	}
	if result.ResolvedTurn != 0 || result.CurrentTurn != 5 || len(result.Events) != 0 {
		t.Errorf("result = %+v, want empty result at turn 5", result)
	}

	g := store.Guild(testGuild)
	if g.Config.CurrentTurn != 5 {
		t.Errorf("stored turn = %d, want unchanged 5", g.Config.CurrentTurn)
	}
	if order.Status != model.OrderPending {
		t.Errorf("order status = %s, want untouched PENDING", order.Status)
	}
	if g.Units["u-1"].CurrentTerritoryID != "aldfell" {
		t.Errorf("unit at %s, want aldfell (no phase ran)", g.Units["u-1"].CurrentTerritoryID)
	}
}

func TestAdvanceTurnLockHeld(t *testing.T) {
	store := testutil.NewMemStore()
	store.Guild(testGuild)
	cache := testutil.NewMemCache()
	cache.Lock(testGuild)

	svc := NewTurnService(store, cache, nil, 0)
	if _, err := svc.AdvanceTurn(context.Background(), testGuild); !errors.Is(err, ErrTurnInProgress) {
		t.Fatalf("err = %v, want ErrTurnInProgress", err)
	}
}

func TestAdvanceTurnResolvesAndAdvances(t *testing.T) {
	store := testutil.NewMemStore()
	order := seedMarch(store, 5)
	cache := testutil.NewMemCache()

	svc := NewTurnService(store, cache, nil, 0)
	result, err := svc.AdvanceTurn(context.Background(), testGuild)
	if err != nil {
		t.Fatalf("advance turn: %v", err)
	}
	if result.ResolvedTurn != 5 || result.CurrentTurn != 6 {
		t.Errorf("result = %d/%d, want resolved 5, current 6", result.ResolvedTurn, result.CurrentTurn)
	}

	g := store.Guild(testGuild)
	if g.Config.CurrentTurn != 6 {
		t.Errorf("stored turn = %d, want 6", g.Config.CurrentTurn)
	}
	if g.Units["u-1"].CurrentTerritoryID != "bruma" {
		t.Errorf("unit at %s, want bruma", g.Units["u-1"].CurrentTerritoryID)
	}
	if order.Status != model.OrderSuccess {
		t.Errorf("order status = %s, want SUCCESS", order.Status)
	}

	found := false
	for _, e := range g.Events {
		if e.EventType == model.EventTransitComplete {
			found = true
		}
	}
	if !found {
		t.Error("no TRANSIT_COMPLETE event persisted")
	}
	cached, _ := cache.CachedTurnEvents(context.Background(), testGuild, 5)
	if cached == nil {
		t.Error("resolved turn events not cached")
	}

	// The lock was released: a second resolution may run.
	if _, err := svc.AdvanceTurn(context.Background(), testGuild); err != nil {
		t.Errorf("second resolution: %v", err)
	}
}

func TestEncircledUnitDrawsNoSupplyAcrossPhases(t *testing.T) {
	store := testutil.NewMemStore()
	g := store.Guild(testGuild)
	g.Config.CurrentTurn = 5

	// bob's unit stands alone on enemy land with no route home: the
	// encirclement phase must cut its supply in the later organization
	// phase even though each phase loads a fresh snapshot.
	g.Factions["redhand"] = &model.Faction{GuildID: testGuild, FactionID: "redhand", Name: "redhand"}
	g.Factions["ironpact"] = &model.Faction{GuildID: testGuild, FactionID: "ironpact", Name: "ironpact"}
	g.Wars["war-1"] = &model.War{GuildID: testGuild, WarID: "war-1", Objective: "the vale"}
	g.WarParticipants = append(g.WarParticipants,
		&model.WarParticipant{GuildID: testGuild, WarID: "war-1", FactionID: "redhand", Side: model.SideA},
		&model.WarParticipant{GuildID: testGuild, WarID: "war-1", FactionID: "ironpact", Side: model.SideB},
	)
	g.Territories["vale"] = &model.Territory{
		GuildID: testGuild, TerritoryID: "vale", Name: "vale",
		TerrainType: model.TerrainPlains, ControllerFactionID: "ironpact",
	}
	g.Characters["bob"] = &model.Character{GuildID: testGuild, Identifier: "bob", Name: "bob"}
	g.Units["u-trapped"] = &model.Unit{
		GuildID: testGuild, UnitID: "u-trapped", Name: "u-trapped",
		CurrentTerritoryID: "vale", OwnerCharacterID: "bob", FactionID: "redhand",
		Organization: 10, MaxOrganization: 10, Status: model.UnitActive,
		Upkeep: model.Resources{Ore: 2},
	}
	g.PlayerResources["bob"] = &model.ResourceLedger{
		GuildID: testGuild, OwnerID: "bob", Amounts: model.Resources{Ore: 10},
	}

	svc := NewTurnService(store, nil, nil, 0)
	if _, err := svc.AdvanceTurn(context.Background(), testGuild); err != nil {
		t.Fatalf("advance turn: %v", err)
	}

	if got := g.PlayerResources["bob"].Amounts.Ore; got != 10 {
		t.Errorf("bob's ore = %d, want 10 (no supply reaches an encircled unit)", got)
	}
	if got := g.Units["u-trapped"].Organization; got != 9 {
		t.Errorf("organization = %d, want 9 (one upkeep type short)", got)
	}

	var sawEncircled, sawDeficit, sawPaid bool
	for _, e := range g.Events {
		switch e.EventType {
		case model.EventUnitEncircled:
			sawEncircled = true
		case model.EventUpkeepDeficit:
			sawDeficit = true
			if cut, _ := e.EventData["encircled"].(bool); !cut {
				t.Error("upkeep deficit not marked encircled")
			}
		case model.EventUpkeepPaid:
			sawPaid = true
		}
	}
	if !sawEncircled {
		t.Error("no UNIT_ENCIRCLED event persisted")
	}
	if !sawDeficit {
		t.Error("no UPKEEP_DEFICIT event persisted")
	}
	if sawPaid {
		t.Error("encircled unit paid upkeep")
	}
}

func TestTransientPhaseErrorRetriesOnce(t *testing.T) {
	store := testutil.NewMemStore()
	seedMarch(store, 5)
	store.TransientFetches = 1

	svc := NewTurnService(store, nil, nil, 0)
	if _, err := svc.AdvanceTurn(context.Background(), testGuild); err != nil {
		t.Fatalf("advance turn after one transient failure: %v", err)
	}

	store = testutil.NewMemStore()
	seedMarch(store, 5)
	store.TransientFetches = 100

	svc = NewTurnService(store, nil, nil, 0)
	if _, err := svc.AdvanceTurn(context.Background(), testGuild); !errors.Is(err, repository.ErrTransient) {
		t.Fatalf("err = %v, want ErrTransient after the retry also fails", err)
	}
}
