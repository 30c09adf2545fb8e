package wargame

import (
	"testing"

	"github.com/veldtgames/warcouncil/internal/model"
)

func TestTransitMovesAlongPath(t *testing.T) {
	w := NewWorld(testGuild, 3)
	landChain(w, "aldfell", "bruma", "carth")
	u := addUnit(w, "u-1", "aldfell", "alice", "")

	o := unitOrder(t, w, "alice", []string{"u-1"}, &UnitOrderData{
		Action: model.ActionTransit,
		Path:   []string{"aldfell", "bruma", "carth"},
	})
	events := ResolvePhase(w, PhaseMovement, []*model.Order{o})

	if u.CurrentTerritoryID != "carth" {
		t.Errorf("unit at %s, want carth", u.CurrentTerritoryID)
	}
	if o.Status != model.OrderSuccess {
		t.Errorf("order status = %s, want SUCCESS", o.Status)
	}
	ev := requireEvent(t, events, model.EventTransitComplete)
	if ev.EventData["territory"] != "carth" {
		t.Errorf("transit complete at %v, want carth", ev.EventData["territory"])
	}
	if d := decodeUnitData(t, o); d.Status != MoveStatusPathComplete {
		t.Errorf("movement status = %s, want %s", d.Status, MoveStatusPathComplete)
	}
}

func TestMountainCostStopsAdvance(t *testing.T) {
	w := NewWorld(testGuild, 3)
	landChain(w, "aldfell", "bruma", "carth")
	w.Territories["bruma"].TerrainType = model.TerrainMountain
	u := addUnit(w, "u-1", "aldfell", "alice", "")

	// Transit grants movement+1 MP: 3 total. Entering the mountain costs
	// all of it, leaving nothing for the last step.
	o := unitOrder(t, w, "alice", []string{"u-1"}, &UnitOrderData{
		Action: model.ActionTransit,
		Path:   []string{"aldfell", "bruma", "carth"},
	})
	events := ResolvePhase(w, PhaseMovement, []*model.Order{o})

	if u.CurrentTerritoryID != "bruma" {
		t.Errorf("unit at %s, want bruma", u.CurrentTerritoryID)
	}
	if o.Status != model.OrderOngoing {
		t.Errorf("order status = %s, want ONGOING", o.Status)
	}
	d := decodeUnitData(t, o)
	if d.Status != MoveStatusOutOfMP {
		t.Errorf("movement status = %s, want %s", d.Status, MoveStatusOutOfMP)
	}
	if d.PathIndex != 1 {
		t.Errorf("path index = %d, want 1", d.PathIndex)
	}
	requireNoEvent(t, events, model.EventTransitComplete)
}

func TestZeroMovementTransitCompletesInPlace(t *testing.T) {
	w := NewWorld(testGuild, 3)
	landChain(w, "aldfell", "bruma")
	u := addUnit(w, "u-1", "aldfell", "alice", "")
	u.Movement = 0

	o := unitOrder(t, w, "alice", []string{"u-1"}, &UnitOrderData{
		Action: model.ActionTransit,
		Path:   []string{"aldfell", "bruma"},
	})
	events := ResolvePhase(w, PhaseMovement, []*model.Order{o})

	if u.CurrentTerritoryID != "aldfell" {
		t.Errorf("unit at %s, want aldfell", u.CurrentTerritoryID)
	}
	if o.Status != model.OrderSuccess {
		t.Errorf("order status = %s, want SUCCESS", o.Status)
	}
	ev := requireEvent(t, events, model.EventTransitComplete)
	if ev.EventData["territory"] != "aldfell" {
		t.Errorf("completed at %v, want aldfell", ev.EventData["territory"])
	}
}

func TestHostileOccupantBlocksTransit(t *testing.T) {
	w := NewWorld(testGuild, 3)
	landChain(w, "aldfell", "bruma", "carth")
	addFaction(w, "redhand", "alice")
	addFaction(w, "greycloak", "bob")
	addWar(w, "the bridge", []string{"redhand"}, []string{"greycloak"})

	u := addUnit(w, "u-1", "aldfell", "alice", "redhand")
	addUnit(w, "u-2", "bruma", "bob", "greycloak")

	o := unitOrder(t, w, "alice", []string{"u-1"}, &UnitOrderData{
		Action: model.ActionTransit,
		Path:   []string{"aldfell", "bruma", "carth"},
	})
	events := ResolvePhase(w, PhaseMovement, []*model.Order{o})

	if u.CurrentTerritoryID != "aldfell" {
		t.Errorf("unit at %s, want aldfell (blocked before entering)", u.CurrentTerritoryID)
	}
	if o.Status != model.OrderOngoing {
		t.Errorf("order status = %s, want ONGOING", o.Status)
	}
	d := decodeUnitData(t, o)
	if d.Status != MoveStatusEngaged {
		t.Errorf("movement status = %s, want %s", d.Status, MoveStatusEngaged)
	}
	if d.PathIndex != 0 {
		t.Errorf("path index = %d, want 0", d.PathIndex)
	}
	if d.BlockedAt != "bruma" {
		t.Errorf("blocked at %s, want bruma", d.BlockedAt)
	}
	ev := requireEvent(t, events, model.EventEngagementDetected)
	if ev.EventData["blocked_at"] != "bruma" {
		t.Errorf("event blocked_at = %v, want bruma", ev.EventData["blocked_at"])
	}
}

func TestInfiltratorIgnoresEngagement(t *testing.T) {
	w := NewWorld(testGuild, 3)
	landChain(w, "aldfell", "bruma", "carth")
	addFaction(w, "redhand", "alice")
	addFaction(w, "greycloak", "bob")
	addWar(w, "the bridge", []string{"redhand"}, []string{"greycloak"})

	u := addUnit(w, "u-1", "aldfell", "alice", "redhand")
	u.Keywords = model.Keywords{model.KwInfiltrator}
	addUnit(w, "u-2", "bruma", "bob", "greycloak")

	o := unitOrder(t, w, "alice", []string{"u-1"}, &UnitOrderData{
		Action: model.ActionTransit,
		Path:   []string{"aldfell", "bruma", "carth"},
	})
	events := ResolvePhase(w, PhaseMovement, []*model.Order{o})

	if u.CurrentTerritoryID != "carth" {
		t.Errorf("unit at %s, want carth", u.CurrentTerritoryID)
	}
	if o.Status != model.OrderSuccess {
		t.Errorf("order status = %s, want SUCCESS", o.Status)
	}
	requireNoEvent(t, events, model.EventEngagementDetected)
}

func TestPatrolWrapsAroundLoop(t *testing.T) {
	w := NewWorld(testGuild, 3)
	landChain(w, "aldfell", "bruma", "carth")
	w.AddAdjacency("carth", "aldfell")
	u := addUnit(w, "u-1", "aldfell", "alice", "")
	u.Movement = 3

	o := unitOrder(t, w, "alice", []string{"u-1"}, &UnitOrderData{
		Action: model.ActionPatrol,
		Path:   []string{"aldfell", "bruma", "carth"},
	})
	ResolvePhase(w, PhaseMovement, []*model.Order{o})

	// 3 MP walk the full loop back to the start.
	if u.CurrentTerritoryID != "aldfell" {
		t.Errorf("unit at %s, want aldfell after wrapping", u.CurrentTerritoryID)
	}
	if o.Status != model.OrderOngoing {
		t.Errorf("order status = %s, want ONGOING (patrols persist)", o.Status)
	}
	if d := decodeUnitData(t, o); d.PathIndex != 0 {
		t.Errorf("path index = %d, want 0 after wrap", d.PathIndex)
	}
}

func TestPatrolSpeedCapsMovement(t *testing.T) {
	w := NewWorld(testGuild, 3)
	landChain(w, "aldfell", "bruma", "carth")
	w.AddAdjacency("carth", "aldfell")
	u := addUnit(w, "u-1", "aldfell", "alice", "")
	u.Movement = 3

	o := unitOrder(t, w, "alice", []string{"u-1"}, &UnitOrderData{
		Action: model.ActionPatrol,
		Path:   []string{"aldfell", "bruma", "carth"},
		Speed:  1,
	})
	ResolvePhase(w, PhaseMovement, []*model.Order{o})

	if u.CurrentTerritoryID != "bruma" {
		t.Errorf("unit at %s, want bruma with speed 1", u.CurrentTerritoryID)
	}
}

func TestTransportCouplingAndDisembark(t *testing.T) {
	w := NewWorld(testGuild, 3)
	landChain(w, "lowport", "farshore")
	addTerritory(w, "gullsea", model.TerrainSea)
	addTerritory(w, "deepsea", model.TerrainSea)
	w.AddAdjacency("lowport", "gullsea")
	w.AddAdjacency("gullsea", "deepsea")
	w.AddAdjacency("deepsea", "farshore")

	troops := addUnit(w, "u-army", "lowport", "alice", "")
	troops.Movement = 3
	carrier := addUnit(w, "u-fleet", "gullsea", "bob", "")
	carrier.Keywords = model.Keywords{model.KwNaval}
	carrier.Capacity = 10
	carrier.Movement = 3

	landOrder := unitOrder(t, w, "alice", []string{"u-army"}, &UnitOrderData{
		Action:             model.ActionTransport,
		Path:               []string{"lowport", "gullsea", "deepsea", "farshore"},
		CoastTerritory:     "gullsea",
		WaterPath:          []string{"gullsea", "deepsea"},
		DisembarkTerritory: "deepsea",
	})
	navalOrder := unitOrder(t, w, "bob", []string{"u-fleet"}, &UnitOrderData{
		Action: model.ActionNavalTransport,
		Path:   []string{"gullsea", "deepsea"},
	})

	landEvents := ResolvePhase(w, PhaseMovement, []*model.Order{landOrder})
	requireEvent(t, landEvents, model.EventUnitEmbarked)
	if d := decodeUnitData(t, landOrder); d.Status != MoveStatusTransported || d.CarrierUnitID != "u-fleet" {
		t.Fatalf("land order not coupled: status=%s carrier=%s", d.Status, d.CarrierUnitID)
	}
	if troops.CurrentTerritoryID != "gullsea" {
		t.Errorf("troops at %s, want gullsea after embarking", troops.CurrentTerritoryID)
	}

	navalEvents := ResolvePhase(w, PhaseNavalMovement, []*model.Order{navalOrder})
	requireEvent(t, navalEvents, model.EventUnitDisembarked)
	if troops.CurrentTerritoryID != "farshore" {
		t.Errorf("troops at %s, want farshore after disembarking", troops.CurrentTerritoryID)
	}
	if landOrder.Status != model.OrderSuccess {
		t.Errorf("land order status = %s, want SUCCESS", landOrder.Status)
	}
	if navalOrder.Status != model.OrderSuccess {
		t.Errorf("naval order status = %s, want SUCCESS", navalOrder.Status)
	}
}
