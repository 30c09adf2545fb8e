package wargame

import (
	"testing"

	"github.com/veldtgames/warcouncil/internal/model"
)

func addNavalUnit(w *World, id, territoryID, owner, factionID string) *model.Unit {
	u := addUnit(w, id, territoryID, owner, factionID)
	u.Keywords = model.Keywords{model.KwNaval}
	return u
}

func TestNavalPatrolTriggersCombat(t *testing.T) {
	w := NewWorld(testGuild, 5)
	addTerritory(w, "gullsea", model.TerrainSea)
	addTerritory(w, "deepsea", model.TerrainSea)
	w.AddAdjacency("gullsea", "deepsea")
	addFaction(w, "redhand", "alice")
	addFaction(w, "greycloak", "bob")
	addWar(w, "the straits", []string{"redhand"}, []string{"greycloak"})

	patrol := addNavalUnit(w, "u-patrol", "gullsea", "alice", "redhand")
	patrol.Attack, patrol.Defense = 4, 2
	intruder := addNavalUnit(w, "u-intruder", "gullsea", "bob", "greycloak")
	intruder.Attack, intruder.Defense = 1, 1
	intruder.Organization = 3

	o := unitOrder(t, w, "alice", []string{"u-patrol"}, &UnitOrderData{
		Action: model.ActionNavalPatrol,
		Path:   []string{"gullsea", "deepsea"},
	})
	o.Status = model.OrderOngoing

	events := ResolvePhase(w, PhaseNavalCombat, nil)

	if intruder.Organization != 1 {
		t.Errorf("intruder organization = %d, want 1 (took 2 damage)", intruder.Organization)
	}
	if patrol.Organization != 10 {
		t.Errorf("patrol organization = %d, want 10", patrol.Organization)
	}
	ev := requireEvent(t, events, model.EventCombatEnded)
	if ev.EventData["naval"] != true {
		t.Error("naval engagement not flagged naval")
	}
	// One round only; fleets never retreat or loop.
	requireNoEvent(t, events, model.EventUnitRetreated)
}

func TestNoPatrolNoNavalCombat(t *testing.T) {
	w := NewWorld(testGuild, 5)
	addTerritory(w, "gullsea", model.TerrainSea)
	addFaction(w, "redhand", "alice")
	addFaction(w, "greycloak", "bob")
	addWar(w, "the straits", []string{"redhand"}, []string{"greycloak"})
	addNavalUnit(w, "u-1", "gullsea", "alice", "redhand")
	addNavalUnit(w, "u-2", "gullsea", "bob", "greycloak")

	events := ResolvePhase(w, PhaseNavalCombat, nil)
	if len(events) != 0 {
		t.Fatalf("got %d events without a patrol present, want 0", len(events))
	}
}

func TestSubmarineStaysHidden(t *testing.T) {
	w := NewWorld(testGuild, 5)
	addTerritory(w, "gullsea", model.TerrainSea)
	addFaction(w, "redhand", "alice")
	addFaction(w, "greycloak", "bob")
	addWar(w, "the straits", []string{"redhand"}, []string{"greycloak"})

	sub := addNavalUnit(w, "u-sub", "gullsea", "alice", "redhand")
	sub.Keywords = model.Keywords{model.KwNaval, model.KwSubmarine}
	sub.Attack, sub.Defense = 2, 1
	hunter := addNavalUnit(w, "u-hunter", "gullsea", "bob", "greycloak")
	hunter.Attack, hunter.Defense = 2, 3

	o := unitOrder(t, w, "alice", []string{"u-sub"}, &UnitOrderData{
		Action: model.ActionNavalPatrol,
		Path:   []string{"gullsea", "gullsea"},
	})
	o.Status = model.OrderOngoing

	events := ResolvePhase(w, PhaseNavalCombat, nil)

	// The submarine cannot out-attack the hunter's defense, so it stays
	// submerged: it neither deals nor takes damage.
	if sub.Organization != 10 || hunter.Organization != 10 {
		t.Errorf("organization = %d/%d, want 10/10", sub.Organization, hunter.Organization)
	}
	requireEvent(t, events, model.EventCombatEnded)
}

func TestDamageAccumulatesAcrossTerritories(t *testing.T) {
	w := NewWorld(testGuild, 5)
	addTerritory(w, "gullsea", model.TerrainSea)
	addTerritory(w, "deepsea", model.TerrainSea)
	addFaction(w, "redhand", "alice")
	addFaction(w, "greycloak", "bob")
	addWar(w, "the straits", []string{"redhand"}, []string{"greycloak"})

	// A convoy stretched over two seas is caught by a patrol in each.
	convoy := addNavalUnit(w, "u-convoy", "gullsea", "bob", "greycloak")
	convoy.Attack, convoy.Defense = 0, 1
	convoy.Organization = 5
	w.NavalPositions["u-convoy"] = map[string]bool{"gullsea": true, "deepsea": true}

	p1 := addNavalUnit(w, "u-pat1", "gullsea", "alice", "redhand")
	p1.Attack = 4
	p2 := addNavalUnit(w, "u-pat2", "deepsea", "alice", "redhand")
	p2.Attack = 4
	for _, id := range []string{"u-pat1", "u-pat2"} {
		o := unitOrder(t, w, "alice", []string{id}, &UnitOrderData{
			Action: model.ActionNavalPatrol,
			Path:   []string{"gullsea", "deepsea"},
		})
		o.Status = model.OrderOngoing
	}

	ResolvePhase(w, PhaseNavalCombat, nil)

	if convoy.Organization != 1 {
		t.Errorf("convoy organization = %d, want 1 (2 damage per engagement)", convoy.Organization)
	}
}

func TestSunkCarrierDrownsCargo(t *testing.T) {
	w := NewWorld(testGuild, 5)
	addTerritory(w, "gullsea", model.TerrainSea)
	addFaction(w, "redhand", "alice")
	addFaction(w, "greycloak", "bob")
	addWar(w, "the straits", []string{"redhand"}, []string{"greycloak"})

	carrier := addNavalUnit(w, "u-carrier", "gullsea", "bob", "greycloak")
	carrier.Capacity = 10
	carrier.Attack, carrier.Defense = 0, 1
	carrier.Organization = 2
	cargo := addUnit(w, "u-cargo", "gullsea", "bob", "greycloak")

	carry := unitOrder(t, w, "bob", []string{"u-carrier"}, &UnitOrderData{
		Action:        model.ActionNavalTransport,
		Path:          []string{"gullsea"},
		CarryingUnits: []string{"u-cargo"},
	})
	carry.Status = model.OrderOngoing

	raider := addNavalUnit(w, "u-raider", "gullsea", "alice", "redhand")
	raider.Attack = 4
	o := unitOrder(t, w, "alice", []string{"u-raider"}, &UnitOrderData{
		Action: model.ActionNavalPatrol,
		Path:   []string{"gullsea", "gullsea"},
	})
	o.Status = model.OrderOngoing

	events := ResolvePhase(w, PhaseNavalCombat, nil)

	if carrier.Status != model.UnitDisbanded {
		t.Errorf("carrier status = %s, want DISBANDED", carrier.Status)
	}
	if cargo.Status != model.UnitDisbanded {
		t.Errorf("cargo status = %s, want DISBANDED", cargo.Status)
	}
	requireEvent(t, events, model.EventTransportCargoLost)
	if carry.Status != model.OrderFailed {
		t.Errorf("transport order status = %s, want FAILED", carry.Status)
	}
}
