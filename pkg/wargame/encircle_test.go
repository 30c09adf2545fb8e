package wargame

import (
	"testing"

	"github.com/veldtgames/warcouncil/internal/model"
)

func TestCutOffUnitIsEncircled(t *testing.T) {
	w := NewWorld(testGuild, 5)
	landChain(w, "pocket", "enemyland")
	addFaction(w, "redhand", "alice")
	addFaction(w, "greycloak", "bob")
	addWar(w, "the pocket", []string{"redhand"}, []string{"greycloak"})
	w.Territories["pocket"].ControllerFactionID = "greycloak"
	w.Territories["enemyland"].ControllerFactionID = "greycloak"

	u := addUnit(w, "u-1", "pocket", "alice", "redhand")

	events := ResolvePhase(w, PhaseEncirclement, nil)

	if !w.Encircled["u-1"] {
		t.Error("unit surrounded by enemy land not flagged encircled")
	}
	requireEvent(t, events, model.EventUnitEncircled)
	_ = u
}

func TestConvoyKeepsSupplyOpen(t *testing.T) {
	w := NewWorld(testGuild, 5)
	landChain(w, "pocket")
	addTerritory(w, "gullsea", model.TerrainSea)
	addTerritory(w, "home", model.TerrainPlains)
	w.AddAdjacency("pocket", "gullsea")
	w.AddAdjacency("gullsea", "home")
	addFaction(w, "redhand", "alice")
	addFaction(w, "greycloak", "bob")
	addWar(w, "the pocket", []string{"redhand"}, []string{"greycloak"})
	w.Territories["pocket"].ControllerFactionID = "greycloak"
	w.Territories["home"].ControllerFactionID = "redhand"

	addUnit(w, "u-1", "pocket", "alice", "redhand")
	escort := addUnit(w, "u-escort", "gullsea", "alice", "redhand")
	escort.Keywords = model.Keywords{model.KwNaval}
	w.NavalPositions["u-escort"] = map[string]bool{"gullsea": true}
	o := unitOrder(t, w, "alice", []string{"u-escort"}, &UnitOrderData{
		Action: model.ActionNavalConvoy,
		Path:   []string{"gullsea"},
	})
	o.Status = model.OrderOngoing

	events := ResolvePhase(w, PhaseEncirclement, nil)

	if w.Encircled["u-1"] {
		t.Error("unit with a convoyed sea lane home flagged encircled")
	}
	requireNoEvent(t, events, model.EventUnitEncircled)
}

func TestNeutralGroundCountsAsPassable(t *testing.T) {
	w := NewWorld(testGuild, 5)
	landChain(w, "front", "noman", "home")
	addFaction(w, "redhand", "alice")
	addFaction(w, "greycloak", "bob")
	addWar(w, "the front", []string{"redhand"}, []string{"greycloak"})
	w.Territories["front"].ControllerFactionID = "greycloak"
	w.Territories["home"].ControllerFactionID = "redhand"

	addUnit(w, "u-1", "front", "alice", "redhand")

	events := ResolvePhase(w, PhaseEncirclement, nil)

	if w.Encircled["u-1"] {
		t.Error("unit with a neutral corridor home flagged encircled")
	}
	requireNoEvent(t, events, model.EventUnitEncircled)
}

func TestAerialUnitsExemptFromEncirclement(t *testing.T) {
	w := NewWorld(testGuild, 5)
	addTerritory(w, "pocket", model.TerrainPlains)
	addFaction(w, "redhand", "alice")
	addFaction(w, "greycloak", "bob")
	addWar(w, "the pocket", []string{"redhand"}, []string{"greycloak"})
	w.Territories["pocket"].ControllerFactionID = "greycloak"

	u := addUnit(w, "u-wing", "pocket", "alice", "redhand")
	u.Keywords = model.Keywords{model.KwAerial}

	events := ResolvePhase(w, PhaseEncirclement, nil)

	if w.Encircled["u-wing"] {
		t.Error("aerial unit flagged encircled")
	}
	if len(events) != 0 {
		t.Fatalf("got %d events, want 0", len(events))
	}
}
