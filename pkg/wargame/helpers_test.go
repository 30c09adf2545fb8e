package wargame

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/veldtgames/warcouncil/internal/model"
)

const testGuild int64 = 42

var submitSeq int

// addTerritory registers a territory and returns it for further tweaks.
func addTerritory(w *World, id, terrain string) *model.Territory {
	t := &model.Territory{
		GuildID:     testGuild,
		TerritoryID: id,
		Name:        id,
		TerrainType: terrain,
	}
	w.Territories[id] = t
	return t
}

// landChain adds plains territories connected in a line.
func landChain(w *World, ids ...string) {
	for i, id := range ids {
		if w.Territories[id] == nil {
			addTerritory(w, id, model.TerrainPlains)
		}
		if i > 0 {
			w.AddAdjacency(ids[i-1], id)
		}
	}
}

// addUnit places an ACTIVE land unit with sensible defaults.
func addUnit(w *World, id, territoryID, owner, factionID string) *model.Unit {
	u := &model.Unit{
		GuildID:            testGuild,
		UnitID:             id,
		Name:               id,
		CurrentTerritoryID: territoryID,
		OwnerCharacterID:   owner,
		FactionID:          factionID,
		Movement:           2,
		Attack:             2,
		Defense:            2,
		Size:               1,
		Organization:       10,
		MaxOrganization:    10,
		Status:             model.UnitActive,
	}
	w.Units[id] = u
	return u
}

func addCharacter(w *World, id, factionID string) *model.Character {
	c := &model.Character{
		GuildID:              testGuild,
		Identifier:           id,
		Name:                 id,
		RepresentedFactionID: factionID,
	}
	w.Characters[id] = c
	return c
}

func addFaction(w *World, id, leader string) *model.Faction {
	f := &model.Faction{
		GuildID:           testGuild,
		FactionID:         id,
		Name:              id,
		LeaderCharacterID: leader,
	}
	w.Factions[id] = f
	return f
}

// addWar puts two faction groups on opposite sides of a new war.
func addWar(w *World, objective string, sideA, sideB []string) *model.War {
	war := &model.War{
		GuildID:   testGuild,
		WarID:     uuid.NewString(),
		Objective: objective,
	}
	w.Wars[war.WarID] = war
	for _, f := range sideA {
		w.WarParticipants = append(w.WarParticipants, &model.WarParticipant{
			GuildID: testGuild, WarID: war.WarID, FactionID: f, Side: model.SideA,
		})
	}
	for _, f := range sideB {
		w.WarParticipants = append(w.WarParticipants, &model.WarParticipant{
			GuildID: testGuild, WarID: war.WarID, FactionID: f, Side: model.SideB,
		})
	}
	return war
}

func addAlliance(w *World, f1, f2, status string) *model.Alliance {
	a, b := CanonicalPair(f1, f2)
	al := &model.Alliance{GuildID: testGuild, FactionAID: a, FactionBID: b, Status: status}
	w.Alliances = append(w.Alliances, al)
	return al
}

// makeOrder builds a PENDING order with its payload encoded and the
// phase routing applied. Submission times are strictly increasing.
func makeOrder(t *testing.T, w *World, orderType, characterID string, unitIDs []string, data any) *model.Order {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal order data: %v", err)
	}
	submitSeq++
	o := &model.Order{
		GuildID:     testGuild,
		OrderID:     fmt.Sprintf("order-%04d", submitSeq),
		OrderType:   orderType,
		UnitIDs:     unitIDs,
		CharacterID: characterID,
		TurnNumber:  w.Turn,
		Status:      model.OrderPending,
		Data:        raw,
		SubmittedAt: time.Unix(int64(1700000000+submitSeq), 0),
	}
	action := ""
	if orderType == model.OrderTypeUnit {
		var d UnitOrderData
		if err := json.Unmarshal(raw, &d); err != nil {
			t.Fatalf("unmarshal unit order data: %v", err)
		}
		action = d.Action
	}
	if entry, ok := Schedule(orderType, action); ok {
		o.Phase = string(entry.Phase)
		o.Priority = entry.Priority
	}
	return o
}

// unitOrder builds a UNIT order and registers it as active so combat and
// encirclement can read its action.
func unitOrder(t *testing.T, w *World, characterID string, unitIDs []string, data *UnitOrderData) *model.Order {
	t.Helper()
	o := makeOrder(t, w, model.OrderTypeUnit, characterID, unitIDs, data)
	w.ActiveUnitOrders = append(w.ActiveUnitOrders, o)
	return o
}

func eventsOfType(events []*model.Event, eventType string) []*model.Event {
	var out []*model.Event
	for _, e := range events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

// requireEvent fails the test unless exactly one event of the type was
// emitted, and returns it.
func requireEvent(t *testing.T, events []*model.Event, eventType string) *model.Event {
	t.Helper()
	matches := eventsOfType(events, eventType)
	if len(matches) != 1 {
		t.Fatalf("got %d %s events, want 1", len(matches), eventType)
	}
	return matches[0]
}

func requireNoEvent(t *testing.T, events []*model.Event, eventType string) {
	t.Helper()
	if n := len(eventsOfType(events, eventType)); n > 0 {
		t.Fatalf("got %d unexpected %s events", n, eventType)
	}
}

func decodeUnitData(t *testing.T, o *model.Order) *UnitOrderData {
	t.Helper()
	d, err := DecodeUnitOrderData(o)
	if err != nil {
		t.Fatalf("decode unit order data: %v", err)
	}
	return d
}
