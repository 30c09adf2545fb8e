package wargame

import (
	"testing"

	"github.com/veldtgames/warcouncil/internal/model"
)

func TestMobilizationSpendsAndCapsMovement(t *testing.T) {
	w := NewWorld(testGuild, 4)
	w.MaxMovementStat = 2
	addTerritory(w, "ashvale", model.TerrainPlains).ControllerCharacterID = "alice"
	addCharacter(w, "alice", "redhand")
	w.PlayerLedger("alice").Amounts = model.Resources{Ore: 5}
	w.UnitTypes["ut-rider"] = &model.UnitType{
		GuildID: testGuild, UnitTypeID: "ut-rider", Name: "Rider",
		Movement: 5, Attack: 3, Defense: 2, Size: 1, MaxOrganization: 8,
		Cost: model.Resources{Ore: 3},
	}

	o := makeOrder(t, w, model.OrderTypeMobilization, "alice", nil, &MobilizationData{
		UnitTypeID: "ut-rider", TerritoryID: "ashvale",
	})
	events := ResolvePhase(w, PhaseConstruction, []*model.Order{o})

	if o.Status != model.OrderSuccess {
		t.Fatalf("order status = %s, want SUCCESS", o.Status)
	}
	unitID, _ := o.ResultData["unit_id"].(string)
	u := w.Units[unitID]
	if u == nil {
		t.Fatal("mobilized unit not in world")
	}
	if u.Movement != 2 {
		t.Errorf("movement = %d, want 2 (capped)", u.Movement)
	}
	if u.FactionID != "redhand" {
		t.Errorf("faction = %s, want redhand (owner's represented faction)", u.FactionID)
	}
	if u.Organization != 8 || u.MaxOrganization != 8 {
		t.Errorf("organization = %d/%d, want 8/8", u.Organization, u.MaxOrganization)
	}
	if got := w.PlayerResources["alice"].Amounts.Ore; got != 2 {
		t.Errorf("alice ore = %d, want 2", got)
	}
	requireEvent(t, events, model.EventUnitMobilized)
}

func TestMobilizationNeedsFullCost(t *testing.T) {
	w := NewWorld(testGuild, 4)
	addTerritory(w, "ashvale", model.TerrainPlains).ControllerCharacterID = "alice"
	addCharacter(w, "alice", "")
	w.PlayerLedger("alice").Amounts = model.Resources{Ore: 2}
	w.UnitTypes["ut-rider"] = &model.UnitType{
		GuildID: testGuild, UnitTypeID: "ut-rider", Cost: model.Resources{Ore: 3},
	}

	o := makeOrder(t, w, model.OrderTypeMobilization, "alice", nil, &MobilizationData{
		UnitTypeID: "ut-rider", TerritoryID: "ashvale",
	})
	events := ResolvePhase(w, PhaseConstruction, []*model.Order{o})

	if o.Status != model.OrderFailed {
		t.Errorf("order status = %s, want FAILED", o.Status)
	}
	if got := w.PlayerResources["alice"].Amounts.Ore; got != 2 {
		t.Errorf("alice ore = %d, want 2 (no partial spend)", got)
	}
	requireEvent(t, events, model.EventOrderFailed)
}

func TestNavalUnitsRequireWater(t *testing.T) {
	w := NewWorld(testGuild, 4)
	addTerritory(w, "ashvale", model.TerrainPlains).ControllerCharacterID = "alice"
	addCharacter(w, "alice", "")
	w.UnitTypes["ut-sloop"] = &model.UnitType{
		GuildID: testGuild, UnitTypeID: "ut-sloop",
		Keywords: model.Keywords{model.KwNaval},
	}

	o := makeOrder(t, w, model.OrderTypeMobilization, "alice", nil, &MobilizationData{
		UnitTypeID: "ut-sloop", TerritoryID: "ashvale",
	})
	ResolvePhase(w, PhaseConstruction, []*model.Order{o})

	if o.Status != model.OrderFailed {
		t.Errorf("naval mobilization on land status = %s, want FAILED", o.Status)
	}
}

func TestMobilizationEnforcesNationRestriction(t *testing.T) {
	w := NewWorld(testGuild, 4)
	addTerritory(w, "ashvale", model.TerrainPlains).ControllerCharacterID = "alice"
	addFaction(w, "redhand", "alice").Nation = "veldt"
	addCharacter(w, "alice", "redhand")
	w.PlayerLedger("alice").Amounts = model.Resources{Ore: 10}
	w.UnitTypes["ut-lancer"] = &model.UnitType{
		GuildID: testGuild, UnitTypeID: "ut-lancer", Nation: "veldt",
		Movement: 2, MaxOrganization: 5, Cost: model.Resources{Ore: 3},
	}
	w.UnitTypes["ut-tideguard"] = &model.UnitType{
		GuildID: testGuild, UnitTypeID: "ut-tideguard", Nation: "tides",
		Cost: model.Resources{Ore: 3},
	}

	match := makeOrder(t, w, model.OrderTypeMobilization, "alice", nil, &MobilizationData{
		UnitTypeID: "ut-lancer", TerritoryID: "ashvale",
	})
	if err := ValidateSubmission(w, match); err != nil {
		t.Errorf("matching nation rejected: %v", err)
	}

	mismatch := makeOrder(t, w, model.OrderTypeMobilization, "alice", nil, &MobilizationData{
		UnitTypeID: "ut-tideguard", TerritoryID: "ashvale",
	})
	requireInvalid(t, ValidateSubmission(w, mismatch), "restricted to nation")

	// Representation dropped between submission and the construction
	// phase: the restriction is checked again at execution.
	w.Characters["alice"].RepresentedFactionID = ""
	events := ResolvePhase(w, PhaseConstruction, []*model.Order{match})
	if match.Status != model.OrderFailed {
		t.Errorf("order status = %s, want FAILED after losing representation", match.Status)
	}
	requireEvent(t, events, model.EventOrderFailed)
	if got := w.PlayerResources["alice"].Amounts.Ore; got != 10 {
		t.Errorf("alice ore = %d, want 10 (nothing spent)", got)
	}
}

func TestConstructionEnforcesNationRestriction(t *testing.T) {
	w := NewWorld(testGuild, 4)
	addTerritory(w, "ashvale", model.TerrainPlains).ControllerCharacterID = "alice"
	addCharacter(w, "alice", "")
	w.BuildingTypes["bt-bathhouse"] = &model.BuildingType{
		GuildID: testGuild, BuildingTypeID: "bt-bathhouse", Nation: "tides",
		MaxDurability: 5, Cost: model.Resources{Lumber: 2},
	}

	o := makeOrder(t, w, model.OrderTypeConstruction, "alice", nil, &ConstructionData{
		BuildingTypeID: "bt-bathhouse", TerritoryID: "ashvale",
	})
	requireInvalid(t, ValidateSubmission(w, o), "restricted to nation")
}

func TestConstructionRejectsDuplicateType(t *testing.T) {
	w := NewWorld(testGuild, 4)
	addTerritory(w, "ashvale", model.TerrainPlains).ControllerCharacterID = "alice"
	addCharacter(w, "alice", "")
	w.PlayerLedger("alice").Amounts = model.Resources{Lumber: 10}
	w.BuildingTypes["bt-mill"] = &model.BuildingType{
		GuildID: testGuild, BuildingTypeID: "bt-mill", MaxDurability: 5,
		Cost: model.Resources{Lumber: 2},
	}
	w.Buildings["b-old"] = &model.Building{
		GuildID: testGuild, BuildingID: "b-old", BuildingTypeID: "bt-mill",
		TerritoryID: "ashvale", Durability: 3, Status: model.BuildingActive,
	}

	o := makeOrder(t, w, model.OrderTypeConstruction, "alice", nil, &ConstructionData{
		BuildingTypeID: "bt-mill", TerritoryID: "ashvale",
	})
	ResolvePhase(w, PhaseConstruction, []*model.Order{o})

	if o.Status != model.OrderFailed {
		t.Errorf("duplicate construction status = %s, want FAILED", o.Status)
	}
	if got := w.PlayerResources["alice"].Amounts.Lumber; got != 10 {
		t.Errorf("alice lumber = %d, want 10", got)
	}
}

func TestSpiritualConstructionRepairsNexus(t *testing.T) {
	w := NewWorld(testGuild, 4)
	addTerritory(w, "grove", model.TerrainForest).ControllerCharacterID = "alice"
	addCharacter(w, "alice", "")
	w.PlayerLedger("alice").Amounts = model.Resources{Lumber: 5}
	w.BuildingTypes["bt-shrine"] = &model.BuildingType{
		GuildID: testGuild, BuildingTypeID: "bt-shrine", MaxDurability: 4,
		Cost: model.Resources{Lumber: 2}, Keywords: model.Keywords{model.KwSpiritual},
	}
	w.Nexuses["heartwood"] = &model.SpiritNexus{
		GuildID: testGuild, Identifier: "heartwood", TerritoryID: "grove", Health: 3,
	}

	o := makeOrder(t, w, model.OrderTypeConstruction, "alice", nil, &ConstructionData{
		BuildingTypeID: "bt-shrine", TerritoryID: "grove",
	})
	events := ResolvePhase(w, PhaseConstruction, []*model.Order{o})

	if o.Status != model.OrderSuccess {
		t.Fatalf("order status = %s, want SUCCESS", o.Status)
	}
	requireEvent(t, events, model.EventBuildingConstructed)
	if got := w.Nexuses["heartwood"].Health; got != 4 {
		t.Errorf("nexus health = %d, want 4", got)
	}
	requireEvent(t, events, model.EventNexusRepaired)
	buildingID, _ := o.ResultData["building_id"].(string)
	b := w.Buildings[buildingID]
	if b == nil || b.Durability != 4 || b.BuiltTurn != 4 {
		t.Errorf("building = %+v, want durability 4 built turn 4", b)
	}
}
