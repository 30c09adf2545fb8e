package wargame

import (
	"strings"
	"testing"

	"github.com/veldtgames/warcouncil/internal/model"
)

func requireInvalid(t *testing.T, err error, fragment string) {
	t.Helper()
	if err == nil {
		t.Fatalf("validation passed, want error containing %q", fragment)
	}
	var ve *ValidationError
	ok := false
	if ve, ok = err.(*ValidationError); !ok {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
	if !strings.Contains(ve.Reason, fragment) {
		t.Fatalf("error = %q, want it to mention %q", ve.Reason, fragment)
	}
}

func TestUnitCommandAuthorization(t *testing.T) {
	w := NewWorld(testGuild, 3)
	landChain(w, "aldfell", "bruma")
	addCharacter(w, "owner", "redhand")
	addCharacter(w, "stranger", "")
	addCharacter(w, "captain", "")
	addCharacter(w, "marshal", "redhand")
	addFaction(w, "redhand", "owner")
	u := addUnit(w, "u-1", "aldfell", "owner", "redhand")
	u.CommanderCharacterID = "captain"
	w.Permissions = append(w.Permissions, &model.FactionPermission{
		GuildID: testGuild, FactionID: "redhand", CharacterID: "marshal",
		PermissionType: model.PermCommand,
	})

	order := func(characterID string) *model.Order {
		return makeOrder(t, w, model.OrderTypeUnit, characterID, []string{"u-1"},
			&UnitOrderData{Action: model.ActionTransit, Path: []string{"aldfell", "bruma"}})
	}

	requireInvalid(t, ValidateSubmission(w, order("stranger")), "may not command")
	for _, id := range []string{"owner", "captain", "marshal"} {
		if err := ValidateSubmission(w, order(id)); err != nil {
			t.Errorf("%s rejected: %v", id, err)
		}
	}
}

func TestImmobileUnitsTakeNoOrders(t *testing.T) {
	w := NewWorld(testGuild, 3)
	landChain(w, "aldfell", "bruma")
	addCharacter(w, "owner", "")
	u := addUnit(w, "u-1", "aldfell", "owner", "")
	u.Keywords = model.Keywords{model.KwImmobile}

	o := makeOrder(t, w, model.OrderTypeUnit, "owner", []string{"u-1"},
		&UnitOrderData{Action: model.ActionTransit, Path: []string{"aldfell", "bruma"}})
	requireInvalid(t, ValidateSubmission(w, o), "immobile")
}

func TestPathMustBeAdjacent(t *testing.T) {
	w := NewWorld(testGuild, 3)
	landChain(w, "aldfell", "bruma")
	addTerritory(w, "carth", model.TerrainPlains) // not linked to bruma
	addCharacter(w, "owner", "")
	addUnit(w, "u-1", "aldfell", "owner", "")

	o := makeOrder(t, w, model.OrderTypeUnit, "owner", []string{"u-1"},
		&UnitOrderData{Action: model.ActionTransit, Path: []string{"aldfell", "bruma", "carth"}})
	requireInvalid(t, ValidateSubmission(w, o), "not adjacent")
}

func TestPatrolMustLoopAndHavePositiveSpeed(t *testing.T) {
	w := NewWorld(testGuild, 3)
	landChain(w, "aldfell", "bruma", "carth")
	addCharacter(w, "owner", "")
	addUnit(w, "u-1", "aldfell", "owner", "")

	// carth is two steps from aldfell; the loop cannot close.
	open := makeOrder(t, w, model.OrderTypeUnit, "owner", []string{"u-1"},
		&UnitOrderData{Action: model.ActionPatrol, Path: []string{"aldfell", "bruma", "carth"}, Speed: 1})
	requireInvalid(t, ValidateSubmission(w, open), "must loop")

	for _, speed := range []int{-1, 0} {
		slow := makeOrder(t, w, model.OrderTypeUnit, "owner", []string{"u-1"},
			&UnitOrderData{Action: model.ActionPatrol, Path: []string{"aldfell", "bruma"}, Speed: speed})
		requireInvalid(t, ValidateSubmission(w, slow), "patrol speed must be at least 1")
	}

	ok := makeOrder(t, w, model.OrderTypeUnit, "owner", []string{"u-1"},
		&UnitOrderData{Action: model.ActionPatrol, Path: []string{"aldfell", "bruma"}, Speed: 1})
	if err := ValidateSubmission(w, ok); err != nil {
		t.Errorf("closed loop with speed 1 rejected: %v", err)
	}
}

func TestSiegeTargetMustBeCity(t *testing.T) {
	w := NewWorld(testGuild, 3)
	landChain(w, "aldfell", "bruma")
	addCharacter(w, "owner", "")
	addUnit(w, "u-1", "aldfell", "owner", "")

	o := makeOrder(t, w, model.OrderTypeUnit, "owner", []string{"u-1"},
		&UnitOrderData{Action: model.ActionSiege, Path: []string{"aldfell", "bruma"}})
	requireInvalid(t, ValidateSubmission(w, o), "not a city")

	w.Territories["bruma"].TerrainType = model.TerrainCity
	if err := ValidateSubmission(w, o); err != nil {
		t.Errorf("siege against a city rejected: %v", err)
	}
}

func TestTransportDecompositionPersistsOnOrder(t *testing.T) {
	w := NewWorld(testGuild, 3)
	addTerritory(w, "lowport", model.TerrainPlains)
	addTerritory(w, "gullsea", model.TerrainSea)
	addTerritory(w, "deepsea", model.TerrainSea)
	addTerritory(w, "farshore", model.TerrainPlains)
	w.AddAdjacency("lowport", "gullsea")
	w.AddAdjacency("gullsea", "deepsea")
	w.AddAdjacency("deepsea", "farshore")
	addCharacter(w, "owner", "")
	addUnit(w, "u-1", "lowport", "owner", "")

	o := makeOrder(t, w, model.OrderTypeUnit, "owner", []string{"u-1"},
		&UnitOrderData{Action: model.ActionTransport,
			Path: []string{"lowport", "gullsea", "deepsea", "farshore"}})
	if err := ValidateSubmission(w, o); err != nil {
		t.Fatalf("transport rejected: %v", err)
	}

	data := decodeUnitData(t, o)
	if data.CoastTerritory != "gullsea" {
		t.Errorf("coast = %s, want gullsea (first water territory)", data.CoastTerritory)
	}
	if len(data.WaterPath) != 2 || data.WaterPath[0] != "gullsea" || data.WaterPath[1] != "deepsea" {
		t.Errorf("water path = %v, want [gullsea deepsea]", data.WaterPath)
	}
	if data.DisembarkTerritory != "deepsea" {
		t.Errorf("disembark = %s, want deepsea (last water territory)", data.DisembarkTerritory)
	}

	// All-land and land-water-land-water paths are both malformed.
	dry := makeOrder(t, w, model.OrderTypeUnit, "owner", []string{"u-1"},
		&UnitOrderData{Action: model.ActionTransport, Path: []string{"lowport", "gullsea"}})
	requireInvalid(t, ValidateSubmission(w, dry), "land, then water, then land")
}

func TestTransferAmountsMustBePositive(t *testing.T) {
	w := NewWorld(testGuild, 3)
	addCharacter(w, "alice", "")
	addCharacter(w, "bob", "")

	empty := makeOrder(t, w, model.OrderTypeResourceTransfer, "alice", nil, &TransferData{
		RecipientKind: "character", RecipientID: "bob",
	})
	requireInvalid(t, ValidateSubmission(w, empty), "transfer moves nothing")

	negative := makeOrder(t, w, model.OrderTypeResourceTransfer, "alice", nil, &TransferData{
		RecipientKind: "character", RecipientID: "bob",
		Amounts: model.Resources{Ore: -1},
	})
	requireInvalid(t, ValidateSubmission(w, negative), "non-negative")

	term := 0
	instant := makeOrder(t, w, model.OrderTypeResourceTransfer, "alice", nil, &TransferData{
		RecipientKind: "character", RecipientID: "bob",
		Amounts: model.Resources{Ore: 1}, Term: &term,
	})
	requireInvalid(t, ValidateSubmission(w, instant), "at least 1")
}
