package wargame

import (
	"github.com/google/uuid"

	"github.com/veldtgames/warcouncil/internal/model"
)

// resolveConstruction raises new units and erects buildings.
// Mobilization carries the lower priority, so fresh units exist before
// buildings of the same turn settle.
func (r *resolver) resolveConstruction(orders []*model.Order) {
	for _, o := range orders {
		o := o
		switch o.OrderType {
		case model.OrderTypeMobilization:
			r.runOrder(o, func() error { return r.execMobilization(o) })
		case model.OrderTypeConstruction:
			r.runOrder(o, func() error { return r.execConstruction(o) })
		default:
			r.markFailed(o, "order type not handled in construction phase")
		}
	}
}

// constructionPayer authorizes spending at a territory and returns the
// ledger the cost comes out of. Character control pays from the
// character; faction control requires the named permission and pays from
// the faction treasury.
func (r *resolver) constructionPayer(t *model.Territory, characterID, perm string) (*model.ResourceLedger, string, bool, error) {
	if t.ControllerCharacterID == characterID && characterID != "" {
		return r.w.PlayerLedger(characterID), characterID, false, nil
	}
	faction := r.w.ControllerFactionOf(t)
	if faction != "" && r.w.HasPermission(faction, characterID, perm) {
		return r.w.FactionLedger(faction), faction, true, nil
	}
	return nil, "", false, execErrorf("character %s does not control territory %s", characterID, t.TerritoryID)
}

func (r *resolver) execMobilization(o *model.Order) error {
	data, err := DecodeMobilizationData(o)
	if err != nil {
		return err
	}
	ut := r.w.UnitTypes[data.UnitTypeID]
	if ut == nil {
		return execErrorf("unit type %s not found", data.UnitTypeID)
	}
	// Representation can change between submission and execution.
	if !r.w.NationAllows(ut.Nation, o.CharacterID) {
		return execErrorf("unit type %s is restricted to nation %s", data.UnitTypeID, ut.Nation)
	}
	terr := r.w.Territories[data.TerritoryID]
	if terr == nil {
		return execErrorf("territory %s not found", data.TerritoryID)
	}
	if ut.Keywords.Has(model.KwNaval) != model.IsWaterTerrain(terr.TerrainType) {
		return execErrorf("unit type %s cannot be raised on %s terrain", data.UnitTypeID, terr.TerrainType)
	}

	ledger, ownerID, faction, err := r.constructionPayer(terr, o.CharacterID, model.PermCommand)
	if err != nil {
		return err
	}
	if !ledger.Amounts.CoversAll(ut.Cost) {
		return &ExecError{Reason: "insufficient resources for mobilization"}
	}
	ledger.Amounts = ledger.Amounts.Sub(ut.Cost)
	r.touchLedger(ownerID, faction)

	movement := ut.Movement
	if r.w.MaxMovementStat > 0 && movement > r.w.MaxMovementStat {
		movement = r.w.MaxMovementStat
	}
	name := data.UnitName
	if name == "" {
		name = ut.Name
	}
	factionID := ""
	if c := r.w.Characters[o.CharacterID]; c != nil {
		factionID = c.RepresentedFactionID
	}
	u := &model.Unit{
		GuildID:            r.w.GuildID,
		UnitID:             uuid.NewString(),
		Name:               name,
		UnitType:           ut.UnitTypeID,
		CurrentTerritoryID: terr.TerritoryID,
		OwnerCharacterID:   o.CharacterID,
		FactionID:          factionID,
		Movement:           movement,
		Attack:             ut.Attack,
		Defense:            ut.Defense,
		SiegeAttack:        ut.SiegeAttack,
		SiegeDefense:       ut.SiegeDefense,
		Size:               ut.Size,
		Capacity:           ut.Capacity,
		Organization:       ut.MaxOrganization,
		MaxOrganization:    ut.MaxOrganization,
		Status:             model.UnitActive,
		Upkeep:             ut.Upkeep,
		Keywords:           ut.Keywords,
		CreatedTurn:        r.w.Turn,
	}
	r.w.Units[u.UnitID] = u
	r.w.Changes.TouchUnit(u.UnitID)

	o.SetResult("unit_id", u.UnitID)
	r.markSuccess(o)
	r.emit(model.EventUnitMobilized, model.EntityUnit, u.UnitID, Audience(map[string]any{
		"unit_type_id": ut.UnitTypeID,
		"territory_id": terr.TerritoryID,
	}, o.CharacterID))
	return nil
}

func (r *resolver) execConstruction(o *model.Order) error {
	data, err := DecodeConstructionData(o)
	if err != nil {
		return err
	}
	bt := r.w.BuildingTypes[data.BuildingTypeID]
	if bt == nil {
		return execErrorf("building type %s not found", data.BuildingTypeID)
	}
	if !r.w.NationAllows(bt.Nation, o.CharacterID) {
		return execErrorf("building type %s is restricted to nation %s", data.BuildingTypeID, bt.Nation)
	}
	terr := r.w.Territories[data.TerritoryID]
	if terr == nil {
		return execErrorf("territory %s not found", data.TerritoryID)
	}
	if model.IsWaterTerrain(terr.TerrainType) {
		return execErrorf("cannot build on %s terrain", terr.TerrainType)
	}
	if bt.Keywords.Has(model.KwFortification) && terr.TerrainType != model.TerrainCity {
		return execErrorf("fortifications can only be built in cities")
	}
	for _, b := range r.w.ActiveBuildingsAt(terr.TerritoryID) {
		if b.BuildingTypeID == bt.BuildingTypeID {
			return execErrorf("territory %s already has an active %s", terr.TerritoryID, bt.BuildingTypeID)
		}
	}

	ledger, ownerID, faction, err := r.constructionPayer(terr, o.CharacterID, model.PermConstruction)
	if err != nil {
		return err
	}
	if !ledger.Amounts.CoversAll(bt.Cost) {
		return &ExecError{Reason: "insufficient resources for construction"}
	}
	ledger.Amounts = ledger.Amounts.Sub(bt.Cost)
	r.touchLedger(ownerID, faction)

	b := &model.Building{
		GuildID:        r.w.GuildID,
		BuildingID:     uuid.NewString(),
		BuildingTypeID: bt.BuildingTypeID,
		TerritoryID:    terr.TerritoryID,
		Durability:     bt.MaxDurability,
		Status:         model.BuildingActive,
		Upkeep:         bt.Upkeep,
		Keywords:       bt.Keywords,
		BuiltTurn:      r.w.Turn,
	}
	r.w.Buildings[b.BuildingID] = b
	r.w.Changes.TouchBuilding(b.BuildingID)

	o.SetResult("building_id", b.BuildingID)
	r.markSuccess(o)
	r.emit(model.EventBuildingConstructed, model.EntityBuilding, b.BuildingID, Audience(map[string]any{
		"building_type_id": bt.BuildingTypeID,
		"territory_id":     terr.TerritoryID,
	}, o.CharacterID))

	if bt.Keywords.Has(model.KwIndustrial) {
		r.mutateNexus(terr.TerritoryID, -1)
	}
	if bt.Keywords.Has(model.KwSpiritual) {
		r.mutateNexus(terr.TerritoryID, 1)
	}
	return nil
}
