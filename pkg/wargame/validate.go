package wargame

import (
	"fmt"

	"github.com/veldtgames/warcouncil/internal/model"
)

// ValidationError rejects an order at submission time with a reason the
// handler can return verbatim.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func invalidf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ValidateSubmission checks an order against the current world before it
// is persisted. UNIT orders get their transport decomposition written
// back into the payload as a side effect.
func ValidateSubmission(w *World, o *model.Order) error {
	switch o.OrderType {
	case model.OrderTypeUnit:
		return validateUnitOrder(w, o)
	case model.OrderTypeJoinFaction:
		return validateJoinFaction(w, o)
	case model.OrderTypeLeaveFaction:
		return validateLeaveFaction(w, o)
	case model.OrderTypeKickFromFaction:
		return validateKick(w, o)
	case model.OrderTypeMakeAlliance, model.OrderTypeDissolveAlliance:
		return validateAllianceOrder(w, o)
	case model.OrderTypeDeclareWar:
		return validateDeclareWar(w, o)
	case model.OrderTypeAssignCommander:
		return validateAssignCommander(w, o)
	case model.OrderTypeAssignVictoryPoints:
		return validateAssignVictoryPoints(w, o)
	case model.OrderTypeResourceTransfer:
		return validateResourceTransfer(w, o)
	case model.OrderTypeCancelTransfer:
		return validateCancelTransfer(o)
	case model.OrderTypeMobilization:
		return validateMobilization(w, o)
	case model.OrderTypeConstruction:
		return validateConstruction(w, o)
	}
	return invalidf("unknown order type %q", o.OrderType)
}

func validateUnitOrder(w *World, o *model.Order) error {
	data, err := DecodeUnitOrderData(o)
	if err != nil {
		return invalidf("invalid order data: %v", err)
	}
	if len(o.UnitIDs) == 0 {
		return invalidf("unit order names no units")
	}
	if _, ok := Schedule(o.OrderType, data.Action); !ok {
		return invalidf("unknown unit action %q", data.Action)
	}

	units := make([]*model.Unit, 0, len(o.UnitIDs))
	for _, id := range o.UnitIDs {
		u := w.Units[id]
		if u == nil || u.Status != model.UnitActive {
			return invalidf("unit %s is not active", id)
		}
		if err := authorizeUnitCommand(w, u, o.CharacterID); err != nil {
			return err
		}
		if u.Keywords.Has(model.KwImmobile) {
			return invalidf("unit %s is immobile", id)
		}
		units = append(units, u)
	}
	for _, u := range units[1:] {
		if u.CurrentTerritoryID != units[0].CurrentTerritoryID {
			return invalidf("units are not co-located")
		}
	}

	if len(data.Path) < 2 {
		return invalidf("path must contain at least two territories")
	}
	if data.Path[0] != units[0].CurrentTerritoryID {
		return invalidf("path must start at the units' current territory %s", units[0].CurrentTerritoryID)
	}
	for i := 1; i < len(data.Path); i++ {
		if w.Territories[data.Path[i]] == nil {
			return invalidf("territory %s not found", data.Path[i])
		}
		if !adjacent(w, data.Path[i-1], data.Path[i]) {
			return invalidf("territories %s and %s are not adjacent", data.Path[i-1], data.Path[i])
		}
	}

	naval := false
	switch data.Action {
	case model.ActionNavalTransit, model.ActionNavalConvoy, model.ActionNavalPatrol, model.ActionNavalTransport:
		naval = true
	}
	if naval {
		err = validateNavalAction(w, units, data)
	} else {
		err = validateLandAction(w, units, data)
	}
	if err != nil {
		return err
	}
	// Transport decomposition and normalized fields persist with the
	// order.
	EncodeUnitOrderData(o, data)
	return nil
}

func adjacent(w *World, a, b string) bool {
	for _, n := range w.Adjacent(a) {
		if n == b {
			return true
		}
	}
	return false
}

// authorizeUnitCommand allows the owner, the commander, or a holder of
// COMMAND permission in the unit's faction.
func authorizeUnitCommand(w *World, u *model.Unit, characterID string) error {
	if u.OwnerCharacterID == characterID || u.CommanderCharacterID == characterID {
		return nil
	}
	if u.FactionID != "" && w.HasPermission(u.FactionID, characterID, model.PermCommand) {
		return nil
	}
	return invalidf("character %s may not command unit %s", characterID, u.UnitID)
}

func validateLandAction(w *World, units []*model.Unit, data *UnitOrderData) error {
	for _, u := range units {
		if u.IsNaval() {
			return invalidf("naval unit %s cannot take land action %s", u.UnitID, data.Action)
		}
	}

	if data.Action == model.ActionTransport {
		return decomposeTransportPath(w, data)
	}

	for _, terrID := range data.Path {
		if model.IsWaterTerrain(w.Territories[terrID].TerrainType) {
			return invalidf("territory %s is water; land units cannot enter", terrID)
		}
	}

	switch data.Action {
	case model.ActionTransit:
	case model.ActionPatrol:
		if err := validatePatrolPath(w, data); err != nil {
			return err
		}
	case model.ActionRaid, model.ActionCapture:
		for _, u := range units {
			if u.Keywords.HasAny(model.KwInfiltrator, model.KwAerial, model.KwAerialTransport) {
				return invalidf("unit %s cannot %s", u.UnitID, data.Action)
			}
		}
	case model.ActionSiege:
		final := w.Territories[data.Path[len(data.Path)-1]]
		if final.TerrainType != model.TerrainCity {
			return invalidf("siege target %s is not a city", final.TerritoryID)
		}
	case model.ActionAerialConvoy:
		for _, u := range units {
			if !u.Keywords.Has(model.KwAerialTransport) {
				return invalidf("unit %s lacks the aerial-transport keyword", u.UnitID)
			}
		}
		origin := w.Territories[data.Path[0]]
		if units[0].FactionID != "" && w.EnemyTerritory(origin, units[0].FactionID) {
			return invalidf("aerial convoy cannot originate in enemy territory %s", origin.TerritoryID)
		}
	case model.ActionAerialScout:
		for _, u := range units {
			if !u.Keywords.HasAny(model.KwAerial, model.KwAerialTransport) {
				return invalidf("unit %s lacks an aerial keyword", u.UnitID)
			}
		}
		minMove := units[0].Movement
		for _, u := range units[1:] {
			if u.Movement < minMove {
				minMove = u.Movement
			}
		}
		if len(data.Path)-1 > minMove {
			return invalidf("scout path exceeds the group's movement of %d", minMove)
		}
	default:
		return invalidf("action %s is not a land action", data.Action)
	}
	return nil
}

func validateNavalAction(w *World, units []*model.Unit, data *UnitOrderData) error {
	for _, u := range units {
		if !u.IsNaval() {
			return invalidf("unit %s is not naval", u.UnitID)
		}
	}
	for _, terrID := range data.Path {
		if !model.IsWaterTerrain(w.Territories[terrID].TerrainType) {
			return invalidf("territory %s is not water", terrID)
		}
	}
	switch data.Action {
	case model.ActionNavalPatrol:
		if err := validatePatrolPath(w, data); err != nil {
			return err
		}
	case model.ActionNavalTransport:
		hasCapacity := false
		for _, u := range units {
			if u.Capacity > 0 {
				hasCapacity = true
			}
		}
		if !hasCapacity {
			return invalidf("no unit in the group has transport capacity")
		}
	}
	return nil
}

// validatePatrolPath requires at least two distinct territories, a
// closable loop, and a speed cap of at least 1.
func validatePatrolPath(w *World, data *UnitOrderData) error {
	distinct := make(map[string]bool)
	for _, t := range data.Path {
		distinct[t] = true
	}
	if len(distinct) < 2 {
		return invalidf("patrol path needs at least two distinct territories")
	}
	if !adjacent(w, data.Path[len(data.Path)-1], data.Path[0]) {
		return invalidf("patrol path must loop: %s and %s are not adjacent",
			data.Path[len(data.Path)-1], data.Path[0])
	}
	if data.Speed < 1 {
		return invalidf("patrol speed must be at least 1")
	}
	return nil
}

// decomposeTransportPath splits a land-water-land path and records the
// coast, water segment, and disembark territory on the payload.
func decomposeTransportPath(w *World, data *UnitOrderData) error {
	type segment struct {
		water bool
		from  int
		to    int
	}
	var segments []segment
	for i, terrID := range data.Path {
		water := model.IsWaterTerrain(w.Territories[terrID].TerrainType)
		if len(segments) == 0 || segments[len(segments)-1].water != water {
			segments = append(segments, segment{water: water, from: i, to: i})
		} else {
			segments[len(segments)-1].to = i
		}
	}
	if len(segments) != 3 || segments[0].water || !segments[1].water || segments[2].water {
		return invalidf("transport path must be land, then water, then land")
	}
	// The coast is the first water territory: it is where the carrier
	// must sit to pick the group up.
	water := segments[1]
	data.CoastTerritory = data.Path[water.from]
	data.WaterPath = data.Path[water.from : water.to+1]
	data.DisembarkTerritory = data.Path[water.to]
	return nil
}

func validateJoinFaction(w *World, o *model.Order) error {
	data, err := DecodeJoinFactionData(o)
	if err != nil {
		return invalidf("invalid order data: %v", err)
	}
	if w.Factions[data.FactionID] == nil {
		return invalidf("faction %s not found", data.FactionID)
	}
	switch data.SubmittedBy {
	case "character":
		if w.IsMember(data.FactionID, o.CharacterID) {
			return invalidf("character %s is already a member of faction %s", o.CharacterID, data.FactionID)
		}
	case "leader":
		if !w.HasPermission(data.FactionID, o.CharacterID, model.PermMembership) {
			return invalidf("character %s may not invite on behalf of faction %s", o.CharacterID, data.FactionID)
		}
		if data.TargetCharacterID == "" {
			return invalidf("leader-side join requires a target character")
		}
		if w.Characters[data.TargetCharacterID] == nil {
			return invalidf("character %s not found", data.TargetCharacterID)
		}
		if w.IsMember(data.FactionID, data.TargetCharacterID) {
			return invalidf("character %s is already a member of faction %s", data.TargetCharacterID, data.FactionID)
		}
	default:
		return invalidf("submitted_by must be %q or %q", "character", "leader")
	}
	return nil
}

func validateLeaveFaction(w *World, o *model.Order) error {
	data, err := DecodeLeaveFactionData(o)
	if err != nil {
		return invalidf("invalid order data: %v", err)
	}
	if !w.IsMember(data.FactionID, o.CharacterID) {
		return invalidf("character %s is not a member of faction %s", o.CharacterID, data.FactionID)
	}
	if w.IsLeader(data.FactionID, o.CharacterID) {
		return invalidf("the faction leader cannot leave")
	}
	return nil
}

func validateKick(w *World, o *model.Order) error {
	data, err := DecodeKickData(o)
	if err != nil {
		return invalidf("invalid order data: %v", err)
	}
	if !w.HasPermission(data.FactionID, o.CharacterID, model.PermMembership) {
		return invalidf("character %s lacks MEMBERSHIP permission in faction %s", o.CharacterID, data.FactionID)
	}
	if data.TargetCharacterID == o.CharacterID {
		return invalidf("cannot kick yourself")
	}
	if w.IsLeader(data.FactionID, data.TargetCharacterID) {
		return invalidf("cannot kick the faction leader")
	}
	if !w.IsMember(data.FactionID, data.TargetCharacterID) {
		return invalidf("character %s is not a member of faction %s", data.TargetCharacterID, data.FactionID)
	}
	return nil
}

func validateAllianceOrder(w *World, o *model.Order) error {
	data, err := DecodeAllianceData(o)
	if err != nil {
		return invalidf("invalid order data: %v", err)
	}
	if !w.IsLeader(data.FactionID, o.CharacterID) {
		return invalidf("only the faction leader may manage alliances")
	}
	if w.Factions[data.TargetFactionID] == nil {
		return invalidf("faction %s not found", data.TargetFactionID)
	}
	if data.FactionID == data.TargetFactionID {
		return invalidf("a faction cannot ally with itself")
	}
	return nil
}

func validateDeclareWar(w *World, o *model.Order) error {
	data, err := DecodeDeclareWarData(o)
	if err != nil {
		return invalidf("invalid order data: %v", err)
	}
	if !w.IsLeader(data.FactionID, o.CharacterID) {
		return invalidf("only the faction leader may declare war")
	}
	if data.Objective == "" {
		return invalidf("war declaration requires an objective")
	}
	if len(data.TargetFactionIDs) == 0 {
		return invalidf("war declaration requires at least one target")
	}
	for _, target := range data.TargetFactionIDs {
		if w.Factions[target] == nil {
			return invalidf("faction %s not found", target)
		}
		if target == data.FactionID {
			return invalidf("a faction cannot declare war on itself")
		}
	}
	return nil
}

func validateAssignCommander(w *World, o *model.Order) error {
	data, err := DecodeAssignCommanderData(o)
	if err != nil {
		return invalidf("invalid order data: %v", err)
	}
	if len(o.UnitIDs) != 1 {
		return invalidf("assign commander takes exactly one unit")
	}
	u := w.Units[o.UnitIDs[0]]
	if u == nil || u.Status != model.UnitActive {
		return invalidf("unit %s is not active", o.UnitIDs[0])
	}
	if u.OwnerCharacterID != o.CharacterID {
		return invalidf("only the unit owner may assign a commander")
	}
	if w.Characters[data.NewCommanderID] == nil {
		return invalidf("character %s not found", data.NewCommanderID)
	}
	return nil
}

func validateAssignVictoryPoints(w *World, o *model.Order) error {
	data, err := DecodeAssignVictoryPointsData(o)
	if err != nil {
		return invalidf("invalid order data: %v", err)
	}
	terr := w.Territories[data.TerritoryID]
	if terr == nil {
		return invalidf("territory %s not found", data.TerritoryID)
	}
	if terr.VictoryPoints <= 0 {
		return invalidf("territory %s has no victory points to assign", data.TerritoryID)
	}
	if w.Characters[data.TargetCharacterID] == nil {
		return invalidf("character %s not found", data.TargetCharacterID)
	}
	controls := terr.ControllerCharacterID == o.CharacterID
	if !controls {
		faction := w.ControllerFactionOf(terr)
		controls = faction != "" && w.HasPermission(faction, o.CharacterID, model.PermFinancial)
	}
	if !controls {
		return invalidf("character %s does not control territory %s", o.CharacterID, data.TerritoryID)
	}
	return nil
}

func validateResourceTransfer(w *World, o *model.Order) error {
	data, err := DecodeTransferData(o)
	if err != nil {
		return invalidf("invalid order data: %v", err)
	}
	if data.Amounts.AnyNegative() {
		return invalidf("transfer amounts must be non-negative")
	}
	if data.Amounts.IsZero() {
		return invalidf("transfer moves nothing")
	}
	if data.Term != nil && *data.Term < 1 {
		return invalidf("transfer term must be at least 1")
	}
	if data.SenderFactionID != "" && !w.HasPermission(data.SenderFactionID, o.CharacterID, model.PermFinancial) {
		return invalidf("character %s lacks FINANCIAL permission in faction %s", o.CharacterID, data.SenderFactionID)
	}
	if data.RecipientKind == "faction" {
		if w.Factions[data.RecipientID] == nil {
			return invalidf("faction %s not found", data.RecipientID)
		}
	} else if w.Characters[data.RecipientID] == nil {
		return invalidf("character %s not found", data.RecipientID)
	}
	return nil
}

func validateCancelTransfer(o *model.Order) error {
	data, err := DecodeCancelTransferData(o)
	if err != nil {
		return invalidf("invalid order data: %v", err)
	}
	if data.TargetOrderID == "" {
		return invalidf("cancel transfer names no order")
	}
	return nil
}

func validateMobilization(w *World, o *model.Order) error {
	data, err := DecodeMobilizationData(o)
	if err != nil {
		return invalidf("invalid order data: %v", err)
	}
	ut := w.UnitTypes[data.UnitTypeID]
	if ut == nil {
		return invalidf("unit type %s not found", data.UnitTypeID)
	}
	if !w.NationAllows(ut.Nation, o.CharacterID) {
		return invalidf("unit type %s is restricted to nation %s", data.UnitTypeID, ut.Nation)
	}
	return validateTerritoryControl(w, data.TerritoryID, o.CharacterID, model.PermCommand)
}

func validateConstruction(w *World, o *model.Order) error {
	data, err := DecodeConstructionData(o)
	if err != nil {
		return invalidf("invalid order data: %v", err)
	}
	bt := w.BuildingTypes[data.BuildingTypeID]
	if bt == nil {
		return invalidf("building type %s not found", data.BuildingTypeID)
	}
	if !w.NationAllows(bt.Nation, o.CharacterID) {
		return invalidf("building type %s is restricted to nation %s", data.BuildingTypeID, bt.Nation)
	}
	return validateTerritoryControl(w, data.TerritoryID, o.CharacterID, model.PermConstruction)
}

func validateTerritoryControl(w *World, territoryID, characterID, perm string) error {
	terr := w.Territories[territoryID]
	if terr == nil {
		return invalidf("territory %s not found", territoryID)
	}
	if terr.ControllerCharacterID == characterID {
		return nil
	}
	faction := w.ControllerFactionOf(terr)
	if faction != "" && w.HasPermission(faction, characterID, perm) {
		return nil
	}
	return invalidf("character %s does not control territory %s", characterID, territoryID)
}
