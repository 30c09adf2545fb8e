package wargame

import (
	"sort"

	"github.com/veldtgames/warcouncil/internal/model"
)

// combatSide is a transitive-closure group of allied factions fighting
// as one in a single territory. Unaffiliated units each form their own
// side.
type combatSide struct {
	key      string
	factions map[string]bool
	units    []*model.Unit
	// retreated marks the side gone from this territory's combat.
	retreated bool
}

func (s *combatSide) active() []*model.Unit {
	var out []*model.Unit
	for _, u := range s.units {
		if u.Status == model.UnitActive {
			out = append(out, u)
		}
	}
	return out
}

func (s *combatSide) totalAttack() int {
	total := 0
	for _, u := range s.active() {
		total += u.Attack
	}
	return total
}

func (s *combatSide) totalDefense() int {
	total := 0
	for _, u := range s.active() {
		total += u.Defense
	}
	return total
}

func (s *combatSide) hasKeyword(kw string) bool {
	for _, u := range s.active() {
		if u.Keywords.Has(kw) {
			return true
		}
	}
	return false
}

func (s *combatSide) unitIDs() []string {
	var ids []string
	for _, u := range s.active() {
		ids = append(ids, u.UnitID)
	}
	return ids
}

func (s *combatSide) alive() bool {
	return !s.retreated && len(s.active()) > 0
}

func combatExempt(u *model.Unit) bool {
	return u.Keywords.HasAny(model.KwInfiltrator, model.KwAerial, model.KwAerialTransport)
}

// resolveCombat runs land combat per territory: side grouping,
// simultaneous damage rounds, retreat, then capture and siege.
func (r *resolver) resolveCombat() {
	terrIDs := make([]string, 0, len(r.w.Territories))
	for id := range r.w.Territories {
		terrIDs = append(terrIDs, id)
	}
	sort.Strings(terrIDs)

	for _, terrID := range terrIDs {
		terr := r.w.Territories[terrID]
		if model.IsWaterTerrain(terr.TerrainType) {
			continue
		}
		var combatants []*model.Unit
		for _, u := range r.w.ActiveUnitsAt(terrID) {
			if u.IsNaval() || combatExempt(u) {
				continue
			}
			combatants = append(combatants, u)
		}
		if len(combatants) < 2 {
			// No fight, but an unopposed capture or siege still settles.
			r.resolveCapture(terr, r.groupSides(combatants))
			r.resolveSiege(terr, combatants)
			continue
		}
		sides := r.groupSides(combatants)
		r.fightTerritory(terr, sides)
		r.resolveSiege(terr, nil)
	}
}

// groupSides unions faction groups over the ACTIVE alliance relation.
// The side key is the smallest faction id in the union, or the unit id
// for unaffiliated units.
func (r *resolver) groupSides(units []*model.Unit) []*combatSide {
	parent := make(map[string]string)
	var find func(x string) string
	find = func(x string) string {
		if parent[x] == "" || parent[x] == x {
			parent[x] = x
			return x
		}
		root := find(parent[x])
		parent[x] = root
		return root
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		if rb < ra {
			ra, rb = rb, ra
		}
		parent[rb] = ra
	}

	factions := make(map[string]bool)
	for _, u := range units {
		if u.FactionID != "" {
			factions[u.FactionID] = true
			find(u.FactionID)
		}
	}
	for f1 := range factions {
		for f2 := range factions {
			if f1 < f2 && r.w.ActivelyAllied(f1, f2) {
				union(f1, f2)
			}
		}
	}

	byKey := make(map[string]*combatSide)
	var keys []string
	addUnit := func(key string, u *model.Unit) {
		s := byKey[key]
		if s == nil {
			s = &combatSide{key: key, factions: make(map[string]bool)}
			byKey[key] = s
			keys = append(keys, key)
		}
		if u.FactionID != "" {
			s.factions[u.FactionID] = true
		}
		s.units = append(s.units, u)
	}
	for _, u := range units {
		if u.FactionID != "" {
			addUnit("f:"+find(u.FactionID), u)
		} else {
			addUnit("u:"+u.UnitID, u)
		}
	}

	sort.Strings(keys)
	out := make([]*combatSide, 0, len(keys))
	for _, k := range keys {
		out = append(out, byKey[k])
	}
	return out
}

// sidesAllied reports whether any faction of one side holds an active
// alliance with any faction of the other. Sides built from the same
// union never reach here allied, but a factionless side is checked too.
func (r *resolver) sidesAllied(a, b *combatSide) bool {
	for f1 := range a.factions {
		for f2 := range b.factions {
			if r.w.ActivelyAllied(f1, f2) {
				return true
			}
		}
	}
	return false
}

func conflictingActions(a, b string) bool {
	if a != model.ActionCapture && a != model.ActionRaid {
		return false
	}
	if b != model.ActionCapture && b != model.ActionRaid {
		return false
	}
	return true
}

// sideAction returns the capture/raid action a side holds on this
// territory, if any.
func (r *resolver) sideAction(s *combatSide, territoryID string) string {
	for _, u := range s.active() {
		order, action := r.w.UnitAction(u.UnitID)
		if order == nil {
			continue
		}
		if action == model.ActionCapture || action == model.ActionRaid {
			data, err := DecodeUnitOrderData(order)
			if err != nil {
				continue
			}
			if len(data.Path) > 0 && data.Path[len(data.Path)-1] == territoryID {
				return action
			}
		}
	}
	return ""
}

// sidesHostile evaluates the hostility relation for a pair of sides in
// a territory. Action conflicts are reported through the second return
// so the caller can emit COMBAT_ACTION_CONFLICT once.
func (r *resolver) sidesHostile(a, b *combatSide, territoryID string) (hostile, actionConflict bool) {
	if r.sidesAllied(a, b) {
		return false, false
	}
	for f1 := range a.factions {
		for f2 := range b.factions {
			if r.w.AtWar(f1, f2) {
				return true, false
			}
		}
	}
	if a.hasKeyword(model.KwHostile) || b.hasKeyword(model.KwHostile) {
		return true, false
	}
	if conflictingActions(r.sideAction(a, territoryID), r.sideAction(b, territoryID)) {
		return true, true
	}
	return false, false
}

type sidePair struct{ a, b *combatSide }

func (r *resolver) hostilePairs(terr *model.Territory, sides []*combatSide, emitConflicts bool) []sidePair {
	var pairs []sidePair
	for i := 0; i < len(sides); i++ {
		for j := i + 1; j < len(sides); j++ {
			a, b := sides[i], sides[j]
			if !a.alive() || !b.alive() {
				continue
			}
			hostile, conflict := r.sidesHostile(a, b, terr.TerritoryID)
			if !hostile {
				continue
			}
			if conflict && emitConflicts {
				r.emit(model.EventCombatActionConflict, model.EntityTerritory, terr.TerritoryID, Audience(map[string]any{
					"side_a_units": a.unitIDs(),
					"side_b_units": b.unitIDs(),
				}, r.sidesAudience(a, b)...))
			}
			pairs = append(pairs, sidePair{a, b})
		}
	}
	return pairs
}

func (r *resolver) sidesAudience(sides ...*combatSide) []string {
	var ids []string
	for _, s := range sides {
		for _, u := range s.units {
			ids = append(ids, u.OwnerCharacterID, u.CommanderCharacterID)
		}
	}
	return ids
}

// fightTerritory runs damage rounds and retreats for one territory.
func (r *resolver) fightTerritory(terr *model.Territory, sides []*combatSide) {
	pairs := r.hostilePairs(terr, sides, true)
	if len(pairs) == 0 {
		r.resolveCapture(terr, sides)
		return
	}

	rounds := 0
	for rounds < MaxCombatRounds {
		pairs = r.hostilePairs(terr, sides, false)
		if len(pairs) == 0 {
			break
		}
		rounds++

		damage := make(map[string]int)
		accumulate := func(attacker, defender *combatSide) {
			bonus := 0
			if attacker.hasKeyword(model.KwSpirit) {
				bonus = 1
			}
			if attacker.totalAttack() > defender.totalDefense() {
				for _, u := range defender.active() {
					damage[u.UnitID] += 2 + bonus
				}
			} else if bonus > 0 {
				for _, u := range defender.active() {
					damage[u.UnitID] += bonus
				}
			}
		}
		for _, p := range pairs {
			accumulate(p.a, p.b)
			accumulate(p.b, p.a)
		}

		r.applyDamage(damage)
		r.emit(model.EventCombatRound, model.EntityTerritory, terr.TerritoryID, Audience(map[string]any{
			"round":  rounds,
			"damage": damage,
		}, r.sidesAudience(sides...)...))

		r.retreatRound(terr, sides)
	}

	if rounds == MaxCombatRounds && len(r.hostilePairs(terr, sides, false)) > 0 {
		r.emit(model.EventCombatMaxRounds, model.EntityTerritory, terr.TerritoryID,
			Audience(map[string]any{"rounds": rounds}, r.sidesAudience(sides...)...))
	}
	if rounds > 0 {
		r.emit(model.EventCombatEnded, model.EntityTerritory, terr.TerritoryID,
			Audience(map[string]any{"rounds": rounds}, r.sidesAudience(sides...)...))
	}

	r.resolveCapture(terr, sides)
}

// applyDamage applies accumulated organization damage atomically and
// disbands units that drop to zero or below.
func (r *resolver) applyDamage(damage map[string]int) {
	ids := make([]string, 0, len(damage))
	for id := range damage {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		u := r.w.Units[id]
		if u == nil || u.Status != model.UnitActive {
			continue
		}
		u.Organization -= damage[id]
		r.w.Changes.TouchUnit(id)
		if u.Organization <= 0 {
			r.disbandUnit(u, "combat")
		}
	}
}

// disbandUnit marks a unit DISBANDED and, for naval carriers, destroys
// any cargo recorded on its transport order.
func (r *resolver) disbandUnit(u *model.Unit, cause string) {
	u.Status = model.UnitDisbanded
	r.w.Changes.TouchUnit(u.UnitID)
	r.emit(model.EventUnitDisbanded, model.EntityUnit, u.UnitID, Audience(map[string]any{
		"cause": cause,
	}, u.OwnerCharacterID, u.CommanderCharacterID))

	if u.Capacity == 0 || !u.IsNaval() {
		return
	}
	order, action := r.w.UnitAction(u.UnitID)
	if order == nil || action != model.ActionNavalTransport {
		return
	}
	data, err := DecodeUnitOrderData(order)
	if err != nil || len(data.CarryingUnits) == 0 {
		return
	}
	r.emit(model.EventTransportCargoLost, model.EntityUnit, u.UnitID, Audience(map[string]any{
		"cargo_unit_ids": data.CarryingUnits,
	}, u.OwnerCharacterID, u.CommanderCharacterID))
	for _, cargoID := range data.CarryingUnits {
		cargo := r.w.Units[cargoID]
		if cargo == nil || cargo.Status != model.UnitActive {
			continue
		}
		r.disbandUnit(cargo, "transport destroyed")
	}
	data.CarryingUnits = nil
	EncodeUnitOrderData(order, data)
	r.markFailed(order, "carrier destroyed")
	r.w.Changes.OrderUpdates = append(r.w.Changes.OrderUpdates, order)
}

// retreatRound makes the weaker side of each surviving hostile pair fall
// back. Ties go to the territory controller. A side containing an
// immobile unit neither forces nor performs retreat.
func (r *resolver) retreatRound(terr *model.Territory, sides []*combatSide) {
	controller := r.w.ControllerFactionOf(terr)
	for _, p := range r.hostilePairs(terr, sides, false) {
		if p.a.hasKeyword(model.KwImmobile) || p.b.hasKeyword(model.KwImmobile) {
			continue
		}
		atkA, atkB := p.a.totalAttack(), p.b.totalAttack()
		var loser *combatSide
		switch {
		case atkA < atkB:
			loser = p.a
		case atkB < atkA:
			loser = p.b
		default:
			// Tie: the controller's side stands its ground; with no
			// controller present neither side moves.
			if controller != "" {
				if p.a.factions[controller] {
					loser = p.b
				} else if p.b.factions[controller] {
					loser = p.a
				}
			}
		}
		if loser == nil {
			continue
		}
		r.retreatSide(terr, loser)
	}
}

// retreatSide moves every active unit of the side to a fallback
// territory, chosen by: previous step of the side's own movement path,
// then nearest adjacent friendly hostile-free land, then any adjacent
// hostile-free land preferring friendly control and alphabetical order.
func (r *resolver) retreatSide(terr *model.Territory, side *combatSide) {
	dest := r.retreatDestination(terr, side)
	if dest == "" {
		return
	}
	for _, u := range side.active() {
		u.CurrentTerritoryID = dest
		r.w.Changes.TouchUnit(u.UnitID)
	}
	side.retreated = true
	r.emit(model.EventUnitRetreated, model.EntityTerritory, terr.TerritoryID, Audience(map[string]any{
		"unit_ids": side.unitIDs(),
		"from":     terr.TerritoryID,
		"to":       dest,
	}, r.sidesAudience(side)...))
}

func (r *resolver) retreatDestination(terr *model.Territory, side *combatSide) string {
	hostileFree := func(territoryID string) bool {
		for _, occ := range r.w.ActiveUnitsAt(territoryID) {
			for _, u := range side.active() {
				if r.w.UnitsHostile(u, occ) {
					return false
				}
			}
		}
		return true
	}

	// Previous step on the side's own movement path.
	for _, u := range side.active() {
		order, _ := r.w.UnitAction(u.UnitID)
		if order == nil {
			continue
		}
		data, err := DecodeUnitOrderData(order)
		if err != nil || data.PathIndex == 0 || data.PathIndex >= len(data.Path) {
			continue
		}
		if data.Path[data.PathIndex] != terr.TerritoryID {
			continue
		}
		prev := data.Path[data.PathIndex-1]
		pt := r.w.Territories[prev]
		if pt != nil && !model.IsWaterTerrain(pt.TerrainType) && hostileFree(prev) {
			return prev
		}
	}

	sideFaction := ""
	for f := range side.factions {
		if sideFaction == "" || f < sideFaction {
			sideFaction = f
		}
	}

	var friendly, other []string
	for _, adj := range r.w.Adjacent(terr.TerritoryID) {
		at := r.w.Territories[adj]
		if at == nil || model.IsWaterTerrain(at.TerrainType) || !hostileFree(adj) {
			continue
		}
		if sideFaction != "" && r.w.FriendlyTerritory(at, sideFaction) {
			friendly = append(friendly, adj)
		} else {
			other = append(other, adj)
		}
	}
	if len(friendly) > 0 {
		return friendly[0]
	}
	if len(other) > 0 {
		return other[0]
	}
	return ""
}

// resolveCapture transfers control of a non-city territory to the
// strongest surviving side holding a capture order, then chips every
// building by one durability.
func (r *resolver) resolveCapture(terr *model.Territory, sides []*combatSide) {
	if terr.TerrainType == model.TerrainCity {
		return
	}

	type claim struct {
		side  *combatSide
		units []*model.Unit
	}
	var claims []claim
	for _, s := range sides {
		if !s.alive() {
			continue
		}
		var capturing []*model.Unit
		for _, u := range s.active() {
			order, action := r.w.UnitAction(u.UnitID)
			if order == nil || action != model.ActionCapture {
				continue
			}
			data, err := DecodeUnitOrderData(order)
			if err != nil {
				continue
			}
			if len(data.Path) > 0 && data.Path[len(data.Path)-1] == terr.TerritoryID &&
				u.CurrentTerritoryID == terr.TerritoryID {
				capturing = append(capturing, u)
			}
		}
		if len(capturing) > 0 {
			claims = append(claims, claim{side: s, units: capturing})
		}
	}
	if len(claims) == 0 {
		return
	}

	sort.Slice(claims, func(i, j int) bool {
		a, b := claims[i], claims[j]
		if a.side.totalAttack() != b.side.totalAttack() {
			return a.side.totalAttack() > b.side.totalAttack()
		}
		if len(a.side.active()) != len(b.side.active()) {
			return len(a.side.active()) > len(b.side.active())
		}
		if a.side.totalDefense() != b.side.totalDefense() {
			return a.side.totalDefense() > b.side.totalDefense()
		}
		return smallestUnitID(a.units) < smallestUnitID(b.units)
	})
	winner := claims[0]

	rep := winner.units[0]
	for _, u := range winner.units {
		if u.UnitID < rep.UnitID {
			rep = u
		}
	}
	if rep.FactionID == "" {
		terr.ControllerCharacterID = rep.OwnerCharacterID
		terr.ControllerFactionID = ""
	} else {
		terr.ControllerFactionID = rep.FactionID
		terr.ControllerCharacterID = ""
	}
	r.w.Changes.TouchTerritory(terr.TerritoryID)

	for _, b := range r.w.ActiveBuildingsAt(terr.TerritoryID) {
		b.Durability--
		r.w.Changes.TouchBuilding(b.BuildingID)
	}

	r.emit(model.EventTerritoryCaptured, model.EntityTerritory, terr.TerritoryID, Audience(map[string]any{
		"new_controller_faction":   terr.ControllerFactionID,
		"new_controller_character": terr.ControllerCharacterID,
		"capturing_units":          winner.side.unitIDs(),
	}, r.sidesAudience(sides...)...))

	// The fulfilled capture orders settle.
	for _, u := range winner.units {
		if order, action := r.w.UnitAction(u.UnitID); order != nil && action == model.ActionCapture {
			r.markSuccess(order)
			r.w.Changes.OrderUpdates = append(r.w.Changes.OrderUpdates, order)
		}
	}
}

func smallestUnitID(units []*model.Unit) string {
	min := ""
	for _, u := range units {
		if min == "" || u.UnitID < min {
			min = u.UnitID
		}
	}
	return min
}

// resolveSiege lets besieging units grind down city buildings. Cities
// never change hands in combat; a siege that out-attacks the city's
// defense (base siege defense plus 2 per fortification) knocks one
// durability off every active building.
func (r *resolver) resolveSiege(terr *model.Territory, _ []*model.Unit) {
	if terr.TerrainType != model.TerrainCity {
		return
	}
	var besiegers []*model.Unit
	totalSiege := 0
	for _, u := range r.w.ActiveUnitsAt(terr.TerritoryID) {
		order, action := r.w.UnitAction(u.UnitID)
		if order == nil || action != model.ActionSiege {
			continue
		}
		data, err := DecodeUnitOrderData(order)
		if err != nil {
			continue
		}
		if len(data.Path) > 0 && data.Path[len(data.Path)-1] == terr.TerritoryID &&
			u.CurrentTerritoryID == terr.TerritoryID {
			besiegers = append(besiegers, u)
			totalSiege += u.SiegeAttack
		}
	}
	if len(besiegers) == 0 {
		return
	}

	defense := terr.SiegeDefense
	for _, b := range r.w.ActiveBuildingsAt(terr.TerritoryID) {
		if b.Keywords.Has(model.KwFortification) {
			defense += 2
		}
	}
	if totalSiege <= defense {
		return
	}

	var unitIDs []string
	var audience []string
	for _, u := range besiegers {
		unitIDs = append(unitIDs, u.UnitID)
		audience = append(audience, u.OwnerCharacterID, u.CommanderCharacterID)
	}
	for _, b := range r.w.ActiveBuildingsAt(terr.TerritoryID) {
		b.Durability--
		r.w.Changes.TouchBuilding(b.BuildingID)
	}
	r.emit(model.EventSiegeDamage, model.EntityTerritory, terr.TerritoryID, Audience(map[string]any{
		"besieging_units": unitIDs,
		"siege_attack":    totalSiege,
		"siege_defense":   defense,
	}, audience...))
}
