package wargame

import (
	"sort"

	"github.com/veldtgames/warcouncil/internal/model"
)

// resolveEncirclement flags units cut off from friendly-held land. The
// flag is consumed by the upkeep pass later in the same turn. Takes no
// orders; it derives everything from unit positions, territory control,
// and convoy coverage.
func (r *resolver) resolveEncirclement() {
	convoyed := r.convoyCoverage()

	unitIDs := make([]string, 0, len(r.w.Units))
	for id := range r.w.Units {
		unitIDs = append(unitIDs, id)
	}
	sort.Strings(unitIDs)

	for _, id := range unitIDs {
		u := r.w.Units[id]
		if u.Status != model.UnitActive || u.IsNaval() {
			continue
		}
		if u.Keywords.HasAny(model.KwInfiltrator, model.KwAerial, model.KwAerialTransport) {
			continue
		}
		terr := r.w.Territories[u.CurrentTerritoryID]
		if terr == nil {
			continue
		}
		// Units standing on friendly land are supplied by definition.
		if !model.IsWaterTerrain(terr.TerrainType) && r.w.FriendlyTerritory(terr, u.FactionID) {
			continue
		}
		if r.canReachFriendlyLand(u, convoyed[u.FactionID]) {
			continue
		}
		r.w.Encircled[u.UnitID] = true
		r.emit(model.EventUnitEncircled, model.EntityUnit, u.UnitID, Audience(map[string]any{
			"territory_id": u.CurrentTerritoryID,
		}, u.OwnerCharacterID, u.CommanderCharacterID))
	}
}

// convoyCoverage builds, per faction, the set of water territories
// covered by that faction's (or an active ally's) convoy orders. The set
// is computed once per phase.
func (r *resolver) convoyCoverage() map[string]map[string]bool {
	// Covered territories by the convoying unit's faction first.
	byFaction := make(map[string]map[string]bool)
	add := func(factionID, territoryID string) {
		if factionID == "" || territoryID == "" {
			return
		}
		if byFaction[factionID] == nil {
			byFaction[factionID] = make(map[string]bool)
		}
		byFaction[factionID][territoryID] = true
	}

	for _, o := range r.w.ActiveUnitOrders {
		if o.Status != model.OrderPending && o.Status != model.OrderOngoing {
			continue
		}
		data, err := DecodeUnitOrderData(o)
		if err != nil {
			continue
		}
		switch data.Action {
		case model.ActionNavalConvoy:
			for _, unitID := range o.UnitIDs {
				u := r.w.Units[unitID]
				if u == nil || u.Status != model.UnitActive {
					continue
				}
				for terrID := range r.w.NavalPositions[unitID] {
					add(u.FactionID, terrID)
				}
			}
		case model.ActionAerialConvoy:
			for _, unitID := range o.UnitIDs {
				u := r.w.Units[unitID]
				if u == nil || u.Status != model.UnitActive {
					continue
				}
				end := data.PathIndex
				if end >= len(data.Path) {
					end = len(data.Path) - 1
				}
				for _, terrID := range data.Path[:end+1] {
					add(u.FactionID, terrID)
				}
			}
		}
	}

	// A faction benefits from its own convoys and those of active allies.
	out := make(map[string]map[string]bool)
	factions := make([]string, 0, len(r.w.Factions))
	for id := range r.w.Factions {
		factions = append(factions, id)
	}
	sort.Strings(factions)
	for _, f := range factions {
		merged := make(map[string]bool)
		for owner, set := range byFaction {
			if owner == f || r.w.ActivelyAllied(owner, f) {
				for t := range set {
					merged[t] = true
				}
			}
		}
		if len(merged) > 0 {
			out[f] = merged
		}
	}
	// Factionless convoys only serve their own (empty) faction id.
	if set, ok := byFaction[""]; ok {
		out[""] = set
	}
	return out
}

// canReachFriendlyLand runs BFS from the unit's territory over land that
// is friendly or neutral to the unit's faction. Enemy-controlled land is
// impassable; water is traversable only where covered by a friendly
// convoy.
func (r *resolver) canReachFriendlyLand(u *model.Unit, convoyed map[string]bool) bool {
	start := u.CurrentTerritoryID
	visited := map[string]bool{start: true}
	queue := []string{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		terr := r.w.Territories[cur]
		if terr == nil {
			continue
		}
		if !model.IsWaterTerrain(terr.TerrainType) && r.w.FriendlyTerritory(terr, u.FactionID) {
			return true
		}

		for _, next := range r.w.Adjacent(cur) {
			if visited[next] {
				continue
			}
			nt := r.w.Territories[next]
			if nt == nil {
				continue
			}
			if model.IsWaterTerrain(nt.TerrainType) {
				if !convoyed[next] {
					continue
				}
			} else if r.w.EnemyTerritory(nt, u.FactionID) {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}
	return false
}
