package wargame

import (
	"sort"

	"github.com/veldtgames/warcouncil/internal/model"
)

// resolveNavalCombat fires one simultaneous round per contested water
// territory. Damage is accumulated across every territory first and
// applied once, so a fleet caught in several engagements takes the sum.
// Naval units never retreat.
func (r *resolver) resolveNavalCombat() {
	terrIDs := make([]string, 0, len(r.w.Territories))
	for id := range r.w.Territories {
		terrIDs = append(terrIDs, id)
	}
	sort.Strings(terrIDs)

	damage := make(map[string]int)
	type fought struct {
		territoryID string
		audience    []string
		unitIDs     []string
	}
	var engagements []fought

	for _, terrID := range terrIDs {
		terr := r.w.Territories[terrID]
		if !model.IsWaterTerrain(terr.TerrainType) {
			continue
		}
		var fleet []*model.Unit
		patrolling := false
		for _, u := range r.w.ActiveUnitsAt(terrID) {
			if !u.IsNaval() {
				continue
			}
			fleet = append(fleet, u)
			if _, action := r.w.UnitAction(u.UnitID); action == model.ActionNavalPatrol {
				patrolling = true
			}
		}
		if !patrolling || len(fleet) < 2 {
			continue
		}

		sides := r.groupSides(fleet)
		pairs := r.hostilePairs(terr, sides, true)
		if len(pairs) == 0 {
			continue
		}

		var unitIDs []string
		for _, p := range pairs {
			r.navalPairDamage(p.a, p.b, damage)
			unitIDs = append(unitIDs, p.a.unitIDs()...)
			unitIDs = append(unitIDs, p.b.unitIDs()...)
		}
		engagements = append(engagements, fought{
			territoryID: terrID,
			audience:    r.sidesAudience(sides...),
			unitIDs:     unitIDs,
		})
	}

	r.applyDamage(damage)

	for _, e := range engagements {
		r.emit(model.EventCombatEnded, model.EntityTerritory, e.territoryID, Audience(map[string]any{
			"naval":    true,
			"unit_ids": e.unitIDs,
		}, e.audience...))
	}
}

// navalPairDamage accumulates one pairing's damage. Submarines that
// would deal no damage drop out of the pairing entirely: they neither
// add attack nor take hits.
func (r *resolver) navalPairDamage(a, b *combatSide, damage map[string]int) {
	engagedA := navalEngaged(a, b)
	engagedB := navalEngaged(b, a)

	accumulate := func(attackers, defenders []*model.Unit) {
		atk, def := 0, 0
		spirit := false
		for _, u := range attackers {
			atk += u.Attack
			if u.Keywords.Has(model.KwSpirit) {
				spirit = true
			}
		}
		for _, u := range defenders {
			def += u.Defense
		}
		bonus := 0
		if spirit {
			bonus = 1
		}
		if atk > def {
			for _, u := range defenders {
				damage[u.UnitID] += 2 + bonus
			}
		} else if bonus > 0 {
			for _, u := range defenders {
				damage[u.UnitID] += bonus
			}
		}
	}
	accumulate(engagedA, engagedB)
	accumulate(engagedB, engagedA)
}

// navalEngaged returns the units of a side that take part against the
// given enemy. Submarines stay hidden unless the side's full attack
// already beats the enemy's full defense.
func navalEngaged(side, enemy *combatSide) []*model.Unit {
	units := side.active()
	if side.totalAttack() > enemy.totalDefense() {
		return units
	}
	var out []*model.Unit
	for _, u := range units {
		if u.Keywords.Has(model.KwSubmarine) {
			continue
		}
		out = append(out, u)
	}
	return out
}
