package wargame

import (
	"github.com/veldtgames/warcouncil/internal/model"
)

// resolveVictory drips victory points from territory pools to assigned
// characters, one point per turn while the order stays ONGOING.
func (r *resolver) resolveVictory(orders []*model.Order) {
	for _, o := range orders {
		o := o
		if o.OrderType != model.OrderTypeAssignVictoryPoints {
			r.markFailed(o, "order type not handled in victory phase")
			continue
		}
		r.runOrder(o, func() error { return r.execAssignVictoryPoints(o) })
	}
}

func (r *resolver) execAssignVictoryPoints(o *model.Order) error {
	data, err := DecodeAssignVictoryPointsData(o)
	if err != nil {
		return err
	}
	terr := r.w.Territories[data.TerritoryID]
	if terr == nil {
		return execErrorf("territory %s not found", data.TerritoryID)
	}
	target := r.w.Characters[data.TargetCharacterID]
	if target == nil {
		return execErrorf("character %s not found", data.TargetCharacterID)
	}

	// Control can change hands after submission; losing the territory
	// fails the assignment.
	controls := terr.ControllerCharacterID == o.CharacterID
	if !controls {
		faction := r.w.ControllerFactionOf(terr)
		controls = faction != "" && r.w.HasPermission(faction, o.CharacterID, model.PermFinancial)
	}
	if !controls {
		return &ExecError{
			Reason:   "submitter no longer controls territory " + data.TerritoryID,
			Audience: []string{data.TargetCharacterID},
		}
	}

	if terr.VictoryPoints <= 0 {
		o.SetResult("turns_active", data.TurnsActive)
		r.markSuccess(o)
		return nil
	}

	terr.VictoryPoints--
	target.VictoryPoints++
	r.w.Changes.TouchTerritory(terr.TerritoryID)
	r.w.Changes.TouchCharacter(target.Identifier)

	data.TurnsActive++
	EncodeAssignVictoryPointsData(o, data)

	r.emit(model.EventVictoryPointsAssigned, model.EntityCharacter, target.Identifier, Audience(map[string]any{
		"territory_id":   terr.TerritoryID,
		"points":         1,
		"pool_remaining": terr.VictoryPoints,
	}, o.CharacterID, target.Identifier))

	if terr.VictoryPoints == 0 {
		o.SetResult("turns_active", data.TurnsActive)
		r.markSuccess(o)
	} else {
		r.markOngoing(o)
	}
	return nil
}
