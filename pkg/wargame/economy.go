package wargame

import (
	"sort"

	"github.com/veldtgames/warcouncil/internal/model"
)

// resolveResourceTransfer runs CANCEL_TRANSFER and RESOURCE_TRANSFER
// orders. Cancels carry a lower priority value, so a cancel always lands
// before the transfer it names runs in the same phase.
func (r *resolver) resolveResourceTransfer(orders []*model.Order) {
	for _, o := range orders {
		o := o
		switch o.OrderType {
		case model.OrderTypeCancelTransfer:
			r.runOrder(o, func() error { return r.execCancelTransfer(o, orders) })
		case model.OrderTypeResourceTransfer:
			if model.IsTerminalStatus(o.Status) {
				continue
			}
			r.runOrder(o, func() error { return r.execTransfer(o) })
		default:
			r.markFailed(o, "order type not handled in resource transfer phase")
		}
	}
}

func (r *resolver) execCancelTransfer(o *model.Order, batch []*model.Order) error {
	data, err := DecodeCancelTransferData(o)
	if err != nil {
		return err
	}
	var target *model.Order
	for _, cand := range batch {
		if cand.OrderID == data.TargetOrderID && cand.OrderType == model.OrderTypeResourceTransfer {
			target = cand
			break
		}
	}
	if target == nil {
		return execErrorf("transfer order %s not found", data.TargetOrderID)
	}
	if model.IsTerminalStatus(target.Status) {
		return execErrorf("transfer order %s already settled", data.TargetOrderID)
	}
	if target.CharacterID != o.CharacterID {
		return execErrorf("transfer order %s belongs to another character", data.TargetOrderID)
	}
	target.SetResult("cancelled_reason", "cancelled_by_order")
	r.setStatus(target, model.OrderCancelled)
	r.emit(model.EventTransferCancelled, model.EntityOrder, target.OrderID, Audience(map[string]any{
		"cancelled_by": o.OrderID,
	}, o.CharacterID))
	r.markSuccess(o)
	return nil
}

func (r *resolver) execTransfer(o *model.Order) error {
	data, err := DecodeTransferData(o)
	if err != nil {
		return err
	}

	var sender *model.ResourceLedger
	senderID := o.CharacterID
	senderFaction := data.SenderFactionID != ""
	if senderFaction {
		if !r.w.HasPermission(data.SenderFactionID, o.CharacterID, model.PermFinancial) {
			return execErrorf("character %s lacks FINANCIAL permission in faction %s", o.CharacterID, data.SenderFactionID)
		}
		sender = r.w.FactionLedger(data.SenderFactionID)
		senderID = data.SenderFactionID
	} else {
		sender = r.w.PlayerLedger(o.CharacterID)
	}

	var recipient *model.ResourceLedger
	recipientFaction := data.RecipientKind == "faction"
	audience := []string{o.CharacterID}
	if recipientFaction {
		f := r.w.Factions[data.RecipientID]
		if f == nil {
			return execErrorf("recipient faction %s not found", data.RecipientID)
		}
		recipient = r.w.FactionLedger(data.RecipientID)
		audience = append(audience, f.LeaderCharacterID)
	} else {
		if r.w.Characters[data.RecipientID] == nil {
			return execErrorf("recipient character %s not found", data.RecipientID)
		}
		recipient = r.w.PlayerLedger(data.RecipientID)
		audience = append(audience, data.RecipientID)
	}

	moved := data.Amounts.Min(sender.Amounts)
	shortNames := moved.ShortNames(data.Amounts)

	sender.Amounts = sender.Amounts.Sub(moved)
	recipient.Amounts = recipient.Amounts.Add(moved)
	r.touchLedger(senderID, senderFaction)
	r.touchLedger(data.RecipientID, recipientFaction)

	eventData := map[string]any{
		"sender":    senderID,
		"recipient": data.RecipientID,
		"moved":     moved,
	}
	if len(shortNames) == 0 {
		r.emit(model.EventResourceTransfer, model.EntityOrder, o.OrderID, Audience(eventData, audience...))
	} else {
		eventData["short_types"] = shortNames
		r.emit(model.EventResourceDeficit, model.EntityOrder, o.OrderID, Audience(eventData, audience...))
	}

	data.TurnsExecuted++
	EncodeTransferData(o, data)
	if data.Term != nil && data.TurnsExecuted >= *data.Term {
		r.markSuccess(o)
	} else {
		r.markOngoing(o)
	}
	return nil
}

func (r *resolver) touchLedger(ownerID string, faction bool) {
	if faction {
		r.w.Changes.TouchFactionResources(ownerID)
	} else {
		r.w.Changes.TouchPlayerResources(ownerID)
	}
}

// resolveResourceCollection credits each character with their personal
// production plus the effective production of territories they control
// directly. Takes no orders.
func (r *resolver) resolveResourceCollection() {
	charIDs := make([]string, 0, len(r.w.Characters))
	for id := range r.w.Characters {
		charIDs = append(charIDs, id)
	}
	sort.Strings(charIDs)

	for _, charID := range charIDs {
		c := r.w.Characters[charID]
		delta := c.Production

		for _, terrID := range r.territoriesControlledBy(charID) {
			delta = delta.Add(r.effectiveProduction(r.w.Territories[terrID]))
		}

		if delta.IsZero() {
			continue
		}
		ledger := r.w.PlayerLedger(charID)
		ledger.Amounts = ledger.Amounts.Add(delta)
		r.w.Changes.TouchPlayerResources(charID)
		r.emit(model.EventCharacterProduction, model.EntityCharacter, charID,
			Audience(map[string]any{"produced": delta}, charID))
	}
}

func (r *resolver) territoriesControlledBy(characterID string) []string {
	var out []string
	for id, t := range r.w.Territories {
		if t.ControllerCharacterID == characterID {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// effectiveProduction stacks building bonuses on a territory's natural
// production. Industrial buildings add unconditionally and count as
// natural for later buildings; other buildings only amplify resources
// the territory already yields.
func (r *resolver) effectiveProduction(t *model.Territory) model.Resources {
	effective := t.Production

	buildings := r.w.ActiveBuildingsAt(t.TerritoryID)
	apply := func(b *model.Building, industrial bool) {
		for _, name := range model.ResourceNames {
			if !b.Keywords.Has(name) {
				continue
			}
			if industrial || effective.Get(name) > 0 {
				effective.Set(name, effective.Get(name)+2)
			}
		}
	}
	// Industrial first so their output enables chaining for the rest.
	for _, b := range buildings {
		if b.Keywords.Has(model.KwIndustrial) {
			apply(b, true)
		}
	}
	for _, b := range buildings {
		if !b.Keywords.Has(model.KwIndustrial) {
			apply(b, false)
		}
	}
	return effective
}

// resolveOrganization is the upkeep pass: buildings pay first, then
// units, then the destruction cascade, then organization recovery.
// Takes no orders.
func (r *resolver) resolveOrganization() {
	r.buildingUpkeep()
	r.unitUpkeep()
	r.destructionCascade()
	r.organizationRecovery()
}

func (r *resolver) buildingUpkeep() {
	var buildings []*model.Building
	for _, b := range r.w.Buildings {
		if b.Status == model.BuildingActive {
			buildings = append(buildings, b)
		}
	}
	sort.Slice(buildings, func(i, j int) bool {
		a, b := buildings[i], buildings[j]
		if a.Durability != b.Durability {
			return a.Durability < b.Durability
		}
		if a.TerritoryID != b.TerritoryID {
			return a.TerritoryID < b.TerritoryID
		}
		if a.BuiltTurn != b.BuiltTurn {
			return a.BuiltTurn < b.BuiltTurn
		}
		return a.BuildingID < b.BuildingID
	})

	for _, b := range buildings {
		if b.Upkeep.IsZero() {
			continue
		}
		terr := r.w.Territories[b.TerritoryID]
		ledger, ownerID, faction, audience := r.territoryPayer(terr)
		if ledger == nil {
			// Uncontrolled: full deficit on every required type.
			shortNames := model.Resources{}.ShortNames(b.Upkeep)
			b.Durability -= len(shortNames)
			r.w.Changes.TouchBuilding(b.BuildingID)
			r.emit(model.EventBuildingUpkeepDeficit, model.EntityBuilding, b.BuildingID, map[string]any{
				"territory_id": b.TerritoryID,
				"short_types":  shortNames,
			})
			continue
		}

		paid := b.Upkeep.Min(ledger.Amounts)
		shortNames := paid.ShortNames(b.Upkeep)
		ledger.Amounts = ledger.Amounts.Sub(paid)
		r.touchLedger(ownerID, faction)

		if len(shortNames) == 0 {
			r.emit(model.EventBuildingUpkeepPaid, model.EntityBuilding, b.BuildingID, Audience(map[string]any{
				"territory_id": b.TerritoryID,
			}, audience...))
			continue
		}
		b.Durability -= len(shortNames)
		r.w.Changes.TouchBuilding(b.BuildingID)
		r.emit(model.EventBuildingUpkeepDeficit, model.EntityBuilding, b.BuildingID, Audience(map[string]any{
			"territory_id": b.TerritoryID,
			"short_types":  shortNames,
		}, audience...))
	}
}

// territoryPayer resolves who foots a territory's bills: the controlling
// character, else the controlling faction, else nobody.
func (r *resolver) territoryPayer(t *model.Territory) (ledger *model.ResourceLedger, ownerID string, faction bool, audience []string) {
	if t == nil {
		return nil, "", false, nil
	}
	if t.ControllerCharacterID != "" {
		return r.w.PlayerLedger(t.ControllerCharacterID), t.ControllerCharacterID, false, []string{t.ControllerCharacterID}
	}
	if t.ControllerFactionID != "" {
		var aud []string
		if f := r.w.Factions[t.ControllerFactionID]; f != nil {
			aud = append(aud, f.LeaderCharacterID)
		}
		return r.w.FactionLedger(t.ControllerFactionID), t.ControllerFactionID, true, aud
	}
	return nil, "", false, nil
}

func (r *resolver) unitUpkeep() {
	unitIDs := make([]string, 0, len(r.w.Units))
	for id := range r.w.Units {
		unitIDs = append(unitIDs, id)
	}
	sort.Strings(unitIDs)

	for _, id := range unitIDs {
		u := r.w.Units[id]
		if u.Status != model.UnitActive || u.Upkeep.IsZero() {
			continue
		}

		// Encircled units are cut from supply: nothing reaches them and
		// every required type counts as short.
		if r.w.Encircled[u.UnitID] {
			shortNames := model.Resources{}.ShortNames(u.Upkeep)
			u.Organization -= len(shortNames)
			r.w.Changes.TouchUnit(u.UnitID)
			r.emit(model.EventUpkeepDeficit, model.EntityUnit, u.UnitID, Audience(map[string]any{
				"short_types": shortNames,
				"encircled":   true,
			}, u.OwnerCharacterID, u.CommanderCharacterID))
			continue
		}

		ledger, ownerID, faction := r.unitPayer(u)
		if ledger == nil {
			continue
		}
		paid := u.Upkeep.Min(ledger.Amounts)
		shortNames := paid.ShortNames(u.Upkeep)
		ledger.Amounts = ledger.Amounts.Sub(paid)
		r.touchLedger(ownerID, faction)

		if len(shortNames) == 0 {
			r.emit(model.EventUpkeepPaid, model.EntityUnit, u.UnitID,
				Audience(map[string]any{}, u.OwnerCharacterID, u.CommanderCharacterID))
			continue
		}
		u.Organization -= len(shortNames)
		r.w.Changes.TouchUnit(u.UnitID)
		r.emit(model.EventUpkeepDeficit, model.EntityUnit, u.UnitID, Audience(map[string]any{
			"short_types": shortNames,
		}, u.OwnerCharacterID, u.CommanderCharacterID))
	}
}

func (r *resolver) unitPayer(u *model.Unit) (*model.ResourceLedger, string, bool) {
	if u.OwnerCharacterID != "" {
		return r.w.PlayerLedger(u.OwnerCharacterID), u.OwnerCharacterID, false
	}
	if u.FactionID != "" {
		return r.w.FactionLedger(u.FactionID), u.FactionID, true
	}
	return nil, "", false
}

// destructionCascade settles the phase's attrition: buildings at zero
// durability fall, spiritual ruins wound the nearest nexus, and units at
// zero organization disband.
func (r *resolver) destructionCascade() {
	buildingIDs := make([]string, 0, len(r.w.Buildings))
	for id := range r.w.Buildings {
		buildingIDs = append(buildingIDs, id)
	}
	sort.Strings(buildingIDs)
	for _, id := range buildingIDs {
		b := r.w.Buildings[id]
		if b.Status != model.BuildingActive || b.Durability > 0 {
			continue
		}
		b.Status = model.BuildingDestroyed
		r.w.Changes.TouchBuilding(id)
		terr := r.w.Territories[b.TerritoryID]
		_, _, _, audience := r.territoryPayer(terr)
		r.emit(model.EventBuildingDestroyed, model.EntityBuilding, id, Audience(map[string]any{
			"territory_id": b.TerritoryID,
		}, audience...))
		if b.Keywords.Has(model.KwSpiritual) {
			r.mutateNexus(b.TerritoryID, -2)
		}
	}

	unitIDs := make([]string, 0, len(r.w.Units))
	for id := range r.w.Units {
		unitIDs = append(unitIDs, id)
	}
	sort.Strings(unitIDs)
	for _, id := range unitIDs {
		u := r.w.Units[id]
		if u.Status == model.UnitActive && u.Organization <= 0 {
			r.disbandUnit(u, "attrition")
		}
	}
}

// organizationRecovery heals units standing on land their faction or an
// ally controls. Hospitals stack.
func (r *resolver) organizationRecovery() {
	unitIDs := make([]string, 0, len(r.w.Units))
	for id := range r.w.Units {
		unitIDs = append(unitIDs, id)
	}
	sort.Strings(unitIDs)

	for _, id := range unitIDs {
		u := r.w.Units[id]
		if u.Status != model.UnitActive || u.Organization >= u.MaxOrganization {
			continue
		}
		terr := r.w.Territories[u.CurrentTerritoryID]
		if terr == nil {
			continue
		}
		controller := r.w.ControllerFactionOf(terr)
		safe := false
		if controller != "" && u.FactionID != "" && r.w.ActivelyAllied(controller, u.FactionID) {
			safe = true
		}
		if terr.ControllerCharacterID != "" && terr.ControllerCharacterID == u.OwnerCharacterID {
			safe = true
		}
		if !safe {
			continue
		}

		hospitals := 0
		for _, b := range r.w.ActiveBuildingsAt(terr.TerritoryID) {
			if b.Keywords.Has(model.KwHospital) {
				hospitals++
			}
		}
		recovered := 1 + 2*hospitals
		if u.Organization+recovered > u.MaxOrganization {
			recovered = u.MaxOrganization - u.Organization
		}
		if recovered <= 0 {
			continue
		}
		u.Organization += recovered
		r.w.Changes.TouchUnit(id)
		r.emit(model.EventOrganizationRecovered, model.EntityUnit, id, Audience(map[string]any{
			"recovered": recovered,
		}, u.OwnerCharacterID, u.CommanderCharacterID))
	}
}

// nearestNexus finds the closest nexus by BFS over adjacency regardless
// of terrain. Distance ties break alphabetically on identifier.
func (r *resolver) nearestNexus(territoryID string) *model.SpiritNexus {
	byTerritory := make(map[string][]*model.SpiritNexus)
	for _, n := range r.w.Nexuses {
		byTerritory[n.TerritoryID] = append(byTerritory[n.TerritoryID], n)
	}
	if len(byTerritory) == 0 {
		return nil
	}

	visited := map[string]bool{territoryID: true}
	frontier := []string{territoryID}
	for len(frontier) > 0 {
		var found []*model.SpiritNexus
		for _, t := range frontier {
			found = append(found, byTerritory[t]...)
		}
		if len(found) > 0 {
			sort.Slice(found, func(i, j int) bool { return found[i].Identifier < found[j].Identifier })
			return found[0]
		}
		var next []string
		for _, t := range frontier {
			for _, adj := range r.w.Adjacent(t) {
				if !visited[adj] {
					visited[adj] = true
					next = append(next, adj)
				}
			}
		}
		frontier = next
	}
	return nil
}

// mutateNexus applies a health delta to the nexus nearest the territory,
// with the pole swap rule. Nexus events are GM-only and carry no
// audience.
func (r *resolver) mutateNexus(territoryID string, delta int) {
	n := r.nearestNexus(territoryID)
	if n == nil || delta == 0 {
		return
	}
	switch n.Identifier {
	case model.NexusSouthPole:
		if swap := r.w.Nexuses[model.NexusNorthPole]; swap != nil {
			n = swap
		}
	case model.NexusNorthPole:
		if swap := r.w.Nexuses[model.NexusSouthPole]; swap != nil {
			n = swap
		}
	}
	n.Health += delta
	r.w.Changes.TouchNexus(n.Identifier)
	eventType := model.EventNexusDamaged
	if delta > 0 {
		eventType = model.EventNexusRepaired
	}
	r.emit(eventType, model.EntityNexus, n.Identifier, map[string]any{
		"delta":  delta,
		"health": n.Health,
	})
}
