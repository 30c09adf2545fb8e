package wargame

import (
	"github.com/veldtgames/warcouncil/internal/model"
)

// terrainCost is the MP charged on entering a territory. Naval steps
// always cost 1.
func terrainCost(terrain string, naval bool) int {
	if naval {
		return 1
	}
	switch terrain {
	case model.TerrainMountain:
		return 3
	case model.TerrainDesert:
		return 2
	}
	return 1
}

// movementState is the in-memory execution state of one UNIT order for
// the current turn, rebuilt from the order payload.
type movementState struct {
	order *model.Order
	data  *UnitOrderData
	units []*model.Unit

	totalMP     int
	remainingMP int
	// visited collects the territories entered this turn, used for naval
	// patrol occupancy windows.
	visited []string
	// done marks the state as finished for this turn.
	done bool
}

func (s *movementState) minMovement() int {
	mv := -1
	for _, u := range s.units {
		if mv == -1 || u.Movement < mv {
			mv = u.Movement
		}
	}
	if mv < 0 {
		mv = 0
	}
	return mv
}

func (s *movementState) position() string {
	if len(s.units) == 0 {
		return ""
	}
	return s.units[0].CurrentTerritoryID
}

// engagementExempt reports whether the whole group is exempt from
// engagement detection and encirclement.
func (s *movementState) engagementExempt() bool {
	for _, u := range s.units {
		if !u.Keywords.HasAny(model.KwInfiltrator, model.KwAerial, model.KwAerialTransport) {
			return false
		}
	}
	return len(s.units) > 0
}

// resolveMovement drives the movement or naval movement phase. The tick
// loop steps groups one territory at a time in priority order until no
// group can advance.
func (r *resolver) resolveMovement(orders []*model.Order, naval bool) {
	var states []*movementState
	for _, o := range orders {
		o := o
		if o.OrderType != model.OrderTypeUnit {
			r.markFailed(o, "order type not handled in movement phase")
			continue
		}
		s, err := r.buildMovementState(o)
		if err != nil {
			r.runOrder(o, func() error { return err })
			continue
		}
		if s != nil {
			states = append(states, s)
		}
	}

	// Tick loop: a full pass that moves nothing ends the phase.
	for {
		progressed := false
		for _, s := range states {
			if s.done {
				continue
			}
			if r.stepMovement(s, naval) {
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}

	for _, s := range states {
		r.finishMovement(s, naval)
	}
}

// buildMovementState rebuilds execution state from the order. Returns
// (nil, nil) for orders that should not tick this phase.
func (r *resolver) buildMovementState(o *model.Order) (*movementState, error) {
	data, err := DecodeUnitOrderData(o)
	if err != nil {
		return nil, err
	}

	var units []*model.Unit
	for _, id := range o.UnitIDs {
		u := r.w.Units[id]
		if u == nil || u.Status != model.UnitActive {
			return nil, execErrorf("unit %s is not active", id)
		}
		units = append(units, u)
	}
	if len(units) == 0 {
		return nil, execErrorf("order has no units")
	}

	s := &movementState{order: o, data: data, units: units}

	switch data.Status {
	case MoveStatusTransported, MoveStatusWaitingForTransport:
		// Carried or waiting land groups do not tick; coupling and
		// disembarkation are driven by the naval side.
		if data.Status == MoveStatusWaitingForTransport {
			r.tryCoupleWaitingGroup(s)
		}
		r.markOngoing(o)
		EncodeUnitOrderData(o, data)
		return nil, nil
	case MoveStatusPathComplete:
		return nil, nil
	}

	mv := s.minMovement()
	if mv == 0 {
		// Zero-movement groups spend nothing and complete in place.
		data.Status = MoveStatusPathComplete
		EncodeUnitOrderData(o, data)
		r.completeMovementOrder(s)
		return nil, nil
	}

	s.totalMP = mv
	if data.Action == model.ActionTransit || data.Action == model.ActionTransport {
		s.totalMP++
	}
	if data.Action == model.ActionPatrol || data.Action == model.ActionNavalPatrol {
		if data.Speed > 0 && data.Speed < s.totalMP {
			s.totalMP = data.Speed
		}
	}
	s.remainingMP = s.totalMP
	data.Status = MoveStatusMoving
	data.BlockedAt = ""
	return s, nil
}

// stepMovement advances a group one territory. Returns true if the
// group moved.
func (r *resolver) stepMovement(s *movementState, naval bool) bool {
	data := s.data
	path := data.Path
	patrol := data.Action == model.ActionPatrol || data.Action == model.ActionNavalPatrol

	if data.PathIndex >= len(path)-1 && !patrol {
		s.done = true
		return false
	}

	nextIdx := data.PathIndex + 1
	if patrol && data.PathIndex >= len(path)-1 {
		nextIdx = 0
	}
	next := path[nextIdx]
	terr := r.w.Territories[next]
	if terr == nil {
		s.done = true
		data.Status = MoveStatusEngaged
		r.markFailed(s.order, "territory "+next+" no longer exists")
		return false
	}

	// Land transports stop at the waterline and wait for a carrier.
	if !naval && data.Action == model.ActionTransport && model.IsWaterTerrain(terr.TerrainType) {
		data.Status = MoveStatusWaitingForTransport
		s.done = true
		r.tryCoupleWaitingGroup(s)
		return false
	}

	cost := terrainCost(terr.TerrainType, naval)
	if s.remainingMP < cost {
		data.Status = MoveStatusOutOfMP
		s.done = true
		return false
	}

	if !s.engagementExempt() {
		for _, occupant := range r.w.ActiveUnitsAt(next) {
			if s.order.HasUnit(occupant.UnitID) {
				continue
			}
			hostile := false
			for _, u := range s.units {
				if r.w.UnitsHostile(u, occupant) {
					hostile = true
					break
				}
			}
			if hostile {
				data.Status = MoveStatusEngaged
				data.BlockedAt = next
				s.done = true
				r.emit(model.EventEngagementDetected, model.EntityTerritory, next, Audience(map[string]any{
					"unit_ids":      s.order.UnitIDs,
					"opposing_unit": occupant.UnitID,
					"blocked_at":    next,
				}, r.movementAudience(s, occupant)...))
				return false
			}
		}
	}

	// Step in.
	s.remainingMP -= cost
	for _, u := range s.units {
		u.CurrentTerritoryID = next
		r.w.Changes.TouchUnit(u.UnitID)
	}
	data.PathIndex = nextIdx
	s.visited = append(s.visited, next)

	// Carried cargo follows a moving naval transport.
	if naval && data.Action == model.ActionNavalTransport {
		for _, cargoID := range data.CarryingUnits {
			if cu := r.w.Units[cargoID]; cu != nil {
				cu.CurrentTerritoryID = next
				r.w.Changes.TouchUnit(cargoID)
			}
		}
		r.tryPickupAt(s, next)
	}

	if data.PathIndex >= len(path)-1 && !patrol {
		data.Status = MoveStatusPathComplete
		s.done = true
	}
	return true
}

func (r *resolver) movementAudience(s *movementState, opponent *model.Unit) []string {
	ids := []string{s.order.CharacterID}
	for _, u := range s.units {
		ids = append(ids, u.OwnerCharacterID, u.CommanderCharacterID)
	}
	if opponent != nil {
		ids = append(ids, opponent.OwnerCharacterID, opponent.CommanderCharacterID)
	}
	return ids
}

// finishMovement persists per-turn state back onto the order and settles
// its status.
func (r *resolver) finishMovement(s *movementState, naval bool) {
	if model.IsTerminalStatus(s.order.Status) {
		return
	}
	data := s.data

	// Naval occupancy windows.
	if naval {
		unit := s.units[0]
		switch data.Action {
		case model.ActionNavalConvoy:
			r.w.SetNavalPositions(unit.UnitID, data.Path[:data.PathIndex+1])
		case model.ActionNavalPatrol:
			occ := append([]string{unit.CurrentTerritoryID}, s.visited...)
			r.w.SetNavalPositions(unit.UnitID, occ)
		default:
			r.w.SetNavalPositions(unit.UnitID, []string{unit.CurrentTerritoryID})
		}
	}

	EncodeUnitOrderData(s.order, data)

	if data.Status == MoveStatusPathComplete {
		if naval && data.Action == model.ActionNavalTransport {
			r.disembarkCargo(s)
		}
		r.completeMovementOrder(s)
		return
	}
	r.markOngoing(s.order)
}

// completeMovementOrder marks orders whose whole effect is movement as
// SUCCESS. Orders whose action is consumed by a later phase (raid,
// capture, siege) or that persist (patrols, convoys) stay ONGOING.
func (r *resolver) completeMovementOrder(s *movementState) {
	data := s.data
	switch data.Action {
	case model.ActionRaid, model.ActionCapture, model.ActionSiege:
		r.markOngoing(s.order)
	case model.ActionPatrol, model.ActionNavalPatrol, model.ActionNavalConvoy:
		r.markOngoing(s.order)
	default:
		EncodeUnitOrderData(s.order, data)
		r.markSuccess(s.order)
	}
	r.emit(model.EventTransitComplete, model.EntityUnit, s.units[0].UnitID, Audience(map[string]any{
		"unit_ids":  s.order.UnitIDs,
		"action":    data.Action,
		"territory": s.position(),
	}, r.movementAudience(s, nil)...))
}

// tryCoupleWaitingGroup looks for a naval carrier already sitting at the
// coast territory of a waiting land transport group.
func (r *resolver) tryCoupleWaitingGroup(s *movementState) {
	for _, navalOrder := range r.w.ActiveUnitOrders {
		if navalOrder.Status != model.OrderPending && navalOrder.Status != model.OrderOngoing {
			continue
		}
		navalData, err := DecodeUnitOrderData(navalOrder)
		if err != nil || navalData.Action != model.ActionNavalTransport {
			continue
		}
		if len(navalData.Path) == 0 ||
			navalData.Path[0] != s.data.CoastTerritory ||
			navalData.Path[len(navalData.Path)-1] != s.data.DisembarkTerritory {
			continue
		}
		carrier := r.carrierUnit(navalOrder)
		if carrier == nil || carrier.CurrentTerritoryID != navalData.Path[0] {
			continue
		}
		r.couple(s.order, s.data, s.units, navalOrder, navalData, carrier)
		return
	}
}

// tryPickupAt couples any land groups waiting at the given territory to
// a naval transport that just arrived there.
func (r *resolver) tryPickupAt(s *movementState, territory string) {
	if territory != s.data.Path[0] {
		return
	}
	carrier := s.units[0]
	for _, landOrder := range r.w.ActiveUnitOrders {
		if landOrder == s.order {
			continue
		}
		if landOrder.Status != model.OrderPending && landOrder.Status != model.OrderOngoing {
			continue
		}
		landData, err := DecodeUnitOrderData(landOrder)
		if err != nil || landData.Action != model.ActionTransport {
			continue
		}
		if landData.Status != MoveStatusWaitingForTransport {
			continue
		}
		if landData.CoastTerritory != s.data.Path[0] || landData.DisembarkTerritory != s.data.Path[len(s.data.Path)-1] {
			continue
		}
		var landUnits []*model.Unit
		for _, id := range landOrder.UnitIDs {
			if u := r.w.Units[id]; u != nil && u.Status == model.UnitActive {
				landUnits = append(landUnits, u)
			}
		}
		if len(landUnits) == 0 {
			continue
		}
		r.couple(landOrder, landData, landUnits, s.order, s.data, carrier)
	}
}

func (r *resolver) carrierUnit(navalOrder *model.Order) *model.Unit {
	for _, id := range navalOrder.UnitIDs {
		if u := r.w.Units[id]; u != nil && u.Status == model.UnitActive && u.Capacity > 0 {
			return u
		}
	}
	return nil
}

// couple binds a waiting land group to its carrier. The carrying_units
// list is persisted on the naval order at this moment so cargo loss on
// a sunk carrier never depends on recomputation.
func (r *resolver) couple(landOrder *model.Order, landData *UnitOrderData, landUnits []*model.Unit,
	navalOrder *model.Order, navalData *UnitOrderData, carrier *model.Unit) {

	totalSize := 0
	for _, u := range landUnits {
		totalSize += u.Size
	}
	if carrier.Capacity < totalSize {
		return
	}

	landData.Status = MoveStatusTransported
	landData.CarrierUnitID = carrier.UnitID
	EncodeUnitOrderData(landOrder, landData)
	r.setStatus(landOrder, model.OrderOngoing)
	r.w.Changes.OrderUpdates = append(r.w.Changes.OrderUpdates, landOrder)

	navalData.CarryingUnits = append(navalData.CarryingUnits, landOrder.UnitIDs...)
	EncodeUnitOrderData(navalOrder, navalData)
	r.w.Changes.OrderUpdates = append(r.w.Changes.OrderUpdates, navalOrder)

	for _, u := range landUnits {
		u.CurrentTerritoryID = carrier.CurrentTerritoryID
		r.w.Changes.TouchUnit(u.UnitID)
	}
	r.emit(model.EventUnitEmbarked, model.EntityUnit, carrier.UnitID, Audience(map[string]any{
		"carrier_unit_id": carrier.UnitID,
		"cargo_unit_ids":  landOrder.UnitIDs,
	}, landOrder.CharacterID, navalOrder.CharacterID))
}

// disembarkCargo places carried land groups on the land side of the
// water segment and lets their own orders resume.
func (r *resolver) disembarkCargo(s *movementState) {
	if len(s.data.CarryingUnits) == 0 {
		return
	}
	carried := make(map[string]bool, len(s.data.CarryingUnits))
	for _, id := range s.data.CarryingUnits {
		carried[id] = true
	}

	for _, landOrder := range r.w.ActiveUnitOrders {
		if landOrder.Status != model.OrderPending && landOrder.Status != model.OrderOngoing {
			continue
		}
		landData, err := DecodeUnitOrderData(landOrder)
		if err != nil || landData.Action != model.ActionTransport || landData.Status != MoveStatusTransported {
			continue
		}
		if landData.CarrierUnitID != s.units[0].UnitID {
			continue
		}
		// Find the land territory following the water segment.
		landIdx := -1
		for i, terrID := range landData.Path {
			if terrID == landData.DisembarkTerritory && i+1 < len(landData.Path) {
				landIdx = i + 1
				break
			}
		}
		for _, id := range landOrder.UnitIDs {
			u := r.w.Units[id]
			if u == nil {
				continue
			}
			if landIdx >= 0 {
				u.CurrentTerritoryID = landData.Path[landIdx]
			}
			r.w.Changes.TouchUnit(id)
		}
		if landIdx >= 0 {
			landData.PathIndex = landIdx
		}
		landData.Status = MoveStatusMoving
		landData.CarrierUnitID = ""
		if landIdx == len(landData.Path)-1 {
			landData.Status = MoveStatusPathComplete
		}
		EncodeUnitOrderData(landOrder, landData)
		if landData.Status == MoveStatusPathComplete {
			r.setStatus(landOrder, model.OrderSuccess)
		}
		r.w.Changes.OrderUpdates = append(r.w.Changes.OrderUpdates, landOrder)
		r.emit(model.EventUnitDisembarked, model.EntityUnit, s.units[0].UnitID, Audience(map[string]any{
			"cargo_unit_ids": landOrder.UnitIDs,
			"territory":      landData.DisembarkTerritory,
		}, landOrder.CharacterID, s.order.CharacterID))
	}

	s.data.CarryingUnits = nil
	EncodeUnitOrderData(s.order, s.data)
}
