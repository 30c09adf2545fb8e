package wargame

import "github.com/veldtgames/warcouncil/internal/model"

// Phase is one named step of the fixed per-turn sequence.
type Phase string

const (
	PhaseBeginning          Phase = "beginning"
	PhaseResourceTransfer   Phase = "resource_transfer"
	PhaseResourceCollection Phase = "resource_collection"
	PhaseMovement           Phase = "movement"
	PhaseNavalMovement      Phase = "naval_movement"
	PhaseEncirclement       Phase = "encirclement"
	PhaseCombat             Phase = "combat"
	PhaseNavalCombat        Phase = "naval_combat"
	PhaseOrganization       Phase = "organization"
	PhaseConstruction       Phase = "construction"
	PhaseVictory            Phase = "victory"
)

// PhaseSequence returns the phases in resolution order.
func PhaseSequence() []Phase {
	return []Phase{
		PhaseBeginning,
		PhaseResourceTransfer,
		PhaseResourceCollection,
		PhaseMovement,
		PhaseNavalMovement,
		PhaseEncirclement,
		PhaseCombat,
		PhaseNavalCombat,
		PhaseOrganization,
		PhaseConstruction,
		PhaseVictory,
	}
}

// EventTurn returns the turn number stamped on events emitted during the
// given phase of turn n. Phases whose effects the player sees at the
// start of their next turn stamp n+1; mid-turn effects stamp n.
func EventTurn(phase Phase, n int) int {
	switch phase {
	case PhaseMovement, PhaseNavalMovement, PhaseEncirclement, PhaseCombat, PhaseNavalCombat:
		return n
	}
	return n + 1
}

// ScheduleEntry fixes the phase and priority an order type resolves in.
// Lower priority runs first.
type ScheduleEntry struct {
	Phase    Phase
	Priority int
}

// orderSchedule is the engine's fixed order routing table. Changing it is
// a schema change, not a data change.
var orderSchedule = map[string]ScheduleEntry{
	model.OrderTypeJoinFaction:         {PhaseBeginning, 10},
	model.OrderTypeLeaveFaction:        {PhaseBeginning, 20},
	model.OrderTypeKickFromFaction:     {PhaseBeginning, 30},
	model.OrderTypeMakeAlliance:        {PhaseBeginning, 40},
	model.OrderTypeDissolveAlliance:    {PhaseBeginning, 50},
	model.OrderTypeDeclareWar:          {PhaseBeginning, 60},
	model.OrderTypeAssignCommander:     {PhaseBeginning, 70},
	model.OrderTypeCancelTransfer:      {PhaseResourceTransfer, 10},
	model.OrderTypeResourceTransfer:    {PhaseResourceTransfer, 20},
	model.OrderTypeUnit:                {PhaseMovement, 100},
	model.OrderTypeMobilization:        {PhaseConstruction, 10},
	model.OrderTypeConstruction:        {PhaseConstruction, 20},
	model.OrderTypeAssignVictoryPoints: {PhaseVictory, 10},
}

// navalActions are the unit actions routed to the naval movement phase.
var navalActions = map[string]bool{
	model.ActionNavalTransit:   true,
	model.ActionNavalConvoy:    true,
	model.ActionNavalPatrol:    true,
	model.ActionNavalTransport: true,
}

// Schedule returns the phase and priority for an order. UNIT orders
// route on their action: naval actions resolve in the naval movement
// phase, everything else in the land movement phase.
func Schedule(orderType, action string) (ScheduleEntry, bool) {
	entry, ok := orderSchedule[orderType]
	if !ok {
		return ScheduleEntry{}, false
	}
	if orderType == model.OrderTypeUnit && navalActions[action] {
		entry.Phase = PhaseNavalMovement
	}
	return entry, true
}
