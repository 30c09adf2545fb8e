package model

import (
	"encoding/json"
	"time"
)

// Order statuses. SUCCESS, FAILED, and CANCELLED are terminal.
const (
	OrderPending   = "PENDING"
	OrderOngoing   = "ONGOING"
	OrderSuccess   = "SUCCESS"
	OrderFailed    = "FAILED"
	OrderCancelled = "CANCELLED"
)

// IsTerminalStatus reports whether an order status is immutable.
func IsTerminalStatus(status string) bool {
	switch status {
	case OrderSuccess, OrderFailed, OrderCancelled:
		return true
	}
	return false
}

// Order types.
const (
	OrderTypeUnit                = "UNIT"
	OrderTypeJoinFaction         = "JOIN_FACTION"
	OrderTypeKickFromFaction     = "KICK_FROM_FACTION"
	OrderTypeLeaveFaction        = "LEAVE_FACTION"
	OrderTypeMakeAlliance        = "MAKE_ALLIANCE"
	OrderTypeDissolveAlliance    = "DISSOLVE_ALLIANCE"
	OrderTypeDeclareWar          = "DECLARE_WAR"
	OrderTypeAssignCommander     = "ASSIGN_COMMANDER"
	OrderTypeAssignVictoryPoints = "ASSIGN_VICTORY_POINTS"
	OrderTypeResourceTransfer    = "RESOURCE_TRANSFER"
	OrderTypeCancelTransfer      = "CANCEL_TRANSFER"
	OrderTypeMobilization        = "MOBILIZATION"
	OrderTypeConstruction        = "CONSTRUCTION"
)

// Unit actions carried by UNIT orders.
const (
	ActionTransit        = "transit"
	ActionTransport      = "transport"
	ActionPatrol         = "patrol"
	ActionRaid           = "raid"
	ActionCapture        = "capture"
	ActionSiege          = "siege"
	ActionAerialConvoy   = "aerial_convoy"
	ActionAerialScout    = "aerial_scout"
	ActionNavalTransit   = "naval_transit"
	ActionNavalConvoy    = "naval_convoy"
	ActionNavalPatrol    = "naval_patrol"
	ActionNavalTransport = "naval_transport"
)

// Order is a durable request to change world state, executed during a
// specific phase on a specific turn.
type Order struct {
	GuildID     int64           `json:"guild_id"`
	OrderID     string          `json:"order_id"`
	OrderType   string          `json:"order_type"`
	UnitIDs     []string        `json:"unit_ids,omitempty"`
	CharacterID string          `json:"character_id"`
	TurnNumber  int             `json:"turn_number"`
	Phase       string          `json:"phase"`
	Priority    int             `json:"priority"`
	Status      string          `json:"status"`
	Data        json.RawMessage `json:"order_data,omitempty"`
	ResultData  map[string]any  `json:"result_data,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	UpdatedTurn int             `json:"updated_turn"`
}

// SetResult records a key in the order's result data, allocating the map
// on first use.
func (o *Order) SetResult(key string, value any) {
	if o.ResultData == nil {
		o.ResultData = make(map[string]any)
	}
	o.ResultData[key] = value
}

// HasUnit reports whether the order references the given unit.
func (o *Order) HasUnit(unitID string) bool {
	for _, id := range o.UnitIDs {
		if id == unitID {
			return true
		}
	}
	return false
}

// Event types emitted by the resolvers.
const (
	EventAlliancePending        = "ALLIANCE_PENDING"
	EventAllianceFormed         = "ALLIANCE_FORMED"
	EventAllianceDissolved      = "ALLIANCE_DISSOLVED"
	EventWarDeclared            = "WAR_DECLARED"
	EventWarJoined              = "WAR_JOINED"
	EventWarProductionBonus     = "WAR_PRODUCTION_BONUS"
	EventFactionJoined          = "FACTION_JOINED"
	EventFactionLeft            = "FACTION_LEFT"
	EventFactionKicked          = "FACTION_KICKED"
	EventCommanderAssigned      = "COMMANDER_ASSIGNED"
	EventTransitComplete        = "TRANSIT_COMPLETE"
	EventEngagementDetected     = "ENGAGEMENT_DETECTED"
	EventUnitEmbarked           = "UNIT_EMBARKED"
	EventUnitDisembarked        = "UNIT_DISEMBARKED"
	EventUnitEncircled          = "UNIT_ENCIRCLED"
	EventCombatRound            = "COMBAT_ROUND"
	EventCombatEnded            = "COMBAT_ENDED"
	EventCombatMaxRounds        = "COMBAT_MAX_ROUNDS"
	EventCombatActionConflict   = "COMBAT_ACTION_CONFLICT"
	EventUnitRetreated          = "UNIT_RETREATED"
	EventUnitDisbanded          = "UNIT_DISBANDED"
	EventTerritoryCaptured      = "TERRITORY_CAPTURED"
	EventSiegeDamage            = "SIEGE_DAMAGE"
	EventTransportCargoLost     = "TRANSPORT_CARGO_DESTROYED"
	EventResourceTransfer       = "RESOURCE_TRANSFER"
	EventResourceDeficit        = "RESOURCE_TRANSFER_DEFICIT"
	EventTransferCancelled      = "TRANSFER_CANCELLED"
	EventCharacterProduction    = "CHARACTER_PRODUCTION"
	EventUpkeepPaid             = "UPKEEP_PAID"
	EventUpkeepDeficit          = "UPKEEP_DEFICIT"
	EventBuildingUpkeepPaid     = "BUILDING_UPKEEP_PAID"
	EventBuildingUpkeepDeficit  = "BUILDING_UPKEEP_DEFICIT"
	EventBuildingDestroyed      = "BUILDING_DESTROYED"
	EventBuildingConstructed    = "BUILDING_CONSTRUCTED"
	EventUnitMobilized          = "UNIT_MOBILIZED"
	EventOrganizationRecovered  = "ORGANIZATION_RECOVERED"
	EventNexusDamaged           = "NEXUS_DAMAGED"
	EventNexusRepaired          = "NEXUS_REPAIRED"
	EventVictoryPointsAssigned  = "VICTORY_POINTS_ASSIGNED"
	EventOrderFailed            = "ORDER_FAILED"
)

// Entity types referenced by events.
const (
	EntityUnit      = "unit"
	EntityTerritory = "territory"
	EntityFaction   = "faction"
	EntityCharacter = "character"
	EntityBuilding  = "building"
	EntityAlliance  = "alliance"
	EntityWar       = "war"
	EntityOrder     = "order"
	EntityNexus     = "spirit_nexus"
)

// Event is one append-only turn log record. EventData carries
// affected_character_ids for audience routing; GM-only events omit it.
type Event struct {
	GuildID    int64          `json:"guild_id"`
	EventID    string         `json:"event_id"`
	TurnNumber int            `json:"turn_number"`
	Phase      string         `json:"phase"`
	EventType  string         `json:"event_type"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	EventData  map[string]any `json:"event_data,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Audience returns the character ids the event should be routed to.
// An empty result means the event is GM-only.
func (e *Event) Audience() []string {
	raw, ok := e.EventData["affected_character_ids"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
