package wargame

import (
	"encoding/json"
	"fmt"

	"github.com/veldtgames/warcouncil/internal/model"
)

// Movement execution statuses persisted in UNIT order data between turns.
const (
	MoveStatusMoving              = "MOVING"
	MoveStatusEngaged             = "ENGAGED"
	MoveStatusPathComplete        = "PATH_COMPLETE"
	MoveStatusOutOfMP             = "OUT_OF_MP"
	MoveStatusWaitingForTransport = "WAITING_FOR_TRANSPORT"
	MoveStatusWaitingForCargo     = "WAITING_FOR_CARGO"
	MoveStatusTransported         = "TRANSPORTED"
)

// UnitOrderData is the typed payload of a UNIT order. Path progress and
// transport coupling state are persisted here between turns.
type UnitOrderData struct {
	Action    string   `json:"action"`
	Path      []string `json:"path"`
	Speed     int      `json:"speed,omitempty"` // patrol MP cap per turn; at least 1 for patrols
	PathIndex int      `json:"path_index"`
	Status    string   `json:"movement_status,omitempty"`
	BlockedAt string   `json:"blocked_at,omitempty"`

	// Transport decomposition, extracted at submission for action
	// "transport" and consumed during coupling.
	WaterPath          []string `json:"water_path,omitempty"`
	CoastTerritory     string   `json:"coast_territory,omitempty"`
	DisembarkTerritory string   `json:"disembark_territory,omitempty"`

	// CarryingUnits is persisted on a naval_transport order at the moment
	// of coupling so cargo destruction never depends on recomputation.
	CarryingUnits []string `json:"carrying_units,omitempty"`
	// CarrierUnitID is set on the land transport order once coupled.
	CarrierUnitID string `json:"carrier_unit_id,omitempty"`
}

// TransferData is the payload of a RESOURCE_TRANSFER order. The sender
// is the submitting character unless SenderFactionID names a faction
// treasury instead.
type TransferData struct {
	SenderFactionID string          `json:"sender_faction_id,omitempty"`
	RecipientID     string          `json:"recipient_id"`
	RecipientKind   string          `json:"recipient_kind,omitempty"` // "character" (default) or "faction"
	Amounts         model.Resources `json:"amounts"`
	Term            *int            `json:"term,omitempty"` // nil = until cancelled
	TurnsExecuted   int             `json:"turns_executed"`
}

// CancelTransferData names the ongoing transfer order to cancel.
type CancelTransferData struct {
	TargetOrderID string `json:"target_order_id"`
}

// JoinFactionData is one half of the faction join handshake.
type JoinFactionData struct {
	FactionID         string `json:"faction_id"`
	SubmittedBy       string `json:"submitted_by"` // "character" or "leader"
	TargetCharacterID string `json:"target_character_id,omitempty"`
}

// LeaveFactionData names the membership to drop.
type LeaveFactionData struct {
	FactionID string `json:"faction_id"`
}

// KickData names the member to remove.
type KickData struct {
	FactionID         string `json:"faction_id"`
	TargetCharacterID string `json:"target_character_id"`
}

// AllianceData carries the submitter's faction and the counterparty for
// MAKE_ALLIANCE and DISSOLVE_ALLIANCE.
type AllianceData struct {
	FactionID       string `json:"faction_id"`
	TargetFactionID string `json:"target_faction_id"`
}

// DeclareWarData carries the declaration targets and objective.
type DeclareWarData struct {
	FactionID        string   `json:"faction_id"`
	TargetFactionIDs []string `json:"target_faction_ids"`
	Objective        string   `json:"objective"`
}

// AssignCommanderData names the new commander for the order's unit.
type AssignCommanderData struct {
	NewCommanderID string `json:"new_commander_id"`
}

// AssignVictoryPointsData drips victory points from a territory's pool
// to a character while ONGOING.
type AssignVictoryPointsData struct {
	TerritoryID       string `json:"territory_id"`
	TargetCharacterID string `json:"target_character_id"`
	TurnsActive       int    `json:"turns_active"`
}

// MobilizationData raises a new unit at a territory.
type MobilizationData struct {
	UnitTypeID  string `json:"unit_type_id"`
	TerritoryID string `json:"territory_id"`
	UnitName    string `json:"unit_name,omitempty"`
}

// ConstructionData erects a building in a territory.
type ConstructionData struct {
	BuildingTypeID string `json:"building_type_id"`
	TerritoryID    string `json:"territory_id"`
}

func decodeData(o *model.Order, v any) error {
	if len(o.Data) == 0 {
		return fmt.Errorf("order %s has no order data", o.OrderID)
	}
	if err := json.Unmarshal(o.Data, v); err != nil {
		return fmt.Errorf("decode %s order %s: %w", o.OrderType, o.OrderID, err)
	}
	return nil
}

func encodeData(o *model.Order, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		// Payload structs marshal unconditionally; a failure here is a
		// programming error.
		panic(fmt.Sprintf("encode order data for %s: %v", o.OrderID, err))
	}
	o.Data = raw
}

// DecodeUnitOrderData parses a UNIT order payload.
func DecodeUnitOrderData(o *model.Order) (*UnitOrderData, error) {
	var d UnitOrderData
	if err := decodeData(o, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// EncodeUnitOrderData writes the payload back onto the order.
func EncodeUnitOrderData(o *model.Order, d *UnitOrderData) { encodeData(o, d) }

// DecodeTransferData parses a RESOURCE_TRANSFER payload.
func DecodeTransferData(o *model.Order) (*TransferData, error) {
	var d TransferData
	if err := decodeData(o, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// EncodeTransferData writes the payload back onto the order.
func EncodeTransferData(o *model.Order, d *TransferData) { encodeData(o, d) }

// DecodeCancelTransferData parses a CANCEL_TRANSFER payload.
func DecodeCancelTransferData(o *model.Order) (*CancelTransferData, error) {
	var d CancelTransferData
	if err := decodeData(o, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// DecodeJoinFactionData parses a JOIN_FACTION payload.
func DecodeJoinFactionData(o *model.Order) (*JoinFactionData, error) {
	var d JoinFactionData
	if err := decodeData(o, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// DecodeLeaveFactionData parses a LEAVE_FACTION payload.
func DecodeLeaveFactionData(o *model.Order) (*LeaveFactionData, error) {
	var d LeaveFactionData
	if err := decodeData(o, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// DecodeKickData parses a KICK_FROM_FACTION payload.
func DecodeKickData(o *model.Order) (*KickData, error) {
	var d KickData
	if err := decodeData(o, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// DecodeAllianceData parses a MAKE_ALLIANCE or DISSOLVE_ALLIANCE payload.
func DecodeAllianceData(o *model.Order) (*AllianceData, error) {
	var d AllianceData
	if err := decodeData(o, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// DecodeDeclareWarData parses a DECLARE_WAR payload.
func DecodeDeclareWarData(o *model.Order) (*DeclareWarData, error) {
	var d DeclareWarData
	if err := decodeData(o, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// DecodeAssignCommanderData parses an ASSIGN_COMMANDER payload.
func DecodeAssignCommanderData(o *model.Order) (*AssignCommanderData, error) {
	var d AssignCommanderData
	if err := decodeData(o, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// DecodeAssignVictoryPointsData parses an ASSIGN_VICTORY_POINTS payload.
func DecodeAssignVictoryPointsData(o *model.Order) (*AssignVictoryPointsData, error) {
	var d AssignVictoryPointsData
	if err := decodeData(o, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// EncodeAssignVictoryPointsData writes the payload back onto the order.
func EncodeAssignVictoryPointsData(o *model.Order, d *AssignVictoryPointsData) { encodeData(o, d) }

// DecodeMobilizationData parses a MOBILIZATION payload.
func DecodeMobilizationData(o *model.Order) (*MobilizationData, error) {
	var d MobilizationData
	if err := decodeData(o, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// DecodeConstructionData parses a CONSTRUCTION payload.
func DecodeConstructionData(o *model.Order) (*ConstructionData, error) {
	var d ConstructionData
	if err := decodeData(o, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
