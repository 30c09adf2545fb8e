package wargame

import "github.com/veldtgames/warcouncil/internal/model"

// ChangeSet accumulates the entities a phase touched so the turn service
// can persist exactly those rows when the phase commits.
type ChangeSet struct {
	Territories      map[string]bool
	Characters       map[string]bool
	Factions         map[string]bool
	Units            map[string]bool
	Buildings        map[string]bool
	Nexuses          map[string]bool
	PlayerResources  map[string]bool
	FactionResources map[string]bool
	NavalPositions   map[string]bool

	AllianceUpserts       []*model.Alliance
	AllianceDeletes       [][2]string
	WarInserts            []*model.War
	WarParticipantInserts []*model.WarParticipant
	MemberInserts         []*model.FactionMember
	MemberDeletes         [][2]string // faction id, character id
	JoinRequestInserts    []*model.FactionJoinRequest
	JoinRequestDeletes    [][2]string // faction id, character id

	// OrderUpdates holds orders mutated outside the phase's own dispatch
	// batch (transport coupling, capture settlement), which the turn
	// service must persist alongside the batch.
	OrderUpdates []*model.Order
}

// NewChangeSet returns an empty change set.
func NewChangeSet() *ChangeSet {
	return &ChangeSet{
		Territories:      make(map[string]bool),
		Characters:       make(map[string]bool),
		Factions:         make(map[string]bool),
		Units:            make(map[string]bool),
		Buildings:        make(map[string]bool),
		Nexuses:          make(map[string]bool),
		PlayerResources:  make(map[string]bool),
		FactionResources: make(map[string]bool),
		NavalPositions:   make(map[string]bool),
	}
}

func (c *ChangeSet) TouchTerritory(id string)        { c.Territories[id] = true }
func (c *ChangeSet) TouchCharacter(id string)        { c.Characters[id] = true }
func (c *ChangeSet) TouchFaction(id string)          { c.Factions[id] = true }
func (c *ChangeSet) TouchUnit(id string)             { c.Units[id] = true }
func (c *ChangeSet) TouchBuilding(id string)         { c.Buildings[id] = true }
func (c *ChangeSet) TouchNexus(id string)            { c.Nexuses[id] = true }
func (c *ChangeSet) TouchPlayerResources(id string)  { c.PlayerResources[id] = true }
func (c *ChangeSet) TouchFactionResources(id string) { c.FactionResources[id] = true }
func (c *ChangeSet) TouchNavalPositions(id string)   { c.NavalPositions[id] = true }

// Reset clears the change set after a phase commit.
func (c *ChangeSet) Reset() {
	*c = *NewChangeSet()
}
