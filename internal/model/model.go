package model

import "time"

// GuildConfig holds per-tenant engine settings.
type GuildConfig struct {
	GuildID               int64  `json:"guild_id"`
	CurrentTurn           int    `json:"current_turn"`
	TurnResolutionEnabled bool   `json:"turn_resolution_enabled"`
	MaxMovementStat       int    `json:"max_movement_stat"`
	GMReportsChannelID    string `json:"gm_reports_channel_id,omitempty"`
}

// Territory is a map tile. Controller is a character XOR a faction,
// never both.
type Territory struct {
	GuildID               int64     `json:"guild_id"`
	TerritoryID           string    `json:"territory_id"`
	Name                  string    `json:"name"`
	TerrainType           string    `json:"terrain_type"`
	Production            Resources `json:"production"`
	ControllerCharacterID string    `json:"controller_character_id,omitempty"`
	ControllerFactionID   string    `json:"controller_faction_id,omitempty"`
	OriginalNation        string    `json:"original_nation,omitempty"`
	VictoryPoints         int       `json:"victory_points"`
	SiegeDefense          int       `json:"siege_defense"`
	Keywords              Keywords  `json:"keywords,omitempty"`
}

// Terrain types. Water terrains are traversable only by naval units.
const (
	TerrainPlains   = "plains"
	TerrainMountain = "mountain"
	TerrainDesert   = "desert"
	TerrainForest   = "forest"
	TerrainCity     = "city"
	TerrainOcean    = "ocean"
	TerrainLake     = "lake"
	TerrainSea      = "sea"
	TerrainWater    = "water"
)

// IsWaterTerrain reports whether the terrain is traversable by naval units.
func IsWaterTerrain(terrain string) bool {
	switch terrain {
	case TerrainOcean, TerrainLake, TerrainSea, TerrainWater:
		return true
	}
	return false
}

// TerritoryAdjacency is an undirected edge of the movement graph.
// Rows are canonical: TerritoryAID < TerritoryBID.
type TerritoryAdjacency struct {
	GuildID      int64  `json:"guild_id"`
	TerritoryAID string `json:"territory_a_id"`
	TerritoryBID string `json:"territory_b_id"`
}

// Faction is a player-run polity.
type Faction struct {
	GuildID           int64  `json:"guild_id"`
	FactionID         string `json:"faction_id"`
	Name              string `json:"name"`
	Nation            string `json:"nation,omitempty"`
	LeaderCharacterID string `json:"leader_character_id,omitempty"`
	HasDeclaredWar    bool   `json:"has_declared_war"`
	CreatedTurn       int    `json:"created_turn"`
}

// FactionMember links a character to a faction.
type FactionMember struct {
	GuildID     int64  `json:"guild_id"`
	FactionID   string `json:"faction_id"`
	CharacterID string `json:"character_id"`
	JoinedTurn  int    `json:"joined_turn"`
}

// Faction permission types. The leader implicitly holds all of them.
const (
	PermCommand      = "COMMAND"
	PermFinancial    = "FINANCIAL"
	PermMembership   = "MEMBERSHIP"
	PermConstruction = "CONSTRUCTION"
)

// FactionPermission grants a named permission to a member.
type FactionPermission struct {
	GuildID        int64  `json:"guild_id"`
	FactionID      string `json:"faction_id"`
	CharacterID    string `json:"character_id"`
	PermissionType string `json:"permission_type"`
}

// Character is a player avatar.
type Character struct {
	GuildID                   int64     `json:"guild_id"`
	Identifier                string    `json:"identifier"`
	Name                      string    `json:"name"`
	UserID                    string    `json:"user_id,omitempty"`
	Production                Resources `json:"production"`
	VictoryPoints             int       `json:"victory_points"`
	RepresentedFactionID      string    `json:"represented_faction_id,omitempty"`
	RepresentationChangedTurn int       `json:"representation_changed_turn"`
}

// Unit statuses.
const (
	UnitActive    = "ACTIVE"
	UnitDisbanded = "DISBANDED"
)

// Unit keywords recognized by the resolvers.
const (
	KwInfantry        = "infantry"
	KwCavalry         = "cavalry"
	KwNaval           = "naval"
	KwAerial          = "aerial"
	KwAerialTransport = "aerial-transport"
	KwInfiltrator     = "infiltrator"
	KwSpirit          = "spirit"
	KwSubmarine       = "submarine"
	KwHostile         = "hostile"
	KwImmobile        = "immobile"
)

// Building keywords recognized by the resolvers.
const (
	KwIndustrial    = "industrial"
	KwHospital      = "hospital"
	KwSpiritual     = "spiritual"
	KwFortification = "fortification"
)

// Unit is an army, fleet, or wing on the map. A naval unit's position is
// the set of rows in NavalUnitPosition; CurrentTerritoryID then holds its
// anchor territory.
type Unit struct {
	GuildID               int64     `json:"guild_id"`
	UnitID                string    `json:"unit_id"`
	Name                  string    `json:"name"`
	UnitType              string    `json:"unit_type"`
	CurrentTerritoryID    string    `json:"current_territory_id,omitempty"`
	OwnerCharacterID      string    `json:"owner_character_id,omitempty"`
	OwnerFactionID        string    `json:"owner_faction_id,omitempty"`
	CommanderCharacterID  string    `json:"commander_character_id,omitempty"`
	CommanderAssignedTurn int       `json:"commander_assigned_turn,omitempty"`
	FactionID             string    `json:"faction_id,omitempty"`
	Movement              int       `json:"movement"`
	Attack                int       `json:"attack"`
	Defense               int       `json:"defense"`
	SiegeAttack           int       `json:"siege_attack"`
	SiegeDefense          int       `json:"siege_defense"`
	Size                  int       `json:"size"`
	Capacity              int       `json:"capacity"`
	Organization          int       `json:"organization"`
	MaxOrganization       int       `json:"max_organization"`
	Status                string    `json:"status"`
	Upkeep                Resources `json:"upkeep"`
	Keywords              Keywords  `json:"keywords,omitempty"`
	CreatedTurn           int       `json:"created_turn"`
}

// IsNaval reports whether the unit moves on water.
func (u *Unit) IsNaval() bool { return u.Keywords.Has(KwNaval) }

// UnitType is an immutable unit template.
type UnitType struct {
	GuildID         int64     `json:"guild_id"`
	UnitTypeID      string    `json:"unit_type_id"`
	Name            string    `json:"name"`
	Nation          string    `json:"nation,omitempty"`
	Movement        int       `json:"movement"`
	Attack          int       `json:"attack"`
	Defense         int       `json:"defense"`
	SiegeAttack     int       `json:"siege_attack"`
	SiegeDefense    int       `json:"siege_defense"`
	Size            int       `json:"size"`
	Capacity        int       `json:"capacity"`
	MaxOrganization int       `json:"max_organization"`
	Cost            Resources `json:"cost"`
	Upkeep          Resources `json:"upkeep"`
	Keywords        Keywords  `json:"keywords,omitempty"`
}

// BuildingType is an immutable building template.
type BuildingType struct {
	GuildID        int64     `json:"guild_id"`
	BuildingTypeID string    `json:"building_type_id"`
	Name           string    `json:"name"`
	Nation         string    `json:"nation,omitempty"`
	MaxDurability  int       `json:"max_durability"`
	Cost           Resources `json:"cost"`
	Upkeep         Resources `json:"upkeep"`
	Keywords       Keywords  `json:"keywords,omitempty"`
}

// Building statuses.
const (
	BuildingActive    = "ACTIVE"
	BuildingDestroyed = "DESTROYED"
)

// Building is a constructed improvement in a territory. At most one
// ACTIVE building of a given type per territory.
type Building struct {
	GuildID        int64     `json:"guild_id"`
	BuildingID     string    `json:"building_id"`
	BuildingTypeID string    `json:"building_type_id"`
	TerritoryID    string    `json:"territory_id"`
	Durability     int       `json:"durability"`
	Status         string    `json:"status"`
	Upkeep         Resources `json:"upkeep"`
	Keywords       Keywords  `json:"keywords,omitempty"`
	BuiltTurn      int       `json:"built_turn"`
}

// Alliance statuses. Rows are canonical: FactionAID < FactionBID.
const (
	AlliancePendingA = "PENDING_FACTION_A"
	AlliancePendingB = "PENDING_FACTION_B"
	AllianceActive   = "ACTIVE"
)

// Alliance is a two-party pact. While pending, the status names the
// faction whose agreement is still outstanding.
type Alliance struct {
	GuildID              int64      `json:"guild_id"`
	FactionAID           string     `json:"faction_a_id"`
	FactionBID           string     `json:"faction_b_id"`
	Status               string     `json:"status"`
	InitiatedByFactionID string     `json:"initiated_by_faction_id"`
	ActivatedAt          *time.Time `json:"activated_at,omitempty"`
	ActivatedTurn        int        `json:"activated_turn,omitempty"`
}

// War sides.
const (
	SideA = "SIDE_A"
	SideB = "SIDE_B"
)

// War groups factions around a shared objective. Objectives are
// case-insensitively unique per guild.
type War struct {
	GuildID      int64  `json:"guild_id"`
	WarID        string `json:"war_id"`
	Objective    string `json:"objective"`
	DeclaredTurn int    `json:"declared_turn"`
}

// WarParticipant places a faction on one side of a war.
type WarParticipant struct {
	GuildID            int64  `json:"guild_id"`
	WarID              string `json:"war_id"`
	FactionID          string `json:"faction_id"`
	Side               string `json:"side"`
	JoinedTurn         int    `json:"joined_turn"`
	IsOriginalDeclarer bool   `json:"is_original_declarer"`
}

// SpiritNexus is a world anchor whose health shifts with industrial and
// spiritual construction. Health may go negative.
type SpiritNexus struct {
	GuildID     int64  `json:"guild_id"`
	Identifier  string `json:"identifier"`
	TerritoryID string `json:"territory_id"`
	Health      int    `json:"health"`
}

// Nexus identifiers that redirect damage to each other.
const (
	NexusSouthPole = "south-pole"
	NexusNorthPole = "north-pole"
)

// NavalUnitPosition is one water territory a naval unit currently
// occupies. Convoys and patrols occupy several at once.
type NavalUnitPosition struct {
	GuildID     int64  `json:"guild_id"`
	UnitID      string `json:"unit_id"`
	TerritoryID string `json:"territory_id"`
}

// FactionJoinRequest is one half of the two-sided faction join
// handshake. SubmittedBy records which side asked.
type FactionJoinRequest struct {
	GuildID     int64  `json:"guild_id"`
	FactionID   string `json:"faction_id"`
	CharacterID string `json:"character_id"`
	SubmittedBy string `json:"submitted_by"` // "character" or "leader"
	CreatedTurn int    `json:"created_turn"`
}

// ResourceLedger is a character's or faction's resource inventory.
// OwnerID is the character identifier or faction id.
type ResourceLedger struct {
	GuildID int64     `json:"guild_id"`
	OwnerID string    `json:"owner_id"`
	Amounts Resources `json:"amounts"`
}
