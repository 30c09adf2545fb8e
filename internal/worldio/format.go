// Package worldio imports and exports a guild's world state as YAML.
// The format is the setup interchange for game masters: a full map,
// templates, factions, and starting forces in one reviewable file.
package worldio

import (
	"github.com/veldtgames/warcouncil/internal/model"
)

// WorldFile is the root document of a world YAML file.
type WorldFile struct {
	GuildID int64      `yaml:"guild_id"`
	Config  ConfigFile `yaml:"config"`

	Territories []TerritoryFile `yaml:"territories"`
	Adjacency   [][2]string     `yaml:"adjacency"`
	Nexuses     []NexusFile     `yaml:"spirit_nexuses,omitempty"`

	Factions    []FactionFile    `yaml:"factions,omitempty"`
	Members     []MemberFile     `yaml:"faction_members,omitempty"`
	Permissions []PermissionFile `yaml:"faction_permissions,omitempty"`
	Characters  []CharacterFile  `yaml:"characters,omitempty"`

	UnitTypes      []UnitTypeFile      `yaml:"unit_types,omitempty"`
	Units          []UnitFile          `yaml:"units,omitempty"`
	BuildingTypes  []BuildingTypeFile  `yaml:"building_types,omitempty"`
	Buildings      []BuildingFile      `yaml:"buildings,omitempty"`
	NavalPositions []NavalPositionFile `yaml:"naval_positions,omitempty"`

	PlayerResources  []LedgerFile `yaml:"player_resources,omitempty"`
	FactionResources []LedgerFile `yaml:"faction_resources,omitempty"`

	Alliances       []AllianceFile       `yaml:"alliances,omitempty"`
	Wars            []WarFile            `yaml:"wars,omitempty"`
	WarParticipants []WarParticipantFile `yaml:"war_participants,omitempty"`
}

// ConfigFile mirrors GuildConfig.
type ConfigFile struct {
	CurrentTurn           int    `yaml:"current_turn"`
	TurnResolutionEnabled bool   `yaml:"turn_resolution_enabled"`
	MaxMovementStat       int    `yaml:"max_movement_stat,omitempty"`
	GMReportsChannelID    string `yaml:"gm_reports_channel_id,omitempty"`
}

// TerritoryFile mirrors Territory.
type TerritoryFile struct {
	TerritoryID           string          `yaml:"territory_id"`
	Name                  string          `yaml:"name"`
	TerrainType           string          `yaml:"terrain_type"`
	Production            model.Resources `yaml:"production,omitempty"`
	ControllerCharacterID string          `yaml:"controller_character_id,omitempty"`
	ControllerFactionID   string          `yaml:"controller_faction_id,omitempty"`
	OriginalNation        string          `yaml:"original_nation,omitempty"`
	VictoryPoints         int             `yaml:"victory_points,omitempty"`
	SiegeDefense          int             `yaml:"siege_defense,omitempty"`
	Keywords              []string        `yaml:"keywords,omitempty"`
}

// NexusFile mirrors SpiritNexus.
type NexusFile struct {
	Identifier  string `yaml:"identifier"`
	TerritoryID string `yaml:"territory_id"`
	Health      int    `yaml:"health"`
}

// FactionFile mirrors Faction.
type FactionFile struct {
	FactionID         string `yaml:"faction_id"`
	Name              string `yaml:"name"`
	Nation            string `yaml:"nation,omitempty"`
	LeaderCharacterID string `yaml:"leader_character_id,omitempty"`
	HasDeclaredWar    bool   `yaml:"has_declared_war,omitempty"`
	CreatedTurn       int    `yaml:"created_turn,omitempty"`
}

// MemberFile mirrors FactionMember.
type MemberFile struct {
	FactionID   string `yaml:"faction_id"`
	CharacterID string `yaml:"character_id"`
	JoinedTurn  int    `yaml:"joined_turn,omitempty"`
}

// PermissionFile mirrors FactionPermission.
type PermissionFile struct {
	FactionID      string `yaml:"faction_id"`
	CharacterID    string `yaml:"character_id"`
	PermissionType string `yaml:"permission_type"`
}

// CharacterFile mirrors Character.
type CharacterFile struct {
	Identifier                string          `yaml:"identifier"`
	Name                      string          `yaml:"name"`
	UserID                    string          `yaml:"user_id,omitempty"`
	Production                model.Resources `yaml:"production,omitempty"`
	VictoryPoints             int             `yaml:"victory_points,omitempty"`
	RepresentedFactionID      string          `yaml:"represented_faction_id,omitempty"`
	RepresentationChangedTurn int             `yaml:"representation_changed_turn,omitempty"`
}

// UnitTypeFile mirrors UnitType.
type UnitTypeFile struct {
	UnitTypeID      string          `yaml:"unit_type_id"`
	Name            string          `yaml:"name"`
	Nation          string          `yaml:"nation,omitempty"`
	Movement        int             `yaml:"movement"`
	Attack          int             `yaml:"attack"`
	Defense         int             `yaml:"defense"`
	SiegeAttack     int             `yaml:"siege_attack,omitempty"`
	SiegeDefense    int             `yaml:"siege_defense,omitempty"`
	Size            int             `yaml:"size"`
	Capacity        int             `yaml:"capacity,omitempty"`
	MaxOrganization int             `yaml:"max_organization"`
	Cost            model.Resources `yaml:"cost,omitempty"`
	Upkeep          model.Resources `yaml:"upkeep,omitempty"`
	Keywords        []string        `yaml:"keywords,omitempty"`
}

// UnitFile mirrors Unit.
type UnitFile struct {
	UnitID                string          `yaml:"unit_id"`
	Name                  string          `yaml:"name"`
	UnitType              string          `yaml:"unit_type,omitempty"`
	CurrentTerritoryID    string          `yaml:"current_territory_id,omitempty"`
	OwnerCharacterID      string          `yaml:"owner_character_id,omitempty"`
	OwnerFactionID        string          `yaml:"owner_faction_id,omitempty"`
	CommanderCharacterID  string          `yaml:"commander_character_id,omitempty"`
	CommanderAssignedTurn int             `yaml:"commander_assigned_turn,omitempty"`
	FactionID             string          `yaml:"faction_id,omitempty"`
	Movement              int             `yaml:"movement"`
	Attack                int             `yaml:"attack"`
	Defense               int             `yaml:"defense"`
	SiegeAttack           int             `yaml:"siege_attack,omitempty"`
	SiegeDefense          int             `yaml:"siege_defense,omitempty"`
	Size                  int             `yaml:"size"`
	Capacity              int             `yaml:"capacity,omitempty"`
	Organization          int             `yaml:"organization"`
	MaxOrganization       int             `yaml:"max_organization"`
	Status                string          `yaml:"status,omitempty"`
	Upkeep                model.Resources `yaml:"upkeep,omitempty"`
	Keywords              []string        `yaml:"keywords,omitempty"`
	CreatedTurn           int             `yaml:"created_turn,omitempty"`
}

// BuildingTypeFile mirrors BuildingType.
type BuildingTypeFile struct {
	BuildingTypeID string          `yaml:"building_type_id"`
	Name           string          `yaml:"name"`
	Nation         string          `yaml:"nation,omitempty"`
	MaxDurability  int             `yaml:"max_durability"`
	Cost           model.Resources `yaml:"cost,omitempty"`
	Upkeep         model.Resources `yaml:"upkeep,omitempty"`
	Keywords       []string        `yaml:"keywords,omitempty"`
}

// BuildingFile mirrors Building.
type BuildingFile struct {
	BuildingID     string          `yaml:"building_id"`
	BuildingTypeID string          `yaml:"building_type_id"`
	TerritoryID    string          `yaml:"territory_id"`
	Durability     int             `yaml:"durability"`
	Status         string          `yaml:"status,omitempty"`
	Upkeep         model.Resources `yaml:"upkeep,omitempty"`
	Keywords       []string        `yaml:"keywords,omitempty"`
	BuiltTurn      int             `yaml:"built_turn,omitempty"`
}

// NavalPositionFile lists the water territories a naval unit occupies.
type NavalPositionFile struct {
	UnitID       string   `yaml:"unit_id"`
	TerritoryIDs []string `yaml:"territory_ids"`
}

// LedgerFile mirrors ResourceLedger.
type LedgerFile struct {
	OwnerID string          `yaml:"owner_id"`
	Amounts model.Resources `yaml:"amounts"`
}

// AllianceFile mirrors Alliance.
type AllianceFile struct {
	FactionAID           string `yaml:"faction_a_id"`
	FactionBID           string `yaml:"faction_b_id"`
	Status               string `yaml:"status"`
	InitiatedByFactionID string `yaml:"initiated_by_faction_id,omitempty"`
	ActivatedTurn        int    `yaml:"activated_turn,omitempty"`
}

// WarFile mirrors War.
type WarFile struct {
	WarID        string `yaml:"war_id"`
	Objective    string `yaml:"objective"`
	DeclaredTurn int    `yaml:"declared_turn,omitempty"`
}

// WarParticipantFile mirrors WarParticipant.
type WarParticipantFile struct {
	WarID              string `yaml:"war_id"`
	FactionID          string `yaml:"faction_id"`
	Side               string `yaml:"side"`
	JoinedTurn         int    `yaml:"joined_turn,omitempty"`
	IsOriginalDeclarer bool   `yaml:"is_original_declarer,omitempty"`
}
