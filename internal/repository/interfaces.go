package repository

import (
	"context"
	"errors"

	"github.com/veldtgames/warcouncil/internal/model"
)

// Store error taxonomy. Adapters translate driver errors into these so
// resolvers and services can branch with errors.Is.
var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on unique-key violations.
	ErrConflict = errors.New("conflict")
	// ErrTransient is returned for retry-eligible failures (serialization,
	// connection drops). The orchestrator retries the phase once.
	ErrTransient = errors.New("transient store error")
)

// Store is the durable world-state contract. Every operation is scoped
// to a single guild.
type Store interface {
	// GuildConfig returns the engine settings for a guild.
	GuildConfig(ctx context.Context, guildID int64) (*model.GuildConfig, error)
	// UpsertGuildConfig writes the engine settings for a guild.
	UpsertGuildConfig(ctx context.Context, cfg *model.GuildConfig) error
	// Begin opens a guild-scoped transaction. The turn service commits
	// once per phase so a crash leaves state consistent at a phase
	// boundary.
	Begin(ctx context.Context, guildID int64) (Txn, error)
}

// Txn is a guild-scoped transactional handle with typed accessors per
// entity. All reads and writes inside one phase go through one Txn.
type Txn interface {
	Commit() error
	Rollback() error

	// Engine settings
	GuildConfig(ctx context.Context) (*model.GuildConfig, error)
	SetCurrentTurn(ctx context.Context, turn int) error

	// Territories and the movement graph
	FetchTerritories(ctx context.Context) ([]*model.Territory, error)
	FetchTerritoryByID(ctx context.Context, territoryID string) (*model.Territory, error)
	UpsertTerritory(ctx context.Context, t *model.Territory) error
	FetchAdjacency(ctx context.Context) ([]*model.TerritoryAdjacency, error)
	InsertAdjacency(ctx context.Context, a *model.TerritoryAdjacency) error

	// Factions, members, permissions
	FetchFactions(ctx context.Context) ([]*model.Faction, error)
	UpsertFaction(ctx context.Context, f *model.Faction) error
	FetchFactionMembers(ctx context.Context) ([]*model.FactionMember, error)
	InsertFactionMember(ctx context.Context, m *model.FactionMember) error
	DeleteFactionMember(ctx context.Context, factionID, characterID string) error
	FetchFactionPermissions(ctx context.Context) ([]*model.FactionPermission, error)
	UpsertFactionPermission(ctx context.Context, p *model.FactionPermission) error

	// Characters
	FetchCharacters(ctx context.Context) ([]*model.Character, error)
	FetchCharacterByID(ctx context.Context, identifier string) (*model.Character, error)
	UpsertCharacter(ctx context.Context, c *model.Character) error

	// Units and templates
	FetchUnits(ctx context.Context) ([]*model.Unit, error)
	FetchUnitByUnitID(ctx context.Context, unitID string) (*model.Unit, error)
	FetchUnitsByTerritory(ctx context.Context, territoryID string) ([]*model.Unit, error)
	UpsertUnit(ctx context.Context, u *model.Unit) error
	FetchUnitTypes(ctx context.Context) ([]*model.UnitType, error)
	UpsertUnitType(ctx context.Context, t *model.UnitType) error
	FetchNavalPositions(ctx context.Context) ([]*model.NavalUnitPosition, error)
	ReplaceNavalPositions(ctx context.Context, unitID string, territoryIDs []string) error

	// Buildings and templates
	FetchBuildings(ctx context.Context) ([]*model.Building, error)
	FetchBuildingsByTerritory(ctx context.Context, territoryID string) ([]*model.Building, error)
	UpsertBuilding(ctx context.Context, b *model.Building) error
	FetchBuildingTypes(ctx context.Context) ([]*model.BuildingType, error)
	UpsertBuildingType(ctx context.Context, t *model.BuildingType) error

	// Resource inventories
	FetchPlayerResources(ctx context.Context) ([]*model.ResourceLedger, error)
	UpsertPlayerResources(ctx context.Context, l *model.ResourceLedger) error
	FetchFactionResources(ctx context.Context) ([]*model.ResourceLedger, error)
	UpsertFactionResources(ctx context.Context, l *model.ResourceLedger) error

	// Diplomacy
	FetchAlliances(ctx context.Context) ([]*model.Alliance, error)
	UpsertAlliance(ctx context.Context, a *model.Alliance) error
	DeleteAlliance(ctx context.Context, factionAID, factionBID string) error
	FetchWars(ctx context.Context) ([]*model.War, error)
	InsertWar(ctx context.Context, w *model.War) error
	FetchWarParticipants(ctx context.Context) ([]*model.WarParticipant, error)
	InsertWarParticipant(ctx context.Context, p *model.WarParticipant) error
	FetchJoinRequests(ctx context.Context) ([]*model.FactionJoinRequest, error)
	InsertJoinRequest(ctx context.Context, r *model.FactionJoinRequest) error
	DeleteJoinRequests(ctx context.Context, factionID, characterID string) error

	// Spirit nexuses
	FetchNexuses(ctx context.Context) ([]*model.SpiritNexus, error)
	UpsertNexus(ctx context.Context, n *model.SpiritNexus) error

	// Orders
	FetchOrdersForPhase(ctx context.Context, turn int, phase string, statuses []string) ([]*model.Order, error)
	FetchOrderByID(ctx context.Context, orderID string) (*model.Order, error)
	FetchOrdersForUnits(ctx context.Context, unitIDs []string, statuses []string) ([]*model.Order, error)
	InsertOrder(ctx context.Context, o *model.Order) error
	UpdateOrder(ctx context.Context, o *model.Order) error

	// Turn log
	InsertEvents(ctx context.Context, events []*model.Event) error
	FetchEventsSinceTurn(ctx context.Context, turn int) ([]*model.Event, error)
}
