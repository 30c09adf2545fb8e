// Package testutil provides in-memory fakes for the repository and
// cache contracts. Tests seed a MemStore directly and assert on its
// state after the code under test runs.
package testutil

import (
	"context"
	"sync"

	"github.com/veldtgames/warcouncil/internal/model"
	"github.com/veldtgames/warcouncil/internal/repository"
)

// MemStore is an in-memory repository.Store. Writes land immediately;
// Commit and Rollback are no-ops, so tests assert on end state only.
type MemStore struct {
	mu     sync.Mutex
	guilds map[int64]*GuildState

	// TransientFetches makes the next n FetchOrdersForPhase calls fail
	// with repository.ErrTransient, for exercising retry paths.
	TransientFetches int
}

// GuildState is one guild's seeded world. Tests mutate it directly.
type GuildState struct {
	Config           model.GuildConfig
	Territories      map[string]*model.Territory
	Adjacency        []*model.TerritoryAdjacency
	Factions         map[string]*model.Faction
	Members          []*model.FactionMember
	Permissions      []*model.FactionPermission
	Characters       map[string]*model.Character
	Units            map[string]*model.Unit
	UnitTypes        map[string]*model.UnitType
	NavalPositions   []*model.NavalUnitPosition
	Buildings        map[string]*model.Building
	BuildingTypes    map[string]*model.BuildingType
	PlayerResources  map[string]*model.ResourceLedger
	FactionResources map[string]*model.ResourceLedger
	Alliances        []*model.Alliance
	Wars             map[string]*model.War
	WarParticipants  []*model.WarParticipant
	JoinRequests     []*model.FactionJoinRequest
	Nexuses          map[string]*model.SpiritNexus
	Orders           map[string]*model.Order
	Events           []*model.Event
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{guilds: make(map[int64]*GuildState)}
}

// Guild returns the guild's state, creating a default one on first use.
func (s *MemStore) Guild(guildID int64) *GuildState {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guilds[guildID]
	if !ok {
		g = &GuildState{
			Config: model.GuildConfig{
				GuildID:               guildID,
				CurrentTurn:           1,
				TurnResolutionEnabled: true,
			},
			Territories:      make(map[string]*model.Territory),
			Factions:         make(map[string]*model.Faction),
			Characters:       make(map[string]*model.Character),
			Units:            make(map[string]*model.Unit),
			UnitTypes:        make(map[string]*model.UnitType),
			Buildings:        make(map[string]*model.Building),
			BuildingTypes:    make(map[string]*model.BuildingType),
			PlayerResources:  make(map[string]*model.ResourceLedger),
			FactionResources: make(map[string]*model.ResourceLedger),
			Wars:             make(map[string]*model.War),
			Nexuses:          make(map[string]*model.SpiritNexus),
			Orders:           make(map[string]*model.Order),
		}
		s.guilds[guildID] = g
	}
	return g
}

// GuildConfig implements repository.Store.
func (s *MemStore) GuildConfig(_ context.Context, guildID int64) (*model.GuildConfig, error) {
	s.mu.Lock()
	g, ok := s.guilds[guildID]
	s.mu.Unlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	cfg := g.Config
	return &cfg, nil
}

// UpsertGuildConfig implements repository.Store.
func (s *MemStore) UpsertGuildConfig(_ context.Context, cfg *model.GuildConfig) error {
	s.Guild(cfg.GuildID).Config = *cfg
	return nil
}

// Begin implements repository.Store.
func (s *MemStore) Begin(_ context.Context, guildID int64) (repository.Txn, error) {
	return &memTxn{store: s, g: s.Guild(guildID)}, nil
}

var _ repository.Store = (*MemStore)(nil)

type memTxn struct {
	store *MemStore
	g     *GuildState
}

var _ repository.Txn = (*memTxn)(nil)

func (t *memTxn) Commit() error   { return nil }
func (t *memTxn) Rollback() error { return nil }

func (t *memTxn) GuildConfig(context.Context) (*model.GuildConfig, error) {
	cfg := t.g.Config
	return &cfg, nil
}

func (t *memTxn) SetCurrentTurn(_ context.Context, turn int) error {
	t.g.Config.CurrentTurn = turn
	return nil
}

func (t *memTxn) FetchTerritories(context.Context) ([]*model.Territory, error) {
	out := make([]*model.Territory, 0, len(t.g.Territories))
	for _, v := range t.g.Territories {
		out = append(out, v)
	}
	return out, nil
}

func (t *memTxn) FetchTerritoryByID(_ context.Context, territoryID string) (*model.Territory, error) {
	if v, ok := t.g.Territories[territoryID]; ok {
		return v, nil
	}
	return nil, repository.ErrNotFound
}

func (t *memTxn) UpsertTerritory(_ context.Context, v *model.Territory) error {
	t.g.Territories[v.TerritoryID] = v
	return nil
}

func (t *memTxn) FetchAdjacency(context.Context) ([]*model.TerritoryAdjacency, error) {
	return append([]*model.TerritoryAdjacency(nil), t.g.Adjacency...), nil
}

func (t *memTxn) InsertAdjacency(_ context.Context, a *model.TerritoryAdjacency) error {
	for _, e := range t.g.Adjacency {
		if e.TerritoryAID == a.TerritoryAID && e.TerritoryBID == a.TerritoryBID {
			return repository.ErrConflict
		}
	}
	t.g.Adjacency = append(t.g.Adjacency, a)
	return nil
}

func (t *memTxn) FetchFactions(context.Context) ([]*model.Faction, error) {
	out := make([]*model.Faction, 0, len(t.g.Factions))
	for _, v := range t.g.Factions {
		out = append(out, v)
	}
	return out, nil
}

func (t *memTxn) UpsertFaction(_ context.Context, v *model.Faction) error {
	t.g.Factions[v.FactionID] = v
	return nil
}

func (t *memTxn) FetchFactionMembers(context.Context) ([]*model.FactionMember, error) {
	return append([]*model.FactionMember(nil), t.g.Members...), nil
}

func (t *memTxn) InsertFactionMember(_ context.Context, m *model.FactionMember) error {
	for _, e := range t.g.Members {
		if e.FactionID == m.FactionID && e.CharacterID == m.CharacterID {
			return repository.ErrConflict
		}
	}
	t.g.Members = append(t.g.Members, m)
	return nil
}

func (t *memTxn) DeleteFactionMember(_ context.Context, factionID, characterID string) error {
	kept := t.g.Members[:0]
	for _, e := range t.g.Members {
		if e.FactionID != factionID || e.CharacterID != characterID {
			kept = append(kept, e)
		}
	}
	t.g.Members = kept
	return nil
}

func (t *memTxn) FetchFactionPermissions(context.Context) ([]*model.FactionPermission, error) {
	return append([]*model.FactionPermission(nil), t.g.Permissions...), nil
}

func (t *memTxn) UpsertFactionPermission(_ context.Context, p *model.FactionPermission) error {
	for _, e := range t.g.Permissions {
		if e.FactionID == p.FactionID && e.CharacterID == p.CharacterID && e.PermissionType == p.PermissionType {
			return nil
		}
	}
	t.g.Permissions = append(t.g.Permissions, p)
	return nil
}

func (t *memTxn) FetchCharacters(context.Context) ([]*model.Character, error) {
	out := make([]*model.Character, 0, len(t.g.Characters))
	for _, v := range t.g.Characters {
		out = append(out, v)
	}
	return out, nil
}

func (t *memTxn) FetchCharacterByID(_ context.Context, identifier string) (*model.Character, error) {
	if v, ok := t.g.Characters[identifier]; ok {
		return v, nil
	}
	return nil, repository.ErrNotFound
}

func (t *memTxn) UpsertCharacter(_ context.Context, v *model.Character) error {
	t.g.Characters[v.Identifier] = v
	return nil
}

func (t *memTxn) FetchUnits(context.Context) ([]*model.Unit, error) {
	out := make([]*model.Unit, 0, len(t.g.Units))
	for _, v := range t.g.Units {
		out = append(out, v)
	}
	return out, nil
}

func (t *memTxn) FetchUnitByUnitID(_ context.Context, unitID string) (*model.Unit, error) {
	if v, ok := t.g.Units[unitID]; ok {
		return v, nil
	}
	return nil, repository.ErrNotFound
}

func (t *memTxn) FetchUnitsByTerritory(_ context.Context, territoryID string) ([]*model.Unit, error) {
	var out []*model.Unit
	for _, v := range t.g.Units {
		if v.CurrentTerritoryID == territoryID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (t *memTxn) UpsertUnit(_ context.Context, v *model.Unit) error {
	t.g.Units[v.UnitID] = v
	return nil
}

func (t *memTxn) FetchUnitTypes(context.Context) ([]*model.UnitType, error) {
	out := make([]*model.UnitType, 0, len(t.g.UnitTypes))
	for _, v := range t.g.UnitTypes {
		out = append(out, v)
	}
	return out, nil
}

func (t *memTxn) UpsertUnitType(_ context.Context, v *model.UnitType) error {
	t.g.UnitTypes[v.UnitTypeID] = v
	return nil
}

func (t *memTxn) FetchNavalPositions(context.Context) ([]*model.NavalUnitPosition, error) {
	return append([]*model.NavalUnitPosition(nil), t.g.NavalPositions...), nil
}

func (t *memTxn) ReplaceNavalPositions(_ context.Context, unitID string, territoryIDs []string) error {
	kept := t.g.NavalPositions[:0]
	for _, e := range t.g.NavalPositions {
		if e.UnitID != unitID {
			kept = append(kept, e)
		}
	}
	t.g.NavalPositions = kept
	for _, terr := range territoryIDs {
		t.g.NavalPositions = append(t.g.NavalPositions, &model.NavalUnitPosition{
			GuildID: t.g.Config.GuildID, UnitID: unitID, TerritoryID: terr,
		})
	}
	return nil
}

func (t *memTxn) FetchBuildings(context.Context) ([]*model.Building, error) {
	out := make([]*model.Building, 0, len(t.g.Buildings))
	for _, v := range t.g.Buildings {
		out = append(out, v)
	}
	return out, nil
}

func (t *memTxn) FetchBuildingsByTerritory(_ context.Context, territoryID string) ([]*model.Building, error) {
	var out []*model.Building
	for _, v := range t.g.Buildings {
		if v.TerritoryID == territoryID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (t *memTxn) UpsertBuilding(_ context.Context, v *model.Building) error {
	t.g.Buildings[v.BuildingID] = v
	return nil
}

func (t *memTxn) FetchBuildingTypes(context.Context) ([]*model.BuildingType, error) {
	out := make([]*model.BuildingType, 0, len(t.g.BuildingTypes))
	for _, v := range t.g.BuildingTypes {
		out = append(out, v)
	}
	return out, nil
}

func (t *memTxn) UpsertBuildingType(_ context.Context, v *model.BuildingType) error {
	t.g.BuildingTypes[v.BuildingTypeID] = v
	return nil
}

func (t *memTxn) FetchPlayerResources(context.Context) ([]*model.ResourceLedger, error) {
	out := make([]*model.ResourceLedger, 0, len(t.g.PlayerResources))
	for _, v := range t.g.PlayerResources {
		out = append(out, v)
	}
	return out, nil
}

func (t *memTxn) UpsertPlayerResources(_ context.Context, l *model.ResourceLedger) error {
	t.g.PlayerResources[l.OwnerID] = l
	return nil
}

func (t *memTxn) FetchFactionResources(context.Context) ([]*model.ResourceLedger, error) {
	out := make([]*model.ResourceLedger, 0, len(t.g.FactionResources))
	for _, v := range t.g.FactionResources {
		out = append(out, v)
	}
	return out, nil
}

func (t *memTxn) UpsertFactionResources(_ context.Context, l *model.ResourceLedger) error {
	t.g.FactionResources[l.OwnerID] = l
	return nil
}

func (t *memTxn) FetchAlliances(context.Context) ([]*model.Alliance, error) {
	return append([]*model.Alliance(nil), t.g.Alliances...), nil
}

func (t *memTxn) UpsertAlliance(_ context.Context, a *model.Alliance) error {
	for i, e := range t.g.Alliances {
		if e.FactionAID == a.FactionAID && e.FactionBID == a.FactionBID {
			t.g.Alliances[i] = a
			return nil
		}
	}
	t.g.Alliances = append(t.g.Alliances, a)
	return nil
}

func (t *memTxn) DeleteAlliance(_ context.Context, factionAID, factionBID string) error {
	kept := t.g.Alliances[:0]
	for _, e := range t.g.Alliances {
		if e.FactionAID != factionAID || e.FactionBID != factionBID {
			kept = append(kept, e)
		}
	}
	t.g.Alliances = kept
	return nil
}

func (t *memTxn) FetchWars(context.Context) ([]*model.War, error) {
	out := make([]*model.War, 0, len(t.g.Wars))
	for _, v := range t.g.Wars {
		out = append(out, v)
	}
	return out, nil
}

func (t *memTxn) InsertWar(_ context.Context, w *model.War) error {
	if _, ok := t.g.Wars[w.WarID]; ok {
		return repository.ErrConflict
	}
	t.g.Wars[w.WarID] = w
	return nil
}

func (t *memTxn) FetchWarParticipants(context.Context) ([]*model.WarParticipant, error) {
	return append([]*model.WarParticipant(nil), t.g.WarParticipants...), nil
}

func (t *memTxn) InsertWarParticipant(_ context.Context, p *model.WarParticipant) error {
	t.g.WarParticipants = append(t.g.WarParticipants, p)
	return nil
}

func (t *memTxn) FetchJoinRequests(context.Context) ([]*model.FactionJoinRequest, error) {
	return append([]*model.FactionJoinRequest(nil), t.g.JoinRequests...), nil
}

func (t *memTxn) InsertJoinRequest(_ context.Context, r *model.FactionJoinRequest) error {
	t.g.JoinRequests = append(t.g.JoinRequests, r)
	return nil
}

func (t *memTxn) DeleteJoinRequests(_ context.Context, factionID, characterID string) error {
	kept := t.g.JoinRequests[:0]
	for _, e := range t.g.JoinRequests {
		if e.FactionID != factionID || e.CharacterID != characterID {
			kept = append(kept, e)
		}
	}
	t.g.JoinRequests = kept
	return nil
}

func (t *memTxn) FetchNexuses(context.Context) ([]*model.SpiritNexus, error) {
	out := make([]*model.SpiritNexus, 0, len(t.g.Nexuses))
	for _, v := range t.g.Nexuses {
		out = append(out, v)
	}
	return out, nil
}

func (t *memTxn) UpsertNexus(_ context.Context, n *model.SpiritNexus) error {
	t.g.Nexuses[n.Identifier] = n
	return nil
}

func (t *memTxn) FetchOrdersForPhase(_ context.Context, turn int, phase string, statuses []string) ([]*model.Order, error) {
	t.store.mu.Lock()
	if t.store.TransientFetches > 0 {
		t.store.TransientFetches--
		t.store.mu.Unlock()
		return nil, repository.ErrTransient
	}
	t.store.mu.Unlock()

	var out []*model.Order
	for _, o := range t.g.Orders {
		if o.Phase == phase && o.TurnNumber <= turn && statusIn(o.Status, statuses) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (t *memTxn) FetchOrderByID(_ context.Context, orderID string) (*model.Order, error) {
	if o, ok := t.g.Orders[orderID]; ok {
		return o, nil
	}
	return nil, repository.ErrNotFound
}

func (t *memTxn) FetchOrdersForUnits(_ context.Context, unitIDs []string, statuses []string) ([]*model.Order, error) {
	var out []*model.Order
	for _, o := range t.g.Orders {
		if !statusIn(o.Status, statuses) {
			continue
		}
		for _, id := range unitIDs {
			if o.HasUnit(id) {
				out = append(out, o)
				break
			}
		}
	}
	return out, nil
}

func (t *memTxn) InsertOrder(_ context.Context, o *model.Order) error {
	if _, ok := t.g.Orders[o.OrderID]; ok {
		return repository.ErrConflict
	}
	t.g.Orders[o.OrderID] = o
	return nil
}

func (t *memTxn) UpdateOrder(_ context.Context, o *model.Order) error {
	if _, ok := t.g.Orders[o.OrderID]; !ok {
		return repository.ErrNotFound
	}
	t.g.Orders[o.OrderID] = o
	return nil
}

func (t *memTxn) InsertEvents(_ context.Context, events []*model.Event) error {
	t.g.Events = append(t.g.Events, events...)
	return nil
}

func (t *memTxn) FetchEventsSinceTurn(_ context.Context, turn int) ([]*model.Event, error) {
	var out []*model.Event
	for _, e := range t.g.Events {
		if e.TurnNumber >= turn {
			out = append(out, e)
		}
	}
	return out, nil
}

func statusIn(status string, statuses []string) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
