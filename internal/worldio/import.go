package worldio

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/veldtgames/warcouncil/internal/logger"
	"github.com/veldtgames/warcouncil/internal/model"
	"github.com/veldtgames/warcouncil/internal/repository"
	"github.com/veldtgames/warcouncil/pkg/wargame"
)

// Parse decodes a world file without touching the store.
func Parse(r io.Reader) (*WorldFile, error) {
	var wf WorldFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&wf); err != nil {
		return nil, fmt.Errorf("decode world file: %w", err)
	}
	return &wf, nil
}

// Validate checks the file's internal references before any write. It
// returns the first problem found.
func (wf *WorldFile) Validate() error {
	if wf.GuildID <= 0 {
		return fmt.Errorf("guild_id must be positive")
	}

	territories := make(map[string]*TerritoryFile, len(wf.Territories))
	for i := range wf.Territories {
		t := &wf.Territories[i]
		if t.TerritoryID == "" {
			return fmt.Errorf("territory %d has no territory_id", i)
		}
		if _, dup := territories[t.TerritoryID]; dup {
			return fmt.Errorf("duplicate territory %s", t.TerritoryID)
		}
		if t.ControllerCharacterID != "" && t.ControllerFactionID != "" {
			return fmt.Errorf("territory %s has both a controlling character and faction", t.TerritoryID)
		}
		territories[t.TerritoryID] = t
	}
	for _, edge := range wf.Adjacency {
		for _, id := range edge {
			if territories[id] == nil {
				return fmt.Errorf("adjacency references unknown territory %s", id)
			}
		}
		if edge[0] == edge[1] {
			return fmt.Errorf("adjacency %s is a self-loop", edge[0])
		}
	}

	characters := make(map[string]bool, len(wf.Characters))
	for _, c := range wf.Characters {
		if c.Identifier == "" {
			return fmt.Errorf("character with empty identifier")
		}
		characters[c.Identifier] = true
	}
	factions := make(map[string]bool, len(wf.Factions))
	for _, f := range wf.Factions {
		if f.FactionID == "" {
			return fmt.Errorf("faction with empty faction_id")
		}
		factions[f.FactionID] = true
	}
	for _, m := range wf.Members {
		if !factions[m.FactionID] {
			return fmt.Errorf("member of unknown faction %s", m.FactionID)
		}
		if !characters[m.CharacterID] {
			return fmt.Errorf("member references unknown character %s", m.CharacterID)
		}
	}

	unitTypes := make(map[string]bool, len(wf.UnitTypes))
	for _, ut := range wf.UnitTypes {
		unitTypes[ut.UnitTypeID] = true
	}
	units := make(map[string]bool, len(wf.Units))
	for _, u := range wf.Units {
		if u.UnitID == "" {
			return fmt.Errorf("unit with empty unit_id")
		}
		if units[u.UnitID] {
			return fmt.Errorf("duplicate unit %s", u.UnitID)
		}
		units[u.UnitID] = true
		if u.CurrentTerritoryID != "" && territories[u.CurrentTerritoryID] == nil {
			return fmt.Errorf("unit %s stands in unknown territory %s", u.UnitID, u.CurrentTerritoryID)
		}
		if u.UnitType != "" && !unitTypes[u.UnitType] {
			return fmt.Errorf("unit %s references unknown unit type %s", u.UnitID, u.UnitType)
		}
		if u.FactionID != "" && !factions[u.FactionID] {
			return fmt.Errorf("unit %s references unknown faction %s", u.UnitID, u.FactionID)
		}
	}
	for _, np := range wf.NavalPositions {
		if !units[np.UnitID] {
			return fmt.Errorf("naval position for unknown unit %s", np.UnitID)
		}
		for _, tid := range np.TerritoryIDs {
			t := territories[tid]
			if t == nil {
				return fmt.Errorf("naval position references unknown territory %s", tid)
			}
			if !model.IsWaterTerrain(t.TerrainType) {
				return fmt.Errorf("naval position for unit %s on land territory %s", np.UnitID, tid)
			}
		}
	}

	buildingTypes := make(map[string]bool, len(wf.BuildingTypes))
	for _, bt := range wf.BuildingTypes {
		buildingTypes[bt.BuildingTypeID] = true
	}
	for _, b := range wf.Buildings {
		if territories[b.TerritoryID] == nil {
			return fmt.Errorf("building %s in unknown territory %s", b.BuildingID, b.TerritoryID)
		}
		if b.BuildingTypeID != "" && !buildingTypes[b.BuildingTypeID] {
			return fmt.Errorf("building %s references unknown building type %s", b.BuildingID, b.BuildingTypeID)
		}
	}

	for _, n := range wf.Nexuses {
		if territories[n.TerritoryID] == nil {
			return fmt.Errorf("spirit nexus %s in unknown territory %s", n.Identifier, n.TerritoryID)
		}
	}

	for _, a := range wf.Alliances {
		if !factions[a.FactionAID] || !factions[a.FactionBID] {
			return fmt.Errorf("alliance %s/%s references unknown faction", a.FactionAID, a.FactionBID)
		}
	}
	wars := make(map[string]bool, len(wf.Wars))
	for _, w := range wf.Wars {
		wars[w.WarID] = true
	}
	for _, p := range wf.WarParticipants {
		if !wars[p.WarID] {
			return fmt.Errorf("participant references unknown war %s", p.WarID)
		}
		if !factions[p.FactionID] {
			return fmt.Errorf("war participant references unknown faction %s", p.FactionID)
		}
	}
	return nil
}

// tolerateConflict swallows duplicate-row errors so re-importing a file
// that was already loaded stays idempotent.
func tolerateConflict(err error) error {
	if errors.Is(err, repository.ErrConflict) {
		return nil
	}
	return err
}

// Import writes a world file into the store in one transaction. Every
// row is upserted or conflict-tolerant, so re-importing the same file
// is idempotent.
func Import(ctx context.Context, store repository.Store, wf *WorldFile) error {
	if err := wf.Validate(); err != nil {
		return fmt.Errorf("validate world file: %w", err)
	}
	gid := wf.GuildID

	if err := store.UpsertGuildConfig(ctx, &model.GuildConfig{
		GuildID:               gid,
		CurrentTurn:           wf.Config.CurrentTurn,
		TurnResolutionEnabled: wf.Config.TurnResolutionEnabled,
		MaxMovementStat:       wf.Config.MaxMovementStat,
		GMReportsChannelID:    wf.Config.GMReportsChannelID,
	}); err != nil {
		return fmt.Errorf("import guild config: %w", err)
	}

	txn, err := store.Begin(ctx, gid)
	if err != nil {
		return fmt.Errorf("import world: %w", err)
	}
	defer txn.Rollback()

	for _, t := range wf.Territories {
		if err := txn.UpsertTerritory(ctx, &model.Territory{
			GuildID:               gid,
			TerritoryID:           t.TerritoryID,
			Name:                  t.Name,
			TerrainType:           t.TerrainType,
			Production:            t.Production,
			ControllerCharacterID: t.ControllerCharacterID,
			ControllerFactionID:   t.ControllerFactionID,
			OriginalNation:        t.OriginalNation,
			VictoryPoints:         t.VictoryPoints,
			SiegeDefense:          t.SiegeDefense,
			Keywords:              t.Keywords,
		}); err != nil {
			return fmt.Errorf("import territory %s: %w", t.TerritoryID, err)
		}
	}
	for _, edge := range wf.Adjacency {
		a, b := wargame.CanonicalPair(edge[0], edge[1])
		if err := tolerateConflict(txn.InsertAdjacency(ctx, &model.TerritoryAdjacency{
			GuildID:      gid,
			TerritoryAID: a,
			TerritoryBID: b,
		})); err != nil {
			return fmt.Errorf("import adjacency %s-%s: %w", a, b, err)
		}
	}
	for _, n := range wf.Nexuses {
		if err := txn.UpsertNexus(ctx, &model.SpiritNexus{
			GuildID:     gid,
			Identifier:  n.Identifier,
			TerritoryID: n.TerritoryID,
			Health:      n.Health,
		}); err != nil {
			return fmt.Errorf("import nexus %s: %w", n.Identifier, err)
		}
	}

	for _, f := range wf.Factions {
		if err := txn.UpsertFaction(ctx, &model.Faction{
			GuildID:           gid,
			FactionID:         f.FactionID,
			Name:              f.Name,
			Nation:            f.Nation,
			LeaderCharacterID: f.LeaderCharacterID,
			HasDeclaredWar:    f.HasDeclaredWar,
			CreatedTurn:       f.CreatedTurn,
		}); err != nil {
			return fmt.Errorf("import faction %s: %w", f.FactionID, err)
		}
	}
	for _, c := range wf.Characters {
		if err := txn.UpsertCharacter(ctx, &model.Character{
			GuildID:                   gid,
			Identifier:                c.Identifier,
			Name:                      c.Name,
			UserID:                    c.UserID,
			Production:                c.Production,
			VictoryPoints:             c.VictoryPoints,
			RepresentedFactionID:      c.RepresentedFactionID,
			RepresentationChangedTurn: c.RepresentationChangedTurn,
		}); err != nil {
			return fmt.Errorf("import character %s: %w", c.Identifier, err)
		}
	}
	for _, m := range wf.Members {
		if err := tolerateConflict(txn.InsertFactionMember(ctx, &model.FactionMember{
			GuildID:     gid,
			FactionID:   m.FactionID,
			CharacterID: m.CharacterID,
			JoinedTurn:  m.JoinedTurn,
		})); err != nil {
			return fmt.Errorf("import member %s/%s: %w", m.FactionID, m.CharacterID, err)
		}
	}
	for _, p := range wf.Permissions {
		if err := txn.UpsertFactionPermission(ctx, &model.FactionPermission{
			GuildID:        gid,
			FactionID:      p.FactionID,
			CharacterID:    p.CharacterID,
			PermissionType: p.PermissionType,
		}); err != nil {
			return fmt.Errorf("import permission %s/%s: %w", p.FactionID, p.CharacterID, err)
		}
	}

	for _, ut := range wf.UnitTypes {
		if err := txn.UpsertUnitType(ctx, &model.UnitType{
			GuildID:         gid,
			UnitTypeID:      ut.UnitTypeID,
			Name:            ut.Name,
			Nation:          ut.Nation,
			Movement:        ut.Movement,
			Attack:          ut.Attack,
			Defense:         ut.Defense,
			SiegeAttack:     ut.SiegeAttack,
			SiegeDefense:    ut.SiegeDefense,
			Size:            ut.Size,
			Capacity:        ut.Capacity,
			MaxOrganization: ut.MaxOrganization,
			Cost:            ut.Cost,
			Upkeep:          ut.Upkeep,
			Keywords:        ut.Keywords,
		}); err != nil {
			return fmt.Errorf("import unit type %s: %w", ut.UnitTypeID, err)
		}
	}
	for _, u := range wf.Units {
		status := u.Status
		if status == "" {
			status = model.UnitActive
		}
		if err := txn.UpsertUnit(ctx, &model.Unit{
			GuildID:               gid,
			UnitID:                u.UnitID,
			Name:                  u.Name,
			UnitType:              u.UnitType,
			CurrentTerritoryID:    u.CurrentTerritoryID,
			OwnerCharacterID:      u.OwnerCharacterID,
			OwnerFactionID:        u.OwnerFactionID,
			CommanderCharacterID:  u.CommanderCharacterID,
			CommanderAssignedTurn: u.CommanderAssignedTurn,
			FactionID:             u.FactionID,
			Movement:              u.Movement,
			Attack:                u.Attack,
			Defense:               u.Defense,
			SiegeAttack:           u.SiegeAttack,
			SiegeDefense:          u.SiegeDefense,
			Size:                  u.Size,
			Capacity:              u.Capacity,
			Organization:          u.Organization,
			MaxOrganization:       u.MaxOrganization,
			Status:                status,
			Upkeep:                u.Upkeep,
			Keywords:              u.Keywords,
			CreatedTurn:           u.CreatedTurn,
		}); err != nil {
			return fmt.Errorf("import unit %s: %w", u.UnitID, err)
		}
	}
	for _, np := range wf.NavalPositions {
		if err := txn.ReplaceNavalPositions(ctx, np.UnitID, np.TerritoryIDs); err != nil {
			return fmt.Errorf("import naval positions for %s: %w", np.UnitID, err)
		}
	}

	for _, bt := range wf.BuildingTypes {
		if err := txn.UpsertBuildingType(ctx, &model.BuildingType{
			GuildID:        gid,
			BuildingTypeID: bt.BuildingTypeID,
			Name:           bt.Name,
			Nation:         bt.Nation,
			MaxDurability:  bt.MaxDurability,
			Cost:           bt.Cost,
			Upkeep:         bt.Upkeep,
			Keywords:       bt.Keywords,
		}); err != nil {
			return fmt.Errorf("import building type %s: %w", bt.BuildingTypeID, err)
		}
	}
	for _, b := range wf.Buildings {
		status := b.Status
		if status == "" {
			status = model.BuildingActive
		}
		if err := txn.UpsertBuilding(ctx, &model.Building{
			GuildID:        gid,
			BuildingID:     b.BuildingID,
			BuildingTypeID: b.BuildingTypeID,
			TerritoryID:    b.TerritoryID,
			Durability:     b.Durability,
			Status:         status,
			Upkeep:         b.Upkeep,
			Keywords:       b.Keywords,
			BuiltTurn:      b.BuiltTurn,
		}); err != nil {
			return fmt.Errorf("import building %s: %w", b.BuildingID, err)
		}
	}

	for _, l := range wf.PlayerResources {
		if err := txn.UpsertPlayerResources(ctx, &model.ResourceLedger{
			GuildID: gid, OwnerID: l.OwnerID, Amounts: l.Amounts,
		}); err != nil {
			return fmt.Errorf("import player resources %s: %w", l.OwnerID, err)
		}
	}
	for _, l := range wf.FactionResources {
		if err := txn.UpsertFactionResources(ctx, &model.ResourceLedger{
			GuildID: gid, OwnerID: l.OwnerID, Amounts: l.Amounts,
		}); err != nil {
			return fmt.Errorf("import faction resources %s: %w", l.OwnerID, err)
		}
	}

	for _, a := range wf.Alliances {
		fa, fb := wargame.CanonicalPair(a.FactionAID, a.FactionBID)
		if err := txn.UpsertAlliance(ctx, &model.Alliance{
			GuildID:              gid,
			FactionAID:           fa,
			FactionBID:           fb,
			Status:               a.Status,
			InitiatedByFactionID: a.InitiatedByFactionID,
			ActivatedTurn:        a.ActivatedTurn,
		}); err != nil {
			return fmt.Errorf("import alliance %s/%s: %w", fa, fb, err)
		}
	}
	for _, w := range wf.Wars {
		if err := tolerateConflict(txn.InsertWar(ctx, &model.War{
			GuildID:      gid,
			WarID:        w.WarID,
			Objective:    w.Objective,
			DeclaredTurn: w.DeclaredTurn,
		})); err != nil {
			return fmt.Errorf("import war %s: %w", w.WarID, err)
		}
	}
	for _, p := range wf.WarParticipants {
		if err := tolerateConflict(txn.InsertWarParticipant(ctx, &model.WarParticipant{
			GuildID:            gid,
			WarID:              p.WarID,
			FactionID:          p.FactionID,
			Side:               p.Side,
			JoinedTurn:         p.JoinedTurn,
			IsOriginalDeclarer: p.IsOriginalDeclarer,
		})); err != nil {
			return fmt.Errorf("import war participant %s/%s: %w", p.WarID, p.FactionID, err)
		}
	}

	if err := txn.Commit(); err != nil {
		return fmt.Errorf("import world: %w", err)
	}

	log := logger.Get()
	log.Info().
		Int64("guild_id", gid).
		Int("territories", len(wf.Territories)).
		Int("units", len(wf.Units)).
		Int("factions", len(wf.Factions)).
		Msg("world imported")
	return nil
}
