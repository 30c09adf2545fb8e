package worldio

import (
	"context"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/veldtgames/warcouncil/internal/repository"
)

// Export reads a guild's full state and writes it as a world YAML file.
// The output round-trips through Import.
func Export(ctx context.Context, store repository.Store, guildID int64, w io.Writer) error {
	txn, err := store.Begin(ctx, guildID)
	if err != nil {
		return fmt.Errorf("export world: %w", err)
	}
	defer txn.Rollback()

	wf := &WorldFile{GuildID: guildID}

	cfg, err := txn.GuildConfig(ctx)
	if err != nil {
		return fmt.Errorf("export guild config: %w", err)
	}
	wf.Config = ConfigFile{
		CurrentTurn:           cfg.CurrentTurn,
		TurnResolutionEnabled: cfg.TurnResolutionEnabled,
		MaxMovementStat:       cfg.MaxMovementStat,
		GMReportsChannelID:    cfg.GMReportsChannelID,
	}

	territories, err := txn.FetchTerritories(ctx)
	if err != nil {
		return fmt.Errorf("export territories: %w", err)
	}
	for _, t := range territories {
		wf.Territories = append(wf.Territories, TerritoryFile{
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
		})
	}
	edges, err := txn.FetchAdjacency(ctx)
	if err != nil {
		return fmt.Errorf("export adjacency: %w", err)
	}
	for _, e := range edges {
		wf.Adjacency = append(wf.Adjacency, [2]string{e.TerritoryAID, e.TerritoryBID})
	}

	nexuses, err := txn.FetchNexuses(ctx)
	if err != nil {
		return fmt.Errorf("export nexuses: %w", err)
	}
	for _, n := range nexuses {
		wf.Nexuses = append(wf.Nexuses, NexusFile{
			Identifier: n.Identifier, TerritoryID: n.TerritoryID, Health: n.Health,
		})
	}

	factions, err := txn.FetchFactions(ctx)
	if err != nil {
		return fmt.Errorf("export factions: %w", err)
	}
	for _, f := range factions {
		wf.Factions = append(wf.Factions, FactionFile{
			FactionID:         f.FactionID,
			Name:              f.Name,
			Nation:            f.Nation,
			LeaderCharacterID: f.LeaderCharacterID,
			HasDeclaredWar:    f.HasDeclaredWar,
			CreatedTurn:       f.CreatedTurn,
		})
	}
	members, err := txn.FetchFactionMembers(ctx)
	if err != nil {
		return fmt.Errorf("export members: %w", err)
	}
	for _, m := range members {
		wf.Members = append(wf.Members, MemberFile{
			FactionID: m.FactionID, CharacterID: m.CharacterID, JoinedTurn: m.JoinedTurn,
		})
	}
	perms, err := txn.FetchFactionPermissions(ctx)
	if err != nil {
		return fmt.Errorf("export permissions: %w", err)
	}
	for _, p := range perms {
		wf.Permissions = append(wf.Permissions, PermissionFile{
			FactionID: p.FactionID, CharacterID: p.CharacterID, PermissionType: p.PermissionType,
		})
	}
	characters, err := txn.FetchCharacters(ctx)
	if err != nil {
		return fmt.Errorf("export characters: %w", err)
	}
	for _, c := range characters {
		wf.Characters = append(wf.Characters, CharacterFile{
			Identifier:                c.Identifier,
			Name:                      c.Name,
			UserID:                    c.UserID,
			Production:                c.Production,
			VictoryPoints:             c.VictoryPoints,
			RepresentedFactionID:      c.RepresentedFactionID,
			RepresentationChangedTurn: c.RepresentationChangedTurn,
		})
	}

	unitTypes, err := txn.FetchUnitTypes(ctx)
	if err != nil {
		return fmt.Errorf("export unit types: %w", err)
	}
	for _, ut := range unitTypes {
		wf.UnitTypes = append(wf.UnitTypes, UnitTypeFile{
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
		})
	}
	units, err := txn.FetchUnits(ctx)
	if err != nil {
		return fmt.Errorf("export units: %w", err)
	}
	for _, u := range units {
		wf.Units = append(wf.Units, UnitFile{
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
			Status:                u.Status,
			Upkeep:                u.Upkeep,
			Keywords:              u.Keywords,
			CreatedTurn:           u.CreatedTurn,
		})
	}
	navalPositions, err := txn.FetchNavalPositions(ctx)
	if err != nil {
		return fmt.Errorf("export naval positions: %w", err)
	}
	byUnit := make(map[string][]string)
	for _, p := range navalPositions {
		byUnit[p.UnitID] = append(byUnit[p.UnitID], p.TerritoryID)
	}
	unitIDs := make([]string, 0, len(byUnit))
	for id := range byUnit {
		unitIDs = append(unitIDs, id)
	}
	sort.Strings(unitIDs)
	for _, id := range unitIDs {
		sort.Strings(byUnit[id])
		wf.NavalPositions = append(wf.NavalPositions, NavalPositionFile{
			UnitID: id, TerritoryIDs: byUnit[id],
		})
	}

	buildingTypes, err := txn.FetchBuildingTypes(ctx)
	if err != nil {
		return fmt.Errorf("export building types: %w", err)
	}
	for _, bt := range buildingTypes {
		wf.BuildingTypes = append(wf.BuildingTypes, BuildingTypeFile{
			BuildingTypeID: bt.BuildingTypeID,
			Name:           bt.Name,
			Nation:         bt.Nation,
			MaxDurability:  bt.MaxDurability,
			Cost:           bt.Cost,
			Upkeep:         bt.Upkeep,
			Keywords:       bt.Keywords,
		})
	}
	buildings, err := txn.FetchBuildings(ctx)
	if err != nil {
		return fmt.Errorf("export buildings: %w", err)
	}
	for _, b := range buildings {
		wf.Buildings = append(wf.Buildings, BuildingFile{
			BuildingID:     b.BuildingID,
			BuildingTypeID: b.BuildingTypeID,
			TerritoryID:    b.TerritoryID,
			Durability:     b.Durability,
			Status:         b.Status,
			Upkeep:         b.Upkeep,
			Keywords:       b.Keywords,
			BuiltTurn:      b.BuiltTurn,
		})
	}

	playerResources, err := txn.FetchPlayerResources(ctx)
	if err != nil {
		return fmt.Errorf("export player resources: %w", err)
	}
	for _, l := range playerResources {
		wf.PlayerResources = append(wf.PlayerResources, LedgerFile{OwnerID: l.OwnerID, Amounts: l.Amounts})
	}
	factionResources, err := txn.FetchFactionResources(ctx)
	if err != nil {
		return fmt.Errorf("export faction resources: %w", err)
	}
	for _, l := range factionResources {
		wf.FactionResources = append(wf.FactionResources, LedgerFile{OwnerID: l.OwnerID, Amounts: l.Amounts})
	}

	alliances, err := txn.FetchAlliances(ctx)
	if err != nil {
		return fmt.Errorf("export alliances: %w", err)
	}
	for _, a := range alliances {
		wf.Alliances = append(wf.Alliances, AllianceFile{
			FactionAID:           a.FactionAID,
			FactionBID:           a.FactionBID,
			Status:               a.Status,
			InitiatedByFactionID: a.InitiatedByFactionID,
			ActivatedTurn:        a.ActivatedTurn,
		})
	}
	wars, err := txn.FetchWars(ctx)
	if err != nil {
		return fmt.Errorf("export wars: %w", err)
	}
	for _, war := range wars {
		wf.Wars = append(wf.Wars, WarFile{
			WarID: war.WarID, Objective: war.Objective, DeclaredTurn: war.DeclaredTurn,
		})
	}
	participants, err := txn.FetchWarParticipants(ctx)
	if err != nil {
		return fmt.Errorf("export war participants: %w", err)
	}
	for _, p := range participants {
		wf.WarParticipants = append(wf.WarParticipants, WarParticipantFile{
			WarID:              p.WarID,
			FactionID:          p.FactionID,
			Side:               p.Side,
			JoinedTurn:         p.JoinedTurn,
			IsOriginalDeclarer: p.IsOriginalDeclarer,
		})
	}

	if err := txn.Commit(); err != nil {
		return fmt.Errorf("export world: %w", err)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(wf); err != nil {
		return fmt.Errorf("encode world file: %w", err)
	}
	return enc.Close()
}
