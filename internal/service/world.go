package service

import (
	"context"
	"fmt"

	"github.com/veldtgames/warcouncil/internal/model"
	"github.com/veldtgames/warcouncil/internal/repository"
	"github.com/veldtgames/warcouncil/pkg/wargame"
)

// LoadWorld reads a guild's full state into an engine snapshot inside
// the given transaction.
func LoadWorld(ctx context.Context, txn repository.Txn, guildID int64) (*wargame.World, error) {
	cfg, err := txn.GuildConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load world: %w", err)
	}
	w := wargame.NewWorld(guildID, cfg.CurrentTurn)
	w.MaxMovementStat = cfg.MaxMovementStat

	territories, err := txn.FetchTerritories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load world: %w", err)
	}
	for _, t := range territories {
		w.Territories[t.TerritoryID] = t
	}

	edges, err := txn.FetchAdjacency(ctx)
	if err != nil {
		return nil, fmt.Errorf("load world: %w", err)
	}
	for _, e := range edges {
		w.AddAdjacency(e.TerritoryAID, e.TerritoryBID)
	}

	factions, err := txn.FetchFactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load world: %w", err)
	}
	for _, f := range factions {
		w.Factions[f.FactionID] = f
	}
	if w.Members, err = txn.FetchFactionMembers(ctx); err != nil {
		return nil, fmt.Errorf("load world: %w", err)
	}
	if w.Permissions, err = txn.FetchFactionPermissions(ctx); err != nil {
		return nil, fmt.Errorf("load world: %w", err)
	}

	characters, err := txn.FetchCharacters(ctx)
	if err != nil {
		return nil, fmt.Errorf("load world: %w", err)
	}
	for _, c := range characters {
		w.Characters[c.Identifier] = c
	}

	units, err := txn.FetchUnits(ctx)
	if err != nil {
		return nil, fmt.Errorf("load world: %w", err)
	}
	for _, u := range units {
		w.Units[u.UnitID] = u
	}
	unitTypes, err := txn.FetchUnitTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load world: %w", err)
	}
	for _, ut := range unitTypes {
		w.UnitTypes[ut.UnitTypeID] = ut
	}
	navalPositions, err := txn.FetchNavalPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load world: %w", err)
	}
	for _, p := range navalPositions {
		if w.NavalPositions[p.UnitID] == nil {
			w.NavalPositions[p.UnitID] = make(map[string]bool)
		}
		w.NavalPositions[p.UnitID][p.TerritoryID] = true
	}

	buildings, err := txn.FetchBuildings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load world: %w", err)
	}
	for _, b := range buildings {
		w.Buildings[b.BuildingID] = b
	}
	buildingTypes, err := txn.FetchBuildingTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load world: %w", err)
	}
	for _, bt := range buildingTypes {
		w.BuildingTypes[bt.BuildingTypeID] = bt
	}

	playerResources, err := txn.FetchPlayerResources(ctx)
	if err != nil {
		return nil, fmt.Errorf("load world: %w", err)
	}
	for _, l := range playerResources {
		w.PlayerResources[l.OwnerID] = l
	}
	factionResources, err := txn.FetchFactionResources(ctx)
	if err != nil {
		return nil, fmt.Errorf("load world: %w", err)
	}
	for _, l := range factionResources {
		w.FactionResources[l.OwnerID] = l
	}

	if w.Alliances, err = txn.FetchAlliances(ctx); err != nil {
		return nil, fmt.Errorf("load world: %w", err)
	}
	wars, err := txn.FetchWars(ctx)
	if err != nil {
		return nil, fmt.Errorf("load world: %w", err)
	}
	for _, war := range wars {
		w.Wars[war.WarID] = war
	}
	if w.WarParticipants, err = txn.FetchWarParticipants(ctx); err != nil {
		return nil, fmt.Errorf("load world: %w", err)
	}
	if w.JoinRequests, err = txn.FetchJoinRequests(ctx); err != nil {
		return nil, fmt.Errorf("load world: %w", err)
	}

	nexuses, err := txn.FetchNexuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("load world: %w", err)
	}
	for _, n := range nexuses {
		w.Nexuses[n.Identifier] = n
	}

	// Active UNIT orders feed action lookups in combat and encirclement.
	active := []string{model.OrderPending, model.OrderOngoing}
	for _, phase := range []wargame.Phase{wargame.PhaseMovement, wargame.PhaseNavalMovement} {
		orders, err := txn.FetchOrdersForPhase(ctx, cfg.CurrentTurn, string(phase), active)
		if err != nil {
			return nil, fmt.Errorf("load world: %w", err)
		}
		w.ActiveUnitOrders = append(w.ActiveUnitOrders, orders...)
	}

	return w, nil
}

// PersistChanges writes everything the resolvers touched back through
// the transaction.
func PersistChanges(ctx context.Context, txn repository.Txn, w *wargame.World) error {
	c := w.Changes

	for _, pair := range c.JoinRequestDeletes {
		if err := txn.DeleteJoinRequests(ctx, pair[0], pair[1]); err != nil {
			return err
		}
	}
	for _, pair := range c.MemberDeletes {
		if err := txn.DeleteFactionMember(ctx, pair[0], pair[1]); err != nil {
			return err
		}
	}
	for _, pair := range c.AllianceDeletes {
		if err := txn.DeleteAlliance(ctx, pair[0], pair[1]); err != nil {
			return err
		}
	}

	for id := range c.Territories {
		if err := txn.UpsertTerritory(ctx, w.Territories[id]); err != nil {
			return err
		}
	}
	for id := range c.Characters {
		if err := txn.UpsertCharacter(ctx, w.Characters[id]); err != nil {
			return err
		}
	}
	for id := range c.Factions {
		if err := txn.UpsertFaction(ctx, w.Factions[id]); err != nil {
			return err
		}
	}
	for id := range c.Units {
		if err := txn.UpsertUnit(ctx, w.Units[id]); err != nil {
			return err
		}
	}
	for id := range c.Buildings {
		if err := txn.UpsertBuilding(ctx, w.Buildings[id]); err != nil {
			return err
		}
	}
	for id := range c.Nexuses {
		if err := txn.UpsertNexus(ctx, w.Nexuses[id]); err != nil {
			return err
		}
	}
	for id := range c.PlayerResources {
		if err := txn.UpsertPlayerResources(ctx, w.PlayerResources[id]); err != nil {
			return err
		}
	}
	for id := range c.FactionResources {
		if err := txn.UpsertFactionResources(ctx, w.FactionResources[id]); err != nil {
			return err
		}
	}
	for id := range c.NavalPositions {
		if err := txn.ReplaceNavalPositions(ctx, id, w.NavalOccupancy(id)); err != nil {
			return err
		}
	}

	for _, a := range c.AllianceUpserts {
		if err := txn.UpsertAlliance(ctx, a); err != nil {
			return err
		}
	}
	for _, war := range c.WarInserts {
		if err := txn.InsertWar(ctx, war); err != nil {
			return err
		}
	}
	for _, p := range c.WarParticipantInserts {
		if err := txn.InsertWarParticipant(ctx, p); err != nil {
			return err
		}
	}
	for _, m := range c.MemberInserts {
		if err := txn.InsertFactionMember(ctx, m); err != nil {
			return err
		}
	}
	for _, r := range c.JoinRequestInserts {
		if err := txn.InsertJoinRequest(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
