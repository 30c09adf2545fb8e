package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/veldtgames/warcouncil/internal/model"
)

const territoryColumns = `guild_id, territory_id, name, terrain_type,
	ore, lumber, coal, rations, cloth, platinum,
	controller_character_id, controller_faction_id, original_nation,
	victory_points, siege_defense, keywords`

func scanTerritory(scan func(dest ...any) error) (*model.Territory, error) {
	var t model.Territory
	var controllerChar, controllerFaction, nation sql.NullString
	var keywords pq.StringArray
	err := scan(&t.GuildID, &t.TerritoryID, &t.Name, &t.TerrainType,
		&t.Production.Ore, &t.Production.Lumber, &t.Production.Coal,
		&t.Production.Rations, &t.Production.Cloth, &t.Production.Platinum,
		&controllerChar, &controllerFaction, &nation,
		&t.VictoryPoints, &t.SiegeDefense, &keywords)
	if err != nil {
		return nil, err
	}
	t.ControllerCharacterID = controllerChar.String
	t.ControllerFactionID = controllerFaction.String
	t.OriginalNation = nation.String
	t.Keywords = model.Keywords(keywords)
	return &t, nil
}

// FetchTerritories returns every territory of the guild.
func (t *Txn) FetchTerritories(ctx context.Context) ([]*model.Territory, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+territoryColumns+` FROM territories WHERE guild_id = $1 ORDER BY territory_id`, t.guildID)
	if err != nil {
		return nil, mapErr("fetch territories", err)
	}
	defer rows.Close()

	var out []*model.Territory
	for rows.Next() {
		terr, err := scanTerritory(rows.Scan)
		if err != nil {
			return nil, mapErr("scan territory", err)
		}
		out = append(out, terr)
	}
	return out, mapErr("fetch territories", rows.Err())
}

// FetchTerritoryByID returns one territory.
func (t *Txn) FetchTerritoryByID(ctx context.Context, territoryID string) (*model.Territory, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+territoryColumns+` FROM territories WHERE guild_id = $1 AND territory_id = $2`,
		t.guildID, territoryID)
	terr, err := scanTerritory(row.Scan)
	if err != nil {
		return nil, mapErr("fetch territory", err)
	}
	return terr, nil
}

// UpsertTerritory writes a territory row.
func (t *Txn) UpsertTerritory(ctx context.Context, terr *model.Territory) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO territories (`+territoryColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 ON CONFLICT (guild_id, territory_id) DO UPDATE SET
		   name = EXCLUDED.name, terrain_type = EXCLUDED.terrain_type,
		   ore = EXCLUDED.ore, lumber = EXCLUDED.lumber, coal = EXCLUDED.coal,
		   rations = EXCLUDED.rations, cloth = EXCLUDED.cloth, platinum = EXCLUDED.platinum,
		   controller_character_id = EXCLUDED.controller_character_id,
		   controller_faction_id = EXCLUDED.controller_faction_id,
		   original_nation = EXCLUDED.original_nation,
		   victory_points = EXCLUDED.victory_points,
		   siege_defense = EXCLUDED.siege_defense,
		   keywords = EXCLUDED.keywords`,
		t.guildID, terr.TerritoryID, terr.Name, terr.TerrainType,
		terr.Production.Ore, terr.Production.Lumber, terr.Production.Coal,
		terr.Production.Rations, terr.Production.Cloth, terr.Production.Platinum,
		nullStr(terr.ControllerCharacterID), nullStr(terr.ControllerFactionID), nullStr(terr.OriginalNation),
		terr.VictoryPoints, terr.SiegeDefense, pq.Array([]string(terr.Keywords)))
	if err != nil {
		return mapErr("upsert territory", err)
	}
	return nil
}

// FetchAdjacency returns the guild's movement graph edges.
func (t *Txn) FetchAdjacency(ctx context.Context) ([]*model.TerritoryAdjacency, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT guild_id, territory_a_id, territory_b_id
		 FROM territory_adjacency WHERE guild_id = $1`, t.guildID)
	if err != nil {
		return nil, mapErr("fetch adjacency", err)
	}
	defer rows.Close()

	var out []*model.TerritoryAdjacency
	for rows.Next() {
		var a model.TerritoryAdjacency
		if err := rows.Scan(&a.GuildID, &a.TerritoryAID, &a.TerritoryBID); err != nil {
			return nil, mapErr("scan adjacency", err)
		}
		out = append(out, &a)
	}
	return out, mapErr("fetch adjacency", rows.Err())
}

// InsertAdjacency records one undirected edge. Rows are canonical with
// territory_a_id < territory_b_id.
func (t *Txn) InsertAdjacency(ctx context.Context, a *model.TerritoryAdjacency) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO territory_adjacency (guild_id, territory_a_id, territory_b_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (guild_id, territory_a_id, territory_b_id) DO NOTHING`,
		t.guildID, a.TerritoryAID, a.TerritoryBID)
	if err != nil {
		return mapErr("insert adjacency", err)
	}
	return nil
}

// FetchNexuses returns the guild's spirit nexuses.
func (t *Txn) FetchNexuses(ctx context.Context) ([]*model.SpiritNexus, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT guild_id, identifier, territory_id, health
		 FROM spirit_nexuses WHERE guild_id = $1 ORDER BY identifier`, t.guildID)
	if err != nil {
		return nil, mapErr("fetch nexuses", err)
	}
	defer rows.Close()

	var out []*model.SpiritNexus
	for rows.Next() {
		var n model.SpiritNexus
		if err := rows.Scan(&n.GuildID, &n.Identifier, &n.TerritoryID, &n.Health); err != nil {
			return nil, mapErr("scan nexus", err)
		}
		out = append(out, &n)
	}
	return out, mapErr("fetch nexuses", rows.Err())
}

// UpsertNexus writes a nexus row.
func (t *Txn) UpsertNexus(ctx context.Context, n *model.SpiritNexus) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO spirit_nexuses (guild_id, identifier, territory_id, health)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (guild_id, identifier) DO UPDATE SET
		   territory_id = EXCLUDED.territory_id, health = EXCLUDED.health`,
		t.guildID, n.Identifier, n.TerritoryID, n.Health)
	if err != nil {
		return mapErr("upsert nexus", err)
	}
	return nil
}
