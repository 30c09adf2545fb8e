package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/veldtgames/warcouncil/internal/model"
)

const buildingColumns = `guild_id, building_id, building_type_id, territory_id,
	durability, status,
	upkeep_ore, upkeep_lumber, upkeep_coal, upkeep_rations, upkeep_cloth, upkeep_platinum,
	keywords, built_turn`

func scanBuilding(scan func(dest ...any) error) (*model.Building, error) {
	var b model.Building
	var keywords pq.StringArray
	err := scan(&b.GuildID, &b.BuildingID, &b.BuildingTypeID, &b.TerritoryID,
		&b.Durability, &b.Status,
		&b.Upkeep.Ore, &b.Upkeep.Lumber, &b.Upkeep.Coal,
		&b.Upkeep.Rations, &b.Upkeep.Cloth, &b.Upkeep.Platinum,
		&keywords, &b.BuiltTurn)
	if err != nil {
		return nil, err
	}
	b.Keywords = model.Keywords(keywords)
	return &b, nil
}

func (t *Txn) fetchBuildings(ctx context.Context, where string, args ...any) ([]*model.Building, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+buildingColumns+` FROM buildings WHERE `+where+` ORDER BY building_id`, args...)
	if err != nil {
		return nil, mapErr("fetch buildings", err)
	}
	defer rows.Close()

	var out []*model.Building
	for rows.Next() {
		b, err := scanBuilding(rows.Scan)
		if err != nil {
			return nil, mapErr("scan building", err)
		}
		out = append(out, b)
	}
	return out, mapErr("fetch buildings", rows.Err())
}

// FetchBuildings returns every building of the guild.
func (t *Txn) FetchBuildings(ctx context.Context) ([]*model.Building, error) {
	return t.fetchBuildings(ctx, `guild_id = $1`, t.guildID)
}

// FetchBuildingsByTerritory returns the buildings in a territory.
func (t *Txn) FetchBuildingsByTerritory(ctx context.Context, territoryID string) ([]*model.Building, error) {
	return t.fetchBuildings(ctx, `guild_id = $1 AND territory_id = $2`, t.guildID, territoryID)
}

// UpsertBuilding writes a building row.
func (t *Txn) UpsertBuilding(ctx context.Context, b *model.Building) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO buildings (`+buildingColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 ON CONFLICT (guild_id, building_id) DO UPDATE SET
		   durability = EXCLUDED.durability, status = EXCLUDED.status,
		   upkeep_ore = EXCLUDED.upkeep_ore, upkeep_lumber = EXCLUDED.upkeep_lumber,
		   upkeep_coal = EXCLUDED.upkeep_coal, upkeep_rations = EXCLUDED.upkeep_rations,
		   upkeep_cloth = EXCLUDED.upkeep_cloth, upkeep_platinum = EXCLUDED.upkeep_platinum,
		   keywords = EXCLUDED.keywords`,
		t.guildID, b.BuildingID, b.BuildingTypeID, b.TerritoryID,
		b.Durability, b.Status,
		b.Upkeep.Ore, b.Upkeep.Lumber, b.Upkeep.Coal, b.Upkeep.Rations, b.Upkeep.Cloth, b.Upkeep.Platinum,
		pq.Array([]string(b.Keywords)), b.BuiltTurn)
	if err != nil {
		return mapErr("upsert building", err)
	}
	return nil
}

const buildingTypeColumns = `guild_id, building_type_id, name, nation, max_durability,
	cost_ore, cost_lumber, cost_coal, cost_rations, cost_cloth, cost_platinum,
	upkeep_ore, upkeep_lumber, upkeep_coal, upkeep_rations, upkeep_cloth, upkeep_platinum,
	keywords`

// FetchBuildingTypes returns the guild's building templates.
func (t *Txn) FetchBuildingTypes(ctx context.Context) ([]*model.BuildingType, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+buildingTypeColumns+` FROM building_types WHERE guild_id = $1 ORDER BY building_type_id`, t.guildID)
	if err != nil {
		return nil, mapErr("fetch building types", err)
	}
	defer rows.Close()

	var out []*model.BuildingType
	for rows.Next() {
		var bt model.BuildingType
		var nation sql.NullString
		var keywords pq.StringArray
		if err := rows.Scan(&bt.GuildID, &bt.BuildingTypeID, &bt.Name, &nation, &bt.MaxDurability,
			&bt.Cost.Ore, &bt.Cost.Lumber, &bt.Cost.Coal, &bt.Cost.Rations, &bt.Cost.Cloth, &bt.Cost.Platinum,
			&bt.Upkeep.Ore, &bt.Upkeep.Lumber, &bt.Upkeep.Coal, &bt.Upkeep.Rations, &bt.Upkeep.Cloth, &bt.Upkeep.Platinum,
			&keywords); err != nil {
			return nil, mapErr("scan building type", err)
		}
		bt.Nation = nation.String
		bt.Keywords = model.Keywords(keywords)
		out = append(out, &bt)
	}
	return out, mapErr("fetch building types", rows.Err())
}

// UpsertBuildingType writes a building template.
func (t *Txn) UpsertBuildingType(ctx context.Context, bt *model.BuildingType) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO building_types (`+buildingTypeColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		 ON CONFLICT (guild_id, building_type_id) DO UPDATE SET
		   name = EXCLUDED.name, nation = EXCLUDED.nation, max_durability = EXCLUDED.max_durability,
		   cost_ore = EXCLUDED.cost_ore, cost_lumber = EXCLUDED.cost_lumber, cost_coal = EXCLUDED.cost_coal,
		   cost_rations = EXCLUDED.cost_rations, cost_cloth = EXCLUDED.cost_cloth, cost_platinum = EXCLUDED.cost_platinum,
		   upkeep_ore = EXCLUDED.upkeep_ore, upkeep_lumber = EXCLUDED.upkeep_lumber, upkeep_coal = EXCLUDED.upkeep_coal,
		   upkeep_rations = EXCLUDED.upkeep_rations, upkeep_cloth = EXCLUDED.upkeep_cloth, upkeep_platinum = EXCLUDED.upkeep_platinum,
		   keywords = EXCLUDED.keywords`,
		t.guildID, bt.BuildingTypeID, bt.Name, nullStr(bt.Nation), bt.MaxDurability,
		bt.Cost.Ore, bt.Cost.Lumber, bt.Cost.Coal, bt.Cost.Rations, bt.Cost.Cloth, bt.Cost.Platinum,
		bt.Upkeep.Ore, bt.Upkeep.Lumber, bt.Upkeep.Coal, bt.Upkeep.Rations, bt.Upkeep.Cloth, bt.Upkeep.Platinum,
		pq.Array([]string(bt.Keywords)))
	if err != nil {
		return mapErr("upsert building type", err)
	}
	return nil
}
