package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/veldtgames/warcouncil/internal/model"
)

const unitColumns = `guild_id, unit_id, name, unit_type, current_territory_id,
	owner_character_id, owner_faction_id, commander_character_id, commander_assigned_turn,
	faction_id, movement, attack, defense, siege_attack, siege_defense,
	size, capacity, organization, max_organization, status,
	upkeep_ore, upkeep_lumber, upkeep_coal, upkeep_rations, upkeep_cloth, upkeep_platinum,
	keywords, created_turn`

func scanUnit(scan func(dest ...any) error) (*model.Unit, error) {
	var u model.Unit
	var territory, ownerChar, ownerFaction, commander, faction sql.NullString
	var keywords pq.StringArray
	err := scan(&u.GuildID, &u.UnitID, &u.Name, &u.UnitType, &territory,
		&ownerChar, &ownerFaction, &commander, &u.CommanderAssignedTurn,
		&faction, &u.Movement, &u.Attack, &u.Defense, &u.SiegeAttack, &u.SiegeDefense,
		&u.Size, &u.Capacity, &u.Organization, &u.MaxOrganization, &u.Status,
		&u.Upkeep.Ore, &u.Upkeep.Lumber, &u.Upkeep.Coal,
		&u.Upkeep.Rations, &u.Upkeep.Cloth, &u.Upkeep.Platinum,
		&keywords, &u.CreatedTurn)
	if err != nil {
		return nil, err
	}
	u.CurrentTerritoryID = territory.String
	u.OwnerCharacterID = ownerChar.String
	u.OwnerFactionID = ownerFaction.String
	u.CommanderCharacterID = commander.String
	u.FactionID = faction.String
	u.Keywords = model.Keywords(keywords)
	return &u, nil
}

func (t *Txn) fetchUnits(ctx context.Context, where string, args ...any) ([]*model.Unit, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+unitColumns+` FROM units WHERE `+where+` ORDER BY unit_id`, args...)
	if err != nil {
		return nil, mapErr("fetch units", err)
	}
	defer rows.Close()

	var out []*model.Unit
	for rows.Next() {
		u, err := scanUnit(rows.Scan)
		if err != nil {
			return nil, mapErr("scan unit", err)
		}
		out = append(out, u)
	}
	return out, mapErr("fetch units", rows.Err())
}

// FetchUnits returns every unit of the guild.
func (t *Txn) FetchUnits(ctx context.Context) ([]*model.Unit, error) {
	return t.fetchUnits(ctx, `guild_id = $1`, t.guildID)
}

// FetchUnitByUnitID returns one unit.
func (t *Txn) FetchUnitByUnitID(ctx context.Context, unitID string) (*model.Unit, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+unitColumns+` FROM units WHERE guild_id = $1 AND unit_id = $2`, t.guildID, unitID)
	u, err := scanUnit(row.Scan)
	if err != nil {
		return nil, mapErr("fetch unit", err)
	}
	return u, nil
}

// FetchUnitsByTerritory returns the units standing in a territory.
func (t *Txn) FetchUnitsByTerritory(ctx context.Context, territoryID string) ([]*model.Unit, error) {
	return t.fetchUnits(ctx, `guild_id = $1 AND current_territory_id = $2`, t.guildID, territoryID)
}

// UpsertUnit writes a unit row.
func (t *Txn) UpsertUnit(ctx context.Context, u *model.Unit) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO units (`+unitColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		         $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
		 ON CONFLICT (guild_id, unit_id) DO UPDATE SET
		   name = EXCLUDED.name, unit_type = EXCLUDED.unit_type,
		   current_territory_id = EXCLUDED.current_territory_id,
		   owner_character_id = EXCLUDED.owner_character_id,
		   owner_faction_id = EXCLUDED.owner_faction_id,
		   commander_character_id = EXCLUDED.commander_character_id,
		   commander_assigned_turn = EXCLUDED.commander_assigned_turn,
		   faction_id = EXCLUDED.faction_id,
		   movement = EXCLUDED.movement, attack = EXCLUDED.attack, defense = EXCLUDED.defense,
		   siege_attack = EXCLUDED.siege_attack, siege_defense = EXCLUDED.siege_defense,
		   size = EXCLUDED.size, capacity = EXCLUDED.capacity,
		   organization = EXCLUDED.organization, max_organization = EXCLUDED.max_organization,
		   status = EXCLUDED.status,
		   upkeep_ore = EXCLUDED.upkeep_ore, upkeep_lumber = EXCLUDED.upkeep_lumber,
		   upkeep_coal = EXCLUDED.upkeep_coal, upkeep_rations = EXCLUDED.upkeep_rations,
		   upkeep_cloth = EXCLUDED.upkeep_cloth, upkeep_platinum = EXCLUDED.upkeep_platinum,
		   keywords = EXCLUDED.keywords`,
		t.guildID, u.UnitID, u.Name, u.UnitType, nullStr(u.CurrentTerritoryID),
		nullStr(u.OwnerCharacterID), nullStr(u.OwnerFactionID), nullStr(u.CommanderCharacterID), u.CommanderAssignedTurn,
		nullStr(u.FactionID), u.Movement, u.Attack, u.Defense, u.SiegeAttack, u.SiegeDefense,
		u.Size, u.Capacity, u.Organization, u.MaxOrganization, u.Status,
		u.Upkeep.Ore, u.Upkeep.Lumber, u.Upkeep.Coal, u.Upkeep.Rations, u.Upkeep.Cloth, u.Upkeep.Platinum,
		pq.Array([]string(u.Keywords)), u.CreatedTurn)
	if err != nil {
		return mapErr("upsert unit", err)
	}
	return nil
}

const unitTypeColumns = `guild_id, unit_type_id, name, nation,
	movement, attack, defense, siege_attack, siege_defense, size, capacity, max_organization,
	cost_ore, cost_lumber, cost_coal, cost_rations, cost_cloth, cost_platinum,
	upkeep_ore, upkeep_lumber, upkeep_coal, upkeep_rations, upkeep_cloth, upkeep_platinum,
	keywords`

// FetchUnitTypes returns the guild's unit templates.
func (t *Txn) FetchUnitTypes(ctx context.Context) ([]*model.UnitType, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+unitTypeColumns+` FROM unit_types WHERE guild_id = $1 ORDER BY unit_type_id`, t.guildID)
	if err != nil {
		return nil, mapErr("fetch unit types", err)
	}
	defer rows.Close()

	var out []*model.UnitType
	for rows.Next() {
		var ut model.UnitType
		var nation sql.NullString
		var keywords pq.StringArray
		if err := rows.Scan(&ut.GuildID, &ut.UnitTypeID, &ut.Name, &nation,
			&ut.Movement, &ut.Attack, &ut.Defense, &ut.SiegeAttack, &ut.SiegeDefense,
			&ut.Size, &ut.Capacity, &ut.MaxOrganization,
			&ut.Cost.Ore, &ut.Cost.Lumber, &ut.Cost.Coal, &ut.Cost.Rations, &ut.Cost.Cloth, &ut.Cost.Platinum,
			&ut.Upkeep.Ore, &ut.Upkeep.Lumber, &ut.Upkeep.Coal, &ut.Upkeep.Rations, &ut.Upkeep.Cloth, &ut.Upkeep.Platinum,
			&keywords); err != nil {
			return nil, mapErr("scan unit type", err)
		}
		ut.Nation = nation.String
		ut.Keywords = model.Keywords(keywords)
		out = append(out, &ut)
	}
	return out, mapErr("fetch unit types", rows.Err())
}

// UpsertUnitType writes a unit template.
func (t *Txn) UpsertUnitType(ctx context.Context, ut *model.UnitType) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO unit_types (`+unitTypeColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		         $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
		 ON CONFLICT (guild_id, unit_type_id) DO UPDATE SET
		   name = EXCLUDED.name, nation = EXCLUDED.nation,
		   movement = EXCLUDED.movement, attack = EXCLUDED.attack, defense = EXCLUDED.defense,
		   siege_attack = EXCLUDED.siege_attack, siege_defense = EXCLUDED.siege_defense,
		   size = EXCLUDED.size, capacity = EXCLUDED.capacity, max_organization = EXCLUDED.max_organization,
		   cost_ore = EXCLUDED.cost_ore, cost_lumber = EXCLUDED.cost_lumber, cost_coal = EXCLUDED.cost_coal,
		   cost_rations = EXCLUDED.cost_rations, cost_cloth = EXCLUDED.cost_cloth, cost_platinum = EXCLUDED.cost_platinum,
		   upkeep_ore = EXCLUDED.upkeep_ore, upkeep_lumber = EXCLUDED.upkeep_lumber, upkeep_coal = EXCLUDED.upkeep_coal,
		   upkeep_rations = EXCLUDED.upkeep_rations, upkeep_cloth = EXCLUDED.upkeep_cloth, upkeep_platinum = EXCLUDED.upkeep_platinum,
		   keywords = EXCLUDED.keywords`,
		t.guildID, ut.UnitTypeID, ut.Name, nullStr(ut.Nation),
		ut.Movement, ut.Attack, ut.Defense, ut.SiegeAttack, ut.SiegeDefense,
		ut.Size, ut.Capacity, ut.MaxOrganization,
		ut.Cost.Ore, ut.Cost.Lumber, ut.Cost.Coal, ut.Cost.Rations, ut.Cost.Cloth, ut.Cost.Platinum,
		ut.Upkeep.Ore, ut.Upkeep.Lumber, ut.Upkeep.Coal, ut.Upkeep.Rations, ut.Upkeep.Cloth, ut.Upkeep.Platinum,
		pq.Array([]string(ut.Keywords)))
	if err != nil {
		return mapErr("upsert unit type", err)
	}
	return nil
}

// FetchNavalPositions returns every naval occupancy row of the guild.
func (t *Txn) FetchNavalPositions(ctx context.Context) ([]*model.NavalUnitPosition, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT guild_id, unit_id, territory_id
		 FROM naval_unit_positions WHERE guild_id = $1`, t.guildID)
	if err != nil {
		return nil, mapErr("fetch naval positions", err)
	}
	defer rows.Close()

	var out []*model.NavalUnitPosition
	for rows.Next() {
		var p model.NavalUnitPosition
		if err := rows.Scan(&p.GuildID, &p.UnitID, &p.TerritoryID); err != nil {
			return nil, mapErr("scan naval position", err)
		}
		out = append(out, &p)
	}
	return out, mapErr("fetch naval positions", rows.Err())
}

// ReplaceNavalPositions swaps a naval unit's occupancy set.
func (t *Txn) ReplaceNavalPositions(ctx context.Context, unitID string, territoryIDs []string) error {
	if _, err := t.tx.ExecContext(ctx,
		`DELETE FROM naval_unit_positions WHERE guild_id = $1 AND unit_id = $2`,
		t.guildID, unitID); err != nil {
		return mapErr("clear naval positions", err)
	}
	for _, terrID := range territoryIDs {
		if _, err := t.tx.ExecContext(ctx,
			`INSERT INTO naval_unit_positions (guild_id, unit_id, territory_id) VALUES ($1, $2, $3)`,
			t.guildID, unitID, terrID); err != nil {
			return mapErr("insert naval position", err)
		}
	}
	return nil
}
