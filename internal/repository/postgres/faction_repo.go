package postgres

import (
	"context"
	"database/sql"

	"github.com/veldtgames/warcouncil/internal/model"
)

// FetchFactions returns every faction of the guild.
func (t *Txn) FetchFactions(ctx context.Context) ([]*model.Faction, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT guild_id, faction_id, name, nation, leader_character_id, has_declared_war, created_turn
		 FROM factions WHERE guild_id = $1 ORDER BY faction_id`, t.guildID)
	if err != nil {
		return nil, mapErr("fetch factions", err)
	}
	defer rows.Close()

	var out []*model.Faction
	for rows.Next() {
		var f model.Faction
		var nation, leader sql.NullString
		if err := rows.Scan(&f.GuildID, &f.FactionID, &f.Name, &nation, &leader, &f.HasDeclaredWar, &f.CreatedTurn); err != nil {
			return nil, mapErr("scan faction", err)
		}
		f.Nation = nation.String
		f.LeaderCharacterID = leader.String
		out = append(out, &f)
	}
	return out, mapErr("fetch factions", rows.Err())
}

// UpsertFaction writes a faction row.
func (t *Txn) UpsertFaction(ctx context.Context, f *model.Faction) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO factions (guild_id, faction_id, name, nation, leader_character_id, has_declared_war, created_turn)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (guild_id, faction_id) DO UPDATE SET
		   name = EXCLUDED.name, nation = EXCLUDED.nation,
		   leader_character_id = EXCLUDED.leader_character_id,
		   has_declared_war = EXCLUDED.has_declared_war`,
		t.guildID, f.FactionID, f.Name, nullStr(f.Nation), nullStr(f.LeaderCharacterID), f.HasDeclaredWar, f.CreatedTurn)
	if err != nil {
		return mapErr("upsert faction", err)
	}
	return nil
}

// FetchFactionMembers returns every membership row of the guild.
func (t *Txn) FetchFactionMembers(ctx context.Context) ([]*model.FactionMember, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT guild_id, faction_id, character_id, joined_turn
		 FROM faction_members WHERE guild_id = $1`, t.guildID)
	if err != nil {
		return nil, mapErr("fetch faction members", err)
	}
	defer rows.Close()

	var out []*model.FactionMember
	for rows.Next() {
		var m model.FactionMember
		if err := rows.Scan(&m.GuildID, &m.FactionID, &m.CharacterID, &m.JoinedTurn); err != nil {
			return nil, mapErr("scan faction member", err)
		}
		out = append(out, &m)
	}
	return out, mapErr("fetch faction members", rows.Err())
}

// InsertFactionMember adds a membership.
func (t *Txn) InsertFactionMember(ctx context.Context, m *model.FactionMember) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO faction_members (guild_id, faction_id, character_id, joined_turn)
		 VALUES ($1, $2, $3, $4)`,
		t.guildID, m.FactionID, m.CharacterID, m.JoinedTurn)
	if err != nil {
		return mapErr("insert faction member", err)
	}
	return nil
}

// DeleteFactionMember removes a membership.
func (t *Txn) DeleteFactionMember(ctx context.Context, factionID, characterID string) error {
	_, err := t.tx.ExecContext(ctx,
		`DELETE FROM faction_members WHERE guild_id = $1 AND faction_id = $2 AND character_id = $3`,
		t.guildID, factionID, characterID)
	if err != nil {
		return mapErr("delete faction member", err)
	}
	return nil
}

// FetchFactionPermissions returns every permission grant of the guild.
func (t *Txn) FetchFactionPermissions(ctx context.Context) ([]*model.FactionPermission, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT guild_id, faction_id, character_id, permission_type
		 FROM faction_permissions WHERE guild_id = $1`, t.guildID)
	if err != nil {
		return nil, mapErr("fetch faction permissions", err)
	}
	defer rows.Close()

	var out []*model.FactionPermission
	for rows.Next() {
		var p model.FactionPermission
		if err := rows.Scan(&p.GuildID, &p.FactionID, &p.CharacterID, &p.PermissionType); err != nil {
			return nil, mapErr("scan faction permission", err)
		}
		out = append(out, &p)
	}
	return out, mapErr("fetch faction permissions", rows.Err())
}

// UpsertFactionPermission grants a permission.
func (t *Txn) UpsertFactionPermission(ctx context.Context, p *model.FactionPermission) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO faction_permissions (guild_id, faction_id, character_id, permission_type)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (guild_id, faction_id, character_id, permission_type) DO NOTHING`,
		t.guildID, p.FactionID, p.CharacterID, p.PermissionType)
	if err != nil {
		return mapErr("upsert faction permission", err)
	}
	return nil
}

const characterColumns = `guild_id, identifier, name, user_id,
	ore, lumber, coal, rations, cloth, platinum,
	victory_points, represented_faction_id, representation_changed_turn`

func scanCharacter(scan func(dest ...any) error) (*model.Character, error) {
	var c model.Character
	var userID, faction sql.NullString
	err := scan(&c.GuildID, &c.Identifier, &c.Name, &userID,
		&c.Production.Ore, &c.Production.Lumber, &c.Production.Coal,
		&c.Production.Rations, &c.Production.Cloth, &c.Production.Platinum,
		&c.VictoryPoints, &faction, &c.RepresentationChangedTurn)
	if err != nil {
		return nil, err
	}
	c.UserID = userID.String
	c.RepresentedFactionID = faction.String
	return &c, nil
}

// FetchCharacters returns every character of the guild.
func (t *Txn) FetchCharacters(ctx context.Context) ([]*model.Character, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE guild_id = $1 ORDER BY identifier`, t.guildID)
	if err != nil {
		return nil, mapErr("fetch characters", err)
	}
	defer rows.Close()

	var out []*model.Character
	for rows.Next() {
		c, err := scanCharacter(rows.Scan)
		if err != nil {
			return nil, mapErr("scan character", err)
		}
		out = append(out, c)
	}
	return out, mapErr("fetch characters", rows.Err())
}

// FetchCharacterByID returns one character.
func (t *Txn) FetchCharacterByID(ctx context.Context, identifier string) (*model.Character, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE guild_id = $1 AND identifier = $2`,
		t.guildID, identifier)
	c, err := scanCharacter(row.Scan)
	if err != nil {
		return nil, mapErr("fetch character", err)
	}
	return c, nil
}

// UpsertCharacter writes a character row.
func (t *Txn) UpsertCharacter(ctx context.Context, c *model.Character) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO characters (`+characterColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (guild_id, identifier) DO UPDATE SET
		   name = EXCLUDED.name, user_id = EXCLUDED.user_id,
		   ore = EXCLUDED.ore, lumber = EXCLUDED.lumber, coal = EXCLUDED.coal,
		   rations = EXCLUDED.rations, cloth = EXCLUDED.cloth, platinum = EXCLUDED.platinum,
		   victory_points = EXCLUDED.victory_points,
		   represented_faction_id = EXCLUDED.represented_faction_id,
		   representation_changed_turn = EXCLUDED.representation_changed_turn`,
		t.guildID, c.Identifier, c.Name, nullStr(c.UserID),
		c.Production.Ore, c.Production.Lumber, c.Production.Coal,
		c.Production.Rations, c.Production.Cloth, c.Production.Platinum,
		c.VictoryPoints, nullStr(c.RepresentedFactionID), c.RepresentationChangedTurn)
	if err != nil {
		return mapErr("upsert character", err)
	}
	return nil
}
