package postgres

import (
	"context"

	"github.com/veldtgames/warcouncil/internal/model"
)

func (t *Txn) fetchLedgers(ctx context.Context, table string) ([]*model.ResourceLedger, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT guild_id, owner_id, ore, lumber, coal, rations, cloth, platinum
		 FROM `+table+` WHERE guild_id = $1 ORDER BY owner_id`, t.guildID)
	if err != nil {
		return nil, mapErr("fetch "+table, err)
	}
	defer rows.Close()

	var out []*model.ResourceLedger
	for rows.Next() {
		var l model.ResourceLedger
		if err := rows.Scan(&l.GuildID, &l.OwnerID,
			&l.Amounts.Ore, &l.Amounts.Lumber, &l.Amounts.Coal,
			&l.Amounts.Rations, &l.Amounts.Cloth, &l.Amounts.Platinum); err != nil {
			return nil, mapErr("scan "+table, err)
		}
		out = append(out, &l)
	}
	return out, mapErr("fetch "+table, rows.Err())
}

func (t *Txn) upsertLedger(ctx context.Context, table string, l *model.ResourceLedger) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO `+table+` (guild_id, owner_id, ore, lumber, coal, rations, cloth, platinum)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (guild_id, owner_id) DO UPDATE SET
		   ore = EXCLUDED.ore, lumber = EXCLUDED.lumber, coal = EXCLUDED.coal,
		   rations = EXCLUDED.rations, cloth = EXCLUDED.cloth, platinum = EXCLUDED.platinum`,
		t.guildID, l.OwnerID,
		l.Amounts.Ore, l.Amounts.Lumber, l.Amounts.Coal,
		l.Amounts.Rations, l.Amounts.Cloth, l.Amounts.Platinum)
	if err != nil {
		return mapErr("upsert "+table, err)
	}
	return nil
}

// FetchPlayerResources returns every character inventory of the guild.
func (t *Txn) FetchPlayerResources(ctx context.Context) ([]*model.ResourceLedger, error) {
	return t.fetchLedgers(ctx, "player_resources")
}

// UpsertPlayerResources writes a character inventory.
func (t *Txn) UpsertPlayerResources(ctx context.Context, l *model.ResourceLedger) error {
	return t.upsertLedger(ctx, "player_resources", l)
}

// FetchFactionResources returns every faction treasury of the guild.
func (t *Txn) FetchFactionResources(ctx context.Context) ([]*model.ResourceLedger, error) {
	return t.fetchLedgers(ctx, "faction_resources")
}

// UpsertFactionResources writes a faction treasury.
func (t *Txn) UpsertFactionResources(ctx context.Context, l *model.ResourceLedger) error {
	return t.upsertLedger(ctx, "faction_resources", l)
}
