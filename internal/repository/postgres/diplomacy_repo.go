package postgres

import (
	"context"
	"database/sql"

	"github.com/veldtgames/warcouncil/internal/model"
)

// FetchAlliances returns every alliance row of the guild.
func (t *Txn) FetchAlliances(ctx context.Context) ([]*model.Alliance, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT guild_id, faction_a_id, faction_b_id, status, initiated_by_faction_id, activated_at, activated_turn
		 FROM alliances WHERE guild_id = $1`, t.guildID)
	if err != nil {
		return nil, mapErr("fetch alliances", err)
	}
	defer rows.Close()

	var out []*model.Alliance
	for rows.Next() {
		var a model.Alliance
		var activatedAt sql.NullTime
		if err := rows.Scan(&a.GuildID, &a.FactionAID, &a.FactionBID, &a.Status,
			&a.InitiatedByFactionID, &activatedAt, &a.ActivatedTurn); err != nil {
			return nil, mapErr("scan alliance", err)
		}
		if activatedAt.Valid {
			at := activatedAt.Time
			a.ActivatedAt = &at
		}
		out = append(out, &a)
	}
	return out, mapErr("fetch alliances", rows.Err())
}

// UpsertAlliance writes an alliance row. Rows are canonical with
// faction_a_id < faction_b_id.
func (t *Txn) UpsertAlliance(ctx context.Context, a *model.Alliance) error {
	var activatedAt sql.NullTime
	if a.ActivatedAt != nil {
		activatedAt = sql.NullTime{Time: *a.ActivatedAt, Valid: true}
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO alliances (guild_id, faction_a_id, faction_b_id, status, initiated_by_faction_id, activated_at, activated_turn)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (guild_id, faction_a_id, faction_b_id) DO UPDATE SET
		   status = EXCLUDED.status,
		   activated_at = EXCLUDED.activated_at,
		   activated_turn = EXCLUDED.activated_turn`,
		t.guildID, a.FactionAID, a.FactionBID, a.Status, a.InitiatedByFactionID, activatedAt, a.ActivatedTurn)
	if err != nil {
		return mapErr("upsert alliance", err)
	}
	return nil
}

// DeleteAlliance removes an alliance row.
func (t *Txn) DeleteAlliance(ctx context.Context, factionAID, factionBID string) error {
	_, err := t.tx.ExecContext(ctx,
		`DELETE FROM alliances WHERE guild_id = $1 AND faction_a_id = $2 AND faction_b_id = $3`,
		t.guildID, factionAID, factionBID)
	if err != nil {
		return mapErr("delete alliance", err)
	}
	return nil
}

// FetchWars returns every war of the guild.
func (t *Txn) FetchWars(ctx context.Context) ([]*model.War, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT guild_id, war_id, objective, declared_turn
		 FROM wars WHERE guild_id = $1 ORDER BY war_id`, t.guildID)
	if err != nil {
		return nil, mapErr("fetch wars", err)
	}
	defer rows.Close()

	var out []*model.War
	for rows.Next() {
		var w model.War
		if err := rows.Scan(&w.GuildID, &w.WarID, &w.Objective, &w.DeclaredTurn); err != nil {
			return nil, mapErr("scan war", err)
		}
		out = append(out, &w)
	}
	return out, mapErr("fetch wars", rows.Err())
}

// InsertWar creates a war.
func (t *Txn) InsertWar(ctx context.Context, w *model.War) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO wars (guild_id, war_id, objective, declared_turn) VALUES ($1, $2, $3, $4)`,
		t.guildID, w.WarID, w.Objective, w.DeclaredTurn)
	if err != nil {
		return mapErr("insert war", err)
	}
	return nil
}

// FetchWarParticipants returns every war membership row of the guild.
func (t *Txn) FetchWarParticipants(ctx context.Context) ([]*model.WarParticipant, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT guild_id, war_id, faction_id, side, joined_turn, is_original_declarer
		 FROM war_participants WHERE guild_id = $1`, t.guildID)
	if err != nil {
		return nil, mapErr("fetch war participants", err)
	}
	defer rows.Close()

	var out []*model.WarParticipant
	for rows.Next() {
		var p model.WarParticipant
		if err := rows.Scan(&p.GuildID, &p.WarID, &p.FactionID, &p.Side, &p.JoinedTurn, &p.IsOriginalDeclarer); err != nil {
			return nil, mapErr("scan war participant", err)
		}
		out = append(out, &p)
	}
	return out, mapErr("fetch war participants", rows.Err())
}

// InsertWarParticipant places a faction on a side of a war.
func (t *Txn) InsertWarParticipant(ctx context.Context, p *model.WarParticipant) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO war_participants (guild_id, war_id, faction_id, side, joined_turn, is_original_declarer)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.guildID, p.WarID, p.FactionID, p.Side, p.JoinedTurn, p.IsOriginalDeclarer)
	if err != nil {
		return mapErr("insert war participant", err)
	}
	return nil
}

// FetchJoinRequests returns every pending faction join half-handshake.
func (t *Txn) FetchJoinRequests(ctx context.Context) ([]*model.FactionJoinRequest, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT guild_id, faction_id, character_id, submitted_by, created_turn
		 FROM faction_join_requests WHERE guild_id = $1`, t.guildID)
	if err != nil {
		return nil, mapErr("fetch join requests", err)
	}
	defer rows.Close()

	var out []*model.FactionJoinRequest
	for rows.Next() {
		var r model.FactionJoinRequest
		if err := rows.Scan(&r.GuildID, &r.FactionID, &r.CharacterID, &r.SubmittedBy, &r.CreatedTurn); err != nil {
			return nil, mapErr("scan join request", err)
		}
		out = append(out, &r)
	}
	return out, mapErr("fetch join requests", rows.Err())
}

// InsertJoinRequest records one half of the join handshake.
func (t *Txn) InsertJoinRequest(ctx context.Context, r *model.FactionJoinRequest) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO faction_join_requests (guild_id, faction_id, character_id, submitted_by, created_turn)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (guild_id, faction_id, character_id, submitted_by) DO NOTHING`,
		t.guildID, r.FactionID, r.CharacterID, r.SubmittedBy, r.CreatedTurn)
	if err != nil {
		return mapErr("insert join request", err)
	}
	return nil
}

// DeleteJoinRequests drops both halves of a pair's handshake.
func (t *Txn) DeleteJoinRequests(ctx context.Context, factionID, characterID string) error {
	_, err := t.tx.ExecContext(ctx,
		`DELETE FROM faction_join_requests WHERE guild_id = $1 AND faction_id = $2 AND character_id = $3`,
		t.guildID, factionID, characterID)
	if err != nil {
		return mapErr("delete join requests", err)
	}
	return nil
}
