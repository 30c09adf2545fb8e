package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/veldtgames/warcouncil/internal/model"
)

// InsertEvents appends turn log records.
func (t *Txn) InsertEvents(ctx context.Context, events []*model.Event) error {
	for _, e := range events {
		var data sql.NullString
		if e.EventData != nil {
			raw, err := json.Marshal(e.EventData)
			if err != nil {
				return fmt.Errorf("encode event data for %s: %w", e.EventID, err)
			}
			data = sql.NullString{String: string(raw), Valid: true}
		}
		_, err := t.tx.ExecContext(ctx,
			`INSERT INTO turn_events (guild_id, event_id, turn_number, phase, event_type, entity_type, entity_id, event_data, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			t.guildID, e.EventID, e.TurnNumber, e.Phase, e.EventType, e.EntityType, e.EntityID, data, e.Timestamp)
		if err != nil {
			return mapErr("insert event", err)
		}
	}
	return nil
}

// FetchEventsSinceTurn returns the turn log from the given turn onward,
// in emission order.
func (t *Txn) FetchEventsSinceTurn(ctx context.Context, turn int) ([]*model.Event, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT guild_id, event_id, turn_number, phase, event_type, entity_type, entity_id, event_data, created_at
		 FROM turn_events WHERE guild_id = $1 AND turn_number >= $2
		 ORDER BY created_at ASC`, t.guildID, turn)
	if err != nil {
		return nil, mapErr("fetch events", err)
	}
	defer rows.Close()

	var out []*model.Event
	for rows.Next() {
		var e model.Event
		var data sql.NullString
		if err := rows.Scan(&e.GuildID, &e.EventID, &e.TurnNumber, &e.Phase,
			&e.EventType, &e.EntityType, &e.EntityID, &data, &e.Timestamp); err != nil {
			return nil, mapErr("scan event", err)
		}
		if data.Valid && data.String != "" {
			if err := json.Unmarshal([]byte(data.String), &e.EventData); err != nil {
				return nil, fmt.Errorf("decode event data for %s: %w", e.EventID, err)
			}
		}
		out = append(out, &e)
	}
	return out, mapErr("fetch events", rows.Err())
}
