package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/veldtgames/warcouncil/internal/model"
	"github.com/veldtgames/warcouncil/internal/repository"
)

// Store is the PostgreSQL implementation of repository.Store.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store over an open connection pool.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// GuildConfig returns the engine settings for a guild.
func (s *Store) GuildConfig(ctx context.Context, guildID int64) (*model.GuildConfig, error) {
	var cfg model.GuildConfig
	var channelID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT guild_id, current_turn, turn_resolution_enabled, max_movement_stat, gm_reports_channel_id
		 FROM guild_configs WHERE guild_id = $1`, guildID,
	).Scan(&cfg.GuildID, &cfg.CurrentTurn, &cfg.TurnResolutionEnabled, &cfg.MaxMovementStat, &channelID)
	if err != nil {
		return nil, mapErr("guild config", err)
	}
	cfg.GMReportsChannelID = channelID.String
	return &cfg, nil
}

// UpsertGuildConfig writes the engine settings for a guild.
func (s *Store) UpsertGuildConfig(ctx context.Context, cfg *model.GuildConfig) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO guild_configs (guild_id, current_turn, turn_resolution_enabled, max_movement_stat, gm_reports_channel_id)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (guild_id) DO UPDATE SET
		   current_turn = EXCLUDED.current_turn,
		   turn_resolution_enabled = EXCLUDED.turn_resolution_enabled,
		   max_movement_stat = EXCLUDED.max_movement_stat,
		   gm_reports_channel_id = EXCLUDED.gm_reports_channel_id`,
		cfg.GuildID, cfg.CurrentTurn, cfg.TurnResolutionEnabled, cfg.MaxMovementStat, nullStr(cfg.GMReportsChannelID))
	if err != nil {
		return mapErr("upsert guild config", err)
	}
	return nil
}

// Begin opens a guild-scoped transaction.
func (s *Store) Begin(ctx context.Context, guildID int64) (repository.Txn, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapErr("begin", err)
	}
	return &Txn{tx: tx, guildID: guildID}, nil
}

// Txn implements repository.Txn over a single *sql.Tx. Every query is
// scoped by the guild id captured at Begin.
type Txn struct {
	tx      *sql.Tx
	guildID int64
}

func (t *Txn) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return mapErr("commit", err)
	}
	return nil
}

func (t *Txn) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return mapErr("rollback", err)
	}
	return nil
}

// GuildConfig reads the guild settings inside the transaction.
func (t *Txn) GuildConfig(ctx context.Context) (*model.GuildConfig, error) {
	var cfg model.GuildConfig
	var channelID sql.NullString
	err := t.tx.QueryRowContext(ctx,
		`SELECT guild_id, current_turn, turn_resolution_enabled, max_movement_stat, gm_reports_channel_id
		 FROM guild_configs WHERE guild_id = $1`, t.guildID,
	).Scan(&cfg.GuildID, &cfg.CurrentTurn, &cfg.TurnResolutionEnabled, &cfg.MaxMovementStat, &channelID)
	if err != nil {
		return nil, mapErr("guild config", err)
	}
	cfg.GMReportsChannelID = channelID.String
	return &cfg, nil
}

// SetCurrentTurn advances the guild's turn counter.
func (t *Txn) SetCurrentTurn(ctx context.Context, turn int) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE guild_configs SET current_turn = $2 WHERE guild_id = $1`, t.guildID, turn)
	if err != nil {
		return mapErr("set current turn", err)
	}
	return nil
}

// mapErr wraps a driver error into the store taxonomy so callers can
// branch with errors.Is.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505":
			return fmt.Errorf("%s: %w: %v", op, repository.ErrConflict, err)
		case pqErr.Code == "40001" || pqErr.Code == "40P01":
			return fmt.Errorf("%s: %w: %v", op, repository.ErrTransient, err)
		case pqErr.Code.Class() == "08":
			return fmt.Errorf("%s: %w: %v", op, repository.ErrTransient, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
