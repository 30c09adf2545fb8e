package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/veldtgames/warcouncil/internal/model"
)

const orderColumns = `guild_id, order_id, order_type, unit_ids, character_id,
	turn_number, phase, priority, status, order_data, result_data,
	submitted_at, updated_at, updated_turn`

func scanOrder(scan func(dest ...any) error) (*model.Order, error) {
	var o model.Order
	var unitIDs pq.StringArray
	var orderData, resultData sql.NullString
	err := scan(&o.GuildID, &o.OrderID, &o.OrderType, &unitIDs, &o.CharacterID,
		&o.TurnNumber, &o.Phase, &o.Priority, &o.Status, &orderData, &resultData,
		&o.SubmittedAt, &o.UpdatedAt, &o.UpdatedTurn)
	if err != nil {
		return nil, err
	}
	o.UnitIDs = []string(unitIDs)
	if orderData.Valid {
		o.Data = json.RawMessage(orderData.String)
	}
	if resultData.Valid && resultData.String != "" {
		if err := json.Unmarshal([]byte(resultData.String), &o.ResultData); err != nil {
			return nil, fmt.Errorf("decode result data for order %s: %w", o.OrderID, err)
		}
	}
	return &o, nil
}

func marshalResultData(o *model.Order) (sql.NullString, error) {
	if o.ResultData == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(o.ResultData)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode result data for order %s: %w", o.OrderID, err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func (t *Txn) fetchOrders(ctx context.Context, where, orderBy string, args ...any) ([]*model.Order, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE `+where+` ORDER BY `+orderBy, args...)
	if err != nil {
		return nil, mapErr("fetch orders", err)
	}
	defer rows.Close()

	var out []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, mapErr("scan order", err)
		}
		out = append(out, o)
	}
	return out, mapErr("fetch orders", rows.Err())
}

// FetchOrdersForPhase returns the orders dispatched in one phase of one
// turn, in resolution order: priority, then PENDING before ONGOING,
// then submission time.
func (t *Txn) FetchOrdersForPhase(ctx context.Context, turn int, phase string, statuses []string) ([]*model.Order, error) {
	return t.fetchOrders(ctx,
		`guild_id = $1 AND turn_number <= $2 AND phase = $3 AND status = ANY($4)`,
		`priority ASC, CASE WHEN status = 'PENDING' THEN 0 ELSE 1 END ASC, submitted_at ASC`,
		t.guildID, turn, phase, pq.Array(statuses))
}

// FetchOrderByID returns one order.
func (t *Txn) FetchOrderByID(ctx context.Context, orderID string) (*model.Order, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE guild_id = $1 AND order_id = $2`, t.guildID, orderID)
	o, err := scanOrder(row.Scan)
	if err != nil {
		return nil, mapErr("fetch order", err)
	}
	return o, nil
}

// FetchOrdersForUnits returns the orders referencing any of the given
// units, used for submission-time conflict detection.
func (t *Txn) FetchOrdersForUnits(ctx context.Context, unitIDs []string, statuses []string) ([]*model.Order, error) {
	return t.fetchOrders(ctx,
		`guild_id = $1 AND unit_ids && $2 AND status = ANY($3)`,
		`submitted_at ASC`,
		t.guildID, pq.Array(unitIDs), pq.Array(statuses))
}

// InsertOrder persists a newly submitted order.
func (t *Txn) InsertOrder(ctx context.Context, o *model.Order) error {
	resultData, err := marshalResultData(o)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO orders (`+orderColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		t.guildID, o.OrderID, o.OrderType, pq.Array(o.UnitIDs), o.CharacterID,
		o.TurnNumber, o.Phase, o.Priority, o.Status, nullStr(string(o.Data)), resultData,
		o.SubmittedAt, o.UpdatedAt, o.UpdatedTurn)
	if err != nil {
		return mapErr("insert order", err)
	}
	return nil
}

// UpdateOrder writes back an order's status, payload, and result.
func (t *Txn) UpdateOrder(ctx context.Context, o *model.Order) error {
	resultData, err := marshalResultData(o)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx,
		`UPDATE orders SET
		   status = $3, order_data = $4, result_data = $5, updated_at = $6, updated_turn = $7
		 WHERE guild_id = $1 AND order_id = $2`,
		t.guildID, o.OrderID, o.Status, nullStr(string(o.Data)), resultData, o.UpdatedAt, o.UpdatedTurn)
	if err != nil {
		return mapErr("update order", err)
	}
	return nil
}
