package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/veldtgames/warcouncil/internal/logger"
	"github.com/veldtgames/warcouncil/internal/model"
	"github.com/veldtgames/warcouncil/internal/repository"
	"github.com/veldtgames/warcouncil/pkg/wargame"
)

var (
	// ErrForbidden is returned when a character acts on an order they do
	// not own.
	ErrForbidden = errors.New("forbidden")
	// ErrTooEarlyToCancel is returned when a victory point assignment has
	// not yet run its three-turn minimum.
	ErrTooEarlyToCancel = errors.New("victory point assignment must run at least 3 turns before cancellation")
)

// ConflictError reports pending orders that already claim a unit the new
// order references. The client resubmits with override to cancel them.
type ConflictError struct {
	OrderIDs []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("units already have pending orders: %s", strings.Join(e.OrderIDs, ", "))
}

// OrderService accepts and cancels player orders.
type OrderService struct {
	store repository.Store
}

// NewOrderService creates an order service.
func NewOrderService(store repository.Store) *OrderService {
	return &OrderService{store: store}
}

// SubmitOrder validates an order against the current world state, routes
// it to its phase and priority, and stores it PENDING for the next
// resolution. When override is false and another PENDING or ONGOING
// order claims one of the same units, a ConflictError is returned;
// when override is true the prior orders are cancelled instead.
func (s *OrderService) SubmitOrder(ctx context.Context, guildID int64, o *model.Order, override bool) (*model.Order, error) {
	txn, err := s.store.Begin(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}
	defer txn.Rollback()

	w, err := LoadWorld(ctx, txn, guildID)
	if err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}

	now := time.Now().UTC()
	o.GuildID = guildID
	o.OrderID = uuid.NewString()
	o.TurnNumber = w.Turn
	o.Status = model.OrderPending
	o.SubmittedAt = now
	o.UpdatedAt = now
	o.UpdatedTurn = w.Turn

	// Validation also normalizes the payload (transport decomposition,
	// path bookkeeping) back onto o.Data.
	if err := wargame.ValidateSubmission(w, o); err != nil {
		return nil, err
	}

	action := ""
	if o.OrderType == model.OrderTypeUnit {
		data, err := wargame.DecodeUnitOrderData(o)
		if err != nil {
			return nil, fmt.Errorf("submit order: %w", err)
		}
		action = data.Action
	}
	entry, ok := wargame.Schedule(o.OrderType, action)
	if !ok {
		return nil, fmt.Errorf("submit order: no schedule entry for %s", o.OrderType)
	}
	o.Phase = string(entry.Phase)
	o.Priority = entry.Priority

	if len(o.UnitIDs) > 0 {
		active := []string{model.OrderPending, model.OrderOngoing}
		existing, err := txn.FetchOrdersForUnits(ctx, o.UnitIDs, active)
		if err != nil {
			return nil, fmt.Errorf("submit order: %w", err)
		}
		if len(existing) > 0 && !override {
			ids := make([]string, len(existing))
			for i, prior := range existing {
				ids[i] = prior.OrderID
			}
			return nil, &ConflictError{OrderIDs: ids}
		}
		for _, prior := range existing {
			prior.Status = model.OrderCancelled
			prior.SetResult("cancelled_reason", "overridden_by_new_order")
			prior.UpdatedAt = now
			prior.UpdatedTurn = w.Turn
			if err := txn.UpdateOrder(ctx, prior); err != nil {
				return nil, fmt.Errorf("submit order: %w", err)
			}
		}
	}

	if err := txn.InsertOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}
	if err := txn.Commit(); err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}

	log := logger.Get()
	log.Info().
		Int64("guild_id", guildID).
		Str("order_id", o.OrderID).
		Str("order_type", o.OrderType).
		Str("phase", o.Phase).
		Msg("order submitted")
	return o, nil
}

// CancelOrder cancels a PENDING or ONGOING order owned by the character.
// Cancelling an already-terminal order is a no-op and returns the order
// as stored. Victory point assignments must run at least three turns
// before they can be cancelled.
func (s *OrderService) CancelOrder(ctx context.Context, guildID int64, orderID, characterID string) (*model.Order, error) {
	txn, err := s.store.Begin(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	defer txn.Rollback()

	o, err := txn.FetchOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	if o.CharacterID != characterID {
		return nil, ErrForbidden
	}
	if model.IsTerminalStatus(o.Status) {
		return o, nil
	}

	if o.OrderType == model.OrderTypeAssignVictoryPoints {
		data, err := wargame.DecodeAssignVictoryPointsData(o)
		if err != nil {
			return nil, fmt.Errorf("cancel order: %w", err)
		}
		if data.TurnsActive < 3 {
			return nil, fmt.Errorf("order %s has run %d turns: %w", o.OrderID, data.TurnsActive, ErrTooEarlyToCancel)
		}
	}

	cfg, err := txn.GuildConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	o.Status = model.OrderCancelled
	o.SetResult("cancelled_reason", "cancelled_by_player")
	o.UpdatedAt = time.Now().UTC()
	o.UpdatedTurn = cfg.CurrentTurn
	if err := txn.UpdateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	if err := txn.Commit(); err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}

	log := logger.Get()
	log.Info().
		Int64("guild_id", guildID).
		Str("order_id", orderID).
		Msg("order cancelled")
	return o, nil
}
