package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/veldtgames/warcouncil/internal/model"
	"github.com/veldtgames/warcouncil/internal/testutil"
	"github.com/veldtgames/warcouncil/pkg/wargame"
)

func marchOrder(path ...string) *model.Order {
	raw, _ := json.Marshal(&wargame.UnitOrderData{Action: model.ActionTransit, Path: path})
	return &model.Order{
		OrderType: model.OrderTypeUnit, UnitIDs: []string{"u-1"},
		CharacterID: "alice", Data: raw,
	}
}

func TestSubmitOrderStampsAndStores(t *testing.T) {
	store := testutil.NewMemStore()
	seedMarch(store, 5)
	g := store.Guild(testGuild)
	delete(g.Orders, "order-march")

	svc := NewOrderService(store)
	o, err := svc.SubmitOrder(context.Background(), testGuild, marchOrder("aldfell", "bruma"), false)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if o.OrderID == "" {
		t.Error("no order id assigned")
	}
	if o.Status != model.OrderPending || o.TurnNumber != 5 {
		t.Errorf("order = %s turn %d, want PENDING turn 5", o.Status, o.TurnNumber)
	}
	if o.Phase != string(wargame.PhaseMovement) || o.Priority != 100 {
		t.Errorf("routing = %s/%d, want movement/100", o.Phase, o.Priority)
	}
	if g.Orders[o.OrderID] == nil {
		t.Error("order not persisted")
	}
}

func TestSubmitOrderRejectsInvalidPath(t *testing.T) {
	store := testutil.NewMemStore()
	seedMarch(store, 5)
	g := store.Guild(testGuild)
	delete(g.Orders, "order-march")
	g.Territories["carth"] = &model.Territory{
		GuildID: testGuild, TerritoryID: "carth", Name: "carth", TerrainType: model.TerrainPlains,
	}

	svc := NewOrderService(store)
	_, err := svc.SubmitOrder(context.Background(), testGuild, marchOrder("aldfell", "carth"), false)
	var ve *wargame.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want a validation error", err)
	}
	if len(g.Orders) != 0 {
		t.Error("rejected order was persisted")
	}
}

func TestSubmitOrderConflictAndOverride(t *testing.T) {
	store := testutil.NewMemStore()
	prior := seedMarch(store, 5)

	svc := NewOrderService(store)
	_, err := svc.SubmitOrder(context.Background(), testGuild, marchOrder("aldfell", "bruma"), false)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want *ConflictError", err)
	}
	if len(conflict.OrderIDs) != 1 || conflict.OrderIDs[0] != "order-march" {
		t.Errorf("conflicting orders = %v, want [order-march]", conflict.OrderIDs)
	}

	o, err := svc.SubmitOrder(context.Background(), testGuild, marchOrder("aldfell", "bruma"), true)
	if err != nil {
		t.Fatalf("override submit: %v", err)
	}
	if prior.Status != model.OrderCancelled {
		t.Errorf("prior status = %s, want CANCELLED", prior.Status)
	}
	if prior.ResultData["cancelled_reason"] != "overridden_by_new_order" {
		t.Errorf("cancelled_reason = %v", prior.ResultData["cancelled_reason"])
	}
	if store.Guild(testGuild).Orders[o.OrderID] == nil {
		t.Error("override order not persisted")
	}
}

func TestCancelOrder(t *testing.T) {
	store := testutil.NewMemStore()
	g := store.Guild(testGuild)
	g.Config.CurrentTurn = 5
	raw, _ := json.Marshal(&wargame.TransferData{
		RecipientKind: "character", RecipientID: "bob",
		Amounts: model.Resources{Ore: 1},
	})
	g.Orders["order-gift"] = &model.Order{
		GuildID: testGuild, OrderID: "order-gift", OrderType: model.OrderTypeResourceTransfer,
		CharacterID: "alice", TurnNumber: 5, Status: model.OrderPending,
		Data: raw, SubmittedAt: time.Now(),
	}

	svc := NewOrderService(store)
	if _, err := svc.CancelOrder(context.Background(), testGuild, "order-gift", "bob"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger cancel err = %v, want ErrForbidden", err)
	}

	o, err := svc.CancelOrder(context.Background(), testGuild, "order-gift", "alice")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if o.Status != model.OrderCancelled || o.ResultData["cancelled_reason"] != "cancelled_by_player" {
		t.Errorf("order = %s %v", o.Status, o.ResultData)
	}
	if o.UpdatedTurn != 5 {
		t.Errorf("updated turn = %d, want 5", o.UpdatedTurn)
	}

	// Cancelling a terminal order is a no-op.
	again, err := svc.CancelOrder(context.Background(), testGuild, "order-gift", "alice")
	if err != nil || again.Status != model.OrderCancelled {
		t.Errorf("repeat cancel = %v, %v", again, err)
	}
}

func TestCancelVictoryAssignmentRespectsMinimumTerm(t *testing.T) {
	store := testutil.NewMemStore()
	g := store.Guild(testGuild)

	seed := func(id string, turnsActive int) {
		raw, _ := json.Marshal(&wargame.AssignVictoryPointsData{
			TerritoryID: "crown", TargetCharacterID: "bob", TurnsActive: turnsActive,
		})
		g.Orders[id] = &model.Order{
			GuildID: testGuild, OrderID: id, OrderType: model.OrderTypeAssignVictoryPoints,
			CharacterID: "alice", Status: model.OrderOngoing, Data: raw,
		}
	}
	seed("order-young", 1)
	seed("order-old", 3)

	svc := NewOrderService(store)
	if _, err := svc.CancelOrder(context.Background(), testGuild, "order-young", "alice"); !errors.Is(err, ErrTooEarlyToCancel) {
		t.Fatalf("err = %v, want ErrTooEarlyToCancel", err)
	}
	if g.Orders["order-young"].Status != model.OrderOngoing {
		t.Error("too-early cancel mutated the order")
	}

	o, err := svc.CancelOrder(context.Background(), testGuild, "order-old", "alice")
	if err != nil {
		t.Fatalf("cancel after three turns: %v", err)
	}
	if o.Status != model.OrderCancelled {
		t.Errorf("status = %s, want CANCELLED", o.Status)
	}
}
