package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/veldtgames/warcouncil/internal/model"
	"github.com/veldtgames/warcouncil/internal/repository"
	"github.com/veldtgames/warcouncil/internal/service"
	"github.com/veldtgames/warcouncil/pkg/wargame"
)

// OrderHandler handles order submission and cancellation endpoints.
type OrderHandler struct {
	orderSvc *service.OrderService
}

// NewOrderHandler creates an OrderHandler.
func NewOrderHandler(orderSvc *service.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// orderSubmission is the request body for SubmitOrder.
type orderSubmission struct {
	OrderType string          `json:"order_type"`
	UnitIDs   []string        `json:"unit_ids,omitempty"`
	OrderData json.RawMessage `json:"order_data"`
	Override  bool            `json:"override,omitempty"`
}

// SubmitOrder handles POST /api/v1/guilds/{guildId}/orders
func (h *OrderHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	gid, ok := guildID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid guild id")
		return
	}
	characterID, _ := callerIdentity(r)
	if characterID == "" {
		writeError(w, http.StatusUnauthorized, "missing character identity")
		return
	}

	var req orderSubmission
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order := &model.Order{
		OrderType:   req.OrderType,
		UnitIDs:     req.UnitIDs,
		CharacterID: characterID,
		Data:        req.OrderData,
	}
	submitted, err := h.orderSvc.SubmitOrder(r.Context(), gid, order, req.Override)
	if err != nil {
		var valErr *wargame.ValidationError
		var conflict *service.ConflictError
		switch {
		case errors.As(err, &valErr):
			writeError(w, http.StatusUnprocessableEntity, valErr.Reason)
		case errors.As(err, &conflict):
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":                 "units already have pending orders",
				"conflicting_order_ids": conflict.OrderIDs,
			})
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusCreated, submitted)
}

// CancelOrder handles DELETE /api/v1/guilds/{guildId}/orders/{orderId}
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	gid, ok := guildID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid guild id")
		return
	}
	characterID, _ := callerIdentity(r)
	if characterID == "" {
		writeError(w, http.StatusUnauthorized, "missing character identity")
		return
	}

	order, err := h.orderSvc.CancelOrder(r.Context(), gid, r.PathValue("orderId"), characterID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrForbidden) {
			status = http.StatusForbidden
		} else if errors.Is(err, service.ErrTooEarlyToCancel) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, order)
}
