package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/veldtgames/warcouncil/internal/service"
)

// TurnHandler handles turn resolution and event feed endpoints.
type TurnHandler struct {
	turnSvc  *service.TurnService
	eventSvc *service.EventService
}

// NewTurnHandler creates a TurnHandler.
func NewTurnHandler(turnSvc *service.TurnService, eventSvc *service.EventService) *TurnHandler {
	return &TurnHandler{turnSvc: turnSvc, eventSvc: eventSvc}
}

// AdvanceTurn handles POST /api/v1/guilds/{guildId}/turn/advance
// GM-only: resolves the current turn and advances the counter.
func (h *TurnHandler) AdvanceTurn(w http.ResponseWriter, r *http.Request) {
	gid, ok := guildID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid guild id")
		return
	}
	if _, gm := callerIdentity(r); !gm {
		writeError(w, http.StatusForbidden, "turn resolution requires game master access")
		return
	}

	result, err := h.turnSvc.AdvanceTurn(r.Context(), gid)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrTurnInProgress) {
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Events handles GET /api/v1/guilds/{guildId}/events?since_turn=N
// Players see only events addressed to their character; GMs see all.
func (h *TurnHandler) Events(w http.ResponseWriter, r *http.Request) {
	gid, ok := guildID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid guild id")
		return
	}
	characterID, gm := callerIdentity(r)
	if characterID == "" && !gm {
		writeError(w, http.StatusUnauthorized, "missing character identity")
		return
	}

	sinceTurn := 0
	if raw := r.URL.Query().Get("since_turn"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid since_turn")
			return
		}
		sinceTurn = n
	}

	events, err := h.eventSvc.EventsSince(r.Context(), gid, sinceTurn, characterID, gm)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"since_turn": sinceTurn,
		"events":     events,
	})
}
