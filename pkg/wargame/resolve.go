package wargame

import (
	"fmt"
	"sort"
	"time"

	"github.com/veldtgames/warcouncil/internal/model"
)

// MaxCombatRounds bounds a single territory's combat loop.
const MaxCombatRounds = 10

// ExecError is an order execution failure: the order was valid at
// submission but an invariant broke by execution time. The order is
// marked FAILED and an ORDER_FAILED event carries the audience.
type ExecError struct {
	Reason   string
	Audience []string
}

func (e *ExecError) Error() string { return e.Reason }

func execErrorf(format string, args ...any) *ExecError {
	return &ExecError{Reason: fmt.Sprintf(format, args...)}
}

// ResolvePhase runs one phase of the turn pipeline against the world
// snapshot and returns the emitted events. Orders must belong to the
// phase; they are processed in (priority asc, PENDING before ONGOING,
// submitted_at asc) order. Mutations land in w and w.Changes; the
// caller persists and commits.
func ResolvePhase(w *World, phase Phase, orders []*model.Order) []*model.Event {
	sortOrders(orders)
	r := &resolver{
		w:         w,
		phase:     phase,
		eventTurn: EventTurn(phase, w.Turn),
	}

	switch phase {
	case PhaseBeginning:
		r.resolveBeginning(orders)
	case PhaseResourceTransfer:
		r.resolveResourceTransfer(orders)
	case PhaseResourceCollection:
		r.resolveResourceCollection()
	case PhaseMovement:
		r.resolveMovement(orders, false)
	case PhaseNavalMovement:
		r.resolveMovement(orders, true)
	case PhaseEncirclement:
		r.resolveEncirclement()
	case PhaseCombat:
		r.resolveCombat()
	case PhaseNavalCombat:
		r.resolveNavalCombat()
	case PhaseOrganization:
		r.resolveOrganization()
	case PhaseConstruction:
		r.resolveConstruction(orders)
	case PhaseVictory:
		r.resolveVictory(orders)
	}

	return r.events
}

func sortOrders(orders []*model.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].Priority != orders[j].Priority {
			return orders[i].Priority < orders[j].Priority
		}
		// Fresh orders dispatch before continuing multi-turn ones.
		if ri, rj := statusRank(orders[i].Status), statusRank(orders[j].Status); ri != rj {
			return ri < rj
		}
		return orders[i].SubmittedAt.Before(orders[j].SubmittedAt)
	})
}

func statusRank(status string) int {
	if status == model.OrderPending {
		return 0
	}
	return 1
}

type resolver struct {
	w         *World
	phase     Phase
	eventTurn int
	events    []*model.Event
}

func (r *resolver) emit(eventType, entityType, entityID string, data map[string]any) {
	r.events = append(r.events, NewEvent(r.w.GuildID, r.eventTurn, r.phase, eventType, entityType, entityID, data))
}

func (r *resolver) setStatus(o *model.Order, status string) {
	if model.IsTerminalStatus(o.Status) {
		return
	}
	o.Status = status
	o.UpdatedTurn = r.w.Turn
	o.UpdatedAt = time.Now().UTC()
}

func (r *resolver) markSuccess(o *model.Order) { r.setStatus(o, model.OrderSuccess) }
func (r *resolver) markOngoing(o *model.Order) { r.setStatus(o, model.OrderOngoing) }

// markFailed records the failure on the order and emits ORDER_FAILED to
// the submitter plus any affected parties.
func (r *resolver) markFailed(o *model.Order, reason string, audience ...string) {
	o.SetResult("error", reason)
	r.setStatus(o, model.OrderFailed)
	all := append([]string{o.CharacterID}, audience...)
	r.emit(model.EventOrderFailed, model.EntityOrder, o.OrderID, Audience(map[string]any{
		"order_type": o.OrderType,
		"reason":     reason,
	}, all...))
}

// runOrder executes fn and converts an ExecError into a FAILED order.
// Other errors (decode failures and the like) fail the order too; an
// order error never aborts the phase.
func (r *resolver) runOrder(o *model.Order, fn func() error) {
	err := fn()
	if err == nil {
		return
	}
	if ee, ok := err.(*ExecError); ok {
		r.markFailed(o, ee.Reason, ee.Audience...)
		return
	}
	r.markFailed(o, err.Error())
}
