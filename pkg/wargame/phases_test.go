package wargame

import (
	"testing"

	"github.com/veldtgames/warcouncil/internal/model"
)

func TestScheduleRoutesUnitOrdersByAction(t *testing.T) {
	land, ok := Schedule(model.OrderTypeUnit, model.ActionTransit)
	if !ok || land.Phase != PhaseMovement {
		t.Errorf("transit phase = %s, want movement", land.Phase)
	}
	naval, ok := Schedule(model.OrderTypeUnit, model.ActionNavalPatrol)
	if !ok || naval.Phase != PhaseNavalMovement {
		t.Errorf("naval_patrol phase = %s, want naval_movement", naval.Phase)
	}
	if land.Priority != naval.Priority {
		t.Errorf("unit priorities diverge: %d vs %d", land.Priority, naval.Priority)
	}
	if _, ok := Schedule("BRIBE_OFFICIAL", ""); ok {
		t.Error("unknown order type scheduled")
	}
}

func TestCancelResolvesBeforeTransfer(t *testing.T) {
	cancel, _ := Schedule(model.OrderTypeCancelTransfer, "")
	transfer, _ := Schedule(model.OrderTypeResourceTransfer, "")
	if cancel.Phase != transfer.Phase {
		t.Fatalf("phases differ: %s vs %s", cancel.Phase, transfer.Phase)
	}
	if cancel.Priority >= transfer.Priority {
		t.Errorf("cancel priority %d is not below transfer priority %d",
			cancel.Priority, transfer.Priority)
	}
}

func TestEventTurnStamping(t *testing.T) {
	// Mid-turn phases stamp the current turn; everything the player sees
	// at the top of their next turn stamps turn+1.
	for _, phase := range PhaseSequence() {
		got := EventTurn(phase, 9)
		switch phase {
		case PhaseMovement, PhaseNavalMovement, PhaseEncirclement, PhaseCombat, PhaseNavalCombat:
			if got != 9 {
				t.Errorf("EventTurn(%s, 9) = %d, want 9", phase, got)
			}
		default:
			if got != 10 {
				t.Errorf("EventTurn(%s, 9) = %d, want 10", phase, got)
			}
		}
	}
}
