package wargame

import (
	"testing"

	"github.com/veldtgames/warcouncil/internal/model"
)

func TestAllianceHandshake(t *testing.T) {
	w := NewWorld(testGuild, 5)
	addCharacter(w, "ann", "alpha")
	addCharacter(w, "ben", "beta")
	addFaction(w, "alpha", "ann")
	addFaction(w, "beta", "ben")

	proposal := makeOrder(t, w, model.OrderTypeMakeAlliance, "ann", nil, &AllianceData{
		FactionID: "alpha", TargetFactionID: "beta",
	})
	events := ResolvePhase(w, PhaseBeginning, []*model.Order{proposal})

	ev := requireEvent(t, events, model.EventAlliancePending)
	if ev.EventData["waiting_for"] != "beta" {
		t.Errorf("waiting_for = %v, want beta", ev.EventData["waiting_for"])
	}
	row := w.AllianceBetween("alpha", "beta")
	if row == nil || row.Status == model.AllianceActive {
		t.Fatalf("alliance row = %+v, want pending", row)
	}

	// The counterparty answers on the next turn.
	w.Turn = 6
	answer := makeOrder(t, w, model.OrderTypeMakeAlliance, "ben", nil, &AllianceData{
		FactionID: "beta", TargetFactionID: "alpha",
	})
	events = ResolvePhase(w, PhaseBeginning, []*model.Order{answer})

	ev = requireEvent(t, events, model.EventAllianceFormed)
	if ev.EventData["activated_turn"] != 7 {
		t.Errorf("activated_turn = %v, want 7", ev.EventData["activated_turn"])
	}
	if row.Status != model.AllianceActive || row.ActivatedTurn != 7 {
		t.Errorf("row = %s/%d, want ACTIVE/7", row.Status, row.ActivatedTurn)
	}
}

func TestRepeatedProposalFails(t *testing.T) {
	w := NewWorld(testGuild, 5)
	addCharacter(w, "ann", "alpha")
	addFaction(w, "alpha", "ann")
	addFaction(w, "beta", "ben")

	first := makeOrder(t, w, model.OrderTypeMakeAlliance, "ann", nil, &AllianceData{
		FactionID: "alpha", TargetFactionID: "beta",
	})
	second := makeOrder(t, w, model.OrderTypeMakeAlliance, "ann", nil, &AllianceData{
		FactionID: "alpha", TargetFactionID: "beta",
	})
	ResolvePhase(w, PhaseBeginning, []*model.Order{first, second})

	if first.Status != model.OrderSuccess {
		t.Errorf("first proposal status = %s, want SUCCESS", first.Status)
	}
	if second.Status != model.OrderFailed {
		t.Errorf("second proposal status = %s, want FAILED", second.Status)
	}
}

func TestJoinFactionHandshake(t *testing.T) {
	w := NewWorld(testGuild, 5)
	addCharacter(w, "ann", "alpha")
	addCharacter(w, "carl", "")
	addFaction(w, "alpha", "ann")

	fromCharacter := makeOrder(t, w, model.OrderTypeJoinFaction, "carl", nil, &JoinFactionData{
		FactionID: "alpha", SubmittedBy: "character",
	})
	fromLeader := makeOrder(t, w, model.OrderTypeJoinFaction, "ann", nil, &JoinFactionData{
		FactionID: "alpha", SubmittedBy: "leader", TargetCharacterID: "carl",
	})
	events := ResolvePhase(w, PhaseBeginning, []*model.Order{fromCharacter, fromLeader})

	ev := requireEvent(t, events, model.EventFactionJoined)
	if ev.EventData["joined_turn"] != 6 {
		t.Errorf("joined_turn = %v, want 6", ev.EventData["joined_turn"])
	}
	m := w.Membership("alpha", "carl")
	if m == nil || m.JoinedTurn != 6 {
		t.Fatalf("membership = %+v, want joined turn 6", m)
	}
	if got := w.Characters["carl"].RepresentedFactionID; got != "alpha" {
		t.Errorf("carl represents %q, want alpha", got)
	}
	if len(w.Changes.JoinRequestDeletes) != 1 {
		t.Errorf("join request deletes = %d, want 1", len(w.Changes.JoinRequestDeletes))
	}
	if fromCharacter.ResultData["pending_counterparty"] != true {
		t.Error("first half of the handshake should report pending_counterparty")
	}
}

func TestJoinWithoutCounterpartyStaysPending(t *testing.T) {
	w := NewWorld(testGuild, 5)
	addCharacter(w, "carl", "")
	addFaction(w, "alpha", "ann")

	o := makeOrder(t, w, model.OrderTypeJoinFaction, "carl", nil, &JoinFactionData{
		FactionID: "alpha", SubmittedBy: "character",
	})
	events := ResolvePhase(w, PhaseBeginning, []*model.Order{o})

	requireNoEvent(t, events, model.EventFactionJoined)
	if w.IsMember("alpha", "carl") {
		t.Error("one-sided request created a membership")
	}
	if len(w.Changes.JoinRequestInserts) != 1 {
		t.Errorf("join request inserts = %d, want 1", len(w.Changes.JoinRequestInserts))
	}
}

func TestKickCooldowns(t *testing.T) {
	build := func(turn, joinedTurn int) (*World, *model.Order) {
		w := NewWorld(testGuild, turn)
		addCharacter(w, "ann", "alpha")
		addCharacter(w, "carl", "alpha")
		addFaction(w, "alpha", "ann")
		w.Members = append(w.Members, &model.FactionMember{
			GuildID: testGuild, FactionID: "alpha", CharacterID: "carl", JoinedTurn: joinedTurn,
		})
		o := makeOrder(t, w, model.OrderTypeKickFromFaction, "ann", nil, &KickData{
			FactionID: "alpha", TargetCharacterID: "carl",
		})
		return w, o
	}

	w, o := build(2, 0)
	ResolvePhase(w, PhaseBeginning, []*model.Order{o})
	if o.Status != model.OrderFailed {
		t.Errorf("kick on turn 2 status = %s, want FAILED", o.Status)
	}

	w, o = build(10, 9)
	ResolvePhase(w, PhaseBeginning, []*model.Order{o})
	if o.Status != model.OrderFailed {
		t.Errorf("kick of a fresh member status = %s, want FAILED", o.Status)
	}

	w, o = build(10, 5)
	events := ResolvePhase(w, PhaseBeginning, []*model.Order{o})
	if o.Status != model.OrderSuccess {
		t.Fatalf("kick status = %s, want SUCCESS", o.Status)
	}
	requireEvent(t, events, model.EventFactionKicked)
	if w.IsMember("alpha", "carl") {
		t.Error("kicked member still present")
	}
	// A kick resets the representation cooldown.
	if got := w.Characters["carl"].RepresentationChangedTurn; got != 10 {
		t.Errorf("representation changed turn = %d, want 10", got)
	}
}

func TestLeaveAutoPromotesNewestMembership(t *testing.T) {
	w := NewWorld(testGuild, 8)
	addCharacter(w, "carl", "alpha")
	addFaction(w, "alpha", "ann")
	addFaction(w, "beta", "ben")
	w.Members = append(w.Members,
		&model.FactionMember{GuildID: testGuild, FactionID: "alpha", CharacterID: "carl", JoinedTurn: 2},
		&model.FactionMember{GuildID: testGuild, FactionID: "beta", CharacterID: "carl", JoinedTurn: 5},
	)

	o := makeOrder(t, w, model.OrderTypeLeaveFaction, "carl", nil, &LeaveFactionData{FactionID: "alpha"})
	events := ResolvePhase(w, PhaseBeginning, []*model.Order{o})

	requireEvent(t, events, model.EventFactionLeft)
	if w.IsMember("alpha", "carl") {
		t.Error("carl still a member of alpha")
	}
	if got := w.Characters["carl"].RepresentedFactionID; got != "beta" {
		t.Errorf("carl represents %q, want beta (newest remaining membership)", got)
	}
	// Voluntary moves keep the cooldown.
	if got := w.Characters["carl"].RepresentationChangedTurn; got != 0 {
		t.Errorf("representation changed turn = %d, want 0", got)
	}
}

func TestWarObjectiveMergesCaseInsensitively(t *testing.T) {
	w := NewWorld(testGuild, 6)
	addCharacter(w, "ann", "alpha")
	addCharacter(w, "ben", "beta")
	addCharacter(w, "cal", "gamma")
	addCharacter(w, "dee", "delta")
	addFaction(w, "alpha", "ann")
	addFaction(w, "beta", "ben")
	addFaction(w, "gamma", "cal")
	addFaction(w, "delta", "dee")
	existing := addWar(w, "Take The Bridge", []string{"alpha"}, []string{"beta"})
	// Delta is allied with both the declarer and a target, so it gets
	// dragged in on the targets' side.
	addAlliance(w, "gamma", "delta", model.AllianceActive)
	addAlliance(w, "alpha", "delta", model.AllianceActive)

	o := makeOrder(t, w, model.OrderTypeDeclareWar, "cal", nil, &DeclareWarData{
		FactionID: "gamma", TargetFactionIDs: []string{"alpha"}, Objective: "take the bridge",
	})
	events := ResolvePhase(w, PhaseBeginning, []*model.Order{o})

	if len(w.Wars) != 1 {
		t.Fatalf("wars = %d, want 1 (merged on objective)", len(w.Wars))
	}
	requireEvent(t, events, model.EventWarJoined)
	requireNoEvent(t, events, model.EventWarDeclared)

	sides := make(map[string]string)
	for _, p := range w.ParticipantsOf(existing.WarID) {
		sides[p.FactionID] = p.Side
	}
	if sides["gamma"] != model.SideB {
		t.Errorf("gamma side = %s, want SIDE_B (opposite its target)", sides["gamma"])
	}
	if sides["delta"] != model.SideA {
		t.Errorf("delta side = %s, want SIDE_A (dragged in with the target)", sides["delta"])
	}
	if !w.Factions["gamma"].HasDeclaredWar {
		t.Error("first declaration should latch the production bonus")
	}
	requireEvent(t, events, model.EventWarProductionBonus)
}

func TestCommanderMustShareFaction(t *testing.T) {
	w := NewWorld(testGuild, 6)
	addCharacter(w, "ann", "alpha")
	addCharacter(w, "ben", "beta")
	addCharacter(w, "cal", "alpha")
	u := addUnit(w, "u-1", "", "ann", "alpha")

	wrong := makeOrder(t, w, model.OrderTypeAssignCommander, "ann", []string{"u-1"},
		&AssignCommanderData{NewCommanderID: "ben"})
	ResolvePhase(w, PhaseBeginning, []*model.Order{wrong})
	if wrong.Status != model.OrderFailed {
		t.Errorf("cross-faction assignment status = %s, want FAILED", wrong.Status)
	}

	right := makeOrder(t, w, model.OrderTypeAssignCommander, "ann", []string{"u-1"},
		&AssignCommanderData{NewCommanderID: "cal"})
	events := ResolvePhase(w, PhaseBeginning, []*model.Order{right})
	if right.Status != model.OrderSuccess {
		t.Fatalf("assignment status = %s, want SUCCESS", right.Status)
	}
	requireEvent(t, events, model.EventCommanderAssigned)
	if u.CommanderCharacterID != "cal" || u.CommanderAssignedTurn != 7 {
		t.Errorf("commander = %s/%d, want cal/7", u.CommanderCharacterID, u.CommanderAssignedTurn)
	}
}
