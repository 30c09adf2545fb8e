package wargame

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/veldtgames/warcouncil/internal/model"
)

// Kick cooldowns: no kicks during the opening turns of a game, of a
// faction's life, or of a membership.
const kickCooldownTurns = 3

func (r *resolver) resolveBeginning(orders []*model.Order) {
	for _, o := range orders {
		o := o
		switch o.OrderType {
		case model.OrderTypeJoinFaction:
			r.runOrder(o, func() error { return r.execJoinFaction(o) })
		case model.OrderTypeLeaveFaction:
			r.runOrder(o, func() error { return r.execLeaveFaction(o) })
		case model.OrderTypeKickFromFaction:
			r.runOrder(o, func() error { return r.execKick(o) })
		case model.OrderTypeMakeAlliance:
			r.runOrder(o, func() error { return r.execMakeAlliance(o) })
		case model.OrderTypeDissolveAlliance:
			r.runOrder(o, func() error { return r.execDissolveAlliance(o) })
		case model.OrderTypeDeclareWar:
			r.runOrder(o, func() error { return r.execDeclareWar(o) })
		case model.OrderTypeAssignCommander:
			r.runOrder(o, func() error { return r.execAssignCommander(o) })
		default:
			r.markFailed(o, "order type not handled in beginning phase")
		}
	}
}

// membersOf returns the character ids of a faction's members, leader
// included, for event audiences.
func (r *resolver) membersOf(factionID string) []string {
	seen := make(map[string]bool)
	var out []string
	if f := r.w.Factions[factionID]; f != nil && f.LeaderCharacterID != "" {
		seen[f.LeaderCharacterID] = true
		out = append(out, f.LeaderCharacterID)
	}
	for _, m := range r.w.Members {
		if m.FactionID == factionID && !seen[m.CharacterID] {
			seen[m.CharacterID] = true
			out = append(out, m.CharacterID)
		}
	}
	sort.Strings(out)
	return out
}

// setRepresentation points a character at a faction (or clears it with
// "") and migrates the faction affiliation of the units they own.
func (r *resolver) setRepresentation(characterID, factionID string, resetCooldown bool) {
	c := r.w.Characters[characterID]
	if c == nil {
		return
	}
	c.RepresentedFactionID = factionID
	if resetCooldown {
		c.RepresentationChangedTurn = r.w.Turn
	}
	r.w.Changes.TouchCharacter(characterID)
	for _, u := range r.w.Units {
		if u.OwnerCharacterID == characterID {
			u.FactionID = factionID
			r.w.Changes.TouchUnit(u.UnitID)
		}
	}
}

func (r *resolver) execJoinFaction(o *model.Order) error {
	data, err := DecodeJoinFactionData(o)
	if err != nil {
		return err
	}
	faction := r.w.Factions[data.FactionID]
	if faction == nil {
		return execErrorf("faction %s no longer exists", data.FactionID)
	}

	characterID := o.CharacterID
	if data.SubmittedBy == "leader" && data.TargetCharacterID != "" {
		characterID = data.TargetCharacterID
	}
	if r.w.Characters[characterID] == nil {
		return execErrorf("character %s no longer exists", characterID)
	}
	if r.w.IsMember(data.FactionID, characterID) {
		return execErrorf("%s is already a member of %s", characterID, data.FactionID)
	}

	// Look for the complementary half of the handshake.
	var complement *model.FactionJoinRequest
	for _, req := range r.w.JoinRequests {
		if req.FactionID == data.FactionID && req.CharacterID == characterID && req.SubmittedBy != data.SubmittedBy {
			complement = req
			break
		}
	}

	if complement == nil {
		req := &model.FactionJoinRequest{
			GuildID:     r.w.GuildID,
			FactionID:   data.FactionID,
			CharacterID: characterID,
			SubmittedBy: data.SubmittedBy,
			CreatedTurn: r.w.Turn,
		}
		r.w.JoinRequests = append(r.w.JoinRequests, req)
		r.w.Changes.JoinRequestInserts = append(r.w.Changes.JoinRequestInserts, req)
		o.SetResult("pending_counterparty", true)
		r.markSuccess(o)
		return nil
	}

	// Both halves present: perform the join.
	member := &model.FactionMember{
		GuildID:     r.w.GuildID,
		FactionID:   data.FactionID,
		CharacterID: characterID,
		JoinedTurn:  r.w.Turn + 1,
	}
	r.w.Members = append(r.w.Members, member)
	r.w.Changes.MemberInserts = append(r.w.Changes.MemberInserts, member)

	char := r.w.Characters[characterID]
	if char.RepresentedFactionID == "" {
		r.setRepresentation(characterID, data.FactionID, false)
	}

	r.dropJoinRequests(data.FactionID, characterID)
	r.markSuccess(o)
	r.emit(model.EventFactionJoined, model.EntityFaction, data.FactionID, Audience(map[string]any{
		"character_id": characterID,
		"joined_turn":  member.JoinedTurn,
	}, append(r.membersOf(data.FactionID), characterID)...))
	return nil
}

func (r *resolver) dropJoinRequests(factionID, characterID string) {
	var kept []*model.FactionJoinRequest
	removed := false
	for _, req := range r.w.JoinRequests {
		if req.FactionID == factionID && req.CharacterID == characterID {
			removed = true
			continue
		}
		kept = append(kept, req)
	}
	if removed {
		r.w.JoinRequests = kept
		r.w.Changes.JoinRequestDeletes = append(r.w.Changes.JoinRequestDeletes, [2]string{factionID, characterID})
	}
}

// removeMembership removes a character from a faction and fixes up their
// representation. Auto-promotion picks the newest remaining membership
// and does not reset the representation cooldown; a kick does reset it.
func (r *resolver) removeMembership(factionID, characterID string, resetCooldown bool) {
	var kept []*model.FactionMember
	for _, m := range r.w.Members {
		if m.FactionID == factionID && m.CharacterID == characterID {
			continue
		}
		kept = append(kept, m)
	}
	r.w.Members = kept
	r.w.Changes.MemberDeletes = append(r.w.Changes.MemberDeletes, [2]string{factionID, characterID})

	char := r.w.Characters[characterID]
	if char == nil {
		return
	}
	if char.RepresentedFactionID != "" && char.RepresentedFactionID != factionID {
		if resetCooldown {
			char.RepresentationChangedTurn = r.w.Turn
			r.w.Changes.TouchCharacter(characterID)
		}
		return
	}

	remaining := r.w.MembershipsOf(characterID)
	if len(remaining) == 0 {
		r.setRepresentation(characterID, "", resetCooldown)
		return
	}
	sort.Slice(remaining, func(i, j int) bool {
		if remaining[i].JoinedTurn != remaining[j].JoinedTurn {
			return remaining[i].JoinedTurn > remaining[j].JoinedTurn
		}
		return remaining[i].FactionID < remaining[j].FactionID
	})
	r.setRepresentation(characterID, remaining[0].FactionID, resetCooldown)
}

func (r *resolver) execLeaveFaction(o *model.Order) error {
	data, err := DecodeLeaveFactionData(o)
	if err != nil {
		return err
	}
	if r.w.IsLeader(data.FactionID, o.CharacterID) {
		return execErrorf("the faction leader cannot leave %s", data.FactionID)
	}
	if !r.w.IsMember(data.FactionID, o.CharacterID) {
		return execErrorf("%s is not a member of %s", o.CharacterID, data.FactionID)
	}

	r.removeMembership(data.FactionID, o.CharacterID, false)
	r.markSuccess(o)
	r.emit(model.EventFactionLeft, model.EntityFaction, data.FactionID, Audience(map[string]any{
		"character_id": o.CharacterID,
	}, append(r.membersOf(data.FactionID), o.CharacterID)...))
	return nil
}

func (r *resolver) execKick(o *model.Order) error {
	data, err := DecodeKickData(o)
	if err != nil {
		return err
	}
	faction := r.w.Factions[data.FactionID]
	if faction == nil {
		return execErrorf("faction %s no longer exists", data.FactionID)
	}
	if !r.w.HasPermission(data.FactionID, o.CharacterID, model.PermMembership) {
		return execErrorf("%s lacks membership permission in %s", o.CharacterID, data.FactionID)
	}
	if data.TargetCharacterID == o.CharacterID {
		return execErrorf("cannot kick yourself")
	}
	if faction.LeaderCharacterID == data.TargetCharacterID {
		return execErrorf("the faction leader cannot be kicked")
	}
	membership := r.w.Membership(data.FactionID, data.TargetCharacterID)
	if membership == nil {
		return execErrorf("%s is not a member of %s", data.TargetCharacterID, data.FactionID)
	}
	if r.w.Turn < kickCooldownTurns {
		return execErrorf("kicks are not allowed before turn %d", kickCooldownTurns)
	}
	if r.w.Turn-faction.CreatedTurn < kickCooldownTurns {
		return execErrorf("faction %s is too young for kicks", data.FactionID)
	}
	if r.w.Turn-membership.JoinedTurn < kickCooldownTurns {
		return execErrorf("%s joined too recently to be kicked", data.TargetCharacterID)
	}

	r.removeMembership(data.FactionID, data.TargetCharacterID, true)
	r.markSuccess(o)
	r.emit(model.EventFactionKicked, model.EntityFaction, data.FactionID, Audience(map[string]any{
		"character_id": data.TargetCharacterID,
		"kicked_by":    o.CharacterID,
	}, append(r.membersOf(data.FactionID), data.TargetCharacterID)...))
	return nil
}

// pendingStatusWaitingFor returns the pending status meaning "we await
// agreement from factionID" within the canonical pair.
func pendingStatusWaitingFor(a, b, factionID string) string {
	if factionID == a {
		return model.AlliancePendingA
	}
	_ = b
	return model.AlliancePendingB
}

func (r *resolver) execMakeAlliance(o *model.Order) error {
	data, err := DecodeAllianceData(o)
	if err != nil {
		return err
	}
	if r.w.Factions[data.FactionID] == nil || r.w.Factions[data.TargetFactionID] == nil {
		return execErrorf("both factions must exist")
	}
	if data.FactionID == data.TargetFactionID {
		return execErrorf("a faction cannot ally with itself")
	}

	a, b := CanonicalPair(data.FactionID, data.TargetFactionID)
	row := r.w.AllianceBetween(data.FactionID, data.TargetFactionID)

	if row == nil {
		row = &model.Alliance{
			GuildID:              r.w.GuildID,
			FactionAID:           a,
			FactionBID:           b,
			Status:               pendingStatusWaitingFor(a, b, data.TargetFactionID),
			InitiatedByFactionID: data.FactionID,
		}
		r.w.Alliances = append(r.w.Alliances, row)
		r.w.Changes.AllianceUpserts = append(r.w.Changes.AllianceUpserts, row)
		r.markSuccess(o)
		r.emit(model.EventAlliancePending, model.EntityAlliance, a+"/"+b, Audience(map[string]any{
			"faction_a_id": a,
			"faction_b_id": b,
			"waiting_for":  data.TargetFactionID,
		}, append(r.membersOf(a), r.membersOf(b)...)...))
		return nil
	}

	switch row.Status {
	case model.AllianceActive:
		return execErrorf("%s and %s are already allied", a, b)
	case pendingStatusWaitingFor(a, b, data.FactionID):
		// The counterparty proposed earlier; this order completes the
		// handshake.
		now := time.Now().UTC()
		row.Status = model.AllianceActive
		row.ActivatedAt = &now
		row.ActivatedTurn = r.w.Turn + 1
		r.w.Changes.AllianceUpserts = append(r.w.Changes.AllianceUpserts, row)
		r.markSuccess(o)
		r.emit(model.EventAllianceFormed, model.EntityAlliance, a+"/"+b, Audience(map[string]any{
			"faction_a_id":   a,
			"faction_b_id":   b,
			"activated_turn": row.ActivatedTurn,
		}, append(r.membersOf(a), r.membersOf(b)...)...))
		return nil
	default:
		return execErrorf("%s already proposed this alliance", data.FactionID)
	}
}

func (r *resolver) execDissolveAlliance(o *model.Order) error {
	data, err := DecodeAllianceData(o)
	if err != nil {
		return err
	}
	row := r.w.AllianceBetween(data.FactionID, data.TargetFactionID)
	if row == nil || row.Status != model.AllianceActive {
		return execErrorf("no active alliance between %s and %s", data.FactionID, data.TargetFactionID)
	}
	if r.w.Turn < 4 {
		return execErrorf("alliances cannot be dissolved before turn 4")
	}
	if r.w.Turn-row.ActivatedTurn < 4 {
		return execErrorf("the alliance is not yet 4 turns old")
	}

	var kept []*model.Alliance
	for _, al := range r.w.Alliances {
		if al == row {
			continue
		}
		kept = append(kept, al)
	}
	r.w.Alliances = kept
	r.w.Changes.AllianceDeletes = append(r.w.Changes.AllianceDeletes, [2]string{row.FactionAID, row.FactionBID})
	r.markSuccess(o)
	r.emit(model.EventAllianceDissolved, model.EntityAlliance, row.FactionAID+"/"+row.FactionBID, Audience(map[string]any{
		"faction_a_id": row.FactionAID,
		"faction_b_id": row.FactionBID,
		"dissolved_by": data.FactionID,
	}, append(r.membersOf(row.FactionAID), r.membersOf(row.FactionBID)...)...))
	return nil
}

func oppositeSide(side string) string {
	if side == model.SideA {
		return model.SideB
	}
	return model.SideA
}

func (r *resolver) addWarParticipant(war *model.War, factionID, side string, original bool) {
	p := &model.WarParticipant{
		GuildID:            r.w.GuildID,
		WarID:              war.WarID,
		FactionID:          factionID,
		Side:               side,
		JoinedTurn:         r.w.Turn + 1,
		IsOriginalDeclarer: original,
	}
	r.w.WarParticipants = append(r.w.WarParticipants, p)
	r.w.Changes.WarParticipantInserts = append(r.w.Changes.WarParticipantInserts, p)
}

func (r *resolver) warSideOf(warID, factionID string) (string, bool) {
	for _, p := range r.w.WarParticipants {
		if p.WarID == warID && p.FactionID == factionID {
			return p.Side, true
		}
	}
	return "", false
}

func (r *resolver) execDeclareWar(o *model.Order) error {
	data, err := DecodeDeclareWarData(o)
	if err != nil {
		return err
	}
	declarer := r.w.Factions[data.FactionID]
	if declarer == nil {
		return execErrorf("faction %s no longer exists", data.FactionID)
	}
	if len(data.TargetFactionIDs) == 0 {
		return execErrorf("a war needs at least one target")
	}
	for _, t := range data.TargetFactionIDs {
		if r.w.Factions[t] == nil {
			return execErrorf("target faction %s no longer exists", t)
		}
		if t == data.FactionID {
			return execErrorf("a faction cannot declare war on itself")
		}
	}

	war := r.w.WarByObjective(data.Objective)
	var declarerSide string
	created := false

	if war == nil {
		war = &model.War{
			GuildID:      r.w.GuildID,
			WarID:        uuid.NewString(),
			Objective:    data.Objective,
			DeclaredTurn: r.w.Turn + 1,
		}
		r.w.Wars[war.WarID] = war
		r.w.Changes.WarInserts = append(r.w.Changes.WarInserts, war)
		created = true

		declarerSide = model.SideA
		r.addWarParticipant(war, data.FactionID, model.SideA, true)
		for _, t := range data.TargetFactionIDs {
			r.addWarParticipant(war, t, model.SideB, false)
		}
	} else {
		if _, in := r.warSideOf(war.WarID, data.FactionID); in {
			return execErrorf("%s is already a participant of this war", data.FactionID)
		}
		// Join opposite the first target already present; SIDE_A if none.
		declarerSide = model.SideA
		for _, t := range data.TargetFactionIDs {
			if side, in := r.warSideOf(war.WarID, t); in {
				declarerSide = oppositeSide(side)
				break
			}
		}
		r.addWarParticipant(war, data.FactionID, declarerSide, true)
		for _, t := range data.TargetFactionIDs {
			if _, in := r.warSideOf(war.WarID, t); !in {
				r.addWarParticipant(war, t, oppositeSide(declarerSide), false)
			}
		}
	}

	// Drag in third parties allied with both the declarer and a target.
	targetsSide := oppositeSide(declarerSide)
	for factionID := range r.w.Factions {
		if factionID == data.FactionID {
			continue
		}
		if _, in := r.warSideOf(war.WarID, factionID); in {
			continue
		}
		if !r.w.ActivelyAllied(factionID, data.FactionID) {
			continue
		}
		for _, t := range data.TargetFactionIDs {
			if r.w.ActivelyAllied(factionID, t) {
				r.addWarParticipant(war, factionID, targetsSide, false)
				break
			}
		}
	}

	eventType := model.EventWarJoined
	if created {
		eventType = model.EventWarDeclared
	}
	audience := r.membersOf(data.FactionID)
	for _, p := range r.w.ParticipantsOf(war.WarID) {
		audience = append(audience, r.membersOf(p.FactionID)...)
	}
	r.markSuccess(o)
	r.emit(eventType, model.EntityWar, war.WarID, Audience(map[string]any{
		"objective":  war.Objective,
		"faction_id": data.FactionID,
		"side":       declarerSide,
	}, audience...))

	if !declarer.HasDeclaredWar {
		declarer.HasDeclaredWar = true
		r.w.Changes.TouchFaction(declarer.FactionID)
		r.emit(model.EventWarProductionBonus, model.EntityFaction, declarer.FactionID, Audience(map[string]any{
			"war_id": war.WarID,
		}, r.membersOf(declarer.FactionID)...))
	}
	return nil
}

func (r *resolver) execAssignCommander(o *model.Order) error {
	data, err := DecodeAssignCommanderData(o)
	if err != nil {
		return err
	}
	if len(o.UnitIDs) != 1 {
		return execErrorf("commander assignment names exactly one unit")
	}
	unit := r.w.Units[o.UnitIDs[0]]
	if unit == nil || unit.Status != model.UnitActive {
		return execErrorf("unit %s is not active", o.UnitIDs[0])
	}
	owner := r.w.Characters[unit.OwnerCharacterID]
	commander := r.w.Characters[data.NewCommanderID]
	if commander == nil {
		return execErrorf("character %s no longer exists", data.NewCommanderID)
	}
	if owner != nil && owner.RepresentedFactionID != commander.RepresentedFactionID {
		return execErrorf("owner and commander must share a faction")
	}

	previous := unit.CommanderCharacterID
	unit.CommanderCharacterID = data.NewCommanderID
	unit.CommanderAssignedTurn = r.w.Turn + 1
	r.w.Changes.TouchUnit(unit.UnitID)
	r.markSuccess(o)
	r.emit(model.EventCommanderAssigned, model.EntityUnit, unit.UnitID, Audience(map[string]any{
		"new_commander_id":      data.NewCommanderID,
		"previous_commander_id": previous,
	}, unit.OwnerCharacterID, data.NewCommanderID, previous))
	return nil
}
