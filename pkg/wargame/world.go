package wargame

import (
	"sort"
	"strings"

	"github.com/veldtgames/warcouncil/internal/model"
)

// World is the in-memory snapshot of one guild's state that the
// resolvers operate on. The turn service loads it from the store at the
// start of a phase and persists the ChangeSet when the phase commits.
type World struct {
	GuildID int64
	Turn    int

	// MaxMovementStat caps the movement stat of newly mobilized units.
	// Zero means uncapped.
	MaxMovementStat int

	Territories map[string]*model.Territory
	adjacency   map[string][]string

	Factions    map[string]*model.Faction
	Members     []*model.FactionMember
	Permissions []*model.FactionPermission
	Characters  map[string]*model.Character

	Units          map[string]*model.Unit
	UnitTypes      map[string]*model.UnitType
	NavalPositions map[string]map[string]bool // unit id -> occupied water territories

	Buildings     map[string]*model.Building
	BuildingTypes map[string]*model.BuildingType

	PlayerResources  map[string]*model.ResourceLedger
	FactionResources map[string]*model.ResourceLedger

	Alliances       []*model.Alliance
	Wars            map[string]*model.War
	WarParticipants []*model.WarParticipant
	JoinRequests    []*model.FactionJoinRequest

	Nexuses map[string]*model.SpiritNexus

	// ActiveUnitOrders are the PENDING/ONGOING UNIT orders, used by the
	// combat and encirclement resolvers to read unit actions.
	ActiveUnitOrders []*model.Order

	// Encircled marks units flagged by the encirclement pass for the
	// upkeep phase of the same turn.
	Encircled map[string]bool

	Changes *ChangeSet
}

// NewWorld returns an empty snapshot for a guild at the given turn.
func NewWorld(guildID int64, turn int) *World {
	return &World{
		GuildID:          guildID,
		Turn:             turn,
		Territories:      make(map[string]*model.Territory),
		adjacency:        make(map[string][]string),
		Factions:         make(map[string]*model.Faction),
		Characters:       make(map[string]*model.Character),
		Units:            make(map[string]*model.Unit),
		UnitTypes:        make(map[string]*model.UnitType),
		NavalPositions:   make(map[string]map[string]bool),
		Buildings:        make(map[string]*model.Building),
		BuildingTypes:    make(map[string]*model.BuildingType),
		PlayerResources:  make(map[string]*model.ResourceLedger),
		FactionResources: make(map[string]*model.ResourceLedger),
		Wars:             make(map[string]*model.War),
		Nexuses:          make(map[string]*model.SpiritNexus),
		Encircled:        make(map[string]bool),
		Changes:          NewChangeSet(),
	}
}

// AddAdjacency records an undirected edge in the movement graph.
func (w *World) AddAdjacency(a, b string) {
	w.adjacency[a] = append(w.adjacency[a], b)
	w.adjacency[b] = append(w.adjacency[b], a)
}

// Adjacent returns the neighbors of a territory in a stable order.
func (w *World) Adjacent(territoryID string) []string {
	out := make([]string, len(w.adjacency[territoryID]))
	copy(out, w.adjacency[territoryID])
	sort.Strings(out)
	return out
}

// ActiveUnitsAt returns the ACTIVE units standing in a territory,
// including naval units whose occupancy set covers it, in unit id order.
func (w *World) ActiveUnitsAt(territoryID string) []*model.Unit {
	var out []*model.Unit
	for _, u := range w.Units {
		if u.Status != model.UnitActive {
			continue
		}
		if u.CurrentTerritoryID == territoryID || w.NavalPositions[u.UnitID][territoryID] {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitID < out[j].UnitID })
	return out
}

// ActiveBuildingsAt returns the ACTIVE buildings in a territory in
// building id order.
func (w *World) ActiveBuildingsAt(territoryID string) []*model.Building {
	var out []*model.Building
	for _, b := range w.Buildings {
		if b.Status == model.BuildingActive && b.TerritoryID == territoryID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BuildingID < out[j].BuildingID })
	return out
}

// CanonicalPair orders two ids so that a < b.
func CanonicalPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

// AllianceBetween returns the alliance row for a faction pair, or nil.
func (w *World) AllianceBetween(f1, f2 string) *model.Alliance {
	a, b := CanonicalPair(f1, f2)
	for _, al := range w.Alliances {
		if al.FactionAID == a && al.FactionBID == b {
			return al
		}
	}
	return nil
}

// ActivelyAllied reports whether two factions hold an ACTIVE alliance.
func (w *World) ActivelyAllied(f1, f2 string) bool {
	if f1 == "" || f2 == "" {
		return false
	}
	if f1 == f2 {
		return true
	}
	al := w.AllianceBetween(f1, f2)
	return al != nil && al.Status == model.AllianceActive
}

// AtWar reports whether two factions stand on opposite sides of any war.
func (w *World) AtWar(f1, f2 string) bool {
	if f1 == "" || f2 == "" || f1 == f2 {
		return false
	}
	sides := make(map[string]string)
	for _, p := range w.WarParticipants {
		key := p.WarID + "\x00" + p.FactionID
		sides[key] = p.Side
	}
	for warID := range w.Wars {
		s1, ok1 := sides[warID+"\x00"+f1]
		s2, ok2 := sides[warID+"\x00"+f2]
		if ok1 && ok2 && s1 != s2 {
			return true
		}
	}
	return false
}

// WarByObjective returns the war with a case-insensitively matching
// objective, or nil.
func (w *World) WarByObjective(objective string) *model.War {
	for _, war := range w.Wars {
		if strings.EqualFold(war.Objective, objective) {
			return war
		}
	}
	return nil
}

// ParticipantsOf returns the participants of a war.
func (w *World) ParticipantsOf(warID string) []*model.WarParticipant {
	var out []*model.WarParticipant
	for _, p := range w.WarParticipants {
		if p.WarID == warID {
			out = append(out, p)
		}
	}
	return out
}

// MembershipsOf returns a character's faction memberships.
func (w *World) MembershipsOf(characterID string) []*model.FactionMember {
	var out []*model.FactionMember
	for _, m := range w.Members {
		if m.CharacterID == characterID {
			out = append(out, m)
		}
	}
	return out
}

// IsMember reports whether a character belongs to a faction.
func (w *World) IsMember(factionID, characterID string) bool {
	for _, m := range w.Members {
		if m.FactionID == factionID && m.CharacterID == characterID {
			return true
		}
	}
	return false
}

// Membership returns the membership row for a faction/character pair.
func (w *World) Membership(factionID, characterID string) *model.FactionMember {
	for _, m := range w.Members {
		if m.FactionID == factionID && m.CharacterID == characterID {
			return m
		}
	}
	return nil
}

// IsLeader reports whether a character leads a faction.
func (w *World) IsLeader(factionID, characterID string) bool {
	f := w.Factions[factionID]
	return f != nil && f.LeaderCharacterID == characterID
}

// HasPermission reports whether a character holds a faction permission.
// The leader implicitly holds every permission.
func (w *World) HasPermission(factionID, characterID, perm string) bool {
	if w.IsLeader(factionID, characterID) {
		return true
	}
	for _, p := range w.Permissions {
		if p.FactionID == factionID && p.CharacterID == characterID && p.PermissionType == perm {
			return true
		}
	}
	return false
}

// ControllerFactionOf resolves a territory's controlling faction:
// directly, or through the controlling character's represented faction.
func (w *World) ControllerFactionOf(t *model.Territory) string {
	if t.ControllerFactionID != "" {
		return t.ControllerFactionID
	}
	if t.ControllerCharacterID != "" {
		if c := w.Characters[t.ControllerCharacterID]; c != nil {
			return c.RepresentedFactionID
		}
	}
	return ""
}

// NationAllows reports whether a nation-restricted template is open to
// the character. An empty restriction is open to everyone; otherwise the
// character's represented faction must carry the matching nation tag.
func (w *World) NationAllows(nation, characterID string) bool {
	if nation == "" {
		return true
	}
	c := w.Characters[characterID]
	if c == nil || c.RepresentedFactionID == "" {
		return false
	}
	f := w.Factions[c.RepresentedFactionID]
	return f != nil && f.Nation == nation
}

// FriendlyTerritory reports whether a territory is controlled by the
// given faction or an active ally of it. Uncontrolled territories are
// neutral, not friendly.
func (w *World) FriendlyTerritory(t *model.Territory, factionID string) bool {
	controller := w.ControllerFactionOf(t)
	if controller == "" {
		return false
	}
	return controller == factionID || w.ActivelyAllied(controller, factionID)
}

// EnemyTerritory reports whether a territory's controller is at war with
// the given faction.
func (w *World) EnemyTerritory(t *model.Territory, factionID string) bool {
	controller := w.ControllerFactionOf(t)
	return controller != "" && w.AtWar(controller, factionID)
}

// UnitsHostile reports whether two units are hostile to each other.
// Allied units are never hostile; the hostile keyword does not override
// an alliance.
func (w *World) UnitsHostile(a, b *model.Unit) bool {
	if a.UnitID == b.UnitID {
		return false
	}
	if a.FactionID != "" && b.FactionID != "" && w.ActivelyAllied(a.FactionID, b.FactionID) {
		return false
	}
	if w.AtWar(a.FactionID, b.FactionID) {
		return true
	}
	if a.Keywords.Has(model.KwHostile) || b.Keywords.Has(model.KwHostile) {
		return true
	}
	return false
}

// UnitAction returns the active order and action for a unit, if any.
func (w *World) UnitAction(unitID string) (*model.Order, string) {
	for _, o := range w.ActiveUnitOrders {
		if o.Status != model.OrderPending && o.Status != model.OrderOngoing {
			continue
		}
		if o.HasUnit(unitID) {
			data, err := DecodeUnitOrderData(o)
			if err != nil {
				continue
			}
			return o, data.Action
		}
	}
	return nil, ""
}

// PlayerLedger returns a character's resource ledger, creating an empty
// one (and marking it dirty) on first touch.
func (w *World) PlayerLedger(characterID string) *model.ResourceLedger {
	if l, ok := w.PlayerResources[characterID]; ok {
		return l
	}
	l := &model.ResourceLedger{GuildID: w.GuildID, OwnerID: characterID}
	w.PlayerResources[characterID] = l
	w.Changes.TouchPlayerResources(characterID)
	return l
}

// FactionLedger returns a faction's resource ledger, creating an empty
// one (and marking it dirty) on first touch.
func (w *World) FactionLedger(factionID string) *model.ResourceLedger {
	if l, ok := w.FactionResources[factionID]; ok {
		return l
	}
	l := &model.ResourceLedger{GuildID: w.GuildID, OwnerID: factionID}
	w.FactionResources[factionID] = l
	w.Changes.TouchFactionResources(factionID)
	return l
}

// SetNavalPositions replaces a naval unit's occupancy set.
func (w *World) SetNavalPositions(unitID string, territories []string) {
	set := make(map[string]bool, len(territories))
	for _, t := range territories {
		set[t] = true
	}
	w.NavalPositions[unitID] = set
	w.Changes.TouchNavalPositions(unitID)
}

// NavalOccupancy returns a naval unit's occupancy set in sorted order.
func (w *World) NavalOccupancy(unitID string) []string {
	var out []string
	for t := range w.NavalPositions[unitID] {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
