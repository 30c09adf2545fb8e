package wargame

import (
	"time"

	"github.com/google/uuid"

	"github.com/veldtgames/warcouncil/internal/model"
)

// NewEvent builds a turn log record. Pass nil data for GM-only events;
// use Audience to attach routing.
func NewEvent(guildID int64, turn int, phase Phase, eventType, entityType, entityID string, data map[string]any) *model.Event {
	return &model.Event{
		GuildID:    guildID,
		EventID:    uuid.NewString(),
		TurnNumber: turn,
		Phase:      string(phase),
		EventType:  eventType,
		EntityType: entityType,
		EntityID:   entityID,
		EventData:  data,
		Timestamp:  time.Now().UTC(),
	}
}

// Audience returns an event data map with the audience list set,
// dropping empty and duplicate ids.
func Audience(data map[string]any, characterIDs ...string) map[string]any {
	if data == nil {
		data = make(map[string]any)
	}
	seen := make(map[string]bool, len(characterIDs))
	var ids []string
	for _, id := range characterIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	data["affected_character_ids"] = ids
	return data
}
