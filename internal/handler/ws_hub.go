package handler

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/veldtgames/warcouncil/internal/model"
)

// Event types sent over WebSocket.
const (
	EventTurnResolved = "turn_resolved"
	EventTurnEvent    = "turn_event"
)

// WSEvent is the envelope for all WebSocket messages.
type WSEvent struct {
	Type    string `json:"type"`
	GuildID int64  `json:"guild_id"`
	Data    any    `json:"data"`
}

// ClientMessage is the envelope for messages sent from the client.
type ClientMessage struct {
	Action  string `json:"action"` // "subscribe" or "unsubscribe"
	GuildID int64  `json:"guild_id"`
}

// WSConn wraps a WebSocket connection with its identity and subscriptions.
type WSConn struct {
	conn        *websocket.Conn
	characterID string
	gm          bool
	send        chan []byte
}

// Hub manages WebSocket connections and guild-channel subscriptions. It
// implements service.Broadcaster.
type Hub struct {
	mu          sync.RWMutex
	connections map[*WSConn]bool
	guilds      map[int64]map[*WSConn]bool // guildID -> set of connections
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[*WSConn]bool),
		guilds:      make(map[int64]map[*WSConn]bool),
	}
}

// Register adds a connection to the hub.
func (h *Hub) Register(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = true
}

// Unregister removes a connection from the hub and all its subscriptions.
func (h *Hub) Unregister(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.connections, c)
	for guildID, conns := range h.guilds {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.guilds, guildID)
		}
	}
	close(c.send)
}

// Subscribe adds a connection to a guild channel.
func (h *Hub) Subscribe(c *WSConn, guildID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.guilds[guildID] == nil {
		h.guilds[guildID] = make(map[*WSConn]bool)
	}
	h.guilds[guildID][c] = true
}

// Unsubscribe removes a connection from a guild channel.
func (h *Hub) Unsubscribe(c *WSConn, guildID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.guilds[guildID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.guilds, guildID)
		}
	}
}

// BroadcastEvents routes resolved turn events to a guild's subscribers.
// GM connections receive every event; character connections receive only
// events addressed to them.
func (h *Hub) BroadcastEvents(guildID int64, events []*model.Event) {
	if len(events) == 0 {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.guilds[guildID] {
		for _, e := range events {
			if !c.gm && !audienceContains(e, c.characterID) {
				continue
			}
			h.sendEvent(c, guildID, WSEvent{Type: EventTurnEvent, GuildID: guildID, Data: e})
		}
		h.sendEvent(c, guildID, WSEvent{Type: EventTurnResolved, GuildID: guildID, Data: map[string]any{
			"turn": events[0].TurnNumber,
		}})
	}
}

func (h *Hub) sendEvent(c *WSConn, guildID int64, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Int64("guildId", guildID).Msg("Failed to marshal WebSocket event")
		return
	}
	select {
	case c.send <- data:
	default:
		log.Warn().Str("characterId", c.characterID).Int64("guildId", guildID).Msg("Dropping WebSocket message, buffer full")
	}
}

func audienceContains(e *model.Event, characterID string) bool {
	for _, id := range e.Audience() {
		if id == characterID {
			return true
		}
	}
	return false
}

// ConnectionCount returns the total number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// GuildSubscriberCount returns the number of connections subscribed to a guild.
func (h *Hub) GuildSubscriberCount(guildID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.guilds[guildID])
}
