package service

import "github.com/veldtgames/warcouncil/internal/model"

// Broadcaster pushes resolved turn events to connected clients.
// Implemented by the WebSocket hub.
type Broadcaster interface {
	BroadcastEvents(guildID int64, events []*model.Event)
}

// NoopBroadcaster is a no-op implementation for testing or when WS is disabled.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastEvents(int64, []*model.Event) {}
