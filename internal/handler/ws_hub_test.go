package handler

import (
	"encoding/json"
	"testing"

	"github.com/veldtgames/warcouncil/internal/model"
)

func newTestConn(characterID string, gm bool) *WSConn {
	return &WSConn{characterID: characterID, gm: gm, send: make(chan []byte, 16)}
}

func drain(t *testing.T, c *WSConn) []WSEvent {
	t.Helper()
	var out []WSEvent
	for {
		select {
		case raw := <-c.send:
			var e WSEvent
			if err := json.Unmarshal(raw, &e); err != nil {
				t.Fatalf("unmarshal hub message: %v", err)
			}
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestBroadcastFiltersByAudience(t *testing.T) {
	hub := NewHub()
	alice := newTestConn("alice", false)
	bob := newTestConn("bob", false)
	gm := newTestConn("", true)
	for _, c := range []*WSConn{alice, bob, gm} {
		hub.Register(c)
		hub.Subscribe(c, 42)
	}
	stranger := newTestConn("alice", false)
	hub.Register(stranger)
	hub.Subscribe(stranger, 99)

	hub.BroadcastEvents(42, []*model.Event{
		{
			GuildID: 42, EventID: "e-1", TurnNumber: 7,
			EventType: model.EventTransitComplete,
			EventData: map[string]any{"affected_character_ids": []string{"alice"}},
		},
		{
			// GM-only: no audience.
			GuildID: 42, EventID: "e-2", TurnNumber: 7,
			EventType: model.EventNexusDamaged,
		},
	})

	// Everyone subscribed gets the turn_resolved marker; turn_event
	// delivery follows the audience.
	got := drain(t, alice)
	if len(got) != 2 || got[0].Type != EventTurnEvent || got[1].Type != EventTurnResolved {
		t.Errorf("alice received %d messages: %+v", len(got), got)
	}
	got = drain(t, bob)
	if len(got) != 1 || got[0].Type != EventTurnResolved {
		t.Errorf("bob received %d messages, want only turn_resolved", len(got))
	}
	got = drain(t, gm)
	if len(got) != 3 {
		t.Errorf("gm received %d messages, want both events plus turn_resolved", len(got))
	}
	if got := drain(t, stranger); len(got) != 0 {
		t.Errorf("subscriber of another guild received %d messages", len(got))
	}
}

func TestBroadcastNoEventsIsSilent(t *testing.T) {
	hub := NewHub()
	c := newTestConn("alice", false)
	hub.Register(c)
	hub.Subscribe(c, 42)

	hub.BroadcastEvents(42, nil)
	if got := drain(t, c); len(got) != 0 {
		t.Errorf("empty broadcast produced %d messages", len(got))
	}
}

func TestUnregisterDropsSubscriptions(t *testing.T) {
	hub := NewHub()
	c := newTestConn("alice", false)
	hub.Register(c)
	hub.Subscribe(c, 42)

	if hub.ConnectionCount() != 1 || hub.GuildSubscriberCount(42) != 1 {
		t.Fatalf("counts = %d/%d, want 1/1", hub.ConnectionCount(), hub.GuildSubscriberCount(42))
	}
	hub.Unregister(c)
	if hub.ConnectionCount() != 0 || hub.GuildSubscriberCount(42) != 0 {
		t.Errorf("counts after unregister = %d/%d, want 0/0", hub.ConnectionCount(), hub.GuildSubscriberCount(42))
	}
	if _, open := <-c.send; open {
		t.Error("send channel still open after unregister")
	}
}
