package sse

import (
	"context"
	"log/slog"

	"github.com/reelhouse/slotengine/internal/event"
)

// Subscriber bridges the internal event bus to the SSE hub. Game payloads
// are forwarded as-is; the bus publishes typed structs from internal/domain.
type Subscriber struct {
	hub *Hub
	bus event.Bus
}

// NewSubscriber creates a new SSE subscriber
func NewSubscriber(hub *Hub, bus event.Bus) *Subscriber {
	return &Subscriber{hub: hub, bus: bus}
}

// Subscribe registers handlers for all forwarded event types
func (s *Subscriber) Subscribe() {
	forwarded := []event.Type{
		event.SpinCompleted,
		event.FeatureTriggered,
		event.FeatureEnded,
		event.LevelUp,
		event.Achievement,
		event.GambleFinished,
	}
	for _, t := range forwarded {
		s.bus.Subscribe(t, s.forward)
	}

	slog.Info("SSE subscriber registered for event types", "count", len(forwarded))
}

// forward relays a bus event to every connected client.
func (s *Subscriber) forward(_ context.Context, evt event.Event) error {
	s.hub.Broadcast(string(evt.Type), evt.Payload)
	slog.Debug(LogMsgEventBroadcast, "event_type", string(evt.Type))
	return nil
}
