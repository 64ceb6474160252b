// Package event is the in-process publish/subscribe bus connecting the spin
// pipeline to statistics, SSE streaming and anything else that reacts to
// game outcomes.
package event

import (
	"context"
	"fmt"
	"sync"
)

// EventSchemaVersion is the current event schema version
const EventSchemaVersion = "1.0"

// Type represents the type of an event
type Type string

// Event types published by the game core. The payload structs live in
// internal/domain.
const (
	SpinCompleted    Type = "spin.completed"
	FeatureTriggered Type = "feature.triggered"
	FeatureEnded     Type = "feature.ended"
	LevelUp          Type = "level.up"
	Achievement      Type = "achievement.unlocked"
	GambleFinished   Type = "gamble.finished"
)

// Event represents a generic event in the system
type Event struct {
	Version string      `json:"version"`
	Type    Type        `json:"type"`
	Payload interface{} `json:"payload"`
}

// New builds an event at the current schema version.
func New(t Type, payload interface{}) Event {
	return Event{Version: EventSchemaVersion, Type: t, Payload: payload}
}

// Handler processes a published event.
type Handler func(ctx context.Context, event Event) error

// Bus is the publish/subscribe surface.
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// MemoryBus is an in-memory implementation of the Event Bus
type MemoryBus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{handlers: make(map[Type][]Handler)}
}

// Publish publishes an event to all subscribers. Handlers run
// synchronously; handler errors are collected, never silently dropped.
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers, ok := b.handlers[event.Type]
	b.mu.RUnlock()

	if !ok {
		return nil
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("encountered %d errors while handling event %s: %v", len(errs), event.Type, errs)
	}
	return nil
}

// Subscribe subscribes a handler to an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}
