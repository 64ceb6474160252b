// Package session maps session IDs to live game engines. Engines are kept
// in an expiring LRU; an evicted session is rebuilt from its save record on
// the next request, so eviction never loses state.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/reelhouse/slotengine/internal/spin"
)

// DefaultSize and DefaultTTL bound the cache when the config leaves them
// unset.
const (
	DefaultSize = 256
	DefaultTTL  = 30 * time.Minute
)

// Factory builds a fresh engine for a session ID. The manager loads the
// session's save record afterwards.
type Factory func(sessionID string) (*spin.Engine, error)

// Manager hands out one engine per session.
type Manager struct {
	mu      sync.Mutex
	lru     *expirable.LRU[string, *spin.Engine]
	factory Factory
}

// NewManager builds a Manager. Non-positive size or TTL fall back to the
// defaults.
func NewManager(size int, ttl time.Duration, factory Factory) *Manager {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		lru:     expirable.NewLRU[string, *spin.Engine](size, nil, ttl),
		factory: factory,
	}
}

// Get returns the live engine for a session, building and loading it on a
// miss. The manager mutex prevents two requests from building the same
// session twice.
func (m *Manager) Get(ctx context.Context, sessionID string) (*spin.Engine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if engine, ok := m.lru.Get(sessionID); ok {
		return engine, nil
	}

	engine, err := m.factory(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to build session engine: %w", err)
	}
	if err := engine.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	m.lru.Add(sessionID, engine)
	return engine, nil
}

// Drop removes a session's engine from the cache. The next Get rebuilds it
// from the save record.
func (m *Manager) Drop(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lru.Remove(sessionID)
}

// Count returns how many sessions are live.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Len()
}
