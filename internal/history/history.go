// Package history keeps a bounded, most-recent-first record of resolved
// spins for the state endpoint and the save record.
package history

import (
	"sync"

	"github.com/reelhouse/slotengine/internal/domain"
)

// DefaultCapacity bounds the history when no explicit capacity is given.
const DefaultCapacity = 50

// Ring is a fixed-capacity spin history. The oldest entry is evicted when
// the ring is full.
type Ring struct {
	mu      sync.Mutex
	entries []domain.SpinHistoryEntry
	cap     int
}

// New builds a Ring with the given capacity. Non-positive capacities fall
// back to DefaultCapacity.
func New(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{cap: capacity}
}

// Add records one spin, evicting the oldest entry when full.
func (r *Ring) Add(entry domain.SpinHistoryEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry)
	if len(r.entries) > r.cap {
		r.entries = r.entries[len(r.entries)-r.cap:]
	}
}

// Recent returns up to n entries, newest first. n <= 0 returns everything.
func (r *Ring) Recent(n int) []domain.SpinHistoryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n <= 0 || n > len(r.entries) {
		n = len(r.entries)
	}
	out := make([]domain.SpinHistoryEntry, n)
	for i := 0; i < n; i++ {
		out[i] = r.entries[len(r.entries)-1-i]
	}
	return out
}

// Len returns the number of stored entries.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Snapshot returns the persistable history block, oldest first.
func (r *Ring) Snapshot() domain.SpinHistorySave {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]domain.SpinHistoryEntry, len(r.entries))
	copy(entries, r.entries)
	return domain.SpinHistorySave{Entries: entries}
}

// Init restores history from a save record, keeping at most capacity
// entries (the newest ones).
func (r *Ring) Init(data domain.SpinHistorySave) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := data.Entries
	if len(entries) > r.cap {
		entries = entries[len(entries)-r.cap:]
	}
	r.entries = make([]domain.SpinHistoryEntry, len(entries))
	copy(r.entries, entries)
}
