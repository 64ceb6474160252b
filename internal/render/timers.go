package render

import (
	"context"
	"sync"
	"time"
)

// Timer labels used by the spin pipeline for bulk cancellation.
const (
	TimerLabelReel       = "reel"
	TimerLabelWinCounter = "win-counter"
	TimerLabelMessage    = "message"
	TimerLabelGamble     = "gamble"
)

// Timers is the labeled timer capability. Labels group related waits so the
// error path can cancel a whole class of pending timers at once.
type Timers interface {
	// AfterFunc schedules fn after d under the label and returns a cancel.
	AfterFunc(label string, d time.Duration, fn func()) (cancel func())
	// Sleep blocks for d or until the label is cancelled or ctx is done.
	Sleep(ctx context.Context, label string, d time.Duration) error
	// CancelLabel cancels every pending timer carrying the label.
	CancelLabel(label string)
	// CancelAll cancels everything.
	CancelAll()
}

// Registry is the standard Timers implementation.
type Registry struct {
	mu      sync.Mutex
	nextID  int
	pending map[string]map[int]func()
}

// NewRegistry builds an empty timer registry.
func NewRegistry() *Registry {
	return &Registry{pending: make(map[string]map[int]func())}
}

// AfterFunc schedules fn after d under label.
func (r *Registry) AfterFunc(label string, d time.Duration, fn func()) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++

	timer := time.AfterFunc(d, func() {
		r.remove(label, id)
		fn()
	})
	cancel := func() {
		timer.Stop()
		r.remove(label, id)
	}
	if r.pending[label] == nil {
		r.pending[label] = make(map[int]func())
	}
	r.pending[label][id] = cancel
	r.mu.Unlock()

	return cancel
}

// Sleep blocks for d; a label cancel or context cancellation wakes it early.
// Cancellation is not an error: the caller rolls back from its checkpoint,
// never from timer side effects.
func (r *Registry) Sleep(ctx context.Context, label string, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	done := make(chan struct{})
	var once sync.Once
	wake := func() { once.Do(func() { close(done) }) }

	r.mu.Lock()
	id := r.nextID
	r.nextID++
	timer := time.AfterFunc(d, func() {
		r.remove(label, id)
		wake()
	})
	// The registered cancel wakes the sleeper, so CancelLabel interrupts a
	// wait already in progress.
	if r.pending[label] == nil {
		r.pending[label] = make(map[int]func())
	}
	r.pending[label][id] = func() {
		timer.Stop()
		r.remove(label, id)
		wake()
	}
	r.mu.Unlock()

	defer func() {
		timer.Stop()
		r.remove(label, id)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CancelLabel cancels every pending timer carrying the label.
func (r *Registry) CancelLabel(label string) {
	r.mu.Lock()
	cancels := make([]func(), 0, len(r.pending[label]))
	for _, cancel := range r.pending[label] {
		cancels = append(cancels, cancel)
	}
	delete(r.pending, label)
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// CancelAll cancels everything.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	var cancels []func()
	for _, byID := range r.pending {
		for _, cancel := range byID {
			cancels = append(cancels, cancel)
		}
	}
	r.pending = make(map[string]map[int]func())
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

func (r *Registry) remove(label string, id int) {
	r.mu.Lock()
	if byID, ok := r.pending[label]; ok {
		delete(byID, id)
		if len(byID) == 0 {
			delete(r.pending, label)
		}
	}
	r.mu.Unlock()
}

// NopTimers never waits. Used in tests and headless runs.
type NopTimers struct{}

func (NopTimers) AfterFunc(_ string, _ time.Duration, fn func()) func() {
	fn()
	return func() {}
}
func (NopTimers) Sleep(ctx context.Context, _ string, _ time.Duration) error { return ctx.Err() }
func (NopTimers) CancelLabel(string)                                         {}
func (NopTimers) CancelAll()                                                 {}

// OrNopTimers returns t, or NopTimers when t is nil.
func OrNopTimers(t Timers) Timers {
	if t == nil {
		return NopTimers{}
	}
	return t
}
