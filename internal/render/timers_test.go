package render

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_SleepRunsOutNormally(t *testing.T) {
	r := NewRegistry()

	err := r.Sleep(context.Background(), TimerLabelReel, 5*time.Millisecond)

	assert.NoError(t, err)
}

func TestRegistry_SleepWokenByCancelLabel(t *testing.T) {
	r := NewRegistry()
	done := make(chan error, 1)

	go func() {
		// No deadline on the context: only the label cancel can wake this.
		done <- r.Sleep(context.Background(), TimerLabelReel, 10*time.Second)
	}()

	time.Sleep(20 * time.Millisecond)
	r.CancelLabel(TimerLabelReel)

	select {
	case err := <-done:
		assert.NoError(t, err, "a label cancel is not an error")
	case <-time.After(2 * time.Second):
		t.Fatal("Sleep was not woken by CancelLabel")
	}
}

func TestRegistry_SleepWokenByContext(t *testing.T) {
	r := NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- r.Sleep(ctx, TimerLabelReel, 10*time.Second) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Sleep was not woken by context cancellation")
	}
}

func TestRegistry_CancelLabelOnlyHitsItsLabel(t *testing.T) {
	r := NewRegistry()
	reel := make(chan error, 1)
	message := make(chan error, 1)

	go func() { reel <- r.Sleep(context.Background(), TimerLabelReel, 10*time.Second) }()
	go func() { message <- r.Sleep(context.Background(), TimerLabelMessage, 50*time.Millisecond) }()

	time.Sleep(20 * time.Millisecond)
	r.CancelLabel(TimerLabelReel)

	select {
	case err := <-reel:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("reel sleep was not woken")
	}

	// The message sleep was untouched and runs out on its own.
	select {
	case err := <-message:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("message sleep never finished")
	}
}

func TestRegistry_AfterFuncFiresAndCancels(t *testing.T) {
	r := NewRegistry()

	fired := make(chan struct{})
	r.AfterFunc(TimerLabelWinCounter, 5*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled func never fired")
	}

	never := make(chan struct{})
	cancel := r.AfterFunc(TimerLabelWinCounter, 20*time.Millisecond, func() { close(never) })
	cancel()

	select {
	case <-never:
		t.Fatal("cancelled func still fired")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestRegistry_CancelAllWakesEverything(t *testing.T) {
	r := NewRegistry()
	results := make(chan error, 2)

	go func() { results <- r.Sleep(context.Background(), TimerLabelReel, 10*time.Second) }()
	go func() { results <- r.Sleep(context.Background(), TimerLabelGamble, 10*time.Second) }()

	time.Sleep(20 * time.Millisecond)
	r.CancelAll()

	for i := 0; i < 2; i++ {
		select {
		case err := <-results:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("a sleeper was not woken by CancelAll")
		}
	}
}
