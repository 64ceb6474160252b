package sse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelhouse/slotengine/internal/event"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

func waitForEvent(t *testing.T, client *Client) Event {
	t.Helper()
	select {
	case evt := <-client.EventChannel:
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func waitForClientCount(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for hub.ClientCount() != want {
		select {
		case <-deadline:
			t.Fatalf("client count never reached %d, got %d", want, hub.ClientCount())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestHub_BroadcastReachesClients(t *testing.T) {
	hub := startHub(t)
	client := hub.Register(nil)
	waitForClientCount(t, hub, 1)

	hub.Broadcast("spin.completed", map[string]int{"win": 50})

	evt := waitForEvent(t, client)
	assert.Equal(t, "spin.completed", evt.Type)
	assert.NotEmpty(t, evt.ID)
	assert.NotZero(t, evt.Timestamp)
}

func TestHub_EventFilter(t *testing.T) {
	hub := startHub(t)
	filtered := hub.Register([]string{"level.up"})
	all := hub.Register(nil)
	waitForClientCount(t, hub, 2)

	hub.Broadcast("spin.completed", nil)
	hub.Broadcast("level.up", nil)

	evt := waitForEvent(t, filtered)
	assert.Equal(t, "level.up", evt.Type, "filtered client only sees subscribed types")

	first := waitForEvent(t, all)
	second := waitForEvent(t, all)
	assert.Equal(t, "spin.completed", first.Type)
	assert.Equal(t, "level.up", second.Type)
}

func TestHub_Unregister(t *testing.T) {
	hub := startHub(t)
	client := hub.Register(nil)
	waitForClientCount(t, hub, 1)

	hub.Unregister(client.ID)
	waitForClientCount(t, hub, 0)

	// The channel is closed so a consumer loop terminates
	_, open := <-client.EventChannel
	assert.False(t, open)
}

func TestHub_SlowClientDoesNotStallBroadcast(t *testing.T) {
	hub := startHub(t)
	slow := hub.Register(nil)
	healthy := hub.Register([]string{"level.up"})
	waitForClientCount(t, hub, 2)

	// Overflow the slow client's buffer. The filter keeps these events away
	// from the healthy client entirely, so its next receive is unambiguous.
	for i := 0; i < ClientEventBuffer+10; i++ {
		hub.Broadcast("spin.completed", i)
	}
	hub.Broadcast("level.up", nil)

	evt := waitForEvent(t, healthy)
	assert.Equal(t, "level.up", evt.Type, "a full peer buffer never stalls the loop")

	// The slow client kept a buffer's worth and dropped the rest, including
	// the level.up that arrived while it was full.
	drained := 0
loop:
	for {
		select {
		case got := <-slow.EventChannel:
			assert.Equal(t, "spin.completed", got.Type)
			drained++
		default:
			break loop
		}
	}
	assert.Equal(t, ClientEventBuffer, drained)
}

func TestFormatSSEMessage(t *testing.T) {
	evt := Event{ID: "abc", Type: "spin.completed", Timestamp: 42, Payload: map[string]int{"win": 5}}

	msg, err := FormatSSEMessage(evt)
	require.NoError(t, err)

	s := string(msg)
	assert.Contains(t, s, "id: abc\n")
	assert.Contains(t, s, "event: spin.completed\n")
	assert.Contains(t, s, `"win":5`)
	assert.True(t, len(s) > 4 && s[len(s)-2:] == "\n\n", "SSE frames end with a blank line")
}

func TestSubscriber_ForwardsBusEvents(t *testing.T) {
	hub := startHub(t)
	bus := event.NewMemoryBus()
	NewSubscriber(hub, bus).Subscribe()

	client := hub.Register(nil)
	waitForClientCount(t, hub, 1)

	err := bus.Publish(context.Background(), event.New(event.SpinCompleted, map[string]int{"win": 10}))
	require.NoError(t, err)

	evt := waitForEvent(t, client)
	assert.Equal(t, string(event.SpinCompleted), evt.Type)
}
