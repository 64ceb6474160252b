package sse

import "time"

// Buffer sizes
const (
	// BroadcastBufferSize is the buffer size for the broadcast channel
	BroadcastBufferSize = 100

	// ClientEventBuffer is the buffer size for each client's event channel
	ClientEventBuffer = 50

	// ClientChannelBuffer is the buffer size for register/unregister channels
	ClientChannelBuffer = 10
)

// SSE connection settings
const (
	// KeepaliveInterval is how often to send keepalive pings
	KeepaliveInterval = 30 * time.Second

	// WriteTimeout is the timeout for writing to client connections
	WriteTimeout = 10 * time.Second
)

// Event types forwarded to SSE clients
const (
	// EventTypeSpinCompleted is sent after every resolved spin
	EventTypeSpinCompleted = "spin.completed"

	// EventTypeFeatureTriggered is sent when free spins or the bonus game start
	EventTypeFeatureTriggered = "feature.triggered"

	// EventTypeFeatureEnded is sent when a feature finishes with its total win
	EventTypeFeatureEnded = "feature.ended"

	// EventTypeLevelUp is sent when the player gains a level
	EventTypeLevelUp = "level.up"

	// EventTypeAchievement is sent when an achievement unlocks
	EventTypeAchievement = "achievement.unlocked"

	// EventTypeGambleFinished is sent when a gamble session settles
	EventTypeGambleFinished = "gamble.finished"

	// EventTypeKeepalive is the keepalive ping event type
	EventTypeKeepalive = "keepalive"
)

// Log messages
const (
	LogMsgClientConnected    = "SSE client connected"
	LogMsgClientDisconnected = "SSE client disconnected"
	LogMsgEventBroadcast     = "Broadcasting SSE event"
	LogMsgWriteError         = "Failed to write SSE event"
)
