package bootstrap

import (
	"context"
	"log/slog"

	"github.com/reelhouse/slotengine/internal/server"
	"github.com/reelhouse/slotengine/internal/sse"
)

// ShutdownComponents holds all components that need graceful shutdown.
type ShutdownComponents struct {
	Server *server.Server
	Hub    *sse.Hub

	// CloseStore releases the save backend (database pool). Runs last so
	// in-flight persists can still land.
	CloseStore func()
}

// GracefulShutdown stops the application in order:
//  1. HTTP server (stop accepting new requests; running spins finish)
//  2. SSE hub (disconnect event stream clients)
//  3. Save backend (close the pool once nothing can write)
//
// Errors during shutdown are logged but do not stop the shutdown sequence.
func GracefulShutdown(ctx context.Context, components ShutdownComponents) {
	slog.Info(LogMsgShuttingDownServer)

	if err := components.Server.Stop(ctx); err != nil {
		slog.Error(LogMsgServerForcedShutdown, "error", err)
	}

	if components.Hub != nil {
		slog.Info(LogMsgShuttingDownHub)
		components.Hub.Stop()
	}

	if components.CloseStore != nil {
		components.CloseStore()
	}

	slog.Info(LogMsgServerStopped)
}
