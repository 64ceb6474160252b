package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reelhouse/slotengine/internal/bootstrap"
	"github.com/reelhouse/slotengine/internal/config"
	"github.com/reelhouse/slotengine/internal/event"
	"github.com/reelhouse/slotengine/internal/save"
	"github.com/reelhouse/slotengine/internal/server"
	"github.com/reelhouse/slotengine/internal/session"
	"github.com/reelhouse/slotengine/internal/sse"
)

// shutdownTimeout bounds graceful shutdown; a spin that has not finished by
// then is rolled back from its checkpoint on next load anyway.
const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logFile, err := bootstrap.SetupLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	gameCfg, err := config.LoadGameConfig(cfg.GameFile, cfg.SchemaFile)
	if err != nil {
		slog.Error("Failed to load game config", "path", cfg.GameFile, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	defaults := save.DefaultRecord(gameCfg.InitialCredits, gameCfg.BetOptions[0])
	saves, health, closeStore, err := bootstrap.BuildSaveStore(ctx, cfg, defaults)
	if err != nil {
		slog.Error("Failed to build save store", "backend", cfg.SaveBackend, "error", err)
		os.Exit(1)
	}

	// Event bus and SSE bridge
	bus := event.NewMemoryBus()
	hub := sse.NewHub()
	hub.Start()
	sse.NewSubscriber(hub, bus).Subscribe()

	// One engine per session, built on demand and evicted after the TTL
	sessions := session.NewManager(
		cfg.SessionCacheSize,
		time.Duration(cfg.SessionTTLMin)*time.Minute,
		bootstrap.BuildSessionFactory(gameCfg, saves, bus),
	)

	srv := server.NewServer(cfg.Port, cfg.APIKey, cfg.TrustedProxies, sessions, hub, health)

	// Start server in a goroutine so we can listen for shutdown signals
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		slog.Error("Server failed", "error", err)
		closeStore()
		os.Exit(1)
	case sig := <-stop:
		slog.Info("Shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	bootstrap.GracefulShutdown(shutdownCtx, bootstrap.ShutdownComponents{
		Server:     srv,
		Hub:        hub,
		CloseStore: closeStore,
	})
}
