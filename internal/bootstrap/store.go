package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/reelhouse/slotengine/internal/config"
	"github.com/reelhouse/slotengine/internal/domain"
	"github.com/reelhouse/slotengine/internal/handler"
	"github.com/reelhouse/slotengine/internal/save"
)

// MigrationsDir is where the goose migration files live relative to the
// working directory.
const MigrationsDir = "migrations"

// BuildSaveStore selects and initializes the save backend from config.
// The returned cleanup function releases backend resources; the returned
// HealthChecker is nil for backends with nothing to probe.
func BuildSaveStore(ctx context.Context, cfg *config.Config, defaults *domain.SaveRecord) (save.Store, handler.HealthChecker, func(), error) {
	switch cfg.SaveBackend {
	case "file":
		store, err := save.NewFileStore(cfg.SaveDir, defaults)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%s: %w", ErrMsgFailedOpenSaveDir, err)
		}
		slog.Info(LogMsgSaveBackendReady, "backend", "file", "dir", cfg.SaveDir)
		return store, nil, func() {}, nil

	case "postgres":
		connString := cfg.GetDBConnString()
		if err := runMigrations(connString); err != nil {
			return nil, nil, nil, err
		}

		pool, err := pgxpool.New(ctx, connString)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%s: %w", ErrMsgFailedConnectDB, err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("%s: %w", ErrMsgFailedConnectDB, err)
		}

		store := save.NewPostgresStore(pool, defaults)
		slog.Info(LogMsgSaveBackendReady, "backend", "postgres", "host", cfg.DBHost, "database", cfg.DBName)
		return store, store, pool.Close, nil

	default:
		return nil, nil, nil, fmt.Errorf("%s: %q", ErrMsgUnknownSaveBackend, cfg.SaveBackend)
	}
}

// runMigrations applies the goose migrations through the database/sql pgx
// driver. The pgxpool the store uses cannot drive goose directly.
func runMigrations(connString string) error {
	slog.Info(LogMsgRunningMigrations, "dir", MigrationsDir)

	db, err := sql.Open("pgx", connString)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedConnectDB, err)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedRunMigrations, err)
	}
	if err := goose.Up(db, MigrationsDir); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedRunMigrations, err)
	}

	slog.Info(LogMsgMigrationsComplete)
	return nil
}
