package save

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelhouse/slotengine/internal/domain"
)

// PostgresStore keeps save records in a game_saves table, one row per
// session. Used when several browser clients share one server.
type PostgresStore struct {
	pool     *pgxpool.Pool
	defaults *domain.SaveRecord
}

// NewPostgresStore builds a PostgresStore over an existing pool. The
// game_saves table comes from the goose migrations under migrations/.
func NewPostgresStore(pool *pgxpool.Pool, defaults *domain.SaveRecord) *PostgresStore {
	return &PostgresStore{pool: pool, defaults: defaults}
}

// Load implements Store. Stale records are migrated and re-persisted.
func (s *PostgresStore) Load(ctx context.Context, sessionID string) (*domain.SaveRecord, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM game_saves WHERE session_id = $1`, sessionID,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSaveNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load save record: %w", err)
	}

	record, migrated, err := Decode(data, s.defaults)
	if err != nil {
		return nil, err
	}
	if migrated {
		if err := s.Save(ctx, sessionID, record); err != nil {
			return nil, fmt.Errorf("failed to re-persist migrated save: %w", err)
		}
	}
	return record, nil
}

// Save implements Store via upsert.
func (s *PostgresStore) Save(ctx context.Context, sessionID string, record *domain.SaveRecord) error {
	data, err := Encode(record)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO game_saves (session_id, record, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (session_id)
		 DO UPDATE SET record = EXCLUDED.record, updated_at = NOW()`,
		sessionID, data,
	)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

// CheckHealth reports database connectivity for the readiness probe.
func (s *PostgresStore) CheckHealth(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Delete implements Store.
func (s *PostgresStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM game_saves WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete save record: %w", err)
	}
	return nil
}
