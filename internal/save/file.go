package save

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/reelhouse/slotengine/internal/domain"
)

// FileStore keeps one JSON save file per session under a directory. This is
// the default backend for a local, single-player deployment.
type FileStore struct {
	dir      string
	defaults *domain.SaveRecord
}

// NewFileStore builds a FileStore, creating the directory if needed.
func NewFileStore(dir string, defaults *domain.SaveRecord) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create save directory: %w", err)
	}
	return &FileStore{dir: dir, defaults: defaults}, nil
}

// Load implements Store. Stale records are migrated and re-persisted.
func (s *FileStore) Load(ctx context.Context, sessionID string) (*domain.SaveRecord, error) {
	data, err := os.ReadFile(s.path(sessionID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrSaveNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read save file: %w", err)
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

// Save implements Store. The write goes through a temp file and rename so a
// crash never leaves a torn record.
func (s *FileStore) Save(_ context.Context, sessionID string, record *domain.SaveRecord) error {
	data, err := Encode(record)
	if err != nil {
		return err
	}

	path := s.path(sessionID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write save file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace save file: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *FileStore) Delete(_ context.Context, sessionID string) error {
	err := os.Remove(s.path(sessionID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete save file: %w", err)
	}
	return nil
}

// path sanitizes the session ID into a file name.
func (s *FileStore) path(sessionID string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, sessionID)
	return filepath.Join(s.dir, name+".json")
}
