package save

import (
	"context"

	"github.com/reelhouse/slotengine/internal/domain"
)

// Store persists encoded save records per session.
type Store interface {
	// Load returns the stored record for a session, or
	// domain.ErrSaveNotFound.
	Load(ctx context.Context, sessionID string) (*domain.SaveRecord, error)
	// Save writes the record for a session.
	Save(ctx context.Context, sessionID string, record *domain.SaveRecord) error
	// Delete removes a session's record. Deleting a missing record is not
	// an error.
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore is an in-memory Store for tests and ephemeral sessions.
type MemoryStore struct {
	records map[string][]byte
	// Defaults seeds migration merging on load.
	Defaults *domain.SaveRecord
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore(defaults *domain.SaveRecord) *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte), Defaults: defaults}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, sessionID string) (*domain.SaveRecord, error) {
	data, ok := s.records[sessionID]
	if !ok {
		return nil, domain.ErrSaveNotFound
	}
	record, _, err := Decode(data, s.Defaults)
	return record, err
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, sessionID string, record *domain.SaveRecord) error {
	data, err := Encode(record)
	if err != nil {
		return err
	}
	s.records[sessionID] = data
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	delete(s.records, sessionID)
	return nil
}
