package slots

import (
	"context"
	"encoding/json"
	"sync"
)

// MemorySnapshotStore is the in-process store used in tests and when
// no durable backend is configured (memory-only degraded mode). It
// round-trips through JSON so it exercises the same encoding as the
// durable stores.
type MemorySnapshotStore struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

// NewMemorySnapshotStore creates an empty store.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{}
}

func (s *MemorySnapshotStore) Save(_ context.Context, doc *SnapshotDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	s.saves++
	return nil
}

func (s *MemorySnapshotStore) Load(_ context.Context) (*SnapshotDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, nil
	}
	var doc SnapshotDocument
	if err := json.Unmarshal(s.data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Saves returns how many times Save has been called.
func (s *MemorySnapshotStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
