// Package memory provides a process-local StateStorage used by tests and
// ephemeral CLI sessions.
package memory

import (
	"context"
	"sync"

	"pokemontodo/pkg/domain"
)

var _ domain.StateStorage = (*Store)(nil)

// Store keeps payloads in a map guarded by a mutex.
type Store struct {
	mu     sync.RWMutex
	items  map[string][]byte
	closed bool
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{items: make(map[string][]byte)}
}

func (s *Store) GetItem(_ context.Context, name string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, domain.ErrStorageClosed
	}
	payload, ok := s.items[name]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), payload...), true, nil
}

func (s *Store) SetItem(_ context.Context, name string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStorageClosed
	}
	s.items[name] = append([]byte(nil), payload...)
	return nil
}

func (s *Store) RemoveItem(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStorageClosed
	}
	delete(s.items, name)
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.items = nil
	s.mu.Unlock()
	return nil
}
