// Package blobstate adapts a blob.Store into a StateStorage so client state
// can live on the local filesystem or in an S3 bucket.
package blobstate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"pokemontodo/internal/blob"
	"pokemontodo/pkg/domain"
)

var _ domain.StateStorage = (*Store)(nil)

const contentType = "application/json"

// Store writes each storage name to prefix + name + ".json".
type Store struct {
	blobs  blob.Store
	prefix string

	mu     sync.RWMutex
	closed bool
}

// New wraps blobs. An empty prefix defaults to "state/".
func New(blobs blob.Store, prefix string) *Store {
	if prefix == "" {
		prefix = "state/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{blobs: blobs, prefix: prefix}
}

func (s *Store) key(name string) string {
	return s.prefix + path.Base(name) + ".json"
}

func (s *Store) GetItem(ctx context.Context, name string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, domain.ErrStorageClosed
	}
	_, rc, err := s.blobs.Get(ctx, s.key(name))
	if errors.Is(err, blob.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", name, err)
	}
	defer func() { _ = rc.Close() }()
	payload, err := io.ReadAll(rc)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", name, err)
	}
	return payload, true, nil
}

func (s *Store) SetItem(ctx context.Context, name string, payload []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrStorageClosed
	}
	_, err := s.blobs.Put(ctx, s.key(name), bytes.NewReader(payload), blob.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"storage-name": name},
		Overwrite:   true,
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}
	return nil
}

func (s *Store) RemoveItem(ctx context.Context, name string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrStorageClosed
	}
	if _, err := s.blobs.Delete(ctx, s.key(name)); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
