package domain

import (
	"context"
	"errors"
)

// Fixed storage names under which client state is persisted.
const (
	StoragePokemon = "pokemon-storage"
	StorageMoves   = "move-storage"
	StorageTheme   = "pokemon-todo-theme"
)

// ErrStorageClosed is returned by StateStorage implementations after Close.
var ErrStorageClosed = errors.New("state storage closed")

// StateStorage is a minimal durable key/value abstraction for client state,
// the equivalent of the browser's local storage. Each name maps to one opaque
// payload that is replaced wholesale on every write.
type StateStorage interface {
	// GetItem returns the payload stored under name; ok is false when absent.
	GetItem(ctx context.Context, name string) (payload []byte, ok bool, err error)
	// SetItem replaces the payload stored under name.
	SetItem(ctx context.Context, name string, payload []byte) error
	// RemoveItem deletes name. Removing an absent name is not an error.
	RemoveItem(ctx context.Context, name string) error
	// Close releases backend resources.
	Close() error
}
