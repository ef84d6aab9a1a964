package core

import (
	"context"
	"fmt"

	"pokemontodo/internal/blob"
	"pokemontodo/internal/infra/persistence/blobstate"
	"pokemontodo/internal/infra/persistence/memory"
	"pokemontodo/internal/infra/persistence/postgres"
	"pokemontodo/internal/infra/persistence/sqlite"
	"pokemontodo/pkg/domain"
)

// StorageDriver identifies a concrete client-state storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
	StorageBlob     StorageDriver = "blob"     // JSON objects in a blob store (fs or s3)
)

// StorageOptions selects and configures the state storage backend.
type StorageOptions struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
	Blob        blob.Config
	// Prefix is the key prefix used by the blob driver.
	Prefix string
}

// OpenStateStorage opens the backend named by opts.Driver. Defaults to sqlite
// when unset.
func OpenStateStorage(ctx context.Context, opts StorageOptions) (domain.StateStorage, error) {
	driver := opts.Driver
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		return sqlite.NewStore(opts.SQLitePath)
	case StoragePostgres:
		return postgres.NewStore(ctx, opts.PostgresDSN)
	case StorageBlob:
		store, err := blob.Open(ctx, opts.Blob)
		if err != nil {
			return nil, fmt.Errorf("open blob store: %w", err)
		}
		return blobstate.New(store, opts.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
