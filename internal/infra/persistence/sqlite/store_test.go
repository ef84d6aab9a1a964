package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"pokemontodo/pkg/domain"
)

func TestStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.SetItem(ctx, domain.StorageTheme, []byte("true")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.SetItem(ctx, domain.StorageTheme, []byte("false")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	if reopened.Path() != path {
		t.Fatalf("unexpected path %s", reopened.Path())
	}
	got, ok, err := reopened.GetItem(ctx, domain.StorageTheme)
	if err != nil || !ok || string(got) != "false" {
		t.Fatalf("expected persisted theme, got %q ok=%v err=%v", got, ok, err)
	}
	if err := reopened.RemoveItem(ctx, domain.StorageTheme); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := reopened.GetItem(ctx, domain.StorageTheme); ok {
		t.Fatalf("expected item removed")
	}
	var rows int
	if err := reopened.DB().QueryRow(`SELECT COUNT(*) FROM state`).Scan(&rows); err != nil || rows != 0 {
		t.Fatalf("expected empty table, got %d err=%v", rows, err)
	}
}

func TestStoreClosedErrors(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	_ = s.Close()
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := s.SetItem(context.Background(), "x", []byte("1")); !errors.Is(err, domain.ErrStorageClosed) {
		t.Fatalf("expected ErrStorageClosed, got %v", err)
	}
}
