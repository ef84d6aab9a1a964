package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"pokemontodo/internal/infra/persistence/postgres/testutil"
	"pokemontodo/pkg/domain"
)

func openStub(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(driver, dsn string) (*sql.DB, error) {
		if driver != defaultDriver || dsn != defaultDSN {
			t.Fatalf("unexpected open %s %s", driver, dsn)
		}
		return db, nil
	})
	t.Cleanup(restore)
	store, err := NewStore(context.Background(), "")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, conn
}

func TestNewStoreEnsuresTable(t *testing.T) {
	_, conn := openStub(t)
	var sawDDL bool
	for _, stmt := range conn.Statements {
		if strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS client_state") {
			sawDDL = true
		}
	}
	if !sawDDL {
		t.Fatalf("expected state table DDL, got %v", conn.Statements)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, conn := openStub(t)

	if _, ok, err := store.GetItem(ctx, domain.StoragePokemon); err != nil || ok {
		t.Fatalf("expected absent, got ok=%v err=%v", ok, err)
	}
	if err := store.SetItem(ctx, domain.StoragePokemon, []byte(`{"version":1}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.SetItem(ctx, domain.StoragePokemon, []byte(`{"version":1,"state":{}}`)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.SetItem(ctx, domain.StorageTheme, []byte("true")); err != nil {
		t.Fatalf("set theme: %v", err)
	}
	if n := len(conn.Rows); n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
	got, ok, err := store.GetItem(ctx, domain.StoragePokemon)
	if err != nil || !ok || string(got) != `{"version":1,"state":{}}` {
		t.Fatalf("unexpected payload %q ok=%v err=%v", got, ok, err)
	}
	if err := store.RemoveItem(ctx, domain.StoragePokemon); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := store.GetItem(ctx, domain.StoragePokemon); ok {
		t.Fatalf("expected payload removed")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := store.SetItem(ctx, "x", nil); !errors.Is(err, domain.ErrStorageClosed) {
		t.Fatalf("expected ErrStorageClosed, got %v", err)
	}
}

func TestSetItemSurfacesCommitFailure(t *testing.T) {
	store, conn := openStub(t)
	conn.FailCommit = true
	if err := store.SetItem(context.Background(), domain.StorageMoves, []byte("{}")); err == nil || !strings.Contains(err.Error(), "commit") {
		t.Fatalf("expected commit error, got %v", err)
	}
}

func TestNewStorePingFailure(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore(context.Background(), "postgres://x"); err == nil {
		t.Fatalf("expected ping failure")
	}
}
