package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
)

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()
	mem, err := Open(ctx, Config{Driver: DriverMemory})
	if err != nil || mem.Driver() != DriverMemory {
		t.Fatalf("memory: %v", err)
	}
	fsStore, err := Open(ctx, Config{FSRoot: t.TempDir()})
	if err != nil || fsStore.Driver() != DriverFilesystem {
		t.Fatalf("default fs: %v", err)
	}
	if _, err := Open(ctx, Config{Driver: DriverS3}); err == nil {
		t.Fatalf("s3 without bucket should fail")
	}
	if _, err := Open(ctx, Config{Driver: "tape"}); err == nil {
		t.Fatalf("unknown driver should fail")
	}
}

func TestStoresShareOverwriteSemantics(t *testing.T) {
	ctx := context.Background()
	fsStore, err := Open(ctx, Config{Driver: DriverFilesystem, FSRoot: t.TempDir()})
	if err != nil {
		t.Fatalf("fs: %v", err)
	}
	mem, _ := Open(ctx, Config{Driver: DriverMemory})
	for _, st := range []Store{fsStore, mem} {
		t.Run(string(st.Driver()), func(t *testing.T) {
			if _, err := st.Put(ctx, "state/a.json", bytes.NewReader([]byte("1")), PutOptions{}); err != nil {
				t.Fatalf("put: %v", err)
			}
			if _, err := st.Put(ctx, "state/a.json", bytes.NewReader([]byte("2")), PutOptions{}); !errors.Is(err, ErrExists) {
				t.Fatalf("expected ErrExists, got %v", err)
			}
			if _, err := st.Put(ctx, "state/a.json", bytes.NewReader([]byte("22")), PutOptions{Overwrite: true}); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			_, rc, err := st.Get(ctx, "state/a.json")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			b, _ := io.ReadAll(rc)
			_ = rc.Close()
			if string(b) != "22" {
				t.Fatalf("got %q", b)
			}
			if _, _, err := st.Get(ctx, "state/missing.json"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}
