package kvstore

import (
	"context"
	"path/filepath"
	"testing"

	"go.etcd.io/bbolt"
)

func setupTestDB(t *testing.T) *bbolt.DB {
	t.Helper()

	db, err := bbolt.Open(filepath.Join(t.TempDir(), "test.db"), 0600, nil)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func TestNewBolt(t *testing.T) {
	t.Run("nil db returns error", func(t *testing.T) {
		if _, err := NewBolt(nil); err == nil {
			t.Fatal("expected error for nil db, got nil")
		}
	})

	t.Run("creates bucket", func(t *testing.T) {
		db := setupTestDB(t)
		if _, err := NewBolt(db); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		err := db.View(func(tx *bbolt.Tx) error {
			if tx.Bucket([]byte(entriesBucket)) == nil {
				t.Error("entries bucket was not created")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("view failed: %v", err)
		}
	})
}

func TestOpenBolt_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	store, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt failed: %v", err)
	}
	if err := store.Set(ctx, "@m3u8_203", "https://a.example/live.m3u8"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	store, err = OpenBolt(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer store.Close()

	got, ok, err := store.Get(ctx, "@m3u8_203")
	if err != nil || !ok {
		t.Fatalf("Get = %q, %v, %v", got, ok, err)
	}
	if got != "https://a.example/live.m3u8" {
		t.Errorf("got %q", got)
	}
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemory() },
		"bolt": func(t *testing.T) Store {
			s, err := NewBolt(setupTestDB(t))
			if err != nil {
				t.Fatalf("NewBolt failed: %v", err)
			}
			return s
		},
	}

	for name, build := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := build(t)

			if _, ok, err := s.Get(ctx, "missing"); ok || err != nil {
				t.Fatalf("Get(missing) = %v, %v; want not found", ok, err)
			}

			if err := s.Set(ctx, "k", "v1"); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if err := s.Set(ctx, "k", "v2"); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if v, ok, _ := s.Get(ctx, "k"); !ok || v != "v2" {
				t.Errorf("Get(k) = %q, %v; want v2", v, ok)
			}

			if err := s.Remove(ctx, "k"); err != nil {
				t.Fatalf("Remove failed: %v", err)
			}
			if _, ok, _ := s.Get(ctx, "k"); ok {
				t.Error("key still present after Remove")
			}
			if err := s.Remove(ctx, "k"); err != nil {
				t.Errorf("Remove of missing key returned %v", err)
			}
		})
	}
}

func TestStores_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewMemory()
	if err := s.Set(ctx, "k", "v"); err == nil {
		t.Error("expected error on cancelled context")
	}
	if _, _, err := s.Get(ctx, "k"); err == nil {
		t.Error("expected error on cancelled context")
	}
}
