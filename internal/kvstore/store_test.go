package kvstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gitadityakumar/LiveNews/internal/common/config"
)

func TestOpen(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		s, err := Open(&config.StorageConfig{Driver: config.StorageMemory})
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if _, ok := s.(*MemoryStore); !ok {
			t.Errorf("got %T", s)
		}
	})

	t.Run("bolt", func(t *testing.T) {
		s, err := Open(&config.StorageConfig{Driver: config.StorageBolt, Path: filepath.Join(t.TempDir(), "kv.db")})
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer s.Close()
		if _, ok := s.(*BoltStore); !ok {
			t.Errorf("got %T", s)
		}
	})

	t.Run("redis needs an address", func(t *testing.T) {
		if _, err := Open(&config.StorageConfig{Driver: config.StorageRedis}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		if _, err := Open(&config.StorageConfig{Driver: "leveldb"}); err == nil {
			t.Error("expected error")
		}
	})
}

func TestRedisStore_UnreachableServer(t *testing.T) {
	// nothing listens on port 1
	s, err := NewRedis(config.RedisConfig{Addr: "127.0.0.1:1"})
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, found, err := s.Get(ctx, "@m3u8_1"); err == nil || found {
		t.Errorf("Get = found %v, err %v; want an error", found, err)
	}
	if err := s.Set(ctx, "@m3u8_1", "https://x/a.m3u8"); err == nil {
		t.Error("Set should fail")
	}
}
