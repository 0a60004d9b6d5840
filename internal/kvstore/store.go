// Package kvstore provides the string key-value stores that back the stream
// URL cache and the channel order store.
package kvstore

import (
	"context"
	"fmt"

	"github.com/gitadityakumar/LiveNews/internal/common/config"
)

// Store is a generic string key-value store.
type Store interface {
	// Get returns the value for key. ok is false when the key is not set.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
	Close() error
}

// Open builds the store selected by the storage configuration.
func Open(cfg *config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case config.StorageBolt:
		return OpenBolt(cfg.Path)
	case config.StorageRedis:
		return NewRedis(cfg.Redis)
	case config.StorageMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
