// Package kv persists small JSON values (session, cart, cached thumbnails)
// between runs of the client.
package kv

import (
	"context"
	"errors"
	"fmt"
)

const (
	KeyAuthToken = "auth_token"
	KeyAuthUser  = "auth_user"
	KeyCart      = "cart"
)

var (
	// ErrInvalidKey is returned for empty keys.
	ErrInvalidKey = errors.New("invalid key")
	// ErrMalformedValue is returned by Get when the stored value cannot be decoded into out.
	ErrMalformedValue = errors.New("malformed value")
	// ErrStoreBusy is returned when the backing database stays locked past its busy timeout.
	ErrStoreBusy = errors.New("store busy")
	// ErrUnknownDriver is returned by Open for unsupported drivers.
	ErrUnknownDriver = errors.New("unknown driver")
)

// Store defines the interface for namespaced key-value persistence.
// Values are stored as JSON.
type Store interface {
	// Get decodes the value stored under key into out.
	// Returns false and a nil error if the key does not exist.
	Get(ctx context.Context, key string, out any) (bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value any) error

	// Has reports whether key exists.
	Has(ctx context.Context, key string) (bool, error)

	// Remove deletes all given keys as one operation. Missing keys are ignored.
	Remove(ctx context.Context, keys ...string) error

	// ClearAll deletes every key in the store's namespace and nothing else.
	ClearAll(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// StoreFactory is a function that creates a new Store instance.
type StoreFactory func(ctx context.Context) (Store, error)

// Config selects and configures a Store backend.
type Config struct {
	// Driver is one of "sqlite", "fs" or "memory"
	Driver string `env:"DRIVER" default:"sqlite"`
	// Namespace prefixes every key, so several clients can share one backend
	Namespace string `env:"NAMESPACE" default:"inv_"`

	SQLite     SQLiteStoreConfig     `envPrefix:"SQLITE_"`
	FileSystem FileSystemStoreConfig `envPrefix:"FS_"`
}

// Factory returns a StoreFactory for cfg.
func Factory(cfg Config) StoreFactory {
	return func(ctx context.Context) (Store, error) {
		return Open(ctx, cfg)
	}
}

// Open creates the Store selected by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLiteStore(ctx, cfg.Namespace, cfg.SQLite)
	case "fs":
		return NewFileSystemStore(ctx, cfg.Namespace, cfg.FileSystem)
	case "memory":
		return NewMemoryStore(cfg.Namespace), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

func checkKeys(keys ...string) error {
	for _, key := range keys {
		if key == "" {
			return ErrInvalidKey
		}
	}

	return nil
}
