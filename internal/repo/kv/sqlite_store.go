package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mkrupp/storefront/internal/infra/logging"
)

// SQLiteStoreConfig holds configuration for the SQLite store.
type SQLiteStoreConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/storefront.db"`
	// BusyTimeout is how long a write waits for a lock held by another process
	BusyTimeout time.Duration `env:"BUSY_TIMEOUT" default:"5s"`
}

// SQLiteStore implements Store using a single SQLite table.
type SQLiteStore struct {
	db        *sql.DB
	namespace string
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database at cfg.DatabasePath, creating the file
// and schema if needed.
func NewSQLiteStore(ctx context.Context, namespace string, cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	log := logging.GetLogger("repo.kv.sqlite_store").With(
		logging.Group("db", "path", cfg.DatabasePath, "namespace", namespace),
	)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir all: %w", err)
		}
	}

	// pragmas in the DSN apply to every pooled connection
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)", cfg.DatabasePath, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initializeDB(ctx, db); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("initialize db: %w", err)
	}

	log.DebugContext(ctx, "store opened")

	return &SQLiteStore{
		db:        db,
		namespace: namespace,
		log:       log,
		writeLock: new(sync.Mutex),
	}, nil
}

func initializeDB(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT    PRIMARY KEY,
			value      BLOB    NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Get implements Store.Get using SQLite.
func (s *SQLiteStore) Get(ctx context.Context, key string, out any) (bool, error) {
	if err := checkKeys(key); err != nil {
		return false, err
	}

	var data []byte

	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", s.namespace+key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("query value: %w", mapSQLiteError(err))
	}

	if err := decode(data, out); err != nil {
		s.log.WarnContext(ctx, "stored value unreadable", "key", key, "error", err)

		return true, err
	}

	return true, nil
}

// Set implements Store.Set using SQLite.
func (s *SQLiteStore) Set(ctx context.Context, key string, value any) (err error) {
	if err := checkKeys(key); err != nil {
		return err
	}

	data, err := encode(value)
	if err != nil {
		return err
	}

	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	defer func() {
		if err != nil {
			s.log.ErrorContext(ctx, "set failed", "key", key, "error", err)
		} else {
			s.log.DebugContext(ctx, "set", "key", key, "size", len(data))
		}
	}()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, s.namespace+key, data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("upsert value: %w", mapSQLiteError(err))
	}

	return nil
}

// Has implements Store.Has using SQLite.
func (s *SQLiteStore) Has(ctx context.Context, key string) (bool, error) {
	if err := checkKeys(key); err != nil {
		return false, err
	}

	var exists bool

	err := s.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM kv WHERE key = ?)", s.namespace+key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query exists: %w", mapSQLiteError(err))
	}

	return exists, nil
}

// Remove implements Store.Remove, deleting all keys in one transaction.
func (s *SQLiteStore) Remove(ctx context.Context, keys ...string) (err error) {
	if err := checkKeys(keys...); err != nil {
		return err
	}

	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	defer func() {
		if err != nil {
			s.log.ErrorContext(ctx, "remove failed", "keys", keys, "error", err)
		} else {
			s.log.DebugContext(ctx, "removed", "keys", keys)
		}
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", mapSQLiteError(err))
	}
	defer tx.Rollback() //nolint:errcheck

	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", s.namespace+key); err != nil {
			return fmt.Errorf("delete value: %w", mapSQLiteError(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", mapSQLiteError(err))
	}

	return nil
}

// ClearAll implements Store.ClearAll using SQLite.
func (s *SQLiteStore) ClearAll(ctx context.Context) (err error) {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	defer func() {
		if err != nil {
			s.log.ErrorContext(ctx, "clear failed", "error", err)
		} else {
			s.log.DebugContext(ctx, "cleared")
		}
	}()

	_, err = s.db.ExecContext(ctx,
		"DELETE FROM kv WHERE substr(key, 1, ?) = ?",
		len(s.namespace), s.namespace,
	)
	if err != nil {
		return fmt.Errorf("delete namespace: %w", mapSQLiteError(err))
	}

	return nil
}

// Close implements Store.Close by closing the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}

func mapSQLiteError(err error) error {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_BUSY:
			fallthrough
		case sqlite3.SQLITE_LOCKED:
			return errors.Join(ErrStoreBusy, err)
		default:
			break
		}
	}

	return err
}
