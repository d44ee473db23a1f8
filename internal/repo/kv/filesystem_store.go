package kv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mkrupp/storefront/internal/infra/logging"
	"github.com/mkrupp/storefront/internal/util/encoding"
)

const (
	dirPrefixLength = 2 // 32^2 = 1024 directories
	dirPrefixDepth  = 2 // 1024^2 = 1,048,576 directories
	idMinLength     = dirPrefixDepth * dirPrefixLength
	fileExt         = "json"
)

// FileSystemStoreConfig holds configuration for the filesystem-based store.
type FileSystemStoreConfig struct {
	// Basedir is the root directory for stored values
	Basedir string `env:"BASEDIR" default:"var/storage/kv"`
}

// FileSystemStore implements Store with one file per key.
// Keys are Crockford-encoded and spread over a directory hierarchy; every
// operation holds an flock on the namespace lockfile, so concurrent processes
// sharing the directory see whole operations.
type FileSystemStore struct {
	namespace string
	cfg       FileSystemStoreConfig
	log       logging.Logger
}

var _ Store = (*FileSystemStore)(nil)

// NewFileSystemStore creates a FileSystemStore rooted at cfg.Basedir.
func NewFileSystemStore(ctx context.Context, namespace string, cfg FileSystemStoreConfig) (*FileSystemStore, error) {
	log := logging.GetLogger("repo.kv.filesystem_store").With(
		logging.Group("store",
			"basedir", cfg.Basedir,
			"namespace", namespace,
		),
	)

	store := &FileSystemStore{
		namespace: namespace,
		cfg:       cfg,
		log:       log,
	}

	if err := store.initStorage(ctx); err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	return store, nil
}

func (s *FileSystemStore) initStorage(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			s.log.ErrorContext(ctx, "init storage failed", "error", err)
		} else {
			s.log.DebugContext(ctx, "init storage")
		}
	}()

	if err := os.MkdirAll(s.cfg.Basedir, 0o755); err != nil {
		return fmt.Errorf("mkdir all: %w", err)
	}

	return nil
}

// Get implements Store.Get by reading the key's file.
func (s *FileSystemStore) Get(ctx context.Context, key string, out any) (bool, error) {
	if err := checkKeys(key); err != nil {
		return false, err
	}

	release, err := s.flock(ctx, syscall.LOCK_SH)
	if err != nil {
		return false, err
	}
	defer release()

	data, err := os.ReadFile(s.GetFilename(key))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("read: %w", err)
	}

	if err := decode(data, out); err != nil {
		s.log.WarnContext(ctx, "stored value unreadable", "key", key, "error", err)

		return true, err
	}

	return true, nil
}

// Set implements Store.Set by atomically replacing the key's file.
func (s *FileSystemStore) Set(ctx context.Context, key string, value any) (err error) {
	if err := checkKeys(key); err != nil {
		return err
	}

	data, err := encode(value)
	if err != nil {
		return err
	}

	filename := s.GetFilename(key)

	defer func() {
		log := s.log.With(logging.Group("value", "key", key, "filename", filename))
		if err != nil {
			log.ErrorContext(ctx, "set failed", "error", err)
		} else {
			log.DebugContext(ctx, "set", "size", len(data))
		}
	}()

	release, err := s.flock(ctx, syscall.LOCK_EX)
	if err != nil {
		return err
	}
	defer release()

	return writeFileAtomic(filename, data)
}

// Has implements Store.Has.
func (s *FileSystemStore) Has(ctx context.Context, key string) (bool, error) {
	if err := checkKeys(key); err != nil {
		return false, err
	}

	release, err := s.flock(ctx, syscall.LOCK_SH)
	if err != nil {
		return false, err
	}
	defer release()

	_, err = os.Stat(s.GetFilename(key))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("stat: %w", err)
	}

	return true, nil
}

// Remove implements Store.Remove. All files are removed under one exclusive lock.
func (s *FileSystemStore) Remove(ctx context.Context, keys ...string) (err error) {
	if err := checkKeys(keys...); err != nil {
		return err
	}

	defer func() {
		if err != nil {
			s.log.ErrorContext(ctx, "remove failed", "keys", keys, "error", err)
		} else {
			s.log.DebugContext(ctx, "removed", "keys", keys)
		}
	}()

	release, err := s.flock(ctx, syscall.LOCK_EX)
	if err != nil {
		return err
	}
	defer release()

	for _, key := range keys {
		if err := os.Remove(s.GetFilename(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove: %w", err)
		}
	}

	return nil
}

// ClearAll implements Store.ClearAll by removing the namespace directory.
func (s *FileSystemStore) ClearAll(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			s.log.ErrorContext(ctx, "clear failed", "error", err)
		} else {
			s.log.DebugContext(ctx, "cleared")
		}
	}()

	release, err := s.flock(ctx, syscall.LOCK_EX)
	if err != nil {
		return err
	}
	defer release()

	if err := os.RemoveAll(s.namespaceDir()); err != nil {
		return fmt.Errorf("remove all: %w", err)
	}

	return nil
}

// Close implements Store.Close. The filesystem store holds no open resources.
func (s *FileSystemStore) Close() error {
	return nil
}

// GetFilename returns the full filesystem path for key.
func (s *FileSystemStore) GetFilename(key string) string {
	// Pad the encoded key with zeros to the left to make it fit the directory structure:
	//   6c/s3/6cs3jrb5e9.json
	basename := encoding.EncodeCrockfordB32LC([]byte(key))
	basename = strings.ReplaceAll(fmt.Sprintf("%*s", idMinLength, basename), " ", "0")

	parts := []string{s.namespaceDir()}
	for i := 0; i < idMinLength; i += dirPrefixLength {
		parts = append(parts, basename[i:i+dirPrefixLength])
	}

	return filepath.Join(append(parts, basename+"."+fileExt)...)
}

func (s *FileSystemStore) namespaceDir() string {
	ns := s.namespace
	if ns == "" {
		ns = "_"
	}

	return filepath.Join(s.cfg.Basedir, ns)
}

func (s *FileSystemStore) flock(ctx context.Context, mode int) (release func(), err error) {
	lockfile := s.namespaceDir() + ".lock"
	log := s.log.With(logging.Group("store", "lockfile", lockfile))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "lock failed", "error", err)
		}
	}()

	if err := os.MkdirAll(filepath.Dir(lockfile), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir all: %w", err)
	}

	file, err := os.OpenFile(lockfile, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lockfile: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), mode); err != nil {
		_ = file.Close()

		return nil, fmt.Errorf("flock: %w", err)
	}

	return func() {
		_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		_ = file.Close()
	}, nil
}

func writeFileAtomic(filename string, data []byte) error {
	dir := filepath.Dir(filename)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir all: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if n, err := tmp.Write(data); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("write: %w", err)
	} else if n != len(data) {
		_ = tmp.Close()

		return fmt.Errorf("write: %w", io.ErrShortWrite)
	} else if err := tmp.Sync(); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("sync: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	if err := os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	return nil
}
