package kv

import (
	"context"
	"maps"
	"strings"
	"sync"
)

// MemoryStore implements Store in process memory. Values are still JSON
// encoded so callers observe the same decoding behavior as with durable stores.
type MemoryStore struct {
	namespace string
	mu        sync.RWMutex
	values    map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(namespace string) *MemoryStore {
	return &MemoryStore{
		namespace: namespace,
		values:    make(map[string][]byte),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string, out any) (bool, error) {
	if err := checkKeys(key); err != nil {
		return false, err
	}

	s.mu.RLock()
	data, ok := s.values[s.namespace+key]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}

	return true, decode(data, out)
}

func (s *MemoryStore) Set(_ context.Context, key string, value any) error {
	if err := checkKeys(key); err != nil {
		return err
	}

	data, err := encode(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.values[s.namespace+key] = data
	s.mu.Unlock()

	return nil
}

// SetRaw stores data under key without encoding it.
func (s *MemoryStore) SetRaw(key string, data []byte) {
	s.mu.Lock()
	s.values[s.namespace+key] = data
	s.mu.Unlock()
}

func (s *MemoryStore) Has(_ context.Context, key string) (bool, error) {
	if err := checkKeys(key); err != nil {
		return false, err
	}

	s.mu.RLock()
	_, ok := s.values[s.namespace+key]
	s.mu.RUnlock()

	return ok, nil
}

func (s *MemoryStore) Remove(_ context.Context, keys ...string) error {
	if err := checkKeys(keys...); err != nil {
		return err
	}

	s.mu.Lock()
	for _, key := range keys {
		delete(s.values, s.namespace+key)
	}
	s.mu.Unlock()

	return nil
}

func (s *MemoryStore) ClearAll(context.Context) error {
	s.mu.Lock()
	maps.DeleteFunc(s.values, func(k string, _ []byte) bool {
		return strings.HasPrefix(k, s.namespace)
	})
	s.mu.Unlock()

	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
