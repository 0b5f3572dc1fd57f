package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryStorage keeps items in process memory. Contents are lost on restart.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemoryStorage creates an empty in-memory namespace.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

func (s *MemoryStorage) GetItem(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *MemoryStorage) SetItem(ctx context.Context, key, value string) error {
	return s.Apply(ctx, Set(key, value))
}

func (s *MemoryStorage) RemoveItem(ctx context.Context, key string) error {
	return s.Apply(ctx, Remove(key))
}

func (s *MemoryStorage) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStorage) Apply(_ context.Context, ops ...Op) error {
	if err := validate(ops); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range ops {
		if op.Remove {
			delete(s.items, op.Key)
			continue
		}
		s.items[op.Key] = op.Value
	}
	return nil
}
