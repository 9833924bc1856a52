package storage

import (
	"context"
	"sync"

	"github.com/goliatone/go-lightstate/internal/clone"
)

// MemoryStorage is an in-memory adapter intended for tests and examples.
// Snapshots are deep copied on both Save and Load so callers never share
// maps with the stored record.
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[string]map[string]any
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: map[string]map[string]any{}}
}

func (s *MemoryStorage) Load(_ context.Context, key string) (map[string]any, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	record, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return clone.Of(record), true, nil
}

func (s *MemoryStorage) Save(_ context.Context, key string, snapshot map[string]any) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	if s.records == nil {
		s.records = map[string]map[string]any{}
	}
	s.records[key] = clone.Of(snapshot)
	s.mu.Unlock()
	return nil
}

// Keys returns the stored keys in no particular order.
func (s *MemoryStorage) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.records))
	for key := range s.records {
		out = append(out, key)
	}
	return out
}

func (s *MemoryStorage) Close() error {
	return nil
}
