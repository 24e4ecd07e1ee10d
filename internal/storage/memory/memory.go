package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/themyzteziz/bankapp/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store is an in-memory key-value store. It backs tests and runs without
// any external dependency when persistence is not needed.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewStore() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]byte, len(value))
	copy(cp, value)
	s.data[key] = cp

	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, exists := s.data[key]
	if !exists {
		return nil, fmt.Errorf("%w: %s", storage.ErrKeyNotFound, key)
	}

	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, nil
}
