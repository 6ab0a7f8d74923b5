package memory

import (
	"context"
	"sync"

	"github.com/nicktill/tinytrack/pkg/storage"
)

// Storage keeps values in memory. Data is lost on restart.
// Useful for testing and for hosts that only live for one page load.
type Storage struct {
	values map[string][]byte
	mu     sync.RWMutex
	writes int
}

// New creates an in-memory storage backend
func New() *Storage {
	return &Storage{
		values: make(map[string][]byte),
	}
}

// Get returns a copy of the value stored under key
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return nil, storage.ErrNotFound
	}

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set stores a copy of value under key
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = stored
	s.writes++
	return nil
}

// Writes returns how many Set calls have succeeded
func (s *Storage) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Close is a no-op for memory storage
func (s *Storage) Close() error {
	return nil
}
