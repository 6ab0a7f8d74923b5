package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("storage: key not found")

// KV is durable key-value storage scoped to one page origin. It is the
// Go-side equivalent of the browser's origin-scoped local storage.
// Implementations: memory (testing), badger (survives restarts)
type KV interface {
	// Get returns the value stored under key, or ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key string, value []byte) error

	// Close releases the backend
	Close() error
}
