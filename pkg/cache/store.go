package cache

import (
	"context"
	"errors"
)

var (
	// ErrMiss indicates the requested key was not found in the store.
	ErrMiss = errors.New("cache miss")
)

// Store is a durable key-value response store with write-once semantics.
// Put for an existing key is a no-op (first write wins); implementations
// must be safe for concurrent readers and writers. Stored values are
// verbatim response bodies.
type Store interface {
	// Get returns the stored body for key, or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores body under key unless the key already exists.
	Put(ctx context.Context, key string, body []byte) error

	// Close releases the underlying resources.
	Close() error
}
