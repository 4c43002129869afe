// Package store persists the session artifact: one opaque blob per browser
// session holding the links of its last draw.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a key has no value.
	ErrNotFound = errors.New("store: not found")

	// ErrClosed is returned when the store is closed.
	ErrClosed = errors.New("store: closed")
)

// Store is a key-value blob store.
type Store interface {
	// Get retrieves a value by key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores a value by key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Cleanup removes entries not touched for longer than idle and reports
	// how many were removed.
	Cleanup(ctx context.Context, idle time.Duration) (int, error)

	// Close releases the store.
	Close() error
}
