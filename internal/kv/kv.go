// Package kv defines the key-value capability the debounce engine
// coordinates through. Every operation is individually atomic; the engine
// never needs cross-key transactions. The store is assumed to be shared by
// all worker processes, so any backend must preserve per-key atomicity
// under concurrent access.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("kv: key not found")

// Store is the coordination substrate for dedup keys, turn buffers,
// coalescing timers, and flush locks.
type Store interface {
	// SetNX sets key to value with a TTL only if the key is absent.
	// Returns true if the key was set, false if it already existed.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Set unconditionally writes key with a TTL, overwriting any prior value.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Get returns the value at key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// RPush appends value to the list at key and refreshes the list's TTL,
	// so an abandoned buffer self-expires instead of growing stale.
	RPush(ctx context.Context, key, value string, ttl time.Duration) error

	// PopAll atomically removes and returns every element of the list at
	// key, in insertion order. An absent or empty list yields a nil slice.
	PopAll(ctx context.Context, key string) ([]string, error)

	// Ping verifies connectivity to the backend.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
