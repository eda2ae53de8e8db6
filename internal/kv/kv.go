// Package kv provides the key-value blob store behind profile persistence.
// Values are opaque byte slices and every write replaces the whole value,
// so a concurrent reader never observes a partially written blob.
//
// Two implementations are provided: a BadgerDB-backed store for production
// and an in-memory store for tests.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("kv: not found")

// Store is a flat key-value store with whole-value replace-on-write
// semantics.
type Store interface {
	// Get retrieves the value for a key. Returns ErrNotFound if not present.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores a value under a key, overwriting any existing value
	// atomically.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes a key. No error if the key does not exist.
	Delete(ctx context.Context, key string) error

	// Has reports whether a key exists without reading its value.
	Has(ctx context.Context, key string) (bool, error)

	// Keys returns all keys starting with the given prefix, sorted
	// lexicographically.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}
