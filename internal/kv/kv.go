// Package kv provides the string key-value storage that backs the record
// list. It plays the role browser local storage plays for a web page: values
// are opaque strings, each write replaces the whole value for its key.
package kv

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a storage that has been closed.
var ErrClosed = errors.New("storage closed")

// Storage is a string key-value store.
type Storage interface {
	// GetItem returns the value stored under key. The boolean is false when
	// the key has never been written or was removed.
	GetItem(ctx context.Context, key string) (string, bool, error)
	// SetItem replaces the value stored under key.
	SetItem(ctx context.Context, key, value string) error
	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(ctx context.Context, key string) error
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}
