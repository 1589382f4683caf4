// Package kvstore provides the key/value persistence used for seen-listing
// sets.
//
// A [Store] is a plain byte store: Get returns the value for a key or
// [ErrNotFound], Put replaces it. Implementations are provided for process
// memory ([Memory]), a local directory ([File]), S3-compatible object storage
// ([S3]) and Redis ([Redis]).
//
// Store implementations must be safe for concurrent use by multiple
// goroutines, although listingwatch never writes the same key concurrently.
package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is a minimal key/value store.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error
}
