package kvstore

import (
	"context"
	"errors"
)

// Overlay reads through to a base store but keeps every write in memory.
//
// It backs dry runs such as listingwatch preview: seen sets are loaded from
// the real backend, and whatever the run marks as seen is discarded when
// the process exits.
type Overlay struct {
	base   Store
	writes *Memory
}

// NewOverlay wraps base.
func NewOverlay(base Store) *Overlay {
	return &Overlay{base: base, writes: NewMemory()}
}

// Get returns the overlay's value for key if one was written, otherwise the
// base store's.
func (o *Overlay) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := o.writes.Get(ctx, key)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return o.base.Get(ctx, key)
}

// Put stores value in memory only.
func (o *Overlay) Put(ctx context.Context, key string, value []byte) error {
	return o.writes.Put(ctx, key, value)
}
