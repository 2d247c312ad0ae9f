// Package metadata is a small key/value store in the client's SQLite file.
// The persisted session lives here.
package metadata

import (
	"context"
)

// Repository stores opaque values by key. Get returns (nil, nil) for an
// absent key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Clear removes every key that starts with prefix.
	Clear(ctx context.Context, prefix string) error
}
