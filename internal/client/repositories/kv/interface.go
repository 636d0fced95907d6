// Package kv is the byte-valued key/value layer under the local journal
// store. Two backends exist: a SQLite table and a diskv directory tree.
package kv

import (
	"context"
)

// Store is a flat key/value namespace. Get returns (nil, nil) for a
// missing key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
