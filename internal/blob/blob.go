// Package blob provides the durable key-addressed object store backing
// the record store. Blob keys are of the form {collection}/{id} and the
// blob store is always the source of truth; search indexes are derived
// from it.
package blob

import (
	"context"
	"errors"
)

// ErrKeyNotFound signals an absent blob key.
var ErrKeyNotFound = errors.New("blob: key not found")

// ContentTypeJSON is the content type of every record blob.
const ContentTypeJSON = "application/json"

// Store is the blob store contract consumed by the record store.
type Store interface {
	// Put writes content at key, overwriting any previous value.
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Get returns the content at key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// ListKeys enumerates every key in the store. Used only by seed/purge.
	ListKeys(ctx context.Context) ([]string, error)
}
