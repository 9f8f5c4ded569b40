// Package store implements the record store core: collections of
// records persisted durably in a blob store and mirrored into a search
// index. The blob store is authoritative; records are never rebuilt
// from the index.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/elephant/internal/blob"
	"github.com/kailas-cloud/elephant/internal/domain"
	"github.com/kailas-cloud/elephant/internal/search"
)

// BlobStore is the consumer interface for durable document storage (ISP).
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	ListKeys(ctx context.Context) ([]string, error)
}

// SearchIndex is the consumer interface for the derived search mirror (ISP).
type SearchIndex interface {
	CreateIndex(ctx context.Context, name string) error
	IndexDocument(ctx context.Context, index, id string, doc map[string]any) error
	DeleteDocument(ctx context.Context, index, id string) error
	Query(ctx context.Context, index string, q search.Query) ([]search.Hit, error)
	DeleteAllIndexes(ctx context.Context) error
}

// Store ties the two adapters together. It holds no mutable state of
// its own; Collections and Records constructed from it are independent
// per-operation values.
type Store struct {
	blobs BlobStore
	index SearchIndex
}

// New creates a record store over the given adapters.
func New(blobs BlobStore, index SearchIndex) *Store {
	return &Store{blobs: blobs, index: index}
}

// Collection returns a stateless handle for a named collection.
func (s *Store) Collection(name string) *Collection {
	return &Collection{Name: name, store: s}
}

// Record fetches a record by combined identifier {collection}/{id}.
func (s *Store) Record(ctx context.Context, key string) (*Record, error) {
	collection, id, err := splitKey(key)
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, collection, id)
}

// fetch reconstructs a record from its blob, never from the index.
func (s *Store) fetch(ctx context.Context, collection, id string) (*Record, error) {
	key := collection + "/" + id

	data, err := s.blobs.Get(ctx, key)
	if err != nil {
		if errors.Is(err, blob.ErrKeyNotFound) {
			return nil, fmt.Errorf("record %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("fetch record %s: %w", key, err)
	}

	storedID, epoch, payload, err := decodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", key, err)
	}
	if storedID == "" {
		storedID = id
	}

	return &Record{
		ID:         storedID,
		Collection: collection,
		Epoch:      epoch,
		Data:       payload,
		store:      s,
	}, nil
}
