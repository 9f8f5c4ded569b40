// Package search defines the search index contract and its drivers. An
// index is a derived, queryable mirror of record documents; it may lag
// behind the blob store and can always be rebuilt from it.
package search

import (
	"context"
	"errors"
)

var (
	// ErrIndexExists signals an index creation race; callers treat it as success.
	ErrIndexExists = errors.New("search: index already exists")
	// ErrIndexNotFound signals a query against an index that was never created.
	ErrIndexNotFound = errors.New("search: index not found")
)

// DefaultSize is the result count used when a query carries no size hint.
const DefaultSize = 10

// Query describes one index lookup.
type Query struct {
	// Text is the free-text query; empty means match-all.
	Text string
	// Sort is a field name, with a leading "-" for descending order.
	Sort string
	// Size caps the number of hits; 0 falls back to DefaultSize.
	Size int
	// Params carries engine-specific options. Drivers recognize "from"
	// (result offset) and ignore anything they do not understand.
	Params map[string]string
}

// Hit is one index match, identified by the record id.
type Hit struct {
	ID    string
	Score float64
}

// Index is the search engine contract consumed by the record store.
type Index interface {
	// CreateIndex creates the index for a collection name.
	// Returns ErrIndexExists if it is already there.
	CreateIndex(ctx context.Context, name string) error
	// IndexDocument writes the serialized record form into an index under id.
	IndexDocument(ctx context.Context, index, id string, doc map[string]any) error
	// DeleteDocument removes id from an index. Removing an absent id is not an error.
	DeleteDocument(ctx context.Context, index, id string) error
	// Query runs a lookup and returns ordered hits.
	Query(ctx context.Context, index string, q Query) ([]Hit, error)
	// DeleteAllIndexes drops every index entirely. Used only by purge.
	DeleteAllIndexes(ctx context.Context) error
	// Close releases driver resources.
	Close() error
}
