package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/elephant/internal/search"
)

// defaultSort orders search results newest-first by last-modified epoch.
const defaultSort = "-epoch"

// Collection is a stateless handle for a named group of records. It is
// cheap to reconstruct from its name alone; records back-reference
// their collection the same way.
type Collection struct {
	Name string

	store *Store
}

// SearchRequest carries the caller's query hints. All fields are
// optional: an empty query matches everything, an empty sort means
// newest-first, a zero size uses the engine default.
type SearchRequest struct {
	Query  string
	Sort   string
	Size   int
	Params map[string]string
}

// NewRecord constructs an unsaved record bound to this collection.
func (c *Collection) NewRecord() *Record {
	r := newRecord(c.store)
	r.Collection = c.Name
	return r
}

// Record fetches a record of this collection by bare identifier.
func (c *Collection) Record(ctx context.Context, id string) (*Record, error) {
	return c.store.fetch(ctx, c.Name, id)
}

// EnsureIndex idempotently creates the search index backing this
// collection. An index creation race is treated as success.
func (c *Collection) EnsureIndex(ctx context.Context) error {
	err := c.store.index.CreateIndex(ctx, c.Name)
	if err != nil && !errors.Is(err, search.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", c.Name, err)
	}
	return nil
}

// Search runs a query against this collection's index and materializes
// every hit into a full record via the blob store. Results come back
// newest-first unless the request overrides the sort.
func (c *Collection) Search(ctx context.Context, req SearchRequest) ([]*Record, error) {
	it, err := c.Iterate(ctx, req)
	if err != nil {
		return nil, err
	}

	records := make([]*Record, 0, it.remaining())
	for it.Next(ctx) {
		records = append(records, it.Record())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Iterate runs the index query once and returns a lazy iterator that
// fetches one blob per advance. The iterator is finite and not
// restartable; re-invoking Iterate runs a fresh query.
func (c *Collection) Iterate(ctx context.Context, req SearchRequest) (*Iterator, error) {
	q := search.Query{
		Text:   req.Query,
		Sort:   req.Sort,
		Size:   req.Size,
		Params: req.Params,
	}
	if q.Sort == "" {
		q.Sort = defaultSort
	}

	hits, err := c.store.index.Query(ctx, c.Name, q)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", c.Name, err)
	}
	return &Iterator{store: c.store, collection: c.Name, hits: hits}, nil
}
