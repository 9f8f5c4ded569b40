package store

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/elephant/internal/search"
)

// Iterator walks a snapshot of index hits, rehydrating one record from
// the blob store per advance. A hit whose blob is gone stops the
// iteration with an error rather than silently shrinking the result
// set: the caller always learns about an index/store discrepancy.
//
//	it, err := c.Iterate(ctx, req)
//	for it.Next(ctx) {
//		r := it.Record()
//	}
//	if err := it.Err(); err != nil { ... }
type Iterator struct {
	store      *Store
	collection string
	hits       []search.Hit
	pos        int
	cur        *Record
	err        error
}

// Next advances to the next hit. It returns false when the hits are
// exhausted or a fetch failed; check Err afterwards.
func (it *Iterator) Next(ctx context.Context) bool {
	if it.err != nil || it.pos >= len(it.hits) {
		return false
	}

	hit := it.hits[it.pos]
	it.pos++

	r, err := it.store.fetch(ctx, it.collection, hit.ID)
	if err != nil {
		it.err = fmt.Errorf("resolve hit %s/%s: %w", it.collection, hit.ID, err)
		return false
	}
	it.cur = r
	return true
}

// Record returns the record fetched by the last successful Next.
func (it *Iterator) Record() *Record {
	return it.cur
}

// Err returns the error that stopped the iteration, if any.
func (it *Iterator) Err() error {
	return it.err
}

func (it *Iterator) remaining() int {
	return len(it.hits) - it.pos
}
