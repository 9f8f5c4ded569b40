package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// BleveIndex implements Index on embedded bleve indexes, one per
// collection. With a non-empty path every index lives in its own
// directory under it; an empty path keeps all indexes in memory, which
// is what the tests use.
type BleveIndex struct {
	mu      sync.Mutex
	path    string
	indexes map[string]bleve.Index
}

var _ Index = (*BleveIndex)(nil)

// NewBleveIndex creates the bleve driver rooted at path ("" = in-memory).
func NewBleveIndex(path string) (*BleveIndex, error) {
	if path != "" {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("create index root %s: %w", path, err)
		}
	}
	return &BleveIndex{path: path, indexes: make(map[string]bleve.Index)}, nil
}

// CreateIndex creates (or opens) the index for a collection name.
func (b *BleveIndex) CreateIndex(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.indexes[name]; ok {
		return ErrIndexExists
	}

	if b.path == "" {
		idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
		if err != nil {
			return fmt.Errorf("create in-memory index %s: %w", name, err)
		}
		b.indexes[name] = idx
		return nil
	}

	dir := filepath.Join(b.path, name)
	idx, err := bleve.New(dir, bleve.NewIndexMapping())
	if err == bleve.ErrorIndexPathExists {
		// Left over from a previous run; open and reuse it.
		idx, err = bleve.Open(dir)
		if err != nil {
			return fmt.Errorf("reopen index %s: %w", name, err)
		}
		b.indexes[name] = idx
		return ErrIndexExists
	}
	if err != nil {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	b.indexes[name] = idx
	return nil
}

// IndexDocument writes doc into the collection's index under id.
func (b *BleveIndex) IndexDocument(_ context.Context, index, id string, doc map[string]any) error {
	idx, err := b.open(index)
	if err != nil {
		return err
	}
	if err := idx.Index(id, doc); err != nil {
		return fmt.Errorf("index document %s/%s: %w", index, id, err)
	}
	return nil
}

// DeleteDocument removes id from the collection's index.
func (b *BleveIndex) DeleteDocument(_ context.Context, index, id string) error {
	idx, err := b.open(index)
	if err != nil {
		return err
	}
	if err := idx.Delete(id); err != nil {
		return fmt.Errorf("delete document %s/%s: %w", index, id, err)
	}
	return nil
}

// Query runs a free-text (or match-all) lookup against one index.
func (b *BleveIndex) Query(ctx context.Context, index string, q Query) ([]Hit, error) {
	idx, err := b.open(index)
	if err != nil {
		return nil, err
	}

	var req *bleve.SearchRequest
	if q.Text == "" || q.Text == "*" {
		req = bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	} else {
		req = bleve.NewSearchRequest(bleve.NewQueryStringQuery(q.Text))
	}

	size := q.Size
	if size <= 0 {
		size = DefaultSize
	}
	req.Size = size

	if q.Sort != "" {
		req.SortBy([]string{q.Sort})
	}
	if fromStr, ok := q.Params["from"]; ok {
		if from, convErr := strconv.Atoi(fromStr); convErr == nil && from > 0 {
			req.From = from
		}
	}

	result, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, h := range result.Hits {
		hits = append(hits, Hit{ID: h.ID, Score: h.Score})
	}
	return hits, nil
}

// DeleteAllIndexes closes and removes every index.
func (b *BleveIndex) DeleteAllIndexes(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for name, idx := range b.indexes {
		if err := idx.Close(); err != nil {
			return fmt.Errorf("close index %s: %w", name, err)
		}
		delete(b.indexes, name)
	}

	if b.path == "" {
		return nil
	}

	entries, err := os.ReadDir(b.path)
	if err != nil {
		return fmt.Errorf("read index root: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := os.RemoveAll(filepath.Join(b.path, e.Name())); err != nil {
			return fmt.Errorf("remove index %s: %w", e.Name(), err)
		}
	}
	return nil
}

// Close releases every open index handle.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for name, idx := range b.indexes {
		if err := idx.Close(); err != nil {
			return fmt.Errorf("close index %s: %w", name, err)
		}
		delete(b.indexes, name)
	}
	return nil
}

// open returns the handle for an existing index, opening it from disk on demand.
func (b *BleveIndex) open(name string) (bleve.Index, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if idx, ok := b.indexes[name]; ok {
		return idx, nil
	}
	if b.path == "" {
		return nil, ErrIndexNotFound
	}

	idx, err := bleve.Open(filepath.Join(b.path, name))
	if err == bleve.ErrorIndexPathDoesNotExist {
		return nil, ErrIndexNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", name, err)
	}
	b.indexes[name] = idx
	return idx, nil
}
