package store

import (
	"context"
	"testing"

	"github.com/kailas-cloud/elephant/internal/blob"
	"github.com/kailas-cloud/elephant/internal/search"
)

// mockBlobStore implements the BlobStore consumer interface for tests.
type mockBlobStore struct {
	putFn      func(ctx context.Context, key string, data []byte, contentType string) error
	getFn      func(ctx context.Context, key string) ([]byte, error)
	deleteFn   func(ctx context.Context, key string) error
	listKeysFn func(ctx context.Context) ([]string, error)
}

func (m *mockBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if m.putFn != nil {
		return m.putFn(ctx, key, data, contentType)
	}
	return nil
}

func (m *mockBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, blob.ErrKeyNotFound
}

func (m *mockBlobStore) Delete(ctx context.Context, key string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, key)
	}
	return nil
}

func (m *mockBlobStore) ListKeys(ctx context.Context) ([]string, error) {
	if m.listKeysFn != nil {
		return m.listKeysFn(ctx)
	}
	return nil, nil
}

// mockIndex implements the SearchIndex consumer interface for tests.
type mockIndex struct {
	createIndexFn      func(ctx context.Context, name string) error
	indexDocumentFn    func(ctx context.Context, index, id string, doc map[string]any) error
	deleteDocumentFn   func(ctx context.Context, index, id string) error
	queryFn            func(ctx context.Context, index string, q search.Query) ([]search.Hit, error)
	deleteAllIndexesFn func(ctx context.Context) error
}

func (m *mockIndex) CreateIndex(ctx context.Context, name string) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, name)
	}
	return nil
}

func (m *mockIndex) IndexDocument(ctx context.Context, index, id string, doc map[string]any) error {
	if m.indexDocumentFn != nil {
		return m.indexDocumentFn(ctx, index, id, doc)
	}
	return nil
}

func (m *mockIndex) DeleteDocument(ctx context.Context, index, id string) error {
	if m.deleteDocumentFn != nil {
		return m.deleteDocumentFn(ctx, index, id)
	}
	return nil
}

func (m *mockIndex) Query(ctx context.Context, index string, q search.Query) ([]search.Hit, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, index, q)
	}
	return nil, nil
}

func (m *mockIndex) DeleteAllIndexes(ctx context.Context) error {
	if m.deleteAllIndexesFn != nil {
		return m.deleteAllIndexesFn(ctx)
	}
	return nil
}

// newMemStore wires a store over the in-memory blob adapter and a
// memory-only bleve index, good enough to exercise full round trips.
func newMemStore(t *testing.T) *Store {
	t.Helper()
	idx, err := search.NewBleveIndex("")
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return New(blob.NewMemoryStore(), idx)
}
