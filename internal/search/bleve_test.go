package search

import (
	"context"
	"errors"
	"testing"
)

func newMemIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex("")
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestBleve_CreateIndexTwice(t *testing.T) {
	ctx := context.Background()
	idx := newMemIndex(t)

	if err := idx.CreateIndex(ctx, "widgets"); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if err := idx.CreateIndex(ctx, "widgets"); !errors.Is(err, ErrIndexExists) {
		t.Errorf("second CreateIndex: err = %v, want ErrIndexExists", err)
	}
}

func TestBleve_QueryMissingIndex(t *testing.T) {
	idx := newMemIndex(t)
	if _, err := idx.Query(context.Background(), "ghosts", Query{}); !errors.Is(err, ErrIndexNotFound) {
		t.Errorf("err = %v, want ErrIndexNotFound", err)
	}
}

func TestBleve_MatchAllSortedByEpoch(t *testing.T) {
	ctx := context.Background()
	idx := newMemIndex(t)
	if err := idx.CreateIndex(ctx, "widgets"); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}

	docs := []struct {
		id    string
		epoch int64
	}{
		{"a", 100},
		{"b", 300},
		{"c", 200},
	}
	for _, d := range docs {
		doc := map[string]any{"id": d.id, "epoch": d.epoch, "name": "thing"}
		if err := idx.IndexDocument(ctx, "widgets", d.id, doc); err != nil {
			t.Fatalf("IndexDocument %s: %v", d.id, err)
		}
	}

	hits, err := idx.Query(ctx, "widgets", Query{Sort: "-epoch"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	want := []string{"b", "c", "a"}
	if len(hits) != len(want) {
		t.Fatalf("got %d hits, want %d", len(hits), len(want))
	}
	for i, w := range want {
		if hits[i].ID != w {
			t.Errorf("hits[%d].ID = %s, want %s", i, hits[i].ID, w)
		}
	}
}

func TestBleve_TextQuery(t *testing.T) {
	ctx := context.Background()
	idx := newMemIndex(t)
	if err := idx.CreateIndex(ctx, "widgets"); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}

	if err := idx.IndexDocument(ctx, "widgets", "a", map[string]any{"color": "crimson", "epoch": int64(1)}); err != nil {
		t.Fatalf("IndexDocument: %v", err)
	}
	if err := idx.IndexDocument(ctx, "widgets", "b", map[string]any{"color": "blue", "epoch": int64(2)}); err != nil {
		t.Fatalf("IndexDocument: %v", err)
	}

	hits, err := idx.Query(ctx, "widgets", Query{Text: "crimson"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "a" {
		t.Errorf("hits = %v, want single hit a", hits)
	}
}

func TestBleve_SizeAndFrom(t *testing.T) {
	ctx := context.Background()
	idx := newMemIndex(t)
	if err := idx.CreateIndex(ctx, "widgets"); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	ids := []string{"a", "b", "c", "d"}
	for i, id := range ids {
		doc := map[string]any{"id": id, "epoch": int64(i)}
		if err := idx.IndexDocument(ctx, "widgets", id, doc); err != nil {
			t.Fatalf("IndexDocument: %v", err)
		}
	}

	hits, err := idx.Query(ctx, "widgets", Query{Sort: "epoch", Size: 2, Params: map[string]string{"from": "1"}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 2 || hits[0].ID != "b" || hits[1].ID != "c" {
		t.Errorf("hits = %v, want [b c]", hits)
	}
}

func TestBleve_DeleteDocument(t *testing.T) {
	ctx := context.Background()
	idx := newMemIndex(t)
	if err := idx.CreateIndex(ctx, "widgets"); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if err := idx.IndexDocument(ctx, "widgets", "a", map[string]any{"epoch": int64(1)}); err != nil {
		t.Fatalf("IndexDocument: %v", err)
	}
	if err := idx.DeleteDocument(ctx, "widgets", "a"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}

	hits, err := idx.Query(ctx, "widgets", Query{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("got %d hits after delete, want 0", len(hits))
	}
}

func TestBleve_DeleteAllIndexes(t *testing.T) {
	ctx := context.Background()
	idx := newMemIndex(t)
	if err := idx.CreateIndex(ctx, "widgets"); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if err := idx.DeleteAllIndexes(ctx); err != nil {
		t.Fatalf("DeleteAllIndexes: %v", err)
	}
	if _, err := idx.Query(ctx, "widgets", Query{}); !errors.Is(err, ErrIndexNotFound) {
		t.Errorf("err = %v, want ErrIndexNotFound after purge", err)
	}
}

func TestBleve_OnDiskReopen(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	idx, err := NewBleveIndex(root)
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	if err := idx.CreateIndex(ctx, "widgets"); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if err := idx.IndexDocument(ctx, "widgets", "a", map[string]any{"name": "durable", "epoch": int64(1)}); err != nil {
		t.Fatalf("IndexDocument: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewBleveIndex(root)
	if err != nil {
		t.Fatalf("NewBleveIndex reopen: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })

	hits, err := reopened.Query(ctx, "widgets", Query{Text: "durable"})
	if err != nil {
		t.Fatalf("Query after reopen: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "a" {
		t.Errorf("hits = %v, want [a]", hits)
	}
}
