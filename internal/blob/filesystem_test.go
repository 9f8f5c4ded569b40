package blob

import (
	"context"
	"errors"
	"testing"
)

func newFSStore(t *testing.T) *FilesystemStore {
	t.Helper()
	s, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemStore: %v", err)
	}
	return s
}

func TestFilesystem_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newFSStore(t)

	if err := s.Put(ctx, "widgets/a", []byte("payload"), ContentTypeJSON); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "widgets/a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("Get = %s", got)
	}

	if err := s.Delete(ctx, "widgets/a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "widgets/a"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("err = %v, want ErrKeyNotFound", err)
	}
}

func TestFilesystem_DeleteMissingIsIdempotent(t *testing.T) {
	s := newFSStore(t)
	if err := s.Delete(context.Background(), "widgets/never"); err != nil {
		t.Errorf("Delete missing key: %v", err)
	}
}

func TestFilesystem_ListKeys(t *testing.T) {
	ctx := context.Background()
	s := newFSStore(t)
	for _, key := range []string{"widgets/a", "widgets/b", "gadgets/x"} {
		if err := s.Put(ctx, key, []byte("x"), ContentTypeJSON); err != nil {
			t.Fatalf("Put %s: %v", key, err)
		}
	}

	keys, err := s.ListKeys(ctx)
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	got := make(map[string]bool, len(keys))
	for _, k := range keys {
		got[k] = true
	}
	for _, want := range []string{"widgets/a", "widgets/b", "gadgets/x"} {
		if !got[want] {
			t.Errorf("ListKeys missing %s (got %v)", want, keys)
		}
	}
	if len(keys) != 3 {
		t.Errorf("got %d keys, want 3", len(keys))
	}
}

func TestFilesystem_RejectsUnsafeKeys(t *testing.T) {
	ctx := context.Background()
	s := newFSStore(t)

	for _, key := range []string{"", "/abs", "../escape", "widgets/../../etc"} {
		if err := s.Put(ctx, key, []byte("x"), ContentTypeJSON); err == nil {
			t.Errorf("Put(%q) accepted an unsafe key", key)
		}
		if _, err := s.Get(ctx, key); err == nil {
			t.Errorf("Get(%q) accepted an unsafe key", key)
		}
	}
}
