package blob

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemStore stores blobs as files under a root directory. A key
// {collection}/{id} maps to <root>/<collection>/<id>.json; the extra
// extension keeps record files distinguishable from stray directories
// when walking.
type FilesystemStore struct {
	root string
}

var _ Store = (*FilesystemStore)(nil)

const blobExt = ".json"

// NewFilesystemStore creates a filesystem blob store rooted at root,
// creating the directory if needed.
func NewFilesystemStore(root string) (*FilesystemStore, error) {
	if root == "" {
		return nil, fmt.Errorf("filesystem blob store requires a root directory")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root %s: %w", root, err)
	}
	return &FilesystemStore{root: root}, nil
}

// Put writes data to the file backing key.
func (f *FilesystemStore) Put(_ context.Context, key string, data []byte, _ string) error {
	path, err := f.keyPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create blob directory for %s: %w", key, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write blob %s: %w", key, err)
	}
	return nil
}

// Get reads the file backing key.
func (f *FilesystemStore) Get(_ context.Context, key string) ([]byte, error) {
	path, err := f.keyPath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("read blob %s: %w", key, err)
	}
	return data, nil
}

// Delete removes the file backing key. Idempotent.
func (f *FilesystemStore) Delete(_ context.Context, key string) error {
	path, err := f.keyPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	return nil
}

// ListKeys walks the root directory and returns every blob key.
func (f *FilesystemStore) ListKeys(_ context.Context) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(f.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, blobExt) {
			return nil
		}
		rel, err := filepath.Rel(f.root, path)
		if err != nil {
			return err
		}
		key := strings.TrimSuffix(filepath.ToSlash(rel), blobExt)
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk blob root: %w", err)
	}
	return keys, nil
}

// keyPath maps a blob key onto a path under root, rejecting keys that
// would escape it.
func (f *FilesystemStore) keyPath(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return "", fmt.Errorf("unsafe blob key %q", key)
	}
	return filepath.Join(f.root, filepath.FromSlash(key)+blobExt), nil
}
