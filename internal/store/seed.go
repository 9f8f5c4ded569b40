package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Seeder rebuilds the derived search state from the blob store. Seed is
// assumed to run exclusively: it re-indexes unconditionally from an
// enumerated snapshot of the key space.
type Seeder struct {
	store  *Store
	logger *zap.Logger
}

// NewSeeder creates a seeder over a record store.
func NewSeeder(s *Store, logger *zap.Logger) *Seeder {
	return &Seeder{store: s, logger: logger}
}

// Seed enumerates every blob key, ensures an index per collection, then
// reloads and re-indexes every record. Blobs are never rewritten.
// Returns the number of records indexed.
func (s *Seeder) Seed(ctx context.Context) (int, error) {
	keys, err := s.store.blobs.ListKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("list blob keys: %w", err)
	}

	collections := make(map[string]bool)
	for _, key := range keys {
		name, _, ok := strings.Cut(key, "/")
		if !ok || name == "" {
			s.logger.Warn("skipping blob key without collection prefix", zap.String("key", key))
			continue
		}
		collections[name] = true
	}

	names := make([]string, 0, len(collections))
	for name := range collections {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := s.store.Collection(name).EnsureIndex(ctx); err != nil {
			return 0, err
		}
		s.logger.Info("ensured index", zap.String("collection", name))
	}

	indexed := 0
	for _, key := range keys {
		if !strings.Contains(key, "/") {
			continue
		}
		r, err := s.store.Record(ctx, key)
		if err != nil {
			return indexed, fmt.Errorf("load %s: %w", key, err)
		}
		if err := s.store.index.IndexDocument(ctx, r.Collection, r.ID, r.Map()); err != nil {
			return indexed, fmt.Errorf("reindex %s: %w", key, err)
		}
		indexed++
	}

	s.logger.Info("seed complete",
		zap.Int("collections", len(names)),
		zap.Int("records", indexed),
	)
	return indexed, nil
}

// Purge drops every search index. The blob store is untouched; a
// subsequent Seed restores searchability.
func (s *Seeder) Purge(ctx context.Context) error {
	if err := s.store.index.DeleteAllIndexes(ctx); err != nil {
		return fmt.Errorf("delete all indexes: %w", err)
	}
	s.logger.Info("purged all search indexes")
	return nil
}
