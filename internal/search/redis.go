package search

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/rueidis"
)

// keyPrefix namespaces every key and index this driver touches.
const keyPrefix = "elephant:"

// RedisConfig holds connection parameters for the redis search driver.
type RedisConfig struct {
	Addrs    []string
	Username string
	Password string
}

// RedisIndex implements Index on RediSearch (Redis 8+) via rueidis.
// Each collection gets one FT index over hash documents holding the
// record's flattened text and its epoch for sorting.
type RedisIndex struct {
	client rueidis.Client
}

var _ Index = (*RedisIndex)(nil)

// NewRedisIndex connects to Redis and verifies connectivity.
func NewRedisIndex(ctx context.Context, cfg RedisConfig) (*RedisIndex, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("redis search driver requires addrs")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH result parsing expects RESP2 array format
	})
	if err != nil {
		return nil, fmt.Errorf("create redis client: %w", err)
	}

	r := &RedisIndex{client: client}
	if err := r.ping(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return r, nil
}

func (r *RedisIndex) ping(ctx context.Context) error {
	cmd := r.client.B().Ping().Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (r *RedisIndex) Close() error {
	r.client.Close()
	return nil
}

func indexName(collection string) string {
	return keyPrefix + collection + ":idx"
}

func docKeyPrefix(collection string) string {
	return keyPrefix + collection + ":doc:"
}

// CreateIndex issues FT.CREATE for a collection's index.
func (r *RedisIndex) CreateIndex(ctx context.Context, name string) error {
	cmd := r.client.B().Arbitrary("FT.CREATE").Args(
		indexName(name),
		"ON", "HASH",
		"PREFIX", "1", docKeyPrefix(name),
		"SCHEMA",
		"__text", "TEXT",
		"epoch", "NUMERIC", "SORTABLE",
	).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return ErrIndexExists
		}
		return fmt.Errorf("ft.create %s: %w", name, err)
	}
	return nil
}

// IndexDocument writes the record's searchable projection as a hash.
func (r *RedisIndex) IndexDocument(ctx context.Context, index, id string, doc map[string]any) error {
	epoch := int64(0)
	if v, ok := doc["epoch"]; ok {
		epoch = toInt64(v)
	}

	cmd := r.client.B().Hset().Key(docKeyPrefix(index)+id).FieldValue().
		FieldValue("__text", flattenText(doc)).
		FieldValue("epoch", strconv.FormatInt(epoch, 10)).
		Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("hset %s/%s: %w", index, id, err)
	}
	return nil
}

// DeleteDocument drops the hash backing one indexed record.
func (r *RedisIndex) DeleteDocument(ctx context.Context, index, id string) error {
	cmd := r.client.B().Del().Key(docKeyPrefix(index) + id).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("del %s/%s: %w", index, id, err)
	}
	return nil
}

// Query runs FT.SEARCH against a collection's index.
func (r *RedisIndex) Query(ctx context.Context, index string, q Query) ([]Hit, error) {
	text := q.Text
	if text == "" {
		text = "*"
	}
	size := q.Size
	if size <= 0 {
		size = DefaultSize
	}
	from := 0
	if fromStr, ok := q.Params["from"]; ok {
		if n, err := strconv.Atoi(fromStr); err == nil && n > 0 {
			from = n
		}
	}

	args := []string{indexName(index), text, "NOCONTENT"}
	if q.Sort != "" {
		field, order := strings.TrimPrefix(q.Sort, "-"), "ASC"
		if strings.HasPrefix(q.Sort, "-") {
			order = "DESC"
		}
		args = append(args, "SORTBY", field, order)
	}
	args = append(args, "LIMIT", strconv.Itoa(from), strconv.Itoa(size))

	cmd := r.client.B().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := r.client.Do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "no such index") || isRedisErr(err, "unknown index") {
			return nil, ErrIndexNotFound
		}
		return nil, fmt.Errorf("ft.search %s: %w", index, err)
	}

	// NOCONTENT format: [total, key1, key2, ...]
	if len(raw) == 0 {
		return nil, nil
	}
	hits := make([]Hit, 0, len(raw)-1)
	prefix := docKeyPrefix(index)
	for _, msg := range raw[1:] {
		key, err := msg.ToString()
		if err != nil {
			continue
		}
		hits = append(hits, Hit{ID: strings.TrimPrefix(key, prefix)})
	}
	return hits, nil
}

// DeleteAllIndexes drops every elephant index together with its documents.
func (r *RedisIndex) DeleteAllIndexes(ctx context.Context) error {
	cmd := r.client.B().Arbitrary("FT._LIST").Build()
	raw, err := r.client.Do(ctx, cmd).ToArray()
	if err != nil {
		return fmt.Errorf("ft._list: %w", err)
	}

	for _, msg := range raw {
		name, err := msg.ToString()
		if err != nil {
			continue
		}
		if !strings.HasPrefix(name, keyPrefix) {
			continue
		}
		// DD also removes the indexed hashes, which are derived state.
		drop := r.client.B().Arbitrary("FT.DROPINDEX").Args(name, "DD").Build()
		if err := r.client.Do(ctx, drop).Error(); err != nil {
			if isRedisErr(err, "no such index") || isRedisErr(err, "unknown index") {
				continue
			}
			return fmt.Errorf("ft.dropindex %s: %w", name, err)
		}
	}
	return nil
}

// flattenText joins every scalar value in the document into a single
// searchable field, reserved keys excluded.
func flattenText(doc map[string]any) string {
	var parts []string
	collectText(doc, &parts)
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

func collectText(v any, parts *[]string) {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			if k == "id" || k == "uuid" || k == "epoch" {
				continue
			}
			collectText(item, parts)
		}
	case []any:
		for _, item := range val {
			collectText(item, parts)
		}
	case string:
		if val != "" {
			*parts = append(*parts, val)
		}
	case bool:
		*parts = append(*parts, strconv.FormatBool(val))
	case float64:
		*parts = append(*parts, strconv.FormatFloat(val, 'g', -1, 64))
	case int64:
		*parts = append(*parts, strconv.FormatInt(val, 10))
	case int:
		*parts = append(*parts, strconv.Itoa(val))
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

// isRedisErr checks if err is a Redis server error containing substr (case-insensitive).
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}
