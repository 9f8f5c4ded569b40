package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/elephant/internal/blob"
	"github.com/kailas-cloud/elephant/internal/domain"
	"github.com/kailas-cloud/elephant/internal/logger"
	"github.com/kailas-cloud/elephant/internal/metrics"
)

// reservedKeys are serialization keys that must not appear in a record's
// payload: they would be overwritten on load.
var reservedKeys = map[string]bool{"id": true, "uuid": true, "epoch": true}

// Record is a single document: identity, payload and last-modified
// epoch, durably persisted as a blob and mirrored into a search index.
type Record struct {
	ID         string
	Collection string
	Epoch      int64
	Data       map[string]any

	store *Store
}

// envelope is the blob body wrapper: {"record": {...payload, id, epoch}}.
type envelope struct {
	Record map[string]any `json:"record"`
}

// nowEpoch returns the current time in integer milliseconds since the Unix epoch.
func nowEpoch() int64 {
	return time.Now().UnixMilli()
}

// newRecord allocates an identifier and an empty payload.
func newRecord(s *Store) *Record {
	return &Record{
		ID:    uuid.NewString(),
		Epoch: nowEpoch(),
		Data:  make(map[string]any),
		store: s,
	}
}

// Get returns a payload value.
func (r *Record) Get(key string) any {
	return r.Data[key]
}

// Set assigns a payload value. Values are not validated.
func (r *Record) Set(key string, value any) {
	r.Data[key] = value
}

// SetData replaces the whole payload.
func (r *Record) SetData(data map[string]any) {
	if data == nil {
		data = make(map[string]any)
	}
	r.Data = data
}

// MergeData merges fields into the existing payload (partial update).
func (r *Record) MergeData(data map[string]any) {
	for k, v := range data {
		r.Data[k] = v
	}
}

// Key returns the blob store key {collection}/{id}.
func (r *Record) Key() string {
	return r.Collection + "/" + r.ID
}

// Map returns the payload merged with id and epoch. This is both the
// indexed document and the serialized form.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, len(r.Data)+2)
	for k, v := range r.Data {
		m[k] = v
	}
	m["id"] = r.ID
	m["epoch"] = r.Epoch
	return m
}

// Save refreshes the epoch and performs the dual write: blob store
// first, search index second. A blob failure aborts before any index
// call. An index failure after a successful durable write is returned
// as an error; the blob copy is kept and the record becomes searchable
// again on the next seed.
func (r *Record) Save(ctx context.Context) error {
	if r.Collection == "" {
		return domain.ErrNoCollection
	}
	if err := validatePayload(r.Data); err != nil {
		return err
	}

	r.Epoch = nowEpoch()

	body, err := json.Marshal(envelope{Record: r.Map()})
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", r.Key(), err)
	}

	if err := r.store.blobs.Put(ctx, r.Key(), body, blob.ContentTypeJSON); err != nil {
		return fmt.Errorf("persist record %s: %w", r.Key(), err)
	}
	metrics.RecordSavesTotal.Inc()

	if err := r.store.index.IndexDocument(ctx, r.Collection, r.ID, r.Map()); err != nil {
		metrics.IndexWriteFailuresTotal.Inc()
		logger.FromContext(ctx).Warn("record stored but not indexed; seed will restore searchability",
			zap.String("key", r.Key()),
			zap.Error(err),
		)
		return fmt.Errorf("index record %s: %w", r.Key(), err)
	}
	return nil
}

// Delete removes the record from the index and the blob store. Both
// removals are terminal, so there is no ordering requirement.
func (r *Record) Delete(ctx context.Context) error {
	if r.Collection == "" {
		return domain.ErrNoCollection
	}

	if err := r.store.index.DeleteDocument(ctx, r.Collection, r.ID); err != nil {
		return fmt.Errorf("unindex record %s: %w", r.Key(), err)
	}
	if err := r.store.blobs.Delete(ctx, r.Key()); err != nil {
		return fmt.Errorf("delete record %s: %w", r.Key(), err)
	}
	metrics.RecordDeletesTotal.Inc()
	return nil
}

// validatePayload rejects payload fields that collide with reserved
// serialization keys.
func validatePayload(data map[string]any) error {
	for k := range data {
		if reservedKeys[k] {
			return fmt.Errorf("payload key %q: %w", k, domain.ErrReservedField)
		}
	}
	return nil
}

// splitKey parses a combined identifier {collection}/{id}.
func splitKey(key string) (collection, id string, err error) {
	collection, id, ok := strings.Cut(key, "/")
	if !ok || collection == "" || id == "" {
		return "", "", fmt.Errorf("key %q: %w", key, domain.ErrInvalidKey)
	}
	return collection, id, nil
}

// decodeRecord parses a blob body back into identity, epoch and payload.
// Reserved keys are stripped from the payload; uuid is accepted as a
// legacy alias for id.
func decodeRecord(data []byte) (id string, epoch int64, payload map[string]any, err error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", 0, nil, fmt.Errorf("unmarshal record: %w", err)
	}
	doc := env.Record
	if doc == nil {
		return "", 0, nil, fmt.Errorf("unmarshal record: missing record envelope")
	}

	if v, ok := doc["id"].(string); ok {
		id = v
	} else if v, ok := doc["uuid"].(string); ok {
		id = v
	}
	if v, ok := doc["epoch"].(float64); ok {
		epoch = int64(v)
	}

	payload = make(map[string]any, len(doc))
	for k, v := range doc {
		if reservedKeys[k] {
			continue
		}
		payload[k] = v
	}
	return id, epoch, payload, nil
}
