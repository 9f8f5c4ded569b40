package chi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/elephant/internal/blob"
	"github.com/kailas-cloud/elephant/internal/search"
	"github.com/kailas-cloud/elephant/internal/store"
)

// newTestServer wires the full HTTP API over an in-memory blob store
// and memory-only bleve indexes.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	idx, err := search.NewBleveIndex("")
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })

	st := store.New(blob.NewMemoryStore(), idx)
	srv := NewServer(st, 10, 1000, zap.NewNop())

	r := chi.NewRouter()
	srv.Routes(r)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

// doJSON issues a request with an optional JSON body and decodes the
// JSON response, if any.
func doJSON(t *testing.T, method, url string, body map[string]any) (int, map[string]any) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if len(raw) == 0 {
		return resp.StatusCode, nil
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal response %q: %v", raw, err)
	}
	return resp.StatusCode, out
}

// record extracts the "record" envelope from a response body.
func record(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	rec, ok := body["record"].(map[string]any)
	if !ok {
		t.Fatalf("response has no record envelope: %v", body)
	}
	return rec
}
