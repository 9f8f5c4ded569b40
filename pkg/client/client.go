// Package client is a small Go client for the elephant HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ErrNotFound signals a missing collection or record.
var ErrNotFound = errors.New("elephant: not found")

// Record is one document as returned by the API.
type Record struct {
	ID    string
	Epoch int64
	Data  map[string]any
}

// Client talks to an elephant server.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the shared API key, sent as the X-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SearchOptions carries the query hints for Search.
type SearchOptions struct {
	Query string
	Sort  string
	Size  int
}

// Create saves a new record with the given payload and returns it with
// its generated id and epoch.
func (c *Client) Create(ctx context.Context, collection string, data map[string]any) (Record, error) {
	return c.writeRecord(ctx, http.MethodPost, c.collectionPath(collection), data)
}

// Get fetches a record by id.
func (c *Client) Get(ctx context.Context, collection, id string) (Record, error) {
	var out recordEnvelope
	if err := c.do(ctx, http.MethodGet, c.recordPath(collection, id), nil, &out); err != nil {
		return Record{}, err
	}
	return recordFromDoc(out.Record), nil
}

// Replace overwrites a record's payload entirely.
func (c *Client) Replace(ctx context.Context, collection, id string, data map[string]any) (Record, error) {
	return c.writeRecord(ctx, http.MethodPost, c.recordPath(collection, id), data)
}

// Update merges fields into a record's payload (partial update).
func (c *Client) Update(ctx context.Context, collection, id string, data map[string]any) (Record, error) {
	return c.writeRecord(ctx, http.MethodPut, c.recordPath(collection, id), data)
}

// Delete removes a record.
func (c *Client) Delete(ctx context.Context, collection, id string) error {
	return c.do(ctx, http.MethodDelete, c.recordPath(collection, id), nil, nil)
}

// Search queries a collection, newest-first by default.
func (c *Client) Search(ctx context.Context, collection string, opts SearchOptions) ([]Record, error) {
	q := url.Values{}
	if opts.Query != "" {
		q.Set("q", opts.Query)
	}
	if opts.Sort != "" {
		q.Set("sort", opts.Sort)
	}
	if opts.Size > 0 {
		q.Set("size", strconv.Itoa(opts.Size))
	}

	path := c.collectionPath(collection)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out struct {
		Records []map[string]any `json:"records"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	records := make([]Record, len(out.Records))
	for i, doc := range out.Records {
		records[i] = recordFromDoc(doc)
	}
	return records, nil
}

type recordEnvelope struct {
	Record map[string]any `json:"record"`
}

func (c *Client) writeRecord(ctx context.Context, method, path string, data map[string]any) (Record, error) {
	var out recordEnvelope
	if err := c.do(ctx, method, path, data, &out); err != nil {
		return Record{}, err
	}
	return recordFromDoc(out.Record), nil
}

func (c *Client) collectionPath(collection string) string {
	return c.baseURL + "/" + url.PathEscape(collection) + "/"
}

func (c *Client) recordPath(collection, id string) string {
	return c.baseURL + "/" + url.PathEscape(collection) + "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, rawURL string, body, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("elephant: marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return fmt.Errorf("elephant: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("elephant: %s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Message != "" {
			return fmt.Errorf("elephant: %s (%s)", apiErr.Message, apiErr.Code)
		}
		return fmt.Errorf("elephant: unexpected status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("elephant: decode response: %w", err)
	}
	return nil
}

// recordFromDoc splits the serialized form {...payload, id, epoch} back
// into a Record.
func recordFromDoc(doc map[string]any) Record {
	r := Record{Data: make(map[string]any, len(doc))}
	for k, v := range doc {
		switch k {
		case "id", "uuid":
			if s, ok := v.(string); ok && r.ID == "" {
				r.ID = s
			}
		case "epoch":
			if f, ok := v.(float64); ok {
				r.Epoch = int64(f)
			}
		default:
			r.Data[k] = v
		}
	}
	return r
}
