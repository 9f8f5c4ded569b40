// Package chi is the HTTP transport: REST routes per collection and
// record over the record store.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/elephant/internal/domain"
	"github.com/kailas-cloud/elephant/internal/search"
	"github.com/kailas-cloud/elephant/internal/store"
)

// reservedQueryParams are never forwarded to the search engine.
var reservedQueryParams = map[string]bool{"q": true, "sort": true, "size": true, "key": true}

// Server handles the collection/record REST API.
type Server struct {
	store       *store.Store
	logger      *zap.Logger
	defaultSize int
	maxSize     int
}

// NewServer creates the HTTP API server. defaultSize applies to search
// requests without a size parameter; maxSize caps explicit ones.
func NewServer(st *store.Store, defaultSize, maxSize int, logger *zap.Logger) *Server {
	if defaultSize <= 0 {
		defaultSize = 10
	}
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &Server{store: st, logger: logger, defaultSize: defaultSize, maxSize: maxSize}
}

// Routes registers every handler on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/{collection}/", s.searchCollection)
	r.Post("/{collection}/", s.createRecord)
	r.Put("/{collection}/", s.createRecord)
	r.Get("/{collection}/{id}", s.getRecord)
	r.Post("/{collection}/{id}", s.replaceRecord)
	r.Put("/{collection}/{id}", s.updateRecord)
	r.Delete("/{collection}/{id}", s.deleteRecord)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// searchCollection handles GET /{collection}/.
// Query params: q (free text), sort, size; anything else is passed
// through to the engine as-is.
func (s *Server) searchCollection(w http.ResponseWriter, r *http.Request) {
	c := s.store.Collection(chi.URLParam(r, "collection"))

	req := store.SearchRequest{
		Query: r.URL.Query().Get("q"),
		Sort:  r.URL.Query().Get("sort"),
		Size:  s.defaultSize,
	}
	if sizeStr := r.URL.Query().Get("size"); sizeStr != "" {
		size, err := strconv.Atoi(sizeStr)
		if err != nil || size < 0 {
			writeError(w, http.StatusBadRequest, codeBadRequest, "size must be a non-negative integer")
			return
		}
		if size > s.maxSize {
			size = s.maxSize
		}
		req.Size = size
	}
	for k, vs := range r.URL.Query() {
		if reservedQueryParams[k] || len(vs) == 0 {
			continue
		}
		if req.Params == nil {
			req.Params = make(map[string]string)
		}
		req.Params[k] = vs[0]
	}

	records, err := c.Search(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	docs := make([]map[string]any, len(records))
	for i, rec := range records {
		docs[i] = rec.Map()
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": docs})
}

// createRecord handles POST|PUT /{collection}/: ensure the index, then
// create and save a new record from the request body.
func (s *Server) createRecord(w http.ResponseWriter, r *http.Request) {
	c := s.store.Collection(chi.URLParam(r, "collection"))

	data, ok := decodeBody(w, r)
	if !ok {
		return
	}

	if err := c.EnsureIndex(r.Context()); err != nil {
		s.handleError(w, r, err)
		return
	}

	rec := c.NewRecord()
	rec.SetData(data)
	if err := rec.Save(r.Context()); err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"record": rec.Map()})
}

// getRecord handles GET /{collection}/{id}.
func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.fetchRecord(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"record": rec.Map()})
}

// replaceRecord handles POST /{collection}/{id}: the body replaces the
// whole payload.
func (s *Server) replaceRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.fetchRecord(w, r)
	if !ok {
		return
	}
	data, ok := decodeBody(w, r)
	if !ok {
		return
	}

	rec.SetData(data)
	if err := rec.Save(r.Context()); err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"record": rec.Map()})
}

// updateRecord handles PUT /{collection}/{id}: the body is merged into
// the existing payload (partial update).
func (s *Server) updateRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.fetchRecord(w, r)
	if !ok {
		return
	}
	data, ok := decodeBody(w, r)
	if !ok {
		return
	}

	rec.MergeData(data)
	if err := rec.Save(r.Context()); err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"record": rec.Map()})
}

// deleteRecord handles DELETE /{collection}/{id}.
func (s *Server) deleteRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.fetchRecord(w, r)
	if !ok {
		return
	}
	if err := rec.Delete(r.Context()); err != nil {
		s.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fetchRecord loads the addressed record, writing a 404 on a miss.
func (s *Server) fetchRecord(w http.ResponseWriter, r *http.Request) (*store.Record, bool) {
	c := s.store.Collection(chi.URLParam(r, "collection"))
	rec, err := c.Record(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, r, err)
		return nil, false
	}
	return rec, true
}

// decodeBody parses the JSON request body into a payload map.
func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return nil, false
	}
	return data, true
}

// handleError maps store errors onto HTTP responses.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, search.ErrIndexNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	case errors.Is(err, domain.ErrReservedField):
		writeError(w, http.StatusBadRequest, codeReservedField, err.Error())
	case errors.Is(err, domain.ErrInvalidKey), errors.Is(err, domain.ErrNoCollection):
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
	default:
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
	}
}
