package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func authHandler(apiKeys []string) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return KeyAuthMiddleware(apiKeys)(ok)
}

func TestKeyAuth_DisabledWhenNoKeys(t *testing.T) {
	h := authHandler(nil)
	req := httptest.NewRequest(http.MethodGet, "/widgets/", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestKeyAuth_RejectsMissingKey(t *testing.T) {
	h := authHandler([]string{"secret"})
	req := httptest.NewRequest(http.MethodGet, "/widgets/", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestKeyAuth_AcceptedCredentials(t *testing.T) {
	h := authHandler([]string{"secret"})

	tests := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{name: "query param", setup: func(r *http.Request) {
			q := r.URL.Query()
			q.Set("key", "secret")
			r.URL.RawQuery = q.Encode()
		}},
		{name: "x-key header", setup: func(r *http.Request) {
			r.Header.Set("X-Key", "secret")
		}},
		{name: "basic auth password", setup: func(r *http.Request) {
			r.SetBasicAuth("anyone", "secret")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/widgets/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
		})
	}
}

func TestKeyAuth_RejectsWrongKey(t *testing.T) {
	h := authHandler([]string{"secret"})

	req := httptest.NewRequest(http.MethodGet, "/widgets/?key=wrong", nil)
	req.Header.Set("X-Key", "also-wrong")
	req.SetBasicAuth("anyone", "still-wrong")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestKeyAuth_ExemptPaths(t *testing.T) {
	h := authHandler([]string{"secret"})

	for _, path := range []string{"/healthz", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, rec.Code)
		}
	}
}
