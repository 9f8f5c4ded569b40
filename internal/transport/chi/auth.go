package chi

import "net/http"

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/healthz": {},
	"/metrics": {},
}

// KeyAuthMiddleware returns a middleware that validates the shared API
// key. The key is accepted as a "key" query parameter, an X-Key header,
// or the password of HTTP basic auth. If apiKeys is empty,
// authentication is disabled (pass-through).
func KeyAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	validKeys := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			validKeys[k] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		// Auth disabled, pass everything through
		if len(validKeys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			if _, ok := validKeys[r.URL.Query().Get("key")]; ok {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := validKeys[r.Header.Get("X-Key")]; ok {
				next.ServeHTTP(w, r)
				return
			}
			if _, password, ok := r.BasicAuth(); ok {
				if _, valid := validKeys[password]; valid {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeError(w, http.StatusForbidden, codeForbidden, "invalid api key")
		})
	}
}
