package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

// APIKey returns middleware that requires a valid X-API-Key header.
// If expectedKey is empty, the middleware is a no-op.
func APIKey(expectedKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if expectedKey == "" || exempt(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get("X-API-Key")
			if provided == "" {
				writeError(w, http.StatusUnauthorized, "missing API key")
				return
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(expectedKey)) != 1 {
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// exempt reports whether path is reachable without credentials or quota, so
// monitoring keeps working.
func exempt(path string) bool {
	return path == "/api/health" || path == "/metrics"
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
