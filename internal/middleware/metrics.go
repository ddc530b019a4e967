package middleware

import (
	"net/http"
	"strconv"

	"github.com/baaakgun4543/unlurk/internal/metrics"
)

// Metrics records request count by method, path, and status code. Paths
// outside known are folded into "other" to bound label cardinality.
func Metrics(known ...string) func(http.Handler) http.Handler {
	paths := make(map[string]bool, len(known))
	for _, p := range known {
		paths[p] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			path := r.URL.Path
			if len(paths) > 0 && !paths[path] {
				path = "other"
			}
			metrics.RequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(sw.status)).Inc()
		})
	}
}
