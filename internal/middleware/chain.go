package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the middleware stack.
type Options struct {
	Logger       zerolog.Logger
	RateLimiter  *RateLimiter
	APIKey       string
	AllowOrigin  string
	MaxBodyBytes int64
	Timeout      time.Duration
	Paths        []string
}

// Chain wraps the handler with the full middleware stack.
// Order: CORS → RequestID → Logging → Metrics → RateLimit → APIKey → MaxBytes → Timeout → mux
func Chain(handler http.Handler, opts Options) http.Handler {
	h := handler
	if opts.Timeout > 0 {
		h = http.TimeoutHandler(h, opts.Timeout, `{"error":"request timeout"}`)
	}
	if opts.MaxBodyBytes > 0 {
		h = MaxBytes(opts.MaxBodyBytes)(h)
	}
	h = APIKey(opts.APIKey)(h)
	if opts.RateLimiter != nil {
		h = RateLimit(opts.RateLimiter)(h)
	}
	h = Metrics(opts.Paths...)(h)
	h = Logging(opts.Logger)(h)
	h = RequestID(h)
	h = CORS(opts.AllowOrigin)(h)
	return h
}
