package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/baaakgun4543/unlurk/internal/provider"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Hint  string `json:"hint,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

// writeProviderError maps a generation failure to an HTTP status.
func writeProviderError(w http.ResponseWriter, err error) {
	kind := errorKind(err)
	resp := errorResponse{Error: err.Error(), Kind: string(kind)}

	var perr *provider.Error
	if errors.As(err, &perr) {
		resp.Hint = perr.Hint
	}
	writeJSON(w, statusFor(kind), resp)
}

// errorKind is the kind reported to callers. Errors from a custom generate
// function carry none and count as backend errors.
func errorKind(err error) provider.ErrorKind {
	if k := provider.KindOf(err); k != "" {
		return k
	}
	return provider.KindBackendError
}

func statusFor(kind provider.ErrorKind) int {
	switch kind {
	case provider.KindNotConfigured:
		return http.StatusServiceUnavailable
	case provider.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}

// decodeBody decodes a JSON request body into v, writing the error response
// itself when it fails.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
