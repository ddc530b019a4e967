package handler

import (
	"net/http"

	"github.com/baaakgun4543/unlurk/internal/metrics"
)

type providerInfo struct {
	Backend    string `json:"backend"`
	Model      string `json:"model,omitempty"`
	Configured bool   `json:"configured"`
}

// Providers reports the backend the dispatcher resolved.
func Providers(gen Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		backend := gen.Backend()
		writeJSON(w, http.StatusOK, providerInfo{
			Backend:    metrics.BackendLabel(backend),
			Model:      gen.Model(),
			Configured: backend != "",
		})
	}
}
