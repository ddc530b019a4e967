package handler

import (
	"encoding/json"
	"net/http"

	"github.com/baaakgun4543/unlurk/internal/prompt"
)

type promptRequest struct {
	Template string          `json:"template"`
	Context  json.RawMessage `json:"context"`
}

type promptResponse struct {
	Prompt string `json:"prompt"`
}

// Prompt returns the system prompt a draft request would send, without
// calling a backend.
func Prompt(defaultTemplate string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req promptRequest
		if !decodeBody(w, r, &req) {
			return
		}
		c, ok := readContext(w, req.Context)
		if !ok {
			return
		}

		tmpl := req.Template
		if tmpl == "" {
			tmpl = defaultTemplate
		}
		writeJSON(w, http.StatusOK, promptResponse{Prompt: prompt.Build(c, tmpl)})
	}
}
