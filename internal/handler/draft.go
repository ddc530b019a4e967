package handler

import (
	"encoding/json"
	"net/http"

	"github.com/baaakgun4543/unlurk/internal/events"
	"github.com/baaakgun4543/unlurk/internal/metrics"
	"github.com/baaakgun4543/unlurk/internal/middleware"
	"github.com/baaakgun4543/unlurk/internal/prompt"
	"github.com/baaakgun4543/unlurk/internal/provider"
)

type draftRequest struct {
	Hint     string          `json:"hint"`
	Template string          `json:"template"`
	Context  json.RawMessage `json:"context"`
}

type draftResponse struct {
	Draft     string `json:"draft"`
	Backend   string `json:"backend"`
	Model     string `json:"model"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

// Draft generates one draft post. A template in the request overrides
// defaultTemplate.
func Draft(gen Generator, defaultTemplate string, em Emitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req draftRequest
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

		requestID := middleware.RequestIDFromContext(r.Context())
		d, err := gen.Draft(r.Context(), provider.Request{Hint: req.Hint, Template: tmpl, Context: c})
		if err != nil {
			em.emit(r.Context(), events.DraftFailed, events.DraftFailedPayload{
				RequestID: requestID,
				Backend:   string(gen.Backend()),
				Kind:      string(errorKind(err)),
				Error:     err.Error(),
			})
			writeProviderError(w, err)
			return
		}

		em.emit(r.Context(), events.DraftGenerated, events.DraftGeneratedPayload{
			RequestID: requestID,
			Backend:   string(d.Backend),
			Model:     d.Model,
			Draft:     d.Text,
			ElapsedMs: d.Elapsed.Milliseconds(),
			Context:   c,
		})
		writeJSON(w, http.StatusOK, draftResponse{
			Draft:     d.Text,
			Backend:   metrics.BackendLabel(d.Backend),
			Model:     d.Model,
			ElapsedMs: d.Elapsed.Milliseconds(),
		})
	}
}

func readContext(w http.ResponseWriter, raw json.RawMessage) (prompt.Context, bool) {
	c, err := prompt.ParseContext(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "context must be a JSON object")
		return nil, false
	}
	if err := c.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return c, true
}
