package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/baaakgun4543/unlurk/internal/events"
	"github.com/baaakgun4543/unlurk/internal/middleware"
)

type postRequest struct {
	Text    string          `json:"text"`
	Edited  bool            `json:"edited"`
	Context json.RawMessage `json:"context"`
}

type postResponse struct {
	Status string `json:"status"`
}

// Post records that the user published a draft. The service only emits the
// event; delivering the post to the community is up to the subscriber.
func Post(em Emitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req postRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			writeError(w, http.StatusBadRequest, "text is required")
			return
		}
		c, ok := readContext(w, req.Context)
		if !ok {
			return
		}

		em.emit(r.Context(), events.DraftPosted, events.DraftPostedPayload{
			RequestID: middleware.RequestIDFromContext(r.Context()),
			Text:      req.Text,
			Edited:    req.Edited,
			Context:   c,
		})
		writeJSON(w, http.StatusAccepted, postResponse{Status: "accepted"})
	}
}
