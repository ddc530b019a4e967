package handler

import (
	"net/http"

	"github.com/baaakgun4543/unlurk/internal/metrics"
	"github.com/baaakgun4543/unlurk/internal/provider"
)

type healthResponse struct {
	Status    string `json:"status"`
	Provider  string `json:"provider"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

func Health(gen Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		backend := gen.Backend()
		available := gen.Available(r.Context())
		metrics.SetAvailable(backend, available)

		resp := healthResponse{
			Status:    "ok",
			Provider:  metrics.BackendLabel(backend),
			Available: available,
		}
		if !available {
			resp.Reason = unavailableReason(backend)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func unavailableReason(b provider.Backend) string {
	switch b {
	case "":
		return "no provider configured"
	case provider.BackendOpenAI, provider.BackendAnthropic:
		return "no API key"
	case provider.BackendOllama:
		return "ollama unreachable"
	default:
		return "unavailable"
	}
}
