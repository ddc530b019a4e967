package provider

import (
	"context"
	"net/http"
	"time"
)

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

// generateOllama calls /api/generate. Ollama takes a single prompt string,
// so the hint is appended after a blank line.
func (d *Dispatcher) generateOllama(ctx context.Context, r *resolved, system, hint string) (string, error) {
	reqBody := ollamaGenerateRequest{
		Model:  r.model,
		Prompt: system + "\n\n" + hint,
		Stream: false,
		Options: ollamaOptions{
			Temperature: Temperature,
			NumPredict:  MaxTokens,
		},
	}

	raw, err := d.postJSON(ctx, r, r.baseURL+"/api/generate", nil, reqBody)
	if err != nil {
		return "", err
	}
	return extractText(BackendOllama, raw, ollamaTextPath)
}

func (d *Dispatcher) probeOllama(ctx context.Context, r *resolved) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/", nil)
	if err != nil {
		return false
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
