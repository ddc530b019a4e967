package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Response schemas: the path of the generated text in each backend's
// success payload.
const (
	openAITextPath    = "choices.0.message.content"
	anthropicTextPath = "content.0.text"
	ollamaTextPath    = "response"
)

// postJSON sends payload to url and returns the raw success body. A
// non-success status is classified before returning.
func (d *Dispatcher) postJSON(ctx context.Context, r *resolved, url string, headers map[string]string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", r.backend, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", r.backend, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, transportError(r.backend, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(r.backend, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classify(r.backend, r.model, resp.StatusCode, raw)
	}
	return raw, nil
}

// extractText validates raw against the backend's schema and returns the
// trimmed text found at path.
func extractText(b Backend, raw []byte, path string) (string, error) {
	if !gjson.ValidBytes(raw) {
		return "", &Error{Kind: KindMalformedResponse, Backend: b, Message: "failed to parse response"}
	}
	res := gjson.GetBytes(raw, path)
	if res.Type != gjson.String {
		return "", &Error{Kind: KindMalformedResponse, Backend: b, Message: "invalid response format"}
	}
	return strings.TrimSpace(res.String()), nil
}
