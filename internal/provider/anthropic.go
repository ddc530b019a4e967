package provider

import "context"

const anthropicVersion = "2023-06-01"

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicMessagesRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

// generateAnthropic calls the Messages API with the composed prompt as the
// system turn and the hint as the only user turn.
func (d *Dispatcher) generateAnthropic(ctx context.Context, r *resolved, system, hint string) (string, error) {
	reqBody := anthropicMessagesRequest{
		Model:     r.model,
		MaxTokens: MaxTokens,
		System:    system,
		Messages: []anthropicMessage{
			{Role: "user", Content: hint},
		},
	}
	headers := map[string]string{
		"x-api-key":         r.apiKey,
		"anthropic-version": anthropicVersion,
	}

	raw, err := d.postJSON(ctx, r, r.baseURL+"/v1/messages", headers, reqBody)
	if err != nil {
		return "", err
	}
	return extractText(BackendAnthropic, raw, anthropicTextPath)
}
