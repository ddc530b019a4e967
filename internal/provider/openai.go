package provider

import (
	"context"
	"errors"
	"io"
	"net/http"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// generateOpenAI calls /chat/completions through the official SDK. The SDK
// builds the request and auth header; status classification and response
// validation stay here so all three backends fail the same way.
func (d *Dispatcher) generateOpenAI(ctx context.Context, r *resolved, system, hint string) (string, error) {
	client := openai.NewClient(
		option.WithAPIKey(r.apiKey),
		option.WithBaseURL(r.baseURL+"/"),
		option.WithHTTPClient(d.client),
		option.WithMaxRetries(0),
		option.WithMiddleware(classifyMiddleware(r)),
	)

	var raw []byte
	_, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(r.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(hint),
		},
		MaxTokens:   openai.Int(MaxTokens),
		Temperature: openai.Float(Temperature),
	}, option.WithResponseBodyInto(&raw))
	if err != nil {
		var pe *Error
		if errors.As(err, &pe) {
			return "", pe
		}
		return "", transportError(BackendOpenAI, err)
	}
	return extractText(BackendOpenAI, raw, openAITextPath)
}

// classifyMiddleware turns a non-success response into an *Error before the
// SDK sees it, keeping the raw body for diagnostics.
func classifyMiddleware(r *resolved) option.Middleware {
	return func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		resp, err := next(req)
		if err != nil {
			return resp, err
		}
		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			return resp, nil
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, classify(r.backend, r.model, resp.StatusCode, body)
	}
}
