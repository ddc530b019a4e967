// Package provider dispatches draft generation to exactly one configured
// text-generation backend and normalizes its failures into Error values.
package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/baaakgun4543/unlurk/internal/prompt"
)

// Backend tags the generation service a Config selects.
type Backend string

const (
	BackendOpenAI    Backend = "openai"
	BackendAnthropic Backend = "anthropic"
	BackendOllama    Backend = "ollama"
	BackendCustom    Backend = "custom"
)

// ParseBackend accepts the tags used in configuration files. Aliases for
// the wire formats are accepted too.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "openai", "openai-compatible":
		return BackendOpenAI, nil
	case "anthropic", "anthropic-compatible", "claude":
		return BackendAnthropic, nil
	case "ollama", "local", "local-inference":
		return BackendOllama, nil
	case "custom", "custom-function":
		return BackendCustom, nil
	case "":
		return "", nil
	}
	return "", fmt.Errorf("provider: unknown backend %q", s)
}

// Fixed generation parameters shared by all built-in backends.
const (
	MaxTokens   = 150
	Temperature = 0.8

	// DefaultHint is sent as the user turn when the caller gives none.
	DefaultHint = "Generate a draft post."
)

const (
	openAIDefaultModel      = "gpt-4o-mini"
	openAIDefaultBaseURL    = "https://api.openai.com/v1"
	anthropicDefaultModel   = "claude-3-haiku-20240307"
	anthropicDefaultBaseURL = "https://api.anthropic.com"
	ollamaDefaultModel      = "llama3.2"
	ollamaDefaultBaseURL    = "http://localhost:11434"
)

// GenerateFunc replaces the built-in backends entirely. It receives the
// caller's hint and context untouched; no prompt is composed for it.
type GenerateFunc func(ctx context.Context, hint string, c prompt.Context) (string, error)

// Config selects one backend. GenerateFunc, when set, wins over Provider.
type Config struct {
	Provider     Backend
	APIKey       string
	Model        string
	BaseURL      string
	GenerateFunc GenerateFunc
}

// resolved is the backend a Config settled on. It is never mutated after
// resolve returns.
type resolved struct {
	backend Backend
	model   string
	baseURL string
	apiKey  string
	fn      GenerateFunc
}

// resolve applies the selection order: custom function, OpenAI with a key,
// Anthropic with a key, Ollama. Anything else leaves nothing resolved.
func resolve(cfg Config) *resolved {
	switch {
	case cfg.GenerateFunc != nil:
		return &resolved{backend: BackendCustom, model: cfg.Model, fn: cfg.GenerateFunc}
	case cfg.Provider == BackendOpenAI && cfg.APIKey != "":
		return &resolved{
			backend: BackendOpenAI,
			model:   orDefault(cfg.Model, openAIDefaultModel),
			baseURL: baseURL(cfg.BaseURL, openAIDefaultBaseURL),
			apiKey:  cfg.APIKey,
		}
	case cfg.Provider == BackendAnthropic && cfg.APIKey != "":
		return &resolved{
			backend: BackendAnthropic,
			model:   orDefault(cfg.Model, anthropicDefaultModel),
			baseURL: baseURL(cfg.BaseURL, anthropicDefaultBaseURL),
			apiKey:  cfg.APIKey,
		}
	case cfg.Provider == BackendOllama:
		return &resolved{
			backend: BackendOllama,
			model:   orDefault(cfg.Model, ollamaDefaultModel),
			baseURL: baseURL(cfg.BaseURL, ollamaDefaultBaseURL),
		}
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func baseURL(v, def string) string {
	return strings.TrimRight(orDefault(v, def), "/")
}
