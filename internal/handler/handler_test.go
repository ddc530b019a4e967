package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baaakgun4543/unlurk/internal/events"
	"github.com/baaakgun4543/unlurk/internal/provider"
)

type fakeGenerator struct {
	backend   provider.Backend
	model     string
	available bool
	text      string
	err       error

	mu   sync.Mutex
	reqs []provider.Request
}

func (f *fakeGenerator) Draft(_ context.Context, req provider.Request) (provider.Draft, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.err != nil {
		return provider.Draft{}, f.err
	}
	return provider.Draft{Text: f.text, Backend: f.backend, Model: f.model, Elapsed: 120 * time.Millisecond}, nil
}

func (f *fakeGenerator) Backend() provider.Backend      { return f.backend }
func (f *fakeGenerator) Model() string                  { return f.model }
func (f *fakeGenerator) Available(context.Context) bool { return f.available }

func (f *fakeGenerator) lastRequest(t *testing.T) provider.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.reqs, "generator was not called")
	return f.reqs[len(f.reqs)-1]
}

type published struct {
	key  string
	body []byte
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{key: key, body: body})
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.msgs))
	for i, m := range p.msgs {
		out[i] = m.key
	}
	return out
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestDraftSuccess(t *testing.T) {
	gen := &fakeGenerator{backend: provider.BackendOpenAI, model: "gpt-4o-mini", text: "Hi all, first post here!"}
	pub := &recordingPublisher{}
	h := Draft(gen, "", Emitter{Publisher: pub, Logger: zerolog.Nop()})

	w := post(t, h, "/api/draft", `{"hint":"Introduce yourself.","context":{"communityName":"Gophers","userHistory":["go","rust"]}}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp draftResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Hi all, first post here!", resp.Draft)
	assert.Equal(t, "openai", resp.Backend)
	assert.Equal(t, "gpt-4o-mini", resp.Model)
	assert.Equal(t, int64(120), resp.ElapsedMs)

	req := gen.lastRequest(t)
	assert.Equal(t, "Introduce yourself.", req.Hint)
	assert.Equal(t, "Gophers", req.Context["communityName"])

	require.Equal(t, []string{events.DraftGenerated}, pub.keys())
	_, payload, err := events.Unwrap[events.DraftGeneratedPayload](pub.msgs[0].body)
	require.NoError(t, err)
	assert.Equal(t, "Hi all, first post here!", payload.Draft)
}

func TestDraftTemplatePrecedence(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		fallback string
		want     string
	}{
		{"request template wins", `{"template":"As {{userName}}"}`, "Default", "As {{userName}}"},
		{"configured default used", `{}`, "Default", "Default"},
		{"neither", `{}`, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{backend: provider.BackendOllama}
			w := post(t, Draft(gen, tt.fallback, Emitter{}), "/api/draft", tt.body)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, gen.lastRequest(t).Template)
		})
	}
}

func TestDraftErrorStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
	}{
		{"not configured", &provider.Error{Kind: provider.KindNotConfigured, Message: "no provider configured"}, http.StatusServiceUnavailable, "not_configured"},
		{"rate limited", &provider.Error{Kind: provider.KindRateLimited, Backend: provider.BackendOpenAI}, http.StatusTooManyRequests, "rate_limited"},
		{"unauthorized", &provider.Error{Kind: provider.KindUnauthorized, Backend: provider.BackendAnthropic}, http.StatusBadGateway, "unauthorized"},
		{"model missing", &provider.Error{Kind: provider.KindResourceNotFound, Backend: provider.BackendOllama, Hint: "ollama pull llama3.2"}, http.StatusBadGateway, "resource_not_found"},
		{"malformed", &provider.Error{Kind: provider.KindMalformedResponse}, http.StatusBadGateway, "malformed_response"},
		{"custom function error", errors.New("upstream exploded"), http.StatusBadGateway, "backend_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{backend: provider.BackendOpenAI, err: tt.err}
			pub := &recordingPublisher{}
			w := post(t, Draft(gen, "", Emitter{Publisher: pub, Logger: zerolog.Nop()}), "/api/draft", `{}`)

			assert.Equal(t, tt.wantCode, w.Code)
			var resp errorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.wantKind, resp.Kind)
			assert.NotEmpty(t, resp.Error)

			require.Equal(t, []string{events.DraftFailed}, pub.keys())
			_, payload, err := events.Unwrap[events.DraftFailedPayload](pub.msgs[0].body)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, payload.Kind)
		})
	}
}

func TestDraftHintInErrorBody(t *testing.T) {
	gen := &fakeGenerator{err: &provider.Error{Kind: provider.KindResourceNotFound, Backend: provider.BackendOllama, Hint: "ollama pull llama3.2"}}
	w := post(t, Draft(gen, "", Emitter{}), "/api/draft", `{}`)

	var resp errorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "ollama pull llama3.2", resp.Hint)
}

func TestDraftBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"invalid json", `{not json`, "invalid JSON body"},
		{"context not an object", `{"context":[1,2]}`, "context must be a JSON object"},
		{"unknown tone", `{"context":{"communityTone":"sarcastic"}}`, `prompt: unknown communityTone "sarcastic"`},
		{"history not a list", `{"context":{"userHistory":"go"}}`, "prompt: userHistory must be a list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{}
			w := post(t, Draft(gen, "", Emitter{}), "/api/draft", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp errorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.want, resp.Error)
			assert.Empty(t, gen.reqs)
		})
	}
}

func TestDraftMethodNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()
	Draft(&fakeGenerator{}, "", Emitter{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/draft", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestDraftBodyTooLarge(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 16)
		Draft(&fakeGenerator{}, "", Emitter{}).ServeHTTP(w, r)
	})
	w := post(t, h, "/api/draft", `{"hint":"`+strings.Repeat("x", 64)+`"}`)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	var logs bytes.Buffer
	pub := &recordingPublisher{err: errors.New("broker down")}
	gen := &fakeGenerator{backend: provider.BackendCustom, text: "ok"}

	w := post(t, Draft(gen, "", Emitter{Publisher: pub, Logger: zerolog.New(&logs)}), "/api/draft", `{}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, logs.String(), "broker down")
}

func TestPromptPreview(t *testing.T) {
	t.Run("default builder", func(t *testing.T) {
		w := post(t, Prompt(""), "/api/prompt", `{"context":{"communityName":"Gophers","userName":"Alice"}}`)

		require.Equal(t, http.StatusOK, w.Code)
		var resp promptResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Contains(t, resp.Prompt, "Community: Gophers")
		assert.Contains(t, resp.Prompt, "User's name: Alice")
	})

	t.Run("template", func(t *testing.T) {
		w := post(t, Prompt("Hello {{userName}} from {{communityName}}"), "/api/prompt", `{"context":{"userName":"Alice"}}`)

		var resp promptResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "Hello Alice from ", resp.Prompt)
	})

	t.Run("invalid context", func(t *testing.T) {
		w := post(t, Prompt(""), "/api/prompt", `{"context":"nope"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPostEmitsEvent(t *testing.T) {
	pub := &recordingPublisher{}
	w := post(t, Post(Emitter{Publisher: pub, Logger: zerolog.Nop()}), "/api/post",
		`{"text":"Hello Gophers!","edited":true,"context":{"communityName":"Gophers"}}`)

	require.Equal(t, http.StatusAccepted, w.Code)
	require.Equal(t, []string{events.DraftPosted}, pub.keys())
	_, payload, err := events.Unwrap[events.DraftPostedPayload](pub.msgs[0].body)
	require.NoError(t, err)
	assert.Equal(t, "Hello Gophers!", payload.Text)
	assert.True(t, payload.Edited)
	assert.Equal(t, "Gophers", payload.Context["communityName"])
}

func TestPostRequiresText(t *testing.T) {
	pub := &recordingPublisher{}
	w := post(t, Post(Emitter{Publisher: pub}), "/api/post", `{"text":"   "}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, pub.keys())
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		gen        *fakeGenerator
		wantProv   string
		wantReason string
	}{
		{"available", &fakeGenerator{backend: provider.BackendOllama, available: true}, "ollama", ""},
		{"ollama down", &fakeGenerator{backend: provider.BackendOllama}, "ollama", "ollama unreachable"},
		{"cloud without key", &fakeGenerator{backend: provider.BackendAnthropic}, "anthropic", "no API key"},
		{"unconfigured", &fakeGenerator{}, "none", "no provider configured"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			Health(tt.gen).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			require.Equal(t, http.StatusOK, w.Code)
			var resp healthResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, "ok", resp.Status)
			assert.Equal(t, tt.wantProv, resp.Provider)
			assert.Equal(t, tt.gen.available, resp.Available)
			assert.Equal(t, tt.wantReason, resp.Reason)
		})
	}
}

func TestProviders(t *testing.T) {
	w := httptest.NewRecorder()
	gen := &fakeGenerator{backend: provider.BackendAnthropic, model: "claude-3-haiku-20240307"}
	Providers(gen).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/providers", nil))

	var resp providerInfo
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, providerInfo{Backend: "anthropic", Model: "claude-3-haiku-20240307", Configured: true}, resp)
}
