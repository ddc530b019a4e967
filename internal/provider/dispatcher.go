package provider

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/baaakgun4543/unlurk/internal/prompt"
)

// Request is one draft request. Template, when set, replaces the default
// prompt for the built-in backends.
type Request struct {
	Hint     string
	Template string
	Context  prompt.Context
}

// Draft is the outcome of a successful generation.
type Draft struct {
	Text    string
	Backend Backend
	Model   string
	Elapsed time.Duration
}

// Dispatcher holds the resolved backend and routes generation calls to it.
// It is safe for concurrent use; Configure swaps the backend atomically.
type Dispatcher struct {
	client   *http.Client
	observer Observer
	active   atomic.Pointer[resolved]
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithHTTPClient sets the client used for backend calls. The default client
// has no timeout; callers bound calls through the context.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Dispatcher) { d.client = c }
}

// WithObserver registers an observer notified after every call.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) { d.observer = o }
}

// New returns a Dispatcher configured from cfg.
func New(cfg Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		client:   &http.Client{},
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.Configure(cfg)
	return d
}

// Configure replaces the active backend. It reports whether a backend was
// resolved; when not, every call fails with ErrNotConfigured.
func (d *Dispatcher) Configure(cfg Config) bool {
	r := resolve(cfg)
	d.active.Store(r)
	return r != nil
}

// Backend returns the active backend tag, or "" when unconfigured.
func (d *Dispatcher) Backend() Backend {
	if r := d.active.Load(); r != nil {
		return r.backend
	}
	return ""
}

// Model returns the model the active backend will be asked for.
func (d *Dispatcher) Model() string {
	if r := d.active.Load(); r != nil {
		return r.model
	}
	return ""
}

// Configured reports whether a backend is active.
func (d *Dispatcher) Configured() bool {
	return d.active.Load() != nil
}

// Generate returns a draft for hint using the default prompt built from c.
func (d *Dispatcher) Generate(ctx context.Context, hint string, c prompt.Context) (string, error) {
	draft, err := d.Draft(ctx, Request{Hint: hint, Context: c})
	if err != nil {
		return "", err
	}
	return draft.Text, nil
}

// Draft runs one generation. Failures are returned as *Error, except that
// errors from a caller-supplied GenerateFunc are passed through unchanged.
func (d *Dispatcher) Draft(ctx context.Context, req Request) (Draft, error) {
	r := d.active.Load()
	if r == nil {
		err := notConfigured()
		d.observer.OnCall(CallEvent{Err: err})
		return Draft{}, err
	}

	hint := req.Hint
	if hint == "" {
		hint = DefaultHint
	}

	start := time.Now()
	var (
		text   string
		err    error
		system string
	)
	switch r.backend {
	case BackendCustom:
		text, err = r.fn(ctx, hint, req.Context)
	case BackendOpenAI:
		system = prompt.Build(req.Context, req.Template)
		text, err = d.generateOpenAI(ctx, r, system, hint)
	case BackendAnthropic:
		system = prompt.Build(req.Context, req.Template)
		text, err = d.generateAnthropic(ctx, r, system, hint)
	case BackendOllama:
		system = prompt.Build(req.Context, req.Template)
		text, err = d.generateOllama(ctx, r, system, hint)
	}
	elapsed := time.Since(start)

	d.observer.OnCall(CallEvent{
		Backend:     r.backend,
		Model:       r.model,
		PromptChars: utf8.RuneCountInString(system),
		Latency:     elapsed,
		Err:         err,
	})
	if err != nil {
		return Draft{}, err
	}
	return Draft{Text: text, Backend: r.backend, Model: r.model, Elapsed: elapsed}, nil
}

// Available reports whether the active backend can serve requests. Cloud
// backends are available once they hold a key; Ollama is probed.
func (d *Dispatcher) Available(ctx context.Context) bool {
	r := d.active.Load()
	if r == nil {
		return false
	}
	switch r.backend {
	case BackendOllama:
		return d.probeOllama(ctx, r)
	case BackendOpenAI, BackendAnthropic:
		return r.apiKey != ""
	}
	return true
}
