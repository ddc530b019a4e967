package provider

import (
	"time"

	"github.com/rs/zerolog"
)

// CallEvent records one generation attempt.
type CallEvent struct {
	Backend     Backend
	Model       string
	PromptChars int
	Latency     time.Duration
	Err         error
}

// Kind returns the error kind of the call, or "" on success.
func (e CallEvent) Kind() ErrorKind {
	if e.Err == nil {
		return ""
	}
	if k := KindOf(e.Err); k != "" {
		return k
	}
	return KindBackendError
}

// Observer receives one event per generation call.
type Observer interface {
	OnCall(event CallEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(CallEvent)

func (f ObserverFunc) OnCall(e CallEvent) { f(e) }

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) OnCall(CallEvent) {}

// Observers fans one event out to several observers in order.
type Observers []Observer

func (obs Observers) OnCall(e CallEvent) {
	for _, o := range obs {
		o.OnCall(e)
	}
}

// LogObserver writes one structured line per call.
type LogObserver struct {
	Logger zerolog.Logger
}

func (o LogObserver) OnCall(e CallEvent) {
	ev := o.Logger.Info()
	if e.Err != nil {
		ev = o.Logger.Warn().Err(e.Err).Str("kind", string(e.Kind()))
	}
	ev.Str("backend", string(e.Backend)).
		Str("model", e.Model).
		Int("prompt_chars", e.PromptChars).
		Int64("latency_ms", e.Latency.Milliseconds()).
		Msg("generation")
}
