package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/baaakgun4543/unlurk/internal/provider"
)

var (
	// RequestsTotal counts HTTP requests by method, path, and status code.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unlurk_requests_total",
		Help: "Total HTTP requests processed.",
	}, []string{"method", "path", "status"})

	// DraftDuration tracks generation latency per backend.
	DraftDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "unlurk_draft_duration_seconds",
		Help:    "Time spent generating a draft.",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"backend"})

	// DraftFailures counts failed generations by backend and error kind.
	DraftFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unlurk_draft_failures_total",
		Help: "Failed draft generations.",
	}, []string{"backend", "kind"})

	// PromptChars tracks the distribution of composed prompt lengths.
	PromptChars = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "unlurk_prompt_chars",
		Help:    "Number of characters in composed prompts.",
		Buckets: []float64{250, 500, 750, 1000, 1500, 2500, 5000},
	})

	// BackendAvailable tracks whether the active backend is reachable.
	BackendAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "unlurk_backend_available",
		Help: "Whether the generation backend is available (1) or not (0).",
	}, []string{"backend"})
)

// Observer records dispatcher calls into the collectors above.
type Observer struct{}

func (Observer) OnCall(e provider.CallEvent) {
	backend := BackendLabel(e.Backend)
	if e.Err != nil {
		DraftFailures.WithLabelValues(backend, string(e.Kind())).Inc()
		return
	}
	DraftDuration.WithLabelValues(backend).Observe(e.Latency.Seconds())
	if e.PromptChars > 0 {
		PromptChars.Observe(float64(e.PromptChars))
	}
}

// BackendLabel returns the label value for b; "none" when unconfigured.
func BackendLabel(b provider.Backend) string {
	if b == "" {
		return "none"
	}
	return string(b)
}

// SetAvailable records the availability of backend b.
func SetAvailable(b provider.Backend, ok bool) {
	v := 0.0
	if ok {
		v = 1
	}
	BackendAvailable.WithLabelValues(BackendLabel(b)).Set(v)
}
