package provider

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a failed generation independently of the backend.
type ErrorKind string

const (
	KindNotConfigured     ErrorKind = "not_configured"
	KindRateLimited       ErrorKind = "rate_limited"
	KindUnauthorized      ErrorKind = "unauthorized"
	KindResourceNotFound  ErrorKind = "resource_not_found"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindBackendError      ErrorKind = "backend_error"
)

var (
	// ErrNotConfigured indicates no backend was resolved from the configuration.
	ErrNotConfigured = errors.New("no provider configured")

	// ErrRateLimited indicates the backend throttled the request (HTTP 429).
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrUnauthorized indicates the backend rejected the credentials (HTTP 401).
	ErrUnauthorized = errors.New("invalid API key")

	// ErrResourceNotFound indicates the requested model is missing on the
	// local backend (HTTP 404).
	ErrResourceNotFound = errors.New("model not found")

	// ErrMalformedResponse indicates a success response that could not be
	// parsed or did not carry generated text.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrBackend covers every other failure: unexpected statuses and
	// transport errors.
	ErrBackend = errors.New("backend error")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindNotConfigured:
		return ErrNotConfigured
	case KindRateLimited:
		return ErrRateLimited
	case KindUnauthorized:
		return ErrUnauthorized
	case KindResourceNotFound:
		return ErrResourceNotFound
	case KindMalformedResponse:
		return ErrMalformedResponse
	default:
		return ErrBackend
	}
}

// Error is returned by every failed generation. Status and Body are set
// when the backend answered with a non-success status; Hint carries a
// remediation the caller can show to a user.
type Error struct {
	Kind    ErrorKind
	Backend Backend
	Status  int
	Body    string
	Hint    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.sentinel().Error()
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Backend == "" {
		return msg
	}
	return string(e.Backend) + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// KindOf returns the kind of err, or "" when err is not a generation error.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

func notConfigured() *Error {
	return &Error{Kind: KindNotConfigured, Message: "no provider configured, set provider and api_key"}
}

// classify maps a non-success status to an error kind. Rate limiting and
// credential errors are only reported by the cloud backends; a 404 only
// means a missing model on the local backend.
func classify(b Backend, model string, status int, body []byte) *Error {
	e := &Error{Backend: b, Status: status, Body: string(body)}
	switch {
	case status == 429 && b != BackendOllama:
		e.Kind = KindRateLimited
		e.Message = "rate limit exceeded, please try again later"
	case status == 401 && b != BackendOllama:
		e.Kind = KindUnauthorized
		e.Message = "invalid API key"
	case status == 404 && b == BackendOllama:
		e.Kind = KindResourceNotFound
		e.Hint = "ollama pull " + model
		e.Message = fmt.Sprintf("model %q not found, run: %s", model, e.Hint)
	default:
		e.Kind = KindBackendError
		e.Message = strings.TrimSpace(fmt.Sprintf("API error: %d %s", status, body))
	}
	return e
}

func transportError(b Backend, err error) *Error {
	return &Error{Kind: KindBackendError, Backend: b, Message: "request", Err: err}
}
