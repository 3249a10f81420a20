package provider

import "fmt"

// Kind classifies provider failures.
type Kind string

const (
	// KindAuth means the API key was missing or rejected.
	KindAuth Kind = "auth"
	// KindRateLimit means the backend asked us to slow down.
	KindRateLimit Kind = "rate_limit"
	// KindRequest means the backend rejected the request itself.
	KindRequest Kind = "request"
	// KindTransport covers network failures, timeouts and 5xx responses.
	KindTransport Kind = "transport"
	// KindEmpty means the backend answered with no usable content.
	KindEmpty Kind = "empty_response"
)

// Error is a classified provider failure. Callers use Retryable to
// decide whether waiting and trying again could plausibly help.
type Error struct {
	Kind  Kind
	Model string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s (model %s): %v", e.Kind, e.Model, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is transient.
func (e *Error) Retryable() bool {
	return e.Kind == KindRateLimit || e.Kind == KindTransport
}
