package gemini

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// Kind classifies a remote-call failure by its transport-level category.
type Kind string

const (
	// KindInvalidCredential covers missing or rejected API keys. Fatal, never retried.
	KindInvalidCredential Kind = "invalid_credential"
	// KindRateLimited covers quota exhaustion (HTTP 429). Retried with backoff.
	KindRateLimited Kind = "rate_limited"
	// KindUnavailable covers every other remote failure. Not retried.
	KindUnavailable Kind = "unavailable"
)

var (
	// ErrMissingAPIKey indicates the client was constructed without a credential.
	ErrMissingAPIKey = errors.New("gemini api key is empty")
	// ErrNotConfigured indicates a call against an unconfigured client.
	ErrNotConfigured = errors.New("gemini client is not configured")
)

// Error tags a remote failure with the operation that produced it and its kind.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("gemini %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// classify assigns a Kind from the underlying SDK error's HTTP status.
func classify(op string, err error) *Error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			return &Error{Kind: KindRateLimited, Op: op, Err: err}
		case http.StatusUnauthorized, http.StatusForbidden:
			return &Error{Kind: KindInvalidCredential, Op: op, Err: err}
		}
	}
	if errors.Is(err, ErrMissingAPIKey) || errors.Is(err, ErrNotConfigured) {
		return &Error{Kind: KindInvalidCredential, Op: op, Err: err}
	}
	return &Error{Kind: KindUnavailable, Op: op, Err: err}
}

// IsRateLimited reports whether err is a rate-limit-classified remote failure.
func IsRateLimited(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindRateLimited
}

// IsInvalidCredential reports whether err is a credential failure.
func IsInvalidCredential(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindInvalidCredential
}
