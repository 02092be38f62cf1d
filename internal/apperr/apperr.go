// Package apperr holds the error taxonomy shared by every devscout component.
package apperr

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound means the identifier does not exist upstream.
	ErrNotFound = errors.New("not found")
	// ErrRateLimited means the upstream quota (or the local circuit breaker) rejected the call.
	ErrRateLimited = errors.New("rate limited")
	// ErrInvalidInput means the caller violated a precondition.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnparsable means model output could not be turned into structured data.
	ErrUnparsable = errors.New("unparsable response")
	// ErrTransient covers network failures and upstream 5xx responses.
	ErrTransient = errors.New("transient network error")
)

// Kind classifies an error for callers that need a coarse category (HTTP status, exit codes).
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindRateLimited  Kind = "rate_limited"
	KindInvalidInput Kind = "invalid_input"
	KindUnparsable   Kind = "unparsable"
	KindTransient    Kind = "transient"
	KindInternal     Kind = "internal"
)

// RateLimitError carries the retry hint of a rate-limit failure.
type RateLimitError struct {
	Source     string
	RetryAfter time.Duration
	Local      bool
}

func (e *RateLimitError) Error() string {
	msg := "rate limit exceeded"
	if e.Source != "" {
		msg = e.Source + " " + msg
	}
	if e.Local {
		msg += " (circuit breaker open)"
	}
	if e.RetryAfter > 0 {
		msg += fmt.Sprintf(", retry after %s", e.RetryAfter.Round(time.Second))
	}
	return msg
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// NotFound wraps ErrNotFound with a formatted message.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// InvalidInput wraps ErrInvalidInput with a formatted message.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}

// Transient wraps err as a transient failure.
func Transient(op string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", op, ErrTransient)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrTransient, err)
}

// KindOf maps err onto the taxonomy. Unknown errors are internal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrUnparsable):
		return KindUnparsable
	case errors.Is(err, ErrTransient):
		return KindTransient
	default:
		return KindInternal
	}
}

// RetryAfter returns the retry hint carried by a rate-limit error, if any.
func RetryAfter(err error) (time.Duration, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) && rle.RetryAfter > 0 {
		return rle.RetryAfter, true
	}
	return 0, false
}
