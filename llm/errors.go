package llm

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an inference failure for retry and propagation decisions.
type Kind string

const (
	KindAuth            Kind = "AUTH"             // invalid or missing API key
	KindOverloaded      Kind = "OVERLOADED"       // transient upstream unavailability
	KindSafetyBlocked   Kind = "SAFETY_BLOCKED"   // call succeeded but was refused
	KindNotFound        Kind = "NOT_FOUND"        // resource/model missing upstream
	KindMalformedOutput Kind = "MALFORMED_OUTPUT" // response failed structured decode
	KindGeneric         Kind = "GENERIC"          // anything else, not retryable
)

// Error is the structured failure type for every inference operation.
type Error struct {
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"http_status,omitempty"`
	Retryable  bool   `json:"retryable"`
	Cause      error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// NewError creates an Error with the given kind and message.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WithCause attaches an underlying cause.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus records the upstream HTTP status.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// ErrOverloaded is the normalized user-facing error surfaced after the
// retry budget is exhausted on a retryable failure. Callers see this, not
// the raw transport message.
var ErrOverloaded = &Error{
	Kind:      KindOverloaded,
	Message:   "service is overloaded, please retry later",
	Retryable: false,
}

// ErrNoImage is returned by image-edit extraction when no content part
// carries inline binary data.
var ErrNoImage = &Error{
	Kind:    KindGeneric,
	Message: "no image returned",
}

// IsRetryable reports whether err carries a retryable classification.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// KindOf extracts the kind from err, or KindGeneric for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindGeneric
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Classify assigns a kind to a transport failure. An already-classified
// *Error passes through unchanged. For foreign errors the rules are
// case-insensitive substring matches on the message, first match wins.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key") ||
		strings.Contains(msg, "api_key_invalid") ||
		strings.Contains(msg, "unauthenticated"):
		return NewError(KindAuth, "invalid API key").WithCause(err)
	case strings.Contains(msg, "overloaded") ||
		strings.Contains(msg, "unavailable") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "deadline exceeded"):
		return NewError(KindOverloaded, err.Error()).WithCause(err).WithRetryable(true)
	default:
		return NewError(KindGeneric, err.Error()).WithCause(err)
	}
}
