package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Standard sentinel errors. APIError and NetworkError match them through
// errors.Is so callers never need to inspect status codes directly.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrRateLimited     = errors.New("rate limited")
	ErrServer          = errors.New("server error")
	ErrServiceUnavail  = errors.New("service unavailable")
	ErrNetwork         = errors.New("network unreachable")
	ErrPersistence     = errors.New("credential storage failure")
	ErrSessionInvalid  = errors.New("session invalid")
	ErrPaymentRequired = errors.New("payment required")
	ErrAlreadyEnrolled = errors.New("already enrolled")
)

// Error codes the backend places in structured error bodies.
const (
	CodePaymentRequired = "payment_required"
	CodeAlreadyEnrolled = "already_enrolled"
)

// APIError is returned for every non-2xx response. It keeps the parsed body
// so presentation code can map it to user-facing text.
type APIError struct {
	Status     int             `json:"status"`
	Code       string          `json:"code,omitempty"`
	Detail     string          `json:"detail,omitempty"`
	Body       json.RawMessage `json:"body,omitempty"`
	Method     string          `json:"method"`
	Path       string          `json:"path"`
	RetryAfter time.Duration   `json:"-"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	if e.Code != "" {
		msg += " (" + e.Code + ")"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is maps the response status and body code onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrInvalidInput:
		return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	case ErrServer:
		return e.Status >= http.StatusInternalServerError
	case ErrServiceUnavail:
		return e.Status == http.StatusServiceUnavailable
	case ErrPaymentRequired:
		return e.Code == CodePaymentRequired
	case ErrAlreadyEnrolled:
		return e.Code == CodeAlreadyEnrolled
	}
	return false
}

// NetworkError means no response was received: DNS failure, refused
// connection, timeout or an open circuit breaker.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: network error: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// Persistence wraps a credential storage failure for the given operation.
func Persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

// InvalidInput wraps a client-side validation failure.
func InvalidInput(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

// StatusOf returns the HTTP status carried by err, or 0 when err did not
// come from a server response.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// CodeOf returns the structured error code carried by err, if any.
func CodeOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

// IsNetwork reports whether err means the request never got a response.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}
