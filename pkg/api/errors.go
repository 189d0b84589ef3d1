package api

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed API operation. The kinds are disjoint:
// cancellation is never reported as unauthorized or request_failed.
type ErrorKind string

const (
	// KindUnauthorized means the credential is missing, expired, or rejected.
	KindUnauthorized ErrorKind = "unauthorized"

	// KindCancelled means the caller cancelled the request; the outcome must
	// be discarded, not shown.
	KindCancelled ErrorKind = "cancelled"

	// KindRequestFailed covers network failures, timeouts, non-2xx statuses,
	// and malformed response bodies.
	KindRequestFailed ErrorKind = "request_failed"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrNoToken is returned when a listing is attempted without a stored
	// credential. It is always wrapped in an unauthorized APIError.
	ErrNoToken = errors.New("token absent")
)

// APIError is the typed outcome of a failed API operation.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error

	// transient marks request_failed errors worth retrying (network, 5xx).
	transient bool
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("catalog %s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("catalog %s error: %s", e.Kind, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is an unauthorized APIError.
func IsUnauthorized(err error) bool {
	return kindOf(err) == KindUnauthorized
}

// IsCancelled reports whether err is a cancelled APIError.
func IsCancelled(err error) bool {
	return kindOf(err) == KindCancelled
}

// IsRequestFailed reports whether err is a request_failed APIError.
func IsRequestFailed(err error) bool {
	return kindOf(err) == KindRequestFailed
}

func kindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// shouldRetry determines if an error is worth another attempt. Unauthorized
// and cancelled outcomes are final; request failures retry only when
// transient (network error or 5xx status).
func shouldRetry(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Kind == KindRequestFailed && apiErr.transient
}

func unauthorized(status int, message string, err error) *APIError {
	return &APIError{Kind: KindUnauthorized, StatusCode: status, Message: message, Err: err}
}

func cancelled(err error) *APIError {
	return &APIError{Kind: KindCancelled, Message: "request cancelled", Err: err}
}

func requestFailed(status int, message string, err error, transient bool) *APIError {
	return &APIError{Kind: KindRequestFailed, StatusCode: status, Message: message, Err: err, transient: transient}
}
