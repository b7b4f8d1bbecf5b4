// Package errors provides error types and utilities for domowner.
// It extends the standard errors package with wrapping helpers and a small
// classification layer used for retry decisions and metric labels.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel errors for common failure scenarios
var (
	// ErrTimeout indicates an operation exceeded its time limit
	ErrTimeout = errors.New("operation timed out")

	// ErrRateLimit indicates a rate limit was exceeded
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrNotFound indicates a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input was provided
	ErrInvalidInput = errors.New("invalid input")

	// ErrConnectionFailed indicates a connection could not be established
	ErrConnectionFailed = errors.New("connection failed")

	// ErrUnauthorized indicates authentication or authorization failed
	ErrUnauthorized = errors.New("unauthorized")

	// ErrServiceUnavailable indicates a service is temporarily unavailable
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrInvalidResponse indicates a response could not be parsed or was malformed
	ErrInvalidResponse = errors.New("invalid response")
)

type wrappedError struct {
	msg   string
	cause error
}

func (e *wrappedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *wrappedError) Unwrap() error {
	return e.cause
}

// Wrap wraps an error with additional context message.
// If err is nil, Wrap returns nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{msg: msg, cause: err}
}

// Wrapf wraps an error with a formatted context message.
// If err is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &wrappedError{msg: fmt.Sprintf(format, args...), cause: err}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// New creates a new error with the given message.
func New(msg string) error {
	return errors.New(msg)
}

// Errorf is fmt.Errorf, re-exported so callers need a single errors import.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// Join returns an error that wraps the given errors.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// IsTimeout reports whether err is a timeout: the ErrTimeout sentinel,
// an expired context deadline or a network timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if Is(err, ErrTimeout) || Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return As(err, &netErr) && netErr.Timeout()
}

// IsRateLimit reports whether the error is a rate limit error
func IsRateLimit(err error) bool {
	return Is(err, ErrRateLimit)
}

// IsNotFound reports whether the error is a not found error
func IsNotFound(err error) bool {
	return Is(err, ErrNotFound)
}

// IsInvalidInput reports whether the error is an invalid input error
func IsInvalidInput(err error) bool {
	return Is(err, ErrInvalidInput)
}

// IsConnectionFailed reports whether err is a connection failure, including
// dial and DNS errors from the net package.
func IsConnectionFailed(err error) bool {
	if Is(err, ErrConnectionFailed) {
		return true
	}
	var opErr *net.OpError
	if As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return As(err, &dnsErr)
}

// IsUnauthorized reports whether the error is an unauthorized error
func IsUnauthorized(err error) bool {
	return Is(err, ErrUnauthorized)
}

// IsServiceUnavailable reports whether the error is a service unavailable error
func IsServiceUnavailable(err error) bool {
	return Is(err, ErrServiceUnavailable)
}

// IsInvalidResponse reports whether the error is an invalid response error
func IsInvalidResponse(err error) bool {
	return Is(err, ErrInvalidResponse)
}

// IsTemporary reports whether retrying the operation could succeed.
// Caller cancellation is never temporary.
func IsTemporary(err error) bool {
	if err == nil || Is(err, context.Canceled) {
		return false
	}
	return IsTimeout(err) ||
		IsRateLimit(err) ||
		IsServiceUnavailable(err) ||
		IsConnectionFailed(err)
}

// Classify maps an error to a short, bounded label for metrics.
func Classify(err error) string {
	switch {
	case err == nil:
		return "ok"
	case Is(err, context.Canceled):
		return "canceled"
	case IsTimeout(err):
		return "timeout"
	case IsRateLimit(err):
		return "rate_limit"
	case IsNotFound(err):
		return "not_found"
	case IsUnauthorized(err):
		return "unauthorized"
	case IsServiceUnavailable(err):
		return "unavailable"
	case IsConnectionFailed(err):
		return "connection"
	case IsInvalidResponse(err):
		return "invalid_response"
	case IsInvalidInput(err):
		return "invalid_input"
	default:
		return "error"
	}
}
