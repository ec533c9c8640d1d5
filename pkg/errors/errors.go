package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeUnauthorized     ErrorType = "unauthorized"
	ErrorTypeAbort            ErrorType = "abort"
	ErrorTypeRateLimit        ErrorType = "rate_limit"
	ErrorTypeBadGateway       ErrorType = "bad_gateway"
	ErrorTypeUnexpectedStatus ErrorType = "unexpected_status"
	ErrorTypeNetwork          ErrorType = "network"
	ErrorTypeParsing          ErrorType = "parsing"
	ErrorTypeUnknown          ErrorType = "unknown"
)

// NoAuthMessage is attached to every 400-428 response error.
const NoAuthMessage = "Most likely unauthorized or no results"

// Error represents an API error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Reason  string
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s error (code %d, %s): %s", e.Type, e.Code, e.Reason, e.Message)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// NewUnauthorized builds the error returned for status codes 400 through 428.
func NewUnauthorized(code int, reason string) *Error {
	if reason == "" {
		reason = http.StatusText(code)
	}
	return &Error{
		Type:    ErrorTypeUnauthorized,
		Message: NoAuthMessage,
		Code:    code,
		Reason:  reason,
	}
}

// NewFatalAbort builds the error returned once the reconnect budget is spent.
func NewFatalAbort(maxReconnects int) *Error {
	return &Error{
		Type:    ErrorTypeAbort,
		Message: fmt.Sprintf("internal abort; %d reconnect attempts", maxReconnects),
	}
}

// NewStatusError builds the error returned when a call gives up on status
// code. 429 and 502 map to rate_limit and bad_gateway, anything else to
// unexpected_status.
func NewStatusError(code int, reason, message string) *Error {
	errorType := ErrorTypeUnexpectedStatus
	switch code {
	case http.StatusTooManyRequests:
		errorType = ErrorTypeRateLimit
	case http.StatusBadGateway:
		errorType = ErrorTypeBadGateway
	}
	if reason == "" {
		reason = http.StatusText(code)
	}
	return &Error{
		Type:    errorType,
		Message: message,
		Code:    code,
		Reason:  reason,
	}
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Type
	}
	return ErrorTypeUnknown
}

// IsUnauthorized reports whether err carries an unauthorized/no-results error.
func IsUnauthorized(err error) bool {
	return hasType(err, ErrorTypeUnauthorized)
}

// IsFatalAbort reports whether err was caused by an exhausted reconnect budget.
func IsFatalAbort(err error) bool {
	return hasType(err, ErrorTypeAbort)
}

func hasType(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// IsRetryable reports whether an error type comes from a transient status,
// so the same call may succeed later.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeRateLimit, ErrorTypeBadGateway:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code is treated as a
// transient failure. Only 429 and 502 qualify.
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway:
		return true
	default:
		return false
	}
}

// IsUnauthorizedStatusCode reports whether statusCode falls in [400,428].
func IsUnauthorizedStatusCode(statusCode int) bool {
	return statusCode >= http.StatusBadRequest && statusCode <= http.StatusPreconditionRequired
}
