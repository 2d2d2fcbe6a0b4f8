package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork           ErrorType = "network"
	ErrorTypeRateLimit         ErrorType = "rate_limit"
	ErrorTypeAuth              ErrorType = "auth"
	ErrorTypeParsing           ErrorType = "parsing"
	ErrorTypeNotFound          ErrorType = "not_found"
	ErrorTypeServerError       ErrorType = "server_error"
	ErrorTypeBadRequest        ErrorType = "bad_request"
	ErrorTypeTimeout           ErrorType = "timeout"
	ErrorTypeTask              ErrorType = "task"
	ErrorTypeValidation        ErrorType = "validation"
	ErrorTypeImage             ErrorType = "image"
	ErrorTypePersistence       ErrorType = "persistence"
	ErrorTypeCheckpointCorrupt ErrorType = "checkpoint_corrupt"
	ErrorTypeUnknown           ErrorType = "unknown"
)

// Error represents a pipeline error with type information. Code carries the
// HTTP status for API errors and is zero otherwise.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given type
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Wrap creates an error of the given type around an underlying cause
func Wrap(t ErrorType, message string, err error) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

// GetType returns the type of an error, unwrapping as needed, or
// ErrorTypeUnknown for errors that don't carry one
func GetType(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err is or wraps an *Error of the given type
func IsType(err error, t ErrorType) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Type == t
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	case ErrorTypeAuth, ErrorTypeNotFound, ErrorTypeParsing,
		ErrorTypeBadRequest, ErrorTypeTimeout, ErrorTypeTask,
		ErrorTypeValidation, ErrorTypeImage, ErrorTypePersistence,
		ErrorTypeCheckpointCorrupt:
		return false
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 500, 502, 503, 504: // Server errors
		return true
	case 400, 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500 // Retry all 5xx errors
	}
}
