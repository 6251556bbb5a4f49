package errors

import (
	"context"
	stderrors "errors"
	"fmt"
)

// ErrorType represents different kinds of failures that can occur during a run
type ErrorType string

const (
	ErrorTypeAuth         ErrorType = "auth"
	ErrorTypeTransient    ErrorType = "transient"
	ErrorTypePagination   ErrorType = "pagination"
	ErrorTypeExtraction   ErrorType = "extraction"
	ErrorTypeIncompatible ErrorType = "incompatible"
	ErrorTypeNetwork      ErrorType = "network"
	ErrorTypeParsing      ErrorType = "parsing"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeUnknown      ErrorType = "unknown"
)

// Exit codes returned by the CLI for fatal error types
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitAuth        = 2
	ExitPagination  = 3
	ExitTransient   = 4
	ExitInterrupted = 130
)

// Error represents a classified failure with optional HTTP status code
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Type) + " error"
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (code %d)", msg, e.Code)
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error
func New(t ErrorType, code int, message string) *Error {
	return &Error{Type: t, Code: code, Message: message}
}

// Wrap creates a classified error around a cause
func Wrap(t ErrorType, err error, message string) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

// NewAuthError reports rejected or missing credentials
func NewAuthError(code int, message string) *Error {
	return New(ErrorTypeAuth, code, message)
}

// NewTransientError reports a server-side failure that may succeed on retry
func NewTransientError(code int, message string) *Error {
	return New(ErrorTypeTransient, code, message)
}

// NewPaginationError reports a cursor loop or another unrecoverable paging state
func NewPaginationError(message string) *Error {
	return New(ErrorTypePagination, 0, message)
}

// NewIncompatibleError reports a creator page that cannot be scraped
func NewIncompatibleError(message string) *Error {
	return New(ErrorTypeIncompatible, 0, message)
}

// TypeOf returns the type of the first classified error in err's chain
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// Is reports whether err carries the given type anywhere in its chain
func Is(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// IsAuth reports whether err is an authentication failure
func IsAuth(err error) bool { return Is(err, ErrorTypeAuth) }

// IsTransient reports whether err is a transient server failure
func IsTransient(err error) bool { return Is(err, ErrorTypeTransient) }

// IsPagination reports whether err is a pagination failure
func IsPagination(err error) bool { return Is(err, ErrorTypePagination) }

// IsIncompatible reports whether err marks an unsupported creator page
func IsIncompatible(err error) bool { return Is(err, ErrorTypeIncompatible) }

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeTransient, ErrorTypeNetwork:
		return true
	default:
		return false
	}
}

// IsRetryableError checks if err should be retried
func IsRetryableError(err error) bool {
	return err != nil && IsRetryable(TypeOf(err))
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0, 429:
		return true
	case 401, 403, 404:
		return false
	default:
		return statusCode >= 500
	}
}

// ClassifyStatus maps an HTTP status code to an error type
func ClassifyStatus(statusCode int) ErrorType {
	switch {
	case statusCode == 401, statusCode == 403:
		return ErrorTypeAuth
	case statusCode == 404:
		return ErrorTypeNotFound
	case IsRetryableStatusCode(statusCode):
		return ErrorTypeTransient
	default:
		return ErrorTypeUnknown
	}
}

// ExitCode maps a fatal error to the process exit status
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if stderrors.Is(err, context.Canceled) {
		return ExitInterrupted
	}
	switch TypeOf(err) {
	case ErrorTypeAuth:
		return ExitAuth
	case ErrorTypePagination:
		return ExitPagination
	case ErrorTypeTransient, ErrorTypeNetwork:
		return ExitTransient
	default:
		return ExitFailure
	}
}
