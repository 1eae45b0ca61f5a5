package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown        ErrorCode = "UNKNOWN"
	ErrInternal       ErrorCode = "INTERNAL"
	ErrInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrNotImplemented ErrorCode = "NOT_IMPLEMENTED"

	// Parsing errors (versions, match specs)
	ErrParse ErrorCode = "PARSE"

	// Solver errors
	ErrUnsatisfiable ErrorCode = "UNSATISFIABLE"
	ErrTimedOut      ErrorCode = "TIMED_OUT"

	// Transaction / linking errors
	ErrIoFailure       ErrorCode = "IO_FAILURE"
	ErrClobberConflict ErrorCode = "CLOBBER_CONFLICT"
	ErrCancelled       ErrorCode = "CANCELLED"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// Prefix / installed-state errors
	ErrPrefixRead  ErrorCode = "PREFIX_READ"
	ErrPrefixWrite ErrorCode = "PREFIX_WRITE"

	// Record source errors
	ErrRecordSource ErrorCode = "RECORD_SOURCE"
	ErrLockfile     ErrorCode = "LOCKFILE"
)

// GondaError represents a structured error with code and details
type GondaError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *GondaError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *GondaError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *GondaError) Is(target error) bool {
	var targetErr *GondaError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new GondaError with the given code and message
func New(code ErrorCode, message string) *GondaError {
	return &GondaError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new GondaError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *GondaError {
	return &GondaError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a GondaError
func Wrap(err error, code ErrorCode, message string) *GondaError {
	if err == nil {
		return nil
	}
	return &GondaError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *GondaError {
	if err == nil {
		return nil
	}
	return &GondaError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *GondaError) WithDetail(key string, value interface{}) *GondaError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *GondaError) WithDetails(details map[string]interface{}) *GondaError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var gondaErr *GondaError
	if errors.As(err, &gondaErr) {
		return gondaErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a GondaError
func GetErrorCode(err error) ErrorCode {
	var gondaErr *GondaError
	if errors.As(err, &gondaErr) {
		return gondaErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a GondaError
func GetErrorDetails(err error) map[string]interface{} {
	var gondaErr *GondaError
	if errors.As(err, &gondaErr) {
		return gondaErr.Details
	}
	return nil
}

// IsParseError reports whether err is a parse failure of a version or spec
func IsParseError(err error) bool { return IsErrorCode(err, ErrParse) }

// IsUnsatisfiable reports whether err means no solution exists
func IsUnsatisfiable(err error) bool { return IsErrorCode(err, ErrUnsatisfiable) }

// IsTimedOut reports whether err means the solver budget was exceeded.
// Callers must not treat this as "no solution exists".
func IsTimedOut(err error) bool { return IsErrorCode(err, ErrTimedOut) }

// IsIoFailure reports whether err is a filesystem failure after all fallbacks
func IsIoFailure(err error) bool { return IsErrorCode(err, ErrIoFailure) }
