// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Request errors
	ErrMissingField     = &Error{Code: "MISSING_FIELD", Message: "Missing required fields"}
	ErrInvalidField     = &Error{Code: "INVALID_FIELD", Message: "Invalid field value"}
	ErrMethodNotAllowed = &Error{Code: "METHOD_NOT_ALLOWED", Message: "Method not allowed"}
	ErrUnauthorized     = &Error{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}

	// Document errors
	ErrNotFound        = &Error{Code: "NOT_FOUND", Message: "document not found"}
	ErrVersionConflict = &Error{Code: "VERSION_CONFLICT", Message: "document was modified concurrently"}
	ErrTagExists       = &Error{Code: "TAG_EXISTS", Message: "Tag already exists"}

	// Upstream errors
	ErrUpstreamWrite = &Error{Code: "UPSTREAM_WRITE_FAILURE", Message: "Internal server error"}
	ErrUpstreamRead  = &Error{Code: "UPSTREAM_READ_FAILURE", Message: "Error fetching pairs"}

	// Notifier errors
	ErrNotificationFailed = &Error{Code: "NOTIFICATION_FAILURE", Message: "notification failed"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)
