package api

import "fmt"

// Error is an API error carrying a JSON-RPC error code. Handlers return it
// when a failure should map to something more specific than a server error.
type Error struct {
	Code    int
	Message string
	cause   error
}

// NewError creates a new API error
func NewError(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WrapError creates an API error that preserves the underlying cause.
func WrapError(code int, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("API error %d: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}
