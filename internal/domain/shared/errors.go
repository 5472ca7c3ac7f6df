package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a VALIDATION_ERROR with a formatted message.
// Validation errors are raised before any network or store call is made.
func NewValidationError(format string, args ...any) *DomainError {
	return &DomainError{
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf(format, args...),
	}
}

// NewPermissionError creates a PERMISSION_DENIED error. Used when an
// observation delete is attempted by a non-author or outside the grace window.
func NewPermissionError(format string, args ...any) *DomainError {
	return &DomainError{
		Code:    "PERMISSION_DENIED",
		Message: fmt.Sprintf(format, args...),
	}
}

// NewPersistenceError wraps a store write failure. The underlying error is
// surfaced verbatim to the caller; no automatic retry happens at this layer.
func NewPersistenceError(op string, err error) *DomainError {
	return &DomainError{
		Code:    "PERSISTENCE_ERROR",
		Message: fmt.Sprintf("%s: %v", op, err),
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
)

// IsPermissionError reports whether err is a PERMISSION_DENIED domain error.
func IsPermissionError(err error) bool {
	de, ok := err.(*DomainError)
	return ok && de.Code == "PERMISSION_DENIED"
}

// IsValidationError reports whether err is a VALIDATION_ERROR domain error.
func IsValidationError(err error) bool {
	de, ok := err.(*DomainError)
	return ok && de.Code == "VALIDATION_ERROR"
}
