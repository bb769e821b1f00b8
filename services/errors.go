package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeUnauthenticated ErrorType = "unauthenticated"
	ErrorTypeInvalidRequest  ErrorType = "invalid_request"
	ErrorTypePayloadTooLarge ErrorType = "payload_too_large"
	ErrorTypeInternal        ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// Detail is the human-readable text returned to API clients.
// The wrapped cause is appended so callers see the underlying failure.
func (e *DomainError) Detail() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Domain error variables. errors.Is matches on type, so these double as
// category markers; never mutate them.
var (
	ErrUnauthenticated = NewDomainError(ErrorTypeUnauthenticated, "Missing or invalid Authorization header", nil)
	ErrInvalidRequest  = NewDomainError(ErrorTypeInvalidRequest, "Invalid request", nil)
	ErrPayloadTooLarge = NewDomainError(ErrorTypePayloadTooLarge, "Payload too large", nil)
	ErrInternal        = NewDomainError(ErrorTypeInternal, "Internal server error", nil)

	ErrMissingFile = NewDomainError(ErrorTypeInvalidRequest, "No file uploaded", nil)
)

// Error type checking helper functions

// IsUnauthenticatedError checks if an error is an unauthenticated error
func IsUnauthenticatedError(err error) bool {
	return GetErrorType(err) == ErrorTypeUnauthenticated
}

// IsInvalidRequestError checks if an error is an invalid request error
func IsInvalidRequestError(err error) bool {
	return GetErrorType(err) == ErrorTypeInvalidRequest
}

// IsPayloadTooLargeError checks if an error is a payload too large error
func IsPayloadTooLargeError(err error) bool {
	return GetErrorType(err) == ErrorTypePayloadTooLarge
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeInternal
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetail returns the client-facing detail of a domain error,
// or the plain error text for anything else.
func GetErrorDetail(err error) string {
	if err == nil {
		return ""
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Detail()
	}
	return err.Error()
}

// WrapInvalidRequest wraps an error as an invalid request error
func WrapInvalidRequest(message string, err error) error {
	return NewDomainError(ErrorTypeInvalidRequest, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}
