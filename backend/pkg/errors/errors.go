package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeValidation represents rejected input such as an empty name
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeStale represents a reference to a person or connection that no longer exists
	ErrorTypeStale ErrorType = "stale"
	// ErrorTypeConflict represents a write that would break a store invariant
	ErrorTypeConflict ErrorType = "conflict"
	// ErrorTypeGraph represents graph database errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeTransport represents HTTP and websocket client errors
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Validation Errors

// ErrValidationFailed is returned when input is rejected before reaching the store
type ErrValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewValidationFailed(field, reason string) *ErrValidationFailed {
	return &ErrValidationFailed{
		BaseError: NewBaseError(ErrorTypeValidation, fmt.Sprintf("invalid %s: %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// Stale Reference Errors

// ErrPersonNotFound is returned when a person id does not resolve
type ErrPersonNotFound struct {
	*BaseError
	PersonID string
}

func NewPersonNotFound(personID string) *ErrPersonNotFound {
	return &ErrPersonNotFound{
		BaseError: NewBaseError(ErrorTypeStale, fmt.Sprintf("person not found: %s", personID), nil),
		PersonID:  personID,
	}
}

// ErrConnectionNotFound is returned when a connection id does not resolve
type ErrConnectionNotFound struct {
	*BaseError
	ConnectionID string
}

func NewConnectionNotFound(connectionID string) *ErrConnectionNotFound {
	return &ErrConnectionNotFound{
		BaseError:    NewBaseError(ErrorTypeStale, fmt.Sprintf("connection not found: %s", connectionID), nil),
		ConnectionID: connectionID,
	}
}

// Conflict Errors

// ErrDuplicateConnection is returned when a pair is already connected
type ErrDuplicateConnection struct {
	*BaseError
	PersonA    string
	PersonB    string
	ExistingID string
}

func NewDuplicateConnection(personA, personB, existingID string) *ErrDuplicateConnection {
	return &ErrDuplicateConnection{
		BaseError:  NewBaseError(ErrorTypeConflict, fmt.Sprintf("%s and %s are already connected", personA, personB), nil),
		PersonA:    personA,
		PersonB:    personB,
		ExistingID: existingID,
	}
}

// Graph Errors

// ErrGraphConnectionFailed is returned when Neo4j connection fails
type ErrGraphConnectionFailed struct {
	*BaseError
	URI string
}

func NewGraphConnectionFailed(uri string, err error) *ErrGraphConnectionFailed {
	return &ErrGraphConnectionFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// ErrGraphQueryFailed is returned when a graph query fails
type ErrGraphQueryFailed struct {
	*BaseError
	Operation string
}

func NewGraphQueryFailed(operation string, err error) *ErrGraphQueryFailed {
	return &ErrGraphQueryFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("query failed: %s", operation), err),
		Operation: operation,
	}
}

// Transport Errors

// ErrRequestFailed is returned when the API answers with an unexpected status
type ErrRequestFailed struct {
	*BaseError
	Method string
	Path   string
	Status int
}

func NewRequestFailed(method, path string, status int, err error) *ErrRequestFailed {
	return &ErrRequestFailed{
		BaseError: NewBaseError(ErrorTypeTransport, fmt.Sprintf("%s %s returned %d", method, path, status), err),
		Method:    method,
		Path:      path,
		Status:    status,
	}
}

// Context Errors

// ErrContextTimeout is returned when context times out
type ErrContextTimeout struct {
	*BaseError
	Operation string
	Timeout   time.Duration
}

func NewContextTimeout(operation string, timeout time.Duration) *ErrContextTimeout {
	return &ErrContextTimeout{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context timeout: %s (timeout: %v)", operation, timeout), nil),
		Operation: operation,
		Timeout:   timeout,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// typed is satisfied by every error in this package through the embedded BaseError
type typed interface {
	error
	errorType() ErrorType
	message() string
}

func (e *BaseError) errorType() ErrorType {
	return e.Type
}

func (e *BaseError) message() string {
	return e.Message
}

// TypeOf returns the category of the first categorised error in the chain
func TypeOf(err error) (ErrorType, bool) {
	var t typed
	if stderrors.As(err, &t) {
		return t.errorType(), true
	}
	return "", false
}

// MessageOf returns the bare message of the first categorised error in the
// chain, without the type prefix or wrapped cause
func MessageOf(err error) string {
	var t typed
	if stderrors.As(err, &t) {
		return t.message()
	}
	return err.Error()
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	t, ok := TypeOf(err)
	return ok && t == errType
}

// IsNotFound reports whether err is a stale reference
func IsNotFound(err error) bool {
	return IsErrorType(err, ErrorTypeStale)
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	switch t, _ := TypeOf(err); t {
	case ErrorTypeGraph, ErrorTypeTransport:
		return true
	}
	return false
}
