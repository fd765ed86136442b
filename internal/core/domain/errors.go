// Package domain defines the core domain models for worldsave.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a snapshot engine error with a structured error code.
//
// Codes have the form WS-<FAMILY>-<NUMBER>. The family identifies which
// error class of the save/load pipeline produced it; callers compare with
// errors.Is against the sentinel values below.
type DomainError struct {
	Code    string // Error code (e.g., "WS-DATA-4221")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support. Two domain errors match when their
// codes are equal.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithDetailsf is WithDetails with fmt.Sprintf formatting.
func (e *DomainError) WithDetailsf(format string, args ...any) *DomainError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Fatal errors: abort the Save or Load that raised them.
// ============================================================================

var (
	// ErrConfiguration indicates the host cannot supply a usable save path
	// or world bounds.
	ErrConfiguration = NewDomainError("WS-CONF-1001", "configuration error")

	// ErrFilesystem indicates a create, backup, open, write or read failure.
	ErrFilesystem = NewDomainError("WS-FS-5001", "filesystem error")

	// ErrCorruptData indicates a malformed blob or a dangling reference id
	// encountered while loading.
	ErrCorruptData = NewDomainError("WS-DATA-4221", "corrupt snapshot data")
)

// ============================================================================
// Per-node errors: recorded as warnings, the Save continues.
// ============================================================================

var (
	// ErrUnsupportedValue indicates the classifier has no policy for a kind,
	// or a value could not be encoded (cyclic or over-deep list).
	ErrUnsupportedValue = NewDomainError("WS-VAL-4001", "unsupported value")

	// ErrIdentity indicates a missing or invalid identity on a node that
	// needs one.
	ErrIdentity = NewDomainError("WS-IDEN-4002", "invalid identity")

	// ErrSkipped marks a node dropped by the skip policy. It is only ever
	// reported as a warning.
	ErrSkipped = NewDomainError("WS-SKIP-2001", "transient value skipped")
)

// ============================================================================
// Generic errors
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("WS-ARG-1001", "invalid argument")

	// ErrInternal indicates an internal invariant was violated.
	ErrInternal = NewDomainError("WS-SYS-5000", "internal error")
)
