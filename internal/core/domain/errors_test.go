package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name:     "error without details",
			err:      NewDomainError("WS-TEST-1000", "test message"),
			expected: "[WS-TEST-1000] test message",
		},
		{
			name:     "error with details",
			err:      NewDomainError("WS-TEST-1001", "test message").WithDetails("extra info"),
			expected: "[WS-TEST-1001] test message: extra info",
		},
		{
			name:     "error with details and cause",
			err:      ErrFilesystem.WithDetailsf("open %s", "z0.spsf").WithCause(errors.New("permission denied")),
			expected: "[WS-FS-5001] filesystem error: open z0.spsf: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	err1 := NewDomainError("WS-TEST-1000", "message 1")
	err2 := NewDomainError("WS-TEST-1000", "message 2")
	err3 := NewDomainError("WS-TEST-1001", "message 1")

	if !errors.Is(err1, err2) {
		t.Error("errors.Is should return true for same error code")
	}
	if errors.Is(err1, err3) {
		t.Error("errors.Is should return false for different error code")
	}
	if errors.Is(err1, fmt.Errorf("some error")) {
		t.Error("errors.Is should return false for non-DomainError")
	}

	// details do not affect matching
	if !errors.Is(ErrCorruptData.WithDetails("reference 99"), ErrCorruptData) {
		t.Error("errors.Is should match a sentinel with details added")
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying cause")
	err := NewDomainError("WS-TEST-1000", "wrapper").WithCause(cause)

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}
	if errors.Unwrap(NewDomainError("WS-TEST-1000", "no cause")) != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestDomainError_WithDetails(t *testing.T) {
	original := NewDomainError("WS-TEST-1000", "original message")
	withDetails := original.WithDetails("additional details")

	if original.Details != "" {
		t.Error("WithDetails should not modify original error")
	}
	if withDetails.Details != "additional details" {
		t.Errorf("Details = %q, want %q", withDetails.Details, "additional details")
	}
	if withDetails.Code != original.Code {
		t.Errorf("Code = %q, want %q", withDetails.Code, original.Code)
	}
	if withDetails.Message != original.Message {
		t.Errorf("Message = %q, want %q", withDetails.Message, original.Message)
	}
}

func TestDomainError_WithCause(t *testing.T) {
	original := NewDomainError("WS-TEST-1000", "original message")
	cause := fmt.Errorf("root cause")
	withCause := original.WithCause(cause)

	if original.Cause != nil {
		t.Error("WithCause should not modify original error")
	}
	if withCause.Cause != cause {
		t.Errorf("Cause = %v, want %v", withCause.Cause, cause)
	}
	if wrapped := original.Wrap(cause); wrapped.Cause != cause {
		t.Errorf("Wrap() cause = %v, want %v", wrapped.Cause, cause)
	}
}

func TestIsDomainError(t *testing.T) {
	if !IsDomainError(ErrCorruptData, "WS-DATA-4221") {
		t.Error("IsDomainError should return true for matching code")
	}
	if IsDomainError(ErrCorruptData, "WS-DATA-9999") {
		t.Error("IsDomainError should return false for non-matching code")
	}
	if !IsDomainError(ErrCorruptData, "") {
		t.Error("IsDomainError with empty code should match any DomainError")
	}
	if IsDomainError(fmt.Errorf("regular error"), "WS-DATA-4221") {
		t.Error("IsDomainError should return false for non-DomainError")
	}
	wrapped := fmt.Errorf("wrapped: %w", ErrCorruptData)
	if !IsDomainError(wrapped, "WS-DATA-4221") {
		t.Error("IsDomainError should work with wrapped errors")
	}
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"domain error", ErrFilesystem, "WS-FS-5001"},
		{"wrapped domain error", fmt.Errorf("wrapped: %w", ErrIdentity), "WS-IDEN-4002"},
		{"regular error", fmt.Errorf("regular error"), ""},
		{"nil error", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetErrorCode(tt.err); got != tt.expected {
				t.Errorf("GetErrorCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err  *DomainError
		code string
	}{
		{ErrConfiguration, "WS-CONF-1001"},
		{ErrFilesystem, "WS-FS-5001"},
		{ErrCorruptData, "WS-DATA-4221"},
		{ErrUnsupportedValue, "WS-VAL-4001"},
		{ErrIdentity, "WS-IDEN-4002"},
		{ErrSkipped, "WS-SKIP-2001"},
		{ErrInvalidArgument, "WS-ARG-1001"},
		{ErrInternal, "WS-SYS-5000"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Error code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.Message == "" {
				t.Error("Error message should not be empty")
			}
		})
	}
}
