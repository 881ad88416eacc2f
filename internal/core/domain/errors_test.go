package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "kind and message",
			err:      ErrValidation("Missing tag"),
			expected: "validation: Missing tag",
		},
		{
			name:     "backend error with cause",
			err:      ErrBackend("append failed", errors.New("disk full")),
			expected: "backend: append failed: disk full",
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

func TestError_HTTPStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected int
	}{
		{"validation", ErrValidation("x"), http.StatusBadRequest},
		{"reference", ErrReference("x"), http.StatusBadRequest},
		{"authentication", ErrAuthentication("x"), http.StatusUnauthorized},
		{"authorization", ErrAuthorization("x"), http.StatusForbidden},
		{"unsupported", ErrUnsupported("x"), http.StatusNotImplemented},
		{"backend", ErrBackend("x", nil), http.StatusBadGateway},
		{"unknown kind", NewError(Kind("other"), "x"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.HTTPStatusCode(); got != tt.expected {
				t.Errorf("HTTPStatusCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestError_WithField(t *testing.T) {
	err := ErrValidation("Missing tag").WithField("tag")
	if err.Field != "tag" {
		t.Errorf("Field = %q, want tag", err.Field)
	}
}

func TestKindOf(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := fmt.Errorf("submit: %w", ErrBackend("ledger unreachable", cause))

	if got := KindOf(wrapped); got != KindBackend {
		t.Errorf("KindOf(wrapped) = %q, want %q", got, KindBackend)
	}
	if !errors.Is(wrapped, cause) {
		t.Error("expected backend error to unwrap to its cause")
	}
	if got := KindOf(errors.New("plain")); got != "" {
		t.Errorf("KindOf(plain) = %q, want empty", got)
	}
	if got := KindOf(nil); got != "" {
		t.Errorf("KindOf(nil) = %q, want empty", got)
	}
}
