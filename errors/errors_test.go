package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorString(t *testing.T) {
	err := InvalidInput("Test.Op", nil, "test message")
	if err.Error() != "test message" {
		t.Errorf("expected 'test message', got '%s'", err.Error())
	}

	wrapped := Internal("Test.Op", fmt.Errorf("cause error"), "test message")
	expected := "test message: cause error"
	if wrapped.Error() != expected {
		t.Errorf("expected '%s', got '%s'", expected, wrapped.Error())
	}
}

func TestKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
		code int
	}{
		{"invalid url", InvalidURL("op", nil, "bad"), ErrInvalidURL, http.StatusBadRequest},
		{"unavailable", Unavailable("op", nil, "none"), ErrProviderUnavailable, http.StatusServiceUnavailable},
		{"no transcript", NoTranscript("op", nil, "none"), ErrNoTranscript, http.StatusNotFound},
		{"summarization", Summarization("op", fmt.Errorf("boom"), "failed"), ErrSummarization, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !stderrors.Is(tt.err, tt.kind) {
				t.Errorf("expected errors.Is(%v, %v) to be true", tt.err, tt.kind)
			}
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if !stderrors.Is(wrapped, tt.kind) {
				t.Errorf("expected kind to survive wrapping")
			}
			if got := Code(wrapped); got != tt.code {
				t.Errorf("expected code %d, got %d", tt.code, got)
			}
		})
	}
}

func TestKindDoesNotLeak(t *testing.T) {
	err := Internal("op", nil, "plain")
	for _, kind := range []error{ErrInvalidURL, ErrProviderUnavailable, ErrNoTranscript, ErrSummarization} {
		if stderrors.Is(err, kind) {
			t.Errorf("internal error should not match %v", kind)
		}
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Summarization("op", cause, "failed")
	if !stderrors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"not found error", NotFound("op", nil, "not found"), true},
		{"no transcript", NoTranscript("op", nil, "none"), true},
		{"other error", InvalidInput("op", nil, "bad request"), false},
		{"non-custom error", fmt.Errorf("standard error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestCodeDefault(t *testing.T) {
	if got := Code(fmt.Errorf("plain")); got != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", got)
	}
}
