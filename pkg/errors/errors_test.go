package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name:     "with status code",
			err:      &Error{Type: ErrorTypeRateLimit, Message: "too many requests", Code: 429},
			contains: []string{"rate_limit", "429", "too many requests"},
		},
		{
			name:     "without code",
			err:      New(ErrorTypeValidation, "empty file"),
			contains: []string{"validation", "empty file"},
		},
		{
			name:     "wrapped cause",
			err:      Wrap(ErrorTypePersistence, "save checkpoint", fmt.Errorf("disk full")),
			contains: []string{"persistence", "save checkpoint", "disk full"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("Error() = %q, want substring %q", msg, want)
				}
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := Wrap(ErrorTypeNetwork, "request failed", cause)

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}

	var typed *Error
	if !stderrors.As(fmt.Errorf("outer: %w", err), &typed) {
		t.Fatal("errors.As should find *Error through wrapping")
	}
	if typed.Type != ErrorTypeNetwork {
		t.Errorf("unwrapped type = %s, want %s", typed.Type, ErrorTypeNetwork)
	}
}

func TestGetType(t *testing.T) {
	if got := GetType(New(ErrorTypeTimeout, "deadline hit")); got != ErrorTypeTimeout {
		t.Errorf("GetType = %s, want %s", got, ErrorTypeTimeout)
	}
	if got := GetType(fmt.Errorf("plain")); got != ErrorTypeUnknown {
		t.Errorf("GetType = %s, want %s", got, ErrorTypeUnknown)
	}

	wrapped := fmt.Errorf("3 attempts failed: %w", New(ErrorTypeServerError, "upstream 503"))
	if got := GetType(wrapped); got != ErrorTypeServerError {
		t.Errorf("GetType through wrapping = %s, want %s", got, ErrorTypeServerError)
	}
	if !IsType(wrapped, ErrorTypeServerError) {
		t.Error("IsType should match through wrapping")
	}
	if IsType(wrapped, ErrorTypeAuth) {
		t.Error("IsType matched the wrong type")
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := []ErrorType{ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError}
	for _, et := range retryable {
		if !IsRetryable(et) {
			t.Errorf("IsRetryable(%s) = false, want true", et)
		}
	}

	permanent := []ErrorType{
		ErrorTypeAuth, ErrorTypeNotFound, ErrorTypeParsing, ErrorTypeBadRequest,
		ErrorTypeTimeout, ErrorTypeTask, ErrorTypeValidation, ErrorTypeImage,
		ErrorTypePersistence, ErrorTypeCheckpointCorrupt, ErrorTypeUnknown,
	}
	for _, et := range permanent {
		if IsRetryable(et) {
			t.Errorf("IsRetryable(%s) = true, want false", et)
		}
	}
}

func TestIsRetryableStatusCode(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{0, true},
		{429, true},
		{500, true},
		{502, true},
		{503, true},
		{504, true},
		{599, true},
		{400, false},
		{401, false},
		{403, false},
		{404, false},
		{200, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("code_%d", tt.code), func(t *testing.T) {
			if got := IsRetryableStatusCode(tt.code); got != tt.want {
				t.Errorf("IsRetryableStatusCode(%d) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}
