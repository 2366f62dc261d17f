package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCodeInvalidConfig, "columns must be positive, got %d", 0)
	if want := "INVALID_CONFIG: columns must be positive, got 0"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	cause := errors.New("connection refused")
	wrapped := Wrap(ErrCodeNetwork, cause, "fetch %s", "http://cms:1337")
	if want := "NETWORK_ERROR: fetch http://cms:1337: connection refused"; wrapped.Error() != want {
		t.Errorf("Error() = %q, want %q", wrapped.Error(), want)
	}
	if errors.Unwrap(wrapped) != cause || !errors.Is(wrapped, cause) {
		t.Error("Wrap must keep the cause reachable")
	}
}

func TestCodeLookup(t *testing.T) {
	suppressed := New(ErrCodeConflict, "click suppressed")

	tests := []struct {
		name     string
		err      error
		code     Code
		wantIs   bool
		wantCode Code
		wantMsg  string
	}{
		{"coded", suppressed, ErrCodeConflict, true, ErrCodeConflict, "click suppressed"},
		{"other code", suppressed, ErrCodeNotFound, false, ErrCodeConflict, "click suppressed"},
		{"fmt wrapped", fmt.Errorf("tick: %w", suppressed), ErrCodeConflict, true, ErrCodeConflict, "click suppressed"},
		{"outer code wins", Wrap(ErrCodeNetwork, New(ErrCodeInvalidItem, "inner"), "outer"), ErrCodeNetwork, true, ErrCodeNetwork, "outer"},
		{"plain", errors.New("plain error"), ErrCodeInternal, false, "", "plain error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.wantIs {
				t.Errorf("Is(%s) = %v, want %v", tt.code, got, tt.wantIs)
			}
			if got := GetCode(tt.err); got != tt.wantCode {
				t.Errorf("GetCode() = %q, want %q", got, tt.wantCode)
			}
			if got := UserMessage(tt.err); got != tt.wantMsg {
				t.Errorf("UserMessage() = %q, want %q", got, tt.wantMsg)
			}
		})
	}

	if Is(nil, ErrCodeInternal) || GetCode(nil) != "" {
		t.Error("nil error has no code")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{ErrCodeInvalidInput, 400},
		{ErrCodeInvalidConfig, 400},
		{ErrCodeInvalidItem, 400},
		{ErrCodeInvalidURL, 400},
		{ErrCodeUnauthorized, 401},
		{ErrCodeNotFound, 404},
		{ErrCodeConflict, 409},
		{ErrCodeRateLimited, 429},
		{ErrCodeUnsupported, 501},
		{ErrCodeNetwork, 502},
		{ErrCodeTimeout, 502},
		{ErrCodeInternal, 500},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := HTTPStatus(New(tt.code, "x")); got != tt.want {
				t.Errorf("HTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
	if got := HTTPStatus(errors.New("boom")); got != 500 {
		t.Errorf("plain error status = %d, want 500", got)
	}
}
