package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestNewAPIError_Sentinels(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrNotAuthenticated},
		{http.StatusConflict, ErrEmailNotVerified},
		{419, ErrCSRFMismatch},
		{http.StatusNotFound, ErrDataNotFound},
		{http.StatusUnprocessableEntity, ErrInputValidation},
	}

	for _, tt := range tests {
		err := NewAPIError(tt.status, http.MethodGet, "/api/me", "")
		if !Is(err, tt.want) {
			t.Errorf("status %d: expected %v in chain", tt.status, tt.want)
		}
	}

	if err := NewAPIError(http.StatusInternalServerError, "GET", "/api/trades", "boom"); err.Unwrap() != nil {
		t.Errorf("500 should carry no sentinel, got %v", err.Unwrap())
	}
}

func TestUserMessage(t *testing.T) {
	wrapped := fmt.Errorf("fetch trades: %w", NewAPIError(http.StatusUnauthorized, "GET", "/api/trades", ""))
	if got := UserMessage(wrapped); !strings.Contains(got, "sign in") {
		t.Errorf("expected sign-in hint, got %q", got)
	}

	if got := UserMessage(NewAPIError(http.StatusConflict, "GET", "/api/me", "")); !strings.Contains(got, "verify") {
		t.Errorf("expected verify hint, got %q", got)
	}

	if got := UserMessage(NewAPIError(http.StatusBadRequest, "POST", "/api/journal", "Date is required")); got != "Date is required" {
		t.Errorf("expected backend message, got %q", got)
	}

	if got := UserMessage(NewAPIError(http.StatusBadGateway, "GET", "/api/trades", "")); !strings.Contains(got, "502") {
		t.Errorf("expected status in message, got %q", got)
	}

	if got := UserMessage(NewValidationError("email", "x", "invalid email address")); got != "email: invalid email address" {
		t.Errorf("unexpected validation message %q", got)
	}

	if got := UserMessage(Wrap(ErrConnectionFailed, "GET /api/me")); !strings.Contains(got, "Could not reach") {
		t.Errorf("unexpected connection message %q", got)
	}

	dbErr := Wrapf(fmt.Errorf("%w: disk I/O error", ErrDatabaseError), "failed to query %s", "trades")
	if got := UserMessage(dbErr); !strings.Contains(got, "local cache") {
		t.Errorf("unexpected database message %q", got)
	}

	if UserMessage(nil) != "" {
		t.Error("nil error should produce empty message")
	}
}

func TestValidationErrorUnwrap(t *testing.T) {
	err := Wrapf(NewValidationError("password", "", "too short"), "register")
	if !Is(err, ErrInputValidation) {
		t.Error("validation errors should match ErrInputValidation")
	}
	var ve *ValidationError
	if !stderrors.As(err, &ve) || ve.Field != "password" {
		t.Errorf("expected ValidationError for password, got %v", ve)
	}
}
