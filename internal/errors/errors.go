// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Standard sentinel errors
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrEmailNotVerified = errors.New("email not verified")
	ErrCSRFMismatch     = errors.New("csrf token mismatch")
	ErrConnectionFailed = errors.New("connection failed")
	ErrDataNotFound     = errors.New("data not found")
	ErrInputValidation  = errors.New("input validation failed")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrDatabaseError    = errors.New("database error")
)

// APIError represents a non-2xx response from the journal backend.
type APIError struct {
	Status  int
	Method  string
	Path    string
	Message string
	Err     error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("api error [%d] %s %s: %s", e.Status, e.Method, e.Path, msg)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewAPIError creates a new APIError and attaches the sentinel matching the
// status code, if any.
func NewAPIError(status int, method, path, message string) *APIError {
	return &APIError{
		Status:  status,
		Method:  method,
		Path:    path,
		Message: message,
		Err:     sentinelForStatus(status),
	}
}

func sentinelForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrNotAuthenticated
	case http.StatusConflict:
		return ErrEmailNotVerified
	case 419: // Laravel "page expired"
		return ErrCSRFMismatch
	case http.StatusNotFound:
		return ErrDataNotFound
	case http.StatusUnprocessableEntity:
		return ErrInputValidation
	}
	return nil
}

// ValidationError represents a validation error caught before any request
// is sent.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInputValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// DataError represents a cache or decoding error.
type DataError struct {
	DataType string
	Key      string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Key, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Key, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, key, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Key:      key,
		Message:  message,
		Err:      err,
	}
}

// UserMessage turns an error into the one-line banner shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
	}

	var ae *APIError
	if errors.As(err, &ae) {
		switch {
		case errors.Is(ae, ErrNotAuthenticated):
			return "Your session has ended. Please sign in again."
		case errors.Is(ae, ErrEmailNotVerified):
			return "Please verify your email address before continuing."
		case errors.Is(ae, ErrCSRFMismatch):
			return "Security token expired. Please try again."
		}
		if strings.TrimSpace(ae.Message) != "" {
			return ae.Message
		}
		return fmt.Sprintf("Request failed (%d %s)", ae.Status, http.StatusText(ae.Status))
	}

	if errors.Is(err, ErrConnectionFailed) {
		return "Could not reach the journal server. Check your connection and try again."
	}

	if errors.Is(err, ErrDatabaseError) {
		return "The local cache could not be read or written."
	}

	return err.Error()
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
