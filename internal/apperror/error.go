package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// AppError carries a stable code and the HTTP status it maps to.
type AppError struct {
	Code       Code   `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Context    string `json:"context,omitempty"`
	cause      error
}

func (e *AppError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Context)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches on code so callers can compare against a template error.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// ToResponse serializes the error for an HTTP JSON body.
func (e *AppError) ToResponse() map[string]any {
	body := map[string]any{
		"code":    e.Code,
		"message": e.Message,
	}
	if e.Context != "" {
		body["context"] = e.Context
	}
	return map[string]any{"error": body}
}

// Option is a functional option for AppError.
type Option func(*AppError)

func WithMessage(message string) Option {
	return func(e *AppError) { e.Message = message }
}

func WithContext(context string) Option {
	return func(e *AppError) { e.Context = context }
}

func withStatusCode(statusCode int) Option {
	return func(e *AppError) { e.StatusCode = statusCode }
}

func WithCause(cause error) Option {
	return func(e *AppError) { e.cause = cause }
}

// New creates an AppError with the default message and status for code.
func New(code Code, opts ...Option) *AppError {
	err := &AppError{
		Code:       code,
		Message:    messages[code],
		StatusCode: defaultStatusCode(code),
	}
	for _, opt := range opts {
		opt(err)
	}
	if err.Message == "" {
		err.Message = string(code)
	}
	return err
}

// Validation creates a 400 error.
func Validation(code Code, context string) *AppError {
	return New(code, WithContext(context), withStatusCode(http.StatusBadRequest))
}

// NotFound creates a 404 error.
func NotFound(code Code, context string) *AppError {
	return New(code, WithContext(context), withStatusCode(http.StatusNotFound))
}

// Internal creates a 500 error wrapping cause.
func Internal(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause), withStatusCode(http.StatusInternalServerError))
}

// External creates a 503 error for a failed collaborator call.
func External(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause), withStatusCode(http.StatusServiceUnavailable))
}

// Wrap converts err into an AppError, keeping an existing one intact.
func Wrap(err error, code Code, context string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if context != "" && appErr.Context == "" {
			appErr.Context = context
		}
		return appErr
	}

	return Internal(code, context, err)
}

// GetCode extracts the code from err, or CodeUnknownError.
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknownError
}

func defaultStatusCode(code Code) int {
	switch {
	case strings.Contains(string(code), "NOT_FOUND"):
		return http.StatusNotFound
	case strings.Contains(string(code), "INVALID"), code == CodeValidationError, code == CodeRequiredField:
		return http.StatusBadRequest
	case code == CodeExtractionFailed, code == CodeGenerationFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
