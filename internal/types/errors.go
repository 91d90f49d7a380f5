package types

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors and
// result warnings. Handlers and services use these constants instead of
// hardcoded strings.
type ErrorCode string

const (
	// Validation (400)
	ErrCodeValidationMissingField     ErrorCode = "validation_missing_required_field"
	ErrCodeValidationInvalidBody      ErrorCode = "validation_invalid_body"
	ErrCodeValidationInvalidGranule   ErrorCode = "validation_invalid_granularity"
	ErrCodeValidationInvalidHorizon   ErrorCode = "validation_invalid_horizon"
	ErrCodeValidationInvalidRelevance ErrorCode = "validation_invalid_relevance"
	ErrCodeValidationInvalidType      ErrorCode = "validation_invalid_article_type"
	ErrCodeValidationInvalidJSON      ErrorCode = "validation_invalid_json"
	ErrCodeValidationFailed           ErrorCode = "validation_failed"

	// Not Found (404)
	ErrCodeNotFoundModel  ErrorCode = "not_found_model"
	ErrCodeNotFoundResult ErrorCode = "not_found_result"

	// Conflict (409)
	ErrCodeConflictNoConfig ErrorCode = "conflict_no_session_config"

	// Degraded-but-valid conditions. These never surface as HTTP errors;
	// they travel as ResultWarning codes or result statuses.
	ErrCodeInsufficientData ErrorCode = "insufficient_data"
	ErrCodeNoTriggerEvents  ErrorCode = "no_trigger_events"
	ErrCodeDataScarcity     ErrorCode = "data_scarcity"

	// Upstream (502)
	ErrCodeUpstreamFeed ErrorCode = "upstream_feed_unavailable"

	// Internal (500)
	ErrCodeInternalStore      ErrorCode = "internal_store_error"
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
)

// HTTPStatus maps an ErrorCode to its corresponding HTTP status code.
// Returns 500 for unrecognized codes as a safe default.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest
	case strings.HasPrefix(s, "not_found_"):
		return http.StatusNotFound
	case strings.HasPrefix(s, "conflict_"):
		return http.StatusConflict
	case c == ErrCodeInsufficientData:
		return http.StatusUnprocessableEntity
	case strings.HasPrefix(s, "upstream_"):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the standard application error type. All domain and handler
// errors are expressed as AppError to enable consistent formatting, HTTP
// status mapping, and error chain support.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code corresponding to this error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// NewAppError creates a new AppError with the given code, message, and
// optional underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAppErrorWithDetails creates a new AppError carrying structured details.
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}

// HasCode reports whether err is (or wraps) an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsModelNotFound reports whether err signals that inference was attempted
// before any model was trained and persisted. Callers use this to prompt
// "train first" rather than treating it as a generic failure.
func IsModelNotFound(err error) bool {
	return HasCode(err, ErrCodeNotFoundModel)
}
