package errors

import (
	"fmt"
	"net/http"
)

const (
	CodeNotFound        = "NOT_FOUND"
	CodeValidation      = "VALIDATION_ERROR"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeRateLimited     = "RATE_LIMITED"
	CodeSlotUnavailable = "SLOT_UNAVAILABLE"
	CodeNotConfigured   = "NOT_CONFIGURED"
	CodeUpstream        = "UPSTREAM_CALENDAR"
	CodeInternal        = "INTERNAL_ERROR"
)

// AppError carries a stable machine code, a user-safe message and the HTTP
// status it maps to. The wrapped cause is logged, never serialized.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

func Validation(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    details,
	}
}

func InvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// RateLimited is returned when a requester exhausts the booking attempt
// window. The message is part of the public contract.
func RateLimited() *AppError {
	return &AppError{
		Code:       CodeRateLimited,
		Message:    "Too many booking attempts",
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// SlotUnavailable covers both a lost lock race and a busy-interval conflict
// found during the re-check. Callers cannot distinguish the two on purpose.
func SlotUnavailable() *AppError {
	return &AppError{
		Code:       CodeSlotUnavailable,
		Message:    "Selected time is not available",
		HTTPStatus: http.StatusConflict,
	}
}

func NotConfigured() *AppError {
	return &AppError{
		Code:       CodeNotConfigured,
		Message:    "No booking calendar configured",
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// Upstream wraps a calendar-provider failure. The raw cause stays internal;
// users get a generic message.
func Upstream(err error) *AppError {
	return &AppError{
		Code:       CodeUpstream,
		Message:    "Unable to reach the booking calendar",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func AsAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}
