package api

import (
	"errors"
	"net/http"

	"github.com/streakr/streakr-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case store.IsNotFoundError(err):
		return http.StatusNotFound

	case store.IsDuplicateError(err),
		errors.Is(err, store.ErrInvalidTransition):
		return http.StatusConflict

	case errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-facing error message based on
// the error type, so raw infrastructure errors never reach callers.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"
	case store.IsNotFoundError(err):
		return "Not found"
	case store.IsDuplicateError(err):
		return "Already exists"
	case errors.Is(err, store.ErrInvalidTransition):
		return "Task is not in a state that allows this operation"
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request"
	default:
		return "An internal error occurred"
	}
}
