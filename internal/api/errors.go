package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/taskchat/taskchat-api/internal/agent"
	"github.com/taskchat/taskchat-api/internal/api/shared"
	"github.com/taskchat/taskchat-api/internal/domain"
	"github.com/taskchat/taskchat-api/internal/queue"
	"github.com/taskchat/taskchat-api/internal/service"
	"github.com/taskchat/taskchat-api/internal/service/auth"
	"github.com/taskchat/taskchat-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes. This
// is the single translation point between the error taxonomy and the
// outward API, so internal error types never leak to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrConversationNotOwned):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrEmailExists):
		return http.StatusConflict

	// Back-pressure: per-user queue is saturated
	case errors.Is(err, queue.ErrQueueFull):
		return http.StatusTooManyRequests

	// Request did not finish within the processing window
	case errors.Is(err, queue.ErrTimeout),
		errors.Is(err, agent.ErrModelTimeout):
		return http.StatusGatewayTimeout

	// Upstream model failures
	case errors.Is(err, agent.ErrModelRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, agent.ErrModelAuth):
		// Server misconfiguration, not the client's fault.
		return http.StatusInternalServerError
	case errors.Is(err, agent.ErrModelFailure):
		return http.StatusBadGateway

	// Storage failures
	case errors.Is(err, store.ErrConnectionFailed):
		return http.StatusServiceUnavailable
	case errors.Is(err, store.ErrConstraintViolation),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Validation errors
	case errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrMessageTooLong),
		errors.Is(err, service.ErrInvalidTaskFilter),
		errors.Is(err, service.ErrCurrentPasswordRequired),
		errors.Is(err, service.ErrCurrentPasswordIncorrect),
		errors.Is(err, domain.ErrEmptyTaskTitle),
		errors.Is(err, domain.ErrTaskTitleTooLong),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrEmptyEmail),
		errors.Is(err, domain.ErrPasswordTooShort),
		errors.Is(err, domain.ErrPasswordTooLong),
		errors.Is(err, domain.ErrEmptyMessageContent),
		errors.Is(err, domain.ErrMessageContentTooLong):
		return http.StatusBadRequest

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. Raw error strings are logged server-side
// only.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid refresh token"

	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid email or password"

	case errors.Is(err, service.ErrConversationNotOwned):
		return "You do not own this conversation"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, store.ErrConversationNotFound):
		return "Conversation not found"

	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"

	case errors.Is(err, queue.ErrQueueFull):
		return "Too many pending requests, please try again shortly"

	case errors.Is(err, queue.ErrTimeout),
		errors.Is(err, agent.ErrModelTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return "Request timed out, please try again"

	case errors.Is(err, agent.ErrModelRateLimited):
		return "The assistant is receiving too many requests, please try again shortly"

	case errors.Is(err, agent.ErrModelAuth),
		errors.Is(err, agent.ErrModelFailure):
		return "The assistant is temporarily unavailable"

	case errors.Is(err, store.ErrConnectionFailed):
		return "Service temporarily unavailable"

	case errors.Is(err, service.ErrEmptyMessage):
		return "Message cannot be empty"

	case errors.Is(err, service.ErrMessageTooLong):
		return "Message is too long"

	case errors.Is(err, service.ErrInvalidTaskFilter):
		return "Invalid status filter"

	case errors.Is(err, service.ErrCurrentPasswordRequired):
		return "Current password is required to set a new password"

	case errors.Is(err, service.ErrCurrentPasswordIncorrect):
		return "Current password is incorrect"

	case errors.Is(err, domain.ErrEmptyTaskTitle):
		return "Task title cannot be empty"

	case errors.Is(err, domain.ErrTaskTitleTooLong):
		return "Task title is too long"

	case errors.Is(err, domain.ErrInvalidPriority):
		return "Invalid task priority"

	case errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrEmptyEmail):
		return "Invalid email address"

	case errors.Is(err, domain.ErrPasswordTooShort):
		return "Password must be at least 8 characters"

	case errors.Is(err, domain.ErrPasswordTooLong):
		return "Password must be at most 72 characters"

	case errors.Is(err, store.ErrConstraintViolation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	default:
		return "An unexpected error occurred"
	}
}

// RespondWithMappedError is the standard failure path for handlers: it
// maps the error to a status code and a safe message, logs the detail,
// and writes the response.
func RespondWithMappedError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
