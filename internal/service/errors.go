package service

import "errors"

// Common service errors.
var (
	// ErrConversationNotOwned is returned when a user references a
	// conversation that exists but belongs to someone else. Detected
	// before any model call is made.
	ErrConversationNotOwned = errors.New("conversation not owned by user")

	// ErrEmptyMessage is returned when a chat message is empty after
	// trimming whitespace.
	ErrEmptyMessage = errors.New("message cannot be empty")

	// ErrMessageTooLong is returned when a chat message exceeds the
	// maximum length after trimming.
	ErrMessageTooLong = errors.New("message exceeds maximum length")

	// ErrInvalidTaskFilter is returned for an unrecognized task status
	// filter value.
	ErrInvalidTaskFilter = errors.New("invalid task status filter")

	// ErrCurrentPasswordRequired is returned when a profile update asks
	// for a new password without supplying the current one.
	ErrCurrentPasswordRequired = errors.New("current password required to change password")

	// ErrCurrentPasswordIncorrect is returned when the current password
	// supplied with a password change does not match.
	ErrCurrentPasswordIncorrect = errors.New("current password is incorrect")
)
