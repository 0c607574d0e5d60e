package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	// Entity-specific variants below wrap it so callers can match either.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g. a user with the same email).
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation or
	// violates a relational constraint before being stored.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrConnectionFailed is returned when the database cannot be reached
	// at all. The API boundary maps this to 503 rather than 500 so
	// clients can distinguish an outage from a bug.
	ErrConnectionFailed = errors.New("database connection failed")

	// ErrConstraintViolation is returned for integrity violations
	// (foreign key, check, not-null). Unique violations surface as
	// ErrDuplicate or an entity-specific variant instead.
	ErrConstraintViolation = errors.New("constraint violation")

	// Entity-specific "not found" errors

	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// ErrTaskNotFound indicates that the requested task does not exist
	// or is not owned by the requesting user.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)

	// ErrConversationNotFound indicates that the requested conversation
	// does not exist.
	ErrConversationNotFound = fmt.Errorf("%w: conversation", ErrNotFound)

	// ErrEmailExists indicates that a user with the given email already exists.
	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConnectionError checks if the error indicates the database is
// unreachable.
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnectionFailed)
}

// IsConstraintError checks if the error is any kind of integrity
// violation, including duplicates.
func IsConstraintError(err error) bool {
	return errors.Is(err, ErrConstraintViolation) || errors.Is(err, ErrDuplicate)
}
