package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskchat/taskchat-api/internal/domain"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	// Create saves a new user. The user's password must already be hashed.
	// Returns ErrEmailExists if the email is already registered.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by email address.
	// Returns ErrUserNotFound if no user has that email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update saves changes to an existing user's email and credentials.
	// Returns ErrUserNotFound if the user does not exist, or
	// ErrEmailExists if the new email is already registered.
	Update(ctx context.Context, user *domain.User) error

	// WithTx returns a UserStore bound to the given transaction.
	WithTx(tx *sql.Tx) UserStore
}
