package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskchat/taskchat-api/internal/domain"
)

// TaskStatusFilter restricts task listings by completion state.
type TaskStatusFilter string

// Possible task status filter values.
const (
	TaskFilterAll       TaskStatusFilter = "all"
	TaskFilterPending   TaskStatusFilter = "pending"
	TaskFilterCompleted TaskStatusFilter = "completed"
)

// TaskStore defines the interface for task persistence. Every operation
// is scoped by the owning user's ID: a task belonging to another user
// behaves exactly as if it did not exist.
type TaskStore interface {
	// Create saves a new task.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by ID, scoped to the given user.
	// Returns ErrTaskNotFound if the task does not exist or belongs to
	// a different user.
	GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error)

	// ListByUser retrieves the user's tasks matching the filter, ordered
	// by due date (nulls last) then creation time descending.
	ListByUser(ctx context.Context, userID uuid.UUID, filter TaskStatusFilter) ([]*domain.Task, error)

	// Update saves changes to an existing task, scoped to the given user.
	// Returns ErrTaskNotFound if the task does not exist or belongs to
	// a different user.
	Update(ctx context.Context, task *domain.Task) error

	// SetCompleted updates the completion flag of a task, scoped to the
	// given user. Returns the updated task, or ErrTaskNotFound.
	SetCompleted(ctx context.Context, id, userID uuid.UUID, completed bool) (*domain.Task, error)

	// Delete removes a task, scoped to the given user.
	// Returns ErrTaskNotFound if the task does not exist or belongs to
	// a different user.
	Delete(ctx context.Context, id, userID uuid.UUID) error

	// WithTx returns a TaskStore bound to the given transaction.
	WithTx(tx *sql.Tx) TaskStore
}
