package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskPriority is an optional urgency label on a task.
type TaskPriority string

// Possible task priority values. The empty string means no priority set.
const (
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityLow    TaskPriority = "low"
)

// Common validation errors for Task
var (
	ErrEmptyTaskID       = errors.New("task ID cannot be empty")
	ErrEmptyTaskUserID   = errors.New("task user ID cannot be empty")
	ErrEmptyTaskTitle    = errors.New("task title cannot be empty")
	ErrTaskTitleTooLong  = errors.New("task title exceeds maximum length")
	ErrInvalidPriority   = errors.New("invalid task priority")
)

// MaxTaskTitleLength bounds task titles at a display-friendly size.
const MaxTaskTitleLength = 200

// Task is a single to-do item owned by exactly one user. All reads and
// mutations must be scoped by UserID; a task is never visible to or
// modifiable by another user.
type Task struct {
	ID          uuid.UUID    `json:"id"`
	UserID      uuid.UUID    `json:"user_id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Completed   bool         `json:"completed"`
	Priority    TaskPriority `json:"priority,omitempty"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewTask creates a pending Task owned by the given user.
// Returns an error if validation fails.
func NewTask(userID uuid.UUID, title, description string) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.UserID == uuid.Nil {
		return ErrEmptyTaskUserID
	}

	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTaskTitle
	}

	if len(t.Title) > MaxTaskTitleLength {
		return ErrTaskTitleTooLong
	}

	if !isValidPriority(t.Priority) {
		return ErrInvalidPriority
	}

	return nil
}

// Complete marks the task as done and bumps the update timestamp.
func (t *Task) Complete() {
	t.Completed = true
	t.UpdatedAt = time.Now().UTC()
}

// isValidPriority checks if the given priority is valid. The empty
// string is allowed and means no priority was assigned.
func isValidPriority(p TaskPriority) bool {
	switch p {
	case "", TaskPriorityHigh, TaskPriorityMedium, TaskPriorityLow:
		return true
	default:
		return false
	}
}
