package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskchat/taskchat-api/internal/domain"
	"github.com/taskchat/taskchat-api/internal/store"
)

// CreateTaskParams carries the fields accepted when creating a task.
type CreateTaskParams struct {
	Title       string
	Description string
	Priority    string
	DueDate     *time.Time
}

// UpdateTaskParams carries the optional fields of a task update. Nil
// pointers leave the corresponding field unchanged.
type UpdateTaskParams struct {
	Title       *string
	Description *string
	Priority    *string
	DueDate     *time.Time
	Completed   *bool
}

// TaskService provides task CRUD on top of the store, keeping the
// user-scoping rule in one place for the HTTP handlers.
type TaskService struct {
	tasks  store.TaskStore
	logger *slog.Logger
}

// NewTaskService creates a TaskService.
func NewTaskService(tasks store.TaskStore, log *slog.Logger) *TaskService {
	if log == nil {
		log = slog.Default()
	}
	return &TaskService{
		tasks:  tasks,
		logger: log.With(slog.String("component", "task_service")),
	}
}

// Create validates and persists a new task for the user.
func (s *TaskService) Create(ctx context.Context, userID uuid.UUID, params CreateTaskParams) (*domain.Task, error) {
	task, err := domain.NewTask(userID, params.Title, params.Description)
	if err != nil {
		return nil, err
	}

	if params.Priority != "" {
		task.Priority = domain.TaskPriority(params.Priority)
		if err := task.Validate(); err != nil {
			return nil, err
		}
	}
	task.DueDate = params.DueDate

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	return task, nil
}

// Get retrieves a single task scoped to the user.
func (s *TaskService) Get(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error) {
	return s.tasks.GetByID(ctx, id, userID)
}

// List retrieves the user's tasks matching the filter.
func (s *TaskService) List(ctx context.Context, userID uuid.UUID, filter store.TaskStatusFilter) ([]*domain.Task, error) {
	switch filter {
	case store.TaskFilterAll, store.TaskFilterPending, store.TaskFilterCompleted, "":
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidTaskFilter, filter)
	}
	if filter == "" {
		filter = store.TaskFilterAll
	}
	return s.tasks.ListByUser(ctx, userID, filter)
}

// Update applies a partial update to one of the user's tasks and
// returns the updated task.
func (s *TaskService) Update(ctx context.Context, id, userID uuid.UUID, params UpdateTaskParams) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if params.Title != nil {
		task.Title = *params.Title
	}
	if params.Description != nil {
		task.Description = *params.Description
	}
	if params.Priority != nil {
		task.Priority = domain.TaskPriority(*params.Priority)
	}
	if params.DueDate != nil {
		task.DueDate = params.DueDate
	}
	if params.Completed != nil {
		task.Completed = *params.Completed
	}
	task.UpdatedAt = time.Now().UTC()

	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("updating task: %w", err)
	}

	return task, nil
}

// Complete marks one of the user's tasks as done and returns it.
func (s *TaskService) Complete(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error) {
	return s.tasks.SetCompleted(ctx, id, userID, true)
}

// Delete removes one of the user's tasks.
func (s *TaskService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return s.tasks.Delete(ctx, id, userID)
}
