package tasktools

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskchat/taskchat-api/internal/agent"
	"github.com/taskchat/taskchat-api/internal/domain"
	"github.com/taskchat/taskchat-api/internal/store"
)

// fakeTaskStore is an in-memory TaskStore with per-user scoping.
type fakeTaskStore struct {
	tasks map[uuid.UUID]*domain.Task
	err   error
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

func (f *fakeTaskStore) Create(_ context.Context, task *domain.Task) error {
	if f.err != nil {
		return f.err
	}
	copied := *task
	f.tasks[task.ID] = &copied
	return nil
}

func (f *fakeTaskStore) GetByID(_ context.Context, id, userID uuid.UUID) (*domain.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	task, ok := f.tasks[id]
	if !ok || task.UserID != userID {
		return nil, store.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (f *fakeTaskStore) ListByUser(_ context.Context, userID uuid.UUID, filter store.TaskStatusFilter) ([]*domain.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Task
	for _, task := range f.tasks {
		if task.UserID != userID {
			continue
		}
		if filter == store.TaskFilterPending && task.Completed {
			continue
		}
		if filter == store.TaskFilterCompleted && !task.Completed {
			continue
		}
		copied := *task
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeTaskStore) Update(_ context.Context, task *domain.Task) error {
	if f.err != nil {
		return f.err
	}
	existing, ok := f.tasks[task.ID]
	if !ok || existing.UserID != task.UserID {
		return store.ErrTaskNotFound
	}
	copied := *task
	f.tasks[task.ID] = &copied
	return nil
}

func (f *fakeTaskStore) SetCompleted(_ context.Context, id, userID uuid.UUID, completed bool) (*domain.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	task, ok := f.tasks[id]
	if !ok || task.UserID != userID {
		return nil, store.ErrTaskNotFound
	}
	task.Completed = completed
	copied := *task
	return &copied, nil
}

func (f *fakeTaskStore) Delete(_ context.Context, id, userID uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	task, ok := f.tasks[id]
	if !ok || task.UserID != userID {
		return store.ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeTaskStore) WithTx(_ *sql.Tx) store.TaskStore { return f }

func setup(t *testing.T) (*agent.Registry, *fakeTaskStore) {
	t.Helper()
	registry := agent.NewRegistry()
	tasks := newFakeTaskStore()
	require.NoError(t, RegisterAll(registry, tasks))
	return registry, tasks
}

func TestRegisterAll_ToolNames(t *testing.T) {
	registry, _ := setup(t)

	var names []string
	for _, spec := range registry.Specs() {
		names = append(names, spec.Name)
	}
	assert.Equal(t, []string{"add_task", "list_tasks", "complete_task", "update_task", "delete_task"}, names)
}

func TestAddTask(t *testing.T) {
	registry, tasks := setup(t)
	userID := uuid.New()

	out, err := registry.Execute(context.Background(), userID, "add_task", map[string]any{
		"title":       "buy milk",
		"description": "2 liters",
		"priority":    "high",
		"due_date":    "2026-09-15",
	})

	require.NoError(t, err)
	assert.Equal(t, "success", out["status"])

	payload := out["task"].(map[string]any)
	assert.Equal(t, "buy milk", payload["title"])
	assert.Equal(t, "high", payload["priority"])
	assert.Equal(t, "2026-09-15", payload["due_date"])

	require.Len(t, tasks.tasks, 1)
	for _, task := range tasks.tasks {
		assert.Equal(t, userID, task.UserID)
		assert.False(t, task.Completed)
	}
}

func TestAddTask_MissingTitle(t *testing.T) {
	registry, _ := setup(t)

	out, err := registry.Execute(context.Background(), uuid.New(), "add_task", map[string]any{})

	require.NoError(t, err)
	assert.Equal(t, "failed", out["status"])
	assert.Contains(t, out["error"], "title")
}

func TestAddTask_BadDueDate(t *testing.T) {
	registry, _ := setup(t)

	out, err := registry.Execute(context.Background(), uuid.New(), "add_task", map[string]any{
		"title":    "x",
		"due_date": "next tuesday",
	})

	require.NoError(t, err)
	assert.Equal(t, "failed", out["status"])
}

func TestListTasks_StatusFilter(t *testing.T) {
	registry, tasks := setup(t)
	userID := uuid.New()

	pending, err := domain.NewTask(userID, "pending one", "")
	require.NoError(t, err)
	done, err := domain.NewTask(userID, "done one", "")
	require.NoError(t, err)
	done.Completed = true
	other, err := domain.NewTask(uuid.New(), "someone else's", "")
	require.NoError(t, err)
	for _, task := range []*domain.Task{pending, done, other} {
		require.NoError(t, tasks.Create(context.Background(), task))
	}

	out, err := registry.Execute(context.Background(), userID, "list_tasks", map[string]any{"status": "pending"})
	require.NoError(t, err)
	assert.Equal(t, 1, out["count"])
	listed := out["tasks"].([]map[string]any)
	assert.Equal(t, "pending one", listed[0]["title"])

	out, err = registry.Execute(context.Background(), userID, "list_tasks", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, 2, out["count"], "default filter includes completed, never other users")
}

func TestListTasks_InvalidStatus(t *testing.T) {
	registry, _ := setup(t)

	out, err := registry.Execute(context.Background(), uuid.New(), "list_tasks", map[string]any{"status": "urgent"})

	require.NoError(t, err)
	assert.Equal(t, "failed", out["status"])
}

func TestCompleteTask(t *testing.T) {
	registry, tasks := setup(t)
	userID := uuid.New()

	task, err := domain.NewTask(userID, "ship it", "")
	require.NoError(t, err)
	require.NoError(t, tasks.Create(context.Background(), task))

	out, err := registry.Execute(context.Background(), userID, "complete_task", map[string]any{
		"task_id": task.ID.String(),
	})

	require.NoError(t, err)
	assert.Equal(t, "success", out["status"])
	assert.True(t, tasks.tasks[task.ID].Completed)
}

func TestCompleteTask_NotFoundAndWrongOwner(t *testing.T) {
	registry, tasks := setup(t)
	userID := uuid.New()

	out, err := registry.Execute(context.Background(), userID, "complete_task", map[string]any{
		"task_id": uuid.New().String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "failed", out["status"])
	assert.Equal(t, "task not found", out["error"])

	// A task owned by another user looks exactly like a missing one.
	foreign, err := domain.NewTask(uuid.New(), "not yours", "")
	require.NoError(t, err)
	require.NoError(t, tasks.Create(context.Background(), foreign))

	out, err = registry.Execute(context.Background(), userID, "complete_task", map[string]any{
		"task_id": foreign.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "failed", out["status"])
	assert.Equal(t, "task not found", out["error"])
	assert.False(t, tasks.tasks[foreign.ID].Completed)
}

func TestUpdateTask_PartialFields(t *testing.T) {
	registry, tasks := setup(t)
	userID := uuid.New()

	task, err := domain.NewTask(userID, "old title", "keep me")
	require.NoError(t, err)
	require.NoError(t, tasks.Create(context.Background(), task))

	out, err := registry.Execute(context.Background(), userID, "update_task", map[string]any{
		"task_id": task.ID.String(),
		"title":   "new title",
	})

	require.NoError(t, err)
	assert.Equal(t, "success", out["status"])

	updated := tasks.tasks[task.ID]
	assert.Equal(t, "new title", updated.Title)
	assert.Equal(t, "keep me", updated.Description, "unprovided fields are untouched")
}

func TestUpdateTask_InvalidTitleRejected(t *testing.T) {
	registry, tasks := setup(t)
	userID := uuid.New()

	task, err := domain.NewTask(userID, "fine", "")
	require.NoError(t, err)
	require.NoError(t, tasks.Create(context.Background(), task))

	out, err := registry.Execute(context.Background(), userID, "update_task", map[string]any{
		"task_id": task.ID.String(),
		"title":   "   ",
	})

	require.NoError(t, err)
	assert.Equal(t, "failed", out["status"])
	assert.Equal(t, "fine", tasks.tasks[task.ID].Title)
}

func TestDeleteTask(t *testing.T) {
	registry, tasks := setup(t)
	userID := uuid.New()

	task, err := domain.NewTask(userID, "gone soon", "")
	require.NoError(t, err)
	require.NoError(t, tasks.Create(context.Background(), task))

	out, err := registry.Execute(context.Background(), userID, "delete_task", map[string]any{
		"task_id": task.ID.String(),
	})

	require.NoError(t, err)
	assert.Equal(t, "success", out["status"])
	assert.Empty(t, tasks.tasks)
}

func TestTaskIDValidation(t *testing.T) {
	registry, _ := setup(t)

	for _, name := range []string{"complete_task", "update_task", "delete_task"} {
		out, err := registry.Execute(context.Background(), uuid.New(), name, map[string]any{
			"task_id": "not-a-uuid",
		})
		require.NoError(t, err, name)
		assert.Equal(t, "failed", out["status"], name)
	}
}

func TestStorageErrorPropagates(t *testing.T) {
	registry, tasks := setup(t)
	tasks.err = assert.AnError

	_, err := registry.Execute(context.Background(), uuid.New(), "list_tasks", map[string]any{})
	require.ErrorIs(t, err, assert.AnError)
}
