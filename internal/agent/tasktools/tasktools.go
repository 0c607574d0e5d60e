// Package tasktools provides the task management tools exposed to the
// model: add_task, list_tasks, complete_task, update_task, delete_task.
// Every tool is scoped to the authenticated user passed by the
// orchestrator and reports outcomes as structured maps so the model can
// narrate them.
package tasktools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskchat/taskchat-api/internal/agent"
	"github.com/taskchat/taskchat-api/internal/domain"
	"github.com/taskchat/taskchat-api/internal/store"
)

// RegisterAll registers the full task tool set on the registry.
func RegisterAll(registry *agent.Registry, tasks store.TaskStore) error {
	for _, tool := range []agent.Tool{
		addTaskTool(tasks),
		listTasksTool(tasks),
		completeTaskTool(tasks),
		updateTaskTool(tasks),
		deleteTaskTool(tasks),
	} {
		if err := registry.Register(tool); err != nil {
			return fmt.Errorf("registering %s: %w", tool.Spec.Name, err)
		}
	}
	return nil
}

func addTaskTool(tasks store.TaskStore) agent.Tool {
	return agent.Tool{
		Spec: agent.ToolSpec{
			Name:        "add_task",
			Description: "Create a new task for the user. Returns the created task.",
			Parameters: &agent.Schema{
				Type: agent.TypeObject,
				Properties: map[string]*agent.Schema{
					"title": {
						Type:        agent.TypeString,
						Description: "Short title of the task.",
					},
					"description": {
						Type:        agent.TypeString,
						Description: "Optional longer description.",
					},
					"priority": {
						Type:        agent.TypeString,
						Description: "Optional priority of the task.",
						Enum:        []string{"high", "medium", "low"},
					},
					"due_date": {
						Type:        agent.TypeString,
						Description: "Optional due date in YYYY-MM-DD format.",
					},
				},
				Required: []string{"title"},
			},
		},
		Execute: func(ctx context.Context, userID uuid.UUID, args map[string]any) (map[string]any, error) {
			title, ok := stringArg(args, "title")
			if !ok || title == "" {
				return failure("title is required"), nil
			}

			task, err := domain.NewTask(userID, title, stringOr(args, "description", ""))
			if err != nil {
				return failure(err.Error()), nil
			}

			if p, ok := stringArg(args, "priority"); ok && p != "" {
				task.Priority = domain.TaskPriority(p)
				if err := task.Validate(); err != nil {
					return failure(err.Error()), nil
				}
			}
			if d, ok := stringArg(args, "due_date"); ok && d != "" {
				due, err := time.Parse("2006-01-02", d)
				if err != nil {
					return failure("due_date must be in YYYY-MM-DD format"), nil
				}
				task.DueDate = &due
			}

			if err := tasks.Create(ctx, task); err != nil {
				return nil, fmt.Errorf("creating task: %w", err)
			}

			return map[string]any{
				"status": "success",
				"task":   taskPayload(task),
			}, nil
		},
	}
}

func listTasksTool(tasks store.TaskStore) agent.Tool {
	return agent.Tool{
		Spec: agent.ToolSpec{
			Name:        "list_tasks",
			Description: "List the user's tasks, optionally filtered by completion status.",
			Parameters: &agent.Schema{
				Type: agent.TypeObject,
				Properties: map[string]*agent.Schema{
					"status": {
						Type:        agent.TypeString,
						Description: "Which tasks to include. Defaults to all.",
						Enum:        []string{"all", "pending", "completed"},
					},
				},
			},
		},
		Execute: func(ctx context.Context, userID uuid.UUID, args map[string]any) (map[string]any, error) {
			filter := store.TaskFilterAll
			switch stringOr(args, "status", "all") {
			case "pending":
				filter = store.TaskFilterPending
			case "completed":
				filter = store.TaskFilterCompleted
			case "all", "":
			default:
				return failure("status must be one of: all, pending, completed"), nil
			}

			list, err := tasks.ListByUser(ctx, userID, filter)
			if err != nil {
				return nil, fmt.Errorf("listing tasks: %w", err)
			}

			payload := make([]map[string]any, 0, len(list))
			for _, task := range list {
				payload = append(payload, taskPayload(task))
			}

			return map[string]any{
				"status": "success",
				"count":  len(payload),
				"tasks":  payload,
			}, nil
		},
	}
}

func completeTaskTool(tasks store.TaskStore) agent.Tool {
	return agent.Tool{
		Spec: agent.ToolSpec{
			Name:        "complete_task",
			Description: "Mark one of the user's tasks as completed.",
			Parameters: &agent.Schema{
				Type: agent.TypeObject,
				Properties: map[string]*agent.Schema{
					"task_id": {
						Type:        agent.TypeString,
						Description: "ID of the task to complete.",
					},
				},
				Required: []string{"task_id"},
			},
		},
		Execute: func(ctx context.Context, userID uuid.UUID, args map[string]any) (map[string]any, error) {
			taskID, res := taskIDArg(args)
			if res != nil {
				return res, nil
			}

			task, err := tasks.SetCompleted(ctx, taskID, userID, true)
			if errors.Is(err, store.ErrTaskNotFound) {
				return failure("task not found"), nil
			}
			if err != nil {
				return nil, fmt.Errorf("completing task: %w", err)
			}

			return map[string]any{
				"status": "success",
				"task":   taskPayload(task),
			}, nil
		},
	}
}

func updateTaskTool(tasks store.TaskStore) agent.Tool {
	return agent.Tool{
		Spec: agent.ToolSpec{
			Name:        "update_task",
			Description: "Update the title, description, priority, or due date of one of the user's tasks. Only provided fields change.",
			Parameters: &agent.Schema{
				Type: agent.TypeObject,
				Properties: map[string]*agent.Schema{
					"task_id": {
						Type:        agent.TypeString,
						Description: "ID of the task to update.",
					},
					"title": {
						Type:        agent.TypeString,
						Description: "New title.",
					},
					"description": {
						Type:        agent.TypeString,
						Description: "New description.",
					},
					"priority": {
						Type:        agent.TypeString,
						Description: "New priority.",
						Enum:        []string{"high", "medium", "low"},
					},
					"due_date": {
						Type:        agent.TypeString,
						Description: "New due date in YYYY-MM-DD format.",
					},
				},
				Required: []string{"task_id"},
			},
		},
		Execute: func(ctx context.Context, userID uuid.UUID, args map[string]any) (map[string]any, error) {
			taskID, res := taskIDArg(args)
			if res != nil {
				return res, nil
			}

			task, err := tasks.GetByID(ctx, taskID, userID)
			if errors.Is(err, store.ErrTaskNotFound) {
				return failure("task not found"), nil
			}
			if err != nil {
				return nil, fmt.Errorf("loading task: %w", err)
			}

			if title, ok := stringArg(args, "title"); ok {
				task.Title = title
			}
			if desc, ok := stringArg(args, "description"); ok {
				task.Description = desc
			}
			if p, ok := stringArg(args, "priority"); ok {
				task.Priority = domain.TaskPriority(p)
			}
			if d, ok := stringArg(args, "due_date"); ok {
				due, err := time.Parse("2006-01-02", d)
				if err != nil {
					return failure("due_date must be in YYYY-MM-DD format"), nil
				}
				task.DueDate = &due
			}
			task.UpdatedAt = time.Now().UTC()

			if err := task.Validate(); err != nil {
				return failure(err.Error()), nil
			}

			if err := tasks.Update(ctx, task); err != nil {
				if errors.Is(err, store.ErrTaskNotFound) {
					return failure("task not found"), nil
				}
				return nil, fmt.Errorf("updating task: %w", err)
			}

			return map[string]any{
				"status": "success",
				"task":   taskPayload(task),
			}, nil
		},
	}
}

func deleteTaskTool(tasks store.TaskStore) agent.Tool {
	return agent.Tool{
		Spec: agent.ToolSpec{
			Name:        "delete_task",
			Description: "Delete one of the user's tasks permanently.",
			Parameters: &agent.Schema{
				Type: agent.TypeObject,
				Properties: map[string]*agent.Schema{
					"task_id": {
						Type:        agent.TypeString,
						Description: "ID of the task to delete.",
					},
				},
				Required: []string{"task_id"},
			},
		},
		Execute: func(ctx context.Context, userID uuid.UUID, args map[string]any) (map[string]any, error) {
			taskID, res := taskIDArg(args)
			if res != nil {
				return res, nil
			}

			err := tasks.Delete(ctx, taskID, userID)
			if errors.Is(err, store.ErrTaskNotFound) {
				return failure("task not found"), nil
			}
			if err != nil {
				return nil, fmt.Errorf("deleting task: %w", err)
			}

			return map[string]any{
				"status":  "success",
				"task_id": taskID.String(),
			}, nil
		},
	}
}

// taskPayload flattens a task into the map shape returned to the model.
func taskPayload(task *domain.Task) map[string]any {
	payload := map[string]any{
		"id":        task.ID.String(),
		"title":     task.Title,
		"completed": task.Completed,
	}
	if task.Description != "" {
		payload["description"] = task.Description
	}
	if task.Priority != "" {
		payload["priority"] = string(task.Priority)
	}
	if task.DueDate != nil {
		payload["due_date"] = task.DueDate.Format("2006-01-02")
	}
	return payload
}

// taskIDArg extracts and parses the task_id argument. On failure it
// returns a structured result for the model instead of an error.
func taskIDArg(args map[string]any) (uuid.UUID, map[string]any) {
	raw, ok := stringArg(args, "task_id")
	if !ok || raw == "" {
		return uuid.Nil, failure("task_id is required")
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, failure("task_id is not a valid ID")
	}
	return id, nil
}

func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func stringOr(args map[string]any, key, fallback string) string {
	if s, ok := stringArg(args, key); ok && s != "" {
		return s
	}
	return fallback
}

func failure(msg string) map[string]any {
	return map[string]any{
		"status": "failed",
		"error":  msg,
	}
}
