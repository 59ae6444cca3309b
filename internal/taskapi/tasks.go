package taskapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/robby/taskdeck/internal/domain"
)

// TaskInput carries the editable task fields for create and update.
// Update has full replacement semantics: optional fields left nil are sent
// as explicit nulls, not treated as "unchanged".
type TaskInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Category    *string `json:"category"`
	DueDate     *string `json:"due_date"`
}

// validate runs the local constraints. A failure here never reaches the
// network and never consults the credential store.
func (in *TaskInput) validate() error {
	title, err := domain.ValidateTitle(in.Title)
	if err != nil {
		return err
	}
	in.Title = title
	if err := domain.ValidateDescription(in.Description); err != nil {
		return err
	}
	return domain.ValidatePriority(in.Priority)
}

// ListTasks returns all tasks owned by the current session, in backend
// order (newest first). No pagination; the full collection each call.
func (c *Client) ListTasks(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks/", nil, &tasks, true, "Failed to fetch tasks"); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask creates a new task and returns the server-assigned record.
func (c *Client) CreateTask(ctx context.Context, input TaskInput) (domain.Task, error) {
	if err := input.validate(); err != nil {
		return domain.Task{}, err
	}
	var task domain.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks/", input, &task, true, "Failed to create task"); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// UpdateTask replaces the editable fields of a task and returns the
// updated record.
func (c *Client) UpdateTask(ctx context.Context, id int, input TaskInput) (domain.Task, error) {
	if err := input.validate(); err != nil {
		return domain.Task{}, err
	}
	var task domain.Task
	path := fmt.Sprintf("/api/tasks/%d", id)
	if err := c.do(ctx, http.MethodPut, path, input, &task, true, "Failed to update task"); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// ToggleTask flips a task's completion state. The returned task carries
// the new state; callers must read it rather than compute it locally.
func (c *Client) ToggleTask(ctx context.Context, id int) (domain.Task, error) {
	var task domain.Task
	path := fmt.Sprintf("/api/tasks/%d/toggle", id)
	if err := c.do(ctx, http.MethodPatch, path, nil, &task, true, "Failed to toggle task"); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// DeleteTask removes a task. Any non-success status other than a confirmed
// deletion is surfaced to the caller.
func (c *Client) DeleteTask(ctx context.Context, id int) error {
	var resp struct {
		Message string `json:"message"`
	}
	path := fmt.Sprintf("/api/tasks/%d", id)
	return c.do(ctx, http.MethodDelete, path, nil, &resp, true, "Failed to delete task")
}
