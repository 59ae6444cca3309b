// Package ops coordinates mutations between the backend client and the
// task collection store. It guarantees at most one in-flight operation per
// task and applies confirmed backend state only: the store is never
// speculatively mutated, so a failed call leaves displayed state untouched.
package ops

import (
	"context"
	"errors"

	"github.com/robby/taskdeck/internal/domain"
	"github.com/robby/taskdeck/internal/store"
	"github.com/robby/taskdeck/internal/taskapi"
)

// ErrInFlight indicates an operation already owns the task. The action is
// dropped, not queued; callers treat it as a silent no-op.
var ErrInFlight = errors.New("operation already in flight")

// Flight keys for operations that do not target an existing task. Task IDs
// are server-assigned starting at 1, so these never collide.
const (
	reloadKey = 0
	createKey = -1
)

// Service is the backend surface the coordinator drives. Implemented by
// *taskapi.Client; tests inject a fake.
type Service interface {
	ListTasks(ctx context.Context) ([]domain.Task, error)
	CreateTask(ctx context.Context, input taskapi.TaskInput) (domain.Task, error)
	UpdateTask(ctx context.Context, id int, input taskapi.TaskInput) (domain.Task, error)
	ToggleTask(ctx context.Context, id int) (domain.Task, error)
	DeleteTask(ctx context.Context, id int) error
}

// Coordinator serializes actions per task and keeps the store consistent
// with confirmed backend state.
type Coordinator struct {
	svc   Service
	store *store.Store
}

// New creates a coordinator over the given service and store.
func New(svc Service, s *store.Store) *Coordinator {
	return &Coordinator{svc: svc, store: s}
}

// Refresh reloads the full collection and replaces the store contents.
// Concurrent refreshes are dropped.
func (c *Coordinator) Refresh(ctx context.Context) error {
	if !c.store.Acquire(reloadKey) {
		return ErrInFlight
	}
	defer c.store.Release(reloadKey)

	tasks, err := c.svc.ListTasks(ctx)
	if err != nil {
		return err
	}
	c.store.ReplaceAll(tasks)
	return nil
}

// Create submits a new task and appends the server-assigned record on
// success. Validation failures surface before any network call.
func (c *Coordinator) Create(ctx context.Context, input taskapi.TaskInput) (domain.Task, error) {
	if !c.store.Acquire(createKey) {
		return domain.Task{}, ErrInFlight
	}
	defer c.store.Release(createKey)

	task, err := c.svc.CreateTask(ctx, input)
	if err != nil {
		return domain.Task{}, err
	}
	c.store.Upsert(task)
	return task, nil
}

// Update replaces a task's editable fields, applying the confirmed result.
func (c *Coordinator) Update(ctx context.Context, id int, input taskapi.TaskInput) (domain.Task, error) {
	if !c.store.Acquire(id) {
		return domain.Task{}, ErrInFlight
	}
	defer c.store.Release(id)

	task, err := c.svc.UpdateTask(ctx, id, input)
	if err != nil {
		return domain.Task{}, err
	}
	c.store.Upsert(task)
	return task, nil
}

// Toggle flips a task's completion state. The new state comes from the
// backend's response, never computed locally.
func (c *Coordinator) Toggle(ctx context.Context, id int) (domain.Task, error) {
	if !c.store.Acquire(id) {
		return domain.Task{}, ErrInFlight
	}
	defer c.store.Release(id)

	task, err := c.svc.ToggleTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	c.store.Upsert(task)
	return task, nil
}

// Delete removes a task after explicit user confirmation. A declined
// confirmation is a full no-op: no flag set, no call made. On success the
// task is removed from the store whether or not it still existed upstream.
func (c *Coordinator) Delete(ctx context.Context, id int, confirmed bool) error {
	if !confirmed {
		return nil
	}
	if !c.store.Acquire(id) {
		return ErrInFlight
	}
	defer c.store.Release(id)

	if err := c.svc.DeleteTask(ctx, id); err != nil {
		return err
	}
	c.store.Remove(id)
	return nil
}
