// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/robby/taskdeck/internal/domain"
	"github.com/robby/taskdeck/internal/taskapi"
)

// FakeService is an in-memory implementation of ops.Service for testing.
// It counts calls per operation and supports error injection and entry
// hooks so tests can hold an operation open.
type FakeService struct {
	mu     sync.Mutex
	tasks  []domain.Task
	nextID int

	// Call counters
	ListCalls   int
	CreateCalls int
	UpdateCalls int
	ToggleCalls int
	DeleteCalls int

	// Error injection
	ListErr   error
	CreateErr error
	UpdateErr error
	ToggleErr error
	DeleteErr error

	// ToggleHook runs inside ToggleTask after the call is counted. Tests
	// use it to block the first toggle while issuing a second one.
	ToggleHook func(id int)
}

// NewFakeService creates an empty fake backend.
func NewFakeService() *FakeService {
	return &FakeService{nextID: 1}
}

// Seed adds a task directly to the fake's state, assigning an ID when the
// task has none. Returns the stored task.
func (f *FakeService) Seed(task domain.Task) domain.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	if task.ID == 0 {
		task.ID = f.nextID
	}
	if task.ID >= f.nextID {
		f.nextID = task.ID + 1
	}
	if task.CreatedAt == "" {
		task.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if task.UpdatedAt == "" {
		task.UpdatedAt = task.CreatedAt
	}
	f.tasks = append(f.tasks, task)
	return task
}

// ListTasks implements ops.Service.
func (f *FakeService) ListTasks(ctx context.Context) ([]domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListCalls++
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	tasks := make([]domain.Task, len(f.tasks))
	copy(tasks, f.tasks)
	return tasks, nil
}

// CreateTask implements ops.Service.
func (f *FakeService) CreateTask(ctx context.Context, input taskapi.TaskInput) (domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateCalls++
	if f.CreateErr != nil {
		return domain.Task{}, f.CreateErr
	}
	now := time.Now().UTC().Format(time.RFC3339)
	task := domain.Task{
		ID:          f.nextID,
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		Category:    input.Category,
		DueDate:     input.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.nextID++
	f.tasks = append(f.tasks, task)
	return task, nil
}

// UpdateTask implements ops.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id int, input taskapi.TaskInput) (domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UpdateCalls++
	if f.UpdateErr != nil {
		return domain.Task{}, f.UpdateErr
	}
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks[i].Title = input.Title
			f.tasks[i].Description = input.Description
			f.tasks[i].Priority = input.Priority
			f.tasks[i].Category = input.Category
			f.tasks[i].DueDate = input.DueDate
			f.tasks[i].UpdatedAt = time.Now().UTC().Format(time.RFC3339)
			return f.tasks[i], nil
		}
	}
	return domain.Task{}, &taskapi.BackendError{StatusCode: 404, Detail: "Task not found"}
}

// ToggleTask implements ops.Service.
func (f *FakeService) ToggleTask(ctx context.Context, id int) (domain.Task, error) {
	f.mu.Lock()
	f.ToggleCalls++
	hook := f.ToggleHook
	f.mu.Unlock()

	if hook != nil {
		hook(id)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ToggleErr != nil {
		return domain.Task{}, f.ToggleErr
	}
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks[i].Completed = !f.tasks[i].Completed
			f.tasks[i].UpdatedAt = time.Now().UTC().Format(time.RFC3339)
			return f.tasks[i], nil
		}
	}
	return domain.Task{}, &taskapi.BackendError{StatusCode: 404, Detail: "Task not found"}
}

// DeleteTask implements ops.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeleteCalls++
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return &taskapi.BackendError{StatusCode: 404, Detail: "Task not found"}
}

// Tasks returns a copy of the fake's current state.
func (f *FakeService) Tasks() []domain.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	tasks := make([]domain.Task, len(f.tasks))
	copy(tasks, f.tasks)
	return tasks
}
