// Package store provides the in-memory state layer for the task collection.
// It holds the authoritative list of tasks for the current session plus the
// per-task in-flight flags, following the "deep modules" principle - simple
// interface hiding the bookkeeping.
//
// The task order is the order of the last full reload; the store never
// re-sorts in place. Filtering and sorting belong to the view package,
// keeping a single source of truth for raw collection state.
package store

import (
	"errors"
	"sync"

	"github.com/robby/taskdeck/internal/domain"
)

// ErrTaskNotFound indicates the requested task does not exist in the store.
var ErrTaskNotFound = errors.New("task not found")

// Store manages the in-memory task collection.
// The mutation coordinator is the only writer of the in-flight flags; the
// mutex exists because completions arrive on I/O goroutines.
type Store struct {
	mu       sync.RWMutex
	tasks    []domain.Task
	inFlight map[int]bool
}

// New creates a new empty Store instance.
func New() *Store {
	return &Store{
		inFlight: make(map[int]bool),
	}
}

// ReplaceAll swaps the whole collection after a full list() reload.
// The given order becomes the collection order.
func (s *Store) ReplaceAll(tasks []domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = make([]domain.Task, len(tasks))
	copy(s.tasks, tasks)
}

// Upsert replaces the task with a matching ID, or appends it when absent.
// Fields are replaced wholesale; tasks have no identity beyond ID.
func (s *Store) Upsert(task domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == task.ID {
			s.tasks[i] = task
			return
		}
	}
	s.tasks = append(s.tasks, task)
}

// Remove deletes the task with the given ID, if present.
func (s *Store) Remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return
		}
	}
}

// Get retrieves a task by ID, returning ErrTaskNotFound if absent.
func (s *Store) Get(id int) (domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return s.tasks[i], nil
		}
	}
	return domain.Task{}, ErrTaskNotFound
}

// All returns a copy of the collection in its current order.
func (s *Store) All() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tasks := make([]domain.Task, len(s.tasks))
	copy(tasks, s.tasks)
	return tasks
}

// Len returns the number of tasks in the collection.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// IsLoading reports whether an operation currently owns the given task.
func (s *Store) IsLoading(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight[id]
}

// Acquire marks the task as owned by an operation. It reports false when
// an operation is already in flight for the ID, in which case the caller
// must drop its action (single-flight guarantee).
func (s *Store) Acquire(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[id] {
		return false
	}
	s.inFlight[id] = true
	return true
}

// Release clears the in-flight flag for the task.
func (s *Store) Release(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)
}

// Clear resets the store to its empty state.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = nil
	s.inFlight = make(map[int]bool)
}
