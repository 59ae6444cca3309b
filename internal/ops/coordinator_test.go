package ops

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robby/taskdeck/internal/domain"
	"github.com/robby/taskdeck/internal/store"
	"github.com/robby/taskdeck/internal/taskapi"
	"github.com/robby/taskdeck/internal/testutil"
)

func strPtr(s string) *string { return &s }

func newCoordinator(t *testing.T) (*Coordinator, *testutil.FakeService, *store.Store) {
	t.Helper()
	svc := testutil.NewFakeService()
	s := store.New()
	return New(svc, s), svc, s
}

func TestRefresh(t *testing.T) {
	coord, svc, s := newCoordinator(t)
	svc.Seed(domain.Task{Title: "First"})
	svc.Seed(domain.Task{Title: "Second"})

	require.NoError(t, coord.Refresh(context.Background()))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 1, svc.ListCalls)

	// A second refresh replaces, not appends
	require.NoError(t, coord.Refresh(context.Background()))
	assert.Equal(t, 2, s.Len())
}

func TestRefreshFailureLeavesStoreUntouched(t *testing.T) {
	coord, svc, s := newCoordinator(t)
	svc.Seed(domain.Task{Title: "Loaded"})
	require.NoError(t, coord.Refresh(context.Background()))

	svc.ListErr = assert.AnError
	err := coord.Refresh(context.Background())
	assert.Error(t, err)

	// Displayed state still reflects the last successful load
	assert.Equal(t, 1, s.Len())
	got, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "Loaded", got.Title)
}

func TestCreate(t *testing.T) {
	coord, svc, s := newCoordinator(t)

	task, err := coord.Create(context.Background(), taskapi.TaskInput{
		Title:    "New task",
		Priority: strPtr(domain.PriorityHigh),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, task.ID)
	assert.Equal(t, 1, svc.CreateCalls)

	// The server-assigned record lands in the store
	got, err := s.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "New task", got.Title)
}

func TestCreateFailure(t *testing.T) {
	coord, svc, s := newCoordinator(t)
	svc.CreateErr = &taskapi.BackendError{StatusCode: 400, Detail: "Title is required"}

	_, err := coord.Create(context.Background(), taskapi.TaskInput{})
	assert.Error(t, err)
	assert.Zero(t, s.Len())

	// The flight flag is released, the next create goes through
	svc.CreateErr = nil
	_, err = coord.Create(context.Background(), taskapi.TaskInput{Title: "Retry"})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestUpdateAppliesConfirmedState(t *testing.T) {
	coord, svc, s := newCoordinator(t)
	seeded := svc.Seed(domain.Task{Title: "Before", Category: strPtr("work")})
	require.NoError(t, coord.Refresh(context.Background()))

	// Full replacement: omitted optional fields clear on the backend
	task, err := coord.Update(context.Background(), seeded.ID, taskapi.TaskInput{Title: "After"})
	require.NoError(t, err)
	assert.Equal(t, "After", task.Title)
	assert.Nil(t, task.Category)

	got, err := s.Get(seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", got.Title)
	assert.Nil(t, got.Category)
}

func TestUpdateFailureLeavesStoreUntouched(t *testing.T) {
	coord, svc, s := newCoordinator(t)
	seeded := svc.Seed(domain.Task{Title: "Original", Priority: strPtr(domain.PriorityLow)})
	require.NoError(t, coord.Refresh(context.Background()))
	before, err := s.Get(seeded.ID)
	require.NoError(t, err)

	svc.UpdateErr = assert.AnError
	_, err = coord.Update(context.Background(), seeded.ID, taskapi.TaskInput{Title: "Changed"})
	assert.Error(t, err)

	after, err := s.Get(seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.False(t, s.IsLoading(seeded.ID))
}

func TestToggle(t *testing.T) {
	coord, svc, s := newCoordinator(t)
	seeded := svc.Seed(domain.Task{Title: "Flip me"})
	require.NoError(t, coord.Refresh(context.Background()))

	task, err := coord.Toggle(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.True(t, task.Completed)

	// Double toggle returns to the starting state
	task, err = coord.Toggle(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.False(t, task.Completed)
	assert.Equal(t, 2, svc.ToggleCalls)

	got, err := s.Get(seeded.ID)
	require.NoError(t, err)
	assert.False(t, got.Completed)
}

func TestToggleSingleFlight(t *testing.T) {
	coord, svc, s := newCoordinator(t)
	seeded := svc.Seed(domain.Task{Title: "Contended"})
	require.NoError(t, coord.Refresh(context.Background()))

	entered := make(chan struct{})
	proceed := make(chan struct{})
	svc.ToggleHook = func(id int) {
		close(entered)
		<-proceed
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = coord.Toggle(context.Background(), seeded.ID)
	}()

	// Wait for the first toggle to be held open inside the backend call
	<-entered
	assert.True(t, s.IsLoading(seeded.ID))

	// The second action on the same task is dropped, not queued
	_, err := coord.Toggle(context.Background(), seeded.ID)
	assert.ErrorIs(t, err, ErrInFlight)

	close(proceed)
	wg.Wait()
	require.NoError(t, firstErr)

	// Exactly one toggle reached the backend
	assert.Equal(t, 1, svc.ToggleCalls)
	got, err := s.Get(seeded.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)
}

func TestToggleOtherTasksUnblocked(t *testing.T) {
	coord, svc, s := newCoordinator(t)
	first := svc.Seed(domain.Task{Title: "Busy"})
	second := svc.Seed(domain.Task{Title: "Free"})
	require.NoError(t, coord.Refresh(context.Background()))

	// Hold the flag for the first task manually
	require.True(t, s.Acquire(first.ID))
	defer s.Release(first.ID)

	_, err := coord.Toggle(context.Background(), second.ID)
	require.NoError(t, err)

	_, err = coord.Toggle(context.Background(), first.ID)
	assert.ErrorIs(t, err, ErrInFlight)
	assert.Equal(t, 1, svc.ToggleCalls)
}

func TestDelete(t *testing.T) {
	t.Run("confirmed", func(t *testing.T) {
		coord, svc, s := newCoordinator(t)
		seeded := svc.Seed(domain.Task{Title: "Doomed"})
		require.NoError(t, coord.Refresh(context.Background()))

		require.NoError(t, coord.Delete(context.Background(), seeded.ID, true))
		assert.Equal(t, 1, svc.DeleteCalls)
		_, err := s.Get(seeded.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("declined is a full no-op", func(t *testing.T) {
		coord, svc, s := newCoordinator(t)
		seeded := svc.Seed(domain.Task{Title: "Spared"})
		require.NoError(t, coord.Refresh(context.Background()))

		require.NoError(t, coord.Delete(context.Background(), seeded.ID, false))
		assert.Zero(t, svc.DeleteCalls)
		assert.False(t, s.IsLoading(seeded.ID))
		_, err := s.Get(seeded.ID)
		assert.NoError(t, err)
	})

	t.Run("failure keeps the task", func(t *testing.T) {
		coord, svc, s := newCoordinator(t)
		seeded := svc.Seed(domain.Task{Title: "Sticky"})
		require.NoError(t, coord.Refresh(context.Background()))

		svc.DeleteErr = assert.AnError
		err := coord.Delete(context.Background(), seeded.ID, true)
		assert.Error(t, err)
		_, err = s.Get(seeded.ID)
		assert.NoError(t, err)
	})
}

func TestRefreshSingleFlight(t *testing.T) {
	coord, svc, s := newCoordinator(t)
	svc.Seed(domain.Task{Title: "Only"})

	// Hold the reload flag and verify a concurrent refresh is dropped
	require.True(t, s.Acquire(0))
	err := coord.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrInFlight)
	assert.Zero(t, svc.ListCalls)
	s.Release(0)

	require.NoError(t, coord.Refresh(context.Background()))
	assert.Equal(t, 1, svc.ListCalls)
}
