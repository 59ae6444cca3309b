// Package tui provides Bubble Tea models for the interactive console
// client. All mutations run as commands that suspend at the network
// boundary and resume through these messages; the store is only updated
// from confirmed backend results via the ops coordinator.
package tui

import "github.com/robby/taskdeck/internal/domain"

// SignedInMsg is emitted when sign-in or sign-up succeeds.
type SignedInMsg struct {
	Token   string
	Message string
}

// SignedOutMsg is emitted when the backend confirmed the sign-out.
type SignedOutMsg struct{}

// ErrorMsg is emitted when an operation fails. Transient: the list view
// shows it as a toast without touching collection state.
type ErrorMsg struct {
	Err error
}

// noticeMsg carries a transient success notification.
type noticeMsg struct {
	text string
}

// tasksLoadedMsg is emitted after a full collection reload.
type tasksLoadedMsg struct{}

// taskToggledMsg carries the backend-confirmed state after a toggle.
type taskToggledMsg struct {
	task domain.Task
}

// taskSavedMsg is emitted after a confirmed create or update.
type taskSavedMsg struct {
	task    domain.Task
	created bool
}

// taskDeletedMsg is emitted after a confirmed delete.
type taskDeletedMsg struct {
	id int
}

// openFormMsg opens the create form (task nil) or edit form.
type openFormMsg struct {
	task *domain.Task
}

// closeFormMsg returns from the form to the list without saving.
type closeFormMsg struct{}

// droppedMsg marks an action dropped by the single-flight guard; it is
// deliberately ignored everywhere.
type droppedMsg struct{}
