package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/robby/taskdeck/internal/credentials"
	"github.com/robby/taskdeck/internal/ops"
	"github.com/robby/taskdeck/internal/store"
	"github.com/robby/taskdeck/internal/taskapi"
)

// AppScreen represents the different screens in the application flow.
type AppScreen int

const (
	ScreenSignIn AppScreen = iota
	ScreenList
	ScreenForm
)

// AppModel is the root Bubble Tea model that manages screen transitions.
// It orchestrates the flow from sign-in to the task list and the
// create/edit form.
type AppModel struct {
	// Dependencies
	client *taskapi.Client
	coord  *ops.Coordinator
	store  *store.Store
	creds  *credentials.MemoryStore
	ctx    context.Context

	// WebURL is the proxy address the "open web app" binding launches.
	webURL string

	// Current state
	currentScreen AppScreen
	currentModel  tea.Model

	// Cached list model to preserve filter state across screens
	listModel *ListModel
}

// NewAppModel creates the root model. When the credential store already
// holds a token (seeded from the environment), the sign-in screen is
// skipped and the first list reload decides whether it is still valid.
func NewAppModel(client *taskapi.Client, coord *ops.Coordinator, s *store.Store, creds *credentials.MemoryStore, ctx context.Context, webURL string) AppModel {
	return AppModel{
		client: client,
		coord:  coord,
		store:  s,
		creds:  creds,
		ctx:    ctx,
		webURL: webURL,
	}
}

// Init initializes the app model. The check is presence-only, like the
// web route guard: a stale token still reaches the list, and the first
// reload comes back unauthenticated instead.
func (m AppModel) Init() tea.Cmd {
	if !m.client.Unauthenticated() {
		return func() tea.Msg { return SignedInMsg{} }
	}
	signIn := NewSignInModel(m.client)
	return func() tea.Msg { return showSignInMsg{model: signIn} }
}

// showSignInMsg installs the sign-in screen.
type showSignInMsg struct {
	model SignInModel
}

// Update handles messages and transitions between screens.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Global quit handler
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case showSignInMsg:
		m.currentScreen = ScreenSignIn
		m.currentModel = msg.model
		return m, msg.model.Init()

	case SignedInMsg:
		if msg.Token != "" {
			m.creds.Set(msg.Token)
		}
		m.currentScreen = ScreenList
		listModel := NewListModel(m.coord, m.store, m.ctx, m.webURL)
		if msg.Message != "" {
			listModel.notice = msg.Message
		}
		m.listModel = &listModel
		m.currentModel = m.listModel
		return m, listModel.Init()

	case SignedOutMsg:
		m.creds.Clear()
		m.store.Clear()
		m.listModel = nil
		m.currentScreen = ScreenSignIn
		signIn := NewSignInModel(m.client)
		m.currentModel = signIn
		return m, signIn.Init()

	case openFormMsg:
		m.currentScreen = ScreenForm
		formModel := NewFormModel(m.coord, m.ctx, msg.task)
		m.currentModel = formModel
		return m, formModel.Init()

	case closeFormMsg:
		m.currentScreen = ScreenList
		m.currentModel = m.listModel
		return m, tea.WindowSize()

	case taskSavedMsg:
		// Saved from the form: return to the list and let it notify.
		if m.currentScreen == ScreenForm {
			m.currentScreen = ScreenList
			m.currentModel = m.listModel
		}

	case signOutRequestMsg:
		return m, m.signOut()
	}

	// Delegate to current screen's model
	if m.currentModel != nil {
		var cmd tea.Cmd
		m.currentModel, cmd = m.currentModel.Update(msg)
		// Keep listModel in sync when on list screen
		if m.currentScreen == ScreenList {
			if lm, ok := m.currentModel.(ListModel); ok {
				m.listModel = &lm
			}
		}
		return m, cmd
	}

	return m, nil
}

// signOut invalidates the backend session. The stored credential is only
// discarded when the backend confirms; on failure the session stays valid
// and the list shows the error.
func (m AppModel) signOut() tea.Cmd {
	return func() tea.Msg {
		if err := m.client.SignOut(m.ctx); err != nil {
			return ErrorMsg{Err: err}
		}
		return SignedOutMsg{}
	}
}

// View renders the current screen.
func (m AppModel) View() string {
	if m.currentModel != nil {
		return m.currentModel.View()
	}
	return "Connecting...\n\nPress Ctrl+C to quit"
}
