package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/robby/taskdeck/internal/taskapi"
)

// signInMode selects between sign-in and sign-up submission.
type signInMode int

const (
	modeSignIn signInMode = iota
	modeSignUp
)

// SignInModel is the authentication screen: email and password inputs plus
// a toggle between signing in and creating an account.
type SignInModel struct {
	client *taskapi.Client

	mode     signInMode
	email    textinput.Model
	password textinput.Model
	focused  int
	busy     bool
	errText  string
}

// NewSignInModel creates the sign-in screen.
func NewSignInModel(client *taskapi.Client) SignInModel {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "Email:    "
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "Password: "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return SignInModel{
		client:   client,
		email:    email,
		password: password,
	}
}

// Init initializes the sign-in screen.
func (m SignInModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m SignInModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ErrorMsg:
		m.busy = false
		m.errText = msg.Err.Error()
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			m.focused = 1 - m.focused
			if m.focused == 0 {
				m.email.Focus()
				m.password.Blur()
			} else {
				m.password.Focus()
				m.email.Blur()
			}
			return m, nil
		case "ctrl+s":
			if m.mode == modeSignIn {
				m.mode = modeSignUp
			} else {
				m.mode = modeSignIn
			}
			return m, nil
		case "enter":
			email := strings.TrimSpace(m.email.Value())
			password := m.password.Value()
			if email == "" || password == "" {
				m.errText = "Email and password are required"
				return m, nil
			}
			if m.mode == modeSignUp && len(password) < 8 {
				m.errText = "Password must be at least 8 characters"
				return m, nil
			}
			m.busy = true
			m.errText = ""
			return m, m.submit(email, password)
		}
	}

	var cmd tea.Cmd
	if m.focused == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

// submit runs the sign-in or sign-up call and reports the outcome.
func (m SignInModel) submit(email, password string) tea.Cmd {
	mode := m.mode
	return func() tea.Msg {
		var (
			session taskapi.Session
			err     error
		)
		if mode == modeSignUp {
			session, err = m.client.SignUp(context.Background(), email, password)
		} else {
			session, err = m.client.SignIn(context.Background(), email, password)
		}
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return SignedInMsg{Token: session.Token, Message: session.Message}
	}
}

// View renders the sign-in screen.
func (m SignInModel) View() string {
	heading := "Sign in to taskdeck"
	action := "sign up instead"
	if m.mode == modeSignUp {
		heading = "Create a taskdeck account"
		action = "sign in instead"
	}

	var sections []string
	sections = append(sections, TitleStyle.Render(heading))
	sections = append(sections, m.email.View())
	sections = append(sections, m.password.View())

	if m.busy {
		sections = append(sections, DimStyle.Render("Contacting backend..."))
	}
	if m.errText != "" {
		sections = append(sections, ErrorStyle.Render(m.errText))
	}

	sections = append(sections, HelpStyle.Render(
		fmt.Sprintf("enter:submit tab:next field ctrl+s:%s ctrl+c:quit", action)))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
