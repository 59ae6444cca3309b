package tui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robby/taskdeck/internal/credentials"
	"github.com/robby/taskdeck/internal/taskapi"
)

func TestSignInModel_Validation(t *testing.T) {
	t.Run("missing fields", func(t *testing.T) {
		form := NewSignInModel(taskapi.New("http://example.invalid", credentials.NewMemoryStore()))

		model, cmd := form.Update(tea.KeyMsg{Type: tea.KeyEnter})
		form = model.(SignInModel)
		assert.Nil(t, cmd)
		assert.Equal(t, "Email and password are required", form.errText)
	})

	t.Run("short password on sign-up only", func(t *testing.T) {
		form := NewSignInModel(taskapi.New("http://example.invalid", credentials.NewMemoryStore()))
		form.email.SetValue("user@example.com")
		form.password.SetValue("short")
		form.mode = modeSignUp

		model, cmd := form.Update(tea.KeyMsg{Type: tea.KeyEnter})
		form = model.(SignInModel)
		assert.Nil(t, cmd)
		assert.Equal(t, "Password must be at least 8 characters", form.errText)
	})
}

func TestSignInModel_ModeToggle(t *testing.T) {
	form := NewSignInModel(taskapi.New("http://example.invalid", credentials.NewMemoryStore()))
	assert.Equal(t, modeSignIn, form.mode)

	model, _ := form.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	form = model.(SignInModel)
	assert.Equal(t, modeSignUp, form.mode)

	model, _ = form.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	form = model.(SignInModel)
	assert.Equal(t, modeSignIn, form.mode)
}

func TestSignInModel_Submit(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/auth/signin", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{
				"message": "Signed in",
				"user_id": "user_1",
				"token":   "tok_session",
			})
		}))
		defer server.Close()

		form := NewSignInModel(taskapi.New(server.URL, credentials.NewMemoryStore()))
		form.email.SetValue("user@example.com")
		form.password.SetValue("hunter22")

		model, cmd := form.Update(tea.KeyMsg{Type: tea.KeyEnter})
		form = model.(SignInModel)
		require.NotNil(t, cmd)
		assert.True(t, form.busy)

		msg := cmd()
		signed, ok := msg.(SignedInMsg)
		require.True(t, ok)
		assert.Equal(t, "tok_session", signed.Token)
	})

	t.Run("rejected credentials surface as an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid email or password"})
		}))
		defer server.Close()

		form := NewSignInModel(taskapi.New(server.URL, credentials.NewMemoryStore()))
		form.email.SetValue("user@example.com")
		form.password.SetValue("wrong")

		model, cmd := form.Update(tea.KeyMsg{Type: tea.KeyEnter})
		form = model.(SignInModel)
		require.NotNil(t, cmd)

		msg := cmd()
		errMsg, ok := msg.(ErrorMsg)
		require.True(t, ok)
		assert.Contains(t, errMsg.Err.Error(), "Invalid email or password")

		model, _ = form.Update(msg)
		form = model.(SignInModel)
		assert.False(t, form.busy)
		assert.NotEmpty(t, form.errText)
	})
}
