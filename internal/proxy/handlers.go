package proxy

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/robby/taskdeck/internal/credentials"
	"github.com/robby/taskdeck/internal/domain"
	"github.com/robby/taskdeck/internal/taskapi"
)

// credentialsRequest is the inbound body of the signup/signin operations.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeDetail(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	if len(req.Password) < 8 {
		writeDetail(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	session, err := s.client.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, err, "Signup failed")
		return
	}
	s.mintSession(w, session.Token)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": session.Message,
		"user_id": session.UserID,
	})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeDetail(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	session, err := s.client.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		// A backend 401 here means rejected credentials, not a missing
		// session, so the generic envelope would mislead the user.
		if taskapi.IsUnauthenticated(err) {
			writeDetail(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		s.writeError(w, err, "Invalid email or password")
		return
	}
	s.mintSession(w, session.Token)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": session.Message,
		"user_id": session.UserID,
	})
}

// handleSignOut invalidates the backend session, then deletes the cookie.
// The cookie is only deleted on confirmed backend success; otherwise the
// failure is reported and the session stays valid, so client and backend
// session state never silently desynchronize.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	client, ok := s.sessionClient(w, r)
	if !ok {
		return
	}
	if err := client.SignOut(r.Context()); err != nil {
		s.writeError(w, err, "Signout failed")
		return
	}
	s.clearSession(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Signed out successfully"})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	client, ok := s.sessionClient(w, r)
	if !ok {
		return
	}
	tasks, err := client.ListTasks(r.Context())
	if err != nil {
		s.writeError(w, err, "Failed to fetch tasks")
		return
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	client, ok := s.sessionClient(w, r)
	if !ok {
		return
	}
	var input taskapi.TaskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	task, err := client.CreateTask(r.Context(), input)
	if err != nil {
		s.writeError(w, err, "Failed to create task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	client, ok := s.sessionClient(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	var input taskapi.TaskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	task, err := client.UpdateTask(r.Context(), id, input)
	if err != nil {
		s.writeError(w, err, "Failed to update task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	client, ok := s.sessionClient(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	task, err := client.ToggleTask(r.Context(), id)
	if err != nil {
		s.writeError(w, err, "Failed to toggle task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	client, ok := s.sessionClient(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	if err := client.DeleteTask(r.Context(), id); err != nil {
		s.writeError(w, err, "Failed to delete task")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}

// sessionClient reads the session cookie and returns a client bound to its
// value. When the cookie is absent it writes the 401 envelope and reports
// false; the backend is never contacted.
func (s *Server) sessionClient(w http.ResponseWriter, r *http.Request) (*taskapi.Client, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		writeDetail(w, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}
	return s.client.WithCredentials(credentials.Static(cookie.Value)), true
}

// mintSession sets the session cookie from the backend-issued token.
func (s *Server) mintSession(w http.ResponseWriter, token string) {
	if token == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearSession deletes the session cookie.
func (s *Server) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

// writeError converts a normalized client error into the proxy envelope.
// Backend rejections mirror their status and carry the backend's message
// verbatim; local failures map to 401 or 500.
func (s *Server) writeError(w http.ResponseWriter, err error, fallback string) {
	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		writeDetail(w, http.StatusBadRequest, validation.Reason)
		return
	}
	if taskapi.IsUnauthenticated(err) {
		writeDetail(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	var backend *taskapi.BackendError
	if errors.As(err, &backend) {
		writeDetail(w, backend.StatusCode, backend.Detail)
		return
	}
	if errors.Is(err, taskapi.ErrUpstreamUnavailable) {
		s.log.Error("backend unreachable", "error", err)
		writeDetail(w, http.StatusInternalServerError, fallback)
		return
	}
	s.log.Error("proxy failure", "error", err)
	writeDetail(w, http.StatusInternalServerError, fallback)
}

func taskID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id < 1 {
		writeDetail(w, http.StatusBadRequest, "Invalid task id")
		return 0, false
	}
	return id, true
}
