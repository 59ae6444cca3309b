package proxy

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robby/taskdeck/internal/domain"
)

// newTestServer builds a proxy over the given fake backend handler.
func newTestServer(t *testing.T, backend http.Handler) (*Server, *httptest.Server) {
	t.Helper()
	upstream := httptest.NewServer(backend)
	t.Cleanup(upstream.Close)

	s := NewServer(Config{
		BackendURL: upstream.URL,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return s, upstream
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope.Detail
}

func sessionCookieFrom(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == sessionCookie {
			return cookie
		}
	}
	return nil
}

func TestSignIn(t *testing.T) {
	t.Run("success mints the session cookie", func(t *testing.T) {
		s, _ := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/auth/signin", r.URL.Path)
			respondJSON(w, http.StatusOK, map[string]string{
				"message": "Signed in",
				"user_id": "user_1",
				"token":   "tok_session",
			})
		}))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/signin",
			strings.NewReader(`{"email":"user@example.com","password":"hunter22"}`))
		s.Router().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		cookie := sessionCookieFrom(rec)
		require.NotNil(t, cookie)
		assert.Equal(t, "tok_session", cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, "/", cookie.Path)
		assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
		assert.Equal(t, sessionMaxAge, cookie.MaxAge)
		assert.False(t, cookie.Secure)

		// The token travels only in the cookie, never in the page body
		var body map[string]string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "user_1", body["user_id"])
		assert.NotContains(t, body, "token")
	})

	t.Run("rejected credentials", func(t *testing.T) {
		s, _ := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid email or password"})
		}))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/signin",
			strings.NewReader(`{"email":"user@example.com","password":"wrong"}`))
		s.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid email or password", decodeDetail(t, rec))
		assert.Nil(t, sessionCookieFrom(rec))
	})

	t.Run("missing fields never reach the backend", func(t *testing.T) {
		hits := 0
		s, _ := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
		}))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/signin",
			strings.NewReader(`{"email":"user@example.com"}`))
		s.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, hits)
	})
}

func TestSignUp(t *testing.T) {
	t.Run("short password never reaches the backend", func(t *testing.T) {
		hits := 0
		s, _ := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
		}))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/signup",
			strings.NewReader(`{"email":"user@example.com","password":"short"}`))
		s.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Password must be at least 8 characters", decodeDetail(t, rec))
		assert.Zero(t, hits)
	})

	t.Run("duplicate email mirrors the backend status", func(t *testing.T) {
		s, _ := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusConflict, map[string]string{"detail": "Email already registered"})
		}))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/signup",
			strings.NewReader(`{"email":"user@example.com","password":"hunter22"}`))
		s.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "Email already registered", decodeDetail(t, rec))
	})
}

func TestSignOut(t *testing.T) {
	t.Run("success deletes the cookie", func(t *testing.T) {
		s, _ := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok_session", r.Header.Get("Authorization"))
			respondJSON(w, http.StatusOK, map[string]string{"message": "Signed out"})
		}))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/signout", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "tok_session"})
		s.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		cookie := sessionCookieFrom(rec)
		require.NotNil(t, cookie)
		assert.Empty(t, cookie.Value)
		assert.Negative(t, cookie.MaxAge)
	})

	t.Run("backend failure keeps the cookie", func(t *testing.T) {
		s, _ := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Session store unavailable"})
		}))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/signout", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "tok_session"})
		s.Router().ServeHTTP(rec, req)

		// Failure reported, no cookie mutation: the session stays usable
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Nil(t, sessionCookieFrom(rec))
	})

	t.Run("without cookie", func(t *testing.T) {
		hits := 0
		s, _ := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
		}))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/signout", nil)
		s.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Zero(t, hits)
	})
}

func TestTaskRoutes(t *testing.T) {
	t.Run("list forwards the cookie as a bearer credential", func(t *testing.T) {
		s, _ := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok_session", r.Header.Get("Authorization"))
			assert.Equal(t, "/api/tasks/", r.URL.Path)
			respondJSON(w, http.StatusOK, []domain.Task{{ID: 1, Title: "Buy groceries"}})
		}))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/tasks/", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "tok_session"})
		s.Router().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var tasks []domain.Task
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&tasks))
		require.Len(t, tasks, 1)
		assert.Equal(t, "Buy groceries", tasks[0].Title)
	})

	t.Run("without cookie the backend is never contacted", func(t *testing.T) {
		hits := 0
		s, _ := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
		}))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/tasks/", nil)
		s.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Authentication required", decodeDetail(t, rec))
		assert.Zero(t, hits)
	})

	t.Run("empty collection is a JSON array", func(t *testing.T) {
		s, _ := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, []domain.Task{})
		}))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/tasks/", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "tok"})
		s.Router().ServeHTTP(rec, req)

		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("create rejects invalid input locally", func(t *testing.T) {
		hits := 0
		s, _ := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
		}))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/tasks/", strings.NewReader(`{"title":"   "}`))
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "tok"})
		s.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "title is required", decodeDetail(t, rec))
		assert.Zero(t, hits)
	})

	t.Run("delete mirrors backend not found", func(t *testing.T) {
		s, _ := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "/api/tasks/99", r.URL.Path)
			respondJSON(w, http.StatusNotFound, map[string]string{"detail": "Task not found"})
		}))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/api/tasks/99", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "tok"})
		s.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Task not found", decodeDetail(t, rec))
	})

	t.Run("toggle relays the confirmed state", func(t *testing.T) {
		s, _ := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPatch, r.Method)
			assert.Equal(t, "/api/tasks/3/toggle", r.URL.Path)
			respondJSON(w, http.StatusOK, domain.Task{ID: 3, Title: "Flip", Completed: true})
		}))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/api/tasks/3/toggle", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "tok"})
		s.Router().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var task domain.Task
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&task))
		assert.True(t, task.Completed)
	})

	t.Run("expired token surfaces as 401", func(t *testing.T) {
		s, _ := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
		}))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/tasks/", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "tok_expired"})
		s.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Authentication required", decodeDetail(t, rec))
	})

	t.Run("backend down", func(t *testing.T) {
		upstream := httptest.NewServer(http.NotFoundHandler())
		upstream.Close()

		s := NewServer(Config{
			BackendURL: upstream.URL,
			Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/tasks/", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "tok"})
		s.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Failed to fetch tasks", decodeDetail(t, rec))
	})
}

func TestSecureCookieFlag(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{
			"message": "Signed in", "user_id": "user_1", "token": "tok",
		})
	}))
	defer upstream.Close()

	s := NewServer(Config{
		BackendURL:    upstream.URL,
		SecureCookies: true,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signin",
		strings.NewReader(`{"email":"user@example.com","password":"hunter22"}`))
	s.Router().ServeHTTP(rec, req)

	cookie := sessionCookieFrom(rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.Secure)
}
