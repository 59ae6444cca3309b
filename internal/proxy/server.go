// Package proxy exposes the session-cookie authenticated HTTP surface that
// fronts the backend task/auth service. Inbound requests carry an HTTP-only
// session cookie; the proxy translates it into a bearer credential per
// request, forwards the call, and normalizes every failure to a
// {"detail": "..."} envelope with a status mirroring the backend's.
package proxy

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/robby/taskdeck/internal/taskapi"
)

// sessionCookie is the name of the HTTP-only session cookie. Its value is
// the opaque backend-issued token; page scripts can never read it.
const sessionCookie = "auth-token"

// sessionMaxAge is the cookie lifetime: 7 days.
const sessionMaxAge = 7 * 24 * 60 * 60

// Config carries the proxy server settings.
type Config struct {
	// BackendURL is the upstream task/auth service base URL.
	BackendURL string
	// SecureCookies marks the session cookie Secure (set in production).
	SecureCookies bool
	// StaticDir optionally serves the UI shell's static files under /.
	StaticDir string
	// Logger defaults to slog on stderr when nil.
	Logger *slog.Logger
}

// Server is the authenticated proxy.
type Server struct {
	client *taskapi.Client
	log    *slog.Logger
	cfg    Config
}

// NewServer creates a proxy over the configured backend. The embedded
// client carries no credential of its own; each request binds its cookie
// value via WithCredentials.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Server{
		client: taskapi.New(cfg.BackendURL, noCredentials{}),
		log:    logger,
		cfg:    cfg,
	}
}

// noCredentials is the credential store of the unbound base client.
type noCredentials struct{}

func (noCredentials) Token() (string, error) {
	return "", taskapi.ErrUnauthenticated
}

// Router builds the proxy's route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestLog)

	r.HandleFunc("/api/auth/signup", s.handleSignUp).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/signin", s.handleSignIn).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/signout", s.handleSignOut).Methods(http.MethodPost)

	r.HandleFunc("/api/tasks/", s.handleListTasks).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks/", s.handleCreateTask).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks/{id:[0-9]+}", s.handleUpdateTask).Methods(http.MethodPut)
	r.HandleFunc("/api/tasks/{id:[0-9]+}/toggle", s.handleToggleTask).Methods(http.MethodPatch)
	r.HandleFunc("/api/tasks/{id:[0-9]+}", s.handleDeleteTask).Methods(http.MethodDelete)

	// Task views require the session cookie; everything else in the shell
	// (sign-in, sign-up, landing page) is public.
	shell := s.shellHandler()
	r.PathPrefix("/tasks").Handler(s.Guard(shell))
	r.PathPrefix("/").Handler(shell)

	return r
}

// shellHandler serves the excluded UI shell's static files when a
// directory is configured, else a plain 404.
func (s *Server) shellHandler() http.Handler {
	if s.cfg.StaticDir == "" {
		return http.NotFoundHandler()
	}
	return http.FileServer(http.Dir(s.cfg.StaticDir))
}

// ListenAndServe runs the proxy on the given address.
func (s *Server) ListenAndServe(addr string) error {
	s.log.Info("proxy listening", "addr", addr, "backend", s.cfg.BackendURL)
	return http.ListenAndServe(addr, s.Router())
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeDetail writes the normalized error envelope.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
