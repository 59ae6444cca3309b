// Package taskapi provides a typed REST client for the backend task/auth
// service. It implements a deep module interface - simple methods hiding
// the credential relay and error normalization logic.
//
// Every authenticated operation reads the session credential from the
// injected credentials.Store and presents it as a bearer credential. A
// missing credential fails with ErrUnauthenticated before the network is
// touched; transport failures surface as ErrUpstreamUnavailable; backend
// rejections keep their status and message in a *BackendError.
package taskapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/robby/taskdeck/internal/credentials"
)

// DefaultBaseURL is the backend address used when none is configured.
const DefaultBaseURL = "http://localhost:8000"

// Client is a backend REST API client.
// It provides high-level methods for the auth and task operations.
type Client struct {
	base  string
	http  *http.Client
	creds credentials.Store
}

// New creates a new backend client. The credential store is consulted on
// every authenticated request, never cached.
func New(baseURL string, creds credentials.Store) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		base:  strings.TrimRight(baseURL, "/"),
		http:  &http.Client{Timeout: 30 * time.Second},
		creds: creds,
	}
}

// WithCredentials returns a copy of the client bound to a different
// credential store. The proxy uses this to bind each inbound request's
// cookie value without rebuilding the underlying HTTP client.
func (c *Client) WithCredentials(creds credentials.Store) *Client {
	clone := *c
	clone.creds = creds
	return &clone
}

// authResponse is the success body of the signup and signin operations.
type authResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
	Token   string `json:"token"`
}

// Session is the result of a successful sign-in or sign-up.
type Session struct {
	Message string
	UserID  string
	Token   string
}

// SignUp registers a new account and returns the backend-issued session.
func (c *Client) SignUp(ctx context.Context, email, password string) (Session, error) {
	return c.authenticate(ctx, "/api/auth/signup", email, password, "Signup failed")
}

// SignIn authenticates an existing account and returns the session.
func (c *Client) SignIn(ctx context.Context, email, password string) (Session, error) {
	return c.authenticate(ctx, "/api/auth/signin", email, password, "Invalid email or password")
}

func (c *Client) authenticate(ctx context.Context, path, email, password, fallback string) (Session, error) {
	body := map[string]string{"email": email, "password": password}
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, path, body, &resp, false, fallback); err != nil {
		return Session{}, err
	}
	return Session{Message: resp.Message, UserID: resp.UserID, Token: resp.Token}, nil
}

// SignOut invalidates the current session on the backend. The caller owns
// the stored credential and must only discard it when SignOut succeeds.
func (c *Client) SignOut(ctx context.Context) error {
	var resp struct {
		Message string `json:"message"`
	}
	return c.do(ctx, http.MethodPost, "/api/auth/signout", nil, &resp, true, "Signout failed")
}

// do issues a request against the backend and normalizes the outcome.
// When authed is set, the session credential is attached as a bearer
// credential; its absence fails the call before any network activity.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, authed bool, fallback string) error {
	var token string
	if authed {
		var err error
		token, err = c.creds.Token()
		if err != nil {
			return fmt.Errorf("%w: no session credential", ErrUnauthenticated)
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := decodeDetail(resp.Body)
		if detail == "" {
			detail = fallback
		}
		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %s", ErrUnauthenticated, detail)
		}
		return &BackendError{StatusCode: resp.StatusCode, Detail: detail}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// decodeDetail extracts the backend's error message from a non-success
// body. The backend reports errors as {"detail": "..."}.
func decodeDetail(r io.Reader) string {
	var envelope struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(r).Decode(&envelope); err != nil {
		return ""
	}
	return envelope.Detail
}

// Unauthenticated reports whether the client currently holds no credential.
// Route guards use this presence check; token validity is still delegated
// to the backend on the first subsequent call.
func (c *Client) Unauthenticated() bool {
	_, err := c.creds.Token()
	return errors.Is(err, credentials.ErrNoCredential)
}
