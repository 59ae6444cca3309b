// Package credentials provides session credential management.
// It implements a simple interface with multiple providers following the
// "deep modules" principle - simple interface, complex implementation hidden.
//
// The credential is an opaque backend-issued token. Only the relay layer
// ever reads it; nothing in this package inspects or validates its content.
package credentials

import (
	"errors"
	"os"
	"sync"
)

// ErrNoCredential indicates no session credential is available.
// Callers treat it as "not authenticated" and must not contact the backend.
var ErrNoCredential = errors.New("no session credential")

// Store defines the interface for obtaining the current session credential.
// Implementations may use different sources (memory, environment, cookies).
type Store interface {
	Token() (string, error)
}

// MemoryStore holds a credential in memory for the lifetime of a session.
// The console client fills it after sign-in and clears it on sign-out.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryStore creates an empty in-memory credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Token returns the stored credential, or ErrNoCredential when empty.
func (m *MemoryStore) Token() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == "" {
		return "", ErrNoCredential
	}
	return m.token, nil
}

// Set replaces the stored credential.
func (m *MemoryStore) Set(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

// Clear removes the stored credential.
func (m *MemoryStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
}

// EnvStore obtains the credential from the TASKDECK_TOKEN environment
// variable. Useful for scripting against the backend without a sign-in.
type EnvStore struct{}

// Token reads the TASKDECK_TOKEN environment variable.
func (EnvStore) Token() (string, error) {
	token := os.Getenv("TASKDECK_TOKEN")
	if token == "" {
		return "", ErrNoCredential
	}
	return token, nil
}

// Static wraps a fixed token as a Store. The proxy uses it to present the
// per-request cookie value as a credential capability.
type Static string

// Token returns the wrapped value, or ErrNoCredential when empty.
func (s Static) Token() (string, error) {
	if s == "" {
		return "", ErrNoCredential
	}
	return string(s), nil
}

// Fallback returns a Store that tries each of the given stores in order
// and yields the first credential found.
func Fallback(stores ...Store) Store {
	return fallback(stores)
}

type fallback []Store

func (f fallback) Token() (string, error) {
	for _, s := range f {
		token, err := s.Token()
		if err == nil {
			return token, nil
		}
	}
	return "", ErrNoCredential
}
