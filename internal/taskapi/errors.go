package taskapi

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated indicates a missing or rejected session credential.
	// It is returned before any network call when no credential is stored,
	// and after the call when the backend rejects the presented credential.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrUpstreamUnavailable indicates a transport-level failure contacting
	// the backend. The operation may be retried by the user.
	ErrUpstreamUnavailable = errors.New("backend unavailable")
)

// BackendError is a non-success response from the backend. Detail carries
// the backend's message verbatim when one was supplied, otherwise a generic
// per-operation fallback.
type BackendError struct {
	StatusCode int
	Detail     string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Detail)
}

// IsUnauthenticated reports whether err maps to the unauthenticated state,
// which the UI-shell boundary turns into a redirect to sign-in.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}
