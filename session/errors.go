package session

import "errors"

// Sentinel errors matching spec.md §7's five error kinds. Session code
// wraps these with fmt.Errorf("...: %w", ...) so callers can still use
// errors.Is against the kind while getting a specific message.
var (
	// ErrUpstreamNotFound means the configured upstream host/port could
	// not be reached at all (DNS failure, connection refused, timeout
	// dialing).
	ErrUpstreamNotFound = errors.New("session: upstream VNC server not found")

	// ErrUpstreamError means a connection was established but the
	// upstream then misbehaved or disconnected mid-session.
	ErrUpstreamError = errors.New("session: upstream VNC server error")

	// ErrConfiguration means Settings could not be built from the
	// supplied arguments.
	ErrConfiguration = errors.New("session: invalid configuration")

	// ErrAuthentication means the upstream rejected the credentials
	// occamy offered.
	ErrAuthentication = errors.New("session: upstream authentication failed")

	// ErrSessionClosed means an operation was attempted against a
	// session that has already finished.
	ErrSessionClosed = errors.New("session: session already closed")
)
