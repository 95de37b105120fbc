package schemas

import "errors"

// Shared lifecycle sentinels. Backend-specific sentinels (template lookups,
// target resolution) live with their backends.
var (
	// ErrNotReady is returned when an operation runs before Setup succeeded.
	ErrNotReady = errors.New("session is not ready")

	// ErrSessionClosed is returned when an operation runs after Close.
	ErrSessionClosed = errors.New("session is closed")

	// ErrBusy is returned when an interaction is attempted while another one
	// is still in flight. Sessions process one command at a time.
	ErrBusy = errors.New("an interaction is already in progress")
)
