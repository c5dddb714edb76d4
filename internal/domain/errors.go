package domain

import "errors"

var (
	ErrAccessDenied   = errors.New("device access denied")
	ErrNotSupported   = errors.New("not supported")
	ErrNotFound       = errors.New("device not found")
	ErrNoTrack        = errors.New("no live track")
	ErrSuperseded     = errors.New("superseded by a newer operation")
	ErrClosed         = errors.New("session closed")
	ErrUnknownKind    = errors.New("unknown device kind")
	ErrLoopbackActive = errors.New("loopback already active")
	ErrNotInitialized = errors.New("session not initialized")
)

// Unavailable reports whether err means the device cannot be used, as
// opposed to the operation being cancelled or replaced.
func Unavailable(err error) bool {
	return errors.Is(err, ErrAccessDenied) ||
		errors.Is(err, ErrNotSupported) ||
		errors.Is(err, ErrNotFound)
}

// Code is the stable identifier of err used by API surfaces.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAccessDenied):
		return "access_denied"
	case errors.Is(err, ErrNotSupported):
		return "not_supported"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNoTrack):
		return "no_track"
	case errors.Is(err, ErrSuperseded):
		return "superseded"
	case errors.Is(err, ErrClosed):
		return "closed"
	case errors.Is(err, ErrUnknownKind):
		return "unknown_kind"
	case errors.Is(err, ErrLoopbackActive):
		return "loopback_active"
	case errors.Is(err, ErrNotInitialized):
		return "not_initialized"
	}
	return "internal"
}
