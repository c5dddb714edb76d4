package core

import "errors"

var (
	// ErrBackpressure is returned by TrySend when the outbound queue is full.
	ErrBackpressure = errors.New("backpressure")
	ErrSignalClosed = errors.New("connection closed")
)

// Frame is a raw serialized event payload.
type Frame []byte

// SignalConnection abstracts the event transport of one UI surface.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// SessionID identifies one UI surface (one browser tab, one CLI run).
type SessionID string
