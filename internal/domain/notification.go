package domain

import (
	"fmt"
	"time"
)

// Notification is a transient user-facing message. It is never persisted.
type Notification struct {
	ID        string     `json:"id"`
	Kind      DeviceKind `json:"kind,omitempty"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

func SwitchedMessage(d MediaDevice) string {
	return fmt.Sprintf("%s switched to %s", d.Kind.DisplayName(), d.DisplayLabel())
}

func ReconnectedMessage(d MediaDevice) string {
	return fmt.Sprintf("%s reconnected: %s", d.Kind.DisplayName(), d.DisplayLabel())
}

func DisconnectedMessage(k DeviceKind) string {
	return k.DisplayName() + " disconnected — muted"
}

const LoopbackResumedMessage = "Microphone reconnected — loopback resumed"
