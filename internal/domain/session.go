package domain

// LoopbackState is the session-level view of the loopback tester.
type LoopbackState struct {
	Active bool `json:"active"`
	Timed  bool `json:"timed"`
	// ResumeAfterReconnect is set when the microphone vanished while the
	// loopback was running.
	ResumeAfterReconnect bool `json:"resume_after_reconnect"`
}

// KindState describes one kind inside a session.
type KindState struct {
	DeviceID  string `json:"device_id,omitempty"`
	Enabled   bool   `json:"enabled"`
	Available bool   `json:"available"`
	TrackID   string `json:"track_id,omitempty"`
}

// SessionState is a read-only view of a manager for APIs.
type SessionState struct {
	ID            string                   `json:"id"`
	Kinds         map[DeviceKind]KindState `json:"kinds"`
	SpeakerMuted  bool                     `json:"speaker_muted"`
	Loopback      LoopbackState            `json:"loopback"`
	Level         float64                  `json:"level"`
	Notifications []Notification           `json:"notifications"`
}

type EventType string

const (
	EventNotification        EventType = "notification"
	EventNotificationExpired EventType = "notification_expired"
	EventLevel               EventType = "level"
	EventState               EventType = "state"
)

// Event is pushed from a session to whatever surface is attached to it.
type Event struct {
	Type         EventType
	Notification Notification
	Level        float64
}
