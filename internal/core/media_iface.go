package core

import "github.com/dkeye/Vibe/internal/domain"

type ReadyState string

const (
	ReadyStateLive  ReadyState = "live"
	ReadyStateEnded ReadyState = "ended"
)

// Track is one live capture track. Once stopped it is inert: ReadyState is
// "ended" and SetEnabled has no effect.
type Track interface {
	ID() string
	Kind() domain.DeviceKind
	DeviceID() string
	Label() string
	Enabled() bool
	SetEnabled(bool)
	ReadyState() ReadyState
	// Stop releases the hardware. Safe to call more than once.
	Stop()
}

// SampleSink receives interleaved signed 16-bit PCM. The slice is only
// valid for the duration of the call.
type SampleSink func(samples []int16)

type AudioTrack interface {
	Track
	SampleRate() int
	Channels() int
	// AddSink taps captured PCM while the track is enabled. The returned func
	// detaches the sink.
	AddSink(SampleSink) (remove func())
}
