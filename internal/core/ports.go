package core

//go:generate mockgen -destination=mocks/mock_ports.go -package=mocks github.com/dkeye/Vibe/internal/core DeviceWatcher,PreferenceStore

import (
	"context"

	"github.com/dkeye/Vibe/internal/domain"
)

// DeviceLister enumerates devices of one kind in platform order.
type DeviceLister interface {
	ListDevices(ctx context.Context, kind domain.DeviceKind) (domain.DeviceList, error)
}

// DeviceProvider opens capture hardware. Errors wrap domain.ErrAccessDenied,
// domain.ErrNotFound or domain.ErrNotSupported.
type DeviceProvider interface {
	DeviceLister
	OpenCamera(ctx context.Context, c domain.CaptureConstraints) (Track, error)
	OpenMicrophone(ctx context.Context, c domain.CaptureConstraints) (AudioTrack, error)
}

// Playback is a running loopback output.
type Playback interface {
	SetMuted(bool)
	Stop()
}

// LoopbackSink plays an audio track on an output device. An empty
// deviceID means the system default.
type LoopbackSink interface {
	StartPlayback(ctx context.Context, deviceID string, src AudioTrack) (Playback, error)
}

// OutputRouter is implemented by playbacks that can move to another output
// device while running. Callers feature-detect it with a type assertion.
type OutputRouter interface {
	SetOutputDevice(ctx context.Context, deviceID string) error
}

// DeviceWatcher signals that the set of devices may have changed. The
// signal carries no kind; subscribers re-enumerate.
type DeviceWatcher interface {
	Subscribe() (changes <-chan struct{}, cancel func())
}

// PreferenceStore persists the last chosen device id per kind.
type PreferenceStore interface {
	Load(ctx context.Context) (domain.Preferences, error)
	Save(ctx context.Context, kind domain.DeviceKind, deviceID string) error
}
