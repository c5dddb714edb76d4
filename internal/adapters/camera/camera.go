// Package camera lists and opens video capture devices through
// pion/mediadevices.
package camera

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"sync/atomic"

	"github.com/dkeye/Vibe/internal/core"
	"github.com/dkeye/Vibe/internal/domain"
	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/prop"
	"github.com/rs/zerolog/log"
)

// source is the part of a mediadevices track the backend holds on to.
type source interface {
	ID() string
	Close() error
}

type Backend struct {
	enumerate func() []mediadevices.MediaDeviceInfo
	open      func(deviceID string) (source, error)
}

func New() *Backend {
	return &Backend{enumerate: mediadevices.EnumerateDevices, open: getUserMedia}
}

func getUserMedia(deviceID string) (source, error) {
	stream, err := mediadevices.GetUserMedia(mediadevices.MediaStreamConstraints{
		Video: func(c *mediadevices.MediaTrackConstraints) {
			c.DeviceID = prop.StringExact(deviceID)
		},
	})
	if err != nil {
		return nil, err
	}
	tracks := stream.GetVideoTracks()
	if len(tracks) == 0 {
		return nil, fmt.Errorf("camera %s: no video track: %w", deviceID, domain.ErrNotFound)
	}
	for _, extra := range tracks[1:] {
		_ = extra.Close()
	}
	return tracks[0], nil
}

func (b *Backend) ListDevices(_ context.Context, kind domain.DeviceKind) (domain.DeviceList, error) {
	if kind != domain.KindCamera {
		return nil, fmt.Errorf("camera backend %s: %w", kind, domain.ErrNotSupported)
	}
	var res domain.DeviceList
	for _, info := range b.enumerate() {
		if info.Kind != mediadevices.VideoInput {
			continue
		}
		res = append(res, domain.MediaDevice{DeviceID: info.DeviceID, Kind: domain.KindCamera, Label: info.Label})
	}
	return res, nil
}

func (b *Backend) OpenCamera(ctx context.Context, c domain.CaptureConstraints) (core.Track, error) {
	list, _ := b.ListDevices(ctx, domain.KindCamera)
	d, ok := list.Resolve(c.DeviceID)
	if !ok || (c.DeviceID != "" && d.DeviceID != c.DeviceID) {
		return nil, fmt.Errorf("camera %q: %w", c.DeviceID, domain.ErrNotFound)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := b.open(d.DeviceID)
	switch {
	case errors.Is(err, fs.ErrPermission):
		return nil, fmt.Errorf("camera %s: %w: %v", d.DeviceID, domain.ErrAccessDenied, err)
	case errors.Is(err, domain.ErrNotFound):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("camera %s: %w: %v", d.DeviceID, domain.ErrNotFound, err)
	}

	t := &track{src: src, deviceID: d.DeviceID, label: d.DisplayLabel()}
	t.enabled.Store(true)
	log.Debug().Str("module", "adapters.camera").Str("track", src.ID()).Str("device", d.DeviceID).Msg("Camera opened")
	return t, nil
}

// track wraps a mediadevices video track. Enabled is a session-level flag;
// the driver keeps the device open until Stop.
type track struct {
	src      source
	deviceID string
	label    string
	enabled  atomic.Bool
	ended    atomic.Bool
	stopOnce sync.Once
}

func (t *track) ID() string              { return t.src.ID() }
func (t *track) Kind() domain.DeviceKind { return domain.KindCamera }
func (t *track) DeviceID() string        { return t.deviceID }
func (t *track) Label() string           { return t.label }
func (t *track) Enabled() bool           { return t.enabled.Load() }

func (t *track) SetEnabled(b bool) {
	if t.ended.Load() {
		return
	}
	t.enabled.Store(b)
}

func (t *track) ReadyState() core.ReadyState {
	if t.ended.Load() {
		return core.ReadyStateEnded
	}
	return core.ReadyStateLive
}

func (t *track) Stop() {
	t.stopOnce.Do(func() {
		t.ended.Store(true)
		if err := t.src.Close(); err != nil {
			log.Warn().Str("module", "adapters.camera").Str("track", t.src.ID()).Err(err).Msg("Close camera")
		}
	})
}
