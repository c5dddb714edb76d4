// Package platform joins the camera and audio backends into the device
// provider a session runs against.
package platform

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/Vibe/internal/core"
	"github.com/dkeye/Vibe/internal/domain"
)

type VideoBackend interface {
	core.DeviceLister
	OpenCamera(ctx context.Context, c domain.CaptureConstraints) (core.Track, error)
}

type AudioBackend interface {
	core.DeviceLister
	core.LoopbackSink
	OpenMicrophone(ctx context.Context, c domain.CaptureConstraints) (core.AudioTrack, error)
}

// Provider routes camera requests to the video backend and microphone and
// speaker requests to the audio backend. Either backend may be nil, in
// which case its kinds report domain.ErrNotSupported.
type Provider struct {
	video VideoBackend
	audio AudioBackend
}

var (
	_ core.DeviceProvider = (*Provider)(nil)
	_ core.LoopbackSink   = (*Provider)(nil)
)

func New(video VideoBackend, audio AudioBackend) *Provider {
	return &Provider{video: video, audio: audio}
}

func (p *Provider) lister(kind domain.DeviceKind) (core.DeviceLister, error) {
	switch kind {
	case domain.KindCamera:
		if p.video != nil {
			return p.video, nil
		}
	case domain.KindMicrophone, domain.KindSpeaker:
		if p.audio != nil {
			return p.audio, nil
		}
	default:
		return nil, fmt.Errorf("%q: %w", kind, domain.ErrUnknownKind)
	}
	return nil, fmt.Errorf("%s: %w", kind, domain.ErrNotSupported)
}

func (p *Provider) ListDevices(ctx context.Context, kind domain.DeviceKind) (domain.DeviceList, error) {
	l, err := p.lister(kind)
	if err != nil {
		return nil, err
	}
	return l.ListDevices(ctx, kind)
}

func (p *Provider) OpenCamera(ctx context.Context, c domain.CaptureConstraints) (core.Track, error) {
	if p.video == nil {
		return nil, fmt.Errorf("camera: %w", domain.ErrNotSupported)
	}
	return p.video.OpenCamera(ctx, c)
}

func (p *Provider) OpenMicrophone(ctx context.Context, c domain.CaptureConstraints) (core.AudioTrack, error) {
	if p.audio == nil {
		return nil, fmt.Errorf("microphone: %w", domain.ErrNotSupported)
	}
	return p.audio.OpenMicrophone(ctx, c)
}

func (p *Provider) StartPlayback(ctx context.Context, deviceID string, src core.AudioTrack) (core.Playback, error) {
	if p.audio == nil {
		return nil, fmt.Errorf("playback: %w", domain.ErrNotSupported)
	}
	return p.audio.StartPlayback(ctx, deviceID, src)
}

// Close releases backends that hold platform contexts.
func (p *Provider) Close() error {
	var errs []error
	for _, b := range []any{p.video, p.audio} {
		if c, ok := b.(interface{ Close() error }); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
