package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/Vibe/internal/core"
	"github.com/dkeye/Vibe/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// acquireInitial opens the selected camera and microphone concurrently.
// Unavailable devices only turn their kind off.
func (m *Manager) acquireInitial(ctx context.Context, sel domain.Selection) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, k := range []domain.DeviceKind{domain.KindCamera, domain.KindMicrophone} {
		id := sel.Get(k)
		if id == "" {
			continue
		}
		g.Go(func() error {
			err := m.do(gctx, k, func(ctx context.Context) error {
				_, err := m.swap(ctx, k, id)
				return err
			})
			if domain.Unavailable(err) {
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

// SelectDevice makes deviceID the selection for kind: capture kinds swap
// their track, the speaker is re-routed.
func (m *Manager) SelectDevice(ctx context.Context, kind domain.DeviceKind, deviceID string) error {
	if kind == domain.KindSpeaker {
		return m.SelectSpeaker(ctx, deviceID)
	}
	_, err := m.SwapTrack(ctx, kind, deviceID)
	return err
}

// SwapTrack replaces the live track of a capture kind with one opened on
// deviceID. The other kind is untouched and the enabled state carries over.
// If acquisition fails the kind is left off and unavailable.
func (m *Manager) SwapTrack(ctx context.Context, kind domain.DeviceKind, deviceID string) (core.Track, error) {
	if !kind.Capture() {
		return nil, fmt.Errorf("swap %s: %w", kind, domain.ErrUnknownKind)
	}
	if err := m.ready(); err != nil {
		return nil, err
	}
	var out core.Track
	err := m.do(ctx, kind, func(ctx context.Context) error {
		t, err := m.swap(ctx, kind, deviceID)
		out = t
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// swap runs inside the kind's queue slot.
func (m *Manager) swap(ctx context.Context, kind domain.DeviceKind, deviceID string) (core.Track, error) {
	m.mu.Lock()
	m.releaseLocked(kind)
	m.mu.Unlock()

	t, err := m.open(ctx, kind, deviceID)
	if err != nil {
		m.swapFailed(ctx, kind, deviceID, err)
		return nil, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		t.Stop()
		return nil, domain.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		m.mu.Unlock()
		t.Stop()
		m.swapFailed(ctx, kind, deviceID, err)
		return nil, err
	}
	t.SetEnabled(m.enabled[kind])
	m.stream.AddTrack(t)
	m.available[kind] = true
	changed := m.selection.Get(kind) != deviceID
	m.selection.Set(kind, deviceID)
	if at, ok := t.(core.AudioTrack); ok {
		m.bindAudioLocked(at)
	}
	m.mu.Unlock()

	if changed {
		m.persist(kind, deviceID)
	}
	log.Info().Str("module", "app.session").Str("session", m.id).
		Str("kind", string(kind)).Str("device", deviceID).Str("track", t.ID()).
		Msg("track swapped")
	m.emitState()
	return t, nil
}

func (m *Manager) open(ctx context.Context, kind domain.DeviceKind, deviceID string) (core.Track, error) {
	switch kind {
	case domain.KindCamera:
		return m.provider.OpenCamera(ctx, domain.VideoConstraints(deviceID))
	case domain.KindMicrophone:
		t, err := m.provider.OpenMicrophone(ctx, domain.RawAudioConstraints(deviceID))
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	return nil, domain.ErrUnknownKind
}

// bindAudioLocked points the meter and a running loopback at a new
// microphone track.
func (m *Manager) bindAudioLocked(at core.AudioTrack) {
	if m.enabled[domain.KindMicrophone] {
		m.meter.Attach(at)
	}
	if m.tester != nil && m.tester.Active() {
		if err := m.tester.Rebind(m.ctx, at); err != nil {
			log.Warn().Str("module", "app.session").Str("session", m.id).Err(err).Msg("loopback rebind failed")
		}
	}
}

// releaseLocked stops and unbinds the track of kind, if any.
func (m *Manager) releaseLocked(kind domain.DeviceKind) {
	t, ok := m.stream.Track(kind)
	if !ok {
		return
	}
	if kind == domain.KindMicrophone {
		m.meter.Detach()
	}
	m.stream.RemoveTrack(t)
	t.Stop()
}

// swapFailed settles a kind whose swap ended without a track. A superseded
// swap leaves the kind to the newer operation; any other failure turns the
// kind off so it is never enabled without a track.
func (m *Manager) swapFailed(ctx context.Context, kind domain.DeviceKind, deviceID string, err error) {
	if errors.Is(context.Cause(ctx), domain.ErrSuperseded) {
		return
	}
	m.mu.Lock()
	m.enabled[kind] = false
	if domain.Unavailable(err) {
		m.available[kind] = false
	}
	m.mu.Unlock()
	log.Warn().Str("module", "app.session").Str("session", m.id).
		Str("kind", string(kind)).Str("device", deviceID).Err(err).
		Msg("acquisition failed, kind turned off")
	m.emitState()
}

// ToggleEnabled flips a kind on or off in place without releasing
// hardware and returns the new state. For the speaker it toggles output
// mute.
func (m *Manager) ToggleEnabled(kind domain.DeviceKind) (bool, error) {
	if err := m.ready(); err != nil {
		return false, err
	}
	if kind == domain.KindSpeaker {
		return !m.ToggleSpeakerMuted(), nil
	}
	if !kind.Capture() {
		return false, domain.ErrUnknownKind
	}

	m.mu.Lock()
	t, ok := m.stream.Track(kind)
	if !ok {
		m.mu.Unlock()
		return false, fmt.Errorf("toggle %s: %w", kind, domain.ErrNoTrack)
	}
	on := !m.enabled[kind]
	m.enabled[kind] = on
	t.SetEnabled(on)
	if at, isAudio := t.(core.AudioTrack); isAudio {
		if on {
			m.meter.Attach(at)
		} else {
			m.meter.Detach()
		}
	}
	m.mu.Unlock()

	log.Debug().Str("module", "app.session").Str("session", m.id).Str("kind", string(kind)).Bool("enabled", on).Msg("toggled")
	m.emitState()
	return on, nil
}

// SelectSpeaker persists the output choice and moves a running loopback to
// it when the playback supports routing. Otherwise the choice only affects
// the next playback.
func (m *Manager) SelectSpeaker(ctx context.Context, deviceID string) error {
	if err := m.ready(); err != nil {
		return err
	}
	return m.do(ctx, domain.KindSpeaker, func(ctx context.Context) error {
		if !m.registry.List(ctx, domain.KindSpeaker).Contains(deviceID) {
			return fmt.Errorf("speaker %q: %w", deviceID, domain.ErrNotFound)
		}
		m.applySpeaker(ctx, deviceID)
		return nil
	})
}

func (m *Manager) applySpeaker(ctx context.Context, deviceID string) {
	m.mu.Lock()
	changed := m.selection.Speaker != deviceID
	m.selection.Speaker = deviceID
	m.available[domain.KindSpeaker] = true
	m.mu.Unlock()

	if changed {
		m.persist(domain.KindSpeaker, deviceID)
	}
	if m.tester != nil {
		err := m.tester.Reroute(ctx, deviceID)
		switch {
		case errors.Is(err, domain.ErrNotSupported):
			log.Debug().Str("module", "app.session").Str("session", m.id).Msg("output routing unsupported, keeping current output")
		case err != nil:
			log.Warn().Str("module", "app.session").Str("session", m.id).Err(err).Msg("output routing failed")
		}
	}
	m.emitState()
}

// ToggleSpeakerMuted flips the output mute and returns the new value.
func (m *Manager) ToggleSpeakerMuted() bool {
	m.mu.Lock()
	m.speakerMuted = !m.speakerMuted
	muted := m.speakerMuted
	if m.tester != nil {
		m.tester.SetMuted(muted)
	}
	m.mu.Unlock()
	m.emitState()
	return muted
}

// StartLoopback plays the live microphone on the selected speaker until
// StopLoopback.
func (m *Manager) StartLoopback(ctx context.Context) error {
	return m.startLoopback(ctx, false)
}

// RunLoopbackTest plays the live microphone for the configured test
// duration and then stops by itself.
func (m *Manager) RunLoopbackTest(ctx context.Context) error {
	return m.startLoopback(ctx, true)
}

func (m *Manager) startLoopback(ctx context.Context, timed bool) error {
	if err := m.ready(); err != nil {
		return err
	}
	if m.tester == nil {
		return fmt.Errorf("loopback: %w", domain.ErrNotSupported)
	}
	m.mu.Lock()
	at, ok := m.stream.AudioTrack()
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("loopback: %w", domain.ErrNoTrack)
	}
	var err error
	if timed {
		err = m.tester.RunTimedTest(ctx, at, m.selection.Speaker)
	} else {
		err = m.tester.Start(ctx, at, m.selection.Speaker)
	}
	if err == nil {
		m.resumeLoopback = false
	}
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.emitState()
	return nil
}

// StopLoopback stops a manual or timed loopback and forgets any pending
// resume after reconnect.
func (m *Manager) StopLoopback() bool {
	if m.tester == nil {
		return false
	}
	m.mu.Lock()
	m.resumeLoopback = false
	stopped := m.tester.Stop()
	m.mu.Unlock()
	m.emitState()
	return stopped
}
