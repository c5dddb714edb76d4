package session

import (
	"context"
	"errors"

	"github.com/dkeye/Vibe/internal/domain"
	"github.com/rs/zerolog/log"
)

// Reconcile re-enumerates devices and brings every kind back in line with
// what is plugged in. It runs on every device-change signal and shares the
// per-kind queues with user operations.
func (m *Manager) Reconcile(ctx context.Context) error {
	if err := m.ready(); err != nil {
		return err
	}
	snap := m.registry.Enumerate(ctx)
	for _, kind := range domain.AllKinds {
		list := snap.ByKind(kind)
		err := m.do(ctx, kind, func(ctx context.Context) error {
			return m.reconcileKind(ctx, kind, list)
		})
		switch {
		case err == nil, errors.Is(err, domain.ErrSuperseded), domain.Unavailable(err):
		case errors.Is(err, domain.ErrClosed):
			return err
		default:
			log.Warn().Str("module", "app.reconciler").Str("session", m.id).Str("kind", string(kind)).Err(err).Msg("kind reconcile failed")
		}
	}
	return nil
}

func (m *Manager) reconcileKind(ctx context.Context, kind domain.DeviceKind, list domain.DeviceList) error {
	m.mu.Lock()
	selected := m.selection.Get(kind)
	wasEmpty := m.empty[kind]
	m.empty[kind] = len(list) == 0
	_, hasTrack := m.stream.Track(kind)
	available := m.available[kind]
	m.mu.Unlock()

	if len(list) == 0 {
		if !wasEmpty {
			m.disconnect(kind)
		}
		return nil
	}

	d, _ := list.Resolve(selected)
	fallback := d.DeviceID != selected
	reconnected := wasEmpty && (kind == domain.KindSpeaker || !hasTrack)
	// A capture kind can lose its track without losing its device when a
	// swap is cancelled after releasing the old one.
	restore := kind.Capture() && available && !hasTrack
	if !fallback && !reconnected && !restore {
		return nil
	}

	log.Info().Str("module", "app.reconciler").Str("session", m.id).
		Str("kind", string(kind)).Str("from", selected).Str("to", d.DeviceID).
		Bool("reconnected", reconnected).Msg("reconciling selection")

	if kind == domain.KindSpeaker {
		m.applySpeaker(ctx, d.DeviceID)
	} else if _, err := m.swap(ctx, kind, d.DeviceID); err != nil {
		return err
	}

	switch {
	case fallback:
		m.notifier.notify(kind, domain.SwitchedMessage(d))
	case reconnected:
		m.notifier.notify(kind, domain.ReconnectedMessage(d))
	}

	if kind == domain.KindMicrophone && wasEmpty {
		m.resumeLoopbackAfterReconnect(ctx)
	}
	return nil
}

// disconnect turns a kind off after its last device vanished. Losing the
// microphone stops a running loopback and remembers to resume it, along
// with whether the microphone was on.
func (m *Manager) disconnect(kind domain.DeviceKind) {
	m.mu.Lock()
	wasOn := m.enabled[kind]
	switch kind {
	case domain.KindSpeaker:
		m.speakerMuted = true
		m.available[kind] = false
		if m.tester != nil {
			m.tester.SetMuted(true)
		}
	default:
		m.releaseLocked(kind)
		m.enabled[kind] = false
		m.available[kind] = false
	}
	if kind == domain.KindMicrophone && m.tester != nil && m.tester.Stop() {
		m.resumeLoopback = true
		m.resumeMicOn = wasOn
	}
	m.mu.Unlock()

	log.Info().Str("module", "app.reconciler").Str("session", m.id).Str("kind", string(kind)).Msg("last device disconnected")
	m.notifier.notify(kind, domain.DisconnectedMessage(kind))
	m.emitState()
}

func (m *Manager) resumeLoopbackAfterReconnect(ctx context.Context) {
	if m.tester == nil {
		return
	}
	m.mu.Lock()
	if !m.resumeLoopback {
		m.mu.Unlock()
		return
	}
	at, ok := m.stream.AudioTrack()
	if !ok {
		m.mu.Unlock()
		return
	}
	err := m.tester.Start(ctx, at, m.selection.Speaker)
	if err == nil {
		m.resumeLoopback = false
		if m.resumeMicOn {
			m.enabled[domain.KindMicrophone] = true
			at.SetEnabled(true)
			m.meter.Attach(at)
		}
		m.resumeMicOn = false
	}
	m.mu.Unlock()

	if err != nil {
		log.Warn().Str("module", "app.reconciler").Str("session", m.id).Err(err).Msg("loopback resume failed")
		return
	}
	m.notifier.notify(domain.KindMicrophone, domain.LoopbackResumedMessage)
	m.emitState()
}
