// Package orch attaches UI surfaces to device sessions and routes their
// commands and events.
package orch

import (
	"context"
	"errors"

	"github.com/dkeye/Vibe/internal/app"
	"github.com/dkeye/Vibe/internal/app/session"
	"github.com/dkeye/Vibe/internal/core"
	"github.com/dkeye/Vibe/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

var ErrNoSurface = errors.New("no attached surface")

type Orchestrator struct {
	Registry *app.Registry
	Policy   app.Policy
	// NewSession builds an uninitialized manager for a new surface.
	NewSession func() *session.Manager
}

// Attach creates and initializes the device session of a new surface. A
// surface already bound to sid is unmounted first. cancel is invoked when
// the surface is detached by policy or replaced.
func (o *Orchestrator) Attach(
	ctx context.Context,
	sid core.SessionID,
	sig core.SignalConnection,
	cancel context.CancelFunc,
) (*session.Manager, error) {
	m := o.NewSession()
	if sig != nil {
		m.Subscribe(func(ev domain.Event) { o.OnEvent(sid, m, sig, ev) })
	}
	prev, prevSig := o.Registry.Bind(sid, m, sig, cancel)
	if prev != nil {
		log.Info().Str("module", "app.orch").Str("sid", string(sid)).Str("session", prev.ID()).Msg("surface replaced")
		if prevSig != nil {
			prevSig.Close()
		}
		prev.Close()
	}

	if _, err := m.Initialize(ctx); err != nil {
		o.Detach(sid, m)
		return nil, err
	}
	log.Info().Str("module", "app.orch").Str("sid", string(sid)).Str("session", m.ID()).Msg("surface attached")
	return m, nil
}

// Detach is the surface unmount: the manager is unbound and closed.
func (o *Orchestrator) Detach(sid core.SessionID, m *session.Manager) {
	o.Registry.Unbind(sid, m)
	m.Close()
	log.Info().Str("module", "app.orch").Str("sid", string(sid)).Str("session", m.ID()).Msg("surface detached")
}

// Shutdown closes every attached surface concurrently.
func (o *Orchestrator) Shutdown() {
	var wg conc.WaitGroup
	for _, snap := range o.Registry.Snapshot() {
		wg.Go(func() {
			if snap.Signal != nil {
				snap.Signal.Close()
			}
			o.Detach(snap.SID, snap.Manager)
		})
	}
	if r := wg.WaitAndRecover(); r != nil {
		log.Error().Str("module", "app.orch").Str("panic", r.String()).Msg("surface shutdown panicked")
	}
}

func (o *Orchestrator) session(sid core.SessionID) (*session.Manager, error) {
	m, ok := o.Registry.Get(sid)
	if !ok {
		return nil, ErrNoSurface
	}
	return m, nil
}

// Session returns the manager bound to sid.
func (o *Orchestrator) Session(sid core.SessionID) (*session.Manager, error) {
	return o.session(sid)
}
