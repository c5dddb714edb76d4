package app

import (
	"context"
	"sync"

	"github.com/dkeye/Vibe/internal/app/session"
	"github.com/dkeye/Vibe/internal/core"
	"github.com/rs/zerolog/log"
)

type surfaceEntry struct {
	Manager *session.Manager
	Signal  core.SignalConnection
	Cancel  context.CancelFunc
	misses  int
}

// Registry maps UI surfaces to the device session they own.
type Registry struct {
	mu       sync.RWMutex
	surfaces map[core.SessionID]*surfaceEntry
}

func NewRegistry() *Registry {
	return &Registry{surfaces: make(map[core.SessionID]*surfaceEntry)}
}

// Bind attaches a manager to sid and returns the entry it replaced, if any.
// The caller owns closing the replaced manager.
func (r *Registry) Bind(
	sid core.SessionID,
	m *session.Manager,
	sig core.SignalConnection,
	cancel context.CancelFunc,
) (prev *session.Manager, prevSignal core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.surfaces[sid]; ok {
		prev, prevSignal = e.Manager, e.Signal
		if e.Cancel != nil {
			e.Cancel()
		}
	}
	r.surfaces[sid] = &surfaceEntry{Manager: m, Signal: sig, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("session", m.ID()).Msg("bound surface")
	return prev, prevSignal
}

func (r *Registry) Get(sid core.SessionID) (*session.Manager, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.surfaces[sid]; ok {
		return e.Manager, true
	}
	return nil, false
}

// Unbind removes sid only while it is still bound to m, so a late unmount
// of a replaced surface does not drop its successor.
func (r *Registry) Unbind(sid core.SessionID, m *session.Manager) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.surfaces[sid]
	if !ok || e.Manager != m {
		return false
	}
	delete(r.surfaces, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind surface")
	return true
}

// Miss records one dropped event for sid and returns the consecutive count.
// Hit resets it.
func (r *Registry) Miss(sid core.SessionID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.surfaces[sid]
	if !ok {
		return 0
	}
	e.misses++
	return e.misses
}

func (r *Registry) Hit(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.surfaces[sid]; ok {
		e.misses = 0
	}
}

type regSnap struct {
	SID     core.SessionID
	Manager *session.Manager
	Signal  core.SignalConnection
}

func (r *Registry) Snapshot() []regSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]regSnap, 0, len(r.surfaces))
	for sid, e := range r.surfaces {
		out = append(out, regSnap{SID: sid, Manager: e.Manager, Signal: e.Signal})
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.surfaces)
}

func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.surfaces[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled surface")
	return true
}
