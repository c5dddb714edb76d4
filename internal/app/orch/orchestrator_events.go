package orch

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/Vibe/internal/app"
	"github.com/dkeye/Vibe/internal/app/session"
	"github.com/dkeye/Vibe/internal/core"
	"github.com/dkeye/Vibe/internal/domain"
	"github.com/rs/zerolog/log"
)

// EventFrame is the wire form of a session event.
type EventFrame struct {
	Type         domain.EventType     `json:"type"`
	Notification *domain.Notification `json:"notification,omitempty"`
	Level        *float64             `json:"level,omitempty"`
	State        *domain.SessionState `json:"state,omitempty"`
}

// EncodeEvent serializes ev. State events carry a fresh snapshot of m.
func EncodeEvent(m *session.Manager, ev domain.Event) (core.Frame, error) {
	f := EventFrame{Type: ev.Type}
	switch ev.Type {
	case domain.EventNotification, domain.EventNotificationExpired:
		nt := ev.Notification
		f.Notification = &nt
	case domain.EventLevel:
		l := ev.Level
		f.Level = &l
	case domain.EventState:
		st := m.State()
		f.State = &st
	}
	return json.Marshal(f)
}

// OnEvent pushes one session event to the surface and applies the
// backpressure policy when the surface cannot keep up. It runs on the
// goroutine that raised the event, so it must not close the manager.
func (o *Orchestrator) OnEvent(sid core.SessionID, m *session.Manager, sig core.SignalConnection, ev domain.Event) {
	frame, err := EncodeEvent(m, ev)
	if err != nil {
		log.Error().Str("module", "app.orch").Err(err).Msg("encode event")
		return
	}
	err = sig.TrySend(frame)
	switch {
	case err == nil:
		o.Registry.Hit(sid)
		return
	case errors.Is(err, core.ErrSignalClosed):
		return
	}

	misses := o.Registry.Miss(sid)
	action := app.NoAction
	if o.Policy != nil {
		action = o.Policy.OnBackPressure(ev, misses)
	}
	switch action {
	case app.DetachSurface:
		log.Warn().Str("module", "app.orch").Str("sid", string(sid)).Int("misses", misses).Msg("surface too slow, detaching")
		o.Registry.Cancel(sid)
		sig.Close()
	case app.NoAction:
		log.Debug().Str("module", "app.orch").Str("sid", string(sid)).Str("event", string(ev.Type)).Msg("event lost")
	case app.DropEvent:
	}
}
