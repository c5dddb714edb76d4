package orch

import (
	"context"
	"fmt"

	"github.com/dkeye/Vibe/internal/core"
	"github.com/dkeye/Vibe/internal/domain"
)

type LoopbackAction string

const (
	LoopbackStart LoopbackAction = "start"
	LoopbackStop  LoopbackAction = "stop"
	LoopbackTest  LoopbackAction = "test"
)

func (o *Orchestrator) Select(ctx context.Context, sid core.SessionID, kind domain.DeviceKind, deviceID string) error {
	m, err := o.session(sid)
	if err != nil {
		return err
	}
	return m.SelectDevice(ctx, kind, deviceID)
}

func (o *Orchestrator) Toggle(sid core.SessionID, kind domain.DeviceKind) (bool, error) {
	m, err := o.session(sid)
	if err != nil {
		return false, err
	}
	return m.ToggleEnabled(kind)
}

func (o *Orchestrator) ToggleSpeakerMute(sid core.SessionID) (bool, error) {
	m, err := o.session(sid)
	if err != nil {
		return false, err
	}
	return m.ToggleSpeakerMuted(), nil
}

// Loopback runs a loopback action. For LoopbackStop the error is nil even
// if nothing was running.
func (o *Orchestrator) Loopback(ctx context.Context, sid core.SessionID, action LoopbackAction) error {
	m, err := o.session(sid)
	if err != nil {
		return err
	}
	switch action {
	case LoopbackStart:
		return m.StartLoopback(ctx)
	case LoopbackTest:
		return m.RunLoopbackTest(ctx)
	case LoopbackStop:
		m.StopLoopback()
		return nil
	}
	return fmt.Errorf("loopback action %q: %w", action, domain.ErrNotSupported)
}

func (o *Orchestrator) State(sid core.SessionID) (domain.SessionState, error) {
	m, err := o.session(sid)
	if err != nil {
		return domain.SessionState{}, err
	}
	return m.State(), nil
}

func (o *Orchestrator) Devices(ctx context.Context, sid core.SessionID) (domain.DeviceSnapshot, error) {
	m, err := o.session(sid)
	if err != nil {
		return domain.DeviceSnapshot{}, err
	}
	return m.Devices(ctx), nil
}
