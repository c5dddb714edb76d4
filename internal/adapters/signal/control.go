package signal

import (
	"context"
	"encoding/json"

	"github.com/dkeye/Vibe/internal/app/orch"
	"github.com/dkeye/Vibe/internal/core"
	"github.com/dkeye/Vibe/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handlePing(
	conn *WsSignalConn,
) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}

type kindPayload struct {
	Type     string `json:"type"`
	Kind     string `json:"kind"`
	DeviceID string `json:"device_id,omitempty"`
}

func (ctl *SignalWSController) parseKind(conn *WsSignalConn, op string, data []byte) (kindPayload, domain.DeviceKind, bool) {
	var p kindPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("op", op).Msg("bad payload")
		ctl.sendJSON(conn, map[string]any{"type": "error", "op": op, "error": "bad_payload"})
		return p, "", false
	}
	kind, err := domain.ParseDeviceKind(p.Kind)
	if err != nil {
		ctl.sendError(conn, op, err)
		return p, "", false
	}
	return p, kind, true
}

func (ctl *SignalWSController) handleSelect(
	ctx context.Context,
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	p, kind, ok := ctl.parseKind(conn, "select", data)
	if !ok {
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("kind", string(kind)).Str("device", p.DeviceID).Msg("select")
	if err := ctl.Orch.Select(ctx, sid, kind, p.DeviceID); err != nil {
		ctl.sendError(conn, "select", err)
		return
	}
	ctl.sendJSON(conn, map[string]any{"type": "selected", "kind": kind, "device_id": p.DeviceID})
}

func (ctl *SignalWSController) handleToggle(
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	_, kind, ok := ctl.parseKind(conn, "toggle", data)
	if !ok {
		return
	}
	enabled, err := ctl.Orch.Toggle(sid, kind)
	if err != nil {
		ctl.sendError(conn, "toggle", err)
		return
	}
	ctl.sendJSON(conn, map[string]any{"type": "toggled", "kind": kind, "enabled": enabled})
}

func (ctl *SignalWSController) handleLoopback(
	ctx context.Context,
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	var p struct {
		Type   string `json:"type"`
		Action string `json:"action"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendJSON(conn, map[string]any{"type": "error", "op": "loopback", "error": "bad_payload"})
		return
	}
	action := orch.LoopbackAction(p.Action)
	if err := ctl.Orch.Loopback(ctx, sid, action); err != nil {
		ctl.sendError(conn, "loopback", err)
		return
	}
	ctl.sendJSON(conn, map[string]any{"type": "loopback", "action": action})
}

func (ctl *SignalWSController) handleSpeakerMute(sid core.SessionID, conn *WsSignalConn) {
	muted, err := ctl.Orch.ToggleSpeakerMute(sid)
	if err != nil {
		ctl.sendError(conn, "speaker_mute", err)
		return
	}
	ctl.sendJSON(conn, map[string]any{"type": "speaker_muted", "muted": muted})
}

func (ctl *SignalWSController) handleState(sid core.SessionID, conn *WsSignalConn) {
	st, err := ctl.Orch.State(sid)
	if err != nil {
		ctl.sendError(conn, "state", err)
		return
	}
	ctl.sendJSON(conn, orch.EventFrame{Type: domain.EventState, State: &st})
}
