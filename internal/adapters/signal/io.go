package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/Vibe/internal/app/session"
	"github.com/dkeye/Vibe/internal/core"
	"github.com/dkeye/Vibe/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ping := ctl.clock.NewTicker(ctl.opts.PingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			c.Close()
			return
		case <-ping.Chan():
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

// readPump dispatches commands until the socket closes, then unmounts the
// surface. Commands run concurrently so a newer select can supersede an
// older one still acquiring hardware.
func (ctl *SignalWSController) readPump(
	ctx context.Context,
	sid core.SessionID,
	m *session.Manager,
	c *WsSignalConn,
	cancel context.CancelFunc,
) {
	var inflight conc.WaitGroup
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		cancel()
		inflight.Wait()
		ctl.Orch.Detach(sid, m)
		ctl.limiter.Forget(sid)
		c.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		inflight.Go(func() { ctl.handleSignal(ctx, sid, c, data) })
	}
}

func (ctl *SignalWSController) handleSignal(ctx context.Context, sid core.SessionID, c *WsSignalConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendJSON(c, map[string]any{"type": "error", "error": "bad_payload"})
		return
	}
	if env.Type != "ping" && !ctl.limiter.Allow(sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Str("type", env.Type).Msg("rate limited")
		ctl.sendJSON(c, map[string]any{"type": "error", "op": env.Type, "error": "rate_limited"})
		return
	}

	switch env.Type {
	case "ping":
		ctl.handlePing(c)
	case "select":
		ctl.handleSelect(ctx, sid, c, data)
	case "toggle":
		ctl.handleToggle(sid, c, data)
	case "loopback":
		ctl.handleLoopback(ctx, sid, c, data)
	case "speaker_mute":
		ctl.handleSpeakerMute(sid, c)
	case "state":
		ctl.handleState(sid, c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		ctl.sendJSON(c, map[string]any{"type": "error", "op": env.Type, "error": "unknown_type"})
	}
}

func (ctl *SignalWSController) sendJSON(c core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *SignalWSController) sendError(c core.SignalConnection, op string, err error) {
	ctl.sendJSON(c, map[string]any{
		"type":    "error",
		"op":      op,
		"error":   domain.Code(err),
		"message": err.Error(),
	})
}
