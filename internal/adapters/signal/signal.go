package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Vibe/internal/app/orch"
	"github.com/dkeye/Vibe/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

type Options struct {
	ReadLimit   int64
	PingPeriod  time.Duration
	EventBuffer int
	CommandRate int
	RateWindow  time.Duration
}

// SignalWSController serves the event websocket of a surface: session
// events go out, device commands come in.
type SignalWSController struct {
	Orch    *orch.Orchestrator
	opts    Options
	clock   clockwork.Clock
	limiter *RateLimiter
}

func NewSignalWSController(o *orch.Orchestrator, opts Options, clock clockwork.Clock) *SignalWSController {
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 64
	}
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = 54 * time.Second
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = 32768
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SignalWSController{
		Orch:    o,
		opts:    opts,
		clock:   clock,
		limiter: NewRateLimiter(opts.CommandRate, opts.RateWindow, clock),
	}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrSignalClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleEvents upgrades the request and mounts a new surface for the
// client token. The websocket closing is the surface unmount.
func (ctl *SignalWSController) HandleEvents(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(c.GetString("client_token"))
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.opts.ReadLimit)

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.opts.EventBuffer),
	}
	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)

	m, err := ctl.Orch.Attach(ctx, sid, conn, cancel)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("attach surface")
		ctl.sendError(conn, "attach", err)
		cancel()
		conn.Close()
		return
	}
	go ctl.readPump(ctx, sid, m, conn, cancel)
}
