// Package meter computes a loudness level for a live microphone track.
package meter

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/dkeye/Vibe/internal/core"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	DefaultInterval = 16 * time.Millisecond
	DefaultWindow   = 512
	MaxLevel        = 100.0
	scale           = 200.0
)

// Level maps the RMS of normalized samples onto [0, 100].
func Level(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s) / 32768.0
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	return math.Min(MaxLevel, rms*scale)
}

type run struct {
	trackID string
	detach  func()
	cancel  context.CancelFunc
	done    chan struct{}
}

// Meter samples one track at a time. While attached it publishes a level
// every tick; detached, the level is 0 and nothing runs.
type Meter struct {
	clock    clockwork.Clock
	interval time.Duration
	publish  func(float64)

	mu     sync.Mutex
	buf    []int16
	pos    int
	filled int
	level  float64
	cur    *run
}

// New creates a meter. publish is called from the sampling goroutine and
// must not call back into the meter.
func New(clock clockwork.Clock, interval time.Duration, window int, publish func(float64)) *Meter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if publish == nil {
		publish = func(float64) {}
	}
	return &Meter{
		clock:    clock,
		interval: interval,
		publish:  publish,
		buf:      make([]int16, window),
	}
}

// Attach starts sampling t, tearing down any previous run first.
func (m *Meter) Attach(t core.AudioTrack) {
	m.Detach()

	ctx, cancel := context.WithCancel(context.Background())
	r := &run{trackID: t.ID(), cancel: cancel, done: make(chan struct{})}

	m.mu.Lock()
	m.cur = r
	m.pos, m.filled = 0, 0
	m.mu.Unlock()

	r.detach = t.AddSink(func(samples []int16) { m.push(r, samples) })
	ticker := m.clock.NewTicker(m.interval)
	go m.loop(ctx, r, ticker)

	log.Debug().Str("module", "app.meter").Str("track", t.ID()).Msg("meter attached")
}

// Detach stops sampling and pins the level to 0. It returns once the
// sampling goroutine has exited.
func (m *Meter) Detach() {
	m.mu.Lock()
	r := m.cur
	m.cur = nil
	m.level = 0
	m.pos, m.filled = 0, 0
	m.mu.Unlock()

	if r == nil {
		return
	}
	r.detach()
	r.cancel()
	<-r.done
	m.publish(0)
	log.Debug().Str("module", "app.meter").Str("track", r.trackID).Msg("meter detached")
}

func (m *Meter) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur != nil
}

// TrackID returns the id of the metered track, or "".
func (m *Meter) TrackID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil {
		return ""
	}
	return m.cur.trackID
}

func (m *Meter) Level() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

func (m *Meter) push(r *run, samples []int16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur != r {
		return
	}
	for _, s := range samples {
		m.buf[m.pos] = s
		m.pos = (m.pos + 1) % len(m.buf)
		if m.filled < len(m.buf) {
			m.filled++
		}
	}
}

func (m *Meter) sample(r *run) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur != r {
		return 0, false
	}
	m.level = Level(m.window())
	return m.level, true
}

// window returns the filled part of the ring. Order does not matter for RMS.
func (m *Meter) window() []int16 {
	if m.filled < len(m.buf) {
		return m.buf[:m.filled]
	}
	return m.buf
}

func (m *Meter) loop(ctx context.Context, r *run, ticker clockwork.Ticker) {
	defer close(r.done)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			lvl, ok := m.sample(r)
			if !ok {
				return
			}
			m.publish(lvl)
		}
	}
}
