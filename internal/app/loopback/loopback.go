// Package loopback plays the live microphone back on an output device so a
// user can hear themselves.
package loopback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/Vibe/internal/core"
	"github.com/dkeye/Vibe/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const DefaultTestDuration = 5 * time.Second

// Tester owns at most one playback. Manual and timed runs are separate
// operations; starting either while one is active fails with
// domain.ErrLoopbackActive.
type Tester struct {
	sink     core.LoopbackSink
	clock    clockwork.Clock
	duration time.Duration
	onExpire func()

	mu       sync.Mutex
	pb       core.Playback
	track    core.AudioTrack
	deviceID string
	muted    bool
	timed    bool
	timer    clockwork.Timer
	gen      uint64
}

// New creates a tester. onExpire, if set, runs after a timed test stops on
// its own.
func New(sink core.LoopbackSink, clock clockwork.Clock, duration time.Duration, onExpire func()) *Tester {
	if duration <= 0 {
		duration = DefaultTestDuration
	}
	return &Tester{sink: sink, clock: clock, duration: duration, onExpire: onExpire}
}

// Start begins a manual loopback that runs until Stop.
func (t *Tester) Start(ctx context.Context, track core.AudioTrack, deviceID string) error {
	return t.start(ctx, track, deviceID, false)
}

// RunTimedTest begins a loopback that stops by itself after the test
// duration. It returns once playback has started.
func (t *Tester) RunTimedTest(ctx context.Context, track core.AudioTrack, deviceID string) error {
	return t.start(ctx, track, deviceID, true)
}

func (t *Tester) start(ctx context.Context, track core.AudioTrack, deviceID string, timed bool) error {
	if track == nil {
		return domain.ErrNoTrack
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pb != nil {
		return domain.ErrLoopbackActive
	}
	pb, err := t.sink.StartPlayback(ctx, deviceID, track)
	if err != nil {
		return fmt.Errorf("start playback: %w", err)
	}
	pb.SetMuted(t.muted)
	t.pb, t.track, t.deviceID, t.timed = pb, track, deviceID, timed
	t.gen++
	if timed {
		gen := t.gen
		t.timer = t.clock.AfterFunc(t.duration, func() { t.expire(gen) })
	}
	log.Info().Str("module", "app.loopback").Str("track", track.ID()).Str("output", deviceID).Bool("timed", timed).Msg("loopback started")
	return nil
}

func (t *Tester) expire(gen uint64) {
	t.mu.Lock()
	if t.gen != gen || t.pb == nil {
		t.mu.Unlock()
		return
	}
	t.stopLocked()
	t.mu.Unlock()
	log.Info().Str("module", "app.loopback").Msg("timed loopback finished")
	if t.onExpire != nil {
		t.onExpire()
	}
}

// Stop halts playback and detaches the track. It reports whether anything
// was running.
func (t *Tester) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pb == nil {
		return false
	}
	t.stopLocked()
	log.Info().Str("module", "app.loopback").Msg("loopback stopped")
	return true
}

func (t *Tester) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.pb.Stop()
	t.pb, t.track, t.timed = nil, nil, false
	t.gen++
}

// Rebind moves a running loopback onto a new microphone track, keeping the
// mode and any pending timeout.
func (t *Tester) Rebind(ctx context.Context, track core.AudioTrack) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pb == nil || track == nil || t.track.ID() == track.ID() {
		return nil
	}
	pb, err := t.sink.StartPlayback(ctx, t.deviceID, track)
	if err != nil {
		return fmt.Errorf("rebind playback: %w", err)
	}
	pb.SetMuted(t.muted)
	t.pb.Stop()
	t.pb, t.track = pb, track
	return nil
}

// Reroute moves playback to deviceID. Playbacks that cannot change output
// while running keep their current one and the call returns
// domain.ErrNotSupported.
func (t *Tester) Reroute(ctx context.Context, deviceID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deviceID = deviceID
	if t.pb == nil {
		return nil
	}
	r, ok := t.pb.(core.OutputRouter)
	if !ok {
		return fmt.Errorf("output routing: %w", domain.ErrNotSupported)
	}
	return r.SetOutputDevice(ctx, deviceID)
}

func (t *Tester) SetMuted(muted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.muted = muted
	if t.pb != nil {
		t.pb.SetMuted(muted)
	}
}

func (t *Tester) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pb != nil
}

func (t *Tester) Timed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timed
}

// TrackID returns the id of the track being played back, or "".
func (t *Tester) TrackID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.track == nil {
		return ""
	}
	return t.track.ID()
}
