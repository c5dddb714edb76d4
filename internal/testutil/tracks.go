// Package testutil provides in-memory devices, tracks and watchers for
// exercising sessions without hardware.
package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dkeye/Vibe/internal/core"
	"github.com/dkeye/Vibe/internal/domain"
)

type FakeTrack struct {
	id       string
	kind     domain.DeviceKind
	deviceID string
	label    string
	enabled  atomic.Bool
	ended    atomic.Bool
	stops    atomic.Int32
}

func NewFakeTrack(id string, d domain.MediaDevice) *FakeTrack {
	t := &FakeTrack{id: id, kind: d.Kind, deviceID: d.DeviceID, label: d.DisplayLabel()}
	t.enabled.Store(true)
	return t
}

func (t *FakeTrack) ID() string              { return t.id }
func (t *FakeTrack) Kind() domain.DeviceKind { return t.kind }
func (t *FakeTrack) DeviceID() string        { return t.deviceID }
func (t *FakeTrack) Label() string           { return t.label }
func (t *FakeTrack) Enabled() bool           { return t.enabled.Load() }

func (t *FakeTrack) SetEnabled(b bool) {
	if t.ended.Load() {
		return
	}
	t.enabled.Store(b)
}

func (t *FakeTrack) ReadyState() core.ReadyState {
	if t.ended.Load() {
		return core.ReadyStateEnded
	}
	return core.ReadyStateLive
}

func (t *FakeTrack) Stop() {
	t.stops.Add(1)
	t.ended.Store(true)
}

// Stops returns how many times Stop was called.
func (t *FakeTrack) Stops() int { return int(t.stops.Load()) }

type FakeAudioTrack struct {
	*FakeTrack
	taps *core.TapSet
}

func NewFakeAudioTrack(id string, d domain.MediaDevice) *FakeAudioTrack {
	return &FakeAudioTrack{FakeTrack: NewFakeTrack(id, d), taps: core.NewTapSet()}
}

func (t *FakeAudioTrack) SampleRate() int { return 48000 }
func (t *FakeAudioTrack) Channels() int   { return 1 }

func (t *FakeAudioTrack) AddSink(s core.SampleSink) func() { return t.taps.Add(s) }

func (t *FakeAudioTrack) SetEnabled(b bool) {
	if t.ended.Load() {
		return
	}
	t.FakeTrack.SetEnabled(b)
	t.taps.SetPaused(!b)
}

func (t *FakeAudioTrack) Stop() {
	t.FakeTrack.Stop()
	t.taps.Close()
}

// Sinks returns the number of attached sinks.
func (t *FakeAudioTrack) Sinks() int { return t.taps.Len() }

// Push simulates one capture callback.
func (t *FakeAudioTrack) Push(samples []int16) {
	if t.ended.Load() {
		return
	}
	t.taps.Forward(samples)
}

type FakePlayback struct {
	mu       sync.Mutex
	deviceID string
	src      core.AudioTrack
	muted    bool
	stopped  bool
	samples  int
	remove   func()
}

func (p *FakePlayback) SetMuted(b bool) {
	p.mu.Lock()
	p.muted = b
	p.mu.Unlock()
}

func (p *FakePlayback) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.stopped = true
	p.remove()
}

func (p *FakePlayback) SetOutputDevice(_ context.Context, id string) error {
	p.mu.Lock()
	p.deviceID = id
	p.mu.Unlock()
	return nil
}

func (p *FakePlayback) DeviceID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.deviceID
}

func (p *FakePlayback) Source() core.AudioTrack {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.src
}

func (p *FakePlayback) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

func (p *FakePlayback) Stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// Samples returns how many PCM samples reached the output.
func (p *FakePlayback) Samples() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.samples
}

// FakeLoopbackSink records every playback it starts.
type FakeLoopbackSink struct {
	mu        sync.Mutex
	playbacks []*FakePlayback
	err       error
}

func (s *FakeLoopbackSink) StartPlayback(_ context.Context, deviceID string, src core.AudioTrack) (core.Playback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	p := &FakePlayback{deviceID: deviceID, src: src}
	p.remove = src.AddSink(func(samples []int16) {
		p.mu.Lock()
		if !p.muted {
			p.samples += len(samples)
		}
		p.mu.Unlock()
	})
	s.playbacks = append(s.playbacks, p)
	return p, nil
}

func (s *FakeLoopbackSink) Fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Last returns the most recently started playback.
func (s *FakeLoopbackSink) Last() *FakePlayback {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.playbacks) == 0 {
		return nil
	}
	return s.playbacks[len(s.playbacks)-1]
}

func (s *FakeLoopbackSink) Started() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.playbacks)
}
