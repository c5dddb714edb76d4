package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dkeye/Vibe/internal/core"
	"github.com/dkeye/Vibe/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// playbackBuffer holds 200ms of mono 48kHz audio.
const playbackBuffer = sampleRate / 5

// Backend lists and opens microphones and speakers through the platform
// audio context.
type Backend struct {
	actx   audioContext
	closed atomic.Bool
}

// New initializes the platform audio context. Builds without cgo get a
// context that lists no devices.
func New() (*Backend, error) {
	actx, err := newAudioContext()
	if err != nil {
		return nil, err
	}
	log.Info().Str("module", "adapters.audio").Str("backend", actx.name()).Msg("Audio context initialized")
	return newBackend(actx), nil
}

func newBackend(actx audioContext) *Backend {
	return &Backend{actx: actx}
}

func (b *Backend) Name() string { return b.actx.name() }

func (b *Backend) ListDevices(_ context.Context, kind domain.DeviceKind) (domain.DeviceList, error) {
	if b.closed.Load() {
		return nil, domain.ErrClosed
	}
	return b.actx.list(kind)
}

func (b *Backend) resolve(kind domain.DeviceKind, id string) (domain.MediaDevice, error) {
	list, err := b.actx.list(kind)
	if err != nil {
		return domain.MediaDevice{}, err
	}
	if id == "" {
		if d, ok := list.First(); ok {
			return d, nil
		}
		return domain.MediaDevice{}, fmt.Errorf("no %s: %w", kind, domain.ErrNotFound)
	}
	d, ok := list.Find(id)
	if !ok {
		return domain.MediaDevice{}, fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	return d, nil
}

// OpenMicrophone starts raw capture on exactly c.DeviceID. miniaudio does
// no processing, so the processing flags are only checked.
func (b *Backend) OpenMicrophone(ctx context.Context, c domain.CaptureConstraints) (core.AudioTrack, error) {
	if b.closed.Load() {
		return nil, domain.ErrClosed
	}
	if c.EchoCancellation || c.NoiseSuppression || c.AutoGainControl {
		return nil, fmt.Errorf("audio processing: %w", domain.ErrNotSupported)
	}
	if (c.SampleRate != 0 && c.SampleRate != sampleRate) || c.Channels > channels {
		return nil, fmt.Errorf("format %dHz/%dch: %w", c.SampleRate, c.Channels, domain.ErrNotSupported)
	}
	d, err := b.resolve(domain.KindMicrophone, c.DeviceID)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t := &micTrack{
		id:       uuid.NewString(),
		deviceID: d.DeviceID,
		label:    d.DisplayLabel(),
		taps:     core.NewTapSet(),
	}
	t.enabled.Store(true)
	dev, err := b.actx.initCapture(d.DeviceID, t.onData)
	if err != nil {
		return nil, err
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		return nil, fmt.Errorf("start capture %s: %w: %v", d.DeviceID, domain.ErrAccessDenied, err)
	}
	t.dev = dev

	log.Debug().Str("module", "adapters.audio").Str("track", t.id).Str("device", d.DeviceID).Msg("Capture started")
	return t, nil
}

// StartPlayback plays src on deviceID until Stop. The playback follows the
// source only while it is enabled.
func (b *Backend) StartPlayback(ctx context.Context, deviceID string, src core.AudioTrack) (core.Playback, error) {
	if b.closed.Load() {
		return nil, domain.ErrClosed
	}
	if src == nil || src.ReadyState() != core.ReadyStateLive {
		return nil, domain.ErrNoTrack
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := &playback{actx: b.actx, buf: newRing(playbackBuffer)}
	dev, err := b.actx.initPlayback(deviceID, p.onData)
	if err != nil {
		return nil, err
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		return nil, fmt.Errorf("start playback %s: %w: %v", deviceID, domain.ErrAccessDenied, err)
	}
	p.dev, p.deviceID = dev, deviceID
	p.remove = src.AddSink(p.buf.write)

	log.Debug().Str("module", "adapters.audio").Str("track", src.ID()).Str("device", deviceID).Msg("Playback started")
	return p, nil
}

func (b *Backend) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	return b.actx.free()
}

// micTrack is a running capture device.
type micTrack struct {
	id       string
	deviceID string
	label    string
	dev      device
	taps     *core.TapSet
	samples  []int16 // callback goroutine only

	enabled  atomic.Bool
	ended    atomic.Bool
	stopOnce sync.Once
}

func (t *micTrack) onData(_, in []byte, _ uint32) {
	if t.ended.Load() {
		return
	}
	t.samples = bytesToS16(in, t.samples)
	t.taps.Forward(t.samples)
}

func (t *micTrack) ID() string              { return t.id }
func (t *micTrack) Kind() domain.DeviceKind { return domain.KindMicrophone }
func (t *micTrack) DeviceID() string        { return t.deviceID }
func (t *micTrack) Label() string           { return t.label }
func (t *micTrack) Enabled() bool           { return t.enabled.Load() }
func (t *micTrack) SampleRate() int         { return sampleRate }
func (t *micTrack) Channels() int           { return channels }

func (t *micTrack) SetEnabled(b bool) {
	if t.ended.Load() {
		return
	}
	t.enabled.Store(b)
	t.taps.SetPaused(!b)
}

func (t *micTrack) ReadyState() core.ReadyState {
	if t.ended.Load() {
		return core.ReadyStateEnded
	}
	return core.ReadyStateLive
}

func (t *micTrack) AddSink(s core.SampleSink) func() { return t.taps.Add(s) }

func (t *micTrack) Stop() {
	t.stopOnce.Do(func() {
		t.ended.Store(true)
		if err := t.dev.Stop(); err != nil {
			log.Warn().Str("module", "adapters.audio").Str("track", t.id).Err(err).Msg("Stop capture")
		}
		t.dev.Uninit()
		t.taps.Close()
		log.Debug().Str("module", "adapters.audio").Str("track", t.id).Msg("Capture stopped")
	})
}

// playback drains a ring filled by the source track's sink.
type playback struct {
	actx   audioContext
	buf    *ring
	remove func()
	muted  atomic.Bool

	mu       sync.Mutex
	dev      device
	deviceID string
	stopped  bool
	samples  []int16 // callback goroutine only
}

func (p *playback) onData(out, _ []byte, framecount uint32) {
	n := int(framecount) * channels
	if cap(p.samples) < n {
		p.samples = make([]int16, n)
	}
	p.samples = p.samples[:n]
	p.buf.read(p.samples)
	if p.muted.Load() {
		clear(out)
		return
	}
	s16ToBytes(p.samples, out)
}

func (p *playback) SetMuted(b bool) { p.muted.Store(b) }

// SetOutputDevice reopens playback on deviceID. The old device keeps
// playing if the new one cannot be opened.
func (p *playback) SetOutputDevice(ctx context.Context, deviceID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return domain.ErrNoTrack
	}
	if deviceID == p.deviceID {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dev, err := p.actx.initPlayback(deviceID, p.onData)
	if err != nil {
		return err
	}
	old := p.dev
	if err := old.Stop(); err != nil {
		log.Warn().Str("module", "adapters.audio").Str("device", p.deviceID).Err(err).Msg("Stop playback")
	}
	old.Uninit()
	p.buf.reset()
	if err := dev.Start(); err != nil {
		dev.Uninit()
		p.dev = nil
		p.stopped = true
		p.remove()
		return errors.Join(fmt.Errorf("start playback %s: %w", deviceID, domain.ErrAccessDenied), err)
	}
	p.dev, p.deviceID = dev, deviceID
	log.Debug().Str("module", "adapters.audio").Str("device", deviceID).Msg("Playback rerouted")
	return nil
}

func (p *playback) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.stopped = true
	p.remove()
	if err := p.dev.Stop(); err != nil {
		log.Warn().Str("module", "adapters.audio").Str("device", p.deviceID).Err(err).Msg("Stop playback")
	}
	p.dev.Uninit()
}
