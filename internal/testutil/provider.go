package testutil

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/dkeye/Vibe/internal/core"
	"github.com/dkeye/Vibe/internal/domain"
)

func Dev(kind domain.DeviceKind, id, label string) domain.MediaDevice {
	return domain.MediaDevice{DeviceID: id, Kind: kind, Label: label}
}

// FakeProvider is a scriptable core.DeviceProvider.
type FakeProvider struct {
	mu      sync.Mutex
	devices map[domain.DeviceKind]domain.DeviceList
	listErr map[domain.DeviceKind]error
	openErr map[string]error
	gates   map[string]chan struct{}
	opened  []domain.CaptureConstraints
	tracks  []core.Track
	seq     int
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		devices: make(map[domain.DeviceKind]domain.DeviceList),
		listErr: make(map[domain.DeviceKind]error),
		openErr: make(map[string]error),
		gates:   make(map[string]chan struct{}),
	}
}

// SetDevices replaces the device list of kind.
func (p *FakeProvider) SetDevices(kind domain.DeviceKind, devs ...domain.MediaDevice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.devices[kind] = slices.Clone(domain.DeviceList(devs))
}

func (p *FakeProvider) FailList(kind domain.DeviceKind, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listErr[kind] = err
}

// FailOpen makes opening deviceID fail with err. A nil err clears it.
func (p *FakeProvider) FailOpen(deviceID string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.openErr, deviceID)
		return
	}
	p.openErr[deviceID] = err
}

// Gate makes opening deviceID block until the returned func is called or
// the open context is cancelled.
func (p *FakeProvider) Gate(deviceID string) (release func()) {
	c := make(chan struct{})
	p.mu.Lock()
	p.gates[deviceID] = c
	p.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.gates, deviceID)
			p.mu.Unlock()
			close(c)
		})
	}
}

func (p *FakeProvider) ListDevices(_ context.Context, kind domain.DeviceKind) (domain.DeviceList, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.listErr[kind]; err != nil {
		return nil, err
	}
	return slices.Clone(p.devices[kind]), nil
}

func (p *FakeProvider) OpenCamera(ctx context.Context, c domain.CaptureConstraints) (core.Track, error) {
	d, err := p.prepare(ctx, domain.KindCamera, c)
	if err != nil {
		return nil, err
	}
	t := NewFakeTrack(p.nextID(d), d)
	p.record(t)
	return t, nil
}

func (p *FakeProvider) OpenMicrophone(ctx context.Context, c domain.CaptureConstraints) (core.AudioTrack, error) {
	d, err := p.prepare(ctx, domain.KindMicrophone, c)
	if err != nil {
		return nil, err
	}
	t := NewFakeAudioTrack(p.nextID(d), d)
	p.record(t)
	return t, nil
}

func (p *FakeProvider) prepare(ctx context.Context, kind domain.DeviceKind, c domain.CaptureConstraints) (domain.MediaDevice, error) {
	p.mu.Lock()
	p.opened = append(p.opened, c)
	gate := p.gates[c.DeviceID]
	p.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.MediaDevice{}, ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.openErr[c.DeviceID]; err != nil {
		return domain.MediaDevice{}, err
	}
	d, ok := p.devices[kind].Find(c.DeviceID)
	if !ok {
		return domain.MediaDevice{}, fmt.Errorf("%s %q: %w", kind, c.DeviceID, domain.ErrNotFound)
	}
	return d, nil
}

func (p *FakeProvider) nextID(d domain.MediaDevice) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	return fmt.Sprintf("%s-%d", d.DeviceID, p.seq)
}

func (p *FakeProvider) record(t core.Track) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracks = append(p.tracks, t)
}

// Opened returns the constraints of every open attempt, in order.
func (p *FakeProvider) Opened() []domain.CaptureConstraints {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.opened)
}

// Live returns the tracks of kind that were opened and not stopped.
func (p *FakeProvider) Live(kind domain.DeviceKind) []core.Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []core.Track
	for _, t := range p.tracks {
		if t.Kind() == kind && t.ReadyState() == core.ReadyStateLive {
			out = append(out, t)
		}
	}
	return out
}

// All returns every track ever opened.
func (p *FakeProvider) All() []core.Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.tracks)
}

// FakeWatcher is a core.DeviceWatcher triggered by hand.
type FakeWatcher struct {
	mu   sync.Mutex
	subs map[int]chan struct{}
	seq  int
}

func NewFakeWatcher() *FakeWatcher {
	return &FakeWatcher{subs: make(map[int]chan struct{})}
}

func (w *FakeWatcher) Subscribe() (<-chan struct{}, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seq++
	id := w.seq
	c := make(chan struct{}, 1)
	w.subs[id] = c
	return c, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.subs, id)
	}
}

// Trigger signals every subscriber. Signals coalesce.
func (w *FakeWatcher) Trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, c := range w.subs {
		select {
		case c <- struct{}{}:
		default:
		}
	}
}

func (w *FakeWatcher) Subscribers() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.subs)
}
