// Package session owns the device session of one UI surface: selections,
// live tracks, hot-plug reconciliation, metering and loopback.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dkeye/Vibe/internal/app/devices"
	"github.com/dkeye/Vibe/internal/app/loopback"
	"github.com/dkeye/Vibe/internal/app/meter"
	"github.com/dkeye/Vibe/internal/core"
	"github.com/dkeye/Vibe/internal/domain"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

type Config struct {
	NotificationTTL      time.Duration
	LoopbackTestDuration time.Duration
	MeterInterval        time.Duration
	MeterWindow          int
}

func DefaultConfig() Config {
	return Config{
		NotificationTTL:      DefaultNotificationTTL,
		LoopbackTestDuration: loopback.DefaultTestDuration,
		MeterInterval:        meter.DefaultInterval,
		MeterWindow:          meter.DefaultWindow,
	}
}

// Deps are the platform ports a manager drives. Provider is required; a nil
// Prefs keeps selections in memory only, a nil Watcher disables hot-plug
// and a nil Loopback makes loopback operations fail with
// domain.ErrNotSupported.
type Deps struct {
	Provider core.DeviceProvider
	Prefs    core.PreferenceStore
	Watcher  core.DeviceWatcher
	Loopback core.LoopbackSink
	Clock    clockwork.Clock
}

// Manager is the device session of one surface. Create one per surface
// lifetime, call Initialize, and Close it on unmount.
type Manager struct {
	id       string
	provider core.DeviceProvider
	prefs    core.PreferenceStore
	watcher  core.DeviceWatcher
	registry *devices.Registry
	clock    clockwork.Clock

	meter    *meter.Meter
	tester   *loopback.Tester
	notifier *notifier
	queues   map[domain.DeviceKind]*opQueue

	ctx    context.Context
	cancel context.CancelFunc

	mu             sync.Mutex
	initialized    bool
	closed         bool
	stream         *core.Stream
	selection      domain.Selection
	enabled        map[domain.DeviceKind]bool
	available      map[domain.DeviceKind]bool
	empty          map[domain.DeviceKind]bool
	speakerMuted   bool
	resumeLoopback bool
	resumeMicOn    bool
	stopWatch      func()
	watchDone      chan struct{}

	subMu  sync.RWMutex
	subSeq int
	subs   map[int]func(domain.Event)
}

func New(deps Deps, cfg Config) *Manager {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		id:        uuid.NewString(),
		provider:  deps.Provider,
		prefs:     deps.Prefs,
		watcher:   deps.Watcher,
		registry:  devices.NewRegistry(deps.Provider),
		clock:     clock,
		queues:    make(map[domain.DeviceKind]*opQueue, len(domain.AllKinds)),
		ctx:       ctx,
		cancel:    cancel,
		stream:    core.NewStream(),
		enabled:   make(map[domain.DeviceKind]bool),
		available: make(map[domain.DeviceKind]bool),
		empty:     make(map[domain.DeviceKind]bool),
		subs:      make(map[int]func(domain.Event)),
	}
	for _, k := range domain.AllKinds {
		m.queues[k] = newOpQueue()
	}
	m.notifier = newNotifier(clock, cfg.NotificationTTL, m.emit)
	m.meter = meter.New(clock, cfg.MeterInterval, cfg.MeterWindow, func(l float64) {
		m.emit(domain.Event{Type: domain.EventLevel, Level: l})
	})
	if deps.Loopback != nil {
		m.tester = loopback.New(deps.Loopback, clock, cfg.LoopbackTestDuration, m.emitState)
	}
	return m
}

func (m *Manager) ID() string { return m.id }

// Stream returns the composite stream. It is the same object for the whole
// session; tracks are swapped inside it.
func (m *Manager) Stream() *core.Stream { return m.stream }

// Subscribe registers fn for session events. fn runs on the goroutine that
// raised the event and must not block.
func (m *Manager) Subscribe(fn func(domain.Event)) (cancel func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.subSeq++
	id := m.subSeq
	m.subs[id] = fn
	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		delete(m.subs, id)
	}
}

func (m *Manager) emit(ev domain.Event) {
	m.subMu.RLock()
	fns := make([]func(domain.Event), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (m *Manager) emitState() {
	m.emit(domain.Event{Type: domain.EventState})
}

// Initialize loads preferences, enumerates, resolves one selection per kind
// and acquires the selected camera and microphone. A kind without devices
// or whose acquisition fails is left off; that is not an error. Calling it
// again returns the existing stream.
func (m *Manager) Initialize(ctx context.Context) (*core.Stream, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, domain.ErrClosed
	}
	if m.initialized {
		m.mu.Unlock()
		return m.stream, nil
	}
	m.initialized = true
	m.mu.Unlock()

	prefs := m.loadPreferences(ctx)
	snap := m.registry.Enumerate(ctx)

	var changed []domain.DeviceKind
	m.mu.Lock()
	for _, k := range domain.AllKinds {
		list := snap.ByKind(k)
		m.empty[k] = len(list) == 0
		d, ok := list.Resolve(prefs.Get(k))
		if !ok {
			continue
		}
		m.selection.Set(k, d.DeviceID)
		m.available[k] = true
		m.enabled[k] = k.Capture()
		if d.DeviceID != prefs.Get(k) {
			changed = append(changed, k)
		}
	}
	sel := m.selection
	m.mu.Unlock()

	for _, k := range changed {
		m.persist(k, sel.Get(k))
	}

	err := m.acquireInitial(ctx, sel)

	if m.watcher != nil {
		changes, stop := m.watcher.Subscribe()
		done := make(chan struct{})
		m.mu.Lock()
		m.stopWatch, m.watchDone = stop, done
		m.mu.Unlock()
		go m.watch(changes, done)
	}

	log.Info().Str("module", "app.session").Str("session", m.id).
		Str("camera", sel.Camera).Str("microphone", sel.Microphone).Str("speaker", sel.Speaker).
		Msg("session initialized")
	m.emitState()
	return m.stream, err
}

func (m *Manager) loadPreferences(ctx context.Context) domain.Preferences {
	if m.prefs == nil {
		return domain.Preferences{}
	}
	p, err := m.prefs.Load(ctx)
	if err != nil {
		log.Warn().Str("module", "app.session").Str("session", m.id).Err(err).Msg("preferences unavailable, using defaults")
		return domain.Preferences{}
	}
	return p
}

func (m *Manager) persist(kind domain.DeviceKind, deviceID string) {
	if m.prefs == nil || deviceID == "" {
		return
	}
	if err := m.prefs.Save(m.ctx, kind, deviceID); err != nil {
		log.Warn().Str("module", "app.session").Str("session", m.id).Str("kind", string(kind)).Err(err).Msg("failed to persist selection")
	}
}

// do runs fn in the kind's queue slot. The operation is also cancelled when
// the manager closes.
func (m *Manager) do(ctx context.Context, kind domain.DeviceKind, fn func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(m.ctx, cancel)
	defer stop()

	err := m.queues[kind].Do(ctx, fn)
	if err != nil && m.ctx.Err() != nil && !errors.Is(err, domain.ErrClosed) {
		return domain.ErrClosed
	}
	return err
}

func (m *Manager) ready() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.closed:
		return domain.ErrClosed
	case !m.initialized:
		return domain.ErrNotInitialized
	}
	return nil
}

func (m *Manager) watch(changes <-chan struct{}, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-m.ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			if err := m.Reconcile(m.ctx); err != nil && !errors.Is(err, domain.ErrClosed) {
				log.Warn().Str("module", "app.reconciler").Str("session", m.id).Err(err).Msg("reconcile failed")
			}
		}
	}
}

// State returns a read-only view of the session.
func (m *Manager) State() domain.SessionState {
	m.mu.Lock()
	st := domain.SessionState{
		ID:           m.id,
		Kinds:        make(map[domain.DeviceKind]domain.KindState, len(domain.AllKinds)),
		SpeakerMuted: m.speakerMuted,
		Loopback:     domain.LoopbackState{ResumeAfterReconnect: m.resumeLoopback},
	}
	for _, k := range domain.AllKinds {
		ks := domain.KindState{
			DeviceID:  m.selection.Get(k),
			Enabled:   m.enabled[k],
			Available: m.available[k],
		}
		if k == domain.KindSpeaker {
			ks.Enabled = m.available[k] && !m.speakerMuted
		}
		if t, ok := m.stream.Track(k); ok {
			ks.TrackID = t.ID()
		}
		st.Kinds[k] = ks
	}
	m.mu.Unlock()

	if m.tester != nil {
		st.Loopback.Active = m.tester.Active()
		st.Loopback.Timed = m.tester.Timed()
	}
	st.Level = m.meter.Level()
	st.Notifications = m.notifier.list()
	return st
}

func (m *Manager) Selection() domain.Selection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selection
}

// Devices enumerates the platform devices without touching the session.
func (m *Manager) Devices(ctx context.Context) domain.DeviceSnapshot {
	return m.registry.Enumerate(ctx)
}

// Close stops every track, the meter, the loopback and the hot-plug
// subscription. In-flight device operations are cancelled and waited for.
// Closing twice is a no-op.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	stopWatch, watchDone := m.stopWatch, m.watchDone
	m.mu.Unlock()

	m.cancel()
	if stopWatch != nil {
		stopWatch()
	}
	if watchDone != nil {
		<-watchDone
	}
	for _, q := range m.queues {
		q.wait()
	}

	m.mu.Lock()
	if m.tester != nil {
		m.tester.Stop()
	}
	m.meter.Detach()
	for _, t := range m.stream.Clear() {
		t.Stop()
	}
	m.mu.Unlock()

	m.notifier.close()
	m.subMu.Lock()
	clear(m.subs)
	m.subMu.Unlock()
	log.Info().Str("module", "app.session").Str("session", m.id).Msg("session closed")
}
