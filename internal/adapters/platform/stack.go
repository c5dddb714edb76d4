package platform

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/Vibe/internal/adapters/audio"
	"github.com/dkeye/Vibe/internal/adapters/camera"
	"github.com/dkeye/Vibe/internal/adapters/hotplug"
	"github.com/dkeye/Vibe/internal/adapters/prefs"
	"github.com/dkeye/Vibe/internal/core"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

type Options struct {
	PrefsPath       string
	HotplugPaths    []string
	HotplugDebounce time.Duration
	HotplugPoll     time.Duration
	Clock           clockwork.Clock
}

// Stack is the set of platform adapters shared by every session of a
// process.
type Stack struct {
	Provider *Provider

	prefs   *prefs.Store
	watcher interface {
		core.DeviceWatcher
		Run(ctx context.Context) error
	}
	closers []func() error
}

// OpenStack brings up whatever the host supports. Missing audio, camera,
// preference storage or device node watching degrade the stack instead of
// failing it.
func OpenStack(opts Options) *Stack {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	s := &Stack{}

	var ab AudioBackend
	if a, err := audio.New(); err != nil {
		log.Warn().Str("module", "adapters.platform").Err(err).Msg("audio unavailable")
	} else {
		ab = a
	}
	s.Provider = New(camera.New(), ab)
	s.closers = append(s.closers, s.Provider.Close)

	if opts.PrefsPath != "" {
		if st, err := prefs.Open(opts.PrefsPath); err != nil {
			log.Warn().Str("module", "adapters.platform").Str("path", opts.PrefsPath).Err(err).Msg("preferences not persisted")
		} else {
			s.prefs = st
			s.closers = append(s.closers, st.Close)
		}
	}

	if w, err := hotplug.NewWatcher(opts.HotplugPaths, opts.HotplugDebounce, opts.Clock); err != nil {
		log.Info().Str("module", "adapters.platform").Err(err).Msg("falling back to device polling")
		s.watcher = hotplug.NewPoller(s.Provider, opts.HotplugPoll, opts.Clock)
	} else {
		s.watcher = w
		s.closers = append(s.closers, w.Close)
	}
	return s
}

// Preferences returns the store, or nil when selections are kept in memory.
func (s *Stack) Preferences() core.PreferenceStore {
	if s.prefs == nil {
		return nil
	}
	return s.prefs
}

func (s *Stack) Watcher() core.DeviceWatcher { return s.watcher }

// Run drives hot-plug detection until ctx is done.
func (s *Stack) Run(ctx context.Context) error {
	err := s.watcher.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Stack) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}
