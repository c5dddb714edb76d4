package hotplug

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/Vibe/internal/domain"
	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const DefaultDebounce = 250 * time.Millisecond

// DefaultPaths are where device nodes appear and vanish on Linux.
var DefaultPaths = []string{"/dev", "/dev/snd"}

// Watcher signals device changes from filesystem activity on device node
// directories. A plug usually creates several nodes at once, so events are
// debounced into one signal.
type Watcher struct {
	hub
	fs       *fsnotify.Watcher
	clock    clockwork.Clock
	debounce time.Duration

	mu    sync.Mutex
	timer clockwork.Timer
}

// NewWatcher watches every existing directory in paths. It fails with
// domain.ErrNotSupported when none can be watched.
func NewWatcher(paths []string, debounce time.Duration, clock clockwork.Clock) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w: %v", domain.ErrNotSupported, err)
	}
	watched := 0
	for _, p := range paths {
		if err := fw.Add(p); err != nil {
			log.Warn().Str("module", "adapters.hotplug").Str("path", p).Err(err).Msg("cannot watch path")
			continue
		}
		watched++
	}
	if watched == 0 {
		fw.Close()
		return nil, fmt.Errorf("no watchable device paths: %w", domain.ErrNotSupported)
	}
	return &Watcher{fs: fw, clock: clock, debounce: debounce}, nil
}

// Run pumps filesystem events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stopTimer()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			log.Debug().Str("module", "adapters.hotplug").Str("path", ev.Name).Str("op", ev.Op.String()).Msg("device node event")
			w.arm()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			log.Warn().Str("module", "adapters.hotplug").Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) arm() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = w.clock.AfterFunc(w.debounce, w.signal)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Watcher) Close() error {
	return w.fs.Close()
}
