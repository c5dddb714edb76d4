package testutil

import (
	"encoding/json"
	"sync"

	"github.com/dkeye/Vibe/internal/core"
)

// FakeSignal is an in-memory core.SignalConnection.
type FakeSignal struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func (s *FakeSignal) TrySend(f core.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		return core.ErrSignalClosed
	case s.full:
		return core.ErrBackpressure
	}
	s.frames = append(s.frames, f)
	return nil
}

func (s *FakeSignal) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// SetFull makes every TrySend fail with core.ErrBackpressure.
func (s *FakeSignal) SetFull(full bool) {
	s.mu.Lock()
	s.full = full
	s.mu.Unlock()
}

func (s *FakeSignal) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Types returns the "type" field of every frame sent so far.
func (s *FakeSignal) Types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.frames))
	for _, f := range s.frames {
		var env struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal(f, &env)
		out = append(out, env.Type)
	}
	return out
}

func (s *FakeSignal) Frames() []core.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Frame(nil), s.frames...)
}
