package core

import (
	"sync"

	"github.com/dkeye/Vibe/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Stream is the composite media stream of one session: at most one track per
// kind. It is mutated in place and never stops the tracks it holds.
type Stream struct {
	id     string
	mu     sync.RWMutex
	byKind map[domain.DeviceKind]Track
}

func NewStream() *Stream {
	return &Stream{
		id:     uuid.NewString(),
		byKind: make(map[domain.DeviceKind]Track),
	}
}

func (s *Stream) ID() string { return s.id }

// AddTrack binds t under its kind. It reports false when that kind already
// holds a track; callers remove the old one first.
func (s *Stream) AddTrack(t Track) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byKind[t.Kind()]; ok {
		return false
	}
	s.byKind[t.Kind()] = t
	log.Debug().Str("module", "core.stream").Str("stream", s.id).Str("track", t.ID()).Str("kind", string(t.Kind())).Msg("track added")
	return true
}

// RemoveTrack unbinds t if it is the track currently held for its kind.
func (s *Stream) RemoveTrack(t Track) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byKind[t.Kind()]
	if !ok || cur.ID() != t.ID() {
		return false
	}
	delete(s.byKind, t.Kind())
	log.Debug().Str("module", "core.stream").Str("stream", s.id).Str("track", t.ID()).Msg("track removed")
	return true
}

func (s *Stream) Track(kind domain.DeviceKind) (Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.byKind[kind]
	return t, ok
}

func (s *Stream) AudioTrack() (AudioTrack, bool) {
	t, ok := s.Track(domain.KindMicrophone)
	if !ok {
		return nil, false
	}
	at, ok := t.(AudioTrack)
	return at, ok
}

func (s *Stream) VideoTrack() (Track, bool) {
	return s.Track(domain.KindCamera)
}

// Tracks returns the bound tracks, video first.
func (s *Stream) Tracks() []Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Track, 0, len(s.byKind))
	for _, k := range domain.AllKinds {
		if t, ok := s.byKind[k]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Clear unbinds every track and returns them so the owner can stop them.
func (s *Stream) Clear() []Track {
	out := s.Tracks()
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.byKind)
	return out
}
