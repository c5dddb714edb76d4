package testutil

import (
	"context"
	"sync"

	"github.com/dkeye/Vibe/internal/domain"
)

// MemPrefs is an in-memory core.PreferenceStore.
type MemPrefs struct {
	mu    sync.Mutex
	p     domain.Preferences
	saves int
}

func NewMemPrefs(p domain.Preferences) *MemPrefs {
	return &MemPrefs{p: p}
}

func (s *MemPrefs) Load(context.Context) (domain.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p, nil
}

func (s *MemPrefs) Save(_ context.Context, kind domain.DeviceKind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.Set(kind, id)
	s.saves++
	return nil
}

func (s *MemPrefs) Get() domain.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p
}

func (s *MemPrefs) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
