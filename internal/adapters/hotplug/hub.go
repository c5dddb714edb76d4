// Package hotplug turns platform device-change activity into session
// reconcile signals.
package hotplug

import "sync"

// hub fans one change signal out to every subscriber. Each subscriber has a
// one-slot buffer so bursts coalesce and a slow reader never blocks the
// source.
type hub struct {
	mu   sync.Mutex
	seq  int
	subs map[int]chan struct{}
}

func (h *hub) Subscribe() (<-chan struct{}, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs == nil {
		h.subs = make(map[int]chan struct{})
	}
	h.seq++
	id := h.seq
	c := make(chan struct{}, 1)
	h.subs[id] = c
	return c, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
	}
}

func (h *hub) signal() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.subs {
		select {
		case c <- struct{}{}:
		default:
		}
	}
}

func (h *hub) subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
