package session

import (
	"slices"
	"sync"
	"time"

	"github.com/dkeye/Vibe/internal/domain"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const DefaultNotificationTTL = 3 * time.Second

// notifier keeps the transient notifications of one session. Each one
// expires ttl after it was raised no matter what happens in between.
type notifier struct {
	clock clockwork.Clock
	ttl   time.Duration
	emit  func(domain.Event)

	mu     sync.Mutex
	active []domain.Notification
	timers map[string]clockwork.Timer
	closed bool
}

func newNotifier(clock clockwork.Clock, ttl time.Duration, emit func(domain.Event)) *notifier {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	return &notifier{
		clock:  clock,
		ttl:    ttl,
		emit:   emit,
		timers: make(map[string]clockwork.Timer),
	}
}

func (n *notifier) notify(kind domain.DeviceKind, msg string) domain.Notification {
	now := n.clock.Now()
	nt := domain.Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   msg,
		CreatedAt: now,
		ExpiresAt: now.Add(n.ttl),
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nt
	}
	n.active = append(n.active, nt)
	n.timers[nt.ID] = n.clock.AfterFunc(n.ttl, func() { n.expire(nt.ID) })
	n.mu.Unlock()

	n.emit(domain.Event{Type: domain.EventNotification, Notification: nt})
	return nt
}

func (n *notifier) expire(id string) {
	n.mu.Lock()
	i := slices.IndexFunc(n.active, func(nt domain.Notification) bool { return nt.ID == id })
	if i < 0 {
		n.mu.Unlock()
		return
	}
	nt := n.active[i]
	n.active = slices.Delete(n.active, i, i+1)
	delete(n.timers, id)
	n.mu.Unlock()

	n.emit(domain.Event{Type: domain.EventNotificationExpired, Notification: nt})
}

// list returns the live notifications, oldest first.
func (n *notifier) list() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.active)
}

func (n *notifier) close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	for _, t := range n.timers {
		t.Stop()
	}
	clear(n.timers)
	n.active = nil
}
