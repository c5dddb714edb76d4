package session

import (
	"testing"
	"time"

	"github.com/dkeye/Vibe/internal/assert"
	"github.com/dkeye/Vibe/internal/domain"
	"github.com/jonboulle/clockwork"
)

func TestNotifierExpiry(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	events := make(chan domain.Event, 8)
	n := newNotifier(clock, 0, func(ev domain.Event) { events <- ev })

	a := n.notify(domain.KindCamera, "a")
	assert.DeepEqual(t, assert.ChanWritten(t, events).Type, domain.EventNotification)
	clock.Advance(time.Second)
	b := n.notify(domain.KindSpeaker, "b")
	assert.ChanWritten(t, events)
	assert.DeepEqual(t, len(n.list()), 2)

	clock.Advance(2 * time.Second)
	ev := assert.ChanWritten(t, events)
	assert.DeepEqual(t, ev.Type, domain.EventNotificationExpired)
	assert.DeepEqual(t, ev.Notification.ID, a.ID)
	assert.DeepEqual(t, n.list(), []domain.Notification{b})

	n.close()
	clock.Advance(time.Hour)
	assert.ChanNotWritten(t, events, 20*time.Millisecond)
	assert.DeepEqual(t, len(n.list()), 0)

	// Closed notifiers drop new messages.
	n.notify(domain.KindCamera, "late")
	assert.ChanNotWritten(t, events, 20*time.Millisecond)
}
