package app

import "github.com/dkeye/Vibe/internal/domain"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropEvent
	DetachSurface
)

// Policy decides what happens to an event a surface could not accept.
// misses counts consecutive rejected events, this one included.
type Policy interface {
	OnBackPressure(ev domain.Event, misses int) BackpressureAction
}

const DefaultMaxMisses = 16

// SimplePolicy drops level samples freely and detaches a surface once it
// has rejected MaxMisses events in a row.
type SimplePolicy struct {
	MaxMisses int
}

func (p SimplePolicy) OnBackPressure(ev domain.Event, misses int) BackpressureAction {
	limit := p.MaxMisses
	if limit <= 0 {
		limit = DefaultMaxMisses
	}
	if misses >= limit {
		return DetachSurface
	}
	if ev.Type == domain.EventLevel {
		return DropEvent
	}
	return NoAction
}
