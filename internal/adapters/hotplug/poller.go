package hotplug

import (
	"context"
	"strings"
	"time"

	"github.com/dkeye/Vibe/internal/core"
	"github.com/dkeye/Vibe/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const DefaultPollInterval = 2 * time.Second

// Poller signals device changes by re-listing devices on an interval and
// comparing the result. It serves platforms without device node
// directories.
type Poller struct {
	hub
	lister   core.DeviceLister
	clock    clockwork.Clock
	interval time.Duration
	last     string
}

func NewPoller(lister core.DeviceLister, interval time.Duration, clock clockwork.Clock) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{lister: lister, clock: clock, interval: interval}
}

// Run polls until ctx is done. The first listing only sets the baseline.
func (p *Poller) Run(ctx context.Context) error {
	p.last = p.fingerprint(ctx)
	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			fp := p.fingerprint(ctx)
			if fp == p.last {
				continue
			}
			p.last = fp
			log.Debug().Str("module", "adapters.hotplug").Msg("device set changed")
			p.signal()
		}
	}
}

func (p *Poller) fingerprint(ctx context.Context) string {
	var b strings.Builder
	for _, kind := range domain.AllKinds {
		b.WriteString(string(kind))
		b.WriteByte(':')
		l, err := p.lister.ListDevices(ctx, kind)
		if err != nil {
			b.WriteString("!err")
		}
		for _, d := range l {
			b.WriteString(d.DeviceID)
			b.WriteByte(',')
		}
		b.WriteByte(';')
	}
	return b.String()
}
