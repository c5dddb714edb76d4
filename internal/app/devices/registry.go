// Package devices enumerates and classifies media devices.
package devices

import (
	"context"

	"github.com/dkeye/Vibe/internal/core"
	"github.com/dkeye/Vibe/internal/domain"
	"github.com/rs/zerolog/log"
)

// Registry turns a platform lister into full snapshots. It keeps no state:
// every call re-enumerates and callers diff against their selections.
type Registry struct {
	lister core.DeviceLister
}

func NewRegistry(l core.DeviceLister) *Registry {
	return &Registry{lister: l}
}

// Enumerate lists every kind. A kind whose listing fails comes back empty;
// enumeration itself never fails.
func (r *Registry) Enumerate(ctx context.Context) domain.DeviceSnapshot {
	var snap domain.DeviceSnapshot
	for _, kind := range domain.AllKinds {
		snap.Set(kind, r.List(ctx, kind))
	}
	log.Debug().Str("module", "app.devices").
		Int("cameras", len(snap.Cameras)).
		Int("mics", len(snap.Mics)).
		Int("speakers", len(snap.Speakers)).
		Msg("enumerated devices")
	return snap
}

// List enumerates one kind with the same soft-failure rule as Enumerate.
func (r *Registry) List(ctx context.Context, kind domain.DeviceKind) domain.DeviceList {
	l, err := r.lister.ListDevices(ctx, kind)
	if err != nil {
		log.Warn().Str("module", "app.devices").Str("kind", string(kind)).Err(err).Msg("device listing failed")
		return domain.DeviceList{}
	}
	out := make(domain.DeviceList, 0, len(l))
	for _, d := range l {
		// Listers may be sloppy about kind; the registry classifies.
		d.Kind = kind
		out = append(out, d)
	}
	return out
}
