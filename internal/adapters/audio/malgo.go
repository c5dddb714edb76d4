//go:build cgo && !noaudio

package audio

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/dkeye/Vibe/internal/domain"
	"github.com/gen2brain/malgo"
	"github.com/rs/zerolog/log"
)

var rawFormat = malgo.FormatS16

func init() {
	newAudioContext = newMalgoContext
}

// encodeID turns a malgo device id into a printable, reversible string.
func encodeID(id malgo.DeviceID) string {
	return hex.EncodeToString(bytes.TrimRight(id[:], "\x00"))
}

func decodeID(s string) (malgo.DeviceID, error) {
	var res malgo.DeviceID
	b, err := hex.DecodeString(s)
	if err != nil || len(b) > len(res) {
		return res, fmt.Errorf("device id %q: %w", s, domain.ErrNotFound)
	}
	copy(res[:], b)
	return res, nil
}

type malgoContext struct {
	malgoCtx *malgo.AllocatedContext
}

func newMalgoContext() (audioContext, error) {
	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("malgo: %w: %v", domain.ErrNotSupported, err)
	}
	return &malgoContext{malgoCtx: malgoCtx}, nil
}

func (mc *malgoContext) name() string { return "malgo" }

func (mc *malgoContext) free() error {
	if err := mc.malgoCtx.Uninit(); err != nil {
		return err
	}
	mc.malgoCtx.Free()
	return nil
}

func (mc *malgoContext) list(kind domain.DeviceKind) (domain.DeviceList, error) {
	typ := malgo.Capture
	switch kind {
	case domain.KindMicrophone:
	case domain.KindSpeaker:
		typ = malgo.Playback
	default:
		return nil, fmt.Errorf("malgo %s: %w", kind, domain.ErrNotSupported)
	}

	infos, err := mc.malgoCtx.Devices(typ)
	if err != nil {
		return nil, err
	}
	res := make(domain.DeviceList, 0, len(infos))
	seen := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		full, err := mc.malgoCtx.DeviceInfo(typ, info.ID, malgo.Shared)
		if err != nil {
			log.Warn().Str("module", "adapters.audio").Err(err).Msg("unable to get device info")
			continue
		}
		id := encodeID(full.ID)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		res = append(res, domain.MediaDevice{DeviceID: id, Kind: kind, Label: full.Name()})
	}
	return res, nil
}

func (mc *malgoContext) config(typ malgo.DeviceType, deviceID string) (malgo.DeviceConfig, error) {
	cfg := malgo.DefaultDeviceConfig(typ)
	cfg.SampleRate = sampleRate
	cfg.PeriodSizeInMilliseconds = periodSizeMS
	cfg.Alsa.NoMMap = 1
	var id malgo.DeviceID
	if deviceID != "" {
		var err error
		if id, err = decodeID(deviceID); err != nil {
			return cfg, err
		}
	}
	switch typ {
	case malgo.Capture:
		cfg.Capture.Format = rawFormat
		cfg.Capture.Channels = channels
		if deviceID != "" {
			cfg.Capture.DeviceID = id.Pointer()
		}
	case malgo.Playback:
		cfg.Playback.Format = rawFormat
		cfg.Playback.Channels = channels
		if deviceID != "" {
			cfg.Playback.DeviceID = id.Pointer()
		}
	}
	return cfg, nil
}

func (mc *malgoContext) initCapture(deviceID string, cb dataProc) (device, error) {
	cfg, err := mc.config(malgo.Capture, deviceID)
	if err != nil {
		return nil, err
	}
	dev, err := malgo.InitDevice(mc.malgoCtx.Context, cfg, malgo.DeviceCallbacks{Data: malgo.DataProc(cb)})
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w: %v", deviceID, domain.ErrAccessDenied, err)
	}
	return dev, nil
}

func (mc *malgoContext) initPlayback(deviceID string, cb dataProc) (device, error) {
	cfg, err := mc.config(malgo.Playback, deviceID)
	if err != nil {
		return nil, err
	}
	dev, err := malgo.InitDevice(mc.malgoCtx.Context, cfg, malgo.DeviceCallbacks{Data: malgo.DataProc(cb)})
	if err != nil {
		return nil, fmt.Errorf("playback %s: %w: %v", deviceID, domain.ErrAccessDenied, err)
	}
	return dev, nil
}
