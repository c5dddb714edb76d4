//go:build !cgo || noaudio

// This audio context is only used in cgo-less and noaudio builds.

package audio

import (
	"fmt"

	"github.com/dkeye/Vibe/internal/domain"
)

func init() {
	newAudioContext = newNullAudioContext
}

type nullAudioContext struct{}

func newNullAudioContext() (audioContext, error) {
	return nullAudioContext{}, nil
}

func (nullAudioContext) name() string { return "nullaudio" }
func (nullAudioContext) free() error  { return nil }

func (nullAudioContext) list(domain.DeviceKind) (domain.DeviceList, error) {
	return domain.DeviceList{}, nil
}

func (nullAudioContext) initCapture(id string, _ dataProc) (device, error) {
	return nil, fmt.Errorf("capture %s: %w", id, domain.ErrNotSupported)
}

func (nullAudioContext) initPlayback(id string, _ dataProc) (device, error) {
	return nil, fmt.Errorf("playback %s: %w", id, domain.ErrNotSupported)
}
