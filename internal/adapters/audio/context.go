// Package audio provides microphone capture, speaker listing and loopback
// playback on top of miniaudio (malgo).
package audio

import "github.com/dkeye/Vibe/internal/domain"

const (
	sampleRate   = 48000
	channels     = 1
	periodSizeMS = 10
	sampleSize   = 2 // signed 16-bit
)

// dataProc is the per-period device callback. Capture devices fill in;
// playback devices read out.
type dataProc func(out, in []byte, framecount uint32)

type device interface {
	Start() error
	Stop() error
	Uninit()
}

// audioContext is the platform audio API. The malgo build provides the
// real one; cgo-less builds get a null context that lists nothing.
type audioContext interface {
	name() string
	list(kind domain.DeviceKind) (domain.DeviceList, error)
	initCapture(deviceID string, cb dataProc) (device, error)
	initPlayback(deviceID string, cb dataProc) (device, error)
	free() error
}

var newAudioContext func() (audioContext, error)

func bytesToS16(src []byte, dst []int16) []int16 {
	n := len(src) / sampleSize
	dst = dst[:0]
	for i := 0; i < n; i++ {
		dst = append(dst, int16(src[i*2])|(int16(src[i*2+1])<<8))
	}
	return dst
}

func s16ToBytes(src []int16, dst []byte) {
	for i, s := range src {
		dst[i*2] = byte(s)
		dst[i*2+1] = byte(s >> 8)
	}
}
