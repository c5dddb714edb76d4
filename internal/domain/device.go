package domain

import "fmt"

type DeviceKind string

const (
	KindCamera     DeviceKind = "camera"
	KindMicrophone DeviceKind = "microphone"
	KindSpeaker    DeviceKind = "speaker"
)

// AllKinds lists kinds in reconcile order.
var AllKinds = []DeviceKind{KindCamera, KindMicrophone, KindSpeaker}

func ParseDeviceKind(s string) (DeviceKind, error) {
	switch DeviceKind(s) {
	case KindCamera, KindMicrophone, KindSpeaker:
		return DeviceKind(s), nil
	case "mic":
		return KindMicrophone, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownKind)
}

// Capture reports whether the kind is backed by a capture track.
func (k DeviceKind) Capture() bool {
	return k == KindCamera || k == KindMicrophone
}

func (k DeviceKind) DisplayName() string {
	switch k {
	case KindCamera:
		return "Camera"
	case KindMicrophone:
		return "Microphone"
	case KindSpeaker:
		return "Speaker"
	}
	return string(k)
}

// DefaultLabel is shown for devices the platform reports without a label.
func (k DeviceKind) DefaultLabel() string {
	switch k {
	case KindCamera:
		return "Default Camera"
	case KindMicrophone:
		return "Default Microphone"
	case KindSpeaker:
		return "Default Speakers"
	}
	return "Default device"
}

// MediaDevice is an immutable snapshot of one enumerated device.
type MediaDevice struct {
	DeviceID string     `json:"device_id"`
	Kind     DeviceKind `json:"kind"`
	Label    string     `json:"label"`
}

func (d MediaDevice) DisplayLabel() string {
	if d.Label == "" {
		return d.Kind.DefaultLabel()
	}
	return d.Label
}

// DeviceList keeps platform order; index 0 is the fallback choice.
type DeviceList []MediaDevice

func (l DeviceList) Find(id string) (MediaDevice, bool) {
	for _, d := range l {
		if d.DeviceID == id {
			return d, true
		}
	}
	return MediaDevice{}, false
}

func (l DeviceList) Contains(id string) bool {
	_, ok := l.Find(id)
	return ok
}

func (l DeviceList) First() (MediaDevice, bool) {
	if len(l) == 0 {
		return MediaDevice{}, false
	}
	return l[0], true
}

// Resolve returns the device matching id, or the first entry when id is
// empty or no longer present.
func (l DeviceList) Resolve(id string) (MediaDevice, bool) {
	if id != "" {
		if d, ok := l.Find(id); ok {
			return d, true
		}
	}
	return l.First()
}

// DeviceSnapshot is the result of one full enumeration.
type DeviceSnapshot struct {
	Cameras  DeviceList `json:"cameras"`
	Mics     DeviceList `json:"mics"`
	Speakers DeviceList `json:"speakers"`
}

func (s DeviceSnapshot) ByKind(k DeviceKind) DeviceList {
	switch k {
	case KindCamera:
		return s.Cameras
	case KindMicrophone:
		return s.Mics
	case KindSpeaker:
		return s.Speakers
	}
	return nil
}

func (s *DeviceSnapshot) Set(k DeviceKind, l DeviceList) {
	switch k {
	case KindCamera:
		s.Cameras = l
	case KindMicrophone:
		s.Mics = l
	case KindSpeaker:
		s.Speakers = l
	}
}

// Selection holds at most one device id per kind. Empty means none.
type Selection struct {
	Camera     string `json:"camera,omitempty"`
	Microphone string `json:"microphone,omitempty"`
	Speaker    string `json:"speaker,omitempty"`
}

func (s Selection) Get(k DeviceKind) string {
	switch k {
	case KindCamera:
		return s.Camera
	case KindMicrophone:
		return s.Microphone
	case KindSpeaker:
		return s.Speaker
	}
	return ""
}

func (s *Selection) Set(k DeviceKind, id string) {
	switch k {
	case KindCamera:
		s.Camera = id
	case KindMicrophone:
		s.Microphone = id
	case KindSpeaker:
		s.Speaker = id
	}
}

// Preferences is the persisted form of a Selection.
type Preferences = Selection

// CaptureConstraints describe how a capture device is opened.
type CaptureConstraints struct {
	DeviceID         string
	EchoCancellation bool
	NoiseSuppression bool
	AutoGainControl  bool
	SampleRate       int
	Channels         int
}

// VideoConstraints requests exactly deviceID.
func VideoConstraints(deviceID string) CaptureConstraints {
	return CaptureConstraints{DeviceID: deviceID}
}

// RawAudioConstraints requests exactly deviceID with every processing stage
// turned off.
func RawAudioConstraints(deviceID string) CaptureConstraints {
	return CaptureConstraints{
		DeviceID:   deviceID,
		SampleRate: 48000,
		Channels:   1,
	}
}
