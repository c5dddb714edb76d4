package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseDeviceKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want DeviceKind
		err  error
	}{
		{"camera", KindCamera, nil},
		{"microphone", KindMicrophone, nil},
		{"mic", KindMicrophone, nil},
		{"speaker", KindSpeaker, nil},
		{"printer", "", ErrUnknownKind},
	}
	for _, tc := range tests {
		got, err := ParseDeviceKind(tc.in)
		if !errors.Is(err, tc.err) {
			t.Fatalf("%s: unexpected error %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDeviceListResolve(t *testing.T) {
	t.Parallel()

	l := DeviceList{
		{DeviceID: "a", Kind: KindCamera, Label: "A"},
		{DeviceID: "b", Kind: KindCamera},
	}

	if d, _ := l.Resolve("b"); d.DeviceID != "b" {
		t.Fatalf("stored id not honoured: %v", d)
	}
	if d, _ := l.Resolve("gone"); d.DeviceID != "a" {
		t.Fatalf("fallback is not the first entry: %v", d)
	}
	if d, _ := l.Resolve(""); d.DeviceID != "a" {
		t.Fatalf("empty selection is not the first entry: %v", d)
	}
	if _, ok := DeviceList(nil).Resolve("a"); ok {
		t.Fatal("empty list resolved to a device")
	}
}

func TestDisplayLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d    MediaDevice
		want string
	}{
		{MediaDevice{Kind: KindCamera}, "Default Camera"},
		{MediaDevice{Kind: KindMicrophone}, "Default Microphone"},
		{MediaDevice{Kind: KindSpeaker}, "Default Speakers"},
		{MediaDevice{Kind: KindSpeaker, Label: "USB DAC"}, "USB DAC"},
	}
	for _, tc := range tests {
		if got := tc.d.DisplayLabel(); got != tc.want {
			t.Fatalf("got %q, want %q", got, tc.want)
		}
	}
	if got := SwitchedMessage(MediaDevice{Kind: KindCamera}); got != "Camera switched to Default Camera" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := DisconnectedMessage(KindMicrophone); got != "Microphone disconnected — muted" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestSelection(t *testing.T) {
	t.Parallel()

	var s Selection
	for _, k := range AllKinds {
		s.Set(k, string(k)+"-id")
	}
	for _, k := range AllKinds {
		if s.Get(k) != string(k)+"-id" {
			t.Fatalf("kind %s: got %q", k, s.Get(k))
		}
	}
}

func TestCode(t *testing.T) {
	t.Parallel()

	if got := Code(nil); got != "" {
		t.Fatalf("nil error: got %q", got)
	}
	wrapped := fmt.Errorf("camera x: %w", ErrAccessDenied)
	if got := Code(wrapped); got != "access_denied" {
		t.Fatalf("got %q", got)
	}
	if got := Code(errors.New("boom")); got != "internal" {
		t.Fatalf("got %q", got)
	}
}
