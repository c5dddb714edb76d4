package devices

import (
	"context"
	"errors"
	"testing"

	"github.com/dkeye/Vibe/internal/assert"
	"github.com/dkeye/Vibe/internal/domain"
	"github.com/dkeye/Vibe/internal/testutil"
)

func TestEnumerateKeepsPlatformOrder(t *testing.T) {
	t.Parallel()

	p := testutil.NewFakeProvider()
	p.SetDevices(domain.KindCamera,
		testutil.Dev(domain.KindCamera, "z", "Zeta"),
		testutil.Dev(domain.KindCamera, "a", "Alpha"))
	p.SetDevices(domain.KindSpeaker, testutil.Dev(domain.KindSpeaker, "spk", ""))

	snap := NewRegistry(p).Enumerate(context.Background())
	assert.DeepEqual(t, snap.Cameras, domain.DeviceList{
		{DeviceID: "z", Kind: domain.KindCamera, Label: "Zeta"},
		{DeviceID: "a", Kind: domain.KindCamera, Label: "Alpha"},
	})
	assert.DeepEqual(t, len(snap.Mics), 0)
	assert.DeepEqual(t, snap.Speakers[0].DisplayLabel(), "Default Speakers")
}

func TestEnumerateSoftFailure(t *testing.T) {
	t.Parallel()

	p := testutil.NewFakeProvider()
	p.SetDevices(domain.KindCamera, testutil.Dev(domain.KindCamera, "cam", "Cam"))
	p.SetDevices(domain.KindMicrophone, testutil.Dev(domain.KindMicrophone, "mic", "Mic"))
	p.FailList(domain.KindMicrophone, errors.New("backend gone"))

	snap := NewRegistry(p).Enumerate(context.Background())
	assert.DeepEqual(t, len(snap.Cameras), 1)
	assert.DeepEqual(t, snap.Mics, domain.DeviceList{})
}

func TestListClassifiesKind(t *testing.T) {
	t.Parallel()

	p := testutil.NewFakeProvider()
	p.SetDevices(domain.KindMicrophone, domain.MediaDevice{DeviceID: "m"})

	l := NewRegistry(p).List(context.Background(), domain.KindMicrophone)
	assert.DeepEqual(t, l[0].Kind, domain.KindMicrophone)
	assert.DeepEqual(t, l[0].DisplayLabel(), "Default Microphone")
}
