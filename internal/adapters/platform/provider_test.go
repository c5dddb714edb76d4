package platform

import (
	"context"
	"testing"

	"github.com/dkeye/Vibe/internal/assert"
	"github.com/dkeye/Vibe/internal/domain"
	"github.com/dkeye/Vibe/internal/testutil"
)

type fakeAudio struct {
	*testutil.FakeProvider
	testutil.FakeLoopbackSink
}

func TestProviderRoutesByKind(t *testing.T) {
	t.Parallel()

	video := testutil.NewFakeProvider()
	video.SetDevices(domain.KindCamera, testutil.Dev(domain.KindCamera, "cam", "Front Camera"))
	audio := &fakeAudio{FakeProvider: testutil.NewFakeProvider()}
	audio.SetDevices(domain.KindMicrophone, testutil.Dev(domain.KindMicrophone, "mic", ""))
	audio.SetDevices(domain.KindSpeaker, testutil.Dev(domain.KindSpeaker, "spk", "Speakers"))

	p := New(video, audio)
	ctx := context.Background()

	cams, err := p.ListDevices(ctx, domain.KindCamera)
	assert.NilErr(t, err)
	assert.DeepEqual(t, len(cams), 1)
	spk, err := p.ListDevices(ctx, domain.KindSpeaker)
	assert.NilErr(t, err)
	assert.DeepEqual(t, spk[0].DeviceID, "spk")

	_, err = p.ListDevices(ctx, domain.DeviceKind("printer"))
	assert.ErrorIs(t, err, domain.ErrUnknownKind)

	mic, err := p.OpenMicrophone(ctx, domain.RawAudioConstraints("mic"))
	assert.NilErr(t, err)
	pb, err := p.StartPlayback(ctx, "spk", mic)
	assert.NilErr(t, err)
	pb.Stop()
	assert.DeepEqual(t, audio.Started(), 1)

	_, err = p.OpenCamera(ctx, domain.VideoConstraints("cam"))
	assert.NilErr(t, err)
	assert.DeepEqual(t, len(video.Live(domain.KindCamera)), 1)
}

func TestProviderWithoutBackends(t *testing.T) {
	t.Parallel()

	p := New(nil, nil)
	ctx := context.Background()
	_, err := p.ListDevices(ctx, domain.KindCamera)
	assert.ErrorIs(t, err, domain.ErrNotSupported)
	_, err = p.OpenMicrophone(ctx, domain.RawAudioConstraints(""))
	assert.ErrorIs(t, err, domain.ErrNotSupported)
	_, err = p.StartPlayback(ctx, "", nil)
	assert.ErrorIs(t, err, domain.ErrNotSupported)
	assert.NilErr(t, p.Close())
}
