package session

import (
	"errors"
	"testing"
	"time"

	"github.com/dkeye/Vibe/internal/assert"
	"github.com/dkeye/Vibe/internal/core"
	"github.com/dkeye/Vibe/internal/domain"
	"github.com/dkeye/Vibe/internal/testutil"
)

func TestSwapCameraLeavesMicrophoneAlone(t *testing.T) {
	t.Parallel()

	h := newHarness(t, domain.Preferences{})
	h.start()
	oldCam := h.track(domain.KindCamera)
	mic := h.track(domain.KindMicrophone)

	tr, err := h.m.SwapTrack(h.ctx, domain.KindCamera, "cam-b")
	assert.NilErr(t, err)

	assert.DeepEqual(t, tr.DeviceID(), "cam-b")
	assert.DeepEqual(t, h.track(domain.KindCamera).ID(), tr.ID())
	assert.DeepEqual(t, oldCam.ReadyState(), core.ReadyStateEnded)
	assert.DeepEqual(t, h.track(domain.KindMicrophone).ID(), mic.ID())
	assert.DeepEqual(t, mic.ReadyState(), core.ReadyStateLive)
	assert.DeepEqual(t, len(h.m.Stream().Tracks()), 2)
	assert.DeepEqual(t, h.prefs.Get().Camera, "cam-b")
	assert.DeepEqual(t, len(h.prov.Live(domain.KindCamera)), 1)
}

func TestSwapKeepsEnabledState(t *testing.T) {
	t.Parallel()

	h := newHarness(t, domain.Preferences{})
	h.start()

	on, err := h.m.ToggleEnabled(domain.KindCamera)
	assert.NilErr(t, err)
	assert.BoolIs(t, on, false)

	tr, err := h.m.SwapTrack(h.ctx, domain.KindCamera, "cam-b")
	assert.NilErr(t, err)
	assert.BoolIs(t, tr.Enabled(), false)
	assert.BoolIs(t, h.m.State().Kinds[domain.KindCamera].Enabled, false)

	tr, err = h.m.SwapTrack(h.ctx, domain.KindMicrophone, "mic-b")
	assert.NilErr(t, err)
	assert.BoolIs(t, tr.Enabled(), true)
}

func TestAudioSwapRequestsRawCapture(t *testing.T) {
	t.Parallel()

	h := newHarness(t, domain.Preferences{})
	h.start()

	_, err := h.m.SwapTrack(h.ctx, domain.KindMicrophone, "mic-b")
	assert.NilErr(t, err)

	opened := h.prov.Opened()
	last := opened[len(opened)-1]
	assert.DeepEqual(t, last.DeviceID, "mic-b")
	assert.BoolIs(t, last.EchoCancellation, false)
	assert.BoolIs(t, last.NoiseSuppression, false)
	assert.BoolIs(t, last.AutoGainControl, false)
}

func TestSwapFailureTurnsKindOff(t *testing.T) {
	t.Parallel()

	h := newHarness(t, domain.Preferences{})
	h.start()
	h.prov.FailOpen("cam-b", domain.ErrNotFound)

	_, err := h.m.SwapTrack(h.ctx, domain.KindCamera, "cam-b")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	h.noTrack(domain.KindCamera)
	st := h.m.State()
	assert.BoolIs(t, st.Kinds[domain.KindCamera].Enabled, false)
	assert.BoolIs(t, st.Kinds[domain.KindCamera].Available, false)
	// The selection stays on the last device that worked.
	assert.DeepEqual(t, st.Kinds[domain.KindCamera].DeviceID, "cam-a")
	h.track(domain.KindMicrophone)

	// Another device makes the kind available again, still off.
	tr, err := h.m.SwapTrack(h.ctx, domain.KindCamera, "cam-a")
	assert.NilErr(t, err)
	assert.BoolIs(t, tr.Enabled(), false)
	assert.BoolIs(t, h.m.State().Kinds[domain.KindCamera].Available, true)
}

func TestSwapRejectsSpeaker(t *testing.T) {
	t.Parallel()

	h := newHarness(t, domain.Preferences{})
	h.start()
	_, err := h.m.SwapTrack(h.ctx, domain.KindSpeaker, "spk-b")
	assert.ErrorIs(t, err, domain.ErrUnknownKind)
}

func TestToggleDoesNotReleaseHardware(t *testing.T) {
	t.Parallel()

	h := newHarness(t, domain.Preferences{})
	h.start()
	cam := h.track(domain.KindCamera)
	sel := h.m.Selection()

	for i, want := range []bool{false, true, false} {
		on, err := h.m.ToggleEnabled(domain.KindCamera)
		assert.NilErr(t, err)
		assert.BoolIs(t, on, want)
		assert.BoolIs(t, cam.Enabled(), want)
		assert.DeepEqual(t, cam.ReadyState(), core.ReadyStateLive)
		assert.DeepEqual(t, h.track(domain.KindCamera).ID(), cam.ID())
		assert.DeepEqual(t, h.m.Selection(), sel)
		if i == 0 {
			assert.DeepEqual(t, len(h.prov.All()), 2)
		}
	}
}

func TestMicToggleDrivesMeter(t *testing.T) {
	t.Parallel()

	h := newHarness(t, domain.Preferences{})
	h.start()
	mic := h.track(domain.KindMicrophone).(*testutil.FakeAudioTrack)
	assert.BoolIs(t, h.m.meter.Running(), true)

	mic.Push(make([]int16, 512))
	on, err := h.m.ToggleEnabled(domain.KindMicrophone)
	assert.NilErr(t, err)
	assert.BoolIs(t, on, false)
	assert.BoolIs(t, h.m.meter.Running(), false)
	assert.DeepEqual(t, mic.Sinks(), 0)
	assert.DeepEqual(t, h.m.State().Level, 0.0)

	on, err = h.m.ToggleEnabled(domain.KindMicrophone)
	assert.NilErr(t, err)
	assert.BoolIs(t, on, true)
	assert.BoolIs(t, h.m.meter.Running(), true)
	assert.DeepEqual(t, h.m.meter.TrackID(), mic.ID())
}

func TestMeterFollowsSwappedMicrophone(t *testing.T) {
	t.Parallel()

	h := newHarness(t, domain.Preferences{})
	h.start()
	old := h.track(domain.KindMicrophone).(*testutil.FakeAudioTrack)

	tr, err := h.m.SwapTrack(h.ctx, domain.KindMicrophone, "mic-b")
	assert.NilErr(t, err)
	assert.DeepEqual(t, old.Sinks(), 0)
	assert.DeepEqual(t, h.m.meter.TrackID(), tr.ID())

	loud := make([]int16, 512)
	for i := range loud {
		loud[i] = 8192
	}
	tr.(*testutil.FakeAudioTrack).Push(loud)
	h.clock.Advance(16 * time.Millisecond)
	assert.Eventually(t, func() bool { return h.m.State().Level > 49 })
}

func TestSupersededSwap(t *testing.T) {
	t.Parallel()

	h := newHarness(t, domain.Preferences{})
	h.prov.SetDevices(domain.KindCamera, camA, camB, testutil.Dev(domain.KindCamera, "cam-c", "C"))
	h.start()
	release := h.prov.Gate("cam-b")
	defer release()

	errc := make(chan error, 1)
	go func() {
		_, err := h.m.SwapTrack(h.ctx, domain.KindCamera, "cam-b")
		errc <- err
	}()
	assert.Eventually(t, func() bool { return len(h.prov.Opened()) == 3 })

	tr, err := h.m.SwapTrack(h.ctx, domain.KindCamera, "cam-c")
	assert.NilErr(t, err)
	assert.ErrorIs(t, assert.ChanWritten(t, errc), domain.ErrSuperseded)

	assert.DeepEqual(t, h.track(domain.KindCamera).ID(), tr.ID())
	assert.DeepEqual(t, h.m.Selection().Camera, "cam-c")
	assert.BoolIs(t, h.m.State().Kinds[domain.KindCamera].Enabled, true)
	assert.DeepEqual(t, len(h.prov.Live(domain.KindCamera)), 1)
}

func TestSwapSupersededByReconcile(t *testing.T) {
	t.Parallel()

	h := newHarness(t, domain.Preferences{})
	h.start()
	release := h.prov.Gate("cam-b")
	defer release()

	errc := make(chan error, 1)
	go func() {
		_, err := h.m.SwapTrack(h.ctx, domain.KindCamera, "cam-b")
		errc <- err
	}()
	assert.Eventually(t, func() bool { return len(h.prov.Opened()) == 3 })

	// Device lists are unchanged; the reconcile still has to leave the
	// camera with a track.
	assert.NilErr(t, h.m.Reconcile(h.ctx))
	assert.ErrorIs(t, assert.ChanWritten(t, errc), domain.ErrSuperseded)

	tr := h.track(domain.KindCamera)
	assert.DeepEqual(t, tr.DeviceID(), "cam-a")
	assert.BoolIs(t, tr.Enabled(), true)
	st := h.m.State()
	assert.BoolIs(t, st.Kinds[domain.KindCamera].Enabled, true)
	assert.BoolIs(t, st.Kinds[domain.KindCamera].Available, true)
	assert.DeepEqual(t, st.Kinds[domain.KindCamera].TrackID, tr.ID())
	assert.DeepEqual(t, len(h.prov.Live(domain.KindCamera)), 1)
	h.noNote()
}

func TestSelectSpeaker(t *testing.T) {
	t.Parallel()

	h := newHarness(t, domain.Preferences{})
	h.start()
	assert.NilErr(t, h.m.StartLoopback(h.ctx))
	pb := h.sink.Last()
	assert.DeepEqual(t, pb.DeviceID(), "spk-a")

	assert.NilErr(t, h.m.SelectDevice(h.ctx, domain.KindSpeaker, "spk-b"))
	assert.DeepEqual(t, h.m.Selection().Speaker, "spk-b")
	assert.DeepEqual(t, h.prefs.Get().Speaker, "spk-b")
	assert.DeepEqual(t, pb.DeviceID(), "spk-b")

	assert.ErrorIs(t, h.m.SelectSpeaker(h.ctx, "hdmi"), domain.ErrNotFound)
	assert.DeepEqual(t, h.m.Selection().Speaker, "spk-b")
}

func TestSpeakerMute(t *testing.T) {
	t.Parallel()

	h := newHarness(t, domain.Preferences{})
	h.start()
	assert.NilErr(t, h.m.StartLoopback(h.ctx))
	pb := h.sink.Last()

	on, err := h.m.ToggleEnabled(domain.KindSpeaker)
	assert.NilErr(t, err)
	assert.BoolIs(t, on, false)
	assert.BoolIs(t, pb.Muted(), true)
	assert.BoolIs(t, h.m.State().SpeakerMuted, true)

	assert.BoolIs(t, h.m.ToggleSpeakerMuted(), false)
	assert.BoolIs(t, pb.Muted(), false)
}

func TestLoopbackFollowsSwappedMicrophone(t *testing.T) {
	t.Parallel()

	h := newHarness(t, domain.Preferences{})
	h.start()
	assert.NilErr(t, h.m.StartLoopback(h.ctx))
	first := h.sink.Last()

	tr, err := h.m.SwapTrack(h.ctx, domain.KindMicrophone, "mic-b")
	assert.NilErr(t, err)
	assert.BoolIs(t, first.Stopped(), true)
	assert.DeepEqual(t, h.m.tester.TrackID(), tr.ID())

	tr.(*testutil.FakeAudioTrack).Push(make([]int16, 64))
	assert.DeepEqual(t, h.sink.Last().Samples(), 64)
}

func TestLoopbackOperations(t *testing.T) {
	t.Parallel()

	h := newHarness(t, domain.Preferences{})
	h.start()

	assert.NilErr(t, h.m.RunLoopbackTest(h.ctx))
	assert.ErrorIs(t, h.m.StartLoopback(h.ctx), domain.ErrLoopbackActive)
	st := h.m.State()
	assert.BoolIs(t, st.Loopback.Active, true)
	assert.BoolIs(t, st.Loopback.Timed, true)

	h.clock.Advance(5 * time.Second)
	assert.Eventually(t, func() bool { return !h.m.State().Loopback.Active })
	assert.BoolIs(t, h.sink.Last().Stopped(), true)

	assert.NilErr(t, h.m.StartLoopback(h.ctx))
	h.clock.Advance(time.Minute)
	assert.BoolIs(t, h.m.State().Loopback.Active, true)
	assert.BoolIs(t, h.m.StopLoopback(), true)
	assert.BoolIs(t, h.m.StopLoopback(), false)
}

func TestLoopbackErrors(t *testing.T) {
	t.Parallel()

	h := newHarness(t, domain.Preferences{})
	h.prov.SetDevices(domain.KindMicrophone)
	h.start()
	assert.ErrorIs(t, h.m.StartLoopback(h.ctx), domain.ErrNoTrack)

	m := New(Deps{Provider: h.prov, Clock: h.clock}, DefaultConfig())
	defer m.Close()
	h.prov.SetDevices(domain.KindMicrophone, micA)
	_, err := m.Initialize(h.ctx)
	assert.NilErr(t, err)
	assert.ErrorIs(t, m.StartLoopback(h.ctx), domain.ErrNotSupported)

	h2 := newHarness(t, domain.Preferences{})
	h2.start()
	errBusy := errors.New("busy")
	h2.sink.Fail(errBusy)
	assert.ErrorIs(t, h2.m.StartLoopback(h2.ctx), errBusy)
}
