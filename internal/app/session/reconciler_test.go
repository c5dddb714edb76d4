package session

import (
	"testing"
	"time"

	"github.com/dkeye/Vibe/internal/assert"
	"github.com/dkeye/Vibe/internal/core"
	"github.com/dkeye/Vibe/internal/domain"
	"github.com/dkeye/Vibe/internal/testutil"
)

func TestReconcileSelectedCameraUnplugged(t *testing.T) {
	t.Parallel()

	h := newHarness(t, domain.Preferences{Camera: "cam-b"})
	h.start()
	old := h.track(domain.KindCamera)

	h.prov.SetDevices(domain.KindCamera, camA)
	assert.NilErr(t, h.m.Reconcile(h.ctx))

	h.note("Camera switched to Front Camera")
	assert.DeepEqual(t, h.m.Selection().Camera, "cam-a")
	assert.DeepEqual(t, h.prefs.Get().Camera, "cam-a")
	assert.DeepEqual(t, old.ReadyState(), core.ReadyStateEnded)
	assert.DeepEqual(t, h.track(domain.KindCamera).DeviceID(), "cam-a")
	h.noNote()
}

func TestReconcileNoChangeIsQuiet(t *testing.T) {
	t.Parallel()

	h := newHarness(t, domain.Preferences{})
	h.start()
	cam := h.track(domain.KindCamera)

	h.prov.SetDevices(domain.KindCamera, camB, camA)
	assert.NilErr(t, h.m.Reconcile(h.ctx))
	h.noNote()
	assert.DeepEqual(t, h.track(domain.KindCamera).ID(), cam.ID())
	assert.DeepEqual(t, len(h.prov.All()), 2)
}

func TestReconcileFallbackUsesDefaultLabel(t *testing.T) {
	t.Parallel()

	h := newHarness(t, domain.Preferences{})
	h.start()

	h.prov.SetDevices(domain.KindMicrophone, micB)
	assert.NilErr(t, h.m.Reconcile(h.ctx))
	h.note("Microphone switched to Default Microphone")
}

func TestReconcileMicrophoneLoopbackResume(t *testing.T) {
	t.Parallel()

	h := newHarness(t, domain.Preferences{})
	h.prov.SetDevices(domain.KindMicrophone, micA)
	h.start()
	assert.NilErr(t, h.m.StartLoopback(h.ctx))
	first := h.sink.Last()

	// [A] -> []
	h.prov.SetDevices(domain.KindMicrophone)
	assert.NilErr(t, h.m.Reconcile(h.ctx))
	h.note("Microphone disconnected — muted")
	h.noNote()

	st := h.m.State()
	assert.BoolIs(t, st.Kinds[domain.KindMicrophone].Enabled, false)
	assert.BoolIs(t, st.Loopback.Active, false)
	assert.BoolIs(t, st.Loopback.ResumeAfterReconnect, true)
	assert.BoolIs(t, first.Stopped(), true)
	assert.BoolIs(t, h.m.meter.Running(), false)
	h.noTrack(domain.KindMicrophone)
	assert.DeepEqual(t, len(h.prov.Live(domain.KindMicrophone)), 0)

	// A second empty signal does not repeat the notification.
	assert.NilErr(t, h.m.Reconcile(h.ctx))
	h.noNote()

	// [] -> [B]
	h.prov.SetDevices(domain.KindMicrophone, micB)
	assert.NilErr(t, h.m.Reconcile(h.ctx))
	h.note("Microphone switched to Default Microphone")
	h.note("Microphone reconnected — loopback resumed")

	mic := h.track(domain.KindMicrophone)
	assert.DeepEqual(t, mic.DeviceID(), "mic-b")
	st = h.m.State()
	assert.BoolIs(t, st.Loopback.Active, true)
	assert.BoolIs(t, st.Loopback.ResumeAfterReconnect, false)
	assert.DeepEqual(t, h.m.tester.TrackID(), mic.ID())
	assert.DeepEqual(t, h.sink.Last().Source().ID(), mic.ID())
	// The resumed loopback gets the microphone back as it was.
	assert.BoolIs(t, st.Kinds[domain.KindMicrophone].Enabled, true)
	assert.BoolIs(t, mic.Enabled(), true)
	assert.BoolIs(t, h.m.meter.Running(), true)
}

func TestReconcileResumedLoopbackKeepsMicrophoneOff(t *testing.T) {
	t.Parallel()

	h := newHarness(t, domain.Preferences{})
	h.prov.SetDevices(domain.KindMicrophone, micA)
	h.start()
	on, err := h.m.ToggleEnabled(domain.KindMicrophone)
	assert.NilErr(t, err)
	assert.BoolIs(t, on, false)
	assert.NilErr(t, h.m.StartLoopback(h.ctx))

	h.prov.SetDevices(domain.KindMicrophone)
	assert.NilErr(t, h.m.Reconcile(h.ctx))
	h.note("Microphone disconnected — muted")

	h.prov.SetDevices(domain.KindMicrophone, micA)
	assert.NilErr(t, h.m.Reconcile(h.ctx))
	h.note("Microphone reconnected: Built-in Mic")
	h.note("Microphone reconnected — loopback resumed")

	st := h.m.State()
	assert.BoolIs(t, st.Loopback.Active, true)
	assert.BoolIs(t, st.Kinds[domain.KindMicrophone].Enabled, false)
	assert.BoolIs(t, h.track(domain.KindMicrophone).Enabled(), false)
	assert.BoolIs(t, h.m.meter.Running(), false)
}

func TestReconcileMicrophoneWithoutLoopbackDoesNotResume(t *testing.T) {
	t.Parallel()

	h := newHarness(t, domain.Preferences{})
	h.start()

	h.prov.SetDevices(domain.KindMicrophone)
	assert.NilErr(t, h.m.Reconcile(h.ctx))
	h.note("Microphone disconnected — muted")

	h.prov.SetDevices(domain.KindMicrophone, micA)
	assert.NilErr(t, h.m.Reconcile(h.ctx))
	h.note("Microphone reconnected: Built-in Mic")
	h.noNote()
	assert.BoolIs(t, h.m.State().Loopback.Active, false)
	assert.DeepEqual(t, h.sink.Started(), 0)
}

func TestReconcileCameraDoesNotAutoResume(t *testing.T) {
	t.Parallel()

	h := newHarness(t, domain.Preferences{})
	h.prov.SetDevices(domain.KindCamera, camA)
	h.start()
	assert.NilErr(t, h.m.StartLoopback(h.ctx))
	pb := h.sink.Last()

	h.prov.SetDevices(domain.KindCamera)
	assert.NilErr(t, h.m.Reconcile(h.ctx))
	h.note("Camera disconnected — muted")
	h.noTrack(domain.KindCamera)
	assert.BoolIs(t, h.m.State().Kinds[domain.KindCamera].Enabled, false)

	h.prov.SetDevices(domain.KindCamera, camB)
	assert.NilErr(t, h.m.Reconcile(h.ctx))
	h.note("Camera switched to USB Camera")
	h.noNote()

	st := h.m.State()
	assert.BoolIs(t, st.Kinds[domain.KindCamera].Available, true)
	assert.BoolIs(t, st.Kinds[domain.KindCamera].Enabled, false)
	assert.BoolIs(t, h.track(domain.KindCamera).Enabled(), false)
	// The microphone loopback was never touched.
	assert.BoolIs(t, pb.Stopped(), false)
	assert.BoolIs(t, st.Loopback.Active, true)
}

func TestReconcileSpeakers(t *testing.T) {
	t.Parallel()

	h := newHarness(t, domain.Preferences{Speaker: "spk-b"})
	h.start()
	assert.NilErr(t, h.m.StartLoopback(h.ctx))
	pb := h.sink.Last()

	h.prov.SetDevices(domain.KindSpeaker, spkA)
	assert.NilErr(t, h.m.Reconcile(h.ctx))
	h.note("Speaker switched to Speakers")
	assert.DeepEqual(t, pb.DeviceID(), "spk-a")
	assert.DeepEqual(t, h.prefs.Get().Speaker, "spk-a")

	h.prov.SetDevices(domain.KindSpeaker)
	assert.NilErr(t, h.m.Reconcile(h.ctx))
	h.note("Speaker disconnected — muted")
	assert.BoolIs(t, pb.Muted(), true)
	st := h.m.State()
	assert.BoolIs(t, st.SpeakerMuted, true)
	assert.BoolIs(t, st.Kinds[domain.KindSpeaker].Enabled, false)
	// Losing the speaker keeps the loopback running, muted.
	assert.BoolIs(t, st.Loopback.Active, true)

	h.prov.SetDevices(domain.KindSpeaker, testutil.Dev(domain.KindSpeaker, "hdmi", ""))
	assert.NilErr(t, h.m.Reconcile(h.ctx))
	h.note("Speaker switched to Default Speakers")
	assert.BoolIs(t, h.m.State().SpeakerMuted, true)
}

func TestReconcileUnavailableFallback(t *testing.T) {
	t.Parallel()

	h := newHarness(t, domain.Preferences{Camera: "cam-b"})
	h.start()
	h.prov.FailOpen("cam-a", domain.ErrAccessDenied)

	h.prov.SetDevices(domain.KindCamera, camA)
	assert.NilErr(t, h.m.Reconcile(h.ctx))
	h.noNote()
	h.noTrack(domain.KindCamera)
	st := h.m.State()
	assert.BoolIs(t, st.Kinds[domain.KindCamera].Enabled, false)
	assert.BoolIs(t, st.Kinds[domain.KindCamera].Available, false)
}

func TestNotificationsExpireAfterTTL(t *testing.T) {
	t.Parallel()

	h := newHarness(t, domain.Preferences{})
	h.start()

	h.prov.SetDevices(domain.KindCamera)
	assert.NilErr(t, h.m.Reconcile(h.ctx))
	n := h.note("Camera disconnected — muted")
	assert.DeepEqual(t, n.ExpiresAt.Sub(n.CreatedAt), 3*time.Second)
	assert.DeepEqual(t, len(h.m.State().Notifications), 1)

	h.clock.Advance(2999 * time.Millisecond)
	assert.ChanNotWritten(t, h.expired, 20*time.Millisecond)

	// State changes in between do not extend or cancel the expiry.
	h.prov.SetDevices(domain.KindCamera, camA)
	assert.NilErr(t, h.m.Reconcile(h.ctx))
	second := h.note("Camera reconnected: Front Camera")

	h.clock.Advance(time.Millisecond)
	got := assert.ChanWritten(t, h.expired)
	assert.DeepEqual(t, got.ID, n.ID)
	assert.Eventually(t, func() bool { return len(h.m.State().Notifications) == 1 })

	h.clock.Advance(3 * time.Second)
	got = assert.ChanWritten(t, h.expired)
	assert.DeepEqual(t, got.ID, second.ID)
	assert.DeepEqual(t, len(h.m.State().Notifications), 0)
}
