package core

import (
	"maps"
	"sync"
	"sync/atomic"
)

type TapState int32

const (
	TapStateOk TapState = iota
	TapStateDelete
)

// tap is a single PCM consumer attached to a capture track.
type tap struct {
	sink  SampleSink
	state atomic.Int32 // Zero by default (TapStateOk)
}

func (t *tap) getState() TapState { return TapState(t.state.Load()) }

// TapSet fans captured PCM out to every attached sink. Capture callbacks call
// Forward; sinks attach and detach from other goroutines.
type TapSet struct {
	mu     sync.RWMutex
	next   uint64
	taps   map[uint64]*tap
	paused atomic.Bool
}

func NewTapSet() *TapSet {
	return &TapSet{taps: make(map[uint64]*tap)}
}

func (ts *TapSet) Add(sink SampleSink) (remove func()) {
	t := &tap{sink: sink}
	ts.mu.Lock()
	ts.next++
	id := ts.next
	ts.taps[id] = t
	ts.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.state.Store(int32(TapStateDelete))
			ts.mu.Lock()
			delete(ts.taps, id)
			ts.mu.Unlock()
		})
	}
}

func (ts *TapSet) Len() int {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return len(ts.taps)
}

// SetPaused gates delivery for the whole set. Sinks stay attached; a
// disabled track pauses its taps instead of detaching them.
func (ts *TapSet) SetPaused(paused bool) {
	ts.paused.Store(paused)
}

func (ts *TapSet) Paused() bool { return ts.paused.Load() }

// Forward delivers samples to every live sink.
func (ts *TapSet) Forward(samples []int16) {
	if ts.paused.Load() {
		return
	}
	snapshot := make(map[uint64]*tap, ts.Len())
	ts.mu.RLock()
	maps.Copy(snapshot, ts.taps)
	ts.mu.RUnlock()

	for _, t := range snapshot {
		if t.getState() == TapStateDelete {
			continue
		}
		t.sink(samples)
	}
}

// Close detaches every sink.
func (ts *TapSet) Close() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	for id, t := range ts.taps {
		t.state.Store(int32(TapStateDelete))
		delete(ts.taps, id)
	}
}
