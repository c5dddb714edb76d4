package core_test

import (
	"sync/atomic"
	"testing"

	"github.com/dkeye/Vibe/internal/assert"
	"github.com/dkeye/Vibe/internal/core"
)

func TestTapSetForward(t *testing.T) {
	t.Parallel()

	ts := core.NewTapSet()
	var a, b atomic.Int64
	removeA := ts.Add(func(s []int16) { a.Add(int64(len(s))) })
	ts.Add(func(s []int16) { b.Add(int64(len(s))) })

	ts.Forward(make([]int16, 10))
	assert.DeepEqual(t, a.Load(), int64(10))
	assert.DeepEqual(t, b.Load(), int64(10))

	removeA()
	removeA()
	assert.DeepEqual(t, ts.Len(), 1)
	ts.Forward(make([]int16, 5))
	assert.DeepEqual(t, a.Load(), int64(10))
	assert.DeepEqual(t, b.Load(), int64(15))
}

func TestTapSetPausedAndClosed(t *testing.T) {
	t.Parallel()

	ts := core.NewTapSet()
	var n atomic.Int64
	ts.Add(func(s []int16) { n.Add(int64(len(s))) })

	ts.SetPaused(true)
	ts.Forward(make([]int16, 8))
	assert.DeepEqual(t, n.Load(), int64(0))

	ts.SetPaused(false)
	ts.Forward(make([]int16, 8))
	assert.DeepEqual(t, n.Load(), int64(8))

	ts.Close()
	assert.DeepEqual(t, ts.Len(), 0)
	ts.Forward(make([]int16, 8))
	assert.DeepEqual(t, n.Load(), int64(8))
}
