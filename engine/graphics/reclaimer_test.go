package graphics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReclaimer_FIFOWithinFrame(t *testing.T) {
	r := NewDeferredReclaimer()
	r.BeginFrame(1)

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		r.RegisterRelease(func() { order = append(order, i) })
	}
	require.Equal(t, 3, r.Pending())

	r.MarkRetired(1)
	r.ProcessAllDeferredReleases()

	assert.Equal(t, []int{0, 1, 2}, order, "releases run in registration order")
	assert.Equal(t, 0, r.Pending())
}

func TestReclaimer_FrameOrderAcrossFrames(t *testing.T) {
	r := NewDeferredReclaimer()

	var order []string
	r.BeginFrame(1)
	r.RegisterRelease(func() { order = append(order, "f1") })
	r.BeginFrame(2)
	r.RegisterRelease(func() { order = append(order, "f2") })

	// Only frame 1 has retired; frame 2's entry must stay pending.
	r.MarkRetired(1)
	r.ProcessAllDeferredReleases()
	assert.Equal(t, []string{"f1"}, order)
	assert.Equal(t, 1, r.Pending())

	r.MarkRetired(2)
	r.ProcessAllDeferredReleases()
	assert.Equal(t, []string{"f1", "f2"}, order)
}

func TestReclaimer_NothingRunsBeforeRetire(t *testing.T) {
	r := NewDeferredReclaimer()
	r.BeginFrame(1)

	ran := false
	r.RegisterRelease(func() { ran = true })

	r.ProcessAllDeferredReleases()
	assert.False(t, ran, "no retire watermark yet")
	assert.Equal(t, 1, r.Pending())
}

func TestReclaimer_ProcessingIsIdempotent(t *testing.T) {
	r := NewDeferredReclaimer()
	r.BeginFrame(1)

	count := 0
	r.RegisterRelease(func() { count++ })
	r.MarkRetired(1)

	r.ProcessAllDeferredReleases()
	r.ProcessAllDeferredReleases()
	r.ProcessAllDeferredReleases()
	assert.Equal(t, 1, count, "an entry runs exactly once")
}

func TestReclaimer_EmptyBacklogIsNoOp(t *testing.T) {
	r := NewDeferredReclaimer()
	r.MarkRetired(5)
	r.ProcessAllDeferredReleases()
	r.ProcessAll()
	assert.Equal(t, 0, r.Pending())
}

func TestReclaimer_PanickingCallbackIsConfined(t *testing.T) {
	r := NewDeferredReclaimer()
	r.BeginFrame(1)

	var survived bool
	r.RegisterRelease(func() { panic("bad release") })
	r.RegisterRelease(func() { survived = true })

	r.MarkRetired(1)
	assert.NotPanics(t, func() { r.ProcessAllDeferredReleases() })
	assert.True(t, survived, "entries after a panicking one still run")
	assert.Equal(t, 0, r.Pending())
}

func TestReclaimer_ProcessAllIgnoresWatermark(t *testing.T) {
	r := NewDeferredReclaimer()
	r.BeginFrame(9)

	ran := false
	r.RegisterRelease(func() { ran = true })

	// Shutdown path: everything processes regardless of retirement.
	r.ProcessAll()
	assert.True(t, ran)
	assert.Equal(t, 0, r.Pending())
}

func TestReclaimer_NilReleaseIgnored(t *testing.T) {
	r := NewDeferredReclaimer()
	r.RegisterRelease(nil)
	assert.Equal(t, 0, r.Pending())
}
