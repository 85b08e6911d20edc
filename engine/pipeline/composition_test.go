package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxygen/common"
	"github.com/Carmen-Shannon/oxygen/engine/graphics"
	"github.com/Carmen-Shannon/oxygen/engine/view"
)

// captureQueue records every submitted batch before delegating to the real
// queue, so tests can inspect the deferred command lists after submission.
type captureQueue struct {
	graphics.CommandQueue
	batches [][]graphics.CommandList
}

func (q *captureQueue) SubmitBatch(lists []graphics.CommandList) error {
	q.batches = append(q.batches, lists)
	return q.CommandQueue.SubmitBatch(lists)
}

func compositeView(key view.Key, id view.Id, width, height uint32) *activeView {
	gfx := graphics.NewHeadlessGraphics()
	target, _ := gfx.CreateViewTarget(string(key), width, height)
	return &activeView{
		key:    key,
		id:     id,
		target: target,
		plan:   view.RenderPlan{RunCompositePath: true},
	}
}

func TestBuildComposition_BandOrderStable(t *testing.T) {
	records := map[view.Key]*activeView{
		"tools":     compositeView("tools", 1, 64, 64),
		"hud":       compositeView("hud", 2, 64, 64),
		"world-a":   compositeView("world-a", 3, 64, 64),
		"world-b":   compositeView("world-b", 4, 64, 64),
		"inspector": compositeView("inspector", 5, 64, 64),
	}
	lookup := func(key view.Key) *activeView { return records[key] }

	// Application order deliberately interleaves the bands.
	views := []view.CompositionView{
		{Key: "tools", Viewport: common.Viewport{Width: 64, Height: 64}, ZOrder: view.ZOrderTools},
		{Key: "world-a", Viewport: common.Viewport{Width: 64, Height: 64}},
		{Key: "hud", Viewport: common.Viewport{Width: 64, Height: 64}, ZOrder: view.ZOrderOverlay},
		{Key: "world-b", Viewport: common.Viewport{Width: 64, Height: 64}},
		{Key: "inspector", Viewport: common.Viewport{Width: 64, Height: 64}, ZOrder: view.ZOrderTools},
	}

	submission := BuildComposition(views, lookup)
	require.Len(t, submission.Tasks, 5)

	ids := make([]view.Id, 0, 5)
	for _, task := range submission.Tasks {
		ids = append(ids, task.ViewId)
	}

	// Scene band first in application order, then overlay, then tools in
	// application order.
	assert.Equal(t, []view.Id{3, 4, 2, 1, 5}, ids)
}

func TestBuildComposition_FiltersNonCompositeViews(t *testing.T) {
	noPath := compositeView("no-path", 1, 64, 64)
	noPath.plan.RunCompositePath = false
	noTarget := compositeView("no-target", 2, 64, 64)
	noTarget.target = nil

	records := map[view.Key]*activeView{
		"no-path":   noPath,
		"no-target": noTarget,
		"empty":     compositeView("empty", 3, 64, 64),
		"ok":        compositeView("ok", 4, 64, 64),
	}
	lookup := func(key view.Key) *activeView { return records[key] }

	views := []view.CompositionView{
		{Key: "no-path", Viewport: common.Viewport{Width: 64, Height: 64}},
		{Key: "no-target", Viewport: common.Viewport{Width: 64, Height: 64}},
		{Key: "unknown", Viewport: common.Viewport{Width: 64, Height: 64}},
		{Key: "empty", Viewport: common.Viewport{Width: 0, Height: 64}},
		{Key: "ok", Viewport: common.Viewport{Width: 64, Height: 64}},
	}

	submission := BuildComposition(views, lookup)
	require.Len(t, submission.Tasks, 1)
	assert.Equal(t, view.Id(4), submission.Tasks[0].ViewId)
}

func TestRecordComposition_MarkerSequence(t *testing.T) {
	commander := graphics.NewCommander(graphics.NewHeadlessRecorder, graphics.NewDeferredReclaimer())
	queue := &captureQueue{CommandQueue: graphics.NewHeadlessQueue(graphics.QueueRoleGraphics)}

	gfx := graphics.NewHeadlessGraphics(graphics.WithHeadlessSurface(256, 256))
	backbuffer, err := gfx.Surface().Acquire()
	require.NoError(t, err)

	av := compositeView("main", 7, 128, 128)
	submission := CompositionSubmission{Tasks: []CompositeTask{{
		ViewId: av.id,
		Source: av.target.SDRFramebuffer(),
		Region: common.Region{Width: 128, Height: 128},
		ZOrder: view.ZOrderScene,
	}}}

	require.NoError(t, recordComposition(commander, queue, backbuffer, submission))
	require.Len(t, queue.batches, 1)
	require.Len(t, queue.batches[0], 1)

	list := queue.batches[0][0]
	assert.Equal(t, graphics.ListStateSubmitted, list.State())
	assert.Equal(t, []string{
		"transition:headless/backbuffer->RenderTarget",
		"composite:view-7:Scene",
		"blit:main/sdr->headless/backbuffer 128x128@0,0",
		"transition:headless/backbuffer->Present",
	}, list.DebugMarkers())
}

func TestRecordComposition_NilBackbufferStillFlushes(t *testing.T) {
	commander := graphics.NewCommander(graphics.NewHeadlessRecorder, graphics.NewDeferredReclaimer())
	queue := &captureQueue{CommandQueue: graphics.NewHeadlessQueue(graphics.QueueRoleGraphics)}

	// Park a deferred list so the flush has something to move.
	rec, scope, err := commander.AcquireCommandRecorder(queue, "parked", false)
	require.NoError(t, err)
	rec.DebugMarker("parked-work")
	scope.Close()

	require.NoError(t, recordComposition(commander, queue, nil, CompositionSubmission{
		Tasks: []CompositeTask{{ViewId: 1}},
	}))

	require.Len(t, queue.batches, 1, "deferred work flushes even without a backbuffer")
	assert.Equal(t, []string{"parked-work"}, queue.batches[0][0].DebugMarkers())
}

func TestRecordComposition_NoTasksStillFlushes(t *testing.T) {
	commander := graphics.NewCommander(graphics.NewHeadlessRecorder, graphics.NewDeferredReclaimer())
	queue := &captureQueue{CommandQueue: graphics.NewHeadlessQueue(graphics.QueueRoleGraphics)}

	gfx := graphics.NewHeadlessGraphics(graphics.WithHeadlessSurface(256, 256))
	backbuffer, err := gfx.Surface().Acquire()
	require.NoError(t, err)

	require.NoError(t, recordComposition(commander, queue, backbuffer, CompositionSubmission{}))
	assert.Empty(t, queue.batches, "nothing was deferred, nothing submits")
}
