package graphics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingQueue rejects every submission while keeping count of attempts.
type failingQueue struct {
	CommandQueue
	attempts int
}

func newFailingQueue(role QueueRole) *failingQueue {
	return &failingQueue{CommandQueue: NewHeadlessQueue(role)}
}

func (q *failingQueue) Submit(list CommandList) error {
	return q.SubmitBatch([]CommandList{list})
}

func (q *failingQueue) SubmitBatch(lists []CommandList) error {
	q.attempts++
	return errors.New("queue rejected submission")
}

func newTestCommander() (Commander, DeferredReclaimer) {
	reclaimer := NewDeferredReclaimer()
	return NewCommander(NewHeadlessRecorder, reclaimer), reclaimer
}

func TestCommander_ImmediateLifecycle(t *testing.T) {
	c, reclaimer := newTestCommander()
	c.BeginFrameSlot(0, 1)
	queue := NewHeadlessQueue(QueueRoleGraphics)

	rec, scope, err := c.AcquireCommandRecorder(queue, "immediate", true)
	require.NoError(t, err)
	require.Equal(t, 1, c.OutstandingRecorders())

	list := rec.List()
	submitted := false
	executed := false
	list.SetOnSubmitted(func() { submitted = true })
	list.SetOnExecuted(func() { executed = true })

	rec.DebugMarker("work")
	scope.Close()

	assert.Equal(t, 0, c.OutstandingRecorders())
	assert.True(t, submitted, "immediate close submits and fires OnSubmitted")
	assert.False(t, executed, "OnExecuted waits for the frame to retire")
	assert.Equal(t, ListStateSubmitted, list.State())

	reclaimer.MarkRetired(1)
	reclaimer.ProcessAllDeferredReleases()
	assert.True(t, executed)
	assert.Equal(t, ListStateExecuted, list.State())
}

func TestCommander_ScopeCloseIdempotent(t *testing.T) {
	c, _ := newTestCommander()
	queue := NewHeadlessQueue(QueueRoleGraphics)

	rec, scope, err := c.AcquireCommandRecorder(queue, "idempotent", true)
	require.NoError(t, err)
	rec.DebugMarker("work")

	count := 0
	rec.List().SetOnSubmitted(func() { count++ })

	scope.Close()
	scope.Close()
	scope.Close()
	assert.Equal(t, 1, count, "repeated Close must not resubmit")
}

func TestCommander_NilScopeCloseIsSafe(t *testing.T) {
	var scope *SubmissionScope
	assert.NotPanics(t, func() { scope.Close() })
}

func TestCommander_DeferredBatchOrder(t *testing.T) {
	c, _ := newTestCommander()
	c.BeginFrameSlot(0, 1)
	queue := NewHeadlessQueue(QueueRoleGraphics)

	var order []string
	for _, label := range []string{"a", "b", "c"} {
		label := label
		rec, scope, err := c.AcquireCommandRecorder(queue, label, false)
		require.NoError(t, err)
		rec.DebugMarker("work:" + label)
		list := rec.List()
		list.SetOnSubmitted(func() { order = append(order, label) })
		scope.Close()

		// Deferred close stashes the list instead of submitting.
		assert.Equal(t, ListStateRecorded, list.State())
	}

	require.NoError(t, c.SubmitDeferredCommandLists())
	assert.Equal(t, []string{"a", "b", "c"}, order, "lists submit in creation order")
}

func TestCommander_DeferredEmptyBacklogNoOp(t *testing.T) {
	c, _ := newTestCommander()
	assert.NoError(t, c.SubmitDeferredCommandLists())
	assert.NoError(t, c.SubmitDeferredCommandLists())
}

func TestCommander_DeferredNoWorkRecorderSkipped(t *testing.T) {
	c, _ := newTestCommander()
	queue := NewHeadlessQueue(QueueRoleGraphics)

	// End without Begin would be an error; Acquire begins for us, so an
	// empty recording still submits as an intentionally empty list.
	_, scope, err := c.AcquireCommandRecorder(queue, "empty", false)
	require.NoError(t, err)
	scope.Close()

	assert.NoError(t, c.SubmitDeferredCommandLists())
}

func TestCommander_PerQueueFailureIsolation(t *testing.T) {
	c, _ := newTestCommander()
	c.BeginFrameSlot(0, 1)

	good := NewHeadlessQueue(QueueRoleGraphics)
	bad := newFailingQueue(QueueRoleCompute)

	goodSubmitted := false
	badSubmitted := false

	rec, scope, err := c.AcquireCommandRecorder(good, "good", false)
	require.NoError(t, err)
	rec.DebugMarker("work")
	rec.List().SetOnSubmitted(func() { goodSubmitted = true })
	scope.Close()

	rec, scope, err = c.AcquireCommandRecorder(bad, "bad", false)
	require.NoError(t, err)
	rec.DebugMarker("work")
	rec.List().SetOnSubmitted(func() { badSubmitted = true })
	scope.Close()

	err = c.SubmitDeferredCommandLists()
	require.Error(t, err)
	assert.True(t, goodSubmitted, "healthy queues still submit")
	assert.False(t, badSubmitted, "failed queues fire no callbacks")
	assert.Equal(t, 1, bad.attempts)

	// The commander stays usable after a failure.
	rec, scope, err = c.AcquireCommandRecorder(good, "after", true)
	require.NoError(t, err)
	rec.DebugMarker("work")
	after := rec.List()
	scope.Close()
	assert.Equal(t, ListStateSubmitted, after.State())
}

func TestCommander_ImmediateFailureFiresNoCallbacks(t *testing.T) {
	c, _ := newTestCommander()
	c.BeginFrameSlot(0, 1)
	bad := newFailingQueue(QueueRoleGraphics)

	rec, scope, err := c.AcquireCommandRecorder(bad, "doomed", true)
	require.NoError(t, err)
	rec.DebugMarker("work")
	list := rec.List()
	submitted := false
	executed := false
	list.SetOnSubmitted(func() { submitted = true })
	list.SetOnExecuted(func() { executed = true })

	assert.NotPanics(t, func() { scope.Close() })
	assert.False(t, submitted, "failed immediate submits fire no OnSubmitted")
	assert.False(t, executed)
	assert.Equal(t, ListStateRecorded, list.State())
	assert.Equal(t, 1, bad.attempts)
	assert.Equal(t, 0, c.OutstandingRecorders())

	// The next immediate submission runs its full lifecycle.
	good := NewHeadlessQueue(QueueRoleGraphics)
	rec, scope, err = c.AcquireCommandRecorder(good, "next", true)
	require.NoError(t, err)
	rec.DebugMarker("work")
	next := rec.List()
	scope.Close()
	assert.Equal(t, ListStateSubmitted, next.State())
}

// countingQueue remembers every batch it accepts before delegating.
type countingQueue struct {
	CommandQueue
	mu      sync.Mutex
	batches [][]CommandList
}

func (q *countingQueue) SubmitBatch(lists []CommandList) error {
	q.mu.Lock()
	q.batches = append(q.batches, lists)
	q.mu.Unlock()
	return q.CommandQueue.SubmitBatch(lists)
}

func TestCommander_ConcurrentSubmitSingleBatchPerQueue(t *testing.T) {
	c, _ := newTestCommander()
	queue := &countingQueue{CommandQueue: NewHeadlessQueue(QueueRoleGraphics)}

	submits := 0
	var mu sync.Mutex
	for i := 0; i < 9; i++ {
		rec, scope, err := c.AcquireCommandRecorder(queue, "burst", false)
		require.NoError(t, err)
		rec.DebugMarker("work")
		rec.List().SetOnSubmitted(func() {
			mu.Lock()
			submits++
			mu.Unlock()
		})
		scope.Close()
	}

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.SubmitDeferredCommandLists())
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 9, submits, "every list submits exactly once")

	queue.mu.Lock()
	defer queue.mu.Unlock()
	require.Len(t, queue.batches, 1, "the backlog reaches the queue as a single batch")
	assert.Len(t, queue.batches[0], 9)
}

func TestCommander_PrepareNilPanics(t *testing.T) {
	c, _ := newTestCommander()
	queue := NewHeadlessQueue(QueueRoleGraphics)
	list := NewCommandList(QueueRoleGraphics, "list")
	rec := NewHeadlessRecorder(queue, list, "rec")

	assert.Panics(t, func() { c.PrepareCommandRecorder(nil, list, true) })
	assert.Panics(t, func() { c.PrepareCommandRecorder(rec, nil, true) })
}

func TestNewCommander_NilDependenciesPanic(t *testing.T) {
	reclaimer := NewDeferredReclaimer()
	assert.Panics(t, func() { NewCommander(nil, reclaimer) })
	assert.Panics(t, func() { NewCommander(NewHeadlessRecorder, nil) })
}

func TestCommander_CurrentFrame(t *testing.T) {
	c, _ := newTestCommander()
	c.BeginFrameSlot(1, 42)

	slot, frameIndex := c.CurrentFrame()
	assert.Equal(t, 1, slot)
	assert.Equal(t, uint64(42), frameIndex)
}

func TestHeadlessRecorder_MarkerSequence(t *testing.T) {
	queue := NewHeadlessQueue(QueueRoleGraphics)
	list := NewCommandList(QueueRoleGraphics, "markers")
	rec := NewHeadlessRecorder(queue, list, "markers")
	require.NoError(t, rec.Begin())

	hdr := &headlessTexture{label: "view/hdr", width: 64, height: 64}
	depth := &headlessTexture{label: "view/depth", width: 64, height: 64}

	rec.Transition(hdr, ResourceStateRenderTarget)
	require.NoError(t, rec.BeginRenderPass(RenderPassDesc{
		Label: "opaque",
		Color: ColorAttachmentDesc{Target: hdr, Clear: true},
		Depth: &DepthAttachmentDesc{Target: depth, Write: true},
	}))
	rec.SetPipeline(NewPipelineState("opaque", PipelineKindRender))
	rec.EndRenderPass()
	rec.Dispatch("cull", 4, 4, 1)

	got, err := rec.End()
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, []string{
		"transition:view/hdr->RenderTarget",
		"pass:opaque clear-color depth-write",
		"pipeline:opaque",
		"pass-end",
		"dispatch:cull 4x4x1",
	}, got.DebugMarkers())
}

func TestHeadlessRecorder_EndTwiceFails(t *testing.T) {
	queue := NewHeadlessQueue(QueueRoleGraphics)
	list := NewCommandList(QueueRoleGraphics, "double-end")
	rec := NewHeadlessRecorder(queue, list, "double-end")
	require.NoError(t, rec.Begin())
	rec.DebugMarker("work")

	_, err := rec.End()
	require.NoError(t, err)

	_, err = rec.End()
	assert.Error(t, err)
	assert.Nil(t, rec.List(), "a spent recorder exposes no list")
}

func TestHeadlessRecorder_EmptyRecordingSubmits(t *testing.T) {
	queue := NewHeadlessQueue(QueueRoleGraphics)
	list := NewCommandList(QueueRoleGraphics, "empty")
	rec := NewHeadlessRecorder(queue, list, "empty")
	require.NoError(t, rec.Begin())

	got, err := rec.End()
	require.NoError(t, err)
	require.NotNil(t, got, "an empty recording still yields a submittable list")
	assert.Equal(t, []string{"empty"}, got.DebugMarkers())
	assert.NoError(t, queue.Submit(got))
}

func TestHeadlessRecorder_OpenPassRules(t *testing.T) {
	queue := NewHeadlessQueue(QueueRoleGraphics)
	list := NewCommandList(QueueRoleGraphics, "pass-rules")
	rec := NewHeadlessRecorder(queue, list, "pass-rules")
	require.NoError(t, rec.Begin())

	tex := &headlessTexture{label: "t", width: 8, height: 8}
	require.NoError(t, rec.BeginRenderPass(RenderPassDesc{Label: "one", Color: ColorAttachmentDesc{Target: tex}}))
	assert.Error(t, rec.BeginRenderPass(RenderPassDesc{Label: "two"}), "nested passes are rejected")

	// End closes the open pass automatically.
	got, err := rec.End()
	require.NoError(t, err)
	markers := got.DebugMarkers()
	assert.Equal(t, "pass-end", markers[len(markers)-1])
}

func TestHeadlessGraphics_FlushDrivesLifecycle(t *testing.T) {
	g := NewHeadlessGraphics()
	g.BeginFrame(0, 1)
	c := g.Commander()

	rec, scope, err := c.AcquireCommandRecorder(g.Queue(QueueRoleGraphics), "frame-work", false)
	require.NoError(t, err)
	rec.DebugMarker("work")
	executed := false
	rec.List().SetOnExecuted(func() { executed = true })
	scope.Close()

	require.NoError(t, g.Flush())
	g.Reclaimer().MarkRetired(1)
	g.Reclaimer().ProcessAllDeferredReleases()
	assert.True(t, executed)
}

func TestHeadlessGraphics_ViewTargets(t *testing.T) {
	g := NewHeadlessGraphics()

	target, err := g.CreateViewTarget("main", 320, 240)
	require.NoError(t, err)
	assert.Equal(t, uint32(320), target.Width)
	assert.Equal(t, "main/hdr", target.HDR.Label())
	assert.False(t, target.Released())

	_, err = g.CreateViewTarget("empty", 0, 240)
	assert.Error(t, err, "zero-sized targets are rejected")

	g.ReleaseViewTarget(target)
	assert.True(t, target.Released())
	assert.Equal(t, 1, g.Reclaimer().Pending())

	// Releasing twice schedules nothing new.
	g.ReleaseViewTarget(target)
	assert.Equal(t, 1, g.Reclaimer().Pending())
}

func TestHeadlessGraphics_HandleLoss(t *testing.T) {
	g := NewHeadlessGraphics()
	handle := g.Handle()

	got, ok := handle.Get()
	require.True(t, ok)
	assert.Equal(t, g, got)

	g.Release()
	_, ok = handle.Get()
	assert.False(t, ok, "a released backend reports loss")
}

func TestHeadlessSurface_AcquirePresent(t *testing.T) {
	surface := NewHeadlessSurface("test", 640, 480)

	fb, err := surface.Acquire()
	require.NoError(t, err)
	w, h := fb.Size()
	assert.Equal(t, uint32(640), w)
	assert.Equal(t, uint32(480), h)

	// Acquire is stable across calls on the headless surface.
	fb2, err := surface.Acquire()
	require.NoError(t, err)
	assert.Equal(t, fb, fb2)

	surface.Present()
}

func TestHeadlessQueue_WaitTimeoutUnused(t *testing.T) {
	// Headless waits never block; ensure the timeout path compiles away.
	q := NewHeadlessQueue(QueueRoleGraphics)
	q.Signal()
	assert.NoError(t, q.Wait(1, 0))
	assert.NoError(t, q.Wait(1, time.Nanosecond))
}
