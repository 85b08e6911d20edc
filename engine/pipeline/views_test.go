package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxygen/common"
	"github.com/Carmen-Shannon/oxygen/engine/frame"
	"github.com/Carmen-Shannon/oxygen/engine/graphics"
	"github.com/Carmen-Shannon/oxygen/engine/scene"
	"github.com/Carmen-Shannon/oxygen/engine/view"
)

func newLifecycleHarness(t *testing.T) (graphics.Graphics, frame.Context, frame.Tag) {
	t.Helper()
	gfx := graphics.NewHeadlessGraphics()
	fc, tag := frame.NewContext(gfx.Handle())
	return gfx, fc, tag
}

func descriptor(key view.Key, width, height float32) view.CompositionView {
	return view.CompositionView{
		Key:      key,
		Viewport: common.Viewport{Width: width, Height: height},
	}
}

func TestViewLifecycle_SyncAllocatesTargets(t *testing.T) {
	gfx, fc, _ := newLifecycleHarness(t)
	l := newViewLifecycle()

	fc.SetViews([]view.CompositionView{descriptor("main", 640, 480)})
	require.NoError(t, l.sync(fc, gfx))

	av := l.lookup("main")
	require.NotNil(t, av)
	require.NotNil(t, av.target)
	assert.Equal(t, uint32(640), av.target.Width)
	assert.Equal(t, uint32(480), av.target.Height)
}

func TestViewLifecycle_PublishAssignsStableIds(t *testing.T) {
	gfx, fc, _ := newLifecycleHarness(t)
	l := newViewLifecycle()

	fc.SetViews([]view.CompositionView{
		descriptor("main", 640, 480),
		descriptor("minimap", 128, 128),
	})
	require.NoError(t, l.sync(fc, gfx))
	l.publish(fc)

	views := fc.Views()
	require.Len(t, views, 2)
	assert.True(t, views[0].Id.Valid())
	assert.True(t, views[1].Id.Valid())
	assert.NotEqual(t, views[0].Id, views[1].Id)

	first := views[0].Id

	// Publishing again with the same keys keeps the ids.
	require.NoError(t, l.sync(fc, gfx))
	l.publish(fc)
	assert.Equal(t, first, fc.Views()[0].Id, "ids stay stable while the view is active")
}

func TestViewLifecycle_EmptyAndDuplicateKeysRejected(t *testing.T) {
	gfx, fc, _ := newLifecycleHarness(t)
	l := newViewLifecycle()

	fc.SetViews([]view.CompositionView{
		descriptor("", 64, 64),
		descriptor("dup", 64, 64),
		descriptor("dup", 32, 32),
	})
	err := l.sync(fc, gfx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty key")
	assert.Contains(t, err.Error(), "duplicate view key")

	// The valid first occurrence still syncs.
	assert.NotNil(t, l.lookup("dup"))
}

func TestViewLifecycle_AbsentViewsRetireThroughReclaimer(t *testing.T) {
	gfx, fc, _ := newLifecycleHarness(t)
	l := newViewLifecycle()

	fc.SetViews([]view.CompositionView{descriptor("main", 64, 64)})
	require.NoError(t, l.sync(fc, gfx))
	l.publish(fc)
	target := l.lookup("main").target

	// Next frame, the view is gone.
	fc.SetViews(nil)
	require.NoError(t, l.sync(fc, gfx))
	assert.Nil(t, l.lookup("main"))

	l.retireStale(gfx)
	assert.True(t, target.Released(), "targets release through the graphics layer")
	assert.Equal(t, 1, gfx.Reclaimer().Pending(), "the release waits in the reclaimer")
}

func TestViewLifecycle_ResizeReallocatesKeepsId(t *testing.T) {
	gfx, fc, _ := newLifecycleHarness(t)
	l := newViewLifecycle()

	fc.SetViews([]view.CompositionView{descriptor("main", 640, 480)})
	require.NoError(t, l.sync(fc, gfx))
	l.publish(fc)

	id := l.lookup("main").id
	oldTarget := l.lookup("main").target

	fc.SetViews([]view.CompositionView{descriptor("main", 1280, 720)})
	require.NoError(t, l.sync(fc, gfx))

	av := l.lookup("main")
	assert.Equal(t, id, av.id, "resizing keeps the published id")
	assert.NotEqual(t, oldTarget, av.target)
	assert.Equal(t, uint32(1280), av.target.Width)

	l.retireStale(gfx)
	assert.True(t, oldTarget.Released(), "the outgrown target retires")
	assert.False(t, av.target.Released())
}

func TestViewLifecycle_ZeroViewportClampsToOnePixel(t *testing.T) {
	gfx, fc, _ := newLifecycleHarness(t)
	l := newViewLifecycle()

	fc.SetViews([]view.CompositionView{descriptor("tiny", 0, 0)})
	require.NoError(t, l.sync(fc, gfx))

	av := l.lookup("tiny")
	require.NotNil(t, av.target)
	assert.Equal(t, uint32(1), av.target.Width)
	assert.Equal(t, uint32(1), av.target.Height)
}

func TestViewLifecycle_RebuildCameras(t *testing.T) {
	gfx, fc, _ := newLifecycleHarness(t)
	l := newViewLifecycle()

	s := scene.NewScene("level")
	node := s.AddRoot("camera-rig")
	scene.AttachCamera(node, scene.CameraDesc{
		FovY: 1.2,
		Near: 0.1,
		Far:  500,
	})
	s.PropagateTransforms()

	desc := descriptor("main", 640, 480)
	desc.CameraNode = node.ID()
	fc.SetViews([]view.CompositionView{desc})
	require.NoError(t, l.sync(fc, gfx))

	l.rebuildCameras(s)
	av := l.lookup("main")
	require.NotNil(t, av.cam)
	assert.InDelta(t, 640.0/480.0, av.cam.Aspect(), 1e-5)

	// Without a scene the camera resolves to nil.
	l.rebuildCameras(nil)
	assert.Nil(t, l.lookup("main").cam)
}

func TestViewLifecycle_RetireAll(t *testing.T) {
	gfx, fc, _ := newLifecycleHarness(t)
	l := newViewLifecycle()

	fc.SetViews([]view.CompositionView{
		descriptor("a", 64, 64),
		descriptor("b", 64, 64),
	})
	require.NoError(t, l.sync(fc, gfx))
	l.publish(fc)

	l.retireAll()
	assert.Nil(t, l.lookup("a"))
	assert.Nil(t, l.lookup("b"))

	l.retireStale(gfx)
	assert.Equal(t, 2, gfx.Reclaimer().Pending())
}
