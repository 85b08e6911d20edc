package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxygen/common"
	"github.com/Carmen-Shannon/oxygen/engine"
	"github.com/Carmen-Shannon/oxygen/engine/frame"
	"github.com/Carmen-Shannon/oxygen/engine/graphics"
	"github.com/Carmen-Shannon/oxygen/engine/phase"
	"github.com/Carmen-Shannon/oxygen/engine/scene"
	"github.com/Carmen-Shannon/oxygen/engine/view"
)

// pipelineHarness drives the pipeline's phase callbacks by hand the way the
// engine would, one frame at a time, against a headless backend.
type pipelineHarness struct {
	t         *testing.T
	gfx       graphics.Graphics
	fc        frame.Context
	tag       frame.Tag
	pipeline  ForwardPipeline
	callbacks map[phase.Id]engine.ModuleCallback

	frameIndex uint64
}

func newPipelineHarness(t *testing.T) *pipelineHarness {
	t.Helper()
	gfx := graphics.NewHeadlessGraphics(graphics.WithHeadlessSurface(256, 256))
	fc, tag := frame.NewContext(gfx.Handle())
	p := NewForwardPipeline()

	callbacks := make(map[phase.Id]engine.ModuleCallback)
	for _, binding := range p.PhaseBindings() {
		callbacks[binding.Phase] = binding.Callback
	}

	return &pipelineHarness{
		t:         t,
		gfx:       gfx,
		fc:        fc,
		tag:       tag,
		pipeline:  p,
		callbacks: callbacks,
	}
}

// runFrame executes one full frame through every phase, installing the given
// scene and views at the points the engine would.
func (h *pipelineHarness) runFrame(s scene.Scene, views []view.CompositionView) {
	h.t.Helper()
	h.frameIndex++
	h.fc.Reset(h.tag, h.frameIndex, 0)
	h.gfx.BeginFrame(0, h.frameIndex)
	h.fc.SetScene(h.tag, s)
	h.fc.SetViews(views)

	backbuffer, err := h.gfx.Surface().Acquire()
	require.NoError(h.t, err)
	h.fc.SetCompositeTarget(h.tag, backbuffer)

	ctx := context.Background()
	for i, p := range phase.Ordered() {
		if i > 0 {
			h.fc.AdvancePhase(h.tag, p)
		}
		if callback, ok := h.callbacks[p]; ok {
			require.NoError(h.t, callback(ctx, h.fc), "phase %s", p)
		}
	}
}

func cameraScene(t *testing.T) (scene.MutableScene, scene.NodeID) {
	t.Helper()
	s := scene.NewScene("test-level")
	rig := s.AddRoot("camera-rig")
	scene.AttachCamera(rig, scene.CameraDesc{FovY: 1.047, Near: 0.1, Far: 1000, Exposure: 1})
	s.PropagateTransforms()
	return s, rig.ID()
}

func TestForwardPipeline_PhaseBindings(t *testing.T) {
	p := NewForwardPipeline()
	assert.Equal(t, ModuleName, p.Name())

	bound := make([]phase.Id, 0, 6)
	for _, binding := range p.PhaseBindings() {
		require.NotNil(t, binding.Callback)
		bound = append(bound, binding.Phase)
	}
	assert.Equal(t, []phase.Id{
		phase.FrameStart,
		phase.PublishViews,
		phase.PreRender,
		phase.FrameGraphRender,
		phase.Compositing,
		phase.FrameEnd,
	}, bound)
}

func TestForwardPipeline_FullFrame(t *testing.T) {
	h := newPipelineHarness(t)
	s, camNode := cameraScene(t)

	var captured *RenderContext
	var recorded graphics.CommandList
	h.pipeline.RegisterRenderGraph("main", func(rc *RenderContext, rec graphics.CommandRecorder) error {
		captured = rc
		recorded = rec.List()
		rec.DebugMarker("draw:test-geometry")
		return nil
	})

	h.runFrame(s, []view.CompositionView{{
		Key:        "main",
		Viewport:   common.Viewport{Width: 256, Height: 256},
		CameraNode: camNode,
	}})

	// The view published with a stable id.
	views := h.fc.Views()
	require.Len(t, views, 1)
	assert.True(t, views[0].Id.Valid())

	// The plan took the full solid composite path.
	plans := h.pipeline.Plans()
	require.Len(t, plans, 1)
	assert.True(t, plans[0].RunSceneLinearPath)
	assert.True(t, plans[0].RunCompositePath)
	assert.Contains(t, plans[0].Passes, view.PassOpaque)
	assert.Contains(t, plans[0].Passes, view.PassToneMap)

	// The render graph callback saw the resolved view state.
	require.NotNil(t, captured, "opaque pass runs the registered render graph")
	assert.NotNil(t, captured.Camera)
	assert.Equal(t, views[0].Id, captured.Plan.PublishedViewId)

	// The view's command list recorded the draw and was submitted.
	require.NotNil(t, recorded)
	assert.Equal(t, graphics.ListStateSubmitted, recorded.State())
	assert.Contains(t, recorded.DebugMarkers(), "draw:test-geometry")
	assert.Contains(t, recorded.DebugMarkers(), "pipeline:opaque")

	assert.Zero(t, h.gfx.Commander().OutstandingRecorders(), "all recorders closed by frame end")
}

func TestForwardPipeline_SettingsCommitAtFrameStart(t *testing.T) {
	h := newPipelineHarness(t)

	h.pipeline.SetRenderMode(view.RenderModeWireframe)
	assert.Equal(t, view.RenderModeSolid, h.pipeline.Settings().RenderMode,
		"staged settings stay out of the snapshot until commit")

	h.runFrame(nil, []view.CompositionView{{
		Key:      "main",
		Viewport: common.Viewport{Width: 128, Height: 128},
	}})

	assert.Equal(t, view.RenderModeWireframe, h.pipeline.Settings().RenderMode)
	plans := h.pipeline.Plans()
	require.Len(t, plans, 1)
	assert.Equal(t, []view.Pass{view.PassWireframe, view.PassToneMap}, plans[0].Passes)
}

func TestForwardPipeline_RetiresAbsentViews(t *testing.T) {
	h := newPipelineHarness(t)

	h.runFrame(nil, []view.CompositionView{{
		Key:      "transient",
		Viewport: common.Viewport{Width: 64, Height: 64},
	}})
	pendingAfterFirst := h.gfx.Reclaimer().Pending()

	h.runFrame(nil, nil)
	assert.Greater(t, h.gfx.Reclaimer().Pending(), pendingAfterFirst,
		"the dropped view's targets queue for deferred release")
}

func TestForwardPipeline_ShutdownRetiresRemainingViews(t *testing.T) {
	h := newPipelineHarness(t)

	h.runFrame(nil, []view.CompositionView{{
		Key:      "main",
		Viewport: common.Viewport{Width: 64, Height: 64},
	}})
	pendingBefore := h.gfx.Reclaimer().Pending()

	h.pipeline.Shutdown(h.gfx)
	assert.Greater(t, h.gfx.Reclaimer().Pending(), pendingBefore,
		"every remaining view target queues for deferred release")
	assert.Nil(t, h.pipeline.(*forwardPipeline).lifecycle.lookup("main"),
		"no view survives shutdown")
}

func TestForwardPipeline_ToolsViewRunsOverlayOnly(t *testing.T) {
	h := newPipelineHarness(t)

	var overlayViewport common.Viewport
	overlayCalls := 0
	h.runFrame(nil, []view.CompositionView{{
		Key:      "editor",
		Viewport: common.Viewport{Width: 320, Height: 200},
		ZOrder:   view.ZOrderTools,
		OnOverlay: func(viewport common.Viewport) {
			overlayCalls++
			overlayViewport = viewport
		},
	}})

	plans := h.pipeline.Plans()
	require.Len(t, plans, 1)
	assert.False(t, plans[0].RunSceneLinearPath)
	assert.True(t, plans[0].RunCompositePath)
	assert.Equal(t, []view.Pass{view.PassOverlay}, plans[0].Passes)

	assert.Equal(t, 1, overlayCalls, "the overlay callback runs while the SDR target is bound")
	assert.Equal(t, float32(320), overlayViewport.Width)
}

func TestForwardPipeline_RenderGraphUnbind(t *testing.T) {
	h := newPipelineHarness(t)

	calls := 0
	h.pipeline.RegisterRenderGraph("main", func(*RenderContext, graphics.CommandRecorder) error {
		calls++
		return nil
	})
	h.pipeline.RegisterRenderGraph("main", nil)

	h.runFrame(nil, []view.CompositionView{{
		Key:      "main",
		Viewport: common.Viewport{Width: 64, Height: 64},
	}})
	assert.Zero(t, calls, "unbinding removes the callback")
}
