package pipeline

import (
	"github.com/Carmen-Shannon/oxygen/engine/camera"
	"github.com/Carmen-Shannon/oxygen/engine/frame"
	"github.com/Carmen-Shannon/oxygen/engine/graphics"
	"github.com/Carmen-Shannon/oxygen/engine/scene"
	"github.com/Carmen-Shannon/oxygen/engine/view"
)

// RenderContext bundles everything a render graph callback needs to record
// one view's frame: the frame context, the view's plan and targets, the
// resolved camera, and the scene snapshot. It is valid only for the duration
// of the callback.
type RenderContext struct {
	// Frame is the frame context for the frame being recorded.
	Frame frame.Context

	// View is the descriptor of the view being recorded.
	View view.CompositionView

	// Plan is the resolved render plan the recording must follow.
	Plan view.RenderPlan

	// Target holds the view's HDR, SDR, and depth textures.
	Target *graphics.ViewTarget

	// Camera is the view's resolved camera, or nil when the view has no
	// camera node.
	Camera camera.Camera

	// Scene is the scene bound to the frame, or nil.
	Scene scene.Scene

	// LightCull is the resolved light culling configuration for this view.
	LightCull LightCullConfig
}

// RenderGraphCallback records application draw work for one view. The
// pipeline invokes the callback during FrameGraphRender inside the view's
// opaque render pass, with the recorder's pass state already configured per
// the plan.
type RenderGraphCallback func(rc *RenderContext, rec graphics.CommandRecorder) error
