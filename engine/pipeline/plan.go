package pipeline

import (
	"github.com/Carmen-Shannon/oxygen/engine/scene"
	"github.com/Carmen-Shannon/oxygen/engine/view"
)

// BuildViewPlan resolves one view's render plan for the current frame from
// the committed settings, the view descriptor, and the scene environment.
// The plan is pure data; recording follows it without further decisions.
//
// Rules:
//   - Tools-band views skip the scene-linear path entirely and only run
//     their overlay on the composite path.
//   - The HDR target and depth buffer are always cleared when the
//     scene-linear path runs; the SDR target is only cleared when the view
//     requested a clear and the scene-linear path is skipped.
//   - Wireframe mode (from settings or the view's ForceWireframe flag)
//     replaces the shading passes with a single wireframe pass that clears
//     color and depth with depth writes enabled.
//   - The sky pass runs only when the environment has a sky and the scene
//     renders solid.
//
// Parameters:
//   - settings: the committed settings snapshot
//   - v: the view descriptor to plan for
//   - env: the scene environment, zero value when no scene is bound
//   - hasCompositeTarget: whether a backbuffer exists to composite into
//
// Returns:
//   - view.RenderPlan: the resolved plan
func BuildViewPlan(settings Settings, v view.CompositionView, env scene.Environment, hasCompositeTarget bool) view.RenderPlan {
	plan := view.RenderPlan{
		ViewKey:         v.Key,
		PublishedViewId: v.Id,
		Viewport:        v.Viewport,
		ToneMapPolicy: view.ToneMapPolicy{
			ExposureMode:   settings.ToneMap.ExposureMode,
			ManualExposure: settings.ToneMap.ExposureValue,
			Mapper:         settings.ToneMap.Mapper,
		},
	}

	if v.ZOrder == view.ZOrderTools {
		// Tools views never render the scene; they contribute an SDR
		// overlay region to the composite.
		plan.RunCompositePath = hasCompositeTarget
		plan.ClearSDR = v.ShouldClear
		if plan.RunCompositePath && v.OnOverlay != nil {
			plan.Passes = append(plan.Passes, view.PassOverlay)
		}
		return plan
	}

	plan.RunSceneLinearPath = true
	plan.RunCompositePath = hasCompositeTarget
	plan.ClearHDR = true
	plan.ClearDepth = true
	plan.DepthWrite = true

	mode := settings.RenderMode
	if v.ForceWireframe {
		mode = view.RenderModeWireframe
	}
	plan.EffectiveRenderMode = mode

	if mode == view.RenderModeWireframe {
		// Wireframe short-circuits the shading path: one pass clears
		// color and depth and draws edges with depth writes on.
		plan.Passes = append(plan.Passes, view.PassWireframe)
		if plan.RunCompositePath {
			plan.Passes = append(plan.Passes, view.PassToneMap)
			appendOverlayPasses(&plan, v)
		}
		return plan
	}

	plan.Passes = append(plan.Passes, view.PassDepthPrePass)
	if env.HasSky() {
		plan.RunSky = true
		plan.Passes = append(plan.Passes, view.PassSky)
	}
	plan.Passes = append(plan.Passes, view.PassLightCulling, view.PassOpaque, view.PassTransparent)
	if settings.GroundGrid.Enabled {
		plan.Passes = append(plan.Passes, view.PassGroundGrid)
	}
	if settings.AutoExposure.Enabled && settings.ToneMap.ExposureMode == view.ExposureModeAuto {
		plan.Passes = append(plan.Passes, view.PassAutoExposure)
	}
	if plan.RunCompositePath {
		plan.Passes = append(plan.Passes, view.PassToneMap)
		if settings.WireframeOverlay {
			plan.RunOverlayWireframe = true
			plan.Passes = append(plan.Passes, view.PassOverlayWireframe)
		}
		appendOverlayPasses(&plan, v)
	}
	return plan
}

func appendOverlayPasses(plan *view.RenderPlan, v view.CompositionView) {
	if v.OnOverlay != nil {
		plan.Passes = append(plan.Passes, view.PassOverlay)
	}
}
