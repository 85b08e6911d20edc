package view

import (
	"github.com/Carmen-Shannon/oxygen/common"
)

// RenderMode selects how scene geometry is rasterized.
type RenderMode int

const (
	// RenderModeSolid rasterizes filled triangles through the full shading
	// path.
	RenderModeSolid RenderMode = iota

	// RenderModeWireframe rasterizes edges only; the shading passes are
	// skipped.
	RenderModeWireframe
)

// String returns the mode's display name.
func (m RenderMode) String() string {
	if m == RenderModeWireframe {
		return "Wireframe"
	}
	return "Solid"
}

// ToneMapper selects the operator applied when converting the scene-linear
// HDR image to the SDR output.
type ToneMapper int

const (
	// ToneMapperNone passes scene-linear values through unmapped.
	ToneMapperNone ToneMapper = iota

	// ToneMapperReinhard applies the classic Reinhard operator.
	ToneMapperReinhard

	// ToneMapperACES applies the ACES filmic approximation.
	ToneMapperACES
)

// String returns the mapper's display name.
func (t ToneMapper) String() string {
	switch t {
	case ToneMapperReinhard:
		return "Reinhard"
	case ToneMapperACES:
		return "ACES"
	default:
		return "None"
	}
}

// ExposureMode selects how scene exposure is determined during tone mapping.
type ExposureMode int

const (
	// ExposureModeManual uses the fixed exposure value from the committed
	// settings.
	ExposureModeManual ExposureMode = iota

	// ExposureModeAuto derives exposure from the auto-exposure pass's
	// luminance histogram.
	ExposureModeAuto
)

// String returns the mode's display name.
func (m ExposureMode) String() string {
	if m == ExposureModeAuto {
		return "Auto"
	}
	return "Manual"
}

// ToneMapPolicy is the per-frame tone mapping decision carried in a view's
// render plan. Certain shader debug modes force the neutral policy so that
// raw shader output reaches the SDR target unmodified.
type ToneMapPolicy struct {
	// ExposureMode is the exposure source used this frame.
	ExposureMode ExposureMode

	// ManualExposure is the exposure multiplier used when ExposureMode is
	// manual. The neutral policy pins this to 1.0.
	ManualExposure float32

	// Mapper is the tone mapping operator used this frame.
	Mapper ToneMapper
}

// NeutralToneMapPolicy is the override applied for raw shader debug modes:
// manual exposure of 1.0 with no tone mapping operator.
var NeutralToneMapPolicy = ToneMapPolicy{
	ExposureMode:   ExposureModeManual,
	ManualExposure: 1.0,
	Mapper:         ToneMapperNone,
}

// Neutral reports whether the policy equals the neutral override.
//
// Returns:
//   - bool: true if the policy is manual exposure 1.0 with no mapper
func (p ToneMapPolicy) Neutral() bool {
	return p == NeutralToneMapPolicy
}

// Pass identifies one step of a view's render plan. The planner emits passes
// in execution order; passes read the plan, never each other.
type Pass int

const (
	// PassDepthPrePass renders opaque depth into the view's depth buffer.
	PassDepthPrePass Pass = iota

	// PassSky renders the sky after the depth pre-pass, depth-tested
	// against the depth buffer.
	PassSky

	// PassLightCulling dispatches the tiled light culling compute work.
	PassLightCulling

	// PassOpaque shades opaque geometry into the HDR target.
	PassOpaque

	// PassTransparent blends transparent geometry into the HDR target.
	PassTransparent

	// PassGroundGrid draws the reference ground grid into the HDR target.
	PassGroundGrid

	// PassAutoExposure reduces the HDR image to a scene luminance estimate.
	PassAutoExposure

	// PassToneMap converts the HDR image to the view's SDR output.
	PassToneMap

	// PassWireframe renders the whole scene as wireframe into the HDR
	// target, replacing the shading passes.
	PassWireframe

	// PassOverlayWireframe draws a wireframe overlay into the SDR output
	// after tone mapping.
	PassOverlayWireframe

	// PassOverlay executes the view's CPU overlay callback with the SDR
	// output bound.
	PassOverlay
)

// String returns the pass's display name.
func (p Pass) String() string {
	switch p {
	case PassDepthPrePass:
		return "DepthPrePass"
	case PassSky:
		return "Sky"
	case PassLightCulling:
		return "LightCulling"
	case PassOpaque:
		return "Opaque"
	case PassTransparent:
		return "Transparent"
	case PassGroundGrid:
		return "GroundGrid"
	case PassAutoExposure:
		return "AutoExposure"
	case PassToneMap:
		return "ToneMap"
	case PassWireframe:
		return "Wireframe"
	case PassOverlayWireframe:
		return "OverlayWireframe"
	case PassOverlay:
		return "Overlay"
	default:
		return "Unknown"
	}
}

// RenderPlan is the per-frame, per-view output of the forward pipeline
// planner. It is plain data: the recording stage reads the plan and emits
// command lists accordingly, with no further decision making.
type RenderPlan struct {
	// ViewKey identifies the view this plan belongs to.
	ViewKey Key

	// PublishedViewId is the stable id assigned at PublishViews.
	PublishedViewId Id

	// RunSceneLinearPath reports whether the HDR scene-linear target is
	// rendered this frame.
	RunSceneLinearPath bool

	// RunCompositePath reports whether an SDR region is produced for the
	// backbuffer composite.
	RunCompositePath bool

	// RunSky reports whether the sky pass runs on the scene-linear path.
	RunSky bool

	// RunOverlayWireframe reports whether the SDR wireframe overlay runs
	// after tone mapping.
	RunOverlayWireframe bool

	// EffectiveRenderMode is the mode the scene-linear path uses after
	// folding in the view's ForceWireframe flag.
	EffectiveRenderMode RenderMode

	// ToneMapPolicy is the tone mapping decision for this frame.
	ToneMapPolicy ToneMapPolicy

	// ClearHDR requests a clear of the HDR target before the scene-linear
	// path. Always set when the scene-linear path runs.
	ClearHDR bool

	// ClearSDR requests a clear of the SDR target. Set when the view asked
	// for a clear and the scene-linear path is skipped.
	ClearSDR bool

	// ClearDepth requests a clear of the view's depth buffer.
	ClearDepth bool

	// DepthWrite enables depth writes on the scene-linear path's geometry
	// pass.
	DepthWrite bool

	// Viewport is the view's target rectangle, copied from the descriptor.
	Viewport common.Viewport

	// Passes is the ordered pass sequence for this view.
	Passes []Pass
}

// HasPass reports whether the plan includes the given pass.
//
// Parameters:
//   - pass: the pass to look for
//
// Returns:
//   - bool: true if the pass is part of the plan
func (p *RenderPlan) HasPass(pass Pass) bool {
	for _, got := range p.Passes {
		if got == pass {
			return true
		}
	}
	return false
}
