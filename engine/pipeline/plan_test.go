package pipeline

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxygen/common"
	"github.com/Carmen-Shannon/oxygen/engine/scene"
	"github.com/Carmen-Shannon/oxygen/engine/view"
)

func sceneView() view.CompositionView {
	return view.CompositionView{
		Key:      "main",
		Viewport: common.Viewport{Width: 1280, Height: 720},
		ZOrder:   view.ZOrderScene,
	}
}

func skyEnvironment() scene.Environment {
	return scene.Environment{SkyAtmosphere: &scene.SkyAtmosphereDesc{SunIntensity: 1}}
}

func passNames(plan view.RenderPlan) string {
	names := make([]string, len(plan.Passes))
	for i, p := range plan.Passes {
		names[i] = p.String()
	}
	return strings.Join(names, "\n") + "\n"
}

func TestBuildViewPlan_SolidComposite(t *testing.T) {
	v := sceneView()
	v.OnOverlay = func(common.Viewport) {}

	plan := BuildViewPlan(DefaultSettings(), v, skyEnvironment(), true)

	assert.True(t, plan.RunSceneLinearPath)
	assert.True(t, plan.RunCompositePath)
	assert.True(t, plan.RunSky)
	assert.True(t, plan.ClearHDR)
	assert.True(t, plan.ClearDepth)
	assert.False(t, plan.ClearSDR, "SDR is produced by tone mapping, not cleared")
	assert.Equal(t, view.RenderModeSolid, plan.EffectiveRenderMode)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "plan_solid_composite", []byte(passNames(plan)))
}

func TestBuildViewPlan_WireframeShortCircuit(t *testing.T) {
	settings := DefaultSettings()
	settings.RenderMode = view.RenderModeWireframe

	plan := BuildViewPlan(settings, sceneView(), skyEnvironment(), true)

	assert.Equal(t, view.RenderModeWireframe, plan.EffectiveRenderMode)
	assert.False(t, plan.RunSky, "wireframe skips the sky even when the environment has one")
	assert.False(t, plan.HasPass(view.PassDepthPrePass))
	assert.False(t, plan.HasPass(view.PassOpaque))
	assert.False(t, plan.HasPass(view.PassLightCulling))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "plan_wireframe_composite", []byte(passNames(plan)))
}

func TestBuildViewPlan_ForceWireframeFoldsIn(t *testing.T) {
	v := sceneView()
	v.ForceWireframe = true

	plan := BuildViewPlan(DefaultSettings(), v, scene.Environment{}, true)
	assert.Equal(t, view.RenderModeWireframe, plan.EffectiveRenderMode)
	assert.True(t, plan.HasPass(view.PassWireframe))
}

func TestBuildViewPlan_NoSkyWithoutAtmosphere(t *testing.T) {
	plan := BuildViewPlan(DefaultSettings(), sceneView(), scene.Environment{}, true)
	assert.False(t, plan.RunSky)
	assert.False(t, plan.HasPass(view.PassSky))
	assert.True(t, plan.HasPass(view.PassOpaque))
}

func TestBuildViewPlan_HeadlessSkipsCompositePasses(t *testing.T) {
	plan := BuildViewPlan(DefaultSettings(), sceneView(), skyEnvironment(), false)

	assert.True(t, plan.RunSceneLinearPath)
	assert.False(t, plan.RunCompositePath)
	assert.False(t, plan.HasPass(view.PassToneMap), "no backbuffer, no tone map output")
}

func TestBuildViewPlan_ToolsBand(t *testing.T) {
	v := sceneView()
	v.ZOrder = view.ZOrderTools
	v.ShouldClear = true
	v.OnOverlay = func(common.Viewport) {}

	plan := BuildViewPlan(DefaultSettings(), v, skyEnvironment(), true)

	assert.False(t, plan.RunSceneLinearPath, "tools views never render the scene")
	assert.True(t, plan.RunCompositePath)
	assert.True(t, plan.ClearSDR)
	require.Len(t, plan.Passes, 1)
	assert.Equal(t, view.PassOverlay, plan.Passes[0])
}

func TestBuildViewPlan_ToolsBandHeadless(t *testing.T) {
	v := sceneView()
	v.ZOrder = view.ZOrderTools
	v.OnOverlay = func(common.Viewport) {}

	plan := BuildViewPlan(DefaultSettings(), v, scene.Environment{}, false)
	assert.False(t, plan.RunCompositePath)
	assert.Empty(t, plan.Passes, "no composite target, no overlay")
}

func TestBuildViewPlan_OptionalPasses(t *testing.T) {
	settings := DefaultSettings()
	settings.GroundGrid.Enabled = true
	settings.WireframeOverlay = true
	settings.AutoExposure.Enabled = true
	settings.ToneMap.ExposureMode = view.ExposureModeAuto

	plan := BuildViewPlan(settings, sceneView(), scene.Environment{}, true)

	assert.True(t, plan.HasPass(view.PassGroundGrid))
	assert.True(t, plan.HasPass(view.PassAutoExposure))
	assert.True(t, plan.HasPass(view.PassOverlayWireframe))
	assert.True(t, plan.RunOverlayWireframe)
}

func TestBuildViewPlan_AutoExposureNeedsAutoMode(t *testing.T) {
	settings := DefaultSettings()
	settings.AutoExposure.Enabled = true
	// Exposure stays manual, so the reduction pass is wasted work.

	plan := BuildViewPlan(settings, sceneView(), scene.Environment{}, true)
	assert.False(t, plan.HasPass(view.PassAutoExposure))
}

func TestBuildViewPlan_ToneMapPolicyCopied(t *testing.T) {
	settings := DefaultSettings()
	settings.ToneMap.Mapper = view.ToneMapperReinhard
	settings.ToneMap.ExposureValue = 2.5

	plan := BuildViewPlan(settings, sceneView(), scene.Environment{}, true)
	assert.Equal(t, view.ToneMapperReinhard, plan.ToneMapPolicy.Mapper)
	assert.Equal(t, float32(2.5), plan.ToneMapPolicy.ManualExposure)
	assert.False(t, plan.ToneMapPolicy.Neutral())
}
