package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxygen/common"
	"github.com/Carmen-Shannon/oxygen/engine"
	"github.com/Carmen-Shannon/oxygen/engine/frame"
	"github.com/Carmen-Shannon/oxygen/engine/graphics"
	"github.com/Carmen-Shannon/oxygen/engine/phase"
	"github.com/Carmen-Shannon/oxygen/engine/scene"
	"github.com/Carmen-Shannon/oxygen/engine/view"
)

// ModuleName is the forward pipeline's registration name.
const ModuleName = "forward_pipeline"

// ForwardPipeline is the engine module that plans and records per-view
// rendering. Settings mutators write to a draft that commits atomically at
// FrameStart, so every frame observes one consistent snapshot. All GPU work
// is recorded through the Commander and submitted deferred, one batch per
// queue per frame.
type ForwardPipeline interface {
	engine.Module

	// Settings returns the committed settings snapshot for the current
	// frame.
	//
	// Returns:
	//   - Settings: the committed snapshot
	Settings() Settings

	// SetRenderMode stages the scene render mode for the next commit.
	//
	// Parameters:
	//   - mode: solid or wireframe
	SetRenderMode(mode view.RenderMode)

	// SetWireframeOverlay stages the SDR wireframe overlay toggle.
	//
	// Parameters:
	//   - enabled: whether the overlay pass runs after tone mapping
	SetWireframeOverlay(enabled bool)

	// SetToneMapper stages the tone mapping operator.
	//
	// Parameters:
	//   - mapper: the operator to use
	SetToneMapper(mapper view.ToneMapper)

	// SetExposureMode stages manual or automatic exposure.
	//
	// Parameters:
	//   - mode: the exposure source
	SetExposureMode(mode view.ExposureMode)

	// SetExposureValue stages the manual exposure multiplier.
	//
	// Parameters:
	//   - value: the exposure multiplier
	SetExposureValue(value float32)

	// SetGamma stages the display gamma.
	//
	// Parameters:
	//   - gamma: the display gamma
	SetGamma(gamma float32)

	// SetShaderDebugMode stages a shading debug visualization. Raw IBL
	// modes force the neutral tone map policy while active.
	//
	// Parameters:
	//   - mode: the debug visualization
	SetShaderDebugMode(mode ShaderDebugMode)

	// SetLightCullDebugMode stages a light culling debug visualization.
	//
	// Parameters:
	//   - mode: the debug visualization
	SetLightCullDebugMode(mode LightCullDebugMode)

	// SetClusterDepthSlices stages the clustered culling depth slice count.
	//
	// Parameters:
	//   - slices: the number of depth slices
	SetClusterDepthSlices(slices uint32)

	// SetGPUDebugPass stages the GPU debug pass toggle.
	//
	// Parameters:
	//   - enabled: whether the debug pass runs
	SetGPUDebugPass(enabled bool)

	// SetGroundGrid stages the ground grid configuration.
	//
	// Parameters:
	//   - grid: the grid configuration
	SetGroundGrid(grid GroundGridConfig)

	// SetAutoExposure stages the auto-exposure configuration.
	//
	// Parameters:
	//   - cfg: the auto-exposure configuration
	SetAutoExposure(cfg AutoExposureConfig)

	// LoadSettingsFile stages settings parsed from a YAML file. Values the
	// file omits keep their current draft values.
	//
	// Parameters:
	//   - path: path to the YAML settings file
	//
	// Returns:
	//   - error: error if the file cannot be read or parsed
	LoadSettingsFile(path string) error

	// RegisterRenderGraph binds a draw callback to a view key. The
	// callback records the view's geometry during FrameGraphRender.
	//
	// Parameters:
	//   - key: the view key to bind to
	//   - callback: the draw callback, nil to unbind
	RegisterRenderGraph(key view.Key, callback RenderGraphCallback)

	// Plans returns the render plans built for the current frame, in the
	// frame's view order.
	//
	// Returns:
	//   - []view.RenderPlan: the current frame's plans
	Plans() []view.RenderPlan

	// Shutdown retires every remaining view so its targets flow through the
	// deferred reclaimer. Call once after the engine has stopped.
	//
	// Parameters:
	//   - gfx: the graphics backend that owns the view targets
	Shutdown(gfx graphics.Graphics)
}

type forwardPipeline struct {
	mu *sync.Mutex

	settings  *settingsState
	lifecycle *viewLifecycle

	graphs map[view.Key]RenderGraphCallback

	// seedStates registers the pass pipeline states with the backend once.
	seedStates sync.Once

	// plans is rebuilt each PreRender in view order.
	plans []view.RenderPlan
}

var _ ForwardPipeline = &forwardPipeline{}

// NewForwardPipeline creates the forward pipeline module with default
// settings.
//
// Parameters:
//   - options: optional builder options applied in order
//
// Returns:
//   - ForwardPipeline: the newly created pipeline
func NewForwardPipeline(options ...ForwardPipelineBuilderOption) ForwardPipeline {
	p := &forwardPipeline{
		mu:        &sync.Mutex{},
		settings:  newSettingsState(),
		lifecycle: newViewLifecycle(),
		graphs:    make(map[view.Key]RenderGraphCallback),
	}
	for _, option := range options {
		option(p)
	}
	return p
}

func (p *forwardPipeline) Name() string {
	return ModuleName
}

func (p *forwardPipeline) PhaseBindings() []engine.PhaseBinding {
	return []engine.PhaseBinding{
		{Phase: phase.FrameStart, Callback: p.onFrameStart},
		{Phase: phase.PublishViews, Callback: p.onPublishViews},
		{Phase: phase.PreRender, Callback: p.onPreRender},
		{Phase: phase.FrameGraphRender, Callback: p.onFrameGraphRender},
		{Phase: phase.Compositing, Callback: p.onCompositing},
		{Phase: phase.FrameEnd, Callback: p.onFrameEnd},
	}
}

func (p *forwardPipeline) Settings() Settings {
	return p.settings.snapshot()
}

func (p *forwardPipeline) SetRenderMode(mode view.RenderMode) {
	p.settings.mutate(func(s *Settings) { s.RenderMode = mode })
}

func (p *forwardPipeline) SetWireframeOverlay(enabled bool) {
	p.settings.mutate(func(s *Settings) { s.WireframeOverlay = enabled })
}

func (p *forwardPipeline) SetToneMapper(mapper view.ToneMapper) {
	p.settings.mutate(func(s *Settings) { s.ToneMap.Mapper = mapper })
}

func (p *forwardPipeline) SetExposureMode(mode view.ExposureMode) {
	p.settings.mutate(func(s *Settings) { s.ToneMap.ExposureMode = mode })
}

func (p *forwardPipeline) SetExposureValue(value float32) {
	p.settings.mutate(func(s *Settings) { s.ToneMap.ExposureValue = value })
}

func (p *forwardPipeline) SetGamma(gamma float32) {
	p.settings.mutate(func(s *Settings) { s.ToneMap.Gamma = gamma })
}

func (p *forwardPipeline) SetShaderDebugMode(mode ShaderDebugMode) {
	p.settings.mutate(func(s *Settings) { s.ShaderDebugMode = mode })
}

func (p *forwardPipeline) SetLightCullDebugMode(mode LightCullDebugMode) {
	p.settings.mutate(func(s *Settings) { s.LightCullDebugMode = mode })
}

func (p *forwardPipeline) SetClusterDepthSlices(slices uint32) {
	p.settings.mutate(func(s *Settings) { s.ClusterDepthSlices = slices })
}

func (p *forwardPipeline) SetGPUDebugPass(enabled bool) {
	p.settings.mutate(func(s *Settings) { s.GPUDebugPass = enabled })
}

func (p *forwardPipeline) SetGroundGrid(grid GroundGridConfig) {
	p.settings.mutate(func(s *Settings) { s.GroundGrid = grid })
}

func (p *forwardPipeline) SetAutoExposure(cfg AutoExposureConfig) {
	p.settings.mutate(func(s *Settings) { s.AutoExposure = cfg })
}

func (p *forwardPipeline) RegisterRenderGraph(key view.Key, callback RenderGraphCallback) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if callback == nil {
		delete(p.graphs, key)
		return
	}
	p.graphs[key] = callback
}

func (p *forwardPipeline) Shutdown(gfx graphics.Graphics) {
	if gfx == nil {
		return
	}
	p.lifecycle.retireAll()
	p.lifecycle.retireStale(gfx)
}

func (p *forwardPipeline) Plans() []view.RenderPlan {
	p.mu.Lock()
	defer p.mu.Unlock()
	plans := make([]view.RenderPlan, len(p.plans))
	copy(plans, p.plans)
	return plans
}

func (p *forwardPipeline) renderGraph(key view.Key) RenderGraphCallback {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.graphs[key]
}

// onFrameStart commits the draft settings for the frame.
func (p *forwardPipeline) onFrameStart(_ context.Context, _ frame.Context) error {
	p.settings.apply()
	return nil
}

// onPublishViews reconciles the frame's view list against GPU resources and
// assigns stable ids to newly active views.
func (p *forwardPipeline) onPublishViews(_ context.Context, fc frame.Context) error {
	gfx, ok := fc.Graphics().Get()
	if !ok {
		return errors.New("pipeline: graphics device lost")
	}
	if err := p.lifecycle.sync(fc, gfx); err != nil {
		return err
	}
	p.lifecycle.publish(fc)
	return nil
}

// onPreRender resolves cameras and builds every view's render plan for the
// frame.
func (p *forwardPipeline) onPreRender(_ context.Context, fc frame.Context) error {
	settings := p.settings.snapshot()
	s := fc.Scene()
	p.lifecycle.rebuildCameras(s)

	var env scene.Environment
	if s != nil {
		env = s.Environment()
	}
	hasComposite := fc.CompositeTarget() != nil

	views := fc.Views()
	plans := make([]view.RenderPlan, 0, len(views))
	for _, desc := range views {
		plan := BuildViewPlan(settings, desc, env, hasComposite)
		if av := p.lifecycle.lookup(desc.Key); av != nil {
			av.plan = plan
		}
		plans = append(plans, plan)
	}

	p.mu.Lock()
	p.plans = plans
	p.mu.Unlock()
	return nil
}

// onFrameGraphRender records every view's command lists through the
// Commander and flushes the deferred backlog once, producing at most one
// submission per queue.
func (p *forwardPipeline) onFrameGraphRender(_ context.Context, fc frame.Context) error {
	gfx, ok := fc.Graphics().Get()
	if !ok {
		return errors.New("pipeline: graphics device lost")
	}
	commander := gfx.Commander()
	settings := p.settings.snapshot()
	p.seedStates.Do(func() { registerPassStates(gfx.PipelineStates()) })

	rf := &renderFrame{
		pipeline:  p,
		fc:        fc,
		gfx:       gfx,
		commander: commander,
		settings:  settings,
		states:    gfx.PipelineStates(),
	}
	defer rf.closeCompute()

	var errs []error
	for _, desc := range fc.Views() {
		if err := rf.recordView(desc); err != nil {
			errs = append(errs, fmt.Errorf("pipeline: recording view %q: %w", desc.Key, err))
		}
	}
	if settings.GPUDebugPass {
		rf.recordGPUDebug()
	}
	rf.closeCompute()

	if err := commander.SubmitDeferredCommandLists(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// onCompositing copies every composited view's SDR output into the
// backbuffer in band order and flushes the composite work.
func (p *forwardPipeline) onCompositing(_ context.Context, fc frame.Context) error {
	gfx, ok := fc.Graphics().Get()
	if !ok {
		return errors.New("pipeline: graphics device lost")
	}
	submission := BuildComposition(fc.Views(), p.lifecycle.lookup)
	return recordComposition(gfx.Commander(), gfx.Queue(graphics.QueueRoleGraphics), fc.CompositeTarget(), submission)
}

// onFrameEnd restores any tone map override and retires stale views.
func (p *forwardPipeline) onFrameEnd(_ context.Context, fc frame.Context) error {
	p.settings.restore()
	if gfx, ok := fc.Graphics().Get(); ok {
		p.lifecycle.retireStale(gfx)
	}
	return nil
}

// renderFrame carries the per-frame recording state shared across views: a
// lazily opened compute recorder and the committed settings.
type renderFrame struct {
	pipeline  *forwardPipeline
	fc        frame.Context
	gfx       graphics.Graphics
	commander graphics.Commander
	settings  Settings
	states    *graphics.PipelineStateRegistry

	computeRec   graphics.CommandRecorder
	computeScope *graphics.SubmissionScope
}

// bindPipeline binds the registered state for a pass key, if any.
func (rf *renderFrame) bindPipeline(rec graphics.CommandRecorder, key string) {
	if state := rf.states.Lookup(key); state != nil {
		rec.SetPipeline(state)
	}
}

// compute lazily opens the frame's shared compute recorder.
func (rf *renderFrame) compute() (graphics.CommandRecorder, error) {
	if rf.computeRec != nil {
		return rf.computeRec, nil
	}
	rec, scope, err := rf.commander.AcquireCommandRecorder(rf.gfx.Queue(graphics.QueueRoleCompute), "compute", false)
	if err != nil {
		return nil, err
	}
	rf.computeRec = rec
	rf.computeScope = scope
	return rec, nil
}

func (rf *renderFrame) closeCompute() {
	if rf.computeScope != nil {
		rf.computeScope.Close()
		rf.computeScope = nil
		rf.computeRec = nil
	}
}

func (rf *renderFrame) recordGPUDebug() {
	rec, err := rf.compute()
	if err != nil {
		return
	}
	rf.bindPipeline(rec, "gpu-debug")
	rec.Dispatch("gpu-debug", 1, 1, 1)
}

// recordView records one view's pass sequence per its plan.
func (rf *renderFrame) recordView(desc view.CompositionView) error {
	av := rf.pipeline.lifecycle.lookup(desc.Key)
	if av == nil || av.target == nil {
		return nil
	}
	plan := av.plan
	if !plan.RunSceneLinearPath && !plan.RunCompositePath {
		return nil
	}

	rec, scope, err := rf.commander.AcquireCommandRecorder(
		rf.gfx.Queue(graphics.QueueRoleGraphics), "view:"+string(desc.Key), false)
	if err != nil {
		return err
	}
	defer scope.Close()

	rc := &RenderContext{
		Frame:     rf.fc,
		View:      desc,
		Plan:      plan,
		Target:    av.target,
		Camera:    av.cam,
		Scene:     rf.fc.Scene(),
		LightCull: BuildLightCullConfig(rf.settings, av.target.Width, av.target.Height, av.cam),
	}

	if plan.RunSceneLinearPath {
		rec.Transition(av.target.HDR, graphics.ResourceStateRenderTarget)
		rec.Transition(av.target.Depth, graphics.ResourceStateDepthWrite)
	}

	var errs []error
	hdrPending := plan.ClearHDR
	sdrPending := plan.ClearSDR
	for _, pass := range plan.Passes {
		if err := rf.recordPass(rec, rc, pass, &hdrPending, &sdrPending); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", pass, err))
		}
	}

	// Tools views with no passes may still owe an SDR clear.
	if sdrPending {
		if err := rf.clearSDR(rec, rc); err != nil {
			errs = append(errs, err)
		}
	}

	if plan.RunCompositePath {
		rec.Transition(av.target.SDR, graphics.ResourceStateShaderResource)
	}
	return errors.Join(errs...)
}

// recordPass records one plan pass. hdrPending and sdrPending track whether
// the next pass touching that target must clear it.
func (rf *renderFrame) recordPass(rec graphics.CommandRecorder, rc *RenderContext, pass view.Pass, hdrPending, sdrPending *bool) error {
	target := rc.Target
	switch pass {
	case view.PassDepthPrePass:
		if err := rec.BeginRenderPass(graphics.RenderPassDesc{
			Label: "depth-pre",
			Depth: &graphics.DepthAttachmentDesc{
				Target: target.Depth,
				Clear:  rc.Plan.ClearDepth,
				Write:  true,
			},
		}); err != nil {
			return err
		}
		rf.bindPipeline(rec, "depth-pre")
		rec.SetViewport(fullViewport(target))
		rec.EndRenderPass()

	case view.PassSky:
		return rf.hdrPass(rec, rc, "sky", hdrPending, false, nil)

	case view.PassLightCulling:
		compute, err := rf.compute()
		if err != nil {
			return err
		}
		cfg := rc.LightCull
		rf.bindPipeline(compute, "light-cull")
		compute.Dispatch(
			fmt.Sprintf("light-cull:view-%d:%s", rc.Plan.PublishedViewId, cfg.DebugMode),
			cfg.TileCountX, cfg.TileCountY, cfg.ClusterDepthSlices)

	case view.PassOpaque:
		return rf.hdrPass(rec, rc, "opaque", hdrPending, false, rf.pipeline.renderGraph(rc.View.Key))

	case view.PassTransparent:
		return rf.hdrPass(rec, rc, "transparent", hdrPending, false, nil)

	case view.PassGroundGrid:
		return rf.hdrPass(rec, rc, "ground-grid", hdrPending, false, nil)

	case view.PassAutoExposure:
		compute, err := rf.compute()
		if err != nil {
			return err
		}
		rf.bindPipeline(compute, "auto-exposure")
		compute.Dispatch(fmt.Sprintf("auto-exposure:view-%d", rc.Plan.PublishedViewId), 1, 1, 1)

	case view.PassToneMap:
		rec.Transition(target.HDR, graphics.ResourceStateShaderResource)
		rec.Transition(target.SDR, graphics.ResourceStateRenderTarget)
		policy := rc.Plan.ToneMapPolicy
		if err := rec.BeginRenderPass(graphics.RenderPassDesc{
			Label: "tone-map",
			Color: graphics.ColorAttachmentDesc{Target: target.SDR},
		}); err != nil {
			return err
		}
		rf.bindPipeline(rec, "tone-map")
		rec.DebugMarker(fmt.Sprintf("tone-map:%s exposure=%s/%g", policy.Mapper, policy.ExposureMode, policy.ManualExposure))
		rec.EndRenderPass()
		*sdrPending = false

	case view.PassWireframe:
		return rf.hdrPass(rec, rc, "wireframe", hdrPending, true, rf.pipeline.renderGraph(rc.View.Key))

	case view.PassOverlayWireframe:
		if err := rec.BeginRenderPass(graphics.RenderPassDesc{
			Label: "overlay-wireframe",
			Color: graphics.ColorAttachmentDesc{Target: target.SDR},
		}); err != nil {
			return err
		}
		rf.bindPipeline(rec, "overlay-wireframe")
		rec.EndRenderPass()

	case view.PassOverlay:
		if err := rec.BeginRenderPass(graphics.RenderPassDesc{
			Label: "overlay",
			Color: graphics.ColorAttachmentDesc{
				Target:     target.SDR,
				Clear:      *sdrPending,
				ClearColor: common.DefaultClearColor,
			},
		}); err != nil {
			return err
		}
		*sdrPending = false
		rf.bindPipeline(rec, "overlay")
		if rc.View.OnOverlay != nil {
			rc.View.OnOverlay(rc.View.Viewport)
		}
		rec.EndRenderPass()
	}
	return nil
}

// hdrPass opens a render pass on the view's HDR target, consuming the
// pending HDR clear on first use, and runs the optional draw callback.
func (rf *renderFrame) hdrPass(rec graphics.CommandRecorder, rc *RenderContext, label string, hdrPending *bool, depthWrite bool, callback RenderGraphCallback) error {
	target := rc.Target
	desc := graphics.RenderPassDesc{
		Label: label,
		Color: graphics.ColorAttachmentDesc{
			Target:     target.HDR,
			Clear:      *hdrPending,
			ClearColor: common.DefaultClearColor,
		},
		Depth: &graphics.DepthAttachmentDesc{
			Target: target.Depth,
			Clear:  depthWrite && rc.Plan.ClearDepth,
			Write:  depthWrite,
		},
	}
	if err := rec.BeginRenderPass(desc); err != nil {
		return err
	}
	*hdrPending = false
	rf.bindPipeline(rec, label)
	rec.SetViewport(fullViewport(target))

	var err error
	if callback != nil {
		err = callback(rc, rec)
	}
	rec.EndRenderPass()
	return err
}

// clearSDR records a standalone clear for views whose plan owes an SDR
// clear but ran no SDR pass.
func (rf *renderFrame) clearSDR(rec graphics.CommandRecorder, rc *RenderContext) error {
	if err := rec.BeginRenderPass(graphics.RenderPassDesc{
		Label: "clear-sdr",
		Color: graphics.ColorAttachmentDesc{
			Target:     rc.Target.SDR,
			Clear:      true,
			ClearColor: common.DefaultClearColor,
		},
	}); err != nil {
		return err
	}
	rec.EndRenderPass()
	return nil
}

func fullViewport(target *graphics.ViewTarget) common.Viewport {
	return common.Viewport{
		Width:    float32(target.Width),
		Height:   float32(target.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
}
