package pipeline

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxygen/engine/graphics"
)

// registerPassStates seeds the backend's pipeline state registry with the
// fixed-function configuration of every pass the planner can emit. Register
// keeps existing entries, so states survive re-registration across frames
// and backend-compiled pipelines are never dropped.
func registerPassStates(reg *graphics.PipelineStateRegistry) {
	reg.Register(graphics.NewPipelineState("depth-pre", graphics.PipelineKindRender))
	reg.Register(graphics.NewPipelineState("sky", graphics.PipelineKindRender,
		graphics.WithDepthWrite(false)))
	reg.Register(graphics.NewPipelineState("opaque", graphics.PipelineKindRender,
		graphics.WithDepthWrite(false),
		graphics.WithCullMode(wgpu.CullModeBack)))
	reg.Register(graphics.NewPipelineState("transparent", graphics.PipelineKindRender,
		graphics.WithDepthWrite(false),
		graphics.WithBlending(true)))
	reg.Register(graphics.NewPipelineState("ground-grid", graphics.PipelineKindRender,
		graphics.WithDepthWrite(false),
		graphics.WithBlending(true)))
	reg.Register(graphics.NewPipelineState("tone-map", graphics.PipelineKindRender,
		graphics.WithDepthTest(false),
		graphics.WithDepthWrite(false)))
	reg.Register(graphics.NewPipelineState("wireframe", graphics.PipelineKindRender,
		graphics.WithTopology(wgpu.PrimitiveTopologyLineList)))
	reg.Register(graphics.NewPipelineState("overlay-wireframe", graphics.PipelineKindRender,
		graphics.WithDepthTest(false),
		graphics.WithDepthWrite(false),
		graphics.WithTopology(wgpu.PrimitiveTopologyLineList)))
	reg.Register(graphics.NewPipelineState("overlay", graphics.PipelineKindRender,
		graphics.WithDepthTest(false),
		graphics.WithDepthWrite(false),
		graphics.WithBlending(true)))
	reg.Register(graphics.NewPipelineState("light-cull", graphics.PipelineKindCompute))
	reg.Register(graphics.NewPipelineState("auto-exposure", graphics.PipelineKindCompute))
	reg.Register(graphics.NewPipelineState("gpu-debug", graphics.PipelineKindCompute))
}
