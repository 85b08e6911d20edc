package graphics

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineStateBuilderOption is a functional option for configuring a
// pipeline state. Use the With* functions to create options.
type PipelineStateBuilderOption func(*pipelineState)

// WithDepthTest enables or disables depth testing.
//
// Parameters:
//   - enabled: if true, fragments depth-test against the depth buffer
//
// Returns:
//   - PipelineStateBuilderOption: option function to apply
func WithDepthTest(enabled bool) PipelineStateBuilderOption {
	return func(s *pipelineState) {
		s.depthTestEnabled = enabled
	}
}

// WithDepthWrite enables or disables depth writes.
//
// Parameters:
//   - enabled: if true, passing fragments write their depth
//
// Returns:
//   - PipelineStateBuilderOption: option function to apply
func WithDepthWrite(enabled bool) PipelineStateBuilderOption {
	return func(s *pipelineState) {
		s.depthWriteEnabled = enabled
	}
}

// WithBlending enables or disables alpha blending.
//
// Parameters:
//   - enabled: if true, the state's blend configuration applies
//
// Returns:
//   - PipelineStateBuilderOption: option function to apply
func WithBlending(enabled bool) PipelineStateBuilderOption {
	return func(s *pipelineState) {
		s.blendEnabled = enabled
	}
}

// WithCullMode sets the triangle cull mode.
//
// Parameters:
//   - mode: the cull mode (e.g., wgpu.CullModeBack)
//
// Returns:
//   - PipelineStateBuilderOption: option function to apply
func WithCullMode(mode wgpu.CullMode) PipelineStateBuilderOption {
	return func(s *pipelineState) {
		s.cullMode = mode
	}
}

// WithTopology sets the primitive topology.
//
// Parameters:
//   - topology: the topology (e.g., wgpu.PrimitiveTopologyLineList)
//
// Returns:
//   - PipelineStateBuilderOption: option function to apply
func WithTopology(topology wgpu.PrimitiveTopology) PipelineStateBuilderOption {
	return func(s *pipelineState) {
		s.topology = topology
	}
}

// WithBlendState overrides the blend configuration used when blending is
// enabled.
//
// Parameters:
//   - blend: the blend state
//
// Returns:
//   - PipelineStateBuilderOption: option function to apply
func WithBlendState(blend *wgpu.BlendState) PipelineStateBuilderOption {
	return func(s *pipelineState) {
		s.blendState = blend
	}
}
