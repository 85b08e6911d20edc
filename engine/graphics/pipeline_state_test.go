package graphics

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPipelineState_Defaults(t *testing.T) {
	s := NewPipelineState("opaque", PipelineKindRender)

	assert.Equal(t, "opaque", s.Key())
	assert.Equal(t, PipelineKindRender, s.Kind())
	assert.True(t, s.DepthTestEnabled())
	assert.True(t, s.DepthWriteEnabled())
	assert.False(t, s.BlendEnabled())
	assert.Nil(t, s.BlendState(), "blend state is hidden while blending is off")
	assert.Equal(t, wgpu.CullModeNone, s.CullMode())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, s.Topology())
	assert.Nil(t, s.Native())
}

func TestNewPipelineState_Options(t *testing.T) {
	s := NewPipelineState("transparent", PipelineKindRender,
		WithDepthWrite(false),
		WithBlending(true),
		WithCullMode(wgpu.CullModeBack),
		WithTopology(wgpu.PrimitiveTopologyLineList))

	assert.False(t, s.DepthWriteEnabled())
	assert.True(t, s.BlendEnabled())
	require.NotNil(t, s.BlendState())
	assert.Equal(t, wgpu.BlendFactorSrcAlpha, s.BlendState().Color.SrcFactor)
	assert.Equal(t, wgpu.CullModeBack, s.CullMode())
	assert.Equal(t, wgpu.PrimitiveTopologyLineList, s.Topology())
}

func TestPipelineStateRegistry_RegisterKeepsExisting(t *testing.T) {
	reg := NewPipelineStateRegistry()

	first := NewPipelineState("opaque", PipelineKindRender)
	first.SetNative("compiled")

	got := reg.Register(first)
	assert.Equal(t, first, got)

	// Re-registering the key returns the original so compiled backends
	// are not dropped.
	replacement := NewPipelineState("opaque", PipelineKindRender, WithBlending(true))
	got = reg.Register(replacement)
	assert.Equal(t, first, got)
	assert.Equal(t, "compiled", reg.Lookup("opaque").Native())
}

func TestPipelineStateRegistry_LookupRemove(t *testing.T) {
	reg := NewPipelineStateRegistry()
	assert.Nil(t, reg.Lookup("missing"))

	reg.Register(NewPipelineState("a", PipelineKindRender))
	reg.Register(NewPipelineState("b", PipelineKindCompute))
	assert.Len(t, reg.Keys(), 2)

	reg.Remove("a")
	assert.Nil(t, reg.Lookup("a"))
	assert.NotNil(t, reg.Lookup("b"))
}

func TestPipelineStateRegistry_RegisterNilPanics(t *testing.T) {
	reg := NewPipelineStateRegistry()
	assert.Panics(t, func() { reg.Register(nil) })
}
