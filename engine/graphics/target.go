package graphics

import (
	"sync/atomic"
)

// ResourceState names the GPU access state a texture must be in for a pass
// boundary. Recorders insert transitions between states; backends that do
// not track explicit states (such as WebGPU) record them as barriers or
// debug annotations only.
type ResourceState int

const (
	// ResourceStateRenderTarget allows color attachment writes.
	ResourceStateRenderTarget ResourceState = iota

	// ResourceStateShaderResource allows sampled reads from shaders.
	ResourceStateShaderResource

	// ResourceStateDepthWrite allows depth attachment writes.
	ResourceStateDepthWrite

	// ResourceStatePresent allows handing the texture to the display.
	ResourceStatePresent
)

// String returns the state's display name.
func (s ResourceState) String() string {
	switch s {
	case ResourceStateShaderResource:
		return "ShaderResource"
	case ResourceStateDepthWrite:
		return "DepthWrite"
	case ResourceStatePresent:
		return "Present"
	default:
		return "RenderTarget"
	}
}

// Texture is an opaque handle to one GPU texture owned by the backend.
type Texture interface {
	// Label returns the texture's debug label.
	Label() string

	// Size returns the texture's dimensions in pixels.
	//
	// Returns:
	//   - width, height: dimensions in pixels
	Size() (width, height uint32)

	// Native returns the backend texture object, or nil for headless
	// textures.
	Native() any
}

// Framebuffer is a color target that composite work can write into: either
// a view's SDR output or the surface backbuffer.
type Framebuffer interface {
	// Label returns the framebuffer's debug label.
	Label() string

	// Size returns the framebuffer's dimensions in pixels.
	//
	// Returns:
	//   - width, height: dimensions in pixels
	Size() (width, height uint32)

	// ColorTexture returns the framebuffer's color texture.
	ColorTexture() Texture
}

// Surface is a presentable output owned by the backend, typically backed by
// a window swapchain. Headless surfaces satisfy the same contract without a
// display.
type Surface interface {
	// Label returns the surface's debug label.
	Label() string

	// Size returns the surface's dimensions in pixels.
	//
	// Returns:
	//   - width, height: dimensions in pixels
	Size() (width, height uint32)

	// Acquire obtains the backbuffer framebuffer for the current frame.
	//
	// Returns:
	//   - Framebuffer: the backbuffer to composite into
	//   - error: error if the backbuffer could not be acquired
	Acquire() (Framebuffer, error)

	// Present hands the acquired backbuffer to the display. No-op if
	// nothing was acquired this frame.
	Present()
}

// ViewTarget bundles the per-view render textures: the scene-linear HDR
// target, the tone-mapped SDR output, and the depth buffer. Targets are
// allocated by the view lifecycle service and released through the deferred
// reclaimer so the GPU never loses a texture it is still reading.
type ViewTarget struct {
	// Label identifies the owning view in diagnostics.
	Label string

	// Width and Height are the target dimensions in pixels.
	Width, Height uint32

	// HDR is the scene-linear color target.
	HDR Texture

	// SDR is the tone-mapped output the compositor reads.
	SDR Texture

	// Depth is the depth buffer shared by the scene-linear passes.
	Depth Texture

	released atomic.Bool
}

// Released reports whether the target's textures have been scheduled for
// release.
//
// Returns:
//   - bool: true once ReleaseViewTarget has been called
func (t *ViewTarget) Released() bool {
	return t.released.Load()
}

// markReleased flips the released flag; returns false if already released.
func (t *ViewTarget) markReleased() bool {
	return t.released.CompareAndSwap(false, true)
}

// SDRFramebuffer returns the SDR output wrapped as a composite source.
//
// Returns:
//   - Framebuffer: the SDR framebuffer
func (t *ViewTarget) SDRFramebuffer() Framebuffer {
	return &textureFramebuffer{label: t.Label + "/sdr", tex: t.SDR}
}

// textureFramebuffer adapts a bare texture to the Framebuffer interface.
type textureFramebuffer struct {
	label string
	tex   Texture
}

var _ Framebuffer = &textureFramebuffer{}

func (f *textureFramebuffer) Label() string {
	return f.label
}

func (f *textureFramebuffer) Size() (uint32, uint32) {
	return f.tex.Size()
}

func (f *textureFramebuffer) ColorTexture() Texture {
	return f.tex
}
