package graphics

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// HeadlessBuilderOption is a functional option for configuring a headless
// Graphics backend. Use the With* functions to create options.
type HeadlessBuilderOption func(g *headlessGraphics)

// WithHeadlessSurface attaches a display-less surface so the compositor has
// a backbuffer to write into.
//
// Parameters:
//   - width, height: backbuffer dimensions in pixels
//
// Returns:
//   - HeadlessBuilderOption: option function to apply
func WithHeadlessSurface(width, height uint32) HeadlessBuilderOption {
	return func(g *headlessGraphics) {
		g.surface = NewHeadlessSurface("headless", width, height)
	}
}

// WithNamedQueue registers an additional queue under a lookup key. The
// queue is also reachable through QueueByKey, letting modules target
// auxiliary queues without caring about roles.
//
// Parameters:
//   - key: the registration key
//   - queue: the queue to register
//
// Returns:
//   - HeadlessBuilderOption: option function to apply
func WithNamedQueue(key string, queue CommandQueue) HeadlessBuilderOption {
	return func(g *headlessGraphics) {
		g.byKey[key] = queue
	}
}

// WGPUBuilderOption is a functional option for configuring the WebGPU
// Graphics backend. Use the With* functions to create options.
type WGPUBuilderOption func(g *wgpuGraphics)

// WithPresentMode sets the surface present mode which controls how frames
// are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use
//
// Returns:
//   - WGPUBuilderOption: option function to apply
func WithPresentMode(mode PresentMode) WGPUBuilderOption {
	return func(g *wgpuGraphics) {
		switch mode {
		case PresentModeVSync:
			g.presentMode = wgpu.PresentModeFifo
		default:
			g.presentMode = wgpu.PresentModeImmediate
		}
	}
}

// WithMSAASampleCount sets the multisample anti-aliasing sample count for
// the surface backbuffer.
//
// Parameters:
//   - count: the MSAA sample count (1, 4, or 8)
//
// Returns:
//   - WGPUBuilderOption: option function to apply
func WithMSAASampleCount(count MSAASampleCount) WGPUBuilderOption {
	return func(g *wgpuGraphics) {
		g.sampleCount = count
	}
}

// WithForceFallbackAdapter forces the software rasterizer adapter, useful
// on machines without a compatible GPU.
//
// Parameters:
//   - force: true to force the fallback adapter
//
// Returns:
//   - WGPUBuilderOption: option function to apply
func WithForceFallbackAdapter(force bool) WGPUBuilderOption {
	return func(g *wgpuGraphics) {
		g.forceFallbackAdapter = force
	}
}
