// package graphics is the command submission core: command queues with
// fence semantics, command lists with at-most-once lifecycle callbacks,
// scoped command recorders, the Commander that batches deferred submissions
// per queue, and the deferred reclaimer that holds resource releases until
// their frame's GPU work retires. Two backends satisfy the Graphics
// interface: a synchronous headless backend for tests and GPU-less runs,
// and a WebGPU backend driving a real device.
package graphics

import (
	"sync/atomic"
)

// Graphics is the backend handle the engine and pipeline consume. It owns
// the Commander, the per-role command queues, the deferred reclaimer, and
// the per-view render target storage.
type Graphics interface {
	// Commander returns the backend's command submission mediator.
	Commander() Commander

	// Queue returns the command queue for the given role.
	//
	// Parameters:
	//   - role: the queue role
	//
	// Returns:
	//   - CommandQueue: the queue serving the role
	Queue(role QueueRole) CommandQueue

	// QueueByKey returns a named command queue, or nil if the key is
	// unknown. Keys let modules target auxiliary queues without caring
	// about roles.
	//
	// Parameters:
	//   - key: the queue's registration key
	//
	// Returns:
	//   - CommandQueue: the queue or nil
	QueueByKey(key string) CommandQueue

	// Queues returns every queue the backend exposes, one per role.
	//
	// Returns:
	//   - []CommandQueue: the backend's queues
	Queues() []CommandQueue

	// Reclaimer returns the backend's deferred reclaimer.
	Reclaimer() DeferredReclaimer

	// PipelineStates returns the backend's pipeline state registry.
	PipelineStates() *PipelineStateRegistry

	// BeginFrame rotates the Commander and reclaimer onto a new frame.
	//
	// Parameters:
	//   - slot: the in-flight ring slot owning this frame
	//   - frameIndex: the monotonic frame counter
	BeginFrame(slot int, frameIndex uint64)

	// CreateViewTarget allocates the HDR, SDR, and depth textures for one
	// view.
	//
	// Parameters:
	//   - label: debug label identifying the view
	//   - width, height: target dimensions in pixels
	//
	// Returns:
	//   - *ViewTarget: the allocated target bundle
	//   - error: error if allocation fails
	CreateViewTarget(label string, width, height uint32) (*ViewTarget, error)

	// ReleaseViewTarget schedules the target's textures for destruction
	// through the deferred reclaimer. Safe to call once per target;
	// repeated calls are no-ops.
	//
	// Parameters:
	//   - target: the target to release
	ReleaseViewTarget(target *ViewTarget)

	// Surface returns the presentable surface, or nil for backends
	// without one.
	Surface() Surface

	// Flush submits any deferred command lists and blocks until every
	// queue has completed its signaled work.
	//
	// Returns:
	//   - error: the aggregate submission error, if any
	Flush() error

	// Release tears the backend down. The handle returned by Handle
	// reports the backend as lost afterwards.
	Release()

	// Handle returns the weak-style handle the frame context stores.
	Handle() *Handle
}

// Handle is the frame context's non-owning reference to a Graphics backend.
// The engine checks it each frame: once the backend releases, Get reports
// loss and the engine transitions to Stopping.
type Handle struct {
	gfx  Graphics
	lost atomic.Bool
}

// NewHandle creates a live handle for the given backend.
//
// Parameters:
//   - gfx: the backend the handle tracks
//
// Returns:
//   - *Handle: the newly created handle
func NewHandle(gfx Graphics) *Handle {
	return &Handle{gfx: gfx}
}

// Get returns the backend if it is still alive.
//
// Returns:
//   - Graphics: the backend, or nil if lost
//   - bool: true if the backend is still alive
func (h *Handle) Get() (Graphics, bool) {
	if h == nil || h.lost.Load() {
		return nil, false
	}
	return h.gfx, true
}

// Invalidate marks the backend as lost. Called by the backend's Release.
func (h *Handle) Invalidate() {
	if h != nil {
		h.lost.Store(true)
	}
}
