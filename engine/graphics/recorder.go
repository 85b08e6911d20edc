package graphics

import (
	"fmt"

	"github.com/Carmen-Shannon/oxygen/common"
)

// ColorAttachmentDesc configures the color target of a render pass.
type ColorAttachmentDesc struct {
	// Target is the color texture to render into.
	Target Texture

	// Clear requests a clear before the pass; otherwise contents load.
	Clear bool

	// ClearColor is the clear value when Clear is set.
	ClearColor common.Color
}

// DepthAttachmentDesc configures the depth target of a render pass.
type DepthAttachmentDesc struct {
	// Target is the depth texture bound to the pass.
	Target Texture

	// Clear requests a depth clear before the pass.
	Clear bool

	// Write enables depth writes during the pass.
	Write bool
}

// RenderPassDesc describes one render pass begun on a recorder.
type RenderPassDesc struct {
	// Label names the pass in debug captures and diagnostics.
	Label string

	// Color is the pass's color attachment. Target may be nil for
	// depth-only passes.
	Color ColorAttachmentDesc

	// Depth is the pass's depth attachment, or nil for passes without
	// depth.
	Depth *DepthAttachmentDesc
}

// CommandRecorder records commands into one command list bound to one
// target queue. Recorders are single-threaded: one owner records, then
// End hands the finished list back for submission. The immediate/deferred
// submission decision is made by the SubmissionScope the Commander issued
// alongside the recorder, not by the recorder itself.
type CommandRecorder interface {
	// Label returns the recorder's debug label.
	Label() string

	// Queue returns the target queue this recorder's list will submit to.
	Queue() CommandQueue

	// List returns the command list being recorded, or nil after End.
	List() CommandList

	// Begin opens the list for recording.
	//
	// Returns:
	//   - error: error if the list cannot begin recording
	Begin() error

	// End finishes recording and returns the recorded list. The recorder
	// is spent afterwards; further recording calls fail. Returns a nil
	// list without error when nothing was recorded, which submission
	// treats as no-work.
	//
	// Returns:
	//   - CommandList: the recorded list, or nil if the recorder was empty
	//   - error: error if finishing the backend recording failed
	End() (CommandList, error)

	// BeginRenderPass opens a render pass on the list.
	//
	// Parameters:
	//   - desc: the pass description
	//
	// Returns:
	//   - error: error if a pass is already open or recording has ended
	BeginRenderPass(desc RenderPassDesc) error

	// EndRenderPass closes the currently open render pass.
	EndRenderPass()

	// SetPipeline binds a pipeline state for subsequent draws in the
	// current render pass. Nil states are ignored.
	//
	// Parameters:
	//   - state: the pipeline state to bind
	SetPipeline(state PipelineState)

	// SetViewport restricts rendering to the given viewport within the
	// current render pass.
	//
	// Parameters:
	//   - viewport: the viewport rectangle and depth range
	SetViewport(viewport common.Viewport)

	// Transition records a resource state transition at a pass boundary.
	//
	// Parameters:
	//   - texture: the texture changing state
	//   - state: the state required by the next pass
	Transition(texture Texture, state ResourceState)

	// Dispatch records a compute dispatch.
	//
	// Parameters:
	//   - label: debug label for the dispatch
	//   - x, y, z: workgroup counts
	Dispatch(label string, x, y, z uint32)

	// Blit records a copy of a source framebuffer into a destination
	// region of another framebuffer. Used by the compositor.
	//
	// Parameters:
	//   - src: the source framebuffer (a view's SDR output)
	//   - dst: the destination framebuffer (the backbuffer)
	//   - region: the destination rectangle
	Blit(src, dst Framebuffer, region common.Region)

	// DebugMarker records a free-form debug annotation.
	//
	// Parameters:
	//   - marker: the annotation text
	DebugMarker(marker string)
}

// headlessRecorder records command descriptions onto the list's debug
// marker log. It backs tests and GPU-less runs; the recorded "work" is the
// marker sequence itself.
type headlessRecorder struct {
	label string
	queue CommandQueue
	list  CommandList

	passOpen bool
	recorded int
	ended    bool
}

var _ CommandRecorder = &headlessRecorder{}

// NewHeadlessRecorder creates a recorder that logs commands as debug
// markers on the given list.
//
// Parameters:
//   - queue: the target queue
//   - list: the command list to record into
//   - label: debug label for the recorder
//
// Returns:
//   - CommandRecorder: the newly created recorder
func NewHeadlessRecorder(queue CommandQueue, list CommandList, label string) CommandRecorder {
	return &headlessRecorder{
		label: label,
		queue: queue,
		list:  list,
	}
}

func (r *headlessRecorder) Label() string {
	return r.label
}

func (r *headlessRecorder) Queue() CommandQueue {
	return r.queue
}

func (r *headlessRecorder) List() CommandList {
	if r.ended {
		return nil
	}
	return r.list
}

func (r *headlessRecorder) Begin() error {
	if r.ended {
		return fmt.Errorf("graphics: recorder %q already ended", r.label)
	}
	return r.list.Begin()
}

func (r *headlessRecorder) End() (CommandList, error) {
	if r.ended {
		return nil, fmt.Errorf("graphics: recorder %q already ended", r.label)
	}
	r.ended = true

	if r.passOpen {
		r.closeRenderPass()
	}

	if r.list.State() != ListStateRecording {
		// Begin was never called; nothing to submit.
		return nil, nil
	}
	if err := r.list.MarkRecorded(); err != nil {
		return nil, err
	}
	if r.recorded == 0 {
		// An empty recording submits fine; keep it so lifecycle
		// callbacks still fire for intentionally empty lists.
		r.list.AppendDebugMarker("empty")
	}
	return r.list, nil
}

func (r *headlessRecorder) BeginRenderPass(desc RenderPassDesc) error {
	if r.ended {
		return fmt.Errorf("graphics: recorder %q already ended", r.label)
	}
	if r.passOpen {
		return fmt.Errorf("graphics: recorder %q has an open render pass", r.label)
	}
	r.passOpen = true
	r.recorded++

	marker := "pass:" + desc.Label
	if desc.Color.Clear {
		marker += " clear-color"
	}
	if desc.Depth != nil {
		if desc.Depth.Clear {
			marker += " clear-depth"
		}
		if desc.Depth.Write {
			marker += " depth-write"
		}
	}
	r.list.AppendDebugMarker(marker)
	return nil
}

func (r *headlessRecorder) EndRenderPass() {
	if r.ended || !r.passOpen {
		return
	}
	r.closeRenderPass()
}

func (r *headlessRecorder) closeRenderPass() {
	r.passOpen = false
	r.list.AppendDebugMarker("pass-end")
}

func (r *headlessRecorder) SetPipeline(state PipelineState) {
	if r.ended || state == nil {
		return
	}
	r.recorded++
	r.list.AppendDebugMarker("pipeline:" + state.Key())
}

func (r *headlessRecorder) SetViewport(viewport common.Viewport) {
	if r.ended {
		return
	}
	r.recorded++
	r.list.AppendDebugMarker(fmt.Sprintf("viewport:%gx%g@%g,%g", viewport.Width, viewport.Height, viewport.X, viewport.Y))
}

func (r *headlessRecorder) Transition(texture Texture, state ResourceState) {
	if r.ended || texture == nil {
		return
	}
	r.recorded++
	r.list.AppendDebugMarker("transition:" + texture.Label() + "->" + state.String())
}

func (r *headlessRecorder) Dispatch(label string, x, y, z uint32) {
	if r.ended {
		return
	}
	r.recorded++
	r.list.AppendDebugMarker(fmt.Sprintf("dispatch:%s %dx%dx%d", label, x, y, z))
}

func (r *headlessRecorder) Blit(src, dst Framebuffer, region common.Region) {
	if r.ended {
		return
	}
	r.recorded++
	r.list.AppendDebugMarker(fmt.Sprintf("blit:%s->%s %dx%d@%d,%d", src.Label(), dst.Label(), region.Width, region.Height, region.X, region.Y))
}

func (r *headlessRecorder) DebugMarker(marker string) {
	if r.ended {
		return
	}
	r.recorded++
	r.list.AppendDebugMarker(marker)
}
