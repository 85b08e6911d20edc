// package frame holds the per-frame context shared across module callbacks
// and the capability tag that gates its restricted mutations. One context
// exists per in-flight frame slot; the engine resets it at FrameStart and
// advances its phase as the frame progresses.
package frame

import (
	"sync"

	"github.com/Carmen-Shannon/oxygen/engine/graphics"
	"github.com/Carmen-Shannon/oxygen/engine/phase"
	"github.com/Carmen-Shannon/oxygen/engine/profiler"
	"github.com/Carmen-Shannon/oxygen/engine/scene"
	"github.com/Carmen-Shannon/oxygen/engine/view"
)

// contextKey is the unforgeable identity minted per context. Only
// NewContext creates values of this type, so a Tag holding the matching
// pointer can only have come from the engine that created the context.
type contextKey struct{ _ byte }

// Tag is the capability proving its holder is the engine that owns a
// context. Restricted context mutations (setting the scene, advancing the
// phase, resetting the frame) require the matching tag. The zero Tag
// matches nothing; tags cannot be forged outside this package.
type Tag struct {
	key *contextKey
}

// Valid reports whether the tag was minted by NewContext.
//
// Returns:
//   - bool: true if the tag carries a minted key
func (t Tag) Valid() bool {
	return t.key != nil
}

// Context is the mutable per-frame record shared across modules. Reads are
// unrestricted; mutations that would let a module impersonate the engine
// (scene install, phase advance, frame reset, surface list) require the
// engine tag. Within a frame the current phase only ever advances.
type Context interface {
	// FrameIndex returns the monotonic frame counter for this frame.
	FrameIndex() uint64

	// Slot returns the in-flight ring slot owning this frame.
	Slot() int

	// CurrentPhase returns the phase the frame is currently executing.
	CurrentPhase() phase.Id

	// Scene returns the scene installed for this frame, or nil.
	Scene() scene.Scene

	// Views returns the frame's ordered composition view descriptors.
	//
	// Returns:
	//   - []view.CompositionView: a copy of the descriptor list
	Views() []view.CompositionView

	// SetViews replaces the frame's composition view descriptors. Open to
	// modules: publishing views is how applications request rendering.
	//
	// Parameters:
	//   - views: the ordered descriptor list
	SetViews(views []view.CompositionView)

	// CompositeTarget returns the backbuffer framebuffer composite work
	// writes into, or nil when no surface is attached this frame.
	CompositeTarget() graphics.Framebuffer

	// Surfaces returns the presentable surfaces attached to this frame.
	//
	// Returns:
	//   - []graphics.Surface: a copy of the surface list
	Surfaces() []graphics.Surface

	// Graphics returns the weak-style handle to the graphics backend.
	// Callers must check liveness through Handle.Get.
	Graphics() *graphics.Handle

	// Stats returns the profiling snapshot captured for this frame.
	Stats() profiler.FrameStats

	// Reset prepares the context for a new frame: stores the frame index
	// and slot, rewinds the phase to FrameStart, and clears the frame's
	// scene, views, and composite target. Requires the engine tag.
	//
	// Parameters:
	//   - tag: the engine capability
	//   - frameIndex: the new monotonic frame counter
	//   - slot: the ring slot owning the frame
	Reset(tag Tag, frameIndex uint64, slot int)

	// SetScene installs the frame's scene pointer. Requires the engine
	// tag.
	//
	// Parameters:
	//   - tag: the engine capability
	//   - s: the scene for this frame (may be nil)
	SetScene(tag Tag, s scene.Scene)

	// AdvancePhase moves the frame to the given phase. Phases only move
	// forward within a frame; regression is a precondition violation and
	// panics. Requires the engine tag.
	//
	// Parameters:
	//   - tag: the engine capability
	//   - p: the phase to advance to
	AdvancePhase(tag Tag, p phase.Id)

	// SetCompositeTarget installs the frame's backbuffer reference.
	// Requires the engine tag.
	//
	// Parameters:
	//   - tag: the engine capability
	//   - fb: the backbuffer framebuffer (may be nil)
	SetCompositeTarget(tag Tag, fb graphics.Framebuffer)

	// SetSurfaces replaces the frame's surface list. Requires the engine
	// tag.
	//
	// Parameters:
	//   - tag: the engine capability
	//   - surfaces: the presentable surfaces for this frame
	SetSurfaces(tag Tag, surfaces []graphics.Surface)

	// SetStats stores the frame's profiling snapshot. Requires the engine
	// tag.
	//
	// Parameters:
	//   - tag: the engine capability
	//   - stats: the snapshot to expose
	SetStats(tag Tag, stats profiler.FrameStats)
}

type frameContext struct {
	mu  *sync.RWMutex
	key *contextKey

	frameIndex   uint64
	slot         int
	currentPhase phase.Id

	scn             scene.Scene
	views           []view.CompositionView
	compositeTarget graphics.Framebuffer
	surfaces        []graphics.Surface
	gfx             *graphics.Handle
	stats           profiler.FrameStats
}

var _ Context = &frameContext{}

// NewContext creates a frame context bound to the given graphics handle and
// mints its engine tag. The tag is returned exactly once, to the caller;
// hold it privately.
//
// Parameters:
//   - gfx: the weak-style graphics backend handle the context exposes
//
// Returns:
//   - Context: the newly created context
//   - Tag: the capability gating the context's restricted mutations
func NewContext(gfx *graphics.Handle) (Context, Tag) {
	key := &contextKey{}
	return &frameContext{
		mu:  &sync.RWMutex{},
		key: key,
		gfx: gfx,
	}, Tag{key: key}
}

// check panics unless the tag matches the context's minted key.
func (c *frameContext) check(tag Tag, op string) {
	if tag.key != c.key {
		panic("frame: " + op + " requires the engine tag")
	}
}

func (c *frameContext) FrameIndex() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frameIndex
}

func (c *frameContext) Slot() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.slot
}

func (c *frameContext) CurrentPhase() phase.Id {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentPhase
}

func (c *frameContext) Scene() scene.Scene {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scn
}

func (c *frameContext) Views() []view.CompositionView {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]view.CompositionView, len(c.views))
	copy(out, c.views)
	return out
}

func (c *frameContext) SetViews(views []view.CompositionView) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.views = make([]view.CompositionView, len(views))
	copy(c.views, views)
}

func (c *frameContext) CompositeTarget() graphics.Framebuffer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.compositeTarget
}

func (c *frameContext) Surfaces() []graphics.Surface {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]graphics.Surface, len(c.surfaces))
	copy(out, c.surfaces)
	return out
}

func (c *frameContext) Graphics() *graphics.Handle {
	return c.gfx
}

func (c *frameContext) Stats() profiler.FrameStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

func (c *frameContext) Reset(tag Tag, frameIndex uint64, slot int) {
	c.check(tag, "Reset")

	c.mu.Lock()
	defer c.mu.Unlock()

	c.frameIndex = frameIndex
	c.slot = slot
	c.currentPhase = phase.FrameStart
	c.scn = nil
	c.views = nil
	c.compositeTarget = nil
}

func (c *frameContext) SetScene(tag Tag, s scene.Scene) {
	c.check(tag, "SetScene")

	c.mu.Lock()
	defer c.mu.Unlock()
	c.scn = s
}

func (c *frameContext) AdvancePhase(tag Tag, p phase.Id) {
	c.check(tag, "AdvancePhase")

	c.mu.Lock()
	defer c.mu.Unlock()

	if p < c.currentPhase {
		panic("frame: phase " + p.String() + " would regress from " + c.currentPhase.String())
	}
	c.currentPhase = p
}

func (c *frameContext) SetCompositeTarget(tag Tag, fb graphics.Framebuffer) {
	c.check(tag, "SetCompositeTarget")

	c.mu.Lock()
	defer c.mu.Unlock()
	c.compositeTarget = fb
}

func (c *frameContext) SetSurfaces(tag Tag, surfaces []graphics.Surface) {
	c.check(tag, "SetSurfaces")

	c.mu.Lock()
	defer c.mu.Unlock()

	c.surfaces = make([]graphics.Surface, len(surfaces))
	copy(c.surfaces, surfaces)
}

func (c *frameContext) SetStats(tag Tag, stats profiler.FrameStats) {
	c.check(tag, "SetStats")

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = stats
}
