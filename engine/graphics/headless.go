package graphics

import (
	"fmt"
	"log"
	"sync"
)

// headlessGraphics is the CPU-only Graphics backend. Queues complete work
// synchronously and textures are plain descriptors, which makes the full
// submission and reclaim machinery runnable in tests and GPU-less tools.
type headlessGraphics struct {
	mu *sync.Mutex

	queues    map[QueueRole]CommandQueue
	byKey     map[string]CommandQueue
	commander Commander
	reclaimer DeferredReclaimer
	states    *PipelineStateRegistry
	surface   Surface
	handle    *Handle

	released bool
}

var _ Graphics = &headlessGraphics{}

// NewHeadlessGraphics creates a CPU-only backend with one synchronous queue
// per role and an optional headless surface.
//
// Parameters:
//   - options: functional options for backend configuration
//
// Returns:
//   - Graphics: the newly created backend
func NewHeadlessGraphics(options ...HeadlessBuilderOption) Graphics {
	g := &headlessGraphics{
		mu: &sync.Mutex{},
		queues: map[QueueRole]CommandQueue{
			QueueRoleGraphics: NewHeadlessQueue(QueueRoleGraphics),
			QueueRoleCompute:  NewHeadlessQueue(QueueRoleCompute),
			QueueRoleCopy:     NewHeadlessQueue(QueueRoleCopy),
		},
		byKey:     make(map[string]CommandQueue),
		reclaimer: NewDeferredReclaimer(),
		states:    NewPipelineStateRegistry(),
	}
	g.commander = NewCommander(NewHeadlessRecorder, g.reclaimer)
	g.handle = NewHandle(g)

	for _, opt := range options {
		opt(g)
	}

	return g
}

func (g *headlessGraphics) Commander() Commander {
	return g.commander
}

func (g *headlessGraphics) Queue(role QueueRole) CommandQueue {
	return g.queues[role]
}

func (g *headlessGraphics) QueueByKey(key string) CommandQueue {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.byKey[key]
}

func (g *headlessGraphics) Queues() []CommandQueue {
	return []CommandQueue{
		g.queues[QueueRoleGraphics],
		g.queues[QueueRoleCompute],
		g.queues[QueueRoleCopy],
	}
}

func (g *headlessGraphics) Reclaimer() DeferredReclaimer {
	return g.reclaimer
}

func (g *headlessGraphics) PipelineStates() *PipelineStateRegistry {
	return g.states
}

func (g *headlessGraphics) BeginFrame(slot int, frameIndex uint64) {
	g.commander.BeginFrameSlot(slot, frameIndex)
}

func (g *headlessGraphics) CreateViewTarget(label string, width, height uint32) (*ViewTarget, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("graphics: view target %q needs non-zero dimensions, got %dx%d", label, width, height)
	}
	return &ViewTarget{
		Label:  label,
		Width:  width,
		Height: height,
		HDR:    &headlessTexture{label: label + "/hdr", width: width, height: height},
		SDR:    &headlessTexture{label: label + "/sdr", width: width, height: height},
		Depth:  &headlessTexture{label: label + "/depth", width: width, height: height},
	}, nil
}

func (g *headlessGraphics) ReleaseViewTarget(target *ViewTarget) {
	if target == nil || !target.markReleased() {
		return
	}
	label := target.Label
	g.reclaimer.RegisterRelease(func() {
		log.Printf("[Graphics] released view target %q", label)
	})
}

func (g *headlessGraphics) Surface() Surface {
	return g.surface
}

func (g *headlessGraphics) Flush() error {
	err := g.commander.SubmitDeferredCommandLists()
	for _, q := range g.Queues() {
		q.Signal()
	}
	return err
}

func (g *headlessGraphics) Release() {
	g.mu.Lock()
	if g.released {
		g.mu.Unlock()
		return
	}
	g.released = true
	g.mu.Unlock()

	g.handle.Invalidate()
	g.reclaimer.ProcessAll()
}

func (g *headlessGraphics) Handle() *Handle {
	return g.handle
}

// headlessTexture is a plain texture descriptor with no GPU storage.
type headlessTexture struct {
	label         string
	width, height uint32
}

var _ Texture = &headlessTexture{}

func (t *headlessTexture) Label() string {
	return t.label
}

func (t *headlessTexture) Size() (uint32, uint32) {
	return t.width, t.height
}

func (t *headlessTexture) Native() any {
	return nil
}

// headlessSurface is a presentable surface without a display. Acquire hands
// out a fixed-size framebuffer; Present counts frames for diagnostics.
type headlessSurface struct {
	mu *sync.Mutex

	label         string
	width, height uint32

	backbuffer *textureFramebuffer
	presented  uint64
}

var _ Surface = &headlessSurface{}

// NewHeadlessSurface creates a display-less surface with a fixed-size
// backbuffer.
//
// Parameters:
//   - label: debug label for the surface
//   - width, height: backbuffer dimensions in pixels
//
// Returns:
//   - Surface: the newly created surface
func NewHeadlessSurface(label string, width, height uint32) Surface {
	return &headlessSurface{
		mu:     &sync.Mutex{},
		label:  label,
		width:  width,
		height: height,
		backbuffer: &textureFramebuffer{
			label: label + "/backbuffer",
			tex:   &headlessTexture{label: label + "/backbuffer", width: width, height: height},
		},
	}
}

func (s *headlessSurface) Label() string {
	return s.label
}

func (s *headlessSurface) Size() (uint32, uint32) {
	return s.width, s.height
}

func (s *headlessSurface) Acquire() (Framebuffer, error) {
	return s.backbuffer, nil
}

func (s *headlessSurface) Present() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presented++
}
