package graphics

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
)

// PresentMode controls how rendered frames are presented to the display
// surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting,
	// capping frame rate to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for
	// vertical blank. May cause screen tearing but provides the lowest
	// latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample
// anti-aliasing on the surface backbuffer. WebGPU guarantees support for
// 1 (off) and 4; higher values are adapter-dependent.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4

	// MSAA8x enables 8× multisample anti-aliasing. Adapter-dependent.
	MSAA8x MSAASampleCount = 8
)

// wgpuGraphics is the WebGPU Graphics backend. The device exposes a single
// hardware queue, so the three role queues are routing keys multiplexed
// onto it; role separation still buys the Commander its per-queue batching
// and failure isolation.
type wgpuGraphics struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	surface       *wgpu.Surface
	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	sampleCount   MSAASampleCount

	width, height uint32

	queues    map[QueueRole]CommandQueue
	byKey     map[string]CommandQueue
	commander Commander
	reclaimer DeferredReclaimer
	states    *PipelineStateRegistry
	present   *wgpuSurface
	handle    *Handle

	forceFallbackAdapter bool
	released             bool
}

var _ Graphics = &wgpuGraphics{}

// NewWGPUGraphics creates a WebGPU backend bound to the given surface
// descriptor: instance, adapter, device, configured surface, one role queue
// triple over the device queue, Commander, and reclaimer.
//
// Parameters:
//   - surfaceDescriptor: platform surface descriptor from the window
//   - width, height: initial surface dimensions in pixels
//   - options: functional options for backend configuration
//
// Returns:
//   - Graphics: the newly created backend
//   - error: error if adapter or device acquisition fails
func NewWGPUGraphics(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, options ...WGPUBuilderOption) (Graphics, error) {
	runtime.LockOSThread()

	g := &wgpuGraphics{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
		sampleCount: MSAAOff,
		byKey:       make(map[string]CommandQueue),
		reclaimer:   NewDeferredReclaimer(),
		states:      NewPipelineStateRegistry(),
	}

	for _, opt := range options {
		opt(g)
	}

	g.surface = g.instance.CreateSurface(surfaceDescriptor)

	adapter, err := g.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: g.forceFallbackAdapter,
		CompatibleSurface:    g.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("graphics: request adapter: %w", err)
	}
	g.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("graphics: request device: %w", err)
	}
	g.device = device
	g.queue = device.GetQueue()

	g.configureSurface(width, height)

	g.queues = map[QueueRole]CommandQueue{
		QueueRoleGraphics: newWGPUQueue(g, QueueRoleGraphics),
		QueueRoleCompute:  newWGPUQueue(g, QueueRoleCompute),
		QueueRoleCopy:     newWGPUQueue(g, QueueRoleCopy),
	}
	g.commander = NewCommander(g.newRecorder, g.reclaimer)
	g.present = &wgpuSurface{gfx: g}
	g.handle = NewHandle(g)

	return g, nil
}

// configureSurface applies the surface configuration for the given size.
// Called at construction and again on window resize.
func (g *wgpuGraphics) configureSurface(width, height int) {
	capabilities := g.surface.GetCapabilities(g.adapter)
	g.surfaceFormat = capabilities.Formats[0]
	g.width = uint32(width)
	g.height = uint32(height)

	g.surface.Configure(g.adapter, g.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      g.surfaceFormat,
		Width:       g.width,
		Height:      g.height,
		PresentMode: g.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
}

// Resize reconfigures the surface for a new window size.
//
// Parameters:
//   - width, height: the new surface dimensions in pixels
func (g *wgpuGraphics) Resize(width, height int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.configureSurface(width, height)
}

func (g *wgpuGraphics) Commander() Commander {
	return g.commander
}

func (g *wgpuGraphics) Queue(role QueueRole) CommandQueue {
	return g.queues[role]
}

func (g *wgpuGraphics) QueueByKey(key string) CommandQueue {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.byKey[key]
}

func (g *wgpuGraphics) Queues() []CommandQueue {
	return []CommandQueue{
		g.queues[QueueRoleGraphics],
		g.queues[QueueRoleCompute],
		g.queues[QueueRoleCopy],
	}
}

func (g *wgpuGraphics) Reclaimer() DeferredReclaimer {
	return g.reclaimer
}

func (g *wgpuGraphics) PipelineStates() *PipelineStateRegistry {
	return g.states
}

func (g *wgpuGraphics) BeginFrame(slot int, frameIndex uint64) {
	g.commander.BeginFrameSlot(slot, frameIndex)
}

func (g *wgpuGraphics) CreateViewTarget(label string, width, height uint32) (*ViewTarget, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("graphics: view target %q needs non-zero dimensions, got %dx%d", label, width, height)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	hdr, err := g.createTexture(label+"/hdr", width, height, wgpu.TextureFormatRGBA16Float,
		wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding)
	if err != nil {
		return nil, err
	}
	sdr, err := g.createTexture(label+"/sdr", width, height, g.surfaceFormat,
		wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopySrc)
	if err != nil {
		hdr.destroy()
		return nil, err
	}
	depth, err := g.createTexture(label+"/depth", width, height, wgpu.TextureFormatDepth24Plus,
		wgpu.TextureUsageRenderAttachment)
	if err != nil {
		hdr.destroy()
		sdr.destroy()
		return nil, err
	}

	return &ViewTarget{
		Label:  label,
		Width:  width,
		Height: height,
		HDR:    hdr,
		SDR:    sdr,
		Depth:  depth,
	}, nil
}

func (g *wgpuGraphics) createTexture(label string, width, height uint32, format wgpu.TextureFormat, usage wgpu.TextureUsage) (*wgpuTexture, error) {
	tex, err := g.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("graphics: create texture %q: %w", label, err)
	}

	v, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("graphics: create texture view %q: %w", label, err)
	}

	return &wgpuTexture{label: label, width: width, height: height, texture: tex, view: v}, nil
}

func (g *wgpuGraphics) ReleaseViewTarget(target *ViewTarget) {
	if target == nil || !target.markReleased() {
		return
	}

	// The textures stay alive until the frame that unpublished them
	// retires; only then does the GPU stop reading them.
	textures := []Texture{target.HDR, target.SDR, target.Depth}
	g.reclaimer.RegisterRelease(func() {
		for _, t := range textures {
			if wt, ok := t.(*wgpuTexture); ok {
				wt.destroy()
			}
		}
		log.Printf("[Graphics] released view target %q", target.Label)
	})
}

func (g *wgpuGraphics) Surface() Surface {
	return g.present
}

func (g *wgpuGraphics) Flush() error {
	err := g.commander.SubmitDeferredCommandLists()
	for _, q := range g.Queues() {
		q.Signal()
	}
	g.device.Poll(true, nil)
	return err
}

func (g *wgpuGraphics) Release() {
	g.mu.Lock()
	if g.released {
		g.mu.Unlock()
		return
	}
	g.released = true
	g.mu.Unlock()

	g.handle.Invalidate()
	g.device.Poll(true, nil)
	g.reclaimer.ProcessAll()

	g.device.Release()
	g.adapter.Release()
	g.instance.Release()
}

func (g *wgpuGraphics) Handle() *Handle {
	return g.handle
}

// newRecorder is the RecorderFactory installed on the Commander.
func (g *wgpuGraphics) newRecorder(queue CommandQueue, list CommandList, label string) CommandRecorder {
	encoder, err := g.device.CreateCommandEncoder(nil)
	if err != nil {
		log.Printf("[Graphics] create command encoder for %q failed: %v", label, err)
		return NewHeadlessRecorder(queue, list, label)
	}
	return &wgpuRecorder{
		label:   label,
		queue:   queue,
		list:    list,
		encoder: encoder,
	}
}

// wgpuQueue multiplexes one role onto the device's hardware queue. Fences
// ride on Submit: wgpu's Submit returns after the work is accepted, and
// Wait drives device polling until the queue drains.
type wgpuQueue struct {
	mu *sync.Mutex

	gfx  *wgpuGraphics
	role QueueRole

	current   uint64
	completed uint64
}

var _ CommandQueue = &wgpuQueue{}

func newWGPUQueue(gfx *wgpuGraphics, role QueueRole) CommandQueue {
	return &wgpuQueue{
		mu:   &sync.Mutex{},
		gfx:  gfx,
		role: role,
	}
}

func (q *wgpuQueue) Role() QueueRole {
	return q.role
}

func (q *wgpuQueue) Submit(list CommandList) error {
	return q.SubmitBatch([]CommandList{list})
}

func (q *wgpuQueue) SubmitBatch(lists []CommandList) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	buffers := make([]*wgpu.CommandBuffer, 0, len(lists))
	for _, list := range lists {
		if list == nil {
			return fmt.Errorf("graphics: nil command list submitted to %s queue", q.role)
		}
		if state := list.State(); state != ListStateRecorded {
			return fmt.Errorf("graphics: command list %q submitted to %s queue in state %s", list.Label(), q.role, state)
		}
		if buf, ok := list.Native().(*wgpu.CommandBuffer); ok && buf != nil {
			buffers = append(buffers, buf)
		}
	}

	if len(buffers) > 0 {
		q.gfx.queue.Submit(buffers...)
		for _, buf := range buffers {
			buf.Release()
		}
		for _, list := range lists {
			list.SetNative(nil)
		}
	}
	return nil
}

func (q *wgpuQueue) Signal() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.current++
	return q.current
}

func (q *wgpuQueue) SignalValue(value uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if value > q.current {
		q.current = value
	}
}

func (q *wgpuQueue) Wait(value uint64, timeout time.Duration) error {
	deadline := time.Time{}
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		q.mu.Lock()
		if value > q.current {
			current := q.current
			q.mu.Unlock()
			return fmt.Errorf("graphics: wait on %s queue for unsignaled value %d (current %d)", q.role, value, current)
		}
		if q.completed >= value {
			q.mu.Unlock()
			return nil
		}
		q.mu.Unlock()

		// Drive the device until the hardware queue drains; submitted
		// work completes in submission order, so a drained queue means
		// every signaled value has completed.
		if q.gfx.device.Poll(true, nil) {
			q.mu.Lock()
			q.completed = q.current
			q.mu.Unlock()
			return nil
		}

		if !deadline.IsZero() && time.Now().After(deadline) {
			return fmt.Errorf("graphics: wait on %s queue for value %d timed out after %s", q.role, value, timeout)
		}
	}
}

func (q *wgpuQueue) CompletedValue() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.gfx.device.Poll(false, nil) {
		q.completed = q.current
	}
	return q.completed
}

func (q *wgpuQueue) CurrentValue() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current
}

// wgpuTexture pairs a texture with its default view.
type wgpuTexture struct {
	label         string
	width, height uint32

	texture *wgpu.Texture
	view    *wgpu.TextureView
}

var _ Texture = &wgpuTexture{}

func (t *wgpuTexture) Label() string {
	return t.label
}

func (t *wgpuTexture) Size() (uint32, uint32) {
	return t.width, t.height
}

func (t *wgpuTexture) Native() any {
	return t.view
}

func (t *wgpuTexture) destroy() {
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

// wgpuSurface adapts the configured wgpu surface to the Surface interface.
// Acquire holds the swapchain texture until Present releases it.
type wgpuSurface struct {
	gfx *wgpuGraphics

	frameTexture *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ Surface = &wgpuSurface{}

func (s *wgpuSurface) Label() string {
	return "surface"
}

func (s *wgpuSurface) Size() (uint32, uint32) {
	return s.gfx.width, s.gfx.height
}

func (s *wgpuSurface) Acquire() (Framebuffer, error) {
	// Holding two swapchain images at once trips wgpu validation; bail
	// if the previous frame never presented.
	if s.frameTexture != nil {
		return nil, fmt.Errorf("graphics: previous frame surface not yet presented")
	}

	surfaceTexture, err := s.gfx.surface.GetCurrentTexture()
	if err != nil {
		return nil, fmt.Errorf("graphics: acquire surface texture: %w", err)
	}

	v, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return nil, fmt.Errorf("graphics: create surface view: %w", err)
	}

	s.frameTexture = surfaceTexture
	s.frameView = v

	return &textureFramebuffer{
		label: "surface/backbuffer",
		tex: &wgpuTexture{
			label:   "surface/backbuffer",
			width:   s.gfx.width,
			height:  s.gfx.height,
			texture: surfaceTexture,
			view:    v,
		},
	}, nil
}

func (s *wgpuSurface) Present() {
	if s.frameTexture == nil {
		return
	}

	s.gfx.surface.Present()

	s.frameView.Release()
	s.frameTexture.Release()
	s.frameView = nil
	s.frameTexture = nil
}
