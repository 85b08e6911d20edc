// package engine implements the asynchronous frame coordinator. The engine
// owns a ring of in-flight frame contexts, runs every registered module's
// phase callbacks in the fixed phase order each frame, and retires frames
// through the graphics backend's queue fences and deferred reclaimer.
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/google/uuid"

	"github.com/Carmen-Shannon/oxygen/engine/frame"
	"github.com/Carmen-Shannon/oxygen/engine/graphics"
	"github.com/Carmen-Shannon/oxygen/engine/phase"
	"github.com/Carmen-Shannon/oxygen/engine/profiler"
	"github.com/Carmen-Shannon/oxygen/engine/scene"
	"github.com/Carmen-Shannon/oxygen/engine/view"
	"github.com/Carmen-Shannon/oxygen/engine/window"
)

// State is the engine lifecycle state.
type State int32

const (
	// StateUninitialized is the zero state before construction completes.
	StateUninitialized State = iota

	// StateInitialized means the engine is built and ready to run.
	StateInitialized

	// StateRunning means the frame loop is active.
	StateRunning

	// StateStopping means a stop was requested; in-flight frames drain but
	// no new frame starts.
	StateStopping

	// StateStopped is terminal: all frames retired, resources reclaimed.
	StateStopped
)

// String returns the state's display name.
func (s State) String() string {
	switch s {
	case StateInitialized:
		return "Initialized"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateStopped:
		return "Stopped"
	default:
		return "Uninitialized"
	}
}

// Status is one entry on the engine's status channel: a state transition or
// a fatal error surfaced from the frame loop.
type Status struct {
	// State is the engine state at the time of the entry.
	State State

	// FrameIndex is the frame the entry was produced on.
	FrameIndex uint64

	// Err is the surfaced error, nil for plain transitions.
	Err error
}

// Engine coordinates the frame loop. Modules register phase callbacks
// before Run; the application stages the scene and view list at any time
// and the engine picks the staged values up at the next frame start.
type Engine interface {
	// State returns the current lifecycle state.
	//
	// Returns:
	//   - State: the current state
	State() State

	// Status returns the channel carrying state transitions and surfaced
	// errors. Entries are dropped rather than blocking the frame loop when
	// the channel is full.
	//
	// Returns:
	//   - <-chan Status: the status channel
	Status() <-chan Status

	// RegisterModule adds a module's phase callbacks to the frame loop.
	// Registration is rejected once the engine is running.
	//
	// Parameters:
	//   - m: the module to register
	//
	// Returns:
	//   - error: error if the name is taken, a binding is invalid, or the
	//     engine is already running
	RegisterModule(m Module) error

	// SetScene stages the scene picked up at the next frame start.
	//
	// Parameters:
	//   - s: the scene to bind, nil to unbind
	SetScene(s scene.Scene)

	// SetViews stages the ordered view descriptor list picked up at the
	// next frame start.
	//
	// Parameters:
	//   - views: the views to render and composite each frame
	SetViews(views []view.CompositionView)

	// Window returns the engine's window, or nil when running headless.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// EnableProfiler enables per-interval profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables profiling output.
	DisableProfiler()

	// SetFrameLimit caps the frame rate. Pass 0 to uncap (default).
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetFrameLimit(fps float64)

	// Run executes the frame loop until Stop is called, the window closes,
	// or the graphics backend is lost. Blocks the calling goroutine.
	//
	// Returns:
	//   - error: error if the engine is not in the Initialized state
	Run() error

	// Stop requests shutdown. No new frame starts after the current one;
	// in-flight frames drain, the deferred backlog flushes, and the
	// reclaimer runs to empty. Safe to call multiple times and from any
	// goroutine.
	Stop()

	// FrameIndex returns the index of the most recently started frame.
	//
	// Returns:
	//   - uint64: the frame index
	FrameIndex() uint64
}

// frameSlot is one entry of the in-flight frame ring: its context, the
// capability tag gating privileged mutation, and the queue fence values
// recorded when the frame's work was signaled.
type frameSlot struct {
	fc  frame.Context
	tag frame.Tag

	inFlight   bool
	frameIndex uint64
	fences     []slotFence
}

type slotFence struct {
	queue graphics.CommandQueue
	value uint64
}

type asyncEngine struct {
	mu *sync.Mutex

	state atomic.Int32

	gfx    graphics.Graphics
	handle *graphics.Handle
	window window.Window

	registry *moduleRegistry
	pool     worker.DynamicWorkerPool
	workers  int

	slots         []*frameSlot
	pipelineDepth int

	stagedScene scene.Scene
	stagedViews []view.CompositionView
	viewsGen    uint64

	frameIndex atomic.Uint64

	quitChannel chan struct{}
	quitOnce    *sync.Once

	statusChannel chan Status

	profiler         *profiler.Profiler
	profilingEnabled bool

	frameLimit time.Duration
	maxFrames  uint64

	fenceTimeout time.Duration

	// runToken identifies this engine instance in log lines.
	runToken string

	// acquiredBackbuffer tracks whether this frame holds the surface's
	// backbuffer and must present it.
	acquiredBackbuffer bool
}

var _ Engine = &asyncEngine{}

// NewAsyncEngine creates the frame coordinator bound to a graphics backend.
//
// Parameters:
//   - gfx: the graphics backend; must not be nil
//   - options: functional options for depth, window, pacing, workers
//
// Returns:
//   - Engine: the newly created engine in the Initialized state
func NewAsyncEngine(gfx graphics.Graphics, options ...EngineBuilderOption) Engine {
	if gfx == nil {
		panic("engine: NewAsyncEngine requires a non-nil graphics backend")
	}

	e := &asyncEngine{
		mu:            &sync.Mutex{},
		gfx:           gfx,
		handle:        gfx.Handle(),
		registry:      newModuleRegistry(),
		pipelineDepth: 2,
		workers:       4,
		quitChannel:   make(chan struct{}),
		quitOnce:      &sync.Once{},
		statusChannel: make(chan Status, 8),
		profiler:      profiler.NewProfiler(),
		fenceTimeout:  5 * time.Second,
		runToken:      uuid.NewString(),
	}

	for _, option := range options {
		option(e)
	}

	if e.pipelineDepth < 1 {
		e.pipelineDepth = 1
	}
	e.slots = make([]*frameSlot, e.pipelineDepth)
	for i := range e.slots {
		fc, tag := frame.NewContext(e.handle)
		e.slots[i] = &frameSlot{fc: fc, tag: tag}
	}

	// Queue size of 256 covers fanout module counts with headroom.
	if e.workers > 0 {
		e.pool = worker.NewDynamicWorkerPool(e.workers, 256, 1*time.Second)
	}

	e.state.Store(int32(StateInitialized))
	return e
}

func (e *asyncEngine) State() State {
	return State(e.state.Load())
}

func (e *asyncEngine) Status() <-chan Status {
	return e.statusChannel
}

func (e *asyncEngine) RegisterModule(m Module) error {
	if e.State() == StateRunning || e.State() == StateStopping {
		return fmt.Errorf("engine: cannot register modules while %s", e.State())
	}
	return e.registry.register(m)
}

func (e *asyncEngine) SetScene(s scene.Scene) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stagedScene = s
}

func (e *asyncEngine) SetViews(views []view.CompositionView) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stagedViews = views
	e.viewsGen++
}

func (e *asyncEngine) Window() window.Window {
	return e.window
}

func (e *asyncEngine) EnableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = true
	e.profiler.SetLogging(true)
}

func (e *asyncEngine) DisableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = false
	e.profiler.SetLogging(false)
}

func (e *asyncEngine) SetFrameLimit(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fps <= 0 {
		e.frameLimit = 0
		return
	}
	e.frameLimit = time.Second / time.Duration(fps)
}

func (e *asyncEngine) FrameIndex() uint64 {
	return e.frameIndex.Load()
}

// Stop requests shutdown. The transition to Stopping happens here; the
// frame loop observes it, drains, and moves to Stopped.
func (e *asyncEngine) Stop() {
	e.quitOnce.Do(func() {
		if e.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
			e.publishStatus(nil)
		}
		close(e.quitChannel)
	})
}

func (e *asyncEngine) Run() error {
	if !e.state.CompareAndSwap(int32(StateInitialized), int32(StateRunning)) {
		return fmt.Errorf("engine: Run requires the Initialized state, got %s", e.State())
	}
	log.Printf("[Engine] run %s starting (depth %d)", e.runToken, e.pipelineDepth)
	e.publishStatus(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-e.quitChannel
		cancel()
	}()

	for e.State() == StateRunning {
		if _, ok := e.handle.Get(); !ok {
			log.Printf("[Engine] graphics backend lost, stopping")
			e.publishStatus(fmt.Errorf("engine: graphics backend lost"))
			e.Stop()
			break
		}

		frameIndex := e.frameIndex.Load()
		if e.maxFrames > 0 && frameIndex >= e.maxFrames {
			e.Stop()
			break
		}

		slot := e.slots[int(frameIndex)%e.pipelineDepth]
		e.waitForSlot(slot)

		frameStart := time.Now()
		e.runFrame(ctx, slot, frameIndex)
		e.retireFrame(slot, frameIndex)
		e.frameIndex.Store(frameIndex + 1)

		if limit := e.currentFrameLimit(); limit > 0 {
			if remaining := limit - time.Since(frameStart); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}

	e.drain()
	e.state.Store(int32(StateStopped))
	e.publishStatus(nil)
	log.Printf("[Engine] run %s stopped after %d frames", e.runToken, e.frameIndex.Load())
	return nil
}

// runFrame executes one frame's 18 phases on the given slot.
func (e *asyncEngine) runFrame(ctx context.Context, slot *frameSlot, frameIndex uint64) {
	slotIndex := int(frameIndex) % e.pipelineDepth
	slot.fc.Reset(slot.tag, frameIndex, slotIndex)
	e.gfx.BeginFrame(slotIndex, frameIndex)

	e.mu.Lock()
	stagedScene := e.stagedScene
	stagedViews := make([]view.CompositionView, len(e.stagedViews))
	copy(stagedViews, e.stagedViews)
	viewsGen := e.viewsGen
	e.mu.Unlock()

	slot.fc.SetScene(slot.tag, stagedScene)
	slot.fc.SetViews(stagedViews)
	e.acquireBackbuffer(slot)

	for i, p := range phase.Ordered() {
		if i > 0 {
			slot.fc.AdvancePhase(slot.tag, p)
		}
		e.beforePhase(slot, p)
		if err := e.registry.dispatch(ctx, slot.fc, e.pool); err != nil {
			log.Printf("[Engine] frame %d %s: %v", frameIndex, p, err)
			e.publishStatus(err)
			if p.Category() == phase.CategoryOrderedBarrier {
				// A failed ordered phase ends this frame early; the slot
				// still retires through the normal fence path.
				break
			}
		}
		e.afterPhase(slot, p)
	}

	// Publish the frame's view list back so id assignments made by modules
	// during PublishViews survive into the next frame. Skipped when the
	// application restaged views mid-frame.
	e.mu.Lock()
	if e.viewsGen == viewsGen {
		e.stagedViews = slot.fc.Views()
	}
	e.mu.Unlock()
}

// beforePhase runs the engine's own pre-dispatch work for a phase.
func (e *asyncEngine) beforePhase(slot *frameSlot, p phase.Id) {
	switch p {
	case phase.Input:
		if e.window != nil {
			if !e.window.ProcessMessages() {
				e.Stop()
			}
		}
	case phase.Snapshot:
		e.profiler.Tick()
		slot.fc.SetStats(slot.tag, e.profiler.Stats())
	}
}

// afterPhase runs the engine's own post-dispatch work for a phase.
func (e *asyncEngine) afterPhase(slot *frameSlot, p phase.Id) {
	if p != phase.Present {
		return
	}
	if surface := e.gfx.Surface(); surface != nil && e.acquiredBackbuffer {
		surface.Present()
		e.acquiredBackbuffer = false
	}
}

// acquireBackbuffer takes the surface's backbuffer for the frame and binds
// it as the composite target. Headless runs without a surface composite
// into nothing.
func (e *asyncEngine) acquireBackbuffer(slot *frameSlot) {
	surface := e.gfx.Surface()
	if surface == nil {
		return
	}
	fb, err := surface.Acquire()
	if err != nil {
		log.Printf("[Engine] frame %d: acquiring backbuffer: %v", slot.fc.FrameIndex(), err)
		return
	}
	slot.fc.SetCompositeTarget(slot.tag, fb)
	slot.fc.SetSurfaces(slot.tag, []graphics.Surface{surface})
	e.acquiredBackbuffer = true
}

// retireFrame signals every queue for the finished frame, records the slot's
// fences, marks fence-complete frames retired, and runs deferred releases.
func (e *asyncEngine) retireFrame(slot *frameSlot, frameIndex uint64) {
	slot.fences = slot.fences[:0]
	for _, queue := range e.gfx.Queues() {
		slot.fences = append(slot.fences, slotFence{queue: queue, value: queue.Signal()})
	}
	slot.inFlight = true
	slot.frameIndex = frameIndex

	reclaimer := e.gfx.Reclaimer()
	for _, s := range e.slots {
		if s.inFlight && fencesComplete(s.fences) {
			reclaimer.MarkRetired(s.frameIndex)
			s.inFlight = false
		}
	}
	reclaimer.ProcessAllDeferredReleases()
}

// waitForSlot blocks until the slot's previous frame has executed on every
// queue, then retires it.
func (e *asyncEngine) waitForSlot(slot *frameSlot) {
	if !slot.inFlight {
		return
	}
	for _, fence := range slot.fences {
		if err := fence.queue.Wait(fence.value, e.fenceTimeout); err != nil {
			log.Printf("[Engine] waiting on %s fence %d: %v", fence.queue.Role(), fence.value, err)
		}
	}
	reclaimer := e.gfx.Reclaimer()
	reclaimer.MarkRetired(slot.frameIndex)
	slot.inFlight = false
	reclaimer.ProcessAllDeferredReleases()
}

// drain flushes the deferred backlog, waits out every in-flight frame, and
// empties the reclaimer.
func (e *asyncEngine) drain() {
	if err := e.gfx.Flush(); err != nil {
		log.Printf("[Engine] flushing on shutdown: %v", err)
	}
	for _, slot := range e.slots {
		e.waitForSlot(slot)
	}
	e.gfx.Reclaimer().ProcessAll()
}

func (e *asyncEngine) currentFrameLimit() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frameLimit
}

// publishStatus emits a status entry without ever blocking the frame loop.
func (e *asyncEngine) publishStatus(err error) {
	entry := Status{
		State:      e.State(),
		FrameIndex: e.frameIndex.Load(),
		Err:        err,
	}
	select {
	case e.statusChannel <- entry:
	default:
	}
}

func fencesComplete(fences []slotFence) bool {
	for _, fence := range fences {
		if fence.queue.CompletedValue() < fence.value {
			return false
		}
	}
	return true
}
