package graphics

import (
	"errors"
	"fmt"
	"log"
	"sync"
)

// RecorderFactory creates a backend-appropriate recorder for a queue and a
// fresh list. The headless and wgpu backends install their own factories.
type RecorderFactory func(queue CommandQueue, list CommandList, label string) CommandRecorder

// SubmissionScope is the Go rendition of the scoped submission deleter: the
// Commander returns one per prepared recorder, and Close performs the
// submit decision that a destructor would perform at scope exit. Close is
// idempotent; callers typically defer it.
type SubmissionScope struct {
	once sync.Once
	run  func()
}

// Close executes the scope's submission decision exactly once. For
// immediate recorders this ends the recording and submits to the target
// queue; for deferred recorders it ends the recording and moves the list
// into the Commander's deferred backlog. Subsequent calls are no-ops.
func (s *SubmissionScope) Close() {
	if s == nil {
		return
	}
	s.once.Do(s.run)
}

// Commander mediates between modules and command queues: it hands out
// recorders, accepts their recorded lists for immediate or deferred
// submission, delivers each list to its target queue, and drives the
// at-most-once OnSubmitted/OnExecuted lifecycle through the deferred
// reclaimer. Queue failures are isolated per queue; the Commander stays
// usable after any failed submission.
type Commander interface {
	// PrepareCommandRecorder binds a recorder and list to a submission
	// scope. Panics if recorder or list is nil; both are programming
	// errors.
	//
	// On Close, the immediate path ends the recorder and submits the list
	// to the recorder's queue: a nil list or End error is logged and
	// dropped, a queue error is logged and swallowed with no callbacks,
	// and a successful submit fires OnSubmitted once and schedules
	// OnExecuted once via the reclaimer. The deferred path ends the
	// recorder and appends the list to the per-queue backlog, silently
	// skipping nil lists.
	//
	// Parameters:
	//   - recorder: the recorder whose list will be submitted (non-nil)
	//   - list: the list being recorded (non-nil)
	//   - immediate: true to submit at Close, false to defer
	//
	// Returns:
	//   - *SubmissionScope: the scope whose Close runs the decision
	PrepareCommandRecorder(recorder CommandRecorder, list CommandList, immediate bool) *SubmissionScope

	// AcquireCommandRecorder creates a fresh list and recorder for the
	// queue, begins recording, and prepares the submission scope in one
	// step.
	//
	// Parameters:
	//   - queue: the target queue
	//   - label: debug label for the recorder and list
	//   - immediate: true to submit at Close, false to defer
	//
	// Returns:
	//   - CommandRecorder: the recorder, ready for commands
	//   - *SubmissionScope: the scope whose Close runs the decision
	//   - error: error if recording could not begin
	AcquireCommandRecorder(queue CommandQueue, label string, immediate bool) (CommandRecorder, *SubmissionScope, error)

	// SubmitDeferredCommandLists submits the deferred backlog, one batch
	// per queue in first-deferral order, lists in creation order within a
	// queue. A queue that accepts its batch has OnSubmitted fired once per
	// list in order and OnExecuted scheduled via the reclaimer; a queue
	// that fails contributes to the aggregate error and its lists receive
	// no callbacks. Remaining queues are always attempted. An empty
	// backlog is a silent no-op, and concurrent callers are serialized so
	// each queue sees at most one batch submission per backlog.
	//
	// Returns:
	//   - error: the joined per-queue errors, or nil if every queue
	//     accepted its batch
	SubmitDeferredCommandLists() error

	// BeginFrameSlot rotates the Commander onto a new frame slot. The
	// reclaimer is advanced to the new frame index so lifecycle callbacks
	// scheduled this frame retire with it.
	//
	// Parameters:
	//   - slot: the in-flight ring slot owning this frame
	//   - frameIndex: the monotonic frame counter
	BeginFrameSlot(slot int, frameIndex uint64)

	// OutstandingRecorders returns the number of prepared recorders whose
	// scopes have not yet closed. Diagnostic only.
	OutstandingRecorders() int

	// CurrentFrame returns the slot and frame index set by the last
	// BeginFrameSlot.
	//
	// Returns:
	//   - slot: the in-flight ring slot
	//   - frameIndex: the monotonic frame counter
	CurrentFrame() (slot int, frameIndex uint64)
}

// deferredBatch collects the deferred lists bound for one queue, in the
// order their scopes closed.
type deferredBatch struct {
	queue CommandQueue
	lists []CommandList
}

type commander struct {
	mu *sync.Mutex

	factory   RecorderFactory
	reclaimer DeferredReclaimer

	deferred []*deferredBatch

	slot       int
	frameIndex uint64

	outstanding map[CommandRecorder]struct{}
}

var _ Commander = &commander{}

// NewCommander creates a Commander that builds recorders through the given
// factory and schedules OnExecuted callbacks through the given reclaimer.
//
// Parameters:
//   - factory: backend recorder factory (non-nil)
//   - reclaimer: the deferred reclaimer for OnExecuted scheduling (non-nil)
//
// Returns:
//   - Commander: the newly created commander
func NewCommander(factory RecorderFactory, reclaimer DeferredReclaimer) Commander {
	if factory == nil {
		panic("graphics: NewCommander requires a non-nil recorder factory")
	}
	if reclaimer == nil {
		panic("graphics: NewCommander requires a non-nil reclaimer")
	}
	return &commander{
		mu:          &sync.Mutex{},
		factory:     factory,
		reclaimer:   reclaimer,
		outstanding: make(map[CommandRecorder]struct{}),
	}
}

func (c *commander) PrepareCommandRecorder(recorder CommandRecorder, list CommandList, immediate bool) *SubmissionScope {
	if recorder == nil {
		panic("graphics: PrepareCommandRecorder requires a non-nil recorder")
	}
	if list == nil {
		panic("graphics: PrepareCommandRecorder requires a non-nil command list")
	}

	c.mu.Lock()
	c.outstanding[recorder] = struct{}{}
	c.mu.Unlock()

	run := c.closeImmediate
	if !immediate {
		run = c.closeDeferred
	}
	return &SubmissionScope{run: func() { run(recorder) }}
}

func (c *commander) AcquireCommandRecorder(queue CommandQueue, label string, immediate bool) (CommandRecorder, *SubmissionScope, error) {
	list := NewCommandList(queue.Role(), label)
	recorder := c.factory(queue, list, label)
	if err := recorder.Begin(); err != nil {
		return nil, nil, fmt.Errorf("graphics: acquire recorder %q: %w", label, err)
	}
	scope := c.PrepareCommandRecorder(recorder, list, immediate)
	return recorder, scope, nil
}

// closeImmediate is the immediate-path scope body: end, submit, fire
// OnSubmitted, schedule OnExecuted. Failures are logged and swallowed so a
// bad immediate submission never unwinds the recording scope.
func (c *commander) closeImmediate(recorder CommandRecorder) {
	defer c.forget(recorder)

	list, err := recorder.End()
	if err != nil {
		log.Printf("[Commander] immediate recorder %q failed to end: %v", recorder.Label(), err)
		return
	}
	if list == nil {
		log.Printf("[Commander] immediate recorder %q produced no work", recorder.Label())
		return
	}

	queue := recorder.Queue()
	if err := queue.Submit(list); err != nil {
		log.Printf("[Commander] immediate submit of %q on %s queue failed: %v", list.Label(), queue.Role(), err)
		return
	}

	c.finalizeSubmitted(list)
}

// closeDeferred is the deferred-path scope body: end and stash the list in
// the per-queue backlog for the next SubmitDeferredCommandLists.
func (c *commander) closeDeferred(recorder CommandRecorder) {
	defer c.forget(recorder)

	list, err := recorder.End()
	if err != nil {
		log.Printf("[Commander] deferred recorder %q failed to end: %v", recorder.Label(), err)
		return
	}
	if list == nil {
		// No work recorded; a deferred no-op is not an error.
		return
	}

	queue := recorder.Queue()

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, batch := range c.deferred {
		if batch.queue == queue {
			batch.lists = append(batch.lists, list)
			return
		}
	}
	c.deferred = append(c.deferred, &deferredBatch{queue: queue, lists: []CommandList{list}})
}

func (c *commander) SubmitDeferredCommandLists() error {
	// Take the whole backlog atomically: racing callers each drain a
	// disjoint set of batches, so every queue sees at most one batch
	// submission per backlog and no list is duplicated.
	c.mu.Lock()
	batches := c.deferred
	c.deferred = nil
	c.mu.Unlock()

	if len(batches) == 0 {
		return nil
	}

	var errs []error
	for _, batch := range batches {
		if err := batch.queue.SubmitBatch(batch.lists); err != nil {
			// Queue-local failure: no callbacks for this queue's
			// lists, but the remaining queues still submit.
			errs = append(errs, fmt.Errorf("graphics: deferred submit of %d list(s) on %s queue: %w", len(batch.lists), batch.queue.Role(), err))
			continue
		}
		for _, list := range batch.lists {
			c.finalizeSubmitted(list)
		}
	}
	return errors.Join(errs...)
}

// finalizeSubmitted drives the post-submit lifecycle: OnSubmitted fires now,
// OnExecuted fires when the reclaimer processes this frame.
func (c *commander) finalizeSubmitted(list CommandList) {
	list.MarkSubmitted()
	c.reclaimer.RegisterRelease(list.MarkExecuted)
}

func (c *commander) BeginFrameSlot(slot int, frameIndex uint64) {
	c.mu.Lock()
	c.slot = slot
	c.frameIndex = frameIndex
	c.mu.Unlock()

	c.reclaimer.BeginFrame(frameIndex)
}

func (c *commander) CurrentFrame() (int, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slot, c.frameIndex
}

func (c *commander) OutstandingRecorders() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.outstanding)
}

func (c *commander) forget(recorder CommandRecorder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.outstanding, recorder)
}
