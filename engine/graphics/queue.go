package graphics

import (
	"fmt"
	"sync"
	"time"
)

// QueueRole classifies a command queue by the kind of work it accepts.
type QueueRole int

const (
	// QueueRoleGraphics accepts render passes and presentation work.
	QueueRoleGraphics QueueRole = iota

	// QueueRoleCompute accepts compute dispatches.
	QueueRoleCompute

	// QueueRoleCopy accepts transfer and upload work.
	QueueRoleCopy
)

// String returns the role's display name.
func (r QueueRole) String() string {
	switch r {
	case QueueRoleCompute:
		return "Compute"
	case QueueRoleCopy:
		return "Copy"
	default:
		return "Graphics"
	}
}

// CommandQueue is the submission endpoint for one queue role. Submit and
// the fence operations are thread-safe; this is a backend contract relied
// on by the Commander and the frame loop.
//
// The fence is a monotonic counter: Signal records the current frame
// boundary, Wait blocks until the queue has completed at least the given
// value, and CompletedValue/CurrentValue drive the deferred reclaimer's
// retire decisions.
type CommandQueue interface {
	// Role returns the queue's role.
	Role() QueueRole

	// Submit hands a single recorded list to the queue.
	//
	// Parameters:
	//   - list: the recorded command list
	//
	// Returns:
	//   - error: error if the backend rejects the submission
	Submit(list CommandList) error

	// SubmitBatch hands an ordered batch of recorded lists to the queue in
	// one submission, atomic with respect to the queue's consumer.
	//
	// Parameters:
	//   - lists: the recorded command lists in submission order
	//
	// Returns:
	//   - error: error if the backend rejects the submission
	SubmitBatch(lists []CommandList) error

	// Signal records a new fence value marking the current frame boundary
	// and returns it.
	//
	// Returns:
	//   - uint64: the signaled fence value
	Signal() uint64

	// SignalValue records the given fence value. Values must be
	// monotonically increasing.
	//
	// Parameters:
	//   - value: the fence value to record
	SignalValue(value uint64)

	// Wait blocks until the queue has completed at least the given fence
	// value or the timeout elapses. A timeout of zero waits indefinitely.
	//
	// Parameters:
	//   - value: the fence value to wait for
	//   - timeout: maximum time to wait (0 = no limit)
	//
	// Returns:
	//   - error: error if the timeout elapsed before completion
	Wait(value uint64, timeout time.Duration) error

	// CompletedValue returns the highest fence value the queue's consumer
	// has completed.
	CompletedValue() uint64

	// CurrentValue returns the highest fence value signaled so far.
	CurrentValue() uint64
}

// headlessQueue is a CPU-only queue used by tests and GPU-less runs.
// Submitted work completes synchronously, so the completed fence value
// always equals the signaled value.
type headlessQueue struct {
	mu *sync.Mutex

	role      QueueRole
	current   uint64
	completed uint64

	submissions uint64
}

var _ CommandQueue = &headlessQueue{}

// NewHeadlessQueue creates a synchronous CPU-only command queue for the
// given role.
//
// Parameters:
//   - role: the queue's role
//
// Returns:
//   - CommandQueue: the newly created queue
func NewHeadlessQueue(role QueueRole) CommandQueue {
	return &headlessQueue{
		mu:   &sync.Mutex{},
		role: role,
	}
}

func (q *headlessQueue) Role() QueueRole {
	return q.role
}

func (q *headlessQueue) Submit(list CommandList) error {
	return q.SubmitBatch([]CommandList{list})
}

func (q *headlessQueue) SubmitBatch(lists []CommandList) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, list := range lists {
		if list == nil {
			return fmt.Errorf("graphics: nil command list submitted to %s queue", q.role)
		}
		if state := list.State(); state != ListStateRecorded {
			return fmt.Errorf("graphics: command list %q submitted to %s queue in state %s", list.Label(), q.role, state)
		}
	}

	// Headless work completes as soon as it is accepted.
	q.submissions += uint64(len(lists))
	return nil
}

func (q *headlessQueue) Signal() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.current++
	q.completed = q.current
	return q.current
}

func (q *headlessQueue) SignalValue(value uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if value > q.current {
		q.current = value
	}
	q.completed = q.current
}

func (q *headlessQueue) Wait(value uint64, timeout time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	// Completion is synchronous, so anything signaled has completed.
	if value > q.current {
		return fmt.Errorf("graphics: wait on %s queue for unsignaled value %d (current %d)", q.role, value, q.current)
	}
	return nil
}

func (q *headlessQueue) CompletedValue() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.completed
}

func (q *headlessQueue) CurrentValue() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current
}
