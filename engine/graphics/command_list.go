package graphics

import (
	"fmt"
	"sync"
)

// ListState tracks a command list through its lifecycle. Transitions are
// strictly Free → Recording → Recorded → Submitted → Executed → Free.
type ListState int

const (
	// ListStateFree marks a list that holds no recorded work and may begin
	// recording.
	ListStateFree ListState = iota

	// ListStateRecording marks a list a recorder is actively writing into.
	ListStateRecording

	// ListStateRecorded marks a finished list awaiting submission.
	ListStateRecorded

	// ListStateSubmitted marks a list whose work has been handed to its
	// target queue.
	ListStateSubmitted

	// ListStateExecuted marks a list whose GPU work has retired.
	ListStateExecuted
)

// String returns the state's display name.
func (s ListState) String() string {
	switch s {
	case ListStateRecording:
		return "Recording"
	case ListStateRecorded:
		return "Recorded"
	case ListStateSubmitted:
		return "Submitted"
	case ListStateExecuted:
		return "Executed"
	default:
		return "Free"
	}
}

// CommandList is the shared handle for one batch of recorded GPU work. The
// same list is reachable from the Commander (issuer), its target queue
// (submit side), and the deferred reclaimer (retire side); the single
// mutable lifecycle state lives here and is guarded internally.
//
// The OnSubmitted and OnExecuted callbacks each fire at most once per
// submission, in that order. OnSubmitted fires only after the queue accepted
// the list; OnExecuted fires when the list's frame retires.
type CommandList interface {
	// Label returns the list's debug label.
	Label() string

	// Role returns the queue role this list targets.
	Role() QueueRole

	// State returns the list's current lifecycle state.
	State() ListState

	// SetOnSubmitted registers the callback fired once when the list's
	// Submit call returns successfully. Must be set before submission.
	//
	// Parameters:
	//   - callback: the callback, or nil to clear
	SetOnSubmitted(callback func())

	// SetOnExecuted registers the callback fired once when the list's
	// frame retires. Must be set before submission.
	//
	// Parameters:
	//   - callback: the callback, or nil to clear
	SetOnExecuted(callback func())

	// Begin transitions the list from Free to Recording.
	//
	// Returns:
	//   - error: error if the list is not Free
	Begin() error

	// MarkRecorded transitions the list from Recording to Recorded.
	//
	// Returns:
	//   - error: error if the list is not Recording
	MarkRecorded() error

	// MarkSubmitted transitions the list from Recorded to Submitted and
	// fires the OnSubmitted callback. Calls in any other state are no-ops,
	// which keeps the callback at-most-once.
	MarkSubmitted()

	// MarkExecuted transitions the list from Submitted to Executed and
	// fires the OnExecuted callback. Calls in any other state are no-ops,
	// which keeps the callback at-most-once.
	MarkExecuted()

	// Reset returns an Executed list to Free so it can be reused. Also
	// valid on Recorded lists that were never submitted. Clears callbacks
	// and recorded payloads.
	//
	// Returns:
	//   - error: error if the list is Recording or Submitted
	Reset() error

	// AppendDebugMarker records a debug annotation describing one recorded
	// operation. Markers survive until Reset.
	//
	// Parameters:
	//   - marker: the annotation text
	AppendDebugMarker(marker string)

	// DebugMarkers returns a copy of the recorded debug annotations in
	// record order.
	//
	// Returns:
	//   - []string: the markers
	DebugMarkers() []string

	// Native returns the backend payload attached by the recorder at End,
	// such as a finished GPU command buffer. Nil for headless lists.
	Native() any

	// SetNative attaches the backend payload. Called by recorders.
	//
	// Parameters:
	//   - payload: the backend-specific finished command buffer
	SetNative(payload any)
}

type commandList struct {
	mu *sync.Mutex

	label string
	role  QueueRole
	state ListState

	onSubmitted func()
	onExecuted  func()

	markers []string
	native  any
}

var _ CommandList = &commandList{}

// NewCommandList creates a command list in the Free state targeting the
// given queue role.
//
// Parameters:
//   - role: the queue role the list targets
//   - label: debug label for diagnostics
//
// Returns:
//   - CommandList: the newly created list
func NewCommandList(role QueueRole, label string) CommandList {
	return &commandList{
		mu:    &sync.Mutex{},
		label: label,
		role:  role,
		state: ListStateFree,
	}
}

func (l *commandList) Label() string {
	return l.label
}

func (l *commandList) Role() QueueRole {
	return l.role
}

func (l *commandList) State() ListState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *commandList) SetOnSubmitted(callback func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onSubmitted = callback
}

func (l *commandList) SetOnExecuted(callback func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onExecuted = callback
}

func (l *commandList) Begin() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != ListStateFree {
		return fmt.Errorf("graphics: command list %q cannot begin recording in state %s", l.label, l.state)
	}
	l.state = ListStateRecording
	return nil
}

func (l *commandList) MarkRecorded() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != ListStateRecording {
		return fmt.Errorf("graphics: command list %q cannot end recording in state %s", l.label, l.state)
	}
	l.state = ListStateRecorded
	return nil
}

func (l *commandList) MarkSubmitted() {
	l.mu.Lock()
	if l.state != ListStateRecorded {
		l.mu.Unlock()
		return
	}
	l.state = ListStateSubmitted
	callback := l.onSubmitted
	l.mu.Unlock()

	// Fired outside the lock; callbacks may inspect the list.
	if callback != nil {
		callback()
	}
}

func (l *commandList) MarkExecuted() {
	l.mu.Lock()
	if l.state != ListStateSubmitted {
		l.mu.Unlock()
		return
	}
	l.state = ListStateExecuted
	callback := l.onExecuted
	l.mu.Unlock()

	if callback != nil {
		callback()
	}
}

func (l *commandList) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case ListStateRecording, ListStateSubmitted:
		return fmt.Errorf("graphics: command list %q cannot reset in state %s", l.label, l.state)
	}

	l.state = ListStateFree
	l.onSubmitted = nil
	l.onExecuted = nil
	l.markers = nil
	l.native = nil
	return nil
}

func (l *commandList) AppendDebugMarker(marker string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.markers = append(l.markers, marker)
}

func (l *commandList) DebugMarkers() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, len(l.markers))
	copy(out, l.markers)
	return out
}

func (l *commandList) Native() any {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.native
}

func (l *commandList) SetNative(payload any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.native = payload
}
