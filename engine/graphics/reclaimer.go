package graphics

import (
	"log"
	"sync"
)

// DeferredReclaimer holds release callbacks for resources the GPU may still
// be reading and runs them once the owning frame's work has retired.
// Callbacks run in registration order: FIFO within a frame, strictly by
// frame index across frames. Processing an empty backlog is a no-op, and
// repeated processing within the same retire window never re-runs an entry.
type DeferredReclaimer interface {
	// RegisterRelease appends a release callback tagged with the current
	// frame index.
	//
	// Parameters:
	//   - release: the callback to run once the frame retires
	RegisterRelease(release func())

	// BeginFrame sets the frame index new entries are tagged with. Called
	// by the graphics backend at the start of each frame.
	//
	// Parameters:
	//   - frameIndex: the frame new entries belong to
	BeginFrame(frameIndex uint64)

	// MarkRetired advances the retire watermark: every entry tagged with a
	// frame at or below the watermark becomes eligible for processing.
	//
	// Parameters:
	//   - frameIndex: the highest frame whose GPU work has retired
	MarkRetired(frameIndex uint64)

	// ProcessAllDeferredReleases runs and drops every eligible entry. A
	// panicking callback is logged and dropped; processing continues with
	// the remaining entries. Safe to call with an empty backlog and safe
	// to call repeatedly.
	ProcessAllDeferredReleases()

	// ProcessAll treats every pending entry as retired and processes it.
	// Used during shutdown after the queues have drained.
	ProcessAll()

	// Pending returns the number of entries not yet processed.
	Pending() int
}

type reclaimEntry struct {
	release    func()
	frameIndex uint64
}

type deferredReclaimer struct {
	mu *sync.Mutex

	entries      []reclaimEntry
	currentFrame uint64
	retired      uint64
	hasRetired   bool
}

var _ DeferredReclaimer = &deferredReclaimer{}

// NewDeferredReclaimer creates an empty reclaimer. Entries registered
// before the first BeginFrame are tagged with frame zero.
//
// Returns:
//   - DeferredReclaimer: the newly created reclaimer
func NewDeferredReclaimer() DeferredReclaimer {
	return &deferredReclaimer{
		mu: &sync.Mutex{},
	}
}

func (r *deferredReclaimer) RegisterRelease(release func()) {
	if release == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, reclaimEntry{release: release, frameIndex: r.currentFrame})
}

func (r *deferredReclaimer) BeginFrame(frameIndex uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentFrame = frameIndex
}

func (r *deferredReclaimer) MarkRetired(frameIndex uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.hasRetired || frameIndex > r.retired {
		r.retired = frameIndex
		r.hasRetired = true
	}
}

func (r *deferredReclaimer) ProcessAllDeferredReleases() {
	r.mu.Lock()
	if !r.hasRetired || len(r.entries) == 0 {
		r.mu.Unlock()
		return
	}

	// Entries are appended in frame order, so eligible entries form a
	// prefix of the backlog.
	cut := 0
	for cut < len(r.entries) && r.entries[cut].frameIndex <= r.retired {
		cut++
	}
	eligible := r.entries[:cut]
	r.entries = r.entries[cut:]
	r.mu.Unlock()

	runReleases(eligible)
}

func (r *deferredReclaimer) ProcessAll() {
	r.mu.Lock()
	eligible := r.entries
	r.entries = nil
	r.mu.Unlock()

	runReleases(eligible)
}

func (r *deferredReclaimer) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// runReleases invokes each release callback in order, confining panics to
// the failing entry.
func runReleases(entries []reclaimEntry) {
	for _, entry := range entries {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					log.Printf("[Reclaimer] release callback for frame %d panicked: %v", entry.frameIndex, rec)
				}
			}()
			entry.release()
		}()
	}
}
