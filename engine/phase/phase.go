// package phase defines the fixed per-frame execution sequence of the engine.
// Every frame visits the same phases in the same order; each phase carries a
// dispatch category that decides how module callbacks registered for it run.
package phase

// Id identifies one step of the per-frame execution sequence.
// The zero value is FrameStart, the first phase of every frame.
type Id int

const (
	// FrameStart opens the frame: the context is reset, settings commit, and the scene pointer is installed.
	FrameStart Id = iota

	// Input drains buffered platform input into module-visible state.
	Input

	// FixedSimulation advances fixed-timestep simulation (physics, deterministic gameplay).
	FixedSimulation

	// GameplaySimulation advances variable-timestep gameplay logic.
	GameplaySimulation

	// NetworkReconciliation folds authoritative network state into the local simulation.
	NetworkReconciliation

	// RandomSeedManage advances deterministic random streams for the frame.
	RandomSeedManage

	// SceneMutation applies structural scene changes (spawn, despawn, reparent).
	SceneMutation

	// TransformPropagation recomputes world transforms from the mutated scene graph.
	TransformPropagation

	// PublishViews syncs view descriptors to GPU resources and assigns stable view ids.
	PublishViews

	// SceneEvaluation evaluates per-frame scene state (visibility, LOD, environment).
	SceneEvaluation

	// ResourceStateTransitions plans GPU resource state for the upcoming render work.
	ResourceStateTransitions

	// PreRender builds the per-view render plans from settings and descriptors.
	PreRender

	// FrameGraphRender records per-view command lists through the Commander.
	FrameGraphRender

	// Compositing submits the work that assembles view outputs into the backbuffer.
	Compositing

	// Present hands completed surfaces to the display.
	Present

	// AsyncPoll polls the graphics backend for completed asynchronous work.
	AsyncPoll

	// Snapshot captures frame statistics for observers.
	Snapshot

	// FrameEnd closes the frame: guards restore and per-frame state is retired.
	FrameEnd
)

// Category selects the dispatch strategy used for the module callbacks
// registered against a phase.
type Category int

const (
	// CategoryOrderedBarrier runs callbacks sequentially on the frame
	// goroutine in registration order; each callback observes the mutations
	// of its predecessors.
	CategoryOrderedBarrier Category = iota

	// CategoryParallelFanout fans callbacks out across the engine's worker
	// pool and joins them before the frame advances to the next phase.
	CategoryParallelFanout
)

// Descriptor is one row of the phase table: an id paired with its dispatch
// category and display name. The table is a flat array, not a hierarchy;
// dispatchers branch on the category tag.
type Descriptor struct {
	Id       Id
	Category Category
	Name     string
}

// table is the authoritative phase ordering. Index i holds the descriptor
// for Id(i); tests assert this correspondence.
var table = [...]Descriptor{
	{FrameStart, CategoryOrderedBarrier, "FrameStart"},
	{Input, CategoryOrderedBarrier, "Input"},
	{FixedSimulation, CategoryOrderedBarrier, "FixedSimulation"},
	{GameplaySimulation, CategoryParallelFanout, "GameplaySimulation"},
	{NetworkReconciliation, CategoryOrderedBarrier, "NetworkReconciliation"},
	{RandomSeedManage, CategoryOrderedBarrier, "RandomSeedManage"},
	{SceneMutation, CategoryOrderedBarrier, "SceneMutation"},
	{TransformPropagation, CategoryParallelFanout, "TransformPropagation"},
	{PublishViews, CategoryOrderedBarrier, "PublishViews"},
	{SceneEvaluation, CategoryParallelFanout, "SceneEvaluation"},
	{ResourceStateTransitions, CategoryOrderedBarrier, "ResourceStateTransitions"},
	{PreRender, CategoryOrderedBarrier, "PreRender"},
	{FrameGraphRender, CategoryOrderedBarrier, "FrameGraphRender"},
	{Compositing, CategoryOrderedBarrier, "Compositing"},
	{Present, CategoryOrderedBarrier, "Present"},
	{AsyncPoll, CategoryOrderedBarrier, "AsyncPoll"},
	{Snapshot, CategoryParallelFanout, "Snapshot"},
	{FrameEnd, CategoryOrderedBarrier, "FrameEnd"},
}

// Count returns the number of phases in a frame.
//
// Returns:
//   - int: total phase count
func Count() int {
	return len(table)
}

// Ordered returns the full phase sequence in execution order.
// The returned slice is a copy and safe for the caller to retain.
//
// Returns:
//   - []Id: every phase id, first to last
func Ordered() []Id {
	ids := make([]Id, len(table))
	for i, d := range table {
		ids[i] = d.Id
	}
	return ids
}

// Descriptors returns a copy of the full phase table in execution order.
//
// Returns:
//   - []Descriptor: every phase descriptor, first to last
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(table))
	copy(out, table[:])
	return out
}

// Valid reports whether the id names a phase in the table.
//
// Returns:
//   - bool: true if the id is within the phase range
func (id Id) Valid() bool {
	return id >= 0 && int(id) < len(table)
}

// Category returns the dispatch category of the phase.
// Invalid ids report CategoryOrderedBarrier.
//
// Returns:
//   - Category: the phase's dispatch category
func (id Id) Category() Category {
	if !id.Valid() {
		return CategoryOrderedBarrier
	}
	return table[id].Category
}

// String returns the phase's display name, or "Unknown" for ids outside the
// table.
func (id Id) String() string {
	if !id.Valid() {
		return "Unknown"
	}
	return table[id].Name
}

// String returns the category's display name.
func (c Category) String() string {
	switch c {
	case CategoryParallelFanout:
		return "ParallelFanout"
	default:
		return "OrderedBarrier"
	}
}
