package graphics

import (
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineKind identifies whether a pipeline state is a compute pipeline or
// a render pipeline.
type PipelineKind int

const (
	// PipelineKindRender indicates a render pipeline with vertex and
	// fragment stages.
	PipelineKindRender PipelineKind = iota

	// PipelineKindCompute indicates a compute pipeline with a single
	// compute entry point.
	PipelineKindCompute
)

// pipelineState is the implementation of the PipelineState interface.
// It holds the fixed-function configuration a pass binds when recording and
// the backend pipeline object once the backend has compiled it.
type pipelineState struct {
	kind PipelineKind

	// key is the unique identifier for this state, used for registry lookups
	key string

	// native is the backend pipeline object (*wgpu.RenderPipeline or
	// *wgpu.ComputePipeline); nil until the backend compiles it and always
	// nil on the headless backend
	native any

	depthTestEnabled  bool
	depthWriteEnabled bool
	blendEnabled      bool
	cullMode          wgpu.CullMode
	topology          wgpu.PrimitiveTopology
	blendState        *wgpu.BlendState
}

// PipelineState describes the fixed-function configuration one pass kind
// records with. States are registered once per pass kind in the backend's
// registry and bound by key while recording.
type PipelineState interface {
	// Kind returns the kind of the pipeline state (render or compute).
	//
	// Returns:
	//   - PipelineKind: the pipeline kind
	Kind() PipelineKind

	// Key returns the unique key associated with this state, used for
	// registry lookups.
	//
	// Returns:
	//   - string: the unique key for this state
	Key() string

	// DepthTestEnabled returns whether depth testing is enabled.
	//
	// Returns:
	//   - bool: true if depth testing is enabled
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writing is enabled.
	//
	// Returns:
	//   - bool: true if depth writing is enabled
	DepthWriteEnabled() bool

	// BlendEnabled returns whether blending is enabled.
	//
	// Returns:
	//   - bool: true if blending is enabled
	BlendEnabled() bool

	// CullMode returns the configured cull mode.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode
	CullMode() wgpu.CullMode

	// Topology returns the configured primitive topology.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the primitive topology
	Topology() wgpu.PrimitiveTopology

	// BlendState returns the configured blend state, or nil when blending
	// is disabled.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state
	BlendState() *wgpu.BlendState

	// Native returns the backend pipeline object, or nil when the backend
	// has not compiled one (headless runs never do).
	//
	// Returns:
	//   - any: *wgpu.RenderPipeline, *wgpu.ComputePipeline, or nil
	Native() any

	// SetNative stores the backend pipeline object.
	//
	// Parameters:
	//   - native: the compiled backend pipeline
	SetNative(native any)
}

var _ PipelineState = &pipelineState{}

// NewPipelineState creates a pipeline state with the given key and kind.
// Defaults: depth test and write on, blending off, no culling, triangle
// list topology, premultiplied-alpha blend state available when blending is
// enabled.
//
// Parameters:
//   - key: the unique key for this state
//   - kind: the pipeline kind (render or compute)
//   - options: a variadic list of PipelineStateBuilderOption functions
//
// Returns:
//   - PipelineState: a new state with the specified configuration
func NewPipelineState(key string, kind PipelineKind, options ...PipelineStateBuilderOption) PipelineState {
	s := &pipelineState{
		kind:              kind,
		key:               key,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *pipelineState) Kind() PipelineKind {
	return s.kind
}

func (s *pipelineState) Key() string {
	return s.key
}

func (s *pipelineState) DepthTestEnabled() bool {
	return s.depthTestEnabled
}

func (s *pipelineState) DepthWriteEnabled() bool {
	return s.depthWriteEnabled
}

func (s *pipelineState) BlendEnabled() bool {
	return s.blendEnabled
}

func (s *pipelineState) CullMode() wgpu.CullMode {
	return s.cullMode
}

func (s *pipelineState) Topology() wgpu.PrimitiveTopology {
	return s.topology
}

func (s *pipelineState) BlendState() *wgpu.BlendState {
	if !s.blendEnabled {
		return nil
	}
	return s.blendState
}

func (s *pipelineState) Native() any {
	return s.native
}

func (s *pipelineState) SetNative(native any) {
	s.native = native
}

// PipelineStateRegistry caches pipeline states by key. The backend owns one
// registry; passes register their states on first use and bind them by key
// while recording.
type PipelineStateRegistry struct {
	mu *sync.Mutex

	states map[string]PipelineState
}

// NewPipelineStateRegistry creates an empty registry.
//
// Returns:
//   - *PipelineStateRegistry: the newly created registry
func NewPipelineStateRegistry() *PipelineStateRegistry {
	return &PipelineStateRegistry{
		mu:     &sync.Mutex{},
		states: make(map[string]PipelineState),
	}
}

// Register stores a state under its key. Re-registering a key keeps the
// existing state so backend-compiled pipelines are not dropped.
//
// Parameters:
//   - state: the state to register
//
// Returns:
//   - PipelineState: the registered state (the existing one on a key hit)
func (r *PipelineStateRegistry) Register(state PipelineState) PipelineState {
	if state == nil {
		panic("graphics: Register requires a non-nil pipeline state")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.states[state.Key()]; ok {
		return existing
	}
	r.states[state.Key()] = state
	return state
}

// Lookup returns the state registered under key, or nil.
//
// Parameters:
//   - key: the state key
//
// Returns:
//   - PipelineState: the registered state, or nil if absent
func (r *PipelineStateRegistry) Lookup(key string) PipelineState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[key]
}

// Remove drops the state registered under key.
//
// Parameters:
//   - key: the state key
func (r *PipelineStateRegistry) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, key)
}

// Keys returns the registered keys in no particular order.
//
// Returns:
//   - []string: the registered keys
func (r *PipelineStateRegistry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.states))
	for key := range r.states {
		keys = append(keys, key)
	}
	return keys
}
