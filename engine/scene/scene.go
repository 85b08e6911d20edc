// package scene defines the scene surface the frame orchestration core
// consumes: ordered root nodes, child traversal, transforms, camera and light
// descriptors, the environment description, and a stable node-id lookup that
// holds for the duration of a frame. The package also ships a basic
// in-memory implementation used by examples and tests; richer scene graphs
// only need to satisfy the interfaces.
package scene

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxygen/common"
)

// NodeID uniquely identifies a node within a scene. Ids are stable for at
// least the duration of a frame. The zero value is InvalidNodeID.
type NodeID uint64

// InvalidNodeID marks the absence of a node reference.
const InvalidNodeID NodeID = 0

// Scene is the read surface the engine and pipeline consume each frame.
// Implementations must keep node ids stable while a frame is in flight.
// Thread-safe for concurrent reads.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// RootNodes returns the ordered list of root nodes.
	//
	// Returns:
	//   - []Node: the roots in scene order; the slice is a copy
	RootNodes() []Node

	// Node retrieves a node by its id. Returns nil if no node with the id
	// exists in the scene.
	//
	// Parameters:
	//   - id: the node's unique id
	//
	// Returns:
	//   - Node: the node or nil
	Node(id NodeID) Node

	// Environment returns the scene's environment description (sky, fog,
	// sky light, clouds, post-process volume). Absent systems are nil.
	//
	// Returns:
	//   - Environment: the environment description
	Environment() Environment

	// Lights returns the descriptors of every light in the scene.
	//
	// Returns:
	//   - []LightDesc: the scene's lights; the slice is a copy
	Lights() []LightDesc
}

// Node is one element of the scene graph. Transforms are 4x4 column-major
// matrices; world transforms are valid after transform propagation has run
// for the frame.
type Node interface {
	// ID returns the node's stable id.
	ID() NodeID

	// Name returns the node's display name.
	Name() string

	// Children returns the node's children in scene order.
	//
	// Returns:
	//   - []Node: the children; the slice is a copy
	Children() []Node

	// LocalTransform returns the node's transform relative to its parent.
	//
	// Returns:
	//   - [16]float32: the local transform, column-major
	LocalTransform() [16]float32

	// SetLocalTransform replaces the node's local transform. The world
	// transform becomes stale until the next transform propagation.
	//
	// Parameters:
	//   - m: the new local transform, column-major
	SetLocalTransform(m [16]float32)

	// SetPose builds the local transform from a position, Euler rotation,
	// and scale. Rotation order is yaw-pitch-roll (Y, X, Z), angles in
	// radians.
	//
	// Parameters:
	//   - position: translation in parent space
	//   - rotation: per-axis rotation angles in radians
	//   - scale: per-axis scale factors
	SetPose(position, rotation, scale [3]float32)

	// WorldTransform returns the node's world transform as of the last
	// propagation.
	//
	// Returns:
	//   - [16]float32: the world transform, column-major
	WorldTransform() [16]float32

	// Camera returns the camera descriptor attached to this node, or nil.
	Camera() *CameraDesc

	// Light returns the light descriptor attached to this node, or nil.
	Light() *LightDesc
}

// MutableScene extends Scene with the structural mutations the basic
// implementation supports. Mutations belong in the SceneMutation phase.
type MutableScene interface {
	Scene

	// AddRoot creates a new root node with the given name.
	//
	// Parameters:
	//   - name: the node's display name
	//
	// Returns:
	//   - Node: the created node
	AddRoot(name string) Node

	// AddChild creates a new node under the given parent. Panics if the
	// parent does not belong to this scene.
	//
	// Parameters:
	//   - parent: the id of the parent node
	//   - name: the node's display name
	//
	// Returns:
	//   - Node: the created node
	AddChild(parent NodeID, name string) Node

	// Remove detaches the node and its subtree from the scene and
	// invalidates their ids.
	//
	// Parameters:
	//   - id: the id of the node to remove
	Remove(id NodeID)

	// SetEnvironment replaces the scene's environment description.
	//
	// Parameters:
	//   - env: the new environment
	SetEnvironment(env Environment)

	// PropagateTransforms recomputes world transforms for every node from
	// the roots down. Call once per frame during TransformPropagation.
	PropagateTransforms()
}

// nodeIDCounter hands out process-wide unique node ids starting at 1 so the
// zero value stays invalid.
var nodeIDCounter atomic.Uint64

type basicScene struct {
	mu *sync.RWMutex

	name  string
	roots []*basicNode
	byID  map[NodeID]*basicNode
	env   Environment
}

var _ MutableScene = &basicScene{}

// NewScene creates an empty in-memory scene with the provided options.
//
// Parameters:
//   - name: the scene's identifier
//   - options: functional options for scene configuration
//
// Returns:
//   - MutableScene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) MutableScene {
	s := &basicScene{
		mu:   &sync.RWMutex{},
		name: name,
		byID: make(map[NodeID]*basicNode),
	}

	for _, opt := range options {
		opt(s)
	}

	return s
}

func (s *basicScene) Name() string {
	return s.name
}

func (s *basicScene) RootNodes() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Node, len(s.roots))
	for i, n := range s.roots {
		out[i] = n
	}
	return out
}

func (s *basicScene) Node(id NodeID) Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.byID[id]
	if !ok {
		return nil
	}
	return n
}

func (s *basicScene) Environment() Environment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.env
}

func (s *basicScene) SetEnvironment(env Environment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.env = env
}

func (s *basicScene) Lights() []LightDesc {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []LightDesc
	for _, n := range s.byID {
		if n.light != nil {
			out = append(out, *n.light)
		}
	}
	return out
}

func (s *basicScene) AddRoot(name string) Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := newBasicNode(name)
	s.roots = append(s.roots, n)
	s.byID[n.id] = n
	return n
}

func (s *basicScene) AddChild(parent NodeID, name string) Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[parent]
	if !ok {
		panic("scene: AddChild parent does not belong to this scene")
	}

	n := newBasicNode(name)
	n.parent = p
	p.children = append(p.children, n)
	s.byID[n.id] = n
	return n
}

func (s *basicScene) Remove(id NodeID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.byID[id]
	if !ok {
		return
	}

	if n.parent != nil {
		n.parent.children = removeNode(n.parent.children, n)
		n.parent = nil
	} else {
		s.roots = removeNode(s.roots, n)
	}

	// Drop the whole subtree from the id map.
	var drop func(*basicNode)
	drop = func(node *basicNode) {
		delete(s.byID, node.id)
		for _, c := range node.children {
			drop(c)
		}
	}
	drop(n)
}

func (s *basicScene) PropagateTransforms() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var walk func(n *basicNode, parentWorld [16]float32)
	walk = func(n *basicNode, parentWorld [16]float32) {
		common.Mul4(n.world[:], parentWorld[:], n.local[:])
		for _, c := range n.children {
			walk(c, n.world)
		}
	}

	var identity [16]float32
	common.Identity(identity[:])
	for _, root := range s.roots {
		walk(root, identity)
	}
}

func removeNode(nodes []*basicNode, target *basicNode) []*basicNode {
	for i, n := range nodes {
		if n == target {
			return append(nodes[:i], nodes[i+1:]...)
		}
	}
	return nodes
}

type basicNode struct {
	id     NodeID
	name   string
	parent *basicNode

	children []*basicNode

	local [16]float32
	world [16]float32

	camera *CameraDesc
	light  *LightDesc
}

var _ Node = &basicNode{}

func newBasicNode(name string) *basicNode {
	n := &basicNode{
		id:   NodeID(nodeIDCounter.Add(1)),
		name: name,
	}
	common.Identity(n.local[:])
	common.Identity(n.world[:])
	return n
}

func (n *basicNode) ID() NodeID {
	return n.id
}

func (n *basicNode) Name() string {
	return n.name
}

func (n *basicNode) Children() []Node {
	out := make([]Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *basicNode) LocalTransform() [16]float32 {
	return n.local
}

func (n *basicNode) SetLocalTransform(m [16]float32) {
	n.local = m
}

func (n *basicNode) SetPose(position, rotation, scale [3]float32) {
	common.BuildModelMatrix(n.local[:],
		position[0], position[1], position[2],
		rotation[0], rotation[1], rotation[2],
		scale[0], scale[1], scale[2])
}

func (n *basicNode) WorldTransform() [16]float32 {
	return n.world
}

func (n *basicNode) Camera() *CameraDesc {
	return n.camera
}

func (n *basicNode) Light() *LightDesc {
	return n.light
}

// AttachCamera attaches a camera descriptor to the node, replacing any
// existing one. Only nodes created by this package support attachment.
//
// Parameters:
//   - n: the node to attach to
//   - desc: the camera descriptor
func AttachCamera(n Node, desc CameraDesc) {
	if bn, ok := n.(*basicNode); ok {
		bn.camera = &desc
	}
}

// AttachLight attaches a light descriptor to the node, replacing any
// existing one. Only nodes created by this package support attachment.
//
// Parameters:
//   - n: the node to attach to
//   - desc: the light descriptor
func AttachLight(n Node, desc LightDesc) {
	if bn, ok := n.(*basicNode); ok {
		bn.light = &desc
	}
}
