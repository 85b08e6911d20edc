// package camera computes per-view matrices from perspective settings and a
// position/target pair. The pipeline builds cameras from scene camera
// descriptors each frame; the matrices feed the planner, the light culling
// configuration, and per-view frustum extraction.
package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxygen/common"
	"github.com/Carmen-Shannon/oxygen/engine/scene"
)

type cameraImpl struct {
	mu *sync.Mutex

	position [3]float32
	target   [3]float32
	up       [3]float32

	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix              [16]float32
	projectionMatrix        [16]float32
	viewProjectionMatrix    [16]float32
	inverseProjectionMatrix [16]float32
}

// Camera holds perspective settings and computes view/projection matrices.
// Matrices recompute on every setter; reads return the cached values.
// Thread-safe for concurrent access.
type Camera interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - x, y, z: position components
	Position() (x, y, z float32)

	// Target returns the world-space point the camera looks at.
	//
	// Returns:
	//   - x, y, z: target components
	Target() (x, y, z float32)

	// Up returns the camera's up vector.
	//
	// Returns:
	//   - x, y, z: up vector components
	Up() (x, y, z float32)

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// ViewMatrix returns the current 4x4 view matrix as 16 floats
	// (column-major).
	ViewMatrix() [16]float32

	// ProjectionMatrix returns the current 4x4 projection matrix as 16
	// floats (column-major).
	ProjectionMatrix() [16]float32

	// ViewProjectionMatrix returns the current combined view-projection
	// matrix as 16 floats (column-major).
	ViewProjectionMatrix() [16]float32

	// InverseProjectionMatrix returns the inverse of the current
	// projection matrix as 16 floats (column-major). Used by the tiled
	// light culling pass to reconstruct per-tile view-space frustum
	// planes from screen coordinates.
	InverseProjectionMatrix() [16]float32

	// Frustum extracts the camera's world-space frustum planes from the
	// current view-projection matrix.
	//
	// Returns:
	//   - common.Frustum: the six normalized frustum planes
	Frustum() common.Frustum

	// SetPosition moves the camera and recomputes matrices.
	//
	// Parameters:
	//   - x, y, z: the new world-space position
	SetPosition(x, y, z float32)

	// SetTarget repoints the camera and recomputes matrices.
	//
	// Parameters:
	//   - x, y, z: the new world-space target
	SetTarget(x, y, z float32)

	// SetUp sets the camera's up vector and recomputes matrices.
	//
	// Parameters:
	//   - x, y, z: up vector components
	SetUp(x, y, z float32)

	// SetFov sets the vertical field of view in radians and recomputes
	// matrices.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)

	// SetAspect sets the aspect ratio and recomputes matrices. Called on
	// viewport changes.
	//
	// Parameters:
	//   - aspect: width / height
	SetAspect(aspect float32)

	// SetClipPlanes sets the near and far plane distances and recomputes
	// matrices.
	//
	// Parameters:
	//   - near, far: clipping plane distances
	SetClipPlanes(near, far float32)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a camera with sensible defaults (60° vertical FOV,
// aspect 16:9, near 0.1, far 1000, at the origin looking down -Z) and
// applies the provided options.
//
// Parameters:
//   - options: functional options for camera configuration
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		target: [3]float32{0, 0, -1},
		up:     [3]float32{0, 1, 0},
		fov:    1.0471976, // 60 degrees
		aspect: 16.0 / 9.0,
		near:   0.1,
		far:    1000,
	}

	for _, opt := range options {
		opt(c)
	}

	c.recompute()
	return c
}

// FromDescriptor builds a camera from a scene camera descriptor and the
// owning node's world transform. The node's translation column positions
// the camera; its forward axis (-Z column) picks the target.
//
// Parameters:
//   - desc: the scene camera descriptor
//   - world: the camera node's world transform, column-major
//   - aspect: the view's aspect ratio
//
// Returns:
//   - Camera: the newly created camera
func FromDescriptor(desc scene.CameraDesc, world [16]float32, aspect float32) Camera {
	// Column 3 holds the translation; column 2 is the local +Z axis, and
	// cameras look down -Z.
	px, py, pz := world[12], world[13], world[14]
	fx, fy, fz := -world[8], -world[9], -world[10]

	return NewCamera(
		WithPosition(px, py, pz),
		WithTarget(px+fx, py+fy, pz+fz),
		WithFov(desc.FovY),
		WithAspect(aspect),
		WithClipPlanes(desc.Near, desc.Far),
	)
}

// recompute rebuilds all four matrices from the current settings.
// Caller must hold the mutex (or be the constructor).
func (c *cameraImpl) recompute() {
	common.LookAt(c.viewMatrix[:],
		c.position[0], c.position[1], c.position[2],
		c.target[0], c.target[1], c.target[2],
		c.up[0], c.up[1], c.up[2])
	common.Perspective(c.projectionMatrix[:], c.fov, c.aspect, c.near, c.far)
	common.Mul4(c.viewProjectionMatrix[:], c.projectionMatrix[:], c.viewMatrix[:])
	if !common.Invert4(c.inverseProjectionMatrix[:], c.projectionMatrix[:]) {
		common.Identity(c.inverseProjectionMatrix[:])
	}
}

func (c *cameraImpl) Position() (float32, float32, float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position[0], c.position[1], c.position[2]
}

func (c *cameraImpl) Target() (float32, float32, float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target[0], c.target[1], c.target[2]
}

func (c *cameraImpl) Up() (float32, float32, float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up[0], c.up[1], c.up[2]
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) InverseProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inverseProjectionMatrix
}

func (c *cameraImpl) Frustum() common.Frustum {
	c.mu.Lock()
	defer c.mu.Unlock()
	return common.ExtractFrustumFromMatrix(c.viewProjectionMatrix[:])
}

func (c *cameraImpl) SetPosition(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = [3]float32{x, y, z}
	c.recompute()
}

func (c *cameraImpl) SetTarget(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = [3]float32{x, y, z}
	c.recompute()
}

func (c *cameraImpl) SetUp(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.up = [3]float32{x, y, z}
	c.recompute()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.recompute()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if aspect <= 0 {
		aspect = 1
	}
	c.aspect = aspect
	c.recompute()
}

func (c *cameraImpl) SetClipPlanes(near, far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.far = far
	c.recompute()
}
