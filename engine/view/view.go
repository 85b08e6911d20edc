// package view holds the per-view data types exchanged between the engine,
// the forward pipeline, and the compositor: composition descriptors supplied
// by the application, stable view identifiers assigned when a view is
// published, and the plain-value render plan the planner derives each frame.
package view

import (
	"github.com/google/uuid"

	"github.com/Carmen-Shannon/oxygen/common"
	"github.com/Carmen-Shannon/oxygen/engine/scene"
)

// Id is the stable identifier assigned to a view when it is first published.
// An Id stays constant for as long as the view remains active and may be
// reused only after the view's resources have been released. The zero value
// is InvalidId.
type Id uint32

// InvalidId marks a view that has not been published or whose id has been
// invalidated after release.
const InvalidId Id = 0

// Valid reports whether the id identifies a published view.
//
// Returns:
//   - bool: true if the id was assigned by the view lifecycle service
func (id Id) Valid() bool {
	return id != InvalidId
}

// Key is the caller-provided identity of a view. The view lifecycle service
// matches descriptors to existing GPU resources by key, so a view that keeps
// its key across frames keeps its render targets and its published Id.
type Key string

// NewKey generates a fresh unique view key. Callers that manage their own
// identity scheme may use any stable string instead.
//
// Returns:
//   - Key: a new universally unique view key
func NewKey() Key {
	return Key(uuid.NewString())
}

// ZOrder places a view into one of the fixed compositing bands. Views
// composite back-to-front by band: Scene first, then Overlay, then Tools.
type ZOrder int

const (
	// ZOrderScene is the base band holding world rendering output.
	ZOrderScene ZOrder = iota

	// ZOrderOverlay sits above the scene band; used for HUD-style views.
	ZOrderOverlay

	// ZOrderTools is the topmost band; used for editor and debug tooling
	// views whose content is drawn by the overlay callback.
	ZOrderTools
)

// String returns the band's display name.
func (z ZOrder) String() string {
	switch z {
	case ZOrderOverlay:
		return "Overlay"
	case ZOrderTools:
		return "Tools"
	default:
		return "Scene"
	}
}

// CompositionView describes one view the application wants rendered and
// composited this frame. The engine carries the ordered descriptor list in
// the frame context; the pipeline consumes it at PublishViews and PreRender.
type CompositionView struct {
	// Key is the stable identity used to match this descriptor to the
	// view's GPU resources across frames. Empty keys are rejected by the
	// view lifecycle service.
	Key Key

	// Viewport is the screen-space rectangle and depth range the view
	// renders into.
	Viewport common.Viewport

	// CameraNode optionally references the scene node whose camera drives
	// this view. Zero means no scene camera is attached.
	CameraNode scene.NodeID

	// ZOrder selects the compositing band for this view's output.
	ZOrder ZOrder

	// ShouldClear requests that the view's SDR output be cleared before
	// use when the scene-linear path does not run for this view.
	ShouldClear bool

	// ForceWireframe forces wireframe rendering for this view regardless
	// of the pipeline's committed render mode.
	ForceWireframe bool

	// OnOverlay is an optional CPU-side draw callback executed while the
	// view's SDR target is bound. Tools-band views render exclusively
	// through this callback.
	OnOverlay func(viewport common.Viewport)

	// Id is the published view id. It is written back by the view
	// lifecycle service during PublishViews and is InvalidId before the
	// view's first publish.
	Id Id
}

// HasCamera reports whether the descriptor references a scene camera node.
//
// Returns:
//   - bool: true if CameraNode is set
func (v CompositionView) HasCamera() bool {
	return v.CameraNode != scene.InvalidNodeID
}
