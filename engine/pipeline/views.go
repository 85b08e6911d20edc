package pipeline

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxygen/engine/camera"
	"github.com/Carmen-Shannon/oxygen/engine/frame"
	"github.com/Carmen-Shannon/oxygen/engine/graphics"
	"github.com/Carmen-Shannon/oxygen/engine/scene"
	"github.com/Carmen-Shannon/oxygen/engine/view"
)

// activeView is the lifecycle record for one published view: its stable id,
// its GPU targets, and per-frame derived state.
type activeView struct {
	key    view.Key
	id     view.Id
	target *graphics.ViewTarget

	// descriptor is the latest CompositionView synced for this view.
	descriptor view.CompositionView

	// cam is rebuilt each frame from the descriptor's camera node.
	cam camera.Camera

	// plan is the current frame's render plan.
	plan view.RenderPlan

	lastSeenFrame uint64
}

// viewLifecycle owns the set of active views and their GPU resources. Views
// are matched to resources by key; ids are assigned once at first publish
// and stay stable until the view is retired. Retired views release their
// targets through the deferred reclaimer, never immediately.
type viewLifecycle struct {
	mu *sync.Mutex

	active map[view.Key]*activeView
	stale  []*activeView

	nextId view.Id
}

func newViewLifecycle() *viewLifecycle {
	return &viewLifecycle{
		mu:     &sync.Mutex{},
		active: make(map[view.Key]*activeView),
	}
}

// sync reconciles the frame's descriptor list against the active set. New
// keys allocate view targets sized to their viewport; keys absent from the
// list are moved to the stale set for release. Resized views reallocate
// their targets, retiring the old ones through the stale set.
func (l *viewLifecycle) sync(fc frame.Context, gfx graphics.Graphics) error {
	descriptors := fc.Views()
	frameIndex := fc.FrameIndex()

	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	seen := make(map[view.Key]bool, len(descriptors))
	for _, desc := range descriptors {
		if desc.Key == "" {
			errs = append(errs, fmt.Errorf("pipeline: view descriptor with empty key rejected"))
			continue
		}
		if seen[desc.Key] {
			errs = append(errs, fmt.Errorf("pipeline: duplicate view key %q rejected", desc.Key))
			continue
		}
		seen[desc.Key] = true

		width, height := targetSize(desc)
		av, ok := l.active[desc.Key]
		if ok {
			if av.target != nil && (av.target.Width != width || av.target.Height != height) {
				// Resize retires the old target and allocates fresh
				// ones; the id survives.
				l.stale = append(l.stale, &activeView{key: av.key, target: av.target})
				av.target = nil
			}
			av.descriptor = desc
			av.lastSeenFrame = frameIndex
		} else {
			av = &activeView{
				key:           desc.Key,
				descriptor:    desc,
				lastSeenFrame: frameIndex,
			}
			l.active[desc.Key] = av
		}
		if av.target == nil {
			target, err := gfx.CreateViewTarget(string(desc.Key), width, height)
			if err != nil {
				errs = append(errs, fmt.Errorf("pipeline: allocating targets for view %q: %w", desc.Key, err))
				continue
			}
			av.target = target
		}
	}

	for key, av := range l.active {
		if !seen[key] {
			l.stale = append(l.stale, av)
			delete(l.active, key)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("pipeline: view sync: %w", errors.Join(errs...))
	}
	return nil
}

// publish assigns stable ids to newly active views and writes the ids back
// into the frame's descriptor list. Ids are never zero and are not reused
// while any view holds them.
func (l *viewLifecycle) publish(fc frame.Context) {
	descriptors := fc.Views()

	l.mu.Lock()
	for i := range descriptors {
		av, ok := l.active[descriptors[i].Key]
		if !ok {
			continue
		}
		if !av.id.Valid() {
			l.nextId++
			if l.nextId == view.InvalidId {
				l.nextId++
			}
			av.id = l.nextId
			log.Printf("[Pipeline] published view %q as id %d", av.key, av.id)
		}
		descriptors[i].Id = av.id
		av.descriptor = descriptors[i]
	}
	l.mu.Unlock()

	fc.SetViews(descriptors)
}

// retireStale hands every stale view's targets to the graphics layer for
// deferred release and invalidates their ids.
func (l *viewLifecycle) retireStale(gfx graphics.Graphics) {
	l.mu.Lock()
	stale := l.stale
	l.stale = nil
	l.mu.Unlock()

	for _, av := range stale {
		if av.target != nil {
			gfx.ReleaseViewTarget(av.target)
		}
		if av.id.Valid() {
			log.Printf("[Pipeline] retired view %q (id %d)", av.key, av.id)
			av.id = view.InvalidId
		}
	}
}

// rebuildCameras refreshes each active view's camera from its camera node's
// world transform. Views without a camera node keep a nil camera.
func (l *viewLifecycle) rebuildCameras(s scene.Scene) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, av := range l.active {
		av.cam = nil
		if s == nil || !av.descriptor.HasCamera() {
			continue
		}
		node := s.Node(av.descriptor.CameraNode)
		if node == nil {
			continue
		}
		desc := node.Camera()
		if desc == nil {
			continue
		}
		av.cam = camera.FromDescriptor(*desc, node.WorldTransform(), av.descriptor.Viewport.Aspect())
	}
}

// lookup returns the lifecycle record for a key, or nil when the view is
// not active.
func (l *viewLifecycle) lookup(key view.Key) *activeView {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active[key]
}

// retireAll moves every active view to the stale set. Used at shutdown so
// all view targets flow through the reclaimer.
func (l *viewLifecycle) retireAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, av := range l.active {
		l.stale = append(l.stale, av)
		delete(l.active, key)
	}
}

func targetSize(desc view.CompositionView) (uint32, uint32) {
	region := desc.Viewport.Region()
	width, height := region.Width, region.Height
	if width == 0 {
		width = 1
	}
	if height == 0 {
		height = 1
	}
	return width, height
}
