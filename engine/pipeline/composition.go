package pipeline

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxygen/common"
	"github.com/Carmen-Shannon/oxygen/engine/graphics"
	"github.com/Carmen-Shannon/oxygen/engine/view"
)

// CompositeTask copies one view's SDR output into a region of the
// backbuffer.
type CompositeTask struct {
	// ViewId identifies the source view.
	ViewId view.Id

	// Source is the view's SDR output.
	Source graphics.Framebuffer

	// Region is the destination rectangle on the backbuffer.
	Region common.Region

	// ZOrder is the view's compositing band, kept for diagnostics.
	ZOrder view.ZOrder
}

// CompositionSubmission is the ordered set of composite tasks for one frame.
// Tasks are sorted back-to-front by compositing band; within a band the
// application's view order is preserved.
type CompositionSubmission struct {
	Tasks []CompositeTask
}

// BuildComposition collects the composite tasks for the frame's views in
// band order. Views whose plan skips the composite path, whose viewport is
// empty, or whose targets are missing contribute nothing.
//
// Parameters:
//   - views: the frame's descriptor list in application order
//   - lookup: resolves a view key to its lifecycle record
//
// Returns:
//   - CompositionSubmission: the ordered composite tasks
func BuildComposition(views []view.CompositionView, lookup func(view.Key) *activeView) CompositionSubmission {
	var submission CompositionSubmission
	for _, desc := range views {
		av := lookup(desc.Key)
		if av == nil || av.target == nil || !av.plan.RunCompositePath {
			continue
		}
		region := desc.Viewport.Region()
		if region.Empty() {
			continue
		}
		submission.Tasks = append(submission.Tasks, CompositeTask{
			ViewId: av.id,
			Source: av.target.SDRFramebuffer(),
			Region: region,
			ZOrder: desc.ZOrder,
		})
	}

	// Stable sort keeps application order within each band.
	sort.SliceStable(submission.Tasks, func(i, j int) bool {
		return submission.Tasks[i].ZOrder < submission.Tasks[j].ZOrder
	})
	return submission
}

// recordComposition records the frame's composite tasks into one deferred
// command list on the graphics queue and flushes all deferred work. The
// backbuffer transitions to a render target before the copies and to the
// present state after.
func recordComposition(commander graphics.Commander, queue graphics.CommandQueue, backbuffer graphics.Framebuffer, submission CompositionSubmission) error {
	if backbuffer == nil || len(submission.Tasks) == 0 {
		return commander.SubmitDeferredCommandLists()
	}

	rec, scope, err := commander.AcquireCommandRecorder(queue, "composite", false)
	if err != nil {
		return fmt.Errorf("pipeline: acquiring composite recorder: %w", err)
	}
	defer scope.Close()

	rec.Transition(backbuffer.ColorTexture(), graphics.ResourceStateRenderTarget)
	for _, task := range submission.Tasks {
		rec.DebugMarker(fmt.Sprintf("composite:view-%d:%s", task.ViewId, task.ZOrder))
		rec.Blit(task.Source, backbuffer, task.Region)
	}
	rec.Transition(backbuffer.ColorTexture(), graphics.ResourceStatePresent)

	scope.Close()
	return commander.SubmitDeferredCommandLists()
}
