package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxygen/engine/phase"
	"github.com/Carmen-Shannon/oxygen/engine/scene"
	"github.com/Carmen-Shannon/oxygen/engine/view"
)

func TestNewContext_StartsAtFrameStart(t *testing.T) {
	fc, tag := NewContext(nil)
	require.True(t, tag.Valid())

	assert.Equal(t, phase.FrameStart, fc.CurrentPhase())
	assert.Equal(t, uint64(0), fc.FrameIndex())
	assert.Nil(t, fc.Scene())
	assert.Empty(t, fc.Views())
	assert.Nil(t, fc.CompositeTarget())
}

func TestContext_Reset(t *testing.T) {
	fc, tag := NewContext(nil)

	fc.SetScene(tag, scene.NewScene("test"))
	fc.SetViews([]view.CompositionView{{Key: "main"}})
	fc.AdvancePhase(tag, phase.FrameEnd)

	fc.Reset(tag, 7, 1)
	assert.Equal(t, uint64(7), fc.FrameIndex())
	assert.Equal(t, 1, fc.Slot())
	assert.Equal(t, phase.FrameStart, fc.CurrentPhase())
	assert.Nil(t, fc.Scene(), "reset clears the scene")
	assert.Empty(t, fc.Views(), "reset clears the view list")
}

func TestContext_AdvancePhase_Monotonic(t *testing.T) {
	fc, tag := NewContext(nil)

	for _, p := range phase.Ordered()[1:] {
		fc.AdvancePhase(tag, p)
		assert.Equal(t, p, fc.CurrentPhase())
	}
}

func TestContext_AdvancePhase_RegressionPanics(t *testing.T) {
	fc, tag := NewContext(nil)
	fc.AdvancePhase(tag, phase.PreRender)

	assert.Panics(t, func() {
		fc.AdvancePhase(tag, phase.Input)
	}, "phase regression within a frame is a programming error")
}

func TestContext_TagGating(t *testing.T) {
	fc, _ := NewContext(nil)
	_, otherTag := NewContext(nil)

	// A tag minted for a different context must not pass the check.
	assert.Panics(t, func() { fc.AdvancePhase(otherTag, phase.Input) })
	assert.Panics(t, func() { fc.Reset(otherTag, 1, 0) })
	assert.Panics(t, func() { fc.SetScene(otherTag, nil) })

	// The zero tag matches nothing.
	assert.Panics(t, func() { fc.AdvancePhase(Tag{}, phase.Input) })
}

func TestContext_SetViews_OpenToModules(t *testing.T) {
	fc, _ := NewContext(nil)

	views := []view.CompositionView{{Key: "main"}, {Key: "minimap"}}
	fc.SetViews(views)

	got := fc.Views()
	require.Len(t, got, 2)
	assert.Equal(t, view.Key("main"), got[0].Key)

	// The returned slice is a copy; mutating it must not leak back.
	got[0].Key = "mutated"
	assert.Equal(t, view.Key("main"), fc.Views()[0].Key)
}

func TestContext_SceneInstall(t *testing.T) {
	fc, tag := NewContext(nil)
	s := scene.NewScene("level-1")

	fc.SetScene(tag, s)
	require.NotNil(t, fc.Scene())
	assert.Equal(t, "level-1", fc.Scene().Name())
}

func TestTag_ZeroInvalid(t *testing.T) {
	var tag Tag
	assert.False(t, tag.Valid())
}
