package phase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrdered_FullSequence(t *testing.T) {
	ids := Ordered()
	require.Len(t, ids, Count())

	assert.Equal(t, FrameStart, ids[0], "frames open with FrameStart")
	assert.Equal(t, FrameEnd, ids[len(ids)-1], "frames close with FrameEnd")

	// Index i must hold Id(i) so table lookups stay O(1).
	for i, id := range ids {
		assert.Equal(t, Id(i), id, "phase table index mismatch at %d", i)
	}
}

func TestOrdered_ReturnsCopy(t *testing.T) {
	first := Ordered()
	first[0] = FrameEnd

	second := Ordered()
	assert.Equal(t, FrameStart, second[0], "mutating the returned slice must not affect the table")
}

func TestId_Category(t *testing.T) {
	fanout := []Id{GameplaySimulation, TransformPropagation, SceneEvaluation, Snapshot}
	for _, id := range fanout {
		assert.Equal(t, CategoryParallelFanout, id.Category(), "%s should fan out", id)
	}

	for _, id := range Ordered() {
		isFanout := false
		for _, f := range fanout {
			if id == f {
				isFanout = true
			}
		}
		if !isFanout {
			assert.Equal(t, CategoryOrderedBarrier, id.Category(), "%s should be an ordered barrier", id)
		}
	}
}

func TestId_Valid(t *testing.T) {
	assert.True(t, FrameStart.Valid())
	assert.True(t, FrameEnd.Valid())
	assert.False(t, Id(-1).Valid())
	assert.False(t, Id(Count()).Valid())
}

func TestId_String(t *testing.T) {
	assert.Equal(t, "FrameStart", FrameStart.String())
	assert.Equal(t, "FrameGraphRender", FrameGraphRender.String())
	assert.Equal(t, "Unknown", Id(99).String())

	assert.Equal(t, "OrderedBarrier", CategoryOrderedBarrier.String())
	assert.Equal(t, "ParallelFanout", CategoryParallelFanout.String())
}

func TestDescriptors_MatchOrdered(t *testing.T) {
	descriptors := Descriptors()
	ids := Ordered()
	require.Len(t, descriptors, len(ids))

	for i, d := range descriptors {
		assert.Equal(t, ids[i], d.Id)
		assert.Equal(t, ids[i].Category(), d.Category)
		assert.Equal(t, ids[i].String(), d.Name)
	}
}

func TestInvalidId_DefaultsToOrderedBarrier(t *testing.T) {
	assert.Equal(t, CategoryOrderedBarrier, Id(-3).Category())
}
