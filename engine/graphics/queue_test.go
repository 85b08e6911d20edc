package graphics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordedList(t *testing.T, role QueueRole, label string) CommandList {
	t.Helper()
	list := NewCommandList(role, label)
	require.NoError(t, list.Begin())
	require.NoError(t, list.MarkRecorded())
	return list
}

func TestHeadlessQueue_SubmitRequiresRecordedState(t *testing.T) {
	q := NewHeadlessQueue(QueueRoleGraphics)

	free := NewCommandList(QueueRoleGraphics, "free")
	assert.Error(t, q.Submit(free), "a Free list is not submittable")

	assert.Error(t, q.SubmitBatch([]CommandList{nil}), "nil lists are rejected")

	recorded := recordedList(t, QueueRoleGraphics, "ok")
	assert.NoError(t, q.Submit(recorded))
}

func TestHeadlessQueue_FenceMonotonic(t *testing.T) {
	q := NewHeadlessQueue(QueueRoleCompute)
	assert.Equal(t, uint64(0), q.CurrentValue())

	v1 := q.Signal()
	v2 := q.Signal()
	assert.Equal(t, uint64(1), v1)
	assert.Equal(t, uint64(2), v2)
	assert.Equal(t, uint64(2), q.CurrentValue())

	// Headless completion is synchronous.
	assert.Equal(t, uint64(2), q.CompletedValue())
}

func TestHeadlessQueue_SignalValue(t *testing.T) {
	q := NewHeadlessQueue(QueueRoleCopy)

	q.SignalValue(10)
	assert.Equal(t, uint64(10), q.CurrentValue())

	// Lower values never roll the fence back.
	q.SignalValue(5)
	assert.Equal(t, uint64(10), q.CurrentValue())
}

func TestHeadlessQueue_Wait(t *testing.T) {
	q := NewHeadlessQueue(QueueRoleGraphics)
	q.Signal()

	assert.NoError(t, q.Wait(1, time.Millisecond))
	assert.Error(t, q.Wait(2, time.Millisecond), "waiting on an unsignaled value fails")
}

func TestQueueRole_String(t *testing.T) {
	assert.Equal(t, "Graphics", QueueRoleGraphics.String())
	assert.Equal(t, "Compute", QueueRoleCompute.String())
	assert.Equal(t, "Copy", QueueRoleCopy.String())
}
