package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroHandleIsInvalid(t *testing.T) {
	var h Handle
	assert.False(t, h.Valid())
	assert.Equal(t, InvalidSlot, h.Slot())
	assert.Nil(t, h.Pool())
	assert.Equal(t, "Handle(invalid)", h.String())
	assert.False(t, h.Clone().Valid())
	assert.True(t, h.Equal(Handle{}))
	assert.NotPanics(t, h.Release)
	assert.PanicsWithError(t, "pool.Handle.Batch: invalid handle", func() { h.Batch() })
}

func TestHandleCloneTakeRelease(t *testing.T) {
	p := newPool(t)
	h := add(p, 1)
	slot := h.Slot()
	require.Equal(t, 1, p.RefCount(slot))

	c := h.Clone()
	assert.Equal(t, 2, p.RefCount(slot))
	assert.True(t, c.Equal(h))
	assert.Same(t, p, c.Pool())

	moved := c.Take()
	assert.False(t, c.Valid(), "Take empties the source")
	assert.Equal(t, 2, p.RefCount(slot), "Take does not touch the count")
	assert.Equal(t, slot, moved.Slot())

	moved.Release()
	assert.False(t, moved.Valid())
	assert.Equal(t, 1, p.RefCount(slot))
	moved.Release()
	assert.Equal(t, 1, p.RefCount(slot), "a released handle releases nothing")

	h.Release()
	assert.Zero(t, p.RefCount(slot))
}

func TestHandleEqual(t *testing.T) {
	p1 := newPool(t)
	p2 := newPool(t)
	a := add(p1, 1)
	b := add(p2, 1)
	require.Equal(t, a.Slot(), b.Slot())
	assert.False(t, a.Equal(b), "same slot in different pools")
	assert.False(t, a.Equal(Handle{}))
}

func TestHandleString(t *testing.T) {
	p := newPool(t)
	b := dispatch(1)
	h := p.AddBatch(&b, 12)
	assert.Equal(t, "Handle(slot=0 owner=12)", h.String())
}
