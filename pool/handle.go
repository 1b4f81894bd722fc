package pool

import (
	"fmt"

	"github.com/gogpu/batchpool"
	"github.com/gogpu/batchpool/batch"
)

// Handle is a counted reference to a pool slot.
//
// The zero Handle is invalid. Copying a Handle value does not add a
// reference: use Clone to share ownership and Take to transfer it. Every
// valid handle obtained from AddBatch or Clone must be released exactly once.
type Handle struct {
	pool  *Pool
	slot  SlotIndex
	owner OwnerID
}

// Valid reports whether h refers to a slot.
func (h Handle) Valid() bool { return h.pool != nil && h.slot != InvalidSlot }

// Slot returns the slot index, or InvalidSlot.
func (h Handle) Slot() SlotIndex {
	if !h.Valid() {
		return InvalidSlot
	}
	return h.slot
}

// Owner returns the producing entity recorded when the handle was created.
func (h Handle) Owner() OwnerID { return h.owner }

// Pool returns the pool h refers into, or nil.
func (h Handle) Pool() *Pool { return h.pool }

// Batch returns the stored batch. It panics with a *batchpool.LogicError if h
// is invalid.
func (h Handle) Batch() *batch.Batch {
	if !h.Valid() {
		batchpool.Violation("pool.Handle.Batch", "invalid handle")
	}
	return h.pool.GetBatch(h.slot)
}

// Clone returns a new reference to the same slot. Cloning an invalid handle
// returns an invalid handle.
func (h Handle) Clone() Handle {
	if !h.Valid() {
		return Handle{}
	}
	h.pool.AddBatchRef(h.slot)
	return h
}

// Take transfers ownership out of *h, leaving it invalid. The reference count
// is unchanged.
func (h *Handle) Take() Handle {
	out := *h
	*h = Handle{}
	return out
}

// Release drops the reference held by *h and invalidates it. Releasing an
// invalid handle does nothing.
func (h *Handle) Release() {
	if !h.Valid() {
		return
	}
	h.pool.ReleaseBatch(h.slot)
	*h = Handle{}
}

// Equal reports whether h and o refer to the same slot of the same pool.
// All invalid handles are equal.
func (h Handle) Equal(o Handle) bool {
	if !h.Valid() || !o.Valid() {
		return h.Valid() == o.Valid()
	}
	return h.pool == o.pool && h.slot == o.slot
}

// String implements fmt.Stringer.
func (h Handle) String() string {
	if !h.Valid() {
		return "Handle(invalid)"
	}
	return fmt.Sprintf("Handle(slot=%d owner=%d)", h.slot, h.owner)
}
