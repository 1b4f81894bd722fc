// Package pool stores batches in a content-addressed, reference-counted pool.
//
// # Layout
//
// A Pool is an ordered list of pages. Each page holds PageSize batch slots, a
// cache-line padded reference counter per slot, a stack of free slots, and a
// FIFO of slots whose count reached zero. A slot's global index is
// page ordinal × PageSize + local index and never changes.
//
// # Deduplication
//
// AddBatch looks the batch's content hash up in a lock-striped index. Equal
// content shares one slot, which is what makes instancing possible: every
// producer that submits the same draw gets a handle to the same slot.
//
// # Reclamation
//
// When a slot's count drops to zero it stays readable. It is reclaimed by
// Update once framesInFlight further frames have been serviced, so a batch
// the GPU may still be consuming is never overwritten. A slot referenced
// again before that happens is not reclaimed.
//
// # Locking
//
// The pool-wide RWMutex is held shared by every operation except page
// growth. Index shards and pages each have their own mutex; when both are
// needed the shard is locked first.
package pool
