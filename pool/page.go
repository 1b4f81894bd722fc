package pool

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/batchpool/batch"
	"golang.org/x/sys/cpu"
)

// PageSize is the number of slots per page.
const PageSize = 1024

// refCounter is a slot's reference count on its own cache line.
type refCounter struct {
	n atomic.Int32
	_ cpu.CacheLinePad
}

// retired is a slot whose count reached zero at frame.
type retired struct {
	local uint16
	frame uint64
}

type page struct {
	base SlotIndex

	// avail mirrors len(free) so full pages are skipped without locking.
	avail atomic.Int32

	mu      sync.Mutex
	free    []uint16
	pending []retired
	head    int // first unconsumed entry of pending
	live    int

	// zeroAt is the latest frame at which each slot's count reached zero.
	zeroAt [PageSize]uint64

	refs    [PageSize]refCounter
	batches [PageSize]batch.Batch
}

func newPage(ordinal int) *page {
	pg := &page{
		base: SlotIndex(ordinal * PageSize),
		free: make([]uint16, PageSize),
	}
	// Pop order is ascending.
	for i := range pg.free {
		pg.free[i] = uint16(PageSize - 1 - i)
	}
	pg.avail.Store(PageSize)
	return pg
}

// insert moves *b into a free slot with a count of one and returns its
// global index.
func (pg *page) insert(b *batch.Batch) (SlotIndex, bool) {
	if pg.avail.Load() == 0 {
		return InvalidSlot, false
	}
	pg.mu.Lock()
	defer pg.mu.Unlock()

	n := len(pg.free)
	if n == 0 {
		return InvalidSlot, false
	}
	local := pg.free[n-1]
	pg.free = pg.free[:n-1]
	pg.avail.Add(-1)

	pg.batches[local] = *b
	*b = batch.Batch{}
	pg.refs[local].n.Store(1)
	pg.live++
	return pg.base + SlotIndex(local), true
}

// releaseLast drops what is likely the last reference to local. If the count
// reaches zero, local is queued for reclamation at frame. The count and
// zeroAt change together under pg.mu, so reclaim never sees a zero count
// with the frame of an earlier release. It reports false if the count was
// already zero.
func (pg *page) releaseLast(local uint16, frame uint64) bool {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	switch n := pg.refs[local].n.Add(-1); {
	case n == 0:
		pg.pending = append(pg.pending, retired{local: local, frame: frame})
		pg.zeroAt[local] = frame
	case n < 0:
		pg.refs[local].n.Add(1)
		return false
	}
	return true
}

// due pops every queued entry whose frame is at most horizon.
func (pg *page) due(horizon uint64) []uint16 {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	var out []uint16
	for pg.head < len(pg.pending) && pg.pending[pg.head].frame <= horizon {
		out = append(out, pg.pending[pg.head].local)
		pg.head++
	}
	if pg.head == len(pg.pending) {
		pg.pending = pg.pending[:0]
		pg.head = 0
	} else if pg.head > len(pg.pending)/2 {
		pg.pending = append(pg.pending[:0], pg.pending[pg.head:]...)
		pg.head = 0
	}
	return out
}

// releaseLocked destroys the batch in local and returns the slot to the free
// list. pg.mu must be held.
func (pg *page) releaseLocked(local uint16) {
	pg.batches[local].Destroy()
	pg.free = append(pg.free, local)
	pg.live--
	pg.avail.Add(1)
}

func (pg *page) counts() (live, pending int) {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	return pg.live, len(pg.pending) - pg.head
}
