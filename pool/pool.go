package pool

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gogpu/batchpool"
	"github.com/gogpu/batchpool/batch"
)

// SlotIndex is the global index of a pool slot.
type SlotIndex uint32

// InvalidSlot is the slot index of an invalid handle.
const InvalidSlot SlotIndex = math.MaxUint32

// OwnerID identifies the entity that produced a batch.
type OwnerID uint64

// NoOwner is the owner of batches submitted without one.
const NoOwner OwnerID = 0

// Configuration errors.
var (
	// ErrFramesInFlight is returned by New when the frames-in-flight value is
	// outside [1, MaxFramesInFlight].
	ErrFramesInFlight = errors.New("pool: frames in flight out of range")

	// ErrInitialPages is returned by New for a negative initial page count.
	ErrInitialPages = errors.New("pool: negative initial page count")
)

// Pool is a content-addressed store of batches with reference-counted slots
// and frame-delayed reclamation.
//
// Thread Safety:
// All methods are safe for concurrent use. Update must be called by one
// goroutine, once per frame, after the previous frame's submission work has
// been recorded.
type Pool struct {
	mu    sync.RWMutex
	pages []*page

	index index

	frame          atomic.Uint64
	framesInFlight uint64

	// Extra references held until the next Update.
	frameMu   sync.Mutex
	frameRefs []SlotIndex

	logger *slog.Logger

	inserts     atomic.Uint64
	dedupHits   atomic.Uint64
	reclaimed   atomic.Uint64
	resurrected atomic.Uint64
}

// New creates an empty pool.
func New(opts ...Option) (*Pool, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.framesInFlight < 1 || o.framesInFlight > MaxFramesInFlight {
		return nil, fmt.Errorf("%w: %d", ErrFramesInFlight, o.framesInFlight)
	}
	if o.initialPages < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInitialPages, o.initialPages)
	}
	if o.logger == nil {
		o.logger = batchpool.Logger()
	}

	p := &Pool{
		framesInFlight: uint64(o.framesInFlight),
		logger:         o.logger,
	}
	p.index.init()
	for range o.initialPages {
		p.growLocked()
	}
	p.logger.Info("pool: created",
		"framesInFlight", o.framesInFlight, "pages", o.initialPages)
	return p, nil
}

// FramesInFlight returns the configured frames-in-flight value.
func (p *Pool) FramesInFlight() int { return int(p.framesInFlight) }

// Frame returns the frame passed to the most recent Update.
func (p *Pool) Frame() uint64 { return p.frame.Load() }

// Pages returns the number of pages.
func (p *Pool) Pages() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.pages)
}

// AddBatch stores *b and returns a handle to it, moving the batch into the
// pool and leaving *b invalid.
//
// If a batch with the same content hash is already stored, *b is discarded
// and the handle refers to the existing slot. Otherwise b takes a free slot,
// growing the pool by one page when every page is full.
//
// It panics with a *batchpool.LogicError if *b is not a valid batch.
func (p *Pool) AddBatch(b *batch.Batch, owner OwnerID) Handle {
	if !b.Valid() {
		batchpool.Violation("pool.AddBatch", "batch is invalid")
	}

	p.mu.RLock()
	slot, ok := p.tryAdd(b)
	p.mu.RUnlock()

	if !ok {
		p.mu.Lock()
		// Another goroutine may have inserted the hash or grown the pool.
		slot, ok = p.tryAdd(b)
		if !ok {
			p.growLocked()
			slot, ok = p.tryAdd(b)
		}
		p.mu.Unlock()
		if !ok {
			batchpool.Violation("pool.AddBatch", "no slot after page growth")
		}
	}
	return Handle{pool: p, slot: slot, owner: owner}
}

// tryAdd references an existing slot with b's hash or inserts b into a page
// with room. p.mu must be held, shared or exclusive.
func (p *Pool) tryAdd(b *batch.Batch) (SlotIndex, bool) {
	h := b.Hash()
	s := p.index.shard(h)
	s.mu.Lock()
	defer s.mu.Unlock()

	if slot, ok := s.slots[h]; ok {
		pg, local := p.locate(slot)
		if pg.refs[local].n.Add(1) == 1 {
			p.resurrected.Add(1)
		}
		p.dedupHits.Add(1)
		if b.OwnsBuffers() {
			p.logger.Warn("pool: discarding duplicate batch that owns buffers",
				"hash", h, "slot", slot)
		}
		b.Discard(&pg.batches[local])
		return slot, true
	}

	for _, pg := range p.pages {
		if slot, ok := pg.insert(b); ok {
			s.slots[h] = slot
			p.inserts.Add(1)
			return slot, true
		}
	}
	return InvalidSlot, false
}

// growLocked appends a page. p.mu must be held exclusively.
func (p *Pool) growLocked() {
	p.pages = append(p.pages, newPage(len(p.pages)))
	p.logger.Debug("pool: page added", "pages", len(p.pages))
}

// locate returns the page and local index of slot. p.mu must be held.
func (p *Pool) locate(slot SlotIndex) (*page, uint16) {
	ordinal := int(slot / PageSize)
	if ordinal >= len(p.pages) {
		batchpool.Violation("pool", "slot %d out of range", slot)
	}
	return p.pages[ordinal], uint16(slot % PageSize)
}

// GetBatch returns the batch stored in slot. The result is only meaningful
// while the caller holds a reference to slot, and must not be modified.
func (p *Pool) GetBatch(slot SlotIndex) *batch.Batch {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pg, local := p.locate(slot)
	return &pg.batches[local]
}

// RefCount returns the current reference count of slot.
func (p *Pool) RefCount(slot SlotIndex) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pg, local := p.locate(slot)
	return int(pg.refs[local].n.Load())
}

// AddBatchRef adds a reference to slot.
//
// It panics with a *batchpool.LogicError if slot holds no batch.
func (p *Pool) AddBatchRef(slot SlotIndex) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pg, local := p.locate(slot)
	if pg.refs[local].n.Add(1) != 1 {
		return
	}
	// The count was zero: the slot is pending reclamation or already free.
	pg.mu.Lock()
	valid := pg.batches[local].Valid()
	pg.mu.Unlock()
	if !valid {
		pg.refs[local].n.Add(-1)
		batchpool.Violation("pool.AddBatchRef", "slot %d is free", slot)
	}
	p.resurrected.Add(1)
}

// ReleaseBatch drops a reference to slot. When the count reaches zero the
// slot is queued for reclamation at the current frame; it stays readable
// until Update reclaims it.
//
// It panics with a *batchpool.LogicError if the count would go negative.
func (p *Pool) ReleaseBatch(slot SlotIndex) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pg, local := p.locate(slot)

	r := &pg.refs[local].n
	for {
		n := r.Load()
		if n == 1 {
			break
		}
		if n <= 0 {
			batchpool.Violation("pool.ReleaseBatch", "slot %d released more often than referenced", slot)
		}
		if r.CompareAndSwap(n, n-1) {
			return
		}
	}
	if !pg.releaseLast(local, p.frame.Load()) {
		batchpool.Violation("pool.ReleaseBatch", "slot %d released more often than referenced", slot)
	}
}

// HoldForFrame adds a reference to slot that the next Update drops.
func (p *Pool) HoldForFrame(slot SlotIndex) {
	p.AddBatchRef(slot)
	p.frameMu.Lock()
	p.frameRefs = append(p.frameRefs, slot)
	p.frameMu.Unlock()
}

// Update advances the pool to frame current. It drops references taken by
// HoldForFrame, then reclaims every slot whose count reached zero at or
// before current - framesInFlight and has not been referenced since.
// It returns the number of slots reclaimed.
//
// It panics with a *batchpool.LogicError if current is less than the frame
// of the previous Update.
func (p *Pool) Update(current uint64) int {
	if prev := p.frame.Load(); current < prev {
		batchpool.Violation("pool.Update", "frame %d precedes frame %d", current, prev)
	}
	p.frame.Store(current)

	p.frameMu.Lock()
	held := p.frameRefs
	p.frameRefs = nil
	p.frameMu.Unlock()
	for _, slot := range held {
		p.ReleaseBatch(slot)
	}

	if current < p.framesInFlight {
		return 0
	}
	horizon := current - p.framesInFlight

	p.mu.RLock()
	defer p.mu.RUnlock()

	n := 0
	for _, pg := range p.pages {
		for _, local := range pg.due(horizon) {
			if p.reclaim(pg, local, horizon) {
				n++
			}
		}
	}
	if n > 0 {
		p.reclaimed.Add(uint64(n))
		p.logger.Debug("pool: slots reclaimed", "frame", current, "count", n)
	}
	return n
}

// reclaim frees local if it still holds a batch with no references whose
// count last reached zero at or before horizon. A slot may appear in the
// queue more than once; only the first due entry frees it.
func (p *Pool) reclaim(pg *page, local uint16, horizon uint64) bool {
	b := &pg.batches[local]

	pg.mu.Lock()
	if !b.Valid() || pg.refs[local].n.Load() != 0 {
		pg.mu.Unlock()
		return false
	}
	h := b.Hash()
	pg.mu.Unlock()

	// The shard lock excludes AddBatch re-referencing the slot by hash.
	s := p.index.shard(h)
	s.mu.Lock()
	defer s.mu.Unlock()
	pg.mu.Lock()
	defer pg.mu.Unlock()

	slot := pg.base + SlotIndex(local)
	switch {
	case !b.Valid() || b.Hash() != h:
		return false
	case pg.refs[local].n.Load() != 0:
		return false
	case pg.zeroAt[local] > horizon:
		return false
	}
	if cur, ok := s.slots[h]; !ok || cur != slot {
		batchpool.Violation("pool.Update", "slot %d missing from index", slot)
	}
	delete(s.slots, h)
	pg.releaseLocked(local)
	return true
}
