package pool

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/batchpool"
	"github.com/gogpu/batchpool/batch"
	"github.com/gogpu/batchpool/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dispatch returns a compute batch whose hash is determined by groups.
func dispatch(groups uint32) batch.Batch {
	return batch.New(&batch.Desc{
		Params: batch.ComputeParams{GroupsX: groups, GroupsY: 1, GroupsZ: 1},
		Effect: 7,
	})
}

func newPool(t testing.TB, opts ...Option) *Pool {
	t.Helper()
	p, err := New(opts...)
	require.NoError(t, err)
	return p
}

func add(p *Pool, groups uint32) Handle {
	b := dispatch(groups)
	return p.AddBatch(&b, NoOwner)
}

// recoverLogic runs fn and returns the *batchpool.LogicError it panics with.
func recoverLogic(fn func()) (lerr *batchpool.LogicError) {
	defer func() {
		lerr, _ = recover().(*batchpool.LogicError)
	}()
	fn()
	return nil
}

func TestNewOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{"defaults", nil, nil},
		{"one frame", []Option{WithFramesInFlight(1)}, nil},
		{"three frames", []Option{WithFramesInFlight(MaxFramesInFlight)}, nil},
		{"zero frames", []Option{WithFramesInFlight(0)}, ErrFramesInFlight},
		{"four frames", []Option{WithFramesInFlight(4)}, ErrFramesInFlight},
		{"negative pages", []Option{WithInitialPages(-1)}, ErrInitialPages},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.opts...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, p)
		})
	}

	var logs bytes.Buffer
	p := newPool(t, WithInitialPages(2), WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	assert.Equal(t, 2, p.Pages())
	assert.Equal(t, DefaultFramesInFlight, p.FramesInFlight())
	assert.Contains(t, logs.String(), "pool: created")
}

func TestAddBatchMovesBatch(t *testing.T) {
	p := newPool(t)
	b := dispatch(1)
	hash := b.Hash()

	h := p.AddBatch(&b, 42)
	assert.False(t, b.Valid(), "AddBatch takes the batch")
	require.True(t, h.Valid())
	assert.Equal(t, OwnerID(42), h.Owner())
	assert.Equal(t, hash, h.Batch().Hash())
	assert.Equal(t, SlotIndex(0), h.Slot())
	assert.Equal(t, 1, p.Pages())
}

func TestAddInvalidBatchPanics(t *testing.T) {
	p := newPool(t)
	var b batch.Batch
	assert.PanicsWithError(t, "pool.AddBatch: batch is invalid", func() {
		p.AddBatch(&b, NoOwner)
	})
}

func TestAddBatchDeduplicates(t *testing.T) {
	p := newPool(t)
	h1 := add(p, 3)
	h2 := add(p, 3)
	h3 := add(p, 4)

	assert.True(t, h1.Equal(h2))
	assert.False(t, h1.Equal(h3))
	assert.Equal(t, 2, p.RefCount(h1.Slot()))

	s := p.Stats()
	assert.Equal(t, 2, s.Live)
	assert.Equal(t, 2, s.Indexed)
	assert.Equal(t, uint64(2), s.Inserts)
	assert.Equal(t, uint64(1), s.DedupHits)
	assert.InDelta(t, 1.0/3.0, s.DedupRate(), 1e-9)
}

func TestDuplicateDiscardDestroysOwnedBuffers(t *testing.T) {
	p := newPool(t, WithFramesInFlight(1))
	first := resource.NewBuffer(nil, nil, &resource.BufferDescriptor{Size: 16})
	second := resource.NewBuffer(nil, nil, &resource.BufferDescriptor{Size: 16})

	mk := func(owned *resource.Buffer) batch.Batch {
		return batch.New(&batch.Desc{
			Params: batch.ComputeParams{GroupsX: 1, GroupsY: 1, GroupsZ: 1},
			Owned:  []*resource.Buffer{owned},
		})
	}
	b1, b2 := mk(first), mk(second)
	h1 := p.AddBatch(&b1, NoOwner)
	h2 := p.AddBatch(&b2, NoOwner)
	require.True(t, h1.Equal(h2))
	assert.True(t, second.IsDestroyed(), "the duplicate's buffer is dropped")
	assert.False(t, first.IsDestroyed())

	h1.Release()
	h2.Release()
	assert.Equal(t, 1, p.Update(1))
	assert.True(t, first.IsDestroyed(), "reclamation destroys the stored batch")
}

func TestReferenceLifecycle(t *testing.T) {
	p := newPool(t, WithFramesInFlight(2))
	p.Update(5)

	h1 := add(p, 9)
	h2 := h1.Clone()
	h3 := h1.Clone()
	slot := h1.Slot()
	require.Equal(t, 3, p.RefCount(slot))

	h1.Release()
	h2.Release()
	assert.Zero(t, p.Update(10))
	assert.True(t, p.GetBatch(slot).Valid(), "one handle is still alive")

	h3.Release()
	assert.Equal(t, 1, p.Stats().Pending)
	assert.True(t, p.GetBatch(slot).Valid(), "released slots stay readable")

	assert.Zero(t, p.Update(11), "enqueued at 10, not due before 12")
	assert.True(t, p.GetBatch(slot).Valid())

	assert.Equal(t, 1, p.Update(12))
	assert.False(t, p.GetBatch(slot).Valid())

	s := p.Stats()
	assert.Zero(t, s.Live)
	assert.Zero(t, s.Indexed)
	assert.Zero(t, s.Pending)
	assert.Equal(t, uint64(1), s.Reclaimed)
}

func TestReclaimHorizonPerFramesInFlight(t *testing.T) {
	for fif := 1; fif <= MaxFramesInFlight; fif++ {
		p := newPool(t, WithFramesInFlight(fif))
		h := add(p, 1)
		h.Release()
		for f := 1; f < fif; f++ {
			assert.Zero(t, p.Update(uint64(f)), "fif=%d frame=%d", fif, f)
		}
		assert.Equal(t, 1, p.Update(uint64(fif)), "fif=%d", fif)
	}
}

func TestUpdateRejectsEarlierFrame(t *testing.T) {
	p := newPool(t)
	p.Update(4)
	p.Update(4)
	assert.PanicsWithError(t, "pool.Update: frame 3 precedes frame 4", func() { p.Update(3) })
	assert.Equal(t, uint64(4), p.Frame())
}

func TestLateReReferenceCancelsReclamation(t *testing.T) {
	p := newPool(t, WithFramesInFlight(2))

	h := add(p, 5)
	slot := h.Slot()
	h.Release()
	require.Equal(t, 1, p.Stats().Pending)

	// Same content comes back before the slot is reclaimed.
	again := add(p, 5)
	require.Equal(t, slot, again.Slot())
	assert.Equal(t, uint64(1), p.Stats().Resurrected)

	assert.Zero(t, p.Update(2), "the re-referenced slot is skipped")
	assert.True(t, p.GetBatch(slot).Valid())

	p.Update(3)
	again.Release()
	assert.Zero(t, p.Update(4), "reached zero again at 3")
	assert.True(t, p.GetBatch(slot).Valid())
	assert.Equal(t, 1, p.Update(5))
	assert.False(t, p.GetBatch(slot).Valid())
}

func TestLastReleaseRecordsFrameWithCount(t *testing.T) {
	p := newPool(t, WithFramesInFlight(3))
	p.Update(1)

	h := add(p, 9)
	slot := h.Slot()
	h.Release() // queued at frame 1
	p.AddBatchRef(slot)
	p.Update(3) // the frame 1 entry is not due yet

	pg, local := p.locate(slot)
	pg.mu.Lock()
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.ReleaseBatch(slot)
	}()
	assert.Never(t, func() bool { return pg.refs[local].n.Load() == 0 },
		50*time.Millisecond, 5*time.Millisecond, "the count must not reach zero outside the page lock")
	pg.mu.Unlock()
	<-done

	pg.mu.Lock()
	zeroAt := pg.zeroAt[local]
	pg.mu.Unlock()
	assert.Equal(t, uint64(3), zeroAt)

	assert.Zero(t, p.Update(4), "the stale frame 1 entry does not free a slot released at 3")
	assert.True(t, p.GetBatch(slot).Valid())
	assert.Equal(t, 1, p.Update(6))
	assert.False(t, p.GetBatch(slot).Valid())
}

func TestAddBatchRefResurrectsPendingSlot(t *testing.T) {
	p := newPool(t, WithFramesInFlight(1))
	h := add(p, 5)
	slot := h.Slot()
	h.Release()

	p.AddBatchRef(slot)
	assert.Zero(t, p.Update(1))
	assert.Equal(t, 1, p.RefCount(slot))

	p.ReleaseBatch(slot)
	assert.Equal(t, 1, p.Update(2))

	lerr := recoverLogic(func() { p.AddBatchRef(slot) })
	require.NotNil(t, lerr)
	assert.Equal(t, "pool.AddBatchRef", lerr.Op)
	assert.Zero(t, p.RefCount(slot))
}

func TestReleaseUnderflowPanics(t *testing.T) {
	p := newPool(t)
	h := add(p, 1)
	slot := h.Slot()
	h.Release()
	assert.Panics(t, func() { p.ReleaseBatch(slot) })
	assert.Zero(t, p.RefCount(slot), "a failed release leaves the count alone")
}

func TestReclaimedSlotIsReused(t *testing.T) {
	p := newPool(t, WithFramesInFlight(1))
	h := add(p, 1)
	slot := h.Slot()
	h.Release()
	require.Equal(t, 1, p.Update(1))

	next := add(p, 2)
	assert.Equal(t, slot, next.Slot())
	assert.Equal(t, batch.KindCompute, next.Batch().Kind())
	assert.Equal(t, uint32(2), next.Batch().Compute().GroupsX)
}

func TestPageGrowth(t *testing.T) {
	p := newPool(t)
	handles := make([]Handle, PageSize+1)
	for i := range handles {
		handles[i] = add(p, uint32(i+1))
	}

	assert.Equal(t, 2, p.Pages())
	last := handles[PageSize]
	assert.GreaterOrEqual(t, last.Slot(), SlotIndex(PageSize))

	seen := make(map[SlotIndex]bool, len(handles))
	for i, h := range handles {
		assert.False(t, seen[h.Slot()], "slot %d issued twice", h.Slot())
		seen[h.Slot()] = true
		assert.Equal(t, uint32(i+1), h.Batch().Compute().GroupsX, "growth keeps earlier slots intact")
	}

	s := p.Stats()
	assert.Equal(t, 2*PageSize, s.Capacity)
	assert.Equal(t, PageSize+1, s.Live)
}

func TestConcurrentIdenticalInsert(t *testing.T) {
	const workers = 32
	p := newPool(t)

	var (
		start   sync.WaitGroup
		done    sync.WaitGroup
		handles [workers]Handle
	)
	start.Add(1)
	for i := range workers {
		done.Add(1)
		go func() {
			defer done.Done()
			b := dispatch(77)
			start.Wait()
			handles[i] = p.AddBatch(&b, OwnerID(i))
		}()
	}
	start.Done()
	done.Wait()

	for _, h := range handles {
		require.True(t, h.Valid())
		assert.True(t, h.Equal(handles[0]))
	}
	s := p.Stats()
	assert.Equal(t, 1, s.Indexed)
	assert.Equal(t, 1, s.Live)
	assert.Equal(t, uint64(1), s.Inserts)
	assert.Equal(t, uint64(workers-1), s.DedupHits)
	assert.Equal(t, workers, p.RefCount(handles[0].Slot()))
}

func TestConcurrentInsertRelease(t *testing.T) {
	const (
		workers = 8
		each    = 600
	)
	p := newPool(t, WithFramesInFlight(1))

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range each {
				h := add(p, uint32(w*each+i+1))
				c := h.Clone()
				h.Release()
				c.Release()
			}
		}()
	}
	wg.Wait()

	s := p.Stats()
	assert.Equal(t, workers*each, s.Live)
	assert.GreaterOrEqual(t, s.Pages, workers*each/PageSize)

	assert.Equal(t, workers*each, p.Update(1))
	s = p.Stats()
	assert.Zero(t, s.Live)
	assert.Zero(t, s.Indexed)
	assert.Zero(t, s.Pending)
}

func TestHoldForFrame(t *testing.T) {
	p := newPool(t, WithFramesInFlight(1))
	h := add(p, 1)
	slot := h.Slot()
	p.HoldForFrame(slot)
	h.Release()
	assert.Equal(t, 1, p.RefCount(slot))

	assert.Zero(t, p.Update(1), "the held reference drops at frame 1")
	assert.Zero(t, p.RefCount(slot))
	assert.True(t, p.GetBatch(slot).Valid())

	assert.Equal(t, 1, p.Update(2))
}

func BenchmarkAddBatchDedup(b *testing.B) {
	p := newPool(b)
	keep := add(p, 1)
	defer keep.Release()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			h := add(p, 1)
			h.Release()
		}
	})
}

func BenchmarkCloneRelease(b *testing.B) {
	p := newPool(b)
	h := add(p, 1)
	defer h.Release()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			c := h.Clone()
			c.Release()
		}
	})
}
