// Package stage prepares pooled batches for render stages.
//
// A [StageBatch] resolves one pooled batch against a stage: it picks the
// shader variant for the stage's drawstyle and binds the batch's vertex
// streams to that shader's inputs. A [Stage] collects the batches producers
// submit each frame, filters them, merges duplicates into instanced draws,
// and resolves them in parallel.
package stage

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gogpu/batchpool"
	"github.com/gogpu/batchpool/batch"
	"github.com/gogpu/batchpool/internal/parallel"
	"github.com/gogpu/batchpool/pool"
	"github.com/gogpu/batchpool/shader"
)

// Config describes a render stage.
type Config struct {
	// Name is used in logs.
	Name string

	// Style is combined with every batch's own drawstyle bits.
	Style batch.StyleBits

	// Include lists filter bits a batch must all carry; Exclude lists bits
	// it must not carry.
	Include batch.FilterBits
	Exclude batch.FilterBits

	// Lookup resolves shaders.
	Lookup shader.Lookup

	// Workers resolves batches concurrently when set. Otherwise ResolveAll
	// runs on the caller.
	Workers *parallel.WorkerPool

	// Logger defaults to batchpool.Logger().
	Logger *slog.Logger
}

// Accepts reports whether a batch with filter bits f belongs in the stage.
func (c *Config) Accepts(f batch.FilterBits) bool {
	return f&c.Include == c.Include && f&c.Exclude == 0
}

// submission is one slot submitted this frame.
type submission struct {
	handle    pool.Handle
	merged    uint32
	instances uint32
	sb        *StageBatch
}

// Stage collects a frame's batches for one render stage.
//
// Add may be called concurrently. BeginFrame, ResolveAll, Batches and Close
// are called by the goroutine that drives the stage.
type Stage struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	frame  map[pool.SlotIndex]*submission
	order  []pool.SlotIndex
	cached map[pool.SlotIndex]*StageBatch

	resolved []*StageBatch
}

// NewStage creates a stage.
func NewStage(cfg Config) *Stage {
	if cfg.Lookup == nil {
		batchpool.Violation("stage.NewStage", "stage %q has no shader lookup", cfg.Name)
	}
	l := cfg.Logger
	if l == nil {
		l = batchpool.Logger()
	}
	return &Stage{
		cfg:    cfg,
		logger: l.With("stage", cfg.Name),
		frame:  make(map[pool.SlotIndex]*submission),
		cached: make(map[pool.SlotIndex]*StageBatch),
	}
}

// Name returns the stage name.
func (st *Stage) Name() string { return st.cfg.Name }

// Add submits h to the stage for this frame, taking over its reference.
// Batches the stage filters out are released and Add returns false.
// Submitting a slot already submitted this frame adds an instance to it.
func (st *Stage) Add(h pool.Handle) bool {
	if !st.cfg.Accepts(h.Batch().Filter()) {
		h.Release()
		return false
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if sub, ok := st.frame[h.Slot()]; ok {
		sub.merged++
		h.Release()
		return true
	}
	st.frame[h.Slot()] = &submission{handle: h, merged: 1}
	st.order = append(st.order, h.Slot())
	return true
}

// Len returns the number of distinct slots submitted this frame.
func (st *Stage) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.order)
}

// instanceCount is the number of merged submissions, times the instances
// the stored draw asks for.
func instanceCount(b *batch.Batch, merged uint32) uint32 {
	if b.Kind() == batch.KindRaster {
		if n := b.Raster().InstanceCount; n > 1 {
			return merged * n
		}
	}
	return merged
}

// ResolveAll resolves every batch submitted this frame and returns them in
// submission order. Stage batches resolved in earlier frames are reused
// while their instance count is unchanged.
func (st *Stage) ResolveAll(ctx context.Context) ([]*StageBatch, error) {
	st.mu.Lock()
	subs := make([]*submission, len(st.order))
	for i, slot := range st.order {
		sub := st.frame[slot]
		sub.instances = instanceCount(sub.handle.Batch(), sub.merged)

		sb := st.cached[slot]
		if sb != nil && sb.Resolved() && sb.InstanceCount() != sub.instances {
			sb.Release()
			sb = nil
		}
		if sb == nil {
			sb = New(sub.handle.Clone())
			st.cached[slot] = sb
		}
		sub.sb = sb
		subs[i] = sub
	}
	st.mu.Unlock()

	fresh := make([]bool, len(subs))
	resolve := func(i int) error {
		did, err := subs[i].sb.Resolve(st.cfg.Style, subs[i].instances, st.cfg.Lookup)
		fresh[i] = did
		return err
	}

	var err error
	if w := st.cfg.Workers; w != nil {
		err = w.Run(ctx, len(subs), resolve)
	} else {
		for i := range subs {
			if err = ctx.Err(); err != nil {
				break
			}
			if err = resolve(i); err != nil {
				break
			}
		}
	}
	if err != nil {
		return nil, err
	}

	n := 0
	st.resolved = st.resolved[:0]
	for i, sub := range subs {
		st.resolved = append(st.resolved, sub.sb)
		if fresh[i] {
			n++
		}
	}
	st.logger.Debug("stage: resolved", "batches", len(subs), "fresh", n)
	return st.resolved, nil
}

// Batches returns the result of the last ResolveAll.
func (st *Stage) Batches() []*StageBatch { return st.resolved }

// BeginFrame ends the previous frame: it releases the frame's submissions,
// clears single-frame bindings, and drops cached stage batches that were
// not submitted.
func (st *Stage) BeginFrame() {
	st.mu.Lock()
	defer st.mu.Unlock()

	for slot, sb := range st.cached {
		if _, ok := st.frame[slot]; !ok {
			sb.Release()
			delete(st.cached, slot)
			continue
		}
		sb.ClearSingleFrame()
	}
	for _, sub := range st.frame {
		sub.handle.Release()
	}
	clear(st.frame)
	st.order = st.order[:0]
	st.resolved = st.resolved[:0]
}

// Close releases every reference the stage holds.
func (st *Stage) Close() {
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, sb := range st.cached {
		sb.Release()
	}
	clear(st.cached)
	for _, sub := range st.frame {
		sub.handle.Release()
	}
	clear(st.frame)
	st.order = st.order[:0]
	st.resolved = st.resolved[:0]
}
