// Package frame drives the per-frame cycle of a batch pool: graphics systems
// submit batches in parallel, stages resolve them, the frame is submitted,
// and the pool advances so released slots age towards reclamation.
package frame

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/gogpu/batchpool"
	"github.com/gogpu/batchpool/pool"
	"github.com/gogpu/batchpool/stage"
	"golang.org/x/sync/errgroup"
)

// Frame is what systems see of the frame being prepared.
type Frame struct {
	Number uint64
	Pool   *pool.Pool
}

// System submits one graphics system's batches for a frame. Systems of one
// frame run concurrently.
type System func(ctx context.Context, f Frame) error

// SubmitFunc records or submits the frame's resolved stages.
type SubmitFunc func(ctx context.Context, f Frame, stages []*stage.Stage) error

// Option configures a Driver.
type Option func(*Driver)

// WithWorkers limits how many systems run at once. Defaults to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(d *Driver) { d.workers = n }
}

// WithStages registers stages. Each frame they are reset before the systems
// run and resolved after.
func WithStages(stages ...*stage.Stage) Option {
	return func(d *Driver) { d.stages = append(d.stages, stages...) }
}

// WithSubmit sets the function called with the resolved stages before the
// pool advances.
func WithSubmit(fn SubmitFunc) Option {
	return func(d *Driver) { d.submit = fn }
}

// WithLogger sets the logger. Defaults to batchpool.Logger().
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// Result reports one frame.
type Result struct {
	Frame     uint64
	Reclaimed int
	Elapsed   time.Duration
}

// Driver runs frames against a pool.
//
// RunFrame calls are serialized.
type Driver struct {
	pool    *pool.Pool
	workers int
	stages  []*stage.Stage
	submit  SubmitFunc
	logger  *slog.Logger

	mu    sync.Mutex
	frame uint64
}

// NewDriver creates a driver for p. The first frame it runs is p.Frame()+1.
func NewDriver(p *pool.Pool, opts ...Option) *Driver {
	d := &Driver{pool: p, frame: p.Frame()}
	for _, opt := range opts {
		opt(d)
	}
	if d.workers <= 0 {
		d.workers = runtime.GOMAXPROCS(0)
	}
	if d.logger == nil {
		d.logger = batchpool.Logger()
	}
	return d
}

// Frame returns the number of the last frame run.
func (d *Driver) Frame() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frame
}

// RunFrame runs one frame:
//
//  1. every stage drops the previous frame's submissions;
//  2. systems run concurrently, at most WithWorkers at a time;
//  3. stages resolve what was submitted;
//  4. the submit function, if any, records the frame;
//  5. the pool is updated to the new frame number.
//
// The pool is updated even when an earlier step fails, so the frame number
// always advances and released slots keep aging. A failing step skips the
// steps after it, up to the update.
func (d *Driver) RunFrame(ctx context.Context, systems ...System) (Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	d.frame++
	f := Frame{Number: d.frame, Pool: d.pool}

	for _, st := range d.stages {
		st.BeginFrame()
	}

	err := d.runSystems(ctx, f, systems)
	if err == nil {
		err = d.resolveStages(ctx)
	}
	if err == nil && d.submit != nil {
		if err = d.submit(ctx, f, d.stages); err != nil {
			err = fmt.Errorf("frame %d: submit: %w", f.Number, err)
		}
	}

	res := Result{Frame: f.Number, Reclaimed: d.pool.Update(f.Number)}
	res.Elapsed = time.Since(start)

	if err != nil {
		d.logger.Warn("frame: failed", "frame", f.Number, "err", err)
		return res, err
	}
	d.logger.Debug("frame: done",
		"frame", f.Number, "reclaimed", res.Reclaimed, "elapsed", res.Elapsed)
	return res, nil
}

func (d *Driver) runSystems(ctx context.Context, f Frame, systems []System) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i, sys := range systems {
		g.Go(func() error {
			if err := sys(gctx, f); err != nil {
				return fmt.Errorf("frame %d: system %d: %w", f.Number, i, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (d *Driver) resolveStages(ctx context.Context) error {
	var errs []error
	for _, st := range d.stages {
		if _, err := st.ResolveAll(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stage %q: %w", st.Name(), err))
		}
	}
	return errors.Join(errs...)
}
