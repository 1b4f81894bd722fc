package cmdlist

import (
	"errors"
	"fmt"

	"github.com/gogpu/batchpool/batch"
	"github.com/gogpu/batchpool/shader"
	"github.com/gogpu/batchpool/stage"
)

// Encoder errors.
var (
	// ErrPassActive is returned when beginning a pass or finishing while a
	// pass is open.
	ErrPassActive = errors.New("cmdlist: a pass is already active")

	// ErrPassEnded is returned when recording into a pass that has ended.
	ErrPassEnded = errors.New("cmdlist: pass has ended")

	// ErrUnresolved is returned when recording a stage batch that has not
	// been resolved.
	ErrUnresolved = errors.New("cmdlist: stage batch is not resolved")

	// ErrWrongPass is returned when recording a batch into a pass of the
	// wrong kind: raster batches need a render pass, compute and ray-tracing
	// batches a compute pass.
	ErrWrongPass = errors.New("cmdlist: batch kind does not match pass")

	// ErrFinished is returned when using an encoder after Finish.
	ErrFinished = errors.New("cmdlist: encoder finished")
)

// Encoder accumulates passes into a command list.
//
// Encoder is not safe for concurrent use; record one encoder per goroutine.
type Encoder struct {
	commands  []Command
	active    bool
	finished  bool
	passCount int
}

// NewEncoder creates an empty encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

func (e *Encoder) begin() error {
	switch {
	case e.finished:
		return ErrFinished
	case e.active:
		return ErrPassActive
	}
	e.active = true
	e.passCount++
	return nil
}

// BeginRenderPass opens a render pass.
func (e *Encoder) BeginRenderPass(label string) (*RenderPass, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	e.commands = append(e.commands, BeginRenderPassCommand{Label: label})
	return &RenderPass{pass: pass{encoder: e}}, nil
}

// BeginComputePass opens a compute pass.
func (e *Encoder) BeginComputePass(label string) (*ComputePass, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	e.commands = append(e.commands, BeginComputePassCommand{Label: label})
	return &ComputePass{pass: pass{encoder: e}}, nil
}

// PassCount returns the number of passes begun.
func (e *Encoder) PassCount() int { return e.passCount }

// RecordStage records batches in order, opening a render pass for each run
// of raster batches and a compute pass for each run of compute and
// ray-tracing batches.
func (e *Encoder) RecordStage(label string, batches []*stage.StageBatch) error {
	var (
		rp *RenderPass
		cp *ComputePass
	)
	end := func() {
		if rp != nil {
			rp.End()
			rp = nil
		}
		if cp != nil {
			cp.End()
			cp = nil
		}
	}
	defer end()

	for i, sb := range batches {
		var err error
		if sb.Batch().Kind() == batch.KindRaster {
			if rp == nil {
				end()
				if rp, err = e.BeginRenderPass(label); err != nil {
					return err
				}
			}
			err = rp.Record(sb)
		} else {
			if cp == nil {
				end()
				if cp, err = e.BeginComputePass(label); err != nil {
					return err
				}
			}
			err = cp.Record(sb)
		}
		if err != nil {
			return fmt.Errorf("cmdlist: stage %q batch %d: %w", label, i, err)
		}
	}
	return nil
}

// Finish returns the recorded list. The encoder cannot be used afterwards.
func (e *Encoder) Finish() (*List, error) {
	switch {
	case e.finished:
		return nil, ErrFinished
	case e.active:
		return nil, ErrPassActive
	}
	e.finished = true
	l := &List{commands: e.commands}
	e.commands = nil
	return l, nil
}

// pass holds the state both pass kinds track.
type pass struct {
	encoder  *Encoder
	ended    bool
	pipeline shader.ID
	bound    bool
}

func (p *pass) emit(c Command) { p.encoder.commands = append(p.encoder.commands, c) }

// setPipeline binds id unless it is already bound.
func (p *pass) setPipeline(id shader.ID) {
	if p.bound && p.pipeline == id {
		return
	}
	p.emit(SetPipelineCommand{Shader: id})
	p.pipeline, p.bound = id, true
}

func (p *pass) bindResources(sb *stage.StageBatch) {
	b := sb.Batch()
	for _, bb := range b.Buffers() {
		p.emit(SetBufferCommand{Name: bb.Name, View: bb.View})
	}
	for _, bb := range sb.SingleFrameBuffers() {
		p.emit(SetBufferCommand{Name: bb.Name, View: bb.View})
	}
	for _, tb := range b.Textures() {
		p.emit(SetTextureCommand{Name: tb.Name, Texture: tb.Texture, Sampler: tb.Sampler})
	}
	for _, tb := range b.RWTextures() {
		p.emit(SetTextureCommand{Name: tb.Name, Texture: tb.Texture, Writable: true})
	}
}

func (p *pass) check(sb *stage.StageBatch) error {
	if p.ended {
		return ErrPassEnded
	}
	if !sb.Resolved() {
		return ErrUnresolved
	}
	return nil
}

// RenderPass records draws.
type RenderPass struct {
	pass
}

// Record emits the commands that draw a resolved raster stage batch: its
// pipeline, vertex and index buffers, resource bindings and the draw itself
// with the resolved instance count.
func (p *RenderPass) Record(sb *stage.StageBatch) error {
	if err := p.check(sb); err != nil {
		return err
	}
	b := sb.Batch()
	if b.Kind() != batch.KindRaster {
		return fmt.Errorf("%w: %s batch in render pass", ErrWrongPass, b.Kind())
	}
	rp := b.Raster()

	p.setPipeline(sb.Shader().ID())
	for _, vb := range sb.VertexBindings() {
		p.emit(SetVertexBufferCommand{Slot: vb.Slot, View: vb.Stream.View})
	}
	p.bindResources(sb)

	if rp.Indexed() {
		p.emit(SetIndexBufferCommand{View: rp.Index.View, Format: rp.Index.Format})
		p.emit(DrawIndexedCommand{
			IndexCount:    rp.IndexCount,
			InstanceCount: sb.InstanceCount(),
			FirstIndex:    rp.FirstIndex,
			BaseVertex:    rp.BaseVertex,
		})
		return nil
	}
	p.emit(DrawCommand{
		VertexCount:   rp.VertexCount,
		InstanceCount: sb.InstanceCount(),
		FirstVertex:   rp.FirstVertex,
	})
	return nil
}

// End closes the pass. Ending twice does nothing.
func (p *RenderPass) End() {
	if p.ended {
		return
	}
	p.ended = true
	p.emit(EndRenderPassCommand{})
	p.encoder.active = false
}

// ComputePass records compute and ray-tracing dispatches.
type ComputePass struct {
	pass
}

// Record emits the commands that dispatch a resolved compute or ray-tracing
// stage batch.
func (p *ComputePass) Record(sb *stage.StageBatch) error {
	if err := p.check(sb); err != nil {
		return err
	}
	b := sb.Batch()
	switch b.Kind() {
	case batch.KindCompute:
		cp := b.Compute()
		p.setPipeline(sb.Shader().ID())
		p.bindResources(sb)
		if !cp.Indirect.IsZero() {
			p.emit(DispatchIndirectCommand{View: cp.Indirect})
		} else {
			p.emit(DispatchCommand{X: cp.GroupsX, Y: cp.GroupsY, Z: cp.GroupsZ})
		}
	case batch.KindRayTracing:
		rt := b.RayTracing()
		p.setPipeline(sb.Shader().ID())
		p.bindResources(sb)
		p.emit(TraceRaysCommand{Scene: rt.Scene, Width: rt.Width, Height: rt.Height, Depth: rt.Depth})
	default:
		return fmt.Errorf("%w: %s batch in compute pass", ErrWrongPass, b.Kind())
	}
	return nil
}

// End closes the pass. Ending twice does nothing.
func (p *ComputePass) End() {
	if p.ended {
		return
	}
	p.ended = true
	p.emit(EndComputePassCommand{})
	p.encoder.active = false
}
