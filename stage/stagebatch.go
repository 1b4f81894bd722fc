package stage

import (
	"github.com/gogpu/batchpool"
	"github.com/gogpu/batchpool/batch"
	"github.com/gogpu/batchpool/pool"
	"github.com/gogpu/batchpool/resource"
	"github.com/gogpu/batchpool/shader"
)

// VertexBinding is a vertex stream bound to a shader input slot.
type VertexBinding struct {
	Stream batch.VertexStream
	Slot   uint32
}

// IsEmpty reports whether the entry binds nothing.
func (v VertexBinding) IsEmpty() bool { return v.Stream.IsEmpty() }

// StageBatch is a pooled batch prepared for one render stage: the shader
// variant it draws with, the vertex streams that shader consumes and where,
// the instance count, and bindings that live for one submission.
//
// A StageBatch owns one reference to its pool slot. It is resolved once and
// reused across frames while the instance count stays the same.
//
// StageBatch is not safe for concurrent use.
type StageBatch struct {
	handle pool.Handle

	override    batch.VertexTable
	hasOverride bool

	resolved   bool
	stageStyle batch.StyleBits
	instances  uint32
	shader     shader.Shader
	bindings   [batch.MaxVertexStreams]VertexBinding
	count      int

	singleFrame []batch.BufferBinding
}

// New wraps h, taking over its reference. It panics with a
// *batchpool.LogicError if h is invalid.
func New(h pool.Handle) *StageBatch {
	if !h.Valid() {
		batchpool.Violation("stage.New", "invalid handle")
	}
	return &StageBatch{handle: h}
}

// Handle returns the pool handle without adding a reference.
func (s *StageBatch) Handle() pool.Handle { return s.handle }

// Batch returns the pooled batch.
func (s *StageBatch) Batch() *batch.Batch { return s.handle.Batch() }

// Resolved reports whether Resolve has completed.
func (s *StageBatch) Resolved() bool { return s.resolved }

// Shader returns the resolved shader, or nil before Resolve.
func (s *StageBatch) Shader() shader.Shader { return s.shader }

// InstanceCount returns the resolved instance count.
func (s *StageBatch) InstanceCount() uint32 { return s.instances }

// StageStyle returns the stage drawstyle bits the batch was resolved with.
func (s *StageBatch) StageStyle() batch.StyleBits { return s.stageStyle }

// VertexBindings returns the bound vertex streams, contiguous and in table
// order. The slice aliases internal state and is valid until the next
// Resolve or SetVertexOverride.
func (s *StageBatch) VertexBindings() []VertexBinding { return s.bindings[:s.count] }

// VertexTable returns the table resolution walks: the override if one is
// set, otherwise the batch's own geometry. Non-raster batches have none.
func (s *StageBatch) VertexTable() *batch.VertexTable {
	if s.hasOverride {
		return &s.override
	}
	b := s.handle.Batch()
	if b.Kind() != batch.KindRaster {
		return nil
	}
	return &b.Raster().Vertices
}

// SetVertexOverride replaces the batch's vertex streams for this stage, for
// example with skinned or morphed vertices. A resolved StageBatch becomes
// unresolved. It panics with a *batchpool.LogicError if the streams of one
// semantic in t are not adjacent.
func (s *StageBatch) SetVertexOverride(t batch.VertexTable) {
	if sem, split := t.SplitRun(); split {
		batchpool.Violation("stage.SetVertexOverride", "%s streams are not adjacent", sem)
	}
	s.override = t
	s.hasOverride = true
	s.invalidate()
}

// ClearVertexOverride restores the batch's own vertex streams.
func (s *StageBatch) ClearVertexOverride() {
	if !s.hasOverride {
		return
	}
	s.override = batch.VertexTable{}
	s.hasOverride = false
	s.invalidate()
}

func (s *StageBatch) invalidate() {
	s.resolved = false
	s.shader = nil
	s.bindings = [batch.MaxVertexStreams]VertexBinding{}
	s.count = 0
}

// AddSingleFrameBuffer attaches a buffer for the next submission only.
func (s *StageBatch) AddSingleFrameBuffer(name string, view resource.BufferView) {
	s.singleFrame = append(s.singleFrame, batch.BufferBinding{Name: name, View: view})
}

// SingleFrameBuffers returns the buffers attached for the next submission.
func (s *StageBatch) SingleFrameBuffers() []batch.BufferBinding { return s.singleFrame }

// ClearSingleFrame drops the single-submission buffers.
func (s *StageBatch) ClearSingleFrame() {
	clear(s.singleFrame)
	s.singleFrame = s.singleFrame[:0]
}

// Release drops the pool reference and resets s.
func (s *StageBatch) Release() {
	s.handle.Release()
	*s = StageBatch{}
}
