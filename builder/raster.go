package builder

import (
	"fmt"

	"github.com/gogpu/batchpool"
	"github.com/gogpu/batchpool/batch"
	"github.com/gogpu/batchpool/pool"
	"github.com/gogpu/batchpool/renderdata"
	"github.com/gogpu/batchpool/resource"
	"github.com/gogpu/gputypes"
)

// TransformBinding is the buffer binding name under which FromRenderData
// attaches an object's transform constants.
const TransformBinding = "transform"

// RasterBuilder builds draw batches.
type RasterBuilder struct {
	common
	params batch.RasterParams
}

// Raster starts a draw batch with triangle-list topology.
func Raster() *RasterBuilder {
	return &RasterBuilder{params: batch.RasterParams{Topology: gputypes.PrimitiveTopologyTriangleList}}
}

// FromGeometry starts a draw of a whole static mesh, with no material
// bindings. Used for engine meshes such as full-screen triangles.
func FromGeometry(g *renderdata.Geometry) *RasterBuilder {
	return &RasterBuilder{params: g.RasterParams()}
}

// FromRenderData starts a draw of object id as described by src: its
// geometry, its material's effect, bits and bindings, and its transform
// bound as TransformBinding.
func FromRenderData(src renderdata.Source, id renderdata.ObjectID) (*RasterBuilder, error) {
	rec, err := src.Record(id)
	if err != nil {
		return nil, err
	}
	if rec.Geometry == nil || rec.Material == nil {
		return nil, fmt.Errorf("builder: object %d: incomplete render data", id)
	}

	b := FromGeometry(rec.Geometry)
	m := rec.Material
	b.desc.Effect = m.Effect
	b.desc.Style = m.Style
	b.desc.Filter = m.Filter
	b.desc.Buffers = append(b.desc.Buffers, m.Buffers...)
	b.desc.Textures = append(b.desc.Textures, m.Textures...)
	if !rec.Transform.IsZero() {
		b.buffer(TransformBinding, rec.Transform)
	}
	return b, nil
}

// Effect sets the effect.
func (b *RasterBuilder) Effect(e batch.EffectID) *RasterBuilder { b.desc.Effect = e; return b }

// Style sets the drawstyle bits.
func (b *RasterBuilder) Style(s batch.StyleBits) *RasterBuilder { b.desc.Style = s; return b }

// Filter sets the filter bits.
func (b *RasterBuilder) Filter(f batch.FilterBits) *RasterBuilder { b.desc.Filter = f; return b }

// Buffer attaches a named buffer binding.
func (b *RasterBuilder) Buffer(name string, view resource.BufferView) *RasterBuilder {
	b.buffer(name, view)
	return b
}

// Texture attaches a named sampled texture.
func (b *RasterBuilder) Texture(name string, tex *resource.Texture, sampler resource.SamplerID) *RasterBuilder {
	b.texture(name, tex, sampler)
	return b
}

// RWTexture attaches a named storage texture.
func (b *RasterBuilder) RWTexture(name string, tex *resource.Texture) *RasterBuilder {
	b.rwTexture(name, tex)
	return b
}

// Own hands buf to the batch, which destroys it when the batch is destroyed.
func (b *RasterBuilder) Own(buf *resource.Buffer) *RasterBuilder {
	b.desc.Owned = append(b.desc.Owned, buf)
	return b
}

// Vertices replaces the vertex table.
func (b *RasterBuilder) Vertices(t batch.VertexTable) *RasterBuilder { b.params.Vertices = t; return b }

// Stream appends a vertex stream. Streams of one semantic must be appended
// consecutively, in semantic-index order; appending a semantic after a
// different one has followed it panics.
func (b *RasterBuilder) Stream(s batch.Semantic, view resource.BufferView) *RasterBuilder {
	n := b.params.Vertices.Len()
	if n == batch.MaxVertexStreams {
		batchpool.Violation("builder.Stream", "more than %d vertex streams", batch.MaxVertexStreams)
	}
	if s == batch.SemanticNone || view.IsZero() {
		batchpool.Violation("builder.Stream", "empty vertex stream")
	}
	if n > 0 && b.params.Vertices[n-1].Semantic != s {
		for _, prev := range b.params.Vertices[:n] {
			if prev.Semantic == s {
				batchpool.Violation("builder.Stream", "%s streams are not adjacent", s)
			}
		}
	}
	b.params.Vertices[n] = batch.VertexStream{Semantic: s, View: view}
	return b
}

// Index sets the index buffer.
func (b *RasterBuilder) Index(view resource.BufferView, format batch.IndexFormat) *RasterBuilder {
	b.params.Index = batch.IndexStream{View: view, Format: format}
	return b
}

// Topology sets the primitive topology.
func (b *RasterBuilder) Topology(t gputypes.PrimitiveTopology) *RasterBuilder {
	b.params.Topology = t
	return b
}

// Draw sets the range of a non-indexed draw.
func (b *RasterBuilder) Draw(vertexCount, firstVertex uint32) *RasterBuilder {
	b.params.VertexCount = vertexCount
	b.params.FirstVertex = firstVertex
	return b
}

// DrawIndexed sets the range of an indexed draw.
func (b *RasterBuilder) DrawIndexed(indexCount, firstIndex uint32, baseVertex int32) *RasterBuilder {
	b.params.IndexCount = indexCount
	b.params.FirstIndex = firstIndex
	b.params.BaseVertex = baseVertex
	return b
}

// Instances sets the requested instance count. It does not affect the hash.
func (b *RasterBuilder) Instances(n uint32) *RasterBuilder { b.params.InstanceCount = n; return b }

// Finish returns the batch without submitting it.
func (b *RasterBuilder) Finish() batch.Batch {
	return b.finish("builder.Raster", b.params)
}

// Build submits the batch to p and returns a handle to its slot.
func (b *RasterBuilder) Build(p *pool.Pool, lifetime Lifetime, owner pool.OwnerID) pool.Handle {
	return submit(b.Finish(), p, lifetime, owner)
}
