package builder

import (
	"github.com/gogpu/batchpool/batch"
	"github.com/gogpu/batchpool/pool"
	"github.com/gogpu/batchpool/resource"
)

// ComputeBuilder builds compute dispatch batches.
type ComputeBuilder struct {
	common
	params batch.ComputeParams
}

// Compute starts a dispatch of a single workgroup.
func Compute() *ComputeBuilder {
	return &ComputeBuilder{params: batch.ComputeParams{GroupsX: 1, GroupsY: 1, GroupsZ: 1}}
}

// Effect sets the effect.
func (b *ComputeBuilder) Effect(e batch.EffectID) *ComputeBuilder { b.desc.Effect = e; return b }

// Style sets the drawstyle bits.
func (b *ComputeBuilder) Style(s batch.StyleBits) *ComputeBuilder { b.desc.Style = s; return b }

// Filter sets the filter bits.
func (b *ComputeBuilder) Filter(f batch.FilterBits) *ComputeBuilder { b.desc.Filter = f; return b }

// Buffer attaches a named buffer binding.
func (b *ComputeBuilder) Buffer(name string, view resource.BufferView) *ComputeBuilder {
	b.buffer(name, view)
	return b
}

// Texture attaches a named sampled texture.
func (b *ComputeBuilder) Texture(name string, tex *resource.Texture, sampler resource.SamplerID) *ComputeBuilder {
	b.texture(name, tex, sampler)
	return b
}

// RWTexture attaches a named storage texture.
func (b *ComputeBuilder) RWTexture(name string, tex *resource.Texture) *ComputeBuilder {
	b.rwTexture(name, tex)
	return b
}

// Own hands buf to the batch, which destroys it when the batch is destroyed.
func (b *ComputeBuilder) Own(buf *resource.Buffer) *ComputeBuilder {
	b.desc.Owned = append(b.desc.Owned, buf)
	return b
}

// Groups sets the workgroup counts.
func (b *ComputeBuilder) Groups(x, y, z uint32) *ComputeBuilder {
	b.params.GroupsX, b.params.GroupsY, b.params.GroupsZ = x, y, z
	return b
}

// Indirect reads the workgroup counts from view at dispatch time.
func (b *ComputeBuilder) Indirect(view resource.BufferView) *ComputeBuilder {
	b.params.Indirect = view
	return b
}

// Finish returns the batch without submitting it.
func (b *ComputeBuilder) Finish() batch.Batch {
	return b.finish("builder.Compute", b.params)
}

// Build submits the batch to p and returns a handle to its slot.
func (b *ComputeBuilder) Build(p *pool.Pool, lifetime Lifetime, owner pool.OwnerID) pool.Handle {
	return submit(b.Finish(), p, lifetime, owner)
}
