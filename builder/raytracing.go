package builder

import (
	"github.com/gogpu/batchpool/batch"
	"github.com/gogpu/batchpool/pool"
	"github.com/gogpu/batchpool/resource"
)

// RayTracingBuilder builds ray-trace dispatch batches.
type RayTracingBuilder struct {
	common
	params batch.RayTracingParams
}

// RayTracing starts a ray-trace dispatch against scene.
func RayTracing(scene resource.AccelStructID) *RayTracingBuilder {
	return &RayTracingBuilder{params: batch.RayTracingParams{Scene: scene, Depth: 1}}
}

// Effect sets the effect.
func (b *RayTracingBuilder) Effect(e batch.EffectID) *RayTracingBuilder { b.desc.Effect = e; return b }

// Style sets the drawstyle bits.
func (b *RayTracingBuilder) Style(s batch.StyleBits) *RayTracingBuilder { b.desc.Style = s; return b }

// Filter sets the filter bits.
func (b *RayTracingBuilder) Filter(f batch.FilterBits) *RayTracingBuilder { b.desc.Filter = f; return b }

// Buffer attaches a named buffer binding.
func (b *RayTracingBuilder) Buffer(name string, view resource.BufferView) *RayTracingBuilder {
	b.buffer(name, view)
	return b
}

// Texture attaches a named sampled texture.
func (b *RayTracingBuilder) Texture(name string, tex *resource.Texture, sampler resource.SamplerID) *RayTracingBuilder {
	b.texture(name, tex, sampler)
	return b
}

// RWTexture attaches a named storage texture, typically the output image.
func (b *RayTracingBuilder) RWTexture(name string, tex *resource.Texture) *RayTracingBuilder {
	b.rwTexture(name, tex)
	return b
}

// Dimensions sets the dispatch size in rays.
func (b *RayTracingBuilder) Dimensions(width, height, depth uint32) *RayTracingBuilder {
	b.params.Width, b.params.Height, b.params.Depth = width, height, depth
	return b
}

// Finish returns the batch without submitting it.
func (b *RayTracingBuilder) Finish() batch.Batch {
	return b.finish("builder.RayTracing", b.params)
}

// Build submits the batch to p and returns a handle to its slot.
func (b *RayTracingBuilder) Build(p *pool.Pool, lifetime Lifetime, owner pool.OwnerID) pool.Handle {
	return submit(b.Finish(), p, lifetime, owner)
}
