package batch

import (
	"slices"

	"github.com/gogpu/batchpool"
	"github.com/gogpu/batchpool/resource"
)

// Desc collects everything needed to construct a Batch.
type Desc struct {
	// Params selects the kind and carries the kind-specific fields.
	Params Params

	Effect EffectID
	Style  StyleBits
	Filter FilterBits

	// Buffers, Textures and RWTextures are attached in order. Names must be
	// unique within each list.
	Buffers    []BufferBinding
	Textures   []TextureBinding
	RWTextures []TextureBinding

	// Owned lists buffers created solely for this batch. They are destroyed
	// together with the batch.
	Owned []*resource.Buffer
}

// Batch is an immutable description of one unit of GPU work.
//
// The zero Batch is invalid. A Batch is constructed with New, stored by value
// in a pool slot, and cleared in place with Destroy when its slot is reclaimed.
// Accessors return pointers into the Batch for speed; callers must treat them
// as read-only.
type Batch struct {
	kind Kind
	hash uint64

	effect EffectID
	style  StyleBits
	filter FilterBits

	// Only the member matching kind is meaningful.
	raster  RasterParams
	compute ComputeParams
	ray     RayTracingParams

	buffers    bindingSet[BufferBinding]
	textures   bindingSet[TextureBinding]
	rwTextures bindingSet[TextureBinding]

	owned []*resource.Buffer
}

// New builds a Batch from d and computes its content hash.
// It panics with a *batchpool.LogicError if d has no parameters, two
// bindings in the same list share a name, or a raster vertex table splits the
// streams of one semantic.
func New(d *Desc) Batch {
	const op = "batch.New"
	var b Batch
	switch p := d.Params.(type) {
	case RasterParams:
		b.kind = KindRaster
		b.raster = p
	case *RasterParams:
		b.kind = KindRaster
		b.raster = *p
	case ComputeParams:
		b.kind = KindCompute
		b.compute = p
	case *ComputeParams:
		b.kind = KindCompute
		b.compute = *p
	case RayTracingParams:
		b.kind = KindRayTracing
		b.ray = p
	case *RayTracingParams:
		b.kind = KindRayTracing
		b.ray = *p
	default:
		batchpool.Violation(op, "unsupported params %T", d.Params)
	}

	if b.kind == KindRaster {
		if s, split := b.raster.Vertices.SplitRun(); split {
			batchpool.Violation(op, "%s streams are not adjacent", s)
		}
	}

	b.effect = d.Effect
	b.style = d.Style
	b.filter = d.Filter
	for _, bb := range d.Buffers {
		b.buffers.add(op, bb.Name, bb)
	}
	for _, tb := range d.Textures {
		b.textures.add(op, tb.Name, tb)
	}
	for _, tb := range d.RWTextures {
		b.rwTextures.add(op, tb.Name, tb)
	}
	if len(d.Owned) > 0 {
		b.owned = append([]*resource.Buffer(nil), d.Owned...)
	}
	b.hash = b.ComputeContentHash()
	return b
}

// Valid reports whether b holds work, i.e. was built and not destroyed.
func (b *Batch) Valid() bool { return b.kind != KindInvalid }

// Kind returns the work kind.
func (b *Batch) Kind() Kind { return b.kind }

// Hash returns the content hash computed at construction.
func (b *Batch) Hash() uint64 { return b.hash }

// Effect returns the effect the batch is drawn with.
func (b *Batch) Effect() EffectID { return b.effect }

// Style returns the batch's own drawstyle bits.
func (b *Batch) Style() StyleBits { return b.style }

// Filter returns the batch's filter bits, transient bits included.
func (b *Batch) Filter() FilterBits { return b.filter }

// Raster returns the draw parameters. It panics if b is not a raster batch.
func (b *Batch) Raster() *RasterParams {
	b.mustBe(KindRaster, "batch.Raster")
	return &b.raster
}

// Compute returns the dispatch parameters. It panics if b is not a compute
// batch.
func (b *Batch) Compute() *ComputeParams {
	b.mustBe(KindCompute, "batch.Compute")
	return &b.compute
}

// RayTracing returns the trace parameters. It panics if b is not a
// ray-tracing batch.
func (b *Batch) RayTracing() *RayTracingParams {
	b.mustBe(KindRayTracing, "batch.RayTracing")
	return &b.ray
}

func (b *Batch) mustBe(k Kind, op string) {
	if b.kind != k {
		batchpool.Violation(op, "batch is %v, not %v", b.kind, k)
	}
}

// Buffers returns the attached buffer bindings in attachment order.
func (b *Batch) Buffers() []BufferBinding { return b.buffers.values() }

// Textures returns the attached read-only texture bindings in attachment order.
func (b *Batch) Textures() []TextureBinding { return b.textures.values() }

// RWTextures returns the attached read-write texture bindings in attachment order.
func (b *Batch) RWTextures() []TextureBinding { return b.rwTextures.values() }

// Buffer looks up a buffer binding by name.
func (b *Batch) Buffer(name string) (BufferBinding, bool) { return b.buffers.lookup(name) }

// Texture looks up a read-only texture binding by name.
func (b *Batch) Texture(name string) (TextureBinding, bool) { return b.textures.lookup(name) }

// OwnsBuffers reports whether b exclusively owns any buffers.
func (b *Batch) OwnsBuffers() bool { return len(b.owned) > 0 }

// Destroy releases the buffers b owns and resets b to the invalid kind,
// dropping every resource reference so the slot holding it can be reused.
func (b *Batch) Destroy() {
	for _, buf := range b.owned {
		buf.Destroy()
	}
	*b = Batch{}
}

// Discard resets b like Destroy but spares buffers that keep also owns. It is
// used when b turns out to duplicate keep and is dropped in its favour.
func (b *Batch) Discard(keep *Batch) {
	for _, buf := range b.owned {
		if !slices.Contains(keep.owned, buf) {
			buf.Destroy()
		}
	}
	*b = Batch{}
}
