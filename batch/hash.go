package batch

import (
	"encoding/binary"

	"github.com/gogpu/batchpool/resource"
	"github.com/zeebo/xxh3"
)

// ComputeContentHash computes the content hash of b from its current fields.
// New stores the result; Hash returns it without recomputation.
//
// The hash includes all fields that affect what the GPU executes:
//   - Kind and kind-specific parameters (instance count excluded)
//   - Effect, drawstyle bits and non-transient filter bits
//   - Buffer and texture bindings by name and resource identity
func (b *Batch) ComputeContentHash() uint64 {
	w := hashWriter{h: xxh3.New()}

	w.u32(uint32(b.kind))
	switch b.kind {
	case KindRaster:
		w.raster(&b.raster)
	case KindCompute:
		w.compute(&b.compute)
	case KindRayTracing:
		w.rayTracing(&b.ray)
	}

	w.u32(uint32(b.effect))
	w.u64(uint64(b.style))
	w.u64(uint64(b.filter &^ FilterTransientMask))

	w.u32(uint32(b.buffers.len()))
	for _, bb := range b.buffers.values() {
		w.str(bb.Name)
		w.view(&bb.View)
	}
	w.textures(b.textures.values())
	w.textures(b.rwTextures.values())

	return w.h.Sum64()
}

// hashWriter feeds fixed-width little-endian values into an XXH3 hasher.
type hashWriter struct {
	h   *xxh3.Hasher
	buf [8]byte
}

func (w *hashWriter) u32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	_, _ = w.h.Write(w.buf[:4]) // xxh3 Write never returns an error
}

func (w *hashWriter) u64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[:], v)
	_, _ = w.h.Write(w.buf[:])
}

//nolint:gosec // G115: binding names are short identifiers
func (w *hashWriter) str(s string) {
	w.u32(uint32(len(s)))
	_, _ = w.h.Write([]byte(s))
}

func (w *hashWriter) view(v *resource.BufferView) {
	w.u64(uint64(v.BufferID()))
	w.u64(v.Offset)
	w.u64(v.Size)
	w.u32(v.Stride)
	w.u32(uint32(v.Format))
}

func (w *hashWriter) raster(p *RasterParams) {
	n := p.Vertices.Len()
	w.u32(uint32(n))
	for i := range n {
		s := &p.Vertices[i]
		w.u32(uint32(s.Semantic))
		w.view(&s.View)
	}
	w.view(&p.Index.View)
	w.u32(uint32(p.Index.Format))
	w.u32(uint32(p.Topology))
	w.u32(p.VertexCount)
	w.u32(p.IndexCount)
	w.u32(p.FirstVertex)
	w.u32(p.FirstIndex)
	w.u32(uint32(p.BaseVertex))
}

func (w *hashWriter) compute(p *ComputeParams) {
	w.u32(p.GroupsX)
	w.u32(p.GroupsY)
	w.u32(p.GroupsZ)
	w.view(&p.Indirect)
}

func (w *hashWriter) rayTracing(p *RayTracingParams) {
	w.u64(uint64(p.Scene))
	w.u32(p.Width)
	w.u32(p.Height)
	w.u32(p.Depth)
}

//nolint:gosec // G115: binding counts are bounded by shader limits
func (w *hashWriter) textures(ts []TextureBinding) {
	w.u32(uint32(len(ts)))
	for _, tb := range ts {
		w.str(tb.Name)
		w.u64(uint64(tb.TextureID()))
		w.u64(uint64(tb.Sampler))
	}
}
