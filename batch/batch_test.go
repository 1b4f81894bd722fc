package batch

import (
	"testing"

	"github.com/gogpu/batchpool"
	"github.com/gogpu/batchpool/resource"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuffer(size uint64) *resource.Buffer {
	return resource.NewBuffer(nil, nil, &resource.BufferDescriptor{Size: size})
}

type fixture struct {
	pos, nrm, idx, cb *resource.Buffer
	albedo            *resource.Texture
	sampler           resource.SamplerID
}

func newFixture() *fixture {
	return &fixture{
		pos:     newBuffer(1200),
		nrm:     newBuffer(1200),
		idx:     newBuffer(600),
		cb:      newBuffer(256),
		albedo:  resource.NewTexture(nil, "albedo", gputypes.TextureFormatRGBA8Unorm),
		sampler: resource.NewSamplerID(),
	}
}

func (f *fixture) rasterDesc() *Desc {
	return &Desc{
		Params: RasterParams{
			Vertices: Table(
				VertexStream{Semantic: Position, View: resource.BufferView{Buffer: f.pos, Size: 1200, Stride: 12, Format: gputypes.VertexFormatFloat32x3}},
				VertexStream{Semantic: Normal, View: resource.BufferView{Buffer: f.nrm, Size: 1200, Stride: 12, Format: gputypes.VertexFormatFloat32x3}},
			),
			Index:         IndexStream{View: resource.WholeBuffer(f.idx), Format: IndexFormatUint16},
			Topology:      gputypes.PrimitiveTopologyTriangleList,
			IndexCount:    300,
			InstanceCount: 1,
		},
		Effect:   7,
		Style:    0b01,
		Filter:   0b10,
		Buffers:  []BufferBinding{{Name: "material", View: resource.WholeBuffer(f.cb)}},
		Textures: []TextureBinding{{Name: "albedo", Texture: f.albedo, Sampler: f.sampler}},
	}
}

func TestNewRaster(t *testing.T) {
	f := newFixture()
	b := New(f.rasterDesc())

	assert.True(t, b.Valid())
	assert.Equal(t, KindRaster, b.Kind())
	assert.Equal(t, EffectID(7), b.Effect())
	assert.Equal(t, StyleBits(0b01), b.Style())
	assert.Equal(t, FilterBits(0b10), b.Filter())
	assert.NotZero(t, b.Hash())
	assert.Equal(t, b.Hash(), b.ComputeContentHash())
	assert.Equal(t, 2, b.Raster().Vertices.Len())
	assert.True(t, b.Raster().Indexed())

	mat, ok := b.Buffer("material")
	require.True(t, ok)
	assert.Equal(t, f.cb.ID(), mat.View.BufferID())
	tex, ok := b.Texture("albedo")
	require.True(t, ok)
	assert.Equal(t, f.albedo.ID(), tex.TextureID())
	assert.Len(t, b.Buffers(), 1)
	assert.Len(t, b.Textures(), 1)
	assert.Empty(t, b.RWTextures())
}

func TestHashDeterministic(t *testing.T) {
	f := newFixture()
	a := New(f.rasterDesc())
	b := New(f.rasterDesc())
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestHashSensitivity(t *testing.T) {
	f := newFixture()
	base := hashOf(New(f.rasterDesc()))

	tests := []struct {
		name   string
		mutate func(d *Desc)
		same   bool
	}{
		{"effect", func(d *Desc) { d.Effect = 8 }, false},
		{"style", func(d *Desc) { d.Style = 0b11 }, false},
		{"filter", func(d *Desc) { d.Filter = 0b11 }, false},
		{"transient filter", func(d *Desc) { d.Filter |= 1 << 50 }, true},
		{"instance count", func(d *Desc) {
			p := d.Params.(RasterParams)
			p.InstanceCount = 12
			d.Params = p
		}, true},
		{"topology", func(d *Desc) {
			p := d.Params.(RasterParams)
			p.Topology = gputypes.PrimitiveTopologyLineList
			d.Params = p
		}, false},
		{"buffer identity", func(d *Desc) {
			d.Buffers = []BufferBinding{{Name: "material", View: resource.WholeBuffer(newBuffer(256))}}
		}, false},
		{"binding name", func(d *Desc) {
			d.Buffers = []BufferBinding{{Name: "other", View: d.Buffers[0].View}}
		}, false},
		{"sampler", func(d *Desc) { d.Textures[0].Sampler = resource.NewSamplerID() }, false},
		{"rw texture", func(d *Desc) {
			d.RWTextures = []TextureBinding{{Name: "out", Texture: f.albedo}}
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := f.rasterDesc()
			tt.mutate(d)
			got := hashOf(New(d))
			if tt.same {
				assert.Equal(t, base, got)
			} else {
				assert.NotEqual(t, base, got)
			}
		})
	}
}

func TestHashBindingOrder(t *testing.T) {
	a, b := newBuffer(16), newBuffer(16)
	d1 := &Desc{Params: ComputeParams{GroupsX: 1, GroupsY: 1, GroupsZ: 1}, Buffers: []BufferBinding{
		{Name: "a", View: resource.WholeBuffer(a)}, {Name: "b", View: resource.WholeBuffer(b)},
	}}
	d2 := &Desc{Params: ComputeParams{GroupsX: 1, GroupsY: 1, GroupsZ: 1}, Buffers: []BufferBinding{
		{Name: "b", View: resource.WholeBuffer(b)}, {Name: "a", View: resource.WholeBuffer(a)},
	}}
	assert.NotEqual(t, hashOf(New(d1)), hashOf(New(d2)))
}

func TestHashKindsDiffer(t *testing.T) {
	c := New(&Desc{Params: ComputeParams{GroupsX: 4, GroupsY: 4, GroupsZ: 1}})
	r := New(&Desc{Params: RayTracingParams{Width: 4, Height: 4, Depth: 1}})
	assert.Equal(t, KindCompute, c.Kind())
	assert.Equal(t, KindRayTracing, r.Kind())
	assert.NotEqual(t, c.Hash(), r.Hash())
	assert.Equal(t, uint32(4), c.Compute().GroupsX)
	assert.Equal(t, uint32(4), r.RayTracing().Width)
}

func TestPointerParams(t *testing.T) {
	p := &ComputeParams{GroupsX: 2, GroupsY: 1, GroupsZ: 1}
	b := New(&Desc{Params: p})
	assert.Equal(t, hashOf(New(&Desc{Params: *p})), b.Hash())
}

func TestWrongKindPanics(t *testing.T) {
	b := New(&Desc{Params: ComputeParams{GroupsX: 1}})
	assert.PanicsWithError(t, "batch.Raster: batch is Compute, not Raster", func() { b.Raster() })
	assert.Panics(t, func() { b.RayTracing() })

	var zero Batch
	assert.False(t, zero.Valid())
	assert.Panics(t, func() { zero.Compute() })
}

func TestSplitSemanticPanics(t *testing.T) {
	view := resource.WholeBuffer(newBuffer(64))
	tc := VertexStream{Semantic: TexCoord, View: view}
	col := VertexStream{Semantic: Color, View: view}

	assert.PanicsWithError(t, "batch.Table: texcoord streams are not adjacent", func() {
		Table(tc, col, tc)
	})

	// A table assembled by hand is checked when the batch is built.
	var vt VertexTable
	vt[0], vt[1], vt[2] = tc, col, tc
	assert.PanicsWithError(t, "batch.New: texcoord streams are not adjacent", func() {
		New(&Desc{Params: RasterParams{Vertices: vt, VertexCount: 3}})
	})
}

func TestSplitRun(t *testing.T) {
	view := resource.WholeBuffer(newBuffer(64))
	st := func(s Semantic) VertexStream { return VertexStream{Semantic: s, View: view} }

	tests := []struct {
		name    string
		streams []VertexStream
		want    Semantic
		split   bool
	}{
		{"empty", nil, SemanticNone, false},
		{"grouped", []VertexStream{st(Position), st(TexCoord), st(TexCoord), st(Color)}, SemanticNone, false},
		{"split", []VertexStream{st(TexCoord), st(Color), st(TexCoord)}, TexCoord, true},
		{"first split wins", []VertexStream{st(Position), st(Color), st(Position), st(Color)}, Position, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var vt VertexTable
			copy(vt[:], tt.streams)
			got, split := vt.SplitRun()
			assert.Equal(t, tt.split, split)
			assert.Equal(t, tt.want, got)
		})
	}

	// Entries after the first empty one are not part of the table.
	var vt VertexTable
	vt[0], vt[2] = st(TexCoord), st(TexCoord)
	_, split := vt.SplitRun()
	assert.False(t, split)
}

func TestMissingParamsPanics(t *testing.T) {
	assert.Panics(t, func() { New(&Desc{}) })
}

func TestDuplicateBindingPanics(t *testing.T) {
	buf := newBuffer(16)
	defer func() {
		r := recover()
		le, ok := r.(*batchpool.LogicError)
		require.True(t, ok, "panic value %T", r)
		assert.Equal(t, "batch.New", le.Op)
	}()
	New(&Desc{
		Params: ComputeParams{GroupsX: 1},
		Buffers: []BufferBinding{
			{Name: "data", View: resource.WholeBuffer(buf)},
			{Name: "data", View: resource.WholeBuffer(buf)},
		},
	})
}

func TestDestroy(t *testing.T) {
	f := newFixture()
	scratch := newBuffer(64)
	d := f.rasterDesc()
	d.Owned = []*resource.Buffer{scratch}
	b := New(d)
	require.True(t, b.OwnsBuffers())

	b.Destroy()
	assert.False(t, b.Valid())
	assert.Equal(t, KindInvalid, b.Kind())
	assert.Zero(t, b.Hash())
	assert.Empty(t, b.Buffers())
	assert.Empty(t, b.Textures())
	assert.False(t, b.OwnsBuffers())
	assert.True(t, scratch.IsDestroyed())
	assert.False(t, f.pos.IsDestroyed(), "referenced buffers are not owned")
}

func TestDiscardSparesSharedOwnership(t *testing.T) {
	f := newFixture()
	shared := newBuffer(64)
	mine := newBuffer(64)

	dk := f.rasterDesc()
	dk.Owned = []*resource.Buffer{shared}
	keep := New(dk)

	dd := f.rasterDesc()
	dd.Owned = []*resource.Buffer{shared, mine}
	dup := New(dd)
	require.Equal(t, keep.Hash(), dup.Hash(), "owned buffers are not hashed")

	dup.Discard(&keep)
	assert.False(t, dup.Valid())
	assert.True(t, mine.IsDestroyed())
	assert.False(t, shared.IsDestroyed())
	assert.True(t, keep.Valid())
}

func TestVertexTable(t *testing.T) {
	var empty VertexTable
	assert.Equal(t, 0, empty.Len())
	assert.Empty(t, empty.Active())

	buf := newBuffer(64)
	tbl := Table(
		VertexStream{Semantic: Position, View: resource.WholeBuffer(buf)},
		VertexStream{Semantic: TexCoord, View: resource.WholeBuffer(buf)},
		VertexStream{Semantic: TexCoord, View: resource.WholeBuffer(buf)},
	)
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, TexCoord, tbl.Active()[2].Semantic)

	assert.Panics(t, func() { Table(VertexStream{}) })
	assert.Panics(t, func() { Table(make([]VertexStream, MaxVertexStreams+1)...) })
}

func TestSemantic(t *testing.T) {
	for s := Position; s < semanticCount; s++ {
		got, ok := ParseSemantic(s.String())
		assert.True(t, ok, s.String())
		assert.Equal(t, s, got)
	}
	got, ok := ParseSemantic("TexCoord")
	assert.True(t, ok)
	assert.Equal(t, TexCoord, got)
	_, ok = ParseSemantic("none")
	assert.False(t, ok)
	_, ok = ParseSemantic("bogus")
	assert.False(t, ok)
	assert.Equal(t, "!batch.Semantic", Semantic(200).String())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "Raster", KindRaster.String())
	assert.Equal(t, "Compute", KindCompute.String())
	assert.Equal(t, "RayTracing", KindRayTracing.String())
	assert.Equal(t, "Invalid", KindInvalid.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

func BenchmarkComputeContentHash(b *testing.B) {
	f := newFixture()
	bt := New(f.rasterDesc())
	b.ReportAllocs()
	for b.Loop() {
		_ = bt.ComputeContentHash()
	}
}

// hashOf calls the pointer-receiver Hash on a Batch value.
func hashOf(b Batch) uint64 { return b.Hash() }
