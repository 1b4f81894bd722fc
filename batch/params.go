package batch

import (
	"github.com/gogpu/batchpool/resource"
	"github.com/gogpu/gputypes"
)

// Params is the closed set of kind-specific parameter structs:
// RasterParams, ComputeParams and RayTracingParams.
type Params interface {
	Kind() Kind
	sealed()
}

// IndexFormat specifies the format of index buffer elements.
type IndexFormat uint32

const (
	// IndexFormatUint16 uses 16-bit unsigned integers.
	IndexFormatUint16 IndexFormat = 0

	// IndexFormatUint32 uses 32-bit unsigned integers.
	IndexFormatUint32 IndexFormat = 1
)

// IndexStream is the optional index buffer of a raster batch.
type IndexStream struct {
	View   resource.BufferView
	Format IndexFormat
}

// IsZero reports whether no index buffer is bound.
func (s IndexStream) IsZero() bool { return s.View.IsZero() }

// RasterParams describes a draw call.
type RasterParams struct {
	// Vertices is the default geometry. Stages may supersede it with an
	// override table at resolve time.
	Vertices VertexTable

	// Index is the index buffer; zero for non-indexed draws.
	Index IndexStream

	// Topology is the primitive topology of the geometry.
	Topology gputypes.PrimitiveTopology

	VertexCount uint32
	IndexCount  uint32
	FirstVertex uint32
	FirstIndex  uint32
	BaseVertex  int32

	// InstanceCount is the number of instances the producer asked for.
	// It is not hashed.
	InstanceCount uint32
}

// Kind implements Params.
func (RasterParams) Kind() Kind { return KindRaster }
func (RasterParams) sealed()    {}

// Indexed reports whether the draw uses an index buffer.
func (p *RasterParams) Indexed() bool { return !p.Index.IsZero() }

// ComputeParams describes a compute dispatch.
type ComputeParams struct {
	GroupsX, GroupsY, GroupsZ uint32

	// Indirect, when set, supplies the group counts from a GPU buffer and
	// overrides the fixed counts.
	Indirect resource.BufferView
}

// Kind implements Params.
func (ComputeParams) Kind() Kind { return KindCompute }
func (ComputeParams) sealed()    {}

// RayTracingParams describes a ray-trace dispatch.
type RayTracingParams struct {
	// Scene is the top-level acceleration structure traced against.
	Scene resource.AccelStructID

	Width, Height, Depth uint32
}

// Kind implements Params.
func (RayTracingParams) Kind() Kind { return KindRayTracing }
func (RayTracingParams) sealed()    {}
