// Package shader defines the shader lookup service that stage batches resolve
// against, and a WGSL-backed implementation of it.
//
// A [Lookup] maps an effect and a combined drawstyle mask to a concrete
// [Shader]. A Shader reports the topology class it rasterizes and, through
// reflection, which vertex input slot consumes each instance of a semantic.
package shader

import (
	"fmt"

	"github.com/gogpu/batchpool/batch"
	"github.com/gogpu/gputypes"
)

// TopologyClass groups primitive topologies by the primitive a pipeline
// rasterizes.
type TopologyClass uint8

// Topology classes.
const (
	// TopologyNone is reported by shaders without a vertex stage.
	TopologyNone TopologyClass = iota
	TopologyPoint
	TopologyLine
	TopologyTriangle
)

// String implements fmt.Stringer.
func (c TopologyClass) String() string {
	switch c {
	case TopologyNone:
		return "none"
	case TopologyPoint:
		return "point"
	case TopologyLine:
		return "line"
	case TopologyTriangle:
		return "triangle"
	default:
		return fmt.Sprintf("TopologyClass(%d)", uint8(c))
	}
}

// ClassOf returns the class of a primitive topology.
func ClassOf(t gputypes.PrimitiveTopology) TopologyClass {
	switch t {
	case gputypes.PrimitiveTopologyPointList:
		return TopologyPoint
	case gputypes.PrimitiveTopologyLineList, gputypes.PrimitiveTopologyLineStrip:
		return TopologyLine
	case gputypes.PrimitiveTopologyTriangleList, gputypes.PrimitiveTopologyTriangleStrip:
		return TopologyTriangle
	default:
		return TopologyNone
	}
}

// ID identifies a resolved shader program.
type ID uint64

// Shader is a resolved shader program.
type Shader interface {
	// ID returns the program's identity.
	ID() ID

	// Topology returns the primitive class the program expects.
	Topology() TopologyClass

	// VertexAttributeSlot returns the input slot consuming the index-th
	// instance of semantic, or false if the program does not read it.
	VertexAttributeSlot(semantic batch.Semantic, index int) (uint32, bool)
}

// Lookup resolves the shader for an effect and a combined drawstyle mask.
//
// Implementations must be safe for concurrent use: stages resolve their
// batches from parallel workers.
type Lookup interface {
	GetResolvedShader(effect batch.EffectID, style batch.StyleBits) (Shader, error)
}

// LookupFunc adapts a function to the Lookup interface.
type LookupFunc func(effect batch.EffectID, style batch.StyleBits) (Shader, error)

// GetResolvedShader implements Lookup.
func (f LookupFunc) GetResolvedShader(effect batch.EffectID, style batch.StyleBits) (Shader, error) {
	return f(effect, style)
}
