package batch

import (
	"strings"

	"github.com/gogpu/batchpool"
	"github.com/gogpu/batchpool/resource"
)

// Semantic specifies the intended use of a vertex stream.
type Semantic uint8

// Semantics.
const (
	// SemanticNone marks an empty vertex table entry.
	SemanticNone Semantic = iota
	Position
	Normal
	Tangent
	TexCoord
	Color
	Joints
	Weights
	InstanceData

	semanticCount
)

var semanticNames = [semanticCount]string{
	SemanticNone: "none",
	Position:     "position",
	Normal:       "normal",
	Tangent:      "tangent",
	TexCoord:     "texcoord",
	Color:        "color",
	Joints:       "joints",
	Weights:      "weights",
	InstanceData: "instance",
}

// String implements fmt.Stringer.
func (s Semantic) String() string {
	if s < semanticCount {
		return semanticNames[s]
	}
	return "!batch.Semantic"
}

// ParseSemantic maps a lower-case semantic name, as used in shader input
// names, to its Semantic.
func ParseSemantic(name string) (Semantic, bool) {
	name = strings.ToLower(name)
	for s := Position; s < semanticCount; s++ {
		if semanticNames[s] == name {
			return s, true
		}
	}
	return SemanticNone, false
}

// MaxVertexStreams is the number of entries in a VertexTable.
const MaxVertexStreams = 16

// VertexStream is one entry of a VertexTable: a buffer view feeding one
// instance of a semantic. Entries of one semantic must be adjacent; the n-th
// entry of that run feeds instance n, so the second TexCoord entry is
// texcoord1.
type VertexStream struct {
	Semantic Semantic
	View     resource.BufferView
}

// IsEmpty reports whether the entry is unused.
func (s VertexStream) IsEmpty() bool { return s.Semantic == SemanticNone }

// VertexTable is the fixed-size list of vertex streams of a raster batch.
// The first empty entry terminates the active run.
type VertexTable [MaxVertexStreams]VertexStream

// Table returns a VertexTable holding streams in order.
// It panics if more than MaxVertexStreams streams are given, one of them is
// empty, or entries of one semantic are not adjacent.
func Table(streams ...VertexStream) VertexTable {
	var t VertexTable
	if len(streams) > MaxVertexStreams {
		batchpool.Violation("batch.Table", "%d streams exceed the limit of %d", len(streams), MaxVertexStreams)
	}
	for i, s := range streams {
		if s.IsEmpty() {
			batchpool.Violation("batch.Table", "stream %d has no semantic", i)
		}
		t[i] = s
	}
	if s, split := t.SplitRun(); split {
		batchpool.Violation("batch.Table", "%s streams are not adjacent", s)
	}
	return t
}

// SplitRun reports the first semantic whose entries in the active run of t
// are not adjacent, as in [TexCoord, Color, TexCoord].
func (t *VertexTable) SplitRun() (Semantic, bool) {
	var seen uint64
	n := t.Len()
	for i := range n {
		s := t[i].Semantic
		if i > 0 && t[i-1].Semantic == s {
			continue
		}
		if seen&(1<<s) != 0 {
			return s, true
		}
		seen |= 1 << s
	}
	return SemanticNone, false
}

// Len returns the number of entries before the first empty one.
func (t *VertexTable) Len() int {
	for i := range t {
		if t[i].IsEmpty() {
			return i
		}
	}
	return MaxVertexStreams
}

// Active returns the active run of t.
func (t *VertexTable) Active() []VertexStream {
	return t[:t.Len()]
}
