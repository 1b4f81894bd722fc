package stage

import (
	"fmt"

	"github.com/gogpu/batchpool"
	"github.com/gogpu/batchpool/batch"
	"github.com/gogpu/batchpool/shader"
)

// Resolve prepares s for a stage drawing with stageStyle and instanceCount.
//
// The shader is looked up for the batch's effect and the union of the batch
// and stage drawstyle bits. For raster batches the geometry's topology class
// must match the shader's, and every vertex stream is bound to the input slot
// the shader reads it from; streams the shader does not read are dropped and
// the rest stay contiguous in table order.
//
// Resolving again with the same arguments does nothing and returns false.
// A different instance count or stage style panics with a
// *batchpool.LogicError, as does a topology mismatch. Lookup errors are
// returned and leave s unresolved.
func (s *StageBatch) Resolve(stageStyle batch.StyleBits, instanceCount uint32, lookup shader.Lookup) (bool, error) {
	const op = "stage.Resolve"

	if s.resolved {
		if instanceCount != s.instances {
			batchpool.Violation(op, "instance count changed from %d to %d", s.instances, instanceCount)
		}
		if stageStyle != s.stageStyle {
			batchpool.Violation(op, "stage style changed from %#x to %#x", uint64(s.stageStyle), uint64(stageStyle))
		}
		return false, nil
	}

	b := s.handle.Batch()
	sh, err := lookup.GetResolvedShader(b.Effect(), b.Style()|stageStyle)
	if err != nil {
		return false, fmt.Errorf("stage: resolve effect %d: %w", b.Effect(), err)
	}

	var bindings [batch.MaxVertexStreams]VertexBinding
	count := 0
	if b.Kind() == batch.KindRaster {
		topo := b.Raster().Topology
		if got, want := shader.ClassOf(topo), sh.Topology(); got != want {
			batchpool.Violation(op, "topology %v is %s, shader %d draws %s", topo, got, sh.ID(), want)
		}
		count = bindStreams(&bindings, s.VertexTable(), sh)
		if debugChecks {
			if err := validateBindings(&bindings, count); err != nil {
				batchpool.Violation(op, "%v", err)
			}
		}
	}

	s.shader = sh
	s.bindings = bindings
	s.count = count
	s.stageStyle = stageStyle
	s.instances = instanceCount
	s.resolved = true
	return true, nil
}

// bindStreams fills out with the streams of t that sh consumes and returns
// how many there are.
//
// Within each run of consecutive streams sharing a semantic, the n-th stream
// is bound to the slot of semantic index n. Streams without a slot are
// dropped and the rest are shifted left, keeping their order.
func bindStreams(out *[batch.MaxVertexStreams]VertexBinding, t *batch.VertexTable, sh shader.Shader) int {
	n := t.Len()
	idx := 0
	for i := range n {
		st := t[i]
		if i > 0 && st.Semantic == t[i-1].Semantic {
			idx++
		} else {
			idx = 0
		}
		if slot, ok := sh.VertexAttributeSlot(st.Semantic, idx); ok {
			out[i] = VertexBinding{Stream: st, Slot: slot}
		}
	}
	return compact(out[:n])
}

// compact moves the non-empty entries of v to its front in order, clears
// the rest, and returns the number kept.
func compact(v []VertexBinding) int {
	k := 0
	for i := range v {
		if v[i].IsEmpty() {
			continue
		}
		if i != k {
			v[k] = v[i]
			v[i] = VertexBinding{}
		}
		k++
	}
	return k
}
