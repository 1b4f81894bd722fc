package stage

import (
	"fmt"

	"github.com/gogpu/batchpool/batch"
)

// validateBindings checks a resolved vertex table: the first count entries
// are bound and the rest empty, slots are unique, and entries of one
// semantic have increasing slots.
func validateBindings(b *[batch.MaxVertexStreams]VertexBinding, count int) error {
	var (
		used     = make(map[uint32]int, count)
		lastSlot = make(map[batch.Semantic]uint32, count)
	)
	for i, v := range b {
		if i >= count {
			if !v.IsEmpty() {
				return fmt.Errorf("entry %d bound past the end %d", i, count)
			}
			continue
		}
		if v.IsEmpty() {
			return fmt.Errorf("entry %d empty inside the bound range %d", i, count)
		}
		if prev, dup := used[v.Slot]; dup {
			return fmt.Errorf("slot %d bound by entries %d and %d", v.Slot, prev, i)
		}
		used[v.Slot] = i
		if last, ok := lastSlot[v.Stream.Semantic]; ok && v.Slot <= last {
			return fmt.Errorf("%s slots not increasing at entry %d (%d after %d)", v.Stream.Semantic, i, v.Slot, last)
		}
		lastSlot[v.Stream.Semantic] = v.Slot
	}
	return nil
}
