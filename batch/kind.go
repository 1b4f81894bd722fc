package batch

import "fmt"

// Kind identifies which parameter set a Batch carries.
type Kind uint8

// Batch kinds.
const (
	// KindInvalid is the kind of a zero or destroyed Batch.
	KindInvalid Kind = iota

	// KindRaster is a draw call.
	KindRaster

	// KindCompute is a compute dispatch.
	KindCompute

	// KindRayTracing is a ray-trace dispatch.
	KindRayTracing
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "Invalid"
	case KindRaster:
		return "Raster"
	case KindCompute:
		return "Compute"
	case KindRayTracing:
		return "RayTracing"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// EffectID identifies an effect: a family of shader variants selected by
// drawstyle bits.
type EffectID uint32

// InvalidEffect is the zero EffectID.
const InvalidEffect EffectID = 0

// StyleBits is a drawstyle bitmask selecting among the shader variants of an
// effect. A batch's bits are combined with the bits of the stage that draws it.
type StyleBits uint64

// FilterBits is a user-defined capability mask ("alpha blended", "casts
// shadow", ...) that stages use to include or exclude batches.
type FilterBits uint64

// FilterTransientMask selects the filter bits that describe the submitting
// object rather than the work itself (selection highlight, debug tagging).
// They are carried by the batch but never hashed.
const FilterTransientMask FilterBits = 0xFFFF << 48
