package resource

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// BufferID is the stable identity of a Buffer.
type BufferID uint64

// TextureID is the stable identity of a Texture.
type TextureID uint64

// SamplerID is an opaque handle to a sampler state object.
type SamplerID uint64

// AccelStructID is an opaque handle to a ray-tracing acceleration structure
// owned by the acceleration-structure subsystem.
type AccelStructID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// idCounter is used to generate unique resource IDs.
var idCounter atomic.Uint64

// nextID returns the next unique resource ID.
func nextID() uint64 {
	return idCounter.Add(1)
}

// NewSamplerID allocates a fresh sampler identity.
func NewSamplerID() SamplerID { return SamplerID(nextID()) }

// NewAccelStructID allocates a fresh acceleration-structure identity.
func NewAccelStructID() AccelStructID { return AccelStructID(nextID()) }

// BufferDescriptor describes a buffer to wrap.
type BufferDescriptor struct {
	// Label is an optional debug name.
	Label string

	// Size is the buffer size in bytes.
	Size uint64

	// Usage specifies how the buffer will be used.
	Usage gputypes.BufferUsage
}

// Buffer is a GPU buffer with a stable identity.
//
// Thread Safety:
// Buffer is safe for concurrent use. Destroy may race with Raw; after
// Destroy, Raw returns nil.
type Buffer struct {
	id         BufferID
	descriptor BufferDescriptor

	mu        sync.RWMutex
	halBuffer hal.Buffer
	device    hal.Device
	destroyed bool
}

// NewBuffer wraps a hal buffer. Both halBuffer and device may be nil, in which
// case the Buffer is an identity-only placeholder.
func NewBuffer(halBuffer hal.Buffer, device hal.Device, desc *BufferDescriptor) *Buffer {
	b := &Buffer{
		id:        BufferID(nextID()),
		halBuffer: halBuffer,
		device:    device,
	}
	if desc != nil {
		b.descriptor = *desc
	}
	return b
}

// ID returns the buffer's identity.
func (b *Buffer) ID() BufferID { return b.id }

// Label returns the buffer's debug label.
func (b *Buffer) Label() string { return b.descriptor.Label }

// Size returns the buffer size in bytes.
func (b *Buffer) Size() uint64 { return b.descriptor.Size }

// Usage returns the buffer usage flags.
func (b *Buffer) Usage() gputypes.BufferUsage { return b.descriptor.Usage }

// Raw returns the underlying hal buffer, or nil once destroyed.
func (b *Buffer) Raw() hal.Buffer {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.destroyed {
		return nil
	}
	return b.halBuffer
}

// IsDestroyed returns true if the buffer has been destroyed.
func (b *Buffer) IsDestroyed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.destroyed
}

// Destroy releases the hal buffer. It is safe to call multiple times.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return
	}
	b.destroyed = true
	device := b.device
	halBuf := b.halBuffer
	b.halBuffer = nil
	b.device = nil
	b.mu.Unlock()

	if device != nil && halBuf != nil {
		device.DestroyBuffer(halBuf)
	}
}

// BufferView is a byte range of a buffer, optionally typed as vertex data.
// The zero value is the empty view.
type BufferView struct {
	Buffer *Buffer
	Offset uint64
	Size   uint64

	// Stride is the byte distance between consecutive elements.
	// Zero for untyped views.
	Stride uint32

	// Format is the vertex format of each element, if the view is
	// used as a vertex stream.
	Format gputypes.VertexFormat
}

// WholeBuffer returns an untyped view over all of b.
func WholeBuffer(b *Buffer) BufferView {
	return BufferView{Buffer: b, Size: b.Size()}
}

// IsZero reports whether the view references no buffer.
func (v BufferView) IsZero() bool { return v.Buffer == nil }

// BufferID returns the identity of the viewed buffer, or InvalidID.
func (v BufferView) BufferID() BufferID {
	if v.Buffer == nil {
		return InvalidID
	}
	return v.Buffer.id
}

// Texture is a sampled or storage texture with a stable identity.
type Texture struct {
	id     TextureID
	label  string
	format gputypes.TextureFormat
	view   hal.TextureView
}

// NewTexture wraps a hal texture view. view may be nil.
func NewTexture(view hal.TextureView, label string, format gputypes.TextureFormat) *Texture {
	return &Texture{
		id:     TextureID(nextID()),
		label:  label,
		format: format,
		view:   view,
	}
}

// ID returns the texture's identity.
func (t *Texture) ID() TextureID { return t.id }

// Label returns the texture's debug label.
func (t *Texture) Label() string { return t.label }

// Format returns the texture format.
func (t *Texture) Format() gputypes.TextureFormat { return t.format }

// View returns the underlying hal texture view.
func (t *Texture) View() hal.TextureView { return t.view }
