// Package builder assembles batches with chained setters and submits them to
// a pool.
//
//	h := builder.Raster().
//		Effect(fx).
//		Stream(batch.Position, positions).
//		Index(indices, batch.IndexFormatUint16).
//		DrawIndexed(36, 0, 0).
//		Build(p, builder.LifetimePersistent, owner)
//	defer h.Release()
//
// Build consumes the builder: the batch moves into the pool and the builder
// cannot be built again.
package builder

import (
	"fmt"

	"github.com/gogpu/batchpool"
	"github.com/gogpu/batchpool/batch"
	"github.com/gogpu/batchpool/pool"
	"github.com/gogpu/batchpool/resource"
)

// Lifetime controls who keeps a built batch alive.
type Lifetime uint8

const (
	// LifetimePersistent leaves the returned handle as the only reference.
	LifetimePersistent Lifetime = iota

	// LifetimeFrame additionally keeps the batch alive until the pool's next
	// Update, so producers may drop their handle right after submission.
	LifetimeFrame
)

// String implements fmt.Stringer.
func (l Lifetime) String() string {
	switch l {
	case LifetimePersistent:
		return "Persistent"
	case LifetimeFrame:
		return "Frame"
	default:
		return fmt.Sprintf("Lifetime(%d)", uint8(l))
	}
}

// common holds the fields every kind shares.
type common struct {
	desc  batch.Desc
	built bool
}

func (c *common) finish(op string, params batch.Params) batch.Batch {
	if c.built {
		batchpool.Violation(op, "builder already built")
	}
	c.built = true
	c.desc.Params = params
	b := batch.New(&c.desc)
	c.desc = batch.Desc{}
	return b
}

func submit(b batch.Batch, p *pool.Pool, lifetime Lifetime, owner pool.OwnerID) pool.Handle {
	h := p.AddBatch(&b, owner)
	if lifetime == LifetimeFrame {
		p.HoldForFrame(h.Slot())
	}
	return h
}

func (c *common) buffer(name string, view resource.BufferView) {
	c.desc.Buffers = append(c.desc.Buffers, batch.BufferBinding{Name: name, View: view})
}

func (c *common) texture(name string, tex *resource.Texture, sampler resource.SamplerID) {
	c.desc.Textures = append(c.desc.Textures, batch.TextureBinding{Name: name, Texture: tex, Sampler: sampler})
}

func (c *common) rwTexture(name string, tex *resource.Texture) {
	c.desc.RWTextures = append(c.desc.RWTextures, batch.TextureBinding{Name: name, Texture: tex})
}
