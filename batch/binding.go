package batch

import (
	"cogentcore.org/core/base/keylist"
	"github.com/gogpu/batchpool"
	"github.com/gogpu/batchpool/resource"
)

// BufferBinding attaches a buffer range to a named shader resource slot.
type BufferBinding struct {
	Name string
	View resource.BufferView
}

// TextureBinding attaches a texture, and the sampler it is read with, to a
// named shader resource slot. Read-write bindings leave Sampler zero.
type TextureBinding struct {
	Name    string
	Texture *resource.Texture
	Sampler resource.SamplerID
}

// TextureID returns the identity of the bound texture, or InvalidID.
func (b TextureBinding) TextureID() resource.TextureID {
	if b.Texture == nil {
		return resource.InvalidID
	}
	return b.Texture.ID()
}

// bindingSet is an ordered, name-unique set of bindings.
type bindingSet[V any] struct {
	list keylist.List[string, V]
}

// add appends v under name. A duplicate name is a contract violation.
func (s *bindingSet[V]) add(op, name string, v V) {
	if err := s.list.Add(name, v); err != nil {
		batchpool.Violation(op, "duplicate binding %q", name)
	}
}

func (s *bindingSet[V]) len() int { return len(s.list.Values) }

func (s *bindingSet[V]) values() []V { return s.list.Values }

func (s *bindingSet[V]) lookup(name string) (V, bool) { return s.list.AtTry(name) }
