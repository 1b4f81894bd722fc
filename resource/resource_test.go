package resource

import (
	"sync"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuffer(t *testing.T) {
	b := NewBuffer(nil, nil, &BufferDescriptor{
		Label: "verts",
		Size:  256,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	assert.NotEqual(t, BufferID(InvalidID), b.ID())
	assert.Equal(t, "verts", b.Label())
	assert.Equal(t, uint64(256), b.Size())
	assert.Equal(t, gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst, b.Usage())
	assert.Nil(t, b.Raw())
	assert.False(t, b.IsDestroyed())
}

func TestBufferDestroyIdempotent(t *testing.T) {
	b := NewBuffer(nil, nil, nil)
	b.Destroy()
	b.Destroy()
	assert.True(t, b.IsDestroyed())
	assert.Nil(t, b.Raw())
}

func TestUniqueIDs(t *testing.T) {
	const n = 1000
	var (
		mu   sync.Mutex
		seen = make(map[uint64]bool, 4*n)
		wg   sync.WaitGroup
	)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]uint64, 0, n)
			for range n {
				local = append(local, uint64(NewBuffer(nil, nil, nil).ID()))
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range local {
				require.False(t, seen[id], "duplicate id %d", id)
				seen[id] = true
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 4*n)
}

func TestBufferView(t *testing.T) {
	var zero BufferView
	assert.True(t, zero.IsZero())
	assert.Equal(t, BufferID(InvalidID), zero.BufferID())

	b := NewBuffer(nil, nil, &BufferDescriptor{Size: 64})
	v := WholeBuffer(b)
	assert.False(t, v.IsZero())
	assert.Equal(t, b.ID(), v.BufferID())
	assert.Equal(t, uint64(64), v.Size)
}

func TestTexture(t *testing.T) {
	tex := NewTexture(nil, "albedo", gputypes.TextureFormatRGBA8Unorm)
	other := NewTexture(nil, "albedo", gputypes.TextureFormatRGBA8Unorm)
	assert.NotEqual(t, tex.ID(), other.ID())
	assert.Equal(t, "albedo", tex.Label())
	assert.Equal(t, gputypes.TextureFormatRGBA8Unorm, tex.Format())
	assert.Nil(t, tex.View())
	assert.NotEqual(t, NewSamplerID(), NewSamplerID())
	assert.NotEqual(t, NewAccelStructID(), NewAccelStructID())
}
