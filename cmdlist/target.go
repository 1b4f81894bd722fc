package cmdlist

import (
	"github.com/gogpu/batchpool/batch"
	"github.com/gogpu/batchpool/resource"
	"github.com/gogpu/batchpool/shader"
)

// Target receives replayed commands. A backend implements it on top of its
// native command encoder.
type Target interface {
	BeginRenderPass(label string) error
	EndRenderPass() error
	BeginComputePass(label string) error
	EndComputePass() error

	SetPipeline(id shader.ID) error
	SetVertexBuffer(slot uint32, view resource.BufferView) error
	SetIndexBuffer(view resource.BufferView, format batch.IndexFormat) error
	SetBuffer(name string, view resource.BufferView) error
	SetTexture(name string, tex *resource.Texture, sampler resource.SamplerID, writable bool) error

	Draw(vertexCount, instanceCount, firstVertex uint32) error
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32) error
	Dispatch(x, y, z uint32) error
	DispatchIndirect(view resource.BufferView) error
	TraceRays(scene resource.AccelStructID, width, height, depth uint32) error
}
