// Package cmdlist records resolved stage batches as backend-neutral command
// lists and replays them into a backend.
//
// Commands are typed structs, so a recorded list can be inspected in tests
// and replayed to any [Target].
//
//	enc := cmdlist.NewEncoder()
//	if err := enc.RecordStage("opaque", stage.Batches()); err != nil {
//		return err
//	}
//	list, err := enc.Finish()
//	...
//	err = list.Replay(backend)
package cmdlist

import (
	"github.com/gogpu/batchpool/batch"
	"github.com/gogpu/batchpool/resource"
	"github.com/gogpu/batchpool/shader"
)

// CommandType identifies a command.
type CommandType uint8

const (
	// Pass commands
	CmdBeginRenderPass CommandType = iota
	CmdEndRenderPass
	CmdBeginComputePass
	CmdEndComputePass

	// State commands
	CmdSetPipeline
	CmdSetVertexBuffer
	CmdSetIndexBuffer
	CmdSetBuffer
	CmdSetTexture

	// Work commands
	CmdDraw
	CmdDrawIndexed
	CmdDispatch
	CmdDispatchIndirect
	CmdTraceRays
)

var commandTypeNames = [...]string{
	CmdBeginRenderPass:  "BeginRenderPass",
	CmdEndRenderPass:    "EndRenderPass",
	CmdBeginComputePass: "BeginComputePass",
	CmdEndComputePass:   "EndComputePass",
	CmdSetPipeline:      "SetPipeline",
	CmdSetVertexBuffer:  "SetVertexBuffer",
	CmdSetIndexBuffer:   "SetIndexBuffer",
	CmdSetBuffer:        "SetBuffer",
	CmdSetTexture:       "SetTexture",
	CmdDraw:             "Draw",
	CmdDrawIndexed:      "DrawIndexed",
	CmdDispatch:         "Dispatch",
	CmdDispatchIndirect: "DispatchIndirect",
	CmdTraceRays:        "TraceRays",
}

// String returns the command name.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// Command is implemented by every command struct.
type Command interface {
	Type() CommandType
}

// BeginRenderPassCommand opens a render pass.
type BeginRenderPassCommand struct{ Label string }

// Type implements Command.
func (BeginRenderPassCommand) Type() CommandType { return CmdBeginRenderPass }

// EndRenderPassCommand closes the open render pass.
type EndRenderPassCommand struct{}

// Type implements Command.
func (EndRenderPassCommand) Type() CommandType { return CmdEndRenderPass }

// BeginComputePassCommand opens a compute pass.
type BeginComputePassCommand struct{ Label string }

// Type implements Command.
func (BeginComputePassCommand) Type() CommandType { return CmdBeginComputePass }

// EndComputePassCommand closes the open compute pass.
type EndComputePassCommand struct{}

// Type implements Command.
func (EndComputePassCommand) Type() CommandType { return CmdEndComputePass }

// SetPipelineCommand binds the pipeline built from a resolved shader.
type SetPipelineCommand struct{ Shader shader.ID }

// Type implements Command.
func (SetPipelineCommand) Type() CommandType { return CmdSetPipeline }

// SetVertexBufferCommand binds a vertex stream to an input slot.
type SetVertexBufferCommand struct {
	Slot uint32
	View resource.BufferView
}

// Type implements Command.
func (SetVertexBufferCommand) Type() CommandType { return CmdSetVertexBuffer }

// SetIndexBufferCommand binds the index buffer.
type SetIndexBufferCommand struct {
	View   resource.BufferView
	Format batch.IndexFormat
}

// Type implements Command.
func (SetIndexBufferCommand) Type() CommandType { return CmdSetIndexBuffer }

// SetBufferCommand binds a named buffer.
type SetBufferCommand struct {
	Name string
	View resource.BufferView
}

// Type implements Command.
func (SetBufferCommand) Type() CommandType { return CmdSetBuffer }

// SetTextureCommand binds a named texture. Writable textures are bound as
// storage textures and carry no sampler.
type SetTextureCommand struct {
	Name     string
	Texture  *resource.Texture
	Sampler  resource.SamplerID
	Writable bool
}

// Type implements Command.
func (SetTextureCommand) Type() CommandType { return CmdSetTexture }

// DrawCommand issues a non-indexed draw.
type DrawCommand struct {
	VertexCount   uint32
	InstanceCount uint32
	FirstVertex   uint32
}

// Type implements Command.
func (DrawCommand) Type() CommandType { return CmdDraw }

// DrawIndexedCommand issues an indexed draw.
type DrawIndexedCommand struct {
	IndexCount    uint32
	InstanceCount uint32
	FirstIndex    uint32
	BaseVertex    int32
}

// Type implements Command.
func (DrawIndexedCommand) Type() CommandType { return CmdDrawIndexed }

// DispatchCommand dispatches compute workgroups.
type DispatchCommand struct{ X, Y, Z uint32 }

// Type implements Command.
func (DispatchCommand) Type() CommandType { return CmdDispatch }

// DispatchIndirectCommand dispatches with workgroup counts read from a buffer.
type DispatchIndirectCommand struct{ View resource.BufferView }

// Type implements Command.
func (DispatchIndirectCommand) Type() CommandType { return CmdDispatchIndirect }

// TraceRaysCommand dispatches rays against an acceleration structure.
type TraceRaysCommand struct {
	Scene                resource.AccelStructID
	Width, Height, Depth uint32
}

// Type implements Command.
func (TraceRaysCommand) Type() CommandType { return CmdTraceRays }
