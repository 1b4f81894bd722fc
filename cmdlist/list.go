package cmdlist

import "fmt"

// List is a finished, immutable sequence of commands.
type List struct {
	commands []Command
}

// Len returns the number of commands.
func (l *List) Len() int { return len(l.commands) }

// Commands returns the commands. The slice must not be modified.
func (l *List) Commands() []Command { return l.commands }

// Count returns how many commands of type t the list holds.
func (l *List) Count(t CommandType) int {
	n := 0
	for _, c := range l.commands {
		if c.Type() == t {
			n++
		}
	}
	return n
}

// Replay sends every command to t in order and stops at the first error.
func (l *List) Replay(t Target) error {
	for i, cmd := range l.commands {
		var err error
		switch c := cmd.(type) {
		case BeginRenderPassCommand:
			err = t.BeginRenderPass(c.Label)
		case EndRenderPassCommand:
			err = t.EndRenderPass()
		case BeginComputePassCommand:
			err = t.BeginComputePass(c.Label)
		case EndComputePassCommand:
			err = t.EndComputePass()
		case SetPipelineCommand:
			err = t.SetPipeline(c.Shader)
		case SetVertexBufferCommand:
			err = t.SetVertexBuffer(c.Slot, c.View)
		case SetIndexBufferCommand:
			err = t.SetIndexBuffer(c.View, c.Format)
		case SetBufferCommand:
			err = t.SetBuffer(c.Name, c.View)
		case SetTextureCommand:
			err = t.SetTexture(c.Name, c.Texture, c.Sampler, c.Writable)
		case DrawCommand:
			err = t.Draw(c.VertexCount, c.InstanceCount, c.FirstVertex)
		case DrawIndexedCommand:
			err = t.DrawIndexed(c.IndexCount, c.InstanceCount, c.FirstIndex, c.BaseVertex)
		case DispatchCommand:
			err = t.Dispatch(c.X, c.Y, c.Z)
		case DispatchIndirectCommand:
			err = t.DispatchIndirect(c.View)
		case TraceRaysCommand:
			err = t.TraceRays(c.Scene, c.Width, c.Height, c.Depth)
		default:
			err = fmt.Errorf("cmdlist: unknown command %T", cmd)
		}
		if err != nil {
			return fmt.Errorf("cmdlist: replay command %d (%s): %w", i, cmd.Type(), err)
		}
	}
	return nil
}
