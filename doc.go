// Package batchpool provides pooled, deduplicated descriptions of GPU work.
//
// # Overview
//
// A renderer describes every draw call, compute dispatch and ray-trace dispatch
// it wants to submit as a batch. Batches are assembled with the builders in
// [github.com/gogpu/batchpool/builder] and stored in a
// [github.com/gogpu/batchpool/pool.Pool], which hashes their content so that
// identical work shares one slot and can be instanced.
//
// Each render stage wraps the handles it draws in a
// [github.com/gogpu/batchpool/stage.StageBatch] and resolves it once per frame
// against a shader lookup, producing the final shader and vertex-buffer slot
// assignment. The frame driver in [github.com/gogpu/batchpool/frame] services the
// pool once per frame so that slots released by the CPU are only reused after
// the GPU can no longer be reading them.
//
// # Architecture
//
//	  builder ──Build──▶ pool.Pool ◀──Update── frame.Driver
//	                        │
//	                   pool.Handle
//	                        │
//	                 stage.StageBatch ──Resolve──▶ shader.Lookup
//	                        │
//	                   cmdlist.Encoder ──Replay──▶ cmdlist.Target
//
// # Errors
//
// Caller bugs (wrong-kind accessors, changed instance counts, topology
// mismatches, duplicate binding names) are not returned as errors. They panic
// with a [*LogicError].
//
// # Logging
//
// By default the module is silent. Call [SetLogger] to enable structured
// logging through log/slog.
package batchpool

// Version information
const (
	// Version is the current version of the module.
	Version = "0.1.0"
)
