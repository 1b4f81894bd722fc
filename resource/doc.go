// Package resource defines the GPU resource handles that batches reference.
//
// Batches never look inside a resource. They only need a stable identity to
// hash and, for buffers, a byte range to bind. Each handle optionally wraps
// the backend object from gogpu/wgpu's hal layer; tests and CPU-only tools
// leave it nil.
//
// Identities are process-unique, allocated from a single atomic counter, and
// never reused, so two handles with the same ID are the same resource.
package resource
