// Package batch defines the Batch value: an immutable description of one unit
// of GPU work.
//
// A Batch is one of three kinds, [KindRaster], [KindCompute] or
// [KindRayTracing], each with its own parameter struct. The kind-specific
// parameters are stored inline so that every Batch has the same fixed size,
// which lets the pool keep batches in flat per-page arrays.
//
// Batches are built from a [Desc] with [New], which validates the bindings and
// computes the content hash. Two batches with the same hash describe work the
// GPU cannot tell apart and may be merged into one instanced submission.
//
// # Hashing
//
// The content hash is a streaming XXH3 digest of, in order: the kind, the
// kind-specific parameters, the effect, the drawstyle bits, the non-transient
// filter bits, and every binding in attachment order. Resources are hashed by
// identity, never by contents. Instance counts and the bits in
// [FilterTransientMask] are excluded so that they never break instancing.
package batch
