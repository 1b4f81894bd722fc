// Package cache provides the sharded LRU cache used to memoize shader
// variant resolution and reflection.
//
// Keys are spread over 16 shards by a caller-supplied hash so that worker
// goroutines resolving different effects rarely contend on the same lock.
// Each shard evicts its least recently used entry once it reaches capacity.
//
//	c := cache.New[variantKey, *Program](64, variantKey.hash)
//	prog, err := c.GetOrCreate(key, func() (*Program, error) { ... })
//
// # Thread Safety
//
// Sharded is safe for concurrent use and must not be copied after creation.
package cache
