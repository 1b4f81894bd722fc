package pool

import (
	"sync"

	"golang.org/x/sys/cpu"
)

const indexShards = 16

// index maps content hashes to slots. It is striped so that inserts of
// unrelated hashes do not serialize on one lock.
type index struct {
	shards [indexShards]indexShard
}

type indexShard struct {
	mu    sync.Mutex
	slots map[uint64]SlotIndex
	_     cpu.CacheLinePad
}

func (x *index) init() {
	for i := range x.shards {
		x.shards[i].slots = make(map[uint64]SlotIndex)
	}
}

func (x *index) shard(hash uint64) *indexShard {
	return &x.shards[hash&(indexShards-1)]
}

func (x *index) lookup(hash uint64) (SlotIndex, bool) {
	s := x.shard(hash)
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[hash]
	return slot, ok
}

func (x *index) len() int {
	n := 0
	for i := range x.shards {
		s := &x.shards[i]
		s.mu.Lock()
		n += len(s.slots)
		s.mu.Unlock()
	}
	return n
}
