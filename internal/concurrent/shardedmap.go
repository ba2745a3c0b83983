// Package concurrent provides the striped-lock map the chain engine
// uses for its address index and per-file result accumulation. This
// is hand-rolled rather than imported: no general-purpose sharded-map
// library is a natural fit here.
package concurrent

import (
	"hash/maphash"
	"sync"
)

const shardCount = 256

// ShardedMap is a map[K][]V split across a fixed number of
// independently-locked shards, keyed by a seeded hash of K so callers
// contending on different keys rarely contend on the same lock.
// The zero value is not usable; construct with NewShardedMap.
type ShardedMap[K comparable, V any] struct {
	seed   maphash.Seed
	shards [shardCount]shard[K, V]
	hash   func(maphash.Seed, K) uint64
}

type shard[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K][]V
}

// NewShardedMap returns an empty ShardedMap. hash must be a
// seed-dependent hash function for K (callers typically close over
// maphash.Bytes or maphash.String applied to a canonical encoding of
// K); it is called with a seed fixed for the lifetime of the map so
// that repeated lookups of the same key always land on the same
// shard.
func NewShardedMap[K comparable, V any](hash func(maphash.Seed, K) uint64) *ShardedMap[K, V] {
	sm := &ShardedMap[K, V]{
		seed: maphash.MakeSeed(),
		hash: hash,
	}
	for i := range sm.shards {
		sm.shards[i].m = make(map[K][]V)
	}
	return sm
}

func (sm *ShardedMap[K, V]) shardFor(key K) *shard[K, V] {
	h := sm.hash(sm.seed, key)
	return &sm.shards[h%shardCount]
}

// Append appends v to the slice stored under key, creating it if
// absent. Safe for concurrent use by multiple goroutines, including
// concurrent Append calls for different keys.
func (sm *ShardedMap[K, V]) Append(key K, v V) {
	s := sm.shardFor(key)
	s.mu.Lock()
	s.m[key] = append(s.m[key], v)
	s.mu.Unlock()
}

// Get returns the slice stored under key, or nil if absent. The
// returned slice must not be mutated by the caller — it is shared with
// the map's internal storage.
func (sm *ShardedMap[K, V]) Get(key K) []V {
	s := sm.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[key]
}

// Len returns the total number of keys across all shards. Intended for
// diagnostics/logging, not for hot-path use — it locks every shard in
// turn.
func (sm *ShardedMap[K, V]) Len() int {
	n := 0
	for i := range sm.shards {
		sm.shards[i].mu.Lock()
		n += len(sm.shards[i].m)
		sm.shards[i].mu.Unlock()
	}
	return n
}

// Range calls f for every key/slice pair across all shards. f must not
// call back into the ShardedMap. Iteration order is unspecified.
func (sm *ShardedMap[K, V]) Range(f func(key K, vs []V)) {
	for i := range sm.shards {
		sm.shards[i].mu.Lock()
		for k, vs := range sm.shards[i].m {
			f(k, vs)
		}
		sm.shards[i].mu.Unlock()
	}
}
