package storage

import (
	"sync"
	"time"
)

// entry is a single (key, value) pair stored in a bucket.
type entry[K comparable, V any] struct {
	key K
	value V
}

// bucket holds up to capacity entries, all sharing the same low depth bits
// of their hash. Multiple directory slots may point at the same bucket
// while depth < the table's global depth; Go's garbage collector is the
// "reference counting" the spec calls for — a bucket is reclaimed the
// moment the last directory slot stops pointing at it.
type bucket[K comparable, V any] struct {
	depth int
	capacity int
	entries []entry[K, V]
}

func newBucket[K comparable, V any](capacity, depth int) *bucket[K, V] {
	return &bucket[K, V]{
		depth: depth,
		capacity: capacity,
		entries: make([]entry[K, V], 0, capacity),
	}
}

func (b *bucket[K, V]) isFull() bool {
	return len(b.entries) >= b.capacity
}

func (b *bucket[K, V]) find(key K) (V, bool) {
	for _, e := range b.entries {
		if e.key == key {
			return e.value, true
		}
	}
	var zero V
	return zero, false
}

func (b *bucket[K, V]) remove(key K) bool {
	for i, e := range b.entries {
		if e.key == key {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return true
		}
	}
	return false
}

// update overwrites the value for an existing key and reports whether the
// key was found. It never appends — a full bucket's existing keys must
// still be updatable without triggering a split.
func (b *bucket[K, V]) update(key K, value V) bool {
	for i := range b.entries {
		if b.entries[i].key == key {
			b.entries[i].value = value
			return true
		}
	}
	return false
}

// ExtendibleHashTable is a thread-safe, dynamically growing hash table:
// the directory doubles and a full bucket splits in place whenever an
// insert can't fit, without ever losing or duplicating an entry.
type ExtendibleHashTable[K comparable, V any] struct {
	mu sync.Mutex

	globalDepth int
	bucketSize int
	numBuckets int
	dir []*bucket[K, V]

	hasher keyHasher[K]
	metrics *Metrics
}

// NewExtendibleHashTable creates a table with one empty bucket at global
// depth 0. bucketSize below 1 is clamped to 1.
func NewExtendibleHashTable[K comparable, V any](bucketSize int) *ExtendibleHashTable[K, V] {
	if bucketSize < 1 {
		bucketSize = 1
	}
	return &ExtendibleHashTable[K, V]{
		globalDepth: 0,
		bucketSize: bucketSize,
		numBuckets: 1,
		dir: []*bucket[K, V]{newBucket[K, V](bucketSize, 0)},
		hasher: newKeyHasher[K](),
	}
}

// SetMetrics attaches a metrics sink; nil disables instrumentation.
func (h *ExtendibleHashTable[K, V]) SetMetrics(m *Metrics) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.metrics = m
}

// indexOf returns the directory slot for key: the low globalDepth bits of
// its hash. Callers must hold h.mu.
func (h *ExtendibleHashTable[K, V]) indexOf(key K) int {
	mask := uint64(1<<h.globalDepth) - 1
	return int(h.hasher.hash(key) & mask)
}

// Find returns the value stored for key, if any.
func (h *ExtendibleHashTable[K, V]) Find(key K) (V, bool) {
	start := time.Now()
	h.mu.Lock()
	defer h.mu.Unlock()

	value, ok := h.dir[h.indexOf(key)].find(key)

	if h.metrics != nil {
		h.metrics.hashFinds.Add(1)
		if ok {
			h.metrics.hashFindHits.Add(1)
		}
		h.metrics.RecordFindLatency(float64(time.Since(start).Microseconds()))
	}
	return value, ok
}

// Remove erases key and reports whether a removal happened. No directory
// contraction or bucket merging is performed.
func (h *ExtendibleHashTable[K, V]) Remove(key K) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	removed := h.dir[h.indexOf(key)].remove(key)

	if h.metrics != nil && removed {
		h.metrics.hashRemoves.Add(1)
	}
	return removed
}

// Insert upserts (key, value): an existing key's value is overwritten in
// place; a new key may trigger one or more bucket splits before it lands.
func (h *ExtendibleHashTable[K, V]) Insert(key K, value V) {
	start := time.Now()
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.dir[h.indexOf(key)].update(key, value) {
		if h.metrics != nil {
			h.metrics.hashInserts.Add(1)
			h.metrics.RecordInsertLatency(float64(time.Since(start).Microseconds()))
		}
		return
	}

	// The incoming key may still collide with a full bucket after a split:
	// a split only separates entries that disagree on the newly
	// discriminating bit, so all of a bucket's old entries (and the new
	// key) can land on the same side and leave the target still full.
	for h.dir[h.indexOf(key)].isFull() {
		h.splitBucket(h.indexOf(key))
	}

	idx := h.indexOf(key)
	h.dir[idx].entries = append(h.dir[idx].entries, entry[K, V]{key: key, value: value})

	if h.metrics != nil {
		h.metrics.hashInserts.Add(1)
		h.metrics.RecordInsertLatency(float64(time.Since(start).Microseconds()))
	}
}

// splitBucket splits the full bucket referenced at dirIndex into two
// deeper buckets and rewires the directory. Callers must hold h.mu.
func (h *ExtendibleHashTable[K, V]) splitBucket(dirIndex int) {
	origin := h.dir[dirIndex]

	if origin.depth == h.globalDepth {
		oldLen := len(h.dir)
		grown := make([]*bucket[K, V], oldLen*2)
		copy(grown, h.dir)
		copy(grown[oldLen:], h.dir)
		h.dir = grown
		h.globalDepth++
		if h.metrics != nil {
			h.metrics.hashDirGrowths.Add(1)
		}
	}

	lo := newBucket[K, V](h.bucketSize, origin.depth+1)
	hi := newBucket[K, V](h.bucketSize, origin.depth+1)
	discriminant := uint64(1) << origin.depth

	for _, e := range origin.entries {
		if h.hasher.hash(e.key)&discriminant != 0 {
			hi.entries = append(hi.entries, e)
		} else {
			lo.entries = append(lo.entries, e)
		}
	}

	for i := range h.dir {
		if h.dir[i] == origin {
			if uint64(i)&discriminant != 0 {
				h.dir[i] = hi
			} else {
				h.dir[i] = lo
			}
		}
	}

	h.numBuckets++
	if h.metrics != nil {
		h.metrics.hashSplits.Add(1)
	}
}

// SnapshotEntry pairs a stored (key, value) with the local depth of the
// bucket holding it, the unit DumpHashTable exports for diagnostics.
type SnapshotEntry[K comparable, V any] struct {
	Key K
	Value V
	LocalDepth int
}

// Entries returns every (key, value) pair currently stored, each tagged
// with its bucket's local depth. Each shared bucket is visited once.
func (h *ExtendibleHashTable[K, V]) Entries() []SnapshotEntry[K, V] {
	h.mu.Lock()
	defer h.mu.Unlock()

	seen := make(map[*bucket[K, V]]bool)
	var out []SnapshotEntry[K, V]
	for _, b := range h.dir {
		if seen[b] {
			continue
		}
		seen[b] = true
		for _, e := range b.entries {
			out = append(out, SnapshotEntry[K, V]{Key: e.key, Value: e.value, LocalDepth: b.depth})
		}
	}
	return out
}

// GlobalDepth returns the number of low hash bits the directory indexes on.
func (h *ExtendibleHashTable[K, V]) GlobalDepth() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.globalDepth
}

// LocalDepth returns the local depth of the bucket referenced at dirIndex.
func (h *ExtendibleHashTable[K, V]) LocalDepth(dirIndex int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dir[dirIndex].depth
}

// NumBuckets returns the number of distinct buckets currently referenced
// by the directory.
func (h *ExtendibleHashTable[K, V]) NumBuckets() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.numBuckets
}
