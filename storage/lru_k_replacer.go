package storage

import (
	"container/list"
	"sync"
)

// LRUKReplacer implements the LRU-K replacement policy: frames with fewer
// than K recorded accesses are tracked in a FIFO history list and preferred
// as eviction victims over frames that have reached K accesses, which are
// tracked in an LRU-ordered list instead.
//
// Both lists are a doubly-linked list (container/list) plus a map from
// frame ID to its list element, giving O(1) insertion, removal, and
// move-to-front given only a frame ID — the same intrusive-list idiom the
// teacher's LRUReplacer uses for its single list.
type LRUKReplacer struct {
	capacity int
	k int

	// history holds frames with 1 <= access count < k, most-recently
	// arrived at the front.
	history *list.List
	historyElem map[FrameID]*list.Element

	// cache holds frames with access count >= k, most-recently accessed
	// at the front.
	cache *list.List
	cacheElem map[FrameID]*list.Element

	accessCount map[FrameID]int
	evictable map[FrameID]bool

	currSize int // number of evictable frames

	metrics *Metrics
	mutex sync.Mutex
}

// NewLRUKReplacer creates a replacer that will track at most numFrames
// distinct frame IDs, using k as the history horizon (k >= 1).
func NewLRUKReplacer(numFrames int, k int) *LRUKReplacer {
	if k < 1 {
		k = 1
	}
	return &LRUKReplacer{
		capacity: numFrames,
		k: k,
		history: list.New(),
		historyElem: make(map[FrameID]*list.Element),
		cache: list.New(),
		cacheElem: make(map[FrameID]*list.Element),
		accessCount: make(map[FrameID]int),
		evictable: make(map[FrameID]bool),
	}
}

// SetMetrics attaches a metrics sink; nil disables instrumentation.
func (r *LRUKReplacer) SetMetrics(m *Metrics) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.metrics = m
}

// RecordAccess registers one access event for frameID, moving it between
// the history list and the K-list as its access count crosses k.
func (r *LRUKReplacer) RecordAccess(frameID FrameID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if int(frameID) >= r.capacity {
		return ErrFrameOutOfRange("RecordAccess", frameID, r.capacity)
	}

	r.accessCount[frameID]++
	count := r.accessCount[frameID]

	switch {
	case count < r.k:
		if _, ok := r.historyElem[frameID]; !ok {
			r.historyElem[frameID] = r.history.PushFront(frameID)
		}
	case count == r.k:
		if elem, ok := r.historyElem[frameID]; ok {
			r.history.Remove(elem)
			delete(r.historyElem, frameID)
		}
		r.cacheElem[frameID] = r.cache.PushFront(frameID)
	default: // count > r.k
		if elem, ok := r.cacheElem[frameID]; ok {
			r.cache.Remove(elem)
		}
		r.cacheElem[frameID] = r.cache.PushFront(frameID)
	}

	if r.metrics != nil {
		r.metrics.replacerAccesses.Add(1)
	}
	return nil
}

// SetEvictable marks a known frame as eligible (or not) for eviction.
// It is a no-op if the frame has never been accessed.
func (r *LRUKReplacer) SetEvictable(frameID FrameID, evictable bool) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if int(frameID) >= r.capacity {
		return ErrFrameOutOfRange("SetEvictable", frameID, r.capacity)
	}

	if r.accessCount[frameID] == 0 {
		return nil
	}

	was := r.evictable[frameID]
	if was && !evictable {
		r.currSize--
	}
	if !was && evictable {
		r.currSize++
	}
	r.evictable[frameID] = evictable
	return nil
}

// Evict selects a victim per the LRU-K rule: the back of the history list
// (oldest first access among under-k frames) if any evictable frame is
// there, otherwise the back of the K-list (the least recently accessed
// frame among those with k or more accesses).
func (r *LRUKReplacer) Evict() (FrameID, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if frameID, ok := r.evictBackOf(r.history, r.historyElem); ok {
		r.finishEvict(frameID)
		return frameID, true
	}
	if frameID, ok := r.evictBackOf(r.cache, r.cacheElem); ok {
		r.finishEvict(frameID)
		return frameID, true
	}

	if r.metrics != nil {
		r.metrics.replacerEvictMisses.Add(1)
	}
	return 0, false
}

// evictBackOf scans l from the back for the first evictable frame and, if
// found, removes it from l and its element index (but not from the other
// bookkeeping maps — the caller finishes the job via finishEvict).
func (r *LRUKReplacer) evictBackOf(l *list.List, elems map[FrameID]*list.Element) (FrameID, bool) {
	for e := l.Back(); e != nil; e = e.Prev() {
		frameID := e.Value.(FrameID)
		if r.evictable[frameID] {
			l.Remove(e)
			delete(elems, frameID)
			return frameID, true
		}
	}
	return 0, false
}

func (r *LRUKReplacer) finishEvict(frameID FrameID) {
	delete(r.accessCount, frameID)
	delete(r.evictable, frameID)
	r.currSize--
	if r.metrics != nil {
		r.metrics.replacerEvictions.Add(1)
	}
}

// Remove forcibly drops a known frame from the replacer. It is a no-op if
// the frame is unknown, and fails if the frame is known but not evictable.
func (r *LRUKReplacer) Remove(frameID FrameID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.accessCount[frameID] == 0 {
		return nil
	}
	if !r.evictable[frameID] {
		if r.metrics != nil {
			r.metrics.replacerRemoveRejected.Add(1)
		}
		return ErrFrameNotEvictable("Remove", frameID)
	}

	if elem, ok := r.historyElem[frameID]; ok {
		r.history.Remove(elem)
		delete(r.historyElem, frameID)
	} else if elem, ok := r.cacheElem[frameID]; ok {
		r.cache.Remove(elem)
		delete(r.cacheElem, frameID)
	}

	delete(r.accessCount, frameID)
	delete(r.evictable, frameID)
	r.currSize--
	return nil
}

// Size returns the number of currently evictable frames.
func (r *LRUKReplacer) Size() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.currSize
}
