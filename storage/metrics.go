package storage

import (
	"log/slog"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Histogram tracks latency distribution with percentile support
type Histogram struct {
	samples []float64 // Latencies in microseconds
	mu sync.RWMutex
	maxSize int // Maximum samples to retain
	sorted bool // Track if samples are sorted
}

// NewHistogram creates a new histogram with a max sample size
func NewHistogram(maxSize int) *Histogram {
	if maxSize <= 0 {
		maxSize = 10000 // Default: keep last 10k samples
	}
	return &Histogram{
		samples: make([]float64, 0, maxSize),
		maxSize: maxSize,
		sorted: true,
	}
}

// Record adds a latency sample (in microseconds)
func (h *Histogram) Record(latencyUs float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// If at capacity, remove oldest sample (FIFO)
	if len(h.samples) >= h.maxSize {
		// Shift left (removes oldest)
		copy(h.samples, h.samples[1:])
		h.samples = h.samples[:len(h.samples)-1]
	}

	h.samples = append(h.samples, latencyUs)
	h.sorted = false // Adding new sample invalidates sort order
}

// Percentile calculates the given percentile (0-100)
func (h *Histogram) Percentile(p float64) float64 {
	h.mu.RLock()

	if len(h.samples) == 0 {
		h.mu.RUnlock()
		return 0
	}

	if !h.sorted {
		h.mu.RUnlock()
		h.mu.Lock()
		if !h.sorted { // Double-check after acquiring write lock
			sort.Float64s(h.samples)
			h.sorted = true
		}
		h.mu.Unlock()
		h.mu.RLock()
	}
	defer h.mu.RUnlock()

	rank := (p / 100.0) * float64(len(h.samples)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))

	if lower == upper {
		return h.samples[lower]
	}

	weight := rank - float64(lower)
	return h.samples[lower]*(1-weight) + h.samples[upper]*weight
}

// Mean calculates the average latency
func (h *Histogram) Mean() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.samples) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range h.samples {
		sum += v
	}
	return sum / float64(len(h.samples))
}

// Count returns the number of samples
func (h *Histogram) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.samples)
}

// Reset clears all samples
func (h *Histogram) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.samples = h.samples[:0]
	h.sorted = true
}

// HistogramSnapshot captures point-in-time percentile statistics
type HistogramSnapshot struct {
	Count int
	Mean float64
	P50 float64 // Median
	P95 float64
	P99 float64
}

// Snapshot captures current histogram statistics
func (h *Histogram) Snapshot() HistogramSnapshot {
	return HistogramSnapshot{
		Count: h.Count(),
		Mean: h.Mean(),
		P50: h.Percentile(50),
		P95: h.Percentile(95),
		P99: h.Percentile(99),
	}
}

// Metrics tracks replacer and hash table activity. Every counter is an
// atomic, so callers can read it without going through the owning
// structure's mutex.
type Metrics struct {
	// LRU-K Replacer
	replacerAccesses atomic.Uint64
	replacerEvictions atomic.Uint64
	replacerEvictMisses atomic.Uint64 // Evict() called with nothing evictable
	replacerRemoveRejected atomic.Uint64 // Remove() on a non-evictable frame

	// Extendible Hash Table
	hashInserts atomic.Uint64
	hashFinds atomic.Uint64
	hashFindHits atomic.Uint64
	hashRemoves atomic.Uint64
	hashSplits atomic.Uint64
	hashDirGrowths atomic.Uint64

	insertLatency *Histogram // Insert latency, microseconds
	findLatency *Histogram // Find latency, microseconds

	startTime time.Time
	mu sync.RWMutex
}

// NewMetrics creates a new metrics tracker
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
		insertLatency: NewHistogram(10000),
		findLatency: NewHistogram(10000),
	}
}

// Replacer metrics accessors

func (m *Metrics) GetReplacerAccesses() uint64 { return m.replacerAccesses.Load() }
func (m *Metrics) GetReplacerEvictions() uint64 { return m.replacerEvictions.Load() }
func (m *Metrics) GetReplacerEvictMisses() uint64 { return m.replacerEvictMisses.Load() }
func (m *Metrics) GetReplacerRemoveRejected() uint64 { return m.replacerRemoveRejected.Load() }

// Hash table metrics accessors

func (m *Metrics) GetHashInserts() uint64 { return m.hashInserts.Load() }
func (m *Metrics) GetHashFinds() uint64 { return m.hashFinds.Load() }
func (m *Metrics) GetHashFindHits() uint64 { return m.hashFindHits.Load() }
func (m *Metrics) GetHashRemoves() uint64 { return m.hashRemoves.Load() }
func (m *Metrics) GetHashSplits() uint64 { return m.hashSplits.Load() }
func (m *Metrics) GetHashDirGrowths() uint64 { return m.hashDirGrowths.Load() }

// GetHashFindHitRate returns hits / finds, or 0 if no finds were recorded.
func (m *Metrics) GetHashFindHitRate() float64 {
	finds := m.GetHashFinds()
	if finds == 0 {
		return 0
	}
	return float64(m.GetHashFindHits()) / float64(finds)
}

// RecordInsertLatency records an Insert's wall time in microseconds.
func (m *Metrics) RecordInsertLatency(us float64) {
	m.insertLatency.Record(us)
}

// RecordFindLatency records a Find's wall time in microseconds.
func (m *Metrics) RecordFindLatency(us float64) {
	m.findLatency.Record(us)
}

// GetUptime returns the time elapsed since the metrics tracker was created
func (m *Metrics) GetUptime() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return time.Since(m.startTime)
}

// LogMetrics logs all metrics using structured logging
func (m *Metrics) LogMetrics(logger *slog.Logger) {
	insert := m.insertLatency.Snapshot()
	find := m.findLatency.Snapshot()

	logger.Info("bufcore metrics",
		slog.Group("replacer",
			slog.Uint64("accesses", m.GetReplacerAccesses()),
			slog.Uint64("evictions", m.GetReplacerEvictions()),
			slog.Uint64("evict_misses", m.GetReplacerEvictMisses()),
			slog.Uint64("remove_rejected", m.GetReplacerRemoveRejected()),
		),
		slog.Group("hash_table",
			slog.Uint64("inserts", m.GetHashInserts()),
			slog.Uint64("finds", m.GetHashFinds()),
			slog.Float64("find_hit_rate", m.GetHashFindHitRate()),
			slog.Uint64("removes", m.GetHashRemoves()),
			slog.Uint64("splits", m.GetHashSplits()),
			slog.Uint64("dir_growths", m.GetHashDirGrowths()),
		),
		slog.Group("latency_us",
			slog.Group("insert",
				slog.Int("count", insert.Count),
				slog.Float64("mean", insert.Mean),
				slog.Float64("p99", insert.P99),
			),
			slog.Group("find",
				slog.Int("count", find.Count),
				slog.Float64("mean", find.Mean),
				slog.Float64("p99", find.P99),
			),
		),
		slog.Duration("uptime", m.GetUptime()),
	)
}

// Reset resets all metrics (useful for testing)
func (m *Metrics) Reset() {
	m.replacerAccesses.Store(0)
	m.replacerEvictions.Store(0)
	m.replacerEvictMisses.Store(0)
	m.replacerRemoveRejected.Store(0)
	m.hashInserts.Store(0)
	m.hashFinds.Store(0)
	m.hashFindHits.Store(0)
	m.hashRemoves.Store(0)
	m.hashSplits.Store(0)
	m.hashDirGrowths.Store(0)

	m.insertLatency.Reset()
	m.findLatency.Reset()

	m.mu.Lock()
	m.startTime = time.Now()
	m.mu.Unlock()
}
