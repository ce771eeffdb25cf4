package storage

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

func TestMetricsCreation(t *testing.T) {
	m := NewMetrics()
	if m == nil {
		t.Fatal("Metrics should not be nil")
	}

	if m.GetReplacerAccesses() != 0 {
		t.Errorf("Expected replacer accesses 0, got %d", m.GetReplacerAccesses())
	}

	if m.GetHashInserts() != 0 {
		t.Errorf("Expected hash inserts 0, got %d", m.GetHashInserts())
	}
}

func TestReplacerMetrics(t *testing.T) {
	m := NewMetrics()

	r := NewLRUKReplacer(5, 2)
	r.SetMetrics(m)

	r.RecordAccess(0)
	r.RecordAccess(1)
	r.SetEvictable(0, true)
	r.SetEvictable(1, true)

	if m.GetReplacerAccesses() != 2 {
		t.Errorf("Expected 2 accesses, got %d", m.GetReplacerAccesses())
	}

	if _, ok := r.Evict(); !ok {
		t.Fatal("Expected a victim")
	}

	if m.GetReplacerEvictions() != 1 {
		t.Errorf("Expected 1 eviction, got %d", m.GetReplacerEvictions())
	}

	if _, ok := r.Evict(); !ok {
		t.Fatal("Expected a second victim")
	}
	r.Evict() // nothing left, should count as an evict miss

	if m.GetReplacerEvictMisses() != 1 {
		t.Errorf("Expected 1 evict miss, got %d", m.GetReplacerEvictMisses())
	}
}

func TestHashTableMetricsHitRate(t *testing.T) {
	m := NewMetrics()
	h := NewExtendibleHashTable[int, int](2)
	h.SetMetrics(m)

	h.Insert(1, 1)
	h.Find(1)
	h.Find(2)

	if m.GetHashInserts() != 1 {
		t.Errorf("Expected 1 insert, got %d", m.GetHashInserts())
	}
	if m.GetHashFinds() != 2 {
		t.Errorf("Expected 2 finds, got %d", m.GetHashFinds())
	}
	if m.GetHashFindHits() != 1 {
		t.Errorf("Expected 1 find hit, got %d", m.GetHashFindHits())
	}

	expected := 0.5
	if rate := m.GetHashFindHitRate(); rate != expected {
		t.Errorf("Expected hit rate %.2f, got %.2f", expected, rate)
	}
}

func TestMetricsUptime(t *testing.T) {
	m := NewMetrics()

	time.Sleep(10 * time.Millisecond)

	uptime := m.GetUptime()
	if uptime < 10*time.Millisecond {
		t.Errorf("Expected uptime >= 10ms, got %v", uptime)
	}
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()

	r := NewLRUKReplacer(5, 2)
	r.SetMetrics(m)
	r.RecordAccess(0)

	h := NewExtendibleHashTable[int, int](2)
	h.SetMetrics(m)
	h.Insert(1, 1)

	m.Reset()

	if m.GetReplacerAccesses() != 0 {
		t.Errorf("Expected replacer accesses 0 after reset, got %d", m.GetReplacerAccesses())
	}

	if m.GetHashInserts() != 0 {
		t.Errorf("Expected hash inserts 0 after reset, got %d", m.GetHashInserts())
	}
}

func TestMetricsLogging(t *testing.T) {
	m := NewMetrics()

	r := NewLRUKReplacer(5, 2)
	r.SetMetrics(m)
	r.RecordAccess(0)
	r.SetEvictable(0, true)
	r.Evict()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// Should not panic
	m.LogMetrics(logger)
}

func TestHashFindHitRateEdgeCases(t *testing.T) {
	m := NewMetrics()

	if m.GetHashFindHitRate() != 0.0 {
		t.Errorf("Expected 0.0 hit rate with no finds, got %.2f", m.GetHashFindHitRate())
	}

	h := NewExtendibleHashTable[int, int](2)
	h.SetMetrics(m)
	h.Insert(1, 1)
	h.Find(1)
	h.Find(1)

	if m.GetHashFindHitRate() != 1.0 {
		t.Errorf("Expected 1.0 hit rate with only hits, got %.2f", m.GetHashFindHitRate())
	}
}
