package historical

import (
	"strconv"
	"testing"
)

func TestLocal_CountStartsAtZeroAndIncrementsOnRecord(t *testing.T) {
	l := NewLocal()
	if l.Count("open") != 0 {
		t.Fatalf("expected 0 for an unrecorded action, got %d", l.Count("open"))
	}
	l.Record("open")
	l.Record("open")
	if l.Count("open") != 2 {
		t.Fatalf("expected 2 after two records, got %d", l.Count("open"))
	}
	if l.Count("close") != 0 {
		t.Fatalf("expected a different action id to remain at 0, got %d", l.Count("close"))
	}
}

func TestGlobal_CountStartsAtZeroAndIncrementsOnRecord(t *testing.T) {
	g := NewGlobal()
	if g.Count("open") != 0 {
		t.Fatalf("expected 0 for an unrecorded action, got %d", g.Count("open"))
	}
	g.Record("open")
	g.Record("open")
	g.Record("open")
	if g.Count("open") != 3 {
		t.Fatalf("expected 3 after three records, got %d", g.Count("open"))
	}
}

func TestGlobal_EvictsLeastRecentlyTouchedAtCapacity(t *testing.T) {
	g := NewGlobal()
	for i := 0; i < maxGlobalEntries; i++ {
		g.Record(actionIDForIndex(i))
	}
	// Touch every entry but the first, keeping it as the sole
	// least-recently-touched entry.
	for i := 1; i < maxGlobalEntries; i++ {
		g.Record(actionIDForIndex(i))
	}
	g.Record("one-more-to-force-eviction")

	if g.Count(actionIDForIndex(0)) != 0 {
		t.Fatal("expected the least-recently-touched entry to be evicted")
	}
	if g.Count(actionIDForIndex(1)) == 0 {
		t.Fatal("expected a recently-touched entry to survive eviction")
	}
}

func actionIDForIndex(i int) string {
	return "a" + strconv.Itoa(i)
}
